package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/auth"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	return s.ok, s.err
}

func mintTestToken(t *testing.T, role enums.Role) (string, uuid.UUID) {
	t.Helper()
	userID := uuid.New()
	token, err := auth.MintAccessToken(testJWT, time.Now(), auth.AccessTokenPayload{
		UserID: userID,
		Role:   role,
		JTI:    "session-1",
	})
	require.NoError(t, err)
	return token, userID
}

type captured struct {
	user     uuid.UUID
	role     enums.Role
	accessID string
	called   bool
}

func capturingHandler(c *captured) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.called = true
		c.user = UserIDFromContext(r.Context())
		c.role = RoleFromContext(r.Context())
		c.accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingAndInvalidTokens(t *testing.T) {
	var c captured
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(capturingHandler(&c))

	for _, header := range []string{"", "Bearer invalid"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusUnauthorized, resp.Code, header)
	}
	assert.False(t, c.called)
}

func TestAuthAcceptsBearerAndCookie(t *testing.T) {
	token, userID := mintTestToken(t, enums.RoleAdmin)

	bearer := httptest.NewRequest(http.MethodGet, "/", nil)
	bearer.Header.Set("Authorization", "Bearer "+token)
	cookie := httptest.NewRequest(http.MethodGet, "/", nil)
	cookie.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	for _, req := range []*http.Request{bearer, cookie} {
		var c captured
		resp := httptest.NewRecorder()
		Auth(testJWT, stubSessionVerifier{ok: true}, nil)(capturingHandler(&c)).ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, userID, c.user)
		assert.Equal(t, enums.RoleAdmin, c.role)
		assert.Equal(t, "session-1", c.accessID)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token, _ := mintTestToken(t, enums.RoleUser)

	revoked := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(testJWT, stubSessionVerifier{ok: false}, nil)(capturingHandler(&captured{})).ServeHTTP(revoked, req)
	assert.Equal(t, http.StatusUnauthorized, revoked.Code)

	down := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(capturingHandler(&captured{})).ServeHTTP(down, req)
	assert.Equal(t, http.StatusServiceUnavailable, down.Code)
}

func TestOptionalAuthFallsBackToAnonymous(t *testing.T) {
	token, userID := mintTestToken(t, enums.RoleUser)
	mw := OptionalAuth(testJWT, stubSessionVerifier{ok: true}, nil)

	var anon captured
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	resp := httptest.NewRecorder()
	mw(capturingHandler(&anon)).ServeHTTP(resp, req)
	assert.Equal(t, http.StatusOK, resp.Code)
	assert.True(t, anon.called)
	assert.Equal(t, uuid.Nil, anon.user)

	var known captured
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	mw(capturingHandler(&known)).ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, userID, known.user)
}

func TestRequireRole(t *testing.T) {
	handler := RequireRole(enums.RoleAdmin, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.RoleUser, "s"))
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	req = req.WithContext(WithIdentity(req.Context(), uuid.New(), enums.RoleAdmin, "s"))
	resp = httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	assert.Equal(t, http.StatusNoContent, resp.Code)
}
