package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/internal/auth"
	"github.com/angelmondragon/storefront-backend/internal/users"
	"github.com/angelmondragon/storefront-backend/pkg/config"
	"github.com/angelmondragon/storefront-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

type stubAuthService struct {
	loginFn   func(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error)
	logoutFn  func(ctx context.Context, accessID string) error
	refreshFn func(ctx context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error)
}

func (s *stubAuthService) Register(_ context.Context, req auth.RegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Name: req.Name, Email: req.Email, Role: enums.RoleUser}, nil
}

func (s *stubAuthService) AdminRegister(_ context.Context, req auth.AdminRegisterRequest) (*users.UserDTO, error) {
	return &users.UserDTO{ID: uuid.New(), Name: req.Name, Email: req.Email, Role: enums.RoleAdmin}, nil
}

func (s *stubAuthService) Login(ctx context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
	return s.loginFn(ctx, req)
}

func (s *stubAuthService) Logout(ctx context.Context, accessID string) error {
	return s.logoutFn(ctx, accessID)
}

func (s *stubAuthService) Refresh(ctx context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error) {
	return s.refreshFn(ctx, accessToken, refreshToken)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "secret", Issuer: "storefront", ExpirationMinutes: 60, CookieSecure: true}
}

func tokenCookie(resp *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range resp.Result().Cookies() {
		if c.Name == middleware.TokenCookieName {
			return c
		}
	}
	return nil
}

func TestAuthLoginSetsCookieAndHeader(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(_ context.Context, req auth.LoginRequest) (*auth.TokenResponse, error) {
			assert.Equal(t, "jane@example.com", req.Email)
			return &auth.TokenResponse{AccessToken: "access", RefreshToken: "refresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"Jane@Example.com","password":"password123"}`))
	resp := httptest.NewRecorder()

	AuthLogin(svc, testJWTConfig(), logger.Nop())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "access", resp.Header().Get("X-Access-Token"))
	cookie := tokenCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, "access", cookie.Value)
	assert.True(t, cookie.HttpOnly)
	assert.True(t, cookie.Secure)
}

func TestAuthLoginInvalidCredentials(t *testing.T) {
	svc := &stubAuthService{
		loginFn: func(context.Context, auth.LoginRequest) (*auth.TokenResponse, error) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"email":"a@b.co","password":"wrongpass"}`))
	resp := httptest.NewRecorder()

	AuthLogin(svc, testJWTConfig(), logger.Nop())(resp, req)

	require.Equal(t, http.StatusUnauthorized, resp.Code)
	assert.Nil(t, tokenCookie(resp))
}

func TestAuthLogoutClearsCookie(t *testing.T) {
	userID := uuid.New()
	var revoked string
	svc := &stubAuthService{
		logoutFn: func(_ context.Context, accessID string) error {
			revoked = accessID
			return nil
		},
	}
	req := withUser(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), userID, enums.RoleUser)
	resp := httptest.NewRecorder()

	AuthLogout(svc, testJWTConfig(), logger.Nop())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "access-"+userID.String(), revoked)
	cookie := tokenCookie(resp)
	require.NotNil(t, cookie)
	assert.Equal(t, -1, cookie.MaxAge)
}

func TestAuthRefreshRequiresAccessToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"r"}`))
	resp := httptest.NewRecorder()

	AuthRefresh(&stubAuthService{}, testJWTConfig(), logger.Nop())(resp, req)

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthRefreshRotatesTokens(t *testing.T) {
	svc := &stubAuthService{
		refreshFn: func(_ context.Context, accessToken, refreshToken string) (*auth.TokenResponse, error) {
			assert.Equal(t, "old-access", accessToken)
			assert.Equal(t, "old-refresh", refreshToken)
			return &auth.TokenResponse{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh", strings.NewReader(`{"refresh_token":"old-refresh"}`))
	req.Header.Set("Authorization", "Bearer old-access")
	resp := httptest.NewRecorder()

	AuthRefresh(svc, testJWTConfig(), logger.Nop())(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "new-access", resp.Header().Get(middleware.TokenHeader))
}

func TestAuthRegisterReturnsCreated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{"name":"Jane","email":"jane@example.com","password":"password123"}`))
	resp := httptest.NewRecorder()

	AuthRegister(&stubAuthService{}, logger.Nop())(resp, req)

	assert.Equal(t, http.StatusCreated, resp.Code)
	assert.NotContains(t, resp.Body.String(), "password")
}
