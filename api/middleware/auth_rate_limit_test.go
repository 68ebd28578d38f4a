package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/redis/redistest"
	"github.com/stretchr/testify/assert"
)

func TestAuthRateLimitBlocksAfterLimit(t *testing.T) {
	client, fake := redistest.NewClient()
	policy := NewAuthRateLimitPolicy("Login", time.Minute, 2)
	handler := AuthRateLimit(policy, client, nil)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
		req.RemoteAddr = "203.0.113.9:5555"
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
		if resp.Code == http.StatusTooManyRequests {
			assert.Equal(t, "60", resp.Header().Get("Retry-After"))
		}
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
	assert.Equal(t, time.Minute, fake.TTL(client.RateLimitKey("ip:login:203.0.113.9")))

	other := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", nil)
	other.Header.Set("X-Forwarded-For", "198.51.100.1, 10.0.0.1")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, other)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestAuthRateLimitDisabledPolicyPassesThrough(t *testing.T) {
	client, _ := redistest.NewClient()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	handler := AuthRateLimit(NewAuthRateLimitPolicy("login", 0, 1), client, nil)(next)

	for i := 0; i < 5; i++ {
		resp := httptest.NewRecorder()
		handler.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil))
		assert.Equal(t, http.StatusOK, resp.Code)
	}
}
