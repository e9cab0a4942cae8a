package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(3, 1)
	assert.True(t, rl.Allow("acme:10.0.0.1"))
	assert.True(t, rl.Allow("acme:10.0.0.1"))
	assert.True(t, rl.Allow("acme:10.0.0.1"))
	assert.False(t, rl.Allow("acme:10.0.0.1"))
}

func TestRateLimiterKeysAreIndependent(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	assert.True(t, rl.Allow("acme:10.0.0.1"))
	assert.False(t, rl.Allow("acme:10.0.0.1"))
	assert.True(t, rl.Allow("acme:10.0.0.2"))
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	require.True(t, rl.Allow("k"))
	require.False(t, rl.Allow("k"))

	// backdate the bucket instead of sleeping
	rl.mu.Lock()
	rl.buckets["k"].last = time.Now().Add(-time.Second)
	rl.mu.Unlock()

	assert.True(t, rl.Allow("k"))
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.1.2.3:54321"
	assert.Equal(t, "10.1.2.3", clientIP(r))

	r.RemoteAddr = "10.1.2.3"
	assert.Equal(t, "10.1.2.3", clientIP(r))
}

func TestRateLimitMiddleware(t *testing.T) {
	h := RateLimitMiddleware(1, 1)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	first := httptest.NewRecorder()
	h.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/v1/acme/analyses", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	h.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/v1/acme/analyses", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "60", second.Header().Get("Retry-After"))

	probe := httptest.NewRecorder()
	h.ServeHTTP(probe, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, probe.Code)
}
