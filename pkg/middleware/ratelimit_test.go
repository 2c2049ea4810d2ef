package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiterAllow(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		AttemptsPerWindow: 3,
		WindowDuration:    time.Hour,
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		allowed, err := limiter.Allow(ctx, "login:1.2.3.4")
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d should be allowed", i+1)
	}

	allowed, err := limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	// a different client is not affected
	allowed, err = limiter.Allow(ctx, "login:5.6.7.8")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiterAllow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	limiter := NewDistributedRateLimiter(client, &RateLimitConfig{
		AttemptsPerWindow: 2,
		WindowDuration:    time.Minute,
	}, "test")
	ctx := context.Background()

	allowed, err := limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)

	allowed, err = limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.False(t, allowed)

	// window expiry resets the counter
	mr.FastForward(2 * time.Minute)
	allowed, err = limiter.Allow(ctx, "login:1.2.3.4")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestDistributedRateLimiterFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	mr.Close()

	limiter := NewDistributedRateLimiter(client, nil, "test")
	allowed, err := limiter.Allow(context.Background(), "login:1.2.3.4")
	assert.Error(t, err)
	assert.True(t, allowed)
}

func TestLoginRateLimitMiddleware(t *testing.T) {
	limiter := NewRateLimiter(&RateLimitConfig{
		AttemptsPerWindow: 1,
		WindowDuration:    time.Hour,
	})

	handler := LoginRateLimitMiddleware(limiter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "1.2.3.4:5000"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many login attempts")
}
