package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/dilovar-s/protokol/pkg/httputil"
)

// RateLimitConfig defines login throttling configuration
type RateLimitConfig struct {
	// AttemptsPerWindow is the max attempts allowed in the time window
	AttemptsPerWindow int
	// WindowDuration is the time window for rate limiting
	WindowDuration time.Duration
}

// DefaultRateLimitConfig returns default login throttle settings
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		AttemptsPerWindow: 10,
		WindowDuration:    time.Minute,
	}
}

// LoginLimiter decides whether another login attempt from a client is
// allowed. Implementations exist in-memory and Redis-backed.
type LoginLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter implements rate limiting with an in-memory token bucket
type RateLimiter struct {
	config  *RateLimitConfig
	buckets map[string]*bucket
	mu      sync.RWMutex
}

type bucket struct {
	tokens     int
	lastUpdate time.Time
	mu         sync.Mutex
}

// NewRateLimiter creates a new in-memory rate limiter
func NewRateLimiter(config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}

	return &RateLimiter{
		config:  config,
		buckets: make(map[string]*bucket),
	}
}

// Allow checks if an attempt is allowed for the given key
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	rl.mu.Lock()
	b, exists := rl.buckets[key]
	if !exists {
		b = &bucket{
			tokens:     rl.config.AttemptsPerWindow,
			lastUpdate: time.Now(),
		}
		rl.buckets[key] = b
	}
	rl.mu.Unlock()

	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastUpdate)

	// Refill tokens based on elapsed time
	tokensToAdd := int(elapsed.Seconds() * float64(rl.config.AttemptsPerWindow) / rl.config.WindowDuration.Seconds())
	if tokensToAdd > 0 {
		b.tokens += tokensToAdd
		if b.tokens > rl.config.AttemptsPerWindow {
			b.tokens = rl.config.AttemptsPerWindow
		}
		b.lastUpdate = now
	}

	if b.tokens > 0 {
		b.tokens--
		return true, nil
	}

	return false, nil
}

// Cleanup removes stale buckets
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	for key, b := range rl.buckets {
		b.mu.Lock()
		if now.Sub(b.lastUpdate) > rl.config.WindowDuration*2 {
			delete(rl.buckets, key)
		}
		b.mu.Unlock()
	}
}

// StartCleanup starts a background goroutine to cleanup stale buckets
func (rl *RateLimiter) StartCleanup(ctx context.Context) {
	ticker := time.NewTicker(rl.config.WindowDuration)
	go func() {
		for {
			select {
			case <-ticker.C:
				rl.Cleanup()
			case <-ctx.Done():
				ticker.Stop()
				return
			}
		}
	}()
}

// LoginRateLimitMiddleware throttles login attempts per client IP.
// A limiter error fails open: an unreachable Redis must not lock
// everyone out.
func LoginRateLimitMiddleware(limiter LoginLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := "login:" + httputil.ClientIP(r)

			allowed, err := limiter.Allow(r.Context(), key)
			if err != nil {
				allowed = true
			}
			if !allowed {
				httputil.WriteTooManyRequests(w, "Too many login attempts, please try again later")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
