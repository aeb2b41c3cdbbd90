package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
)

const rateLimitMessage = "Demasiados pedidos. Tente novamente mais tarde."

// Limiter decides whether the request identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimiter keeps an in-process token bucket per key
type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(requestsPerSecond float64, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// getLimiter returns a rate limiter for the given key
func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, exists := rl.limiters[key]
	if !exists {
		limiter = rate.NewLimiter(rl.rate, rl.burst)
		rl.limiters[key] = limiter
	}

	return limiter
}

// Allow consumes one token from the bucket for key
func (rl *RateLimiter) Allow(_ context.Context, key string) (bool, error) {
	return rl.getLimiter(key).Allow(), nil
}

// Cleanup removes buckets that have refilled completely
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, limiter := range rl.limiters {
		if limiter.Tokens() >= float64(rl.burst) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup prunes idle buckets every interval until ctx is cancelled
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup()
		case <-ctx.Done():
			return
		}
	}
}

// RateLimit returns a middleware that limits requests per authenticated
// user, or per client IP for anonymous requests. Limiter errors let the
// request through.
func RateLimit(limiter Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), RateLimitKey(r))
			if err != nil {
				AddLogField(w, "rate_limit_error", err.Error())
				allowed = true
			}
			if !allowed {
				w.Header().Set("Retry-After", "1")
				utils.WriteError(w, errors.RateLimited(rateLimitMessage))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitKey identifies the caller of r
func RateLimitKey(r *http.Request) string {
	if userID, ok := GetUserID(r); ok {
		return fmt.Sprintf("user:%d", userID)
	}
	return "ip:" + ClientIP(r)
}

// ClientIP returns the first X-Forwarded-For hop, else the remote host
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if first := strings.TrimSpace(strings.Split(fwd, ",")[0]); first != "" {
			return first
		}
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
