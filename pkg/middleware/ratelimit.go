package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/shelfd/shelfd/pkg/httputil"
	"github.com/shelfd/shelfd/pkg/observability"
)

// RateLimitConfig holds fixed-window rate limit settings.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultLoginRateLimitConfig bounds login attempts per client IP.
// Generous enough for a user fumbling a password, tight enough to slow
// down online guessing.
func DefaultLoginRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 10,
		WindowDuration:    1 * time.Minute,
	}
}

// LoginRateLimiter implements a Redis-backed fixed-window counter so the
// limit is shared across instances. Redis being down never blocks
// logins: the limiter fails open.
type LoginRateLimiter struct {
	redis   *redis.Client
	config  *RateLimitConfig
	prefix  string
	metrics *observability.Metrics
}

// NewLoginRateLimiter creates a limiter over redisClient. A nil config
// uses DefaultLoginRateLimitConfig. metrics may be nil.
func NewLoginRateLimiter(redisClient *redis.Client, config *RateLimitConfig, metrics *observability.Metrics) *LoginRateLimiter {
	if config == nil {
		config = DefaultLoginRateLimitConfig()
	}
	return &LoginRateLimiter{
		redis:   redisClient,
		config:  config,
		prefix:  "ratelimit:login",
		metrics: metrics,
	}
}

// Allow checks whether another attempt from key is within the window
// limit. Redis errors are reported but the request is allowed through.
func (rl *LoginRateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)

	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Reset clears the counter for key.
func (rl *LoginRateLimiter) Reset(ctx context.Context, key string) error {
	return rl.redis.Del(ctx, fmt.Sprintf("%s:%s", rl.prefix, key)).Err()
}

// Handler wraps the login endpoint, keying the window by client IP.
func (rl *LoginRateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.redis == nil {
			next.ServeHTTP(w, r)
			return
		}

		allowed, err := rl.Allow(r.Context(), clientIP(r))
		if err != nil {
			// fail open, Redis outage must not lock everyone out
			next.ServeHTTP(w, r)
			return
		}
		if !allowed {
			if rl.metrics != nil {
				rl.metrics.LoginsTotal.WithLabelValues("rate_limited").Inc()
			}
			httputil.WriteTooManyRequests(w, "Too many login attempts, try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the originating address, preferring X-Forwarded-For
// set by the load balancer.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
