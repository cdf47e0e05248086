package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/render"
	"go.uber.org/zap"
)

// Counter is the slice of pkg/cache the limiter needs.
type Counter interface {
	IncrWithExpire(ctx context.Context, namespace, key string, window time.Duration) (int64, error)
	GetTTL(ctx context.Context, namespace, key string) (time.Duration, error)
}

// RateLimiter allows limit requests per window for each caller, keyed by user
// id when mounted behind AuthMiddleware.Require and by remote address
// otherwise. Forwarded headers are not read here; mount chi's RealIP ahead of
// it when running behind a trusted proxy. It fails open when the counter store
// is unavailable.
func RateLimiter(counter Counter, limit int, window time.Duration, keyPrefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			key := clientKey(r)

			count, err := counter.IncrWithExpire(ctx, keyPrefix, key, window)
			if err != nil {
				logger.Warn("rate limiter unavailable", zap.Error(err))
				next.ServeHTTP(w, r)
				return
			}

			if count > int64(limit) {
				ttl, _ := counter.GetTTL(ctx, keyPrefix, key)
				if ttl <= 0 {
					ttl = window
				}
				logger.Warn("rate limit exceeded",
					zap.String("client", key),
					zap.Int("limit", limit),
					zap.Int64("count", count))

				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
				w.Header().Set("X-RateLimit-Remaining", "0")
				w.Header().Set("Retry-After", strconv.Itoa(int(ttl.Seconds())))

				render.Status(r, http.StatusTooManyRequests)
				render.JSON(w, r, map[string]interface{}{
					"status":      "error",
					"message":     "rate limit exceeded",
					"limit":       limit,
					"retry_after": int(ttl.Seconds()),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.FormatInt(int64(limit)-count, 10))
			next.ServeHTTP(w, r)
		})
	}
}

func clientKey(r *http.Request) string {
	if p, ok := PrincipalFrom(r.Context()); ok {
		return "uid:" + strconv.FormatInt(p.ID, 10)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
