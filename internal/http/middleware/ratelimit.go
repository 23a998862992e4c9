package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"lgpd-site-api/internal/http/httperr"
	"lgpd-site-api/internal/observability/logger"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Limiter decides whether a client may submit. Implemented by
// ratelimit.RedisRateLimiter.
type Limiter interface {
	AllowRequest(ctx context.Context, clientIP string, limit int) (allowed bool, remaining int, err error)
}

// defaultWindow vale para limitadores que não informam a própria janela.
const defaultWindow = time.Minute

type windowed interface {
	Window() time.Duration
}

// retryAfterSeconds returns the limiter window in whole seconds, rounded up.
func retryAfterSeconds(limiter Limiter) int {
	window := defaultWindow
	if wl, ok := limiter.(windowed); ok && wl.Window() > 0 {
		window = wl.Window()
	}
	return int((window + time.Second - 1) / time.Second)
}

// RateLimitMiddleware enforces the per-IP submission limit. A limiter
// failure lets the request through and logs a warning. onReject may be nil.
// Retry-After follows the limiter's Window when it exposes one.
func RateLimitMiddleware(limiter Limiter, limitPerMin int, onReject func()) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := logger.GetLogger(ctx)
			retryAfter := retryAfterSeconds(limiter)

			allowed, remaining, err := limiter.AllowRequest(ctx, ClientIP(r), limitPerMin)
			if err != nil {
				log.Warn(ctx, "rate limit check failed, allowing request",
					logger.Module("ratelimit"),
					logger.Action("check"),
					zap.Error(err),
				)
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limitPerMin))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(time.Duration(retryAfter)*time.Second).Unix(), 10))

			if !allowed {
				trace.SpanFromContext(ctx).AddEvent("rate_limit_exceeded")

				log.Warn(ctx, "rate limit exceeded",
					logger.Module("ratelimit"),
					logger.Action("reject"),
					zap.String("route", getRoutePattern(r)),
					zap.Int("limit", limitPerMin),
				)

				if onReject != nil {
					onReject()
				}

				w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
				httperr.TooManyRequests429(w, ctx)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
