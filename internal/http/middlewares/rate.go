package middlewares

import (
	"fmt"
	"net/http"

	"github.com/tunequiz/admind/internal/http/errors"
	"github.com/tunequiz/admind/internal/observability/logger"
	"github.com/tunequiz/admind/internal/rate"
)

// WithRateLimit limita por IP del cliente usando el limiter dado.
// Si el limiter falla (ej: Redis caído) el request pasa: preferimos
// degradar el límite antes que tirar la operación.
func WithRateLimit(limiter rate.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limiter == nil {
				next.ServeHTTP(w, r)
				return
			}

			res, err := limiter.Allow(r.Context(), ClientIP(r))
			if err != nil {
				logger.From(r.Context()).Warn("rate limiter failed", logger.Err(err))
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", res.Remaining))
			if !res.Allowed {
				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", res.RetryAfter.Seconds()))
				errors.WriteError(w, errors.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
