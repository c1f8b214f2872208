package middlewares

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/tunequiz/admind/internal/observability/logger"
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// WithLogging inyecta un logger scoped al request en el contexto y loguea
// una línea por request al terminar.
func WithLogging() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := logger.L().With(logger.RequestID(GetRequestID(r.Context())))
			r = r.WithContext(logger.ToContext(r.Context(), l))

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			l.Info("http request",
				logger.Method(r.Method),
				logger.Path(r.URL.Path),
				logger.Status(rec.status),
				logger.Duration(time.Since(start)),
				logger.ClientIP(ClientIP(r)),
			)
		})
	}
}

// ClientIP extrae la IP del cliente, considerando proxies.
func ClientIP(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		parts := strings.Split(xf, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
