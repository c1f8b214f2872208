package http

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	metricsOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	httpInflight        prometheus.Gauge

	adminOpsTotal *prometheus.CounterVec
)

// RegisterMetrics inicializa las métricas y devuelve el handler para /metrics.
func RegisterMetrics(registry prometheus.Registerer) http.Handler {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}

	metricsOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Número total de requests procesadas",
		}, []string{"method", "path", "status"})

		httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Latencia de los requests HTTP",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"})

		httpInflight = prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "Requests en vuelo",
		})

		adminOpsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_ops_total",
			Help: "Operaciones administrativas por resultado",
		}, []string{"op", "result"})

		registry.MustRegister(httpRequestsTotal, httpRequestDuration, httpInflight, adminOpsTotal)
	})

	return promhttp.Handler()
}

// ObserveAdminOp registra el resultado de una operación administrativa.
func ObserveAdminOp(op, result string) {
	if adminOpsTotal != nil {
		adminOpsTotal.WithLabelValues(op, result).Inc()
	}
}

type metricsRecorder struct {
	http.ResponseWriter
	status int
}

func (m *metricsRecorder) WriteHeader(code int) {
	m.status = code
	m.ResponseWriter.WriteHeader(code)
}

// WithMetrics instrumenta cada request con las métricas HTTP estándar.
func WithMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httpRequestsTotal == nil {
			next.ServeHTTP(w, r)
			return
		}

		httpInflight.Inc()
		defer httpInflight.Dec()

		start := time.Now()
		rec := &metricsRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		path := r.URL.Path
		httpRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}
