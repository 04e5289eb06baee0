package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// HTTPMetrics contains Prometheus metrics for monitoring HTTP traffic.
type HTTPMetrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
	ResponseSize     *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers HTTP metrics with the given registerer.
func NewHTTPMetrics(registerer prometheus.Registerer) *HTTPMetrics {
	metrics := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "unbored_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unbored_http_request_duration_seconds",
				Help:    "HTTP request latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		RequestsInFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "unbored_http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		}),
		ResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "unbored_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{128, 512, 1024, 4096, 16384, 65536, 262144, 1048576},
			},
			[]string{"method", "path"},
		),
	}

	registerer.MustRegister(
		metrics.RequestsTotal,
		metrics.RequestDuration,
		metrics.RequestsInFlight,
		metrics.ResponseSize,
	)

	return metrics
}

// Metrics returns a middleware that records request metrics.
// The path label uses the route template, not the raw URL, to keep
// cardinality bounded.
func Metrics(m *HTTPMetrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			err := next(c)
			elapsed := time.Since(start)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			method := c.Request().Method

			status := c.Response().Status
			if err != nil {
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			m.RequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
			m.RequestDuration.WithLabelValues(method, path).Observe(elapsed.Seconds())
			m.ResponseSize.WithLabelValues(method, path).Observe(float64(c.Response().Size))

			return err
		}
	}
}
