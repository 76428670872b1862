package middleware

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors of the service.
//
// It records HTTP traffic through Middleware, background jobs through
// ObserveJob and deficiency writes through RecordDeficiencyAction.
type Metrics struct {
	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Queue metrics
	queueJobsTotal   *prometheus.CounterVec
	queueJobDuration *prometheus.HistogramVec

	// Deficiency metrics
	deficiencyActionsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers all collectors with reg.
//
// Usage in main.go:
//
//	metrics := middleware.NewMetrics(prometheus.DefaultRegisterer)
//	e.Use(metrics.Middleware())
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		httpRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"method", "path"},
		),
		httpRequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
		),
		queueJobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "queue_jobs_total",
				Help: "Total number of queue job attempts",
			},
			[]string{"job_type", "status"},
		),
		queueJobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "queue_job_duration_seconds",
				Help:    "Queue job processing duration in seconds",
				Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 120.0},
			},
			[]string{"job_type"},
		),
		deficiencyActionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deficiency_actions_total",
				Help: "Total number of deficiency records created, unarchived, updated or archived",
			},
			[]string{"action"},
		),
	}
}

// Middleware records request count, latency and in-flight requests.
// Requests to /metrics are not recorded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Path() == "/metrics" {
				return next(c)
			}

			start := time.Now()
			m.httpRequestsInFlight.Inc()
			defer m.httpRequestsInFlight.Dec()

			err := next(c)
			if err != nil {
				// Let echo write the error response so the status is known.
				c.Error(err)
			}

			method := c.Request().Method
			path := c.Path()
			status := strconv.Itoa(c.Response().Status)

			m.httpRequestsTotal.WithLabelValues(method, path, status).Inc()
			m.httpRequestDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())

			return nil
		}
	}
}

// ObserveJob records one job attempt.
func (m *Metrics) ObserveJob(jobType, outcome string, duration time.Duration) {
	m.queueJobsTotal.WithLabelValues(jobType, outcome).Inc()
	m.queueJobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// RecordDeficiencyAction counts one deficiency write.
func (m *Metrics) RecordDeficiencyAction(action string) {
	m.deficiencyActionsTotal.WithLabelValues(action).Inc()
}
