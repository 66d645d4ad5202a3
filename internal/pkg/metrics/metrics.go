package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application
type Metrics struct {
	Attempts         *prometheus.CounterVec
	DispatchDuration prometheus.Histogram
	Dispatches       *prometheus.CounterVec
	HTTPRequests     *prometheus.CounterVec
}

// New creates and registers all metrics on reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailing_attempts_total",
			Help: "Delivery attempts recorded by the dispatcher, by status",
		}, []string{"status"}),
		DispatchDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "mailing_dispatch_duration_seconds",
			Help:    "Wall time of one mailing dispatch",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
		Dispatches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailing_dispatches_total",
			Help: "Dispatch requests by outcome",
		}, []string{"outcome"}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "mailing_admin_http_requests_total",
			Help: "HTTP requests by route pattern and status code",
		}, []string{"route", "code"}),
	}
}

// ObserveAttempt counts one delivery attempt.
func (m *Metrics) ObserveAttempt(status string) {
	m.Attempts.WithLabelValues(status).Inc()
}

// ObserveDispatch records a finished dispatch.
func (m *Metrics) ObserveDispatch(outcome string, took time.Duration) {
	m.Dispatches.WithLabelValues(outcome).Inc()
	m.DispatchDuration.Observe(took.Seconds())
}

// ObserveRequest counts one HTTP request by route pattern and status code.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
