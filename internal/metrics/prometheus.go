package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with Prometheus collectors registered
// on its own registry.
type PrometheusRecorder struct {
	registry       *prometheus.Registry
	signups        *prometheus.CounterVec
	signupDuration prometheus.Histogram
	notifications  *prometheus.CounterVec
	deleted        prometheus.Counter
}

// NewPrometheus creates the collectors and registers them, along with the Go
// runtime and process collectors, on a fresh registry.
func NewPrometheus() *PrometheusRecorder {
	p := &PrometheusRecorder{
		registry: prometheus.NewRegistry(),
		signups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_signups_total",
				Help: "Signup requests by outcome.",
			},
			[]string{"outcome"},
		),
		signupDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "waitlist_signup_duration_seconds",
				Help:    "Time spent handling signup requests.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "waitlist_notifications_total",
				Help: "Transactional emails by kind and status.",
			},
			[]string{"kind", "status"},
		),
		deleted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "waitlist_signups_deleted_total",
				Help: "Signups removed through the admin API.",
			},
		),
	}

	p.registry.MustRegister(
		p.signups,
		p.signupDuration,
		p.notifications,
		p.deleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return p
}

// IncSignup increments waitlist_signups_total{outcome}.
func (p *PrometheusRecorder) IncSignup(outcome string) {
	p.signups.WithLabelValues(outcome).Inc()
}

// ObserveSignupDuration records into waitlist_signup_duration_seconds.
func (p *PrometheusRecorder) ObserveSignupDuration(duration time.Duration) {
	p.signupDuration.Observe(duration.Seconds())
}

// IncNotification increments waitlist_notifications_total{kind,status}.
func (p *PrometheusRecorder) IncNotification(kind, status string) {
	p.notifications.WithLabelValues(kind, status).Inc()
}

// IncSignupDeleted increments waitlist_signups_deleted_total.
func (p *PrometheusRecorder) IncSignupDeleted() {
	p.deleted.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (p *PrometheusRecorder) Registry() *prometheus.Registry {
	return p.registry
}
