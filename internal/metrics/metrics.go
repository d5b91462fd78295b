// Package metrics exposes Prometheus instrumentation for the balance engine.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "benefits"

type Metrics struct {
	transitions   *prometheus.CounterVec
	rejections    *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	notifications *prometheus.CounterVec
	subscribers   prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_transitions_total",
				Help:      "Transaction status changes by resulting status",
			},
			[]string{"status"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transaction_rejections_total",
				Help:      "Rejected engine operations by operation and error kind",
			},
			[]string{"operation", "kind"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "transaction_operation_duration_seconds",
				Help:      "Engine operation latency including lock wait",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		notifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notification deliveries by event type and result",
			},
			[]string{"type", "result"},
		),
		subscribers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "notification_subscribers",
				Help:      "Connected notification subscribers",
			},
		),
	}

	reg.MustRegister(m.transitions, m.rejections, m.duration, m.notifications, m.subscribers)

	return m
}

func (m *Metrics) Transition(status string) {
	if m == nil {
		return
	}

	m.transitions.WithLabelValues(status).Inc()
}

func (m *Metrics) Rejection(operation, kind string) {
	if m == nil {
		return
	}

	m.rejections.WithLabelValues(operation, kind).Inc()
}

func (m *Metrics) Observe(operation string, d time.Duration) {
	if m == nil {
		return
	}

	m.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) Notification(eventType, result string) {
	if m == nil {
		return
	}

	m.notifications.WithLabelValues(eventType, result).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}

	m.subscribers.Set(float64(n))
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
