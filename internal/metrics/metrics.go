// Package metrics exposes Prometheus counters for the monitoring engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	ChecksTotal        *prometheus.CounterVec
	NewSizesTotal      prometheus.Counter
	NotificationsTotal *prometheus.CounterVec
	CycleDuration      prometheus.Histogram
}

// New registers the application metrics against reg. Pass
// prometheus.DefaultRegisterer for the real process, a fresh registry in
// tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		ChecksTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_checks_total",
			Help: "Total number of size checks performed.",
		}, []string{"result"}),
		NewSizesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "monitor_new_sizes_total",
			Help: "Total number of newly available sizes detected.",
		}),
		NotificationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "monitor_notifications_total",
			Help: "Total number of notification deliveries.",
		}, []string{"result"}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "monitor_cycle_duration_seconds",
			Help:    "Duration of full monitoring cycles.",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func (m *Metrics) ObserveCheck(success bool) {
	m.ChecksTotal.WithLabelValues(resultLabel(success)).Inc()
}

func (m *Metrics) AddNewSizes(n int) {
	m.NewSizesTotal.Add(float64(n))
}

func (m *Metrics) ObserveNotification(success bool) {
	m.NotificationsTotal.WithLabelValues(resultLabel(success)).Inc()
}

func (m *Metrics) ObserveCycle(d time.Duration) {
	m.CycleDuration.Observe(d.Seconds())
}

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
