package smbmount

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records pipeline outcomes in Prometheus. A nil *Metrics records
// nothing.
type Metrics struct {
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// NewMetrics registers the pipeline metrics with reg. A nil reg uses the
// default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Metrics{
		outcomes: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "smbmount_outcomes_total",
				Help: "Total number of mount invocations by status and failure reason",
			},
			[]string{"status", "reason"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smbmount_mount_duration_seconds",
				Help:    "Duration of mount invocations by status",
				Buckets: prometheus.ExponentialBuckets(0.005, 4, 8), // 5ms .. ~82s
			},
			[]string{"status"},
		),
		inFlight: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "smbmount_in_flight",
				Help: "Number of mount invocations currently running",
			},
		),
	}
}

func (m *Metrics) begin() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// observe records a finished invocation.
func (m *Metrics) observe(o Outcome, d time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.outcomes.WithLabelValues(o.Status.String(), o.Reason.String()).Inc()
	m.duration.WithLabelValues(o.Status.String()).Observe(d.Seconds())
}
