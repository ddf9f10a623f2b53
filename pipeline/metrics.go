package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// StageMetrics records per-stage duration, failures and output rows in its
// own registry. A nil *StageMetrics records nothing.
type StageMetrics struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	failures *prometheus.CounterVec
	rows     *prometheus.GaugeVec
}

// NewStageMetrics creates the instruments and registers them.
func NewStageMetrics() *StageMetrics {
	m := &StageMetrics{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "regpipe",
			Name:      "stage_duration_seconds",
			Help:      "Wall time spent in each pipeline stage.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}, []string{"stage"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "regpipe",
			Name:      "stage_failures_total",
			Help:      "Pipeline stages that returned an error.",
		}, []string{"stage"}),
		rows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "regpipe",
			Name:      "stage_rows",
			Help:      "Rows produced by the last run of each stage.",
		}, []string{"stage"}),
	}
	m.registry.MustRegister(m.duration, m.failures, m.rows)
	return m
}

// Registry returns the registry holding the stage instruments.
func (m *StageMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *StageMetrics) observe(stage string, elapsed time.Duration, rows int, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(stage).Observe(elapsed.Seconds())
	if err != nil {
		m.failures.WithLabelValues(stage).Inc()
		return
	}
	m.rows.WithLabelValues(stage).Set(float64(rows))
}

// WriteTextfile writes the current values in the text exposition format,
// for the node exporter textfile collector.
func (m *StageMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
