package rotation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	stepStartedTotal   *prometheus.CounterVec
	stepCompletedTotal *prometheus.CounterVec
	stepDuration       *prometheus.HistogramVec

	metricsOnce       sync.Once
	metricsRegistered bool
)

// Metrics records rotation step metrics. Recording is a no-op unless
// InitMetrics has been called, so the Lambda path pays nothing when
// metrics are not exported.
type Metrics struct{}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// InitMetrics registers the Prometheus collectors. Call once at startup
// when metrics export is enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		stepStartedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasrotate_step_started_total",
				Help: "Total number of rotation steps started",
			},
			[]string{"step"},
		)

		stepCompletedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "atlasrotate_step_completed_total",
				Help: "Total number of rotation steps completed",
			},
			[]string{"step", "status"},
		)

		stepDuration = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "atlasrotate_step_duration_seconds",
				Help:    "Duration of rotation steps in seconds",
				Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"step"},
		)

		metricsRegistered = true
	})
}

// RecordStepStarted records a step start event.
func (m *Metrics) RecordStepStarted(step string) {
	if !metricsRegistered || stepStartedTotal == nil {
		return
	}
	stepStartedTotal.WithLabelValues(step).Inc()
}

// RecordStepCompleted records a step completion with its outcome.
func (m *Metrics) RecordStepCompleted(step string, success bool, durationSeconds float64) {
	if !metricsRegistered {
		return
	}

	status := "failed"
	if success {
		status = "succeeded"
	}
	if stepCompletedTotal != nil {
		stepCompletedTotal.WithLabelValues(step, status).Inc()
	}
	if stepDuration != nil {
		stepDuration.WithLabelValues(step).Observe(durationSeconds)
	}
}
