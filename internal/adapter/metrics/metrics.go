// Package metrics exposes the engine's Prometheus instruments. InitMetrics
// must run once at startup; the Record helpers are no-ops until it has.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricsOnce sync.Once

	// datapointsIngestedTotal counts data points appended, by source tool
	datapointsIngestedTotal *prometheus.CounterVec

	// importItemFailuresTotal counts rejected batch items by reason
	importItemFailuresTotal *prometheus.CounterVec

	importBatchDuration prometheus.Histogram
	recomputeDuration   prometheus.Histogram

	// sessionRiskScore tracks the risk score observed after each mutation
	sessionRiskScore prometheus.Histogram

	concurrentMutationsTotal prometheus.Counter

	notifierErrorsTotal *prometheus.CounterVec
)

// InitMetrics registers all collectors with the default registry.
func InitMetrics() {
	metricsOnce.Do(func() {
		datapointsIngestedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fusion_datapoints_ingested_total",
				Help: "Total number of data points appended to sessions by source tool",
			},
			[]string{"tool"},
		)

		importItemFailuresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fusion_import_item_failures_total",
				Help: "Total number of batch import items that failed, by reason",
			},
			[]string{"reason"},
		)

		importBatchDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fusion_import_batch_duration_seconds",
				Help:    "Duration of batch imports in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
		)

		recomputeDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fusion_recompute_duration_seconds",
				Help:    "Duration of session analytics recomputation in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
			},
		)

		sessionRiskScore = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "fusion_session_risk_score",
				Help:    "Distribution of session risk scores (0-100) after mutations",
				Buckets: []float64{10, 25, 40, 50, 60, 75, 90, 100},
			},
		)

		concurrentMutationsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "fusion_concurrent_mutations_total",
				Help: "Total number of session writes rejected by the version check",
			},
		)

		notifierErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "fusion_notifier_errors_total",
				Help: "Total number of notification delivery errors by error type",
			},
			[]string{"error_type"},
		)
	})
}

func RecordDataPointsIngested(tool string, n int) {
	if datapointsIngestedTotal != nil && n > 0 {
		datapointsIngestedTotal.WithLabelValues(tool).Add(float64(n))
	}
}

// RecordImportFailure records one failed batch item.
// reason: "malformed", "unsupported_format", "line_too_long", "empty"
func RecordImportFailure(reason string) {
	if importItemFailuresTotal != nil {
		importItemFailuresTotal.WithLabelValues(reason).Inc()
	}
}

func RecordRecompute(duration time.Duration, riskScore int) {
	if recomputeDuration != nil {
		recomputeDuration.Observe(duration.Seconds())
	}
	if sessionRiskScore != nil {
		sessionRiskScore.Observe(float64(riskScore))
	}
}

func RecordConcurrentMutation() {
	if concurrentMutationsTotal != nil {
		concurrentMutationsTotal.Inc()
	}
}

// RecordNotifierError records a notification delivery error by type
// errorType: "auth", "rate_limit", "server_error", "connection", "circuit_open"
func RecordNotifierError(errorType string) {
	if notifierErrorsTotal != nil {
		notifierErrorsTotal.WithLabelValues(errorType).Inc()
	}
}

// BatchTimer measures one batch import.
type BatchTimer struct {
	start time.Time
}

func StartBatchTimer() *BatchTimer {
	return &BatchTimer{start: time.Now()}
}

func (t *BatchTimer) ObserveDuration() {
	if t != nil && importBatchDuration != nil {
		importBatchDuration.Observe(time.Since(t.start).Seconds())
	}
}
