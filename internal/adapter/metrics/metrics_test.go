package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestInitMetrics(t *testing.T) {
	InitMetrics()
	InitMetrics()
}

func TestRecordDataPointsIngested(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(datapointsIngestedTotal.WithLabelValues("Nmap"))
	RecordDataPointsIngested("Nmap", 3)
	RecordDataPointsIngested("Nmap", 0)

	if got := testutil.ToFloat64(datapointsIngestedTotal.WithLabelValues("Nmap")) - before; got != 3 {
		t.Errorf("expected counter to grow by 3, got %v", got)
	}
}

func TestRecordImportFailure(t *testing.T) {
	InitMetrics()

	reasons := []string{"malformed", "unsupported_format", "line_too_long"}
	for _, reason := range reasons {
		t.Run(reason, func(t *testing.T) {
			before := testutil.ToFloat64(importItemFailuresTotal.WithLabelValues(reason))
			RecordImportFailure(reason)
			if got := testutil.ToFloat64(importItemFailuresTotal.WithLabelValues(reason)); got != before+1 {
				t.Errorf("expected %v, got %v", before+1, got)
			}
		})
	}
}

func TestRecordConcurrentMutation(t *testing.T) {
	InitMetrics()

	before := testutil.ToFloat64(concurrentMutationsTotal)
	RecordConcurrentMutation()
	if got := testutil.ToFloat64(concurrentMutationsTotal); got != before+1 {
		t.Errorf("expected %v, got %v", before+1, got)
	}
}

func TestHistogramsDoNotPanic(t *testing.T) {
	InitMetrics()

	RecordRecompute(2*time.Millisecond, 56)
	RecordNotifierError("circuit_open")

	timer := StartBatchTimer()
	timer.ObserveDuration()

	var nilTimer *BatchTimer
	nilTimer.ObserveDuration()
}
