package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestScanMetrics(t *testing.T) {
	m := NewScanMetrics(prometheus.NewRegistry())

	m.SymbolOutcome(OutcomeRanked)
	m.SymbolOutcome(OutcomeRanked)
	m.SymbolOutcome(OutcomeSkipped)
	m.CacheLookup("hit")
	m.ScanFinished(2*time.Second, 2)

	if got := testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(OutcomeRanked)); got != 2 {
		t.Errorf("ranked = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.SymbolsTotal.WithLabelValues(OutcomeSkipped)); got != 1 {
		t.Errorf("skipped = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ScansTotal); got != 1 {
		t.Errorf("scans = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.LastScanResults); got != 2 {
		t.Errorf("last results = %v, want 2", got)
	}
}

func TestNilScanMetrics(t *testing.T) {
	var m *ScanMetrics
	m.ObserveFetch(time.Second)
	m.ObserveScore(time.Second)
	m.SymbolOutcome(OutcomeFiltered)
	m.ScanFinished(time.Second, 0)
	m.CacheLookup("miss")
}
