// Package metrics exposes Prometheus collectors for scans and bar fetches.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ScanMetrics holds the collectors updated by the scanner and the bar cache.
// A nil *ScanMetrics is valid and records nothing.
type ScanMetrics struct {
	ScansTotal      prometheus.Counter
	SymbolsTotal    *prometheus.CounterVec // labels: outcome=ranked|below_score|filtered|skipped
	FetchDur        prometheus.Histogram
	ScoreDur        prometheus.Histogram
	ScanDur         prometheus.Histogram
	LastScanResults prometheus.Gauge
	CacheLookups    *prometheus.CounterVec // labels: result=hit|miss|error
}

// Symbol outcomes
const (
	OutcomeRanked     = "ranked"
	OutcomeBelowScore = "below_score"
	OutcomeFiltered   = "filtered"
	OutcomeSkipped    = "skipped"
)

// NewScanMetrics creates the collectors and registers them with reg
func NewScanMetrics(reg prometheus.Registerer) *ScanMetrics {
	m := &ScanMetrics{
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "signalengine_scans_total",
			Help: "Total scans run",
		}),
		SymbolsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalengine_scan_symbols_total",
			Help: "Symbols processed by scans, by outcome",
		}, []string{"outcome"}),
		FetchDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_fetch_duration_seconds",
			Help:    "Bar fetch latency per symbol",
			Buckets: prometheus.DefBuckets,
		}),
		ScoreDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_score_duration_seconds",
			Help:    "Composite score latency per symbol",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}),
		ScanDur: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "signalengine_scan_duration_seconds",
			Help:    "Wall time of a whole scan",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		LastScanResults: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "signalengine_last_scan_results",
			Help: "Ranked results in the most recent scan",
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "signalengine_bar_cache_lookups_total",
			Help: "Bar cache lookups, by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.ScansTotal,
		m.SymbolsTotal,
		m.FetchDur,
		m.ScoreDur,
		m.ScanDur,
		m.LastScanResults,
		m.CacheLookups,
	)
	return m
}

// ObserveFetch records one fetch duration
func (m *ScanMetrics) ObserveFetch(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDur.Observe(d.Seconds())
}

// ObserveScore records one scoring duration
func (m *ScanMetrics) ObserveScore(d time.Duration) {
	if m == nil {
		return
	}
	m.ScoreDur.Observe(d.Seconds())
}

// SymbolOutcome counts a processed symbol
func (m *ScanMetrics) SymbolOutcome(outcome string) {
	if m == nil {
		return
	}
	m.SymbolsTotal.WithLabelValues(outcome).Inc()
}

// ScanFinished records a completed or aborted scan
func (m *ScanMetrics) ScanFinished(d time.Duration, results int) {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
	m.ScanDur.Observe(d.Seconds())
	m.LastScanResults.Set(float64(results))
}

// CacheLookup counts a bar cache lookup
func (m *ScanMetrics) CacheLookup(result string) {
	if m == nil {
		return
	}
	m.CacheLookups.WithLabelValues(result).Inc()
}

// Handler serves the collectors gathered by g
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
