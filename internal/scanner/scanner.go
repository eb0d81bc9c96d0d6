// Package scanner scores a universe of symbols concurrently and ranks the
// results.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/internal/metrics"
	"github.com/Alias1177/SignalEngine/internal/trading/risk"
	"github.com/Alias1177/SignalEngine/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// SeriesScorer computes a composite score for one series
type SeriesScorer interface {
	Score(series models.Series) (models.Score, error)
}

// Options configures a Scanner
type Options struct {
	Concurrency       int
	RequestsPerSecond float64
	FetchTimeout      time.Duration
	ATRPeriod         int
	// VolatilityWindow is the number of recent ATR values compared when
	// adjusting position size
	VolatilityWindow int
	Logger           zerolog.Logger
	Metrics          *metrics.ScanMetrics
}

// DefaultOptions returns the scanner defaults with a disabled logger
func DefaultOptions() Options {
	return Options{
		Concurrency:       4,
		RequestsPerSecond: 5,
		FetchTimeout:      15 * time.Second,
		ATRPeriod:         14,
		VolatilityWindow:  20,
		Logger:            zerolog.Nop(),
	}
}

// Scanner fetches, scores and ranks symbols
type Scanner struct {
	fetcher models.BarFetcher
	scorer  SeriesScorer
	opts    Options
	limiter *rate.Limiter
	logger  zerolog.Logger
}

// New creates a Scanner. Zero option values fall back to the defaults.
func New(fetcher models.BarFetcher, scorer SeriesScorer, opts Options) *Scanner {
	def := DefaultOptions()
	if opts.Concurrency <= 0 {
		opts.Concurrency = def.Concurrency
	}
	if opts.RequestsPerSecond <= 0 {
		opts.RequestsPerSecond = def.RequestsPerSecond
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = def.FetchTimeout
	}
	if opts.ATRPeriod <= 0 {
		opts.ATRPeriod = def.ATRPeriod
	}
	if opts.VolatilityWindow <= 1 {
		opts.VolatilityWindow = def.VolatilityWindow
	}

	return &Scanner{
		fetcher: fetcher,
		scorer:  scorer,
		opts:    opts,
		limiter: rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), opts.Concurrency),
		logger:  opts.Logger.With().Str("component", "scanner").Logger(),
	}
}

// ScanUniverse loads the symbols from source and scans them
func (s *Scanner) ScanUniverse(ctx context.Context, source models.UniverseSource, params models.ScanParams) (models.ScanReport, error) {
	symbols, err := source.Symbols(ctx)
	if err != nil {
		return models.ScanReport{ID: uuid.NewString(), StartedAt: time.Now().UTC(), Results: []models.RankedResult{}, Attempted: []string{}},
			fmt.Errorf("failed to load universe: %w", err)
	}
	return s.Scan(ctx, symbols, params)
}

// outcome of one symbol
type outcome int

const (
	outcomeRanked outcome = iota
	outcomeBelowScore
	outcomeFiltered
	outcomeSkipped
	outcomeCancelled
)

// Scan fetches and scores every symbol in the universe. Symbols whose fetch
// or validation fails are skipped and recorded in Errors. When ctx is
// cancelled the remaining symbols are abandoned and the partial report is
// returned together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, universe []string, params models.ScanParams) (models.ScanReport, error) {
	report := models.ScanReport{
		ID:        uuid.NewString(),
		Results:   []models.RankedResult{},
		Attempted: []string{},
		StartedAt: time.Now().UTC(),
	}

	level, err := risk.ParseRiskLevel(params.RiskLevel)
	if err != nil {
		return report, err
	}
	if params.TopN < 0 {
		return report, fmt.Errorf("top_n must not be negative: %w", models.ErrInvalidInput)
	}

	symbols := NormalizeUniverse(universe)
	log := s.logger.With().Str("scan_id", report.ID).Logger()
	log.Info().Int("symbols", len(symbols)).Msg("Scan started")

	var wg sync.WaitGroup
	var mu sync.Mutex
	sem := make(chan struct{}, s.opts.Concurrency)

	record := func(symbol string, res *models.RankedResult, oc outcome, err error) {
		mu.Lock()
		defer mu.Unlock()
		if oc == outcomeCancelled {
			return
		}
		report.Scanned++
		report.Attempted = append(report.Attempted, symbol)
		switch oc {
		case outcomeRanked:
			report.Results = append(report.Results, *res)
			s.opts.Metrics.SymbolOutcome(metrics.OutcomeRanked)
		case outcomeBelowScore:
			s.opts.Metrics.SymbolOutcome(metrics.OutcomeBelowScore)
		case outcomeFiltered:
			report.Filtered++
			s.opts.Metrics.SymbolOutcome(metrics.OutcomeFiltered)
		case outcomeSkipped:
			report.Skipped++
			if report.Errors == nil {
				report.Errors = make(map[string]string)
			}
			report.Errors[symbol] = err.Error()
			s.opts.Metrics.SymbolOutcome(metrics.OutcomeSkipped)
		}
	}

dispatch:
	for _, symbol := range symbols {
		select {
		case <-ctx.Done():
			break dispatch
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(symbol string) {
			defer wg.Done()
			defer func() { <-sem }()

			res, oc, err := s.scanSymbol(ctx, symbol, params, level)
			if oc == outcomeSkipped {
				log.Warn().Err(err).Str("symbol", symbol).Msg("Symbol skipped")
			}
			record(symbol, res, oc, err)
		}(symbol)
	}
	wg.Wait()

	rank(report.Results)
	sort.Strings(report.Attempted)
	if params.TopN > 0 && len(report.Results) > params.TopN {
		report.Results = report.Results[:params.TopN]
	}
	report.Duration = time.Since(report.StartedAt)
	s.opts.Metrics.ScanFinished(report.Duration, len(report.Results))

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Int("scanned", report.Scanned).Msg("Scan aborted")
		return report, err
	}

	log.Info().
		Int("scanned", report.Scanned).
		Int("ranked", len(report.Results)).
		Int("skipped", report.Skipped).
		Int("filtered", report.Filtered).
		Dur("duration", report.Duration).
		Msg("Scan completed")
	return report, nil
}

// scanSymbol fetches, filters, scores and sizes a single symbol
func (s *Scanner) scanSymbol(ctx context.Context, symbol string, params models.ScanParams, level risk.RiskLevel) (*models.RankedResult, outcome, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, outcomeCancelled, ctx.Err()
		}
		return nil, outcomeSkipped, fmt.Errorf("rate limiter: %w", err)
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	start := time.Now()
	series, err := s.fetcher.FetchBars(fetchCtx, symbol)
	cancel()
	s.opts.Metrics.ObserveFetch(time.Since(start))
	if err != nil {
		// The parent being cancelled is not a per-symbol failure
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return nil, outcomeCancelled, err
		}
		return nil, outcomeSkipped, fmt.Errorf("fetch failed: %w", err)
	}
	if err := series.Validate(); err != nil {
		return nil, outcomeSkipped, err
	}
	last, ok := series.Last()
	if !ok {
		return nil, outcomeSkipped, fmt.Errorf("no bars returned: %w", models.ErrInvalidInput)
	}

	if !passesFilters(last, params) {
		return nil, outcomeFiltered, nil
	}

	start = time.Now()
	score, err := s.scorer.Score(series)
	s.opts.Metrics.ObserveScore(time.Since(start))
	if err != nil {
		return nil, outcomeSkipped, fmt.Errorf("scoring failed: %w", err)
	}
	if score.Score < params.MinScore {
		return nil, outcomeBelowScore, nil
	}

	signals := score.Signals()
	if signals == nil {
		signals = []string{}
	}
	res := &models.RankedResult{
		Symbol:         symbol,
		Score:          score.Score,
		Recommendation: score.Recommendation,
		Confidence:     score.Confidence,
		Signals:        signals,
		LastPrice:      last.Close,
	}
	if params.AccountSize > 0 {
		pos := s.sizePosition(series, last.Close, score.Score, params.AccountSize, level)
		res.Position = &pos
	}
	return res, outcomeRanked, nil
}

func (s *Scanner) sizePosition(series models.Series, price, score, account float64, level risk.RiskLevel) models.PositionSizingResult {
	atrs := calculate.ATR(series, calculate.ATRParams{Period: s.opts.ATRPeriod}).Values()
	var atr float64
	if len(atrs) > 0 {
		atr = atrs[len(atrs)-1]
	}
	if len(atrs) > s.opts.VolatilityWindow {
		atrs = atrs[len(atrs)-s.opts.VolatilityWindow:]
	}
	return risk.SizePosition(price, atr, risk.DirectionForScore(score), account, level, risk.VolatilityRatio(atrs))
}

func passesFilters(last models.Bar, params models.ScanParams) bool {
	if last.Close < params.MinPrice {
		return false
	}
	if params.MaxPrice > 0 && last.Close > params.MaxPrice {
		return false
	}
	return last.Volume >= params.MinVolume
}

// rank orders results by score descending, ties broken by symbol
func rank(results []models.RankedResult) {
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Symbol < results[j].Symbol
	})
}

// NormalizeUniverse trims and upper-cases symbols, dropping empties and
// duplicates. The first occurrence keeps its position.
func NormalizeUniverse(universe []string) []string {
	seen := make(map[string]struct{}, len(universe))
	out := make([]string, 0, len(universe))
	for _, raw := range universe {
		sym := strings.ToUpper(strings.TrimSpace(raw))
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		out = append(out, sym)
	}
	return out
}
