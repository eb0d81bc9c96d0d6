package backtest

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

// ErrInsufficientHistory is returned when the series cannot fit one window
// plus the validation horizon
var ErrInsufficientHistory = errors.New("insufficient history for backtest")

// SeriesScorer computes a composite score for one window of history
type SeriesScorer interface {
	Score(series models.Series) (models.Score, error)
}

// HistorySource fetches enough bars to cover a number of days
type HistorySource interface {
	GetHistoricalCandles(ctx context.Context, symbol string, interval string, days int) (models.Series, error)
}

// Options controls the walk-forward test
type Options struct {
	// Window is the number of bars scored at each step
	Window int
	// Horizon is how many bars ahead a signal is validated
	Horizon int
	// PositionFraction is the share of equity committed per trade
	PositionFraction float64
	InitialCapital   float64
	// MinConfidence drops signals below this confidence
	MinConfidence float64
}

// DefaultOptions returns a 200 bar window validated 5 bars ahead
func DefaultOptions() Options {
	return Options{
		Window:           200,
		Horizon:          5,
		PositionFraction: 0.1,
		InitialCapital:   10000,
	}
}

// Engine handles backtesting operations
type Engine struct {
	source HistorySource
	scorer SeriesScorer
	opts   Options
}

// NewEngine creates a new backtesting engine. source may be nil when only
// RunSeries is used.
func NewEngine(source HistorySource, scorer SeriesScorer, opts Options) *Engine {
	def := DefaultOptions()
	if opts.Window <= 0 {
		opts.Window = def.Window
	}
	if opts.Horizon <= 0 {
		opts.Horizon = def.Horizon
	}
	if opts.PositionFraction <= 0 || opts.PositionFraction > 1 {
		opts.PositionFraction = def.PositionFraction
	}
	if opts.InitialCapital <= 0 {
		opts.InitialCapital = def.InitialCapital
	}
	return &Engine{source: source, scorer: scorer, opts: opts}
}

// Run fetches history for symbol and executes the walk-forward test
func (e *Engine) Run(ctx context.Context, symbol, interval string, days int) (*Results, error) {
	if e.source == nil {
		return nil, fmt.Errorf("backtest engine has no history source")
	}
	series, err := e.source.GetHistoricalCandles(ctx, symbol, interval, days)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch historical data: %w", err)
	}
	return e.RunSeries(series)
}

// RunSeries scores a sliding window over series and validates every
// non-HOLD recommendation against the close Horizon bars later. Trades do
// not overlap.
func (e *Engine) RunSeries(series models.Series) (*Results, error) {
	if err := series.Validate(); err != nil {
		return nil, err
	}
	if len(series) < e.opts.Window+e.opts.Horizon {
		return nil, fmt.Errorf("%w: got %d bars, need %d", ErrInsufficientHistory, len(series), e.opts.Window+e.opts.Horizon)
	}

	results := newResults()
	equity := e.opts.InitialCapital
	results.EquityCurve = append(results.EquityCurve, equity)

	consecutiveWins, consecutiveLosses := 0, 0
	recStats := map[models.Recommendation]struct{ correct, total int }{}

	for i := e.opts.Window - 1; i+e.opts.Horizon < len(series); {
		window := series[i-e.opts.Window+1 : i+1]

		score, err := e.scorer.Score(window)
		if err != nil {
			return nil, fmt.Errorf("scoring window ending %s: %w", series[i].Timestamp.Format(time.RFC3339), err)
		}

		direction := directionFor(score.Recommendation)
		if direction == 0 || score.Confidence < e.opts.MinConfidence {
			i++
			continue
		}

		entry := series[i].Close
		exit := series[i+e.opts.Horizon].Close
		returnPct := float64(direction) * (exit - entry) / entry * 100

		trade := Trade{
			Timestamp:      series[i].Timestamp,
			Recommendation: score.Recommendation,
			Score:          score.Score,
			Confidence:     score.Confidence,
			Entry:          entry,
			Exit:           exit,
			ReturnPct:      returnPct,
			WasCorrect:     returnPct > 0,
		}
		if direction > 0 {
			trade.Direction = DirectionLong
		} else {
			trade.Direction = DirectionShort
		}
		results.Trades = append(results.Trades, trade)
		results.TotalTrades++

		if trade.WasCorrect {
			results.WinningTrades++
			consecutiveWins++
			consecutiveLosses = 0
		} else {
			results.LosingTrades++
			consecutiveLosses++
			consecutiveWins = 0
		}
		if consecutiveWins > results.MaxConsecutive.Wins {
			results.MaxConsecutive.Wins = consecutiveWins
		}
		if consecutiveLosses > results.MaxConsecutive.Losses {
			results.MaxConsecutive.Losses = consecutiveLosses
		}

		stats := recStats[score.Recommendation]
		stats.total++
		if trade.WasCorrect {
			stats.correct++
		}
		recStats[score.Recommendation] = stats

		// Track equity and monthly returns
		pnl := equity * e.opts.PositionFraction * returnPct / 100
		equity += pnl
		results.EquityCurve = append(results.EquityCurve, equity)
		results.MonthlyReturns[trade.Timestamp.Format("2006-01")] += pnl / e.opts.InitialCapital * 100

		i += e.opts.Horizon
	}

	for rec, stats := range recStats {
		results.RecommendationAccuracy[rec] = float64(stats.correct) / float64(stats.total) * 100
	}
	CalculatePerformanceMetrics(results)
	return results, nil
}

// directionFor is 1 for buys, -1 for sells and 0 for HOLD
func directionFor(r models.Recommendation) int {
	switch r {
	case models.Buy, models.StrongBuy:
		return 1
	case models.Sell, models.StrongSell:
		return -1
	}
	return 0
}

// FormatResults creates a human-readable summary of backtest results
func FormatResults(results *Results) string {
	if results == nil {
		return "No backtest results available"
	}

	var b strings.Builder
	b.WriteString("\n===== BACKTEST RESULTS =====\n")
	fmt.Fprintf(&b, "Total trades: %d\n", results.TotalTrades)
	fmt.Fprintf(&b, "Winning trades: %d (%.2f%%)\n", results.WinningTrades, results.WinPercentage)
	fmt.Fprintf(&b, "Total return: %.2f%%\n", results.TotalReturnPercent)
	fmt.Fprintf(&b, "Average gain: %.2f%%\n", results.AverageGainPercent)
	fmt.Fprintf(&b, "Average loss: %.2f%%\n", results.AverageLossPercent)
	fmt.Fprintf(&b, "Profit factor: %.2f\n", results.ProfitFactor)
	fmt.Fprintf(&b, "Sharpe ratio: %.2f\n", results.SharpeRatio)
	fmt.Fprintf(&b, "Maximum drawdown: %.2f%%\n", results.MaxDrawdown)
	fmt.Fprintf(&b, "Max consecutive wins: %d\n", results.MaxConsecutive.Wins)
	fmt.Fprintf(&b, "Max consecutive losses: %d\n", results.MaxConsecutive.Losses)

	if len(results.RecommendationAccuracy) > 0 {
		b.WriteString("\nAccuracy by recommendation:\n")
		for _, rec := range []models.Recommendation{models.StrongBuy, models.Buy, models.Sell, models.StrongSell} {
			if acc, ok := results.RecommendationAccuracy[rec]; ok {
				fmt.Fprintf(&b, "- %s: %.2f%%\n", rec, acc)
			}
		}
	}

	if len(results.MonthlyReturns) > 0 {
		b.WriteString("\nMonthly returns:\n")

		// Sort months for chronological display
		months := make([]string, 0, len(results.MonthlyReturns))
		for month := range results.MonthlyReturns {
			months = append(months, month)
		}
		sort.Strings(months)

		for _, month := range months {
			fmt.Fprintf(&b, "- %s: %+.2f%%\n", month, results.MonthlyReturns[month])
		}
	}

	fmt.Fprintf(&b, "\nTotal equity growth: %.2f%%\n", results.EquityGrowthPercent)
	return b.String()
}
