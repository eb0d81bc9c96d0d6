package backtest

import (
	"math"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

// Trade directions
const (
	DirectionLong  = "LONG"
	DirectionShort = "SHORT"
)

// Trade is one validated signal
type Trade struct {
	Timestamp      time.Time             `json:"timestamp"`
	Direction      string                `json:"direction"`
	Recommendation models.Recommendation `json:"recommendation"`
	Score          float64               `json:"score"`
	Confidence     float64               `json:"confidence"`
	Entry          float64               `json:"entry"`
	Exit           float64               `json:"exit"`
	ReturnPct      float64               `json:"return_pct"`
	WasCorrect     bool                  `json:"was_correct"`
}

// Results holds the outcome of a backtest
type Results struct {
	TotalTrades        int     `json:"total_trades"`
	WinningTrades      int     `json:"winning_trades"`
	LosingTrades       int     `json:"losing_trades"`
	WinPercentage      float64 `json:"win_percentage"`
	AverageGainPercent float64 `json:"average_gain_percent"`
	AverageLossPercent float64 `json:"average_loss_percent"`
	ProfitFactor       float64 `json:"profit_factor"`
	SharpeRatio        float64 `json:"sharpe_ratio"`
	MaxDrawdown        float64 `json:"max_drawdown"`
	TotalReturnPercent float64 `json:"total_return_percent"`
	// EquityGrowthPercent compounds PositionFraction of equity per trade
	EquityGrowthPercent float64 `json:"equity_growth_percent"`
	MaxConsecutive      struct {
		Wins   int `json:"wins"`
		Losses int `json:"losses"`
	} `json:"max_consecutive"`
	RecommendationAccuracy map[models.Recommendation]float64 `json:"recommendation_accuracy"`
	MonthlyReturns         map[string]float64                `json:"monthly_returns"`
	EquityCurve            []float64                         `json:"equity_curve"`
	Trades                 []Trade                           `json:"trades"`
}

func newResults() *Results {
	return &Results{
		RecommendationAccuracy: make(map[models.Recommendation]float64),
		MonthlyReturns:         make(map[string]float64),
		Trades:                 []Trade{},
	}
}

// CalculatePerformanceMetrics computes the summary metrics from trades and
// the equity curve
func CalculatePerformanceMetrics(results *Results) {
	if results == nil || results.TotalTrades == 0 {
		return
	}

	var totalGain, totalLoss float64
	for _, t := range results.Trades {
		results.TotalReturnPercent += t.ReturnPct
		if t.WasCorrect {
			totalGain += t.ReturnPct
		} else {
			totalLoss += -t.ReturnPct
		}
	}

	results.WinPercentage = float64(results.WinningTrades) / float64(results.TotalTrades) * 100
	if results.WinningTrades > 0 {
		results.AverageGainPercent = totalGain / float64(results.WinningTrades)
	}
	if results.LosingTrades > 0 {
		results.AverageLossPercent = totalLoss / float64(results.LosingTrades)
	}

	// Profit factor
	if totalLoss > 0 {
		results.ProfitFactor = totalGain / totalLoss
	} else {
		results.ProfitFactor = totalGain // If no losses
	}

	calculateSharpeRatio(results)
	calculateDrawdownMetrics(results)

	if n := len(results.EquityCurve); n > 0 && results.EquityCurve[0] > 0 {
		results.EquityGrowthPercent = (results.EquityCurve[n-1] - results.EquityCurve[0]) / results.EquityCurve[0] * 100
	}
}

// calculateSharpeRatio annualizes the per-trade return ratio
func calculateSharpeRatio(results *Results) {
	returns := make([]float64, len(results.Trades))
	for i, t := range results.Trades {
		returns[i] = t.ReturnPct / 100
	}

	m := mean(returns)
	sd := stdDev(returns, m)
	if sd > 0 {
		results.SharpeRatio = m / sd * math.Sqrt(getTimeframeMultiplier(results.Trades))
	}
}

// calculateDrawdownMetrics computes maximum drawdown from the equity curve
func calculateDrawdownMetrics(results *Results) {
	if len(results.EquityCurve) == 0 {
		return
	}

	maxDrawdown := 0.0
	peak := results.EquityCurve[0]
	for _, equity := range results.EquityCurve {
		if equity > peak {
			peak = equity
		}
		if peak <= 0 {
			continue
		}
		if drawdown := (peak - equity) / peak; drawdown > maxDrawdown {
			maxDrawdown = drawdown
		}
	}

	results.MaxDrawdown = maxDrawdown * 100 // Convert to percentage
}

// getTimeframeMultiplier returns the annualization factor based on the
// spacing between trades
func getTimeframeMultiplier(trades []Trade) float64 {
	if len(trades) < 2 {
		return 252.0 // Default to daily (252 trading days)
	}

	// Calculate average time difference between trades
	var totalDuration time.Duration
	for i := 1; i < len(trades); i++ {
		if diff := trades[i].Timestamp.Sub(trades[i-1].Timestamp); diff > 0 {
			totalDuration += diff
		}
	}

	durationHours := (totalDuration / time.Duration(len(trades)-1)).Hours()
	switch {
	case durationHours <= 1:
		// Hourly data (approximately 252 * 6.5 periods per year)
		return 252.0 * 6.5
	case durationHours <= 24:
		return 252.0
	case durationHours <= 24*7:
		return 52.0
	}
	return 12.0
}

// Helper functions
func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	return sum / float64(len(values))
}

func stdDev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}

	var sumSquaredDiff float64
	for _, v := range values {
		diff := v - mean
		sumSquaredDiff += diff * diff
	}

	return math.Sqrt(sumSquaredDiff / float64(len(values)-1))
}
