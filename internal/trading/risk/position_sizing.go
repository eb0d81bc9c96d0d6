package risk

import (
	"fmt"
	"math"
	"strings"

	"github.com/Alias1177/SignalEngine/models"
	"github.com/shopspring/decimal"
)

// RiskLevel selects the share of the account put at risk on one position
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Direction of a position
type Direction int

const (
	Long Direction = iota
	Short
)

const (
	atrStopMultiplier = 1.5
	fallbackStopPct   = 0.02
	rewardMultiple    = 2.0
)

// ParseRiskLevel accepts low, medium or high in any case. An empty string
// means medium.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case "", RiskMedium:
		return RiskMedium, nil
	case RiskLow:
		return RiskLow, nil
	case RiskHigh:
		return RiskHigh, nil
	}
	return "", fmt.Errorf("unknown risk level %q: %w", s, models.ErrInvalidInput)
}

// Fraction returns the account fraction risked per trade
func (l RiskLevel) Fraction() float64 {
	switch l {
	case RiskLow:
		return 0.005
	case RiskHigh:
		return 0.02
	}
	return 0.01
}

// DirectionForScore maps a composite score to the side a position would take
func DirectionForScore(score float64) Direction {
	if score < 0 {
		return Short
	}
	return Long
}

// DetermineStopLoss places the stop 1.5 ATR away from price. Without a usable
// ATR the stop falls back to 2% of price.
func DetermineStopLoss(price, atr float64, direction Direction) float64 {
	distance := atr * atrStopMultiplier
	if atr <= 0 || math.IsNaN(atr) || math.IsInf(atr, 0) {
		distance = price * fallbackStopPct
	}
	if direction == Short {
		return price + distance
	}
	return price - distance
}

// CalculatePositionSize sizes a whole-share position so that hitting the stop
// loses at most riskFraction of the account. The position value never
// exceeds the account size. A zero result means no position can be taken.
func CalculatePositionSize(price, stopLoss, accountSize, riskFraction float64) models.PositionSizingResult {
	result := models.PositionSizingResult{StopLoss: stopLoss}
	if price <= 0 || accountSize <= 0 || riskFraction <= 0 || stopLoss == price {
		return result
	}

	entry := decimal.NewFromFloat(price)
	stop := decimal.NewFromFloat(stopLoss)
	account := decimal.NewFromFloat(accountSize)

	riskPerShare := entry.Sub(stop).Abs()
	riskBudget := account.Mul(decimal.NewFromFloat(riskFraction))

	quantity := riskBudget.Div(riskPerShare).Floor()
	if maxAffordable := account.Div(entry).Floor(); quantity.GreaterThan(maxAffordable) {
		quantity = maxAffordable
	}

	// Take profit sits on the far side of entry at twice the stop distance
	reward := riskPerShare.Mul(decimal.NewFromFloat(rewardMultiple))
	takeProfit := entry.Add(reward)
	if stop.GreaterThan(entry) {
		takeProfit = entry.Sub(reward)
	}

	result.TakeProfit, _ = takeProfit.Float64()
	result.RiskRewardRatio = rewardMultiple
	result.Quantity = quantity.IntPart()
	if result.Quantity <= 0 {
		result.Quantity = 0
		return result
	}

	riskAmount := riskPerShare.Mul(quantity)
	result.RiskAmount, _ = riskAmount.Float64()
	result.CapitalRequired, _ = entry.Mul(quantity).Float64()
	result.AccountRisk, _ = riskAmount.Div(account).Mul(decimal.NewFromInt(100)).Float64()
	return result
}

// VolatilityRatio compares the latest ATR with the mean of the preceding
// values. It returns 1 when there is not enough history.
func VolatilityRatio(atrs []float64) float64 {
	if len(atrs) < 2 {
		return 1
	}
	var sum float64
	for _, v := range atrs[:len(atrs)-1] {
		sum += v
	}
	mean := sum / float64(len(atrs)-1)
	if mean <= 0 {
		return 1
	}
	return atrs[len(atrs)-1] / mean
}

// AdjustPositionSizeForVolatility shrinks the position when volatility is
// elevated and grows it slightly when the market is unusually quiet. The
// result never exceeds maxQuantity.
func AdjustPositionSizeForVolatility(quantity int64, volatilityRatio float64, maxQuantity int64) int64 {
	if quantity <= 0 || volatilityRatio <= 0 {
		return quantity
	}
	q := decimal.NewFromInt(quantity)
	switch {
	case volatilityRatio > 1.5:
		q = q.Div(decimal.NewFromFloat(volatilityRatio))
	case volatilityRatio < 0.7:
		q = q.Mul(decimal.NewFromFloat(1.2))
	}
	adjusted := q.Floor().IntPart()
	if adjusted > maxQuantity {
		adjusted = maxQuantity
	}
	return adjusted
}

// SizePosition combines stop placement, sizing and the volatility
// adjustment for one candidate
func SizePosition(price, atr float64, direction Direction, accountSize float64, level RiskLevel, volatilityRatio float64) models.PositionSizingResult {
	stop := DetermineStopLoss(price, atr, direction)
	result := CalculatePositionSize(price, stop, accountSize, level.Fraction())
	if result.Quantity == 0 {
		return result
	}

	maxQuantity := int64(math.Floor(accountSize / price))
	adjusted := AdjustPositionSizeForVolatility(result.Quantity, volatilityRatio, maxQuantity)
	if adjusted == result.Quantity {
		return result
	}
	// Rescale the money fields to the adjusted quantity
	perShareRisk := result.RiskAmount / float64(result.Quantity)
	result.Quantity = adjusted
	result.RiskAmount = perShareRisk * float64(adjusted)
	result.CapitalRequired = price * float64(adjusted)
	result.AccountRisk = result.RiskAmount / accountSize * 100
	return result
}
