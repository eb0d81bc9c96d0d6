package calculate

import "github.com/Alias1177/SignalEngine/models"

// StochasticFlat is %K when the lookback range is zero
const StochasticFlat = 50.0

// WilliamsRFlat is %R when the lookback range is zero
const WilliamsRFlat = -50.0

// StochasticResult holds %K and %D over identical timestamps
type StochasticResult struct {
	K models.PointSeries `json:"k"`
	D models.PointSeries `json:"d"`
}

// Stochastic calculates %K = 100*(close-LL)/(HH-LL) and %D = SMA(%K)
func Stochastic(series models.Series, p StochasticParams) StochasticResult {
	if p.Validate() != nil {
		return StochasticResult{K: models.PointSeries{}, D: models.PointSeries{}}
	}
	closes := series.Closes()
	highest := rollingMax(series.Highs(), p.KPeriod)
	lowest := rollingMin(series.Lows(), p.KPeriod)

	k := nanSlice(len(closes))
	for i := range closes {
		if isValid(highest[i]) {
			k[i] = safeDiv(closes[i]-lowest[i], highest[i]-lowest[i], StochasticFlat/100) * 100
		}
	}
	d := smaValues(k, p.DPeriod)

	lines := alignLines(series, k, d)
	return StochasticResult{K: lines[0], D: lines[1]}
}

// WilliamsR calculates -100*(HH-close)/(HH-LL)
func WilliamsR(series models.Series, p WilliamsRParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	highest := rollingMax(series.Highs(), p.Period)
	lowest := rollingMin(series.Lows(), p.Period)

	out := nanSlice(len(closes))
	for i := range closes {
		if isValid(highest[i]) {
			out[i] = safeDiv(highest[i]-closes[i], highest[i]-lowest[i], -WilliamsRFlat/100) * -100
		}
	}
	return toPoints(series, out)
}
