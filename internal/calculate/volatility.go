package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// ADXResult holds ADX and the directional indicators over identical timestamps
type ADXResult struct {
	ADX     models.PointSeries `json:"adx"`
	PlusDI  models.PointSeries `json:"plusDI"`
	MinusDI models.PointSeries `json:"minusDI"`
}

// trueRanges starts at index 1; bar 0 has no previous close
func trueRanges(series models.Series) []float64 {
	out := nanSlice(len(series))
	for i := 1; i < len(series); i++ {
		prevClose := series[i-1].Close
		hl := series[i].High - series[i].Low
		hc := math.Abs(series[i].High - prevClose)
		lc := math.Abs(series[i].Low - prevClose)
		out[i] = math.Max(hl, math.Max(hc, lc))
	}
	return out
}

func atrValues(series models.Series, period int) []float64 {
	return wilderValues(trueRanges(series), period)
}

// ATR calculates Wilder's average true range, first value at bar index period
func ATR(series models.Series, p ATRParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, atrValues(series, p.Period))
}

// ADX calculates the average directional index with +DI and -DI. DM and TR are
// Wilder-smoothed sums; ADX is seeded with the mean of the first period DX values.
func ADX(series models.Series, p ADXParams) ADXResult {
	empty := ADXResult{ADX: models.PointSeries{}, PlusDI: models.PointSeries{}, MinusDI: models.PointSeries{}}
	if p.Validate() != nil || len(series) < p.Lookback() {
		return empty
	}
	n := len(series)
	period := float64(p.Period)

	tr := trueRanges(series)
	plusDM := make([]float64, n)
	minusDM := make([]float64, n)
	for i := 1; i < n; i++ {
		up := series[i].High - series[i-1].High
		down := series[i-1].Low - series[i].Low
		if up > down && up > 0 {
			plusDM[i] = up
		}
		if down > up && down > 0 {
			minusDM[i] = down
		}
	}

	plusDI := nanSlice(n)
	minusDI := nanSlice(n)
	dx := nanSlice(n)

	var trSum, plusSum, minusSum float64
	for i := 1; i <= p.Period; i++ {
		trSum += tr[i]
		plusSum += plusDM[i]
		minusSum += minusDM[i]
	}
	for i := p.Period; i < n; i++ {
		if i > p.Period {
			trSum = trSum - trSum/period + tr[i]
			plusSum = plusSum - plusSum/period + plusDM[i]
			minusSum = minusSum - minusSum/period + minusDM[i]
		}
		plusDI[i] = safeDiv(plusSum, trSum, 0) * 100
		minusDI[i] = safeDiv(minusSum, trSum, 0) * 100
		dx[i] = safeDiv(math.Abs(plusDI[i]-minusDI[i]), plusDI[i]+minusDI[i], 0) * 100
	}

	adx := nanSlice(n)
	var sum float64
	for i := p.Period; i < 2*p.Period; i++ {
		sum += dx[i]
	}
	avg := sum / period
	adx[2*p.Period-1] = avg
	for i := 2 * p.Period; i < n; i++ {
		avg = (avg*(period-1) + dx[i]) / period
		adx[i] = avg
	}

	lines := alignLines(series, adx, plusDI, minusDI)
	return ADXResult{ADX: lines[0], PlusDI: lines[1], MinusDI: lines[2]}
}
