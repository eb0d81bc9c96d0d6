package calculate

import (
	"github.com/Alias1177/SignalEngine/models"
)

// Bands is a three-line envelope sharing identical timestamps
type Bands struct {
	Upper  models.PointSeries `json:"upper"`
	Middle models.PointSeries `json:"middle"`
	Lower  models.PointSeries `json:"lower"`
}

func emptyBands() Bands {
	return Bands{Upper: models.PointSeries{}, Middle: models.PointSeries{}, Lower: models.PointSeries{}}
}

func toBands(series models.Series, upper, middle, lower []float64) Bands {
	lines := alignLines(series, upper, middle, lower)
	return Bands{Upper: lines[0], Middle: lines[1], Lower: lines[2]}
}

func bollingerValues(closes []float64, period int, k float64) (upper, middle, lower []float64) {
	middle = smaValues(closes, period)
	sd := stdDevValues(closes, period)
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	for i := range closes {
		if isValid(middle[i]) {
			upper[i] = middle[i] + sd[i]*k
			lower[i] = middle[i] - sd[i]*k
		}
	}
	return upper, middle, lower
}

// Bollinger calculates SMA ± k population standard deviations
func Bollinger(series models.Series, p BollingerParams) Bands {
	if p.Validate() != nil {
		return emptyBands()
	}
	upper, middle, lower := bollingerValues(series.Closes(), p.Period, p.StdDev)
	return toBands(series, upper, middle, lower)
}

// BBWidth calculates (upper - lower) / middle; a zero middle yields 0
func BBWidth(series models.Series, p BBWidthParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	upper, middle, lower := bollingerValues(series.Closes(), p.Period, p.StdDev)
	out := nanSlice(len(series))
	for i := range out {
		if isValid(middle[i]) {
			out[i] = safeDiv(upper[i]-lower[i], middle[i], 0)
		}
	}
	return toPoints(series, out)
}

// BBPercentB locates the close inside the bands; zero-width bands yield 0.5
func BBPercentB(series models.Series, p BBPercentBParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	upper, middle, lower := bollingerValues(closes, p.Period, p.StdDev)
	out := nanSlice(len(series))
	for i := range out {
		if isValid(middle[i]) {
			out[i] = safeDiv(closes[i]-lower[i], upper[i]-lower[i], 0.5)
		}
	}
	return toPoints(series, out)
}

// Keltner calculates EMA ± multiplier * ATR
func Keltner(series models.Series, p KeltnerParams) Bands {
	if p.Validate() != nil {
		return emptyBands()
	}
	middle := emaValues(series.Closes(), p.EMAPeriod)
	atr := atrValues(series, p.ATRPeriod)
	upper := nanSlice(len(series))
	lower := nanSlice(len(series))
	for i := range series {
		if isValid(middle[i]) && isValid(atr[i]) {
			upper[i] = middle[i] + atr[i]*p.Multiplier
			lower[i] = middle[i] - atr[i]*p.Multiplier
		}
	}
	return toBands(series, upper, middle, lower)
}

// Donchian calculates the rolling highest high, lowest low and their midpoint
func Donchian(series models.Series, p DonchianParams) Bands {
	if p.Validate() != nil {
		return emptyBands()
	}
	upper := rollingMax(series.Highs(), p.Period)
	lower := rollingMin(series.Lows(), p.Period)
	middle := nanSlice(len(series))
	for i := range middle {
		if isValid(upper[i]) {
			middle[i] = (upper[i] + lower[i]) / 2
		}
	}
	return toBands(series, upper, middle, lower)
}

// Envelopes calculates SMA ± a fixed percentage
func Envelopes(series models.Series, p EnvelopesParams) Bands {
	if p.Validate() != nil {
		return emptyBands()
	}
	middle := smaValues(series.Closes(), p.Period)
	upper := nanSlice(len(series))
	lower := nanSlice(len(series))
	offset := p.Percent / 100
	for i := range middle {
		if isValid(middle[i]) {
			upper[i] = middle[i] * (1 + offset)
			lower[i] = middle[i] * (1 - offset)
		}
	}
	return toBands(series, upper, middle, lower)
}
