package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// emaValues seeds with the SMA of the first period values, then applies
// ema = (price - ema) * 2/(period+1) + ema. Leading NaNs are skipped.
func emaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period < 1 || len(values)-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	ema := sum / float64(period)
	out[start+period-1] = ema

	multiplier := 2.0 / float64(period+1)
	for i := start + period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out[i] = ema
	}
	return out
}

// wilderValues is Wilder's smoothing: seeded with the mean of the first period
// values, then avg = (avg*(period-1) + v) / period.
func wilderValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period < 1 || len(values)-start < period {
		return out
	}

	var sum float64
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	avg := sum / float64(period)
	out[start+period-1] = avg

	for i := start + period; i < len(values); i++ {
		avg = (avg*float64(period-1) + values[i]) / float64(period)
		out[i] = avg
	}
	return out
}

// EMA calculates the exponential moving average of closes
func EMA(series models.Series, p EMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, emaValues(series.Closes(), p.Period))
}

func demaValues(values []float64, period int) []float64 {
	ema1 := emaValues(values, period)
	ema2 := emaValues(ema1, period)
	out := nanSlice(len(values))
	for i := range out {
		if isValid(ema2[i]) {
			out[i] = 2*ema1[i] - ema2[i]
		}
	}
	return out
}

// DEMA calculates the double exponential moving average: 2*EMA - EMA(EMA)
func DEMA(series models.Series, p DEMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, demaValues(series.Closes(), p.Period))
}

// TEMA calculates the triple exponential moving average: 3*EMA1 - 3*EMA2 + EMA3
func TEMA(series models.Series, p TEMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	ema1 := emaValues(series.Closes(), p.Period)
	ema2 := emaValues(ema1, p.Period)
	ema3 := emaValues(ema2, p.Period)
	out := nanSlice(len(series))
	for i := range out {
		if isValid(ema3[i]) {
			out[i] = 3*ema1[i] - 3*ema2[i] + ema3[i]
		}
	}
	return toPoints(series, out)
}

// HMA calculates the Hull moving average: WMA(2*WMA(n/2) - WMA(n), sqrt(n))
func HMA(series models.Series, p HMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	half := wmaValues(closes, p.Period/2)
	full := wmaValues(closes, p.Period)

	raw := nanSlice(len(closes))
	for i := range raw {
		if isValid(half[i]) && isValid(full[i]) {
			raw[i] = 2*half[i] - full[i]
		}
	}
	return toPoints(series, wmaValues(raw, hmaSmoothing(p.Period)))
}

// KAMA calculates Kaufman's adaptive moving average. The smoothing constant is
// rebuilt every bar from the efficiency ratio between the fast and slow bounds.
func KAMA(series models.Series, p KAMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	out := nanSlice(len(closes))
	if len(closes) <= p.ERPeriod {
		return models.PointSeries{}
	}

	fastSC := 2.0 / float64(p.Fast+1)
	slowSC := 2.0 / float64(p.Slow+1)

	kama := closes[p.ERPeriod]
	out[p.ERPeriod] = kama
	for i := p.ERPeriod + 1; i < len(closes); i++ {
		change := math.Abs(closes[i] - closes[i-p.ERPeriod])
		var volatility float64
		for j := i - p.ERPeriod + 1; j <= i; j++ {
			volatility += math.Abs(closes[j] - closes[j-1])
		}
		er := safeDiv(change, volatility, 0)
		sc := math.Pow(er*(fastSC-slowSC)+slowSC, 2)
		kama += sc * (closes[i] - kama)
		out[i] = kama
	}
	return toPoints(series, out)
}

// ZLEMA calculates the zero-lag EMA: an EMA over 2*price - price[lag], lag = period/2
func ZLEMA(series models.Series, p ZLEMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	lag := p.Period / 2
	delagged := nanSlice(len(closes))
	for i := lag; i < len(closes); i++ {
		delagged[i] = 2*closes[i] - closes[i-lag]
	}
	return toPoints(series, emaValues(delagged, p.Period))
}
