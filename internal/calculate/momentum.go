package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// CCI calculates (TP - SMA(TP)) / (0.015 * mean deviation)
func CCI(series models.Series, p CCIParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	tp := typicalPrices(series)
	mean := smaValues(tp, p.Period)

	out := nanSlice(len(tp))
	for i, m := range mean {
		if !isValid(m) {
			continue
		}
		var dev float64
		for j := i - p.Period + 1; j <= i; j++ {
			dev += math.Abs(tp[j] - m)
		}
		dev /= float64(p.Period)
		out[i] = safeDiv(tp[i]-m, 0.015*dev, 0)
	}
	return toPoints(series, out)
}

func rocValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period; i < len(values); i++ {
		out[i] = safeDiv(values[i]-values[i-period], values[i-period], 0) * 100
	}
	return out
}

// ROC calculates the percentage change over period bars
func ROC(series models.Series, p ROCParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, rocValues(series.Closes(), p.Period))
}

// Momentum calculates close - close[period]
func Momentum(series models.Series, p MomentumParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	out := nanSlice(len(closes))
	for i := p.Period; i < len(closes); i++ {
		out[i] = closes[i] - closes[i-p.Period]
	}
	return toPoints(series, out)
}

// AwesomeOscillator calculates SMA(median, fast) - SMA(median, slow)
func AwesomeOscillator(series models.Series, p AwesomeOscillatorParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	median := medianPrices(series)
	fast := smaValues(median, p.Fast)
	slow := smaValues(median, p.Slow)

	out := nanSlice(len(median))
	for i := range out {
		if isValid(fast[i]) && isValid(slow[i]) {
			out[i] = fast[i] - slow[i]
		}
	}
	return toPoints(series, out)
}

// UltimateOscillator blends buying pressure over three windows, weighted 4:2:1.
// A window with zero true range contributes an average of 0.5.
func UltimateOscillator(series models.Series, p UltimateOscillatorParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	bp := nanSlice(len(series))
	tr := nanSlice(len(series))
	for i := 1; i < len(series); i++ {
		prevClose := series[i-1].Close
		low := math.Min(series[i].Low, prevClose)
		high := math.Max(series[i].High, prevClose)
		bp[i] = series[i].Close - low
		tr[i] = high - low
	}

	bpShort, trShort := rollingSum(bp, p.Short), rollingSum(tr, p.Short)
	bpMedium, trMedium := rollingSum(bp, p.Medium), rollingSum(tr, p.Medium)
	bpLong, trLong := rollingSum(bp, p.Long), rollingSum(tr, p.Long)

	out := nanSlice(len(series))
	for i := range out {
		if !isValid(bpLong[i]) {
			continue
		}
		avgShort := safeDiv(bpShort[i], trShort[i], 0.5)
		avgMedium := safeDiv(bpMedium[i], trMedium[i], 0.5)
		avgLong := safeDiv(bpLong[i], trLong[i], 0.5)
		out[i] = 100 * (4*avgShort + 2*avgMedium + avgLong) / 7
	}
	return toPoints(series, out)
}

// TSI calculates the double-smoothed true strength index; a zero denominator yields 0
func TSI(series models.Series, p TSIParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	closes := series.Closes()
	change := nanSlice(len(closes))
	absChange := nanSlice(len(closes))
	for i := 1; i < len(closes); i++ {
		change[i] = closes[i] - closes[i-1]
		absChange[i] = math.Abs(change[i])
	}

	num := emaValues(emaValues(change, p.Long), p.Short)
	den := emaValues(emaValues(absChange, p.Long), p.Short)

	out := nanSlice(len(closes))
	for i := range out {
		if isValid(num[i]) && isValid(den[i]) {
			out[i] = safeDiv(num[i], den[i], 0) * 100
		}
	}
	return toPoints(series, out)
}

// KSTResult holds the Know Sure Thing line and its signal line
type KSTResult struct {
	KST    models.PointSeries `json:"kst"`
	Signal models.PointSeries `json:"signal"`
}

// KST calculates Pring's Know Sure Thing: four smoothed ROCs weighted 1..4
func KST(series models.Series, p KSTParams) KSTResult {
	if p.Validate() != nil {
		return KSTResult{KST: models.PointSeries{}, Signal: models.PointSeries{}}
	}
	closes := series.Closes()
	smoothed := make([][]float64, len(p.ROC))
	for i := range p.ROC {
		smoothed[i] = smaValues(rocValues(closes, p.ROC[i]), p.SMA[i])
	}

	kst := nanSlice(len(closes))
	for i := range kst {
		var sum float64
		ok := true
		for w, line := range smoothed {
			if !isValid(line[i]) {
				ok = false
				break
			}
			sum += line[i] * float64(w+1)
		}
		if ok {
			kst[i] = sum
		}
	}
	signal := smaValues(kst, p.Signal)

	lines := alignLines(series, kst, signal)
	return KSTResult{KST: lines[0], Signal: lines[1]}
}
