package calculate

import "github.com/Alias1177/SignalEngine/models"

// MACDResult holds the MACD line, its signal line and the histogram
type MACDResult struct {
	MACD      models.PointSeries `json:"macd"`
	Signal    models.PointSeries `json:"signal"`
	Histogram models.PointSeries `json:"histogram"`
}

func emptyMACD() MACDResult {
	return MACDResult{MACD: models.PointSeries{}, Signal: models.PointSeries{}, Histogram: models.PointSeries{}}
}

// oscillatorWithSignal derives signal = EMA(line) and histogram = line - signal
func oscillatorWithSignal(series models.Series, line []float64, signalPeriod int) MACDResult {
	signal := emaValues(line, signalPeriod)
	hist := nanSlice(len(line))
	for i := range line {
		if isValid(signal[i]) {
			hist[i] = line[i] - signal[i]
		}
	}
	lines := alignLines(series, line, signal, hist)
	return MACDResult{MACD: lines[0], Signal: lines[1], Histogram: lines[2]}
}

// MACD calculates EMA(fast) - EMA(slow), its EMA signal line and the histogram.
// All three series start where the signal line starts.
func MACD(series models.Series, p MACDParams) MACDResult {
	if p.Validate() != nil {
		return emptyMACD()
	}
	closes := series.Closes()
	fast := emaValues(closes, p.Fast)
	slow := emaValues(closes, p.Slow)

	line := nanSlice(len(closes))
	for i := range closes {
		if isValid(fast[i]) && isValid(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}
	return oscillatorWithSignal(series, line, p.Signal)
}

// PPO is MACD expressed as a percentage of the slow EMA; a zero slow EMA yields 0.
// The result reuses MACDResult with the PPO line in the MACD field.
func PPO(series models.Series, p PPOParams) MACDResult {
	if p.Validate() != nil {
		return emptyMACD()
	}
	closes := series.Closes()
	fast := emaValues(closes, p.Fast)
	slow := emaValues(closes, p.Slow)

	line := nanSlice(len(closes))
	for i := range closes {
		if isValid(fast[i]) && isValid(slow[i]) {
			line[i] = safeDiv(fast[i]-slow[i], slow[i], 0) * 100
		}
	}
	return oscillatorWithSignal(series, line, p.Signal)
}
