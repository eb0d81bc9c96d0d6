package calculate

import "github.com/Alias1177/SignalEngine/models"

// RSIFlat is returned when the average loss is zero, flat series included
const RSIFlat = 100.0

func rsiValues(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period < 1 || len(closes) < period+1 {
		return out
	}

	var gains, losses float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	avgGain := gains / float64(period)
	avgLoss := losses / float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	// Wilder smoothing for the rest of the data
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}
	return out
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return RSIFlat
	}
	rs := avgGain / avgLoss
	return 100.0 - (100.0 / (1.0 + rs))
}

// RSI calculates Wilder's relative strength index. The first point is at bar
// index period; a zero average loss maps to RSIFlat.
func RSI(series models.Series, p RSIParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, rsiValues(series.Closes(), p.Period))
}
