package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// smaValues is the trailing arithmetic mean; leading NaNs in values are skipped
func smaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period < 1 || len(values)-start < period {
		return out
	}
	for i := start + period - 1; i < len(values); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(period)
	}
	return out
}

// wmaValues weights the window 1..period, newest bar heaviest
func wmaValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period < 1 || len(values)-start < period {
		return out
	}
	denom := float64(period*(period+1)) / 2
	for i := start + period - 1; i < len(values); i++ {
		var sum float64
		for j := 0; j < period; j++ {
			sum += values[i-period+1+j] * float64(j+1)
		}
		out[i] = sum / denom
	}
	return out
}

// stdDevValues is the rolling population standard deviation
func stdDevValues(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	mean := smaValues(values, period)
	for i, m := range mean {
		if !isValid(m) {
			continue
		}
		var variance float64
		for j := i - period + 1; j <= i; j++ {
			d := values[j] - m
			variance += d * d
		}
		out[i] = math.Sqrt(variance / float64(period))
	}
	return out
}

func rollingMax(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		m := values[i]
		for j := i - period + 1; j < i; j++ {
			if values[j] > m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

func rollingMin(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	for i := period - 1; i < len(values); i++ {
		m := values[i]
		for j := i - period + 1; j < i; j++ {
			if values[j] < m {
				m = values[j]
			}
		}
		out[i] = m
	}
	return out
}

// rollingSum sums the trailing window; used by CMF and the Ultimate Oscillator
func rollingSum(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	start := firstValid(values)
	if period < 1 || len(values)-start < period {
		return out
	}
	for i := start + period - 1; i < len(values); i++ {
		var sum float64
		for j := i - period + 1; j <= i; j++ {
			sum += values[j]
		}
		out[i] = sum
	}
	return out
}

// SMA calculates the simple moving average of closes
func SMA(series models.Series, p SMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, smaValues(series.Closes(), p.Period))
}

// WMA calculates the linearly weighted moving average of closes
func WMA(series models.Series, p WMAParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, wmaValues(series.Closes(), p.Period))
}

// StdDev calculates the rolling population standard deviation of closes
func StdDev(series models.Series, p StdDevParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	return toPoints(series, stdDevValues(series.Closes(), p.Period))
}
