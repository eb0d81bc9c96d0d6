// Package calculate is the indicator library: deterministic transforms from an
// OHLCV series to one or more point series.
//
// Internally every indicator works on full-length []float64 slices where the
// warm-up prefix holds NaN. Conversion to models.PointSeries drops that prefix,
// so callers only ever see finite values aligned to a suffix of the input.
package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

var nan = math.NaN()

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = nan
	}
	return out
}

func isValid(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// firstValid returns the index of the first finite value, or len(values)
func firstValid(values []float64) int {
	for i, v := range values {
		if isValid(v) {
			return i
		}
	}
	return len(values)
}

// toPoints pairs values with bar timestamps, dropping the warm-up prefix
func toPoints(series models.Series, values []float64) models.PointSeries {
	return toPointsFrom(series, values, firstValid(values))
}

// toPointsFrom converts values[start:]. A non-finite value past start (an
// overflow on extreme prices) empties the result rather than leaving a gap.
func toPointsFrom(series models.Series, values []float64, start int) models.PointSeries {
	if start >= len(values) {
		return models.PointSeries{}
	}
	out := make(models.PointSeries, 0, len(values)-start)
	for i := start; i < len(values); i++ {
		if !isValid(values[i]) {
			return models.PointSeries{}
		}
		out = append(out, models.Point{Timestamp: series[i].Timestamp, Value: values[i]})
	}
	return out
}

// commonStart is the first index at which every line has a value
func commonStart(lines ...[]float64) int {
	start := 0
	for _, l := range lines {
		if s := firstValid(l); s > start {
			start = s
		}
	}
	return start
}

// alignLines converts several lines to point series sharing identical timestamps
func alignLines(series models.Series, lines ...[]float64) []models.PointSeries {
	start := commonStart(lines...)
	out := make([]models.PointSeries, len(lines))
	for i, l := range lines {
		out[i] = toPointsFrom(series, l, start)
		if out[i].Len() == 0 {
			for j := range out {
				out[j] = models.PointSeries{}
			}
			return out
		}
	}
	return out
}

func typicalPrices(series models.Series) []float64 {
	out := make([]float64, len(series))
	for i, b := range series {
		out[i] = (b.High + b.Low + b.Close) / 3
	}
	return out
}

func medianPrices(series models.Series) []float64 {
	out := make([]float64, len(series))
	for i, b := range series {
		out[i] = (b.High + b.Low) / 2
	}
	return out
}

// safeDiv returns fallback instead of a non-finite quotient
func safeDiv(num, den, fallback float64) float64 {
	if den == 0 {
		return fallback
	}
	q := num / den
	if !isValid(q) {
		return fallback
	}
	return q
}
