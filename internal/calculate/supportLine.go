package calculate

import (
	"math"
	"sort"

	"github.com/Alias1177/SignalEngine/models"
)

// Levels are swing-derived support and resistance prices, nearest first
type Levels struct {
	Support    []float64 `json:"support"`
	Resistance []float64 `json:"resistance"`
}

const (
	levelTolerance = 0.002 // fraction of the last close used to cluster levels
	maxLevels      = 3
	minLevelBars   = 20
)

// SupportResistance clusters five-bar swing highs and lows into price levels.
// Levels touched by recent closes gain strength; at most three of each side are kept.
func SupportResistance(series models.Series) Levels {
	if len(series) < minLevelBars {
		return Levels{}
	}
	currentPrice := series[len(series)-1].Close
	tolerance := currentPrice * levelTolerance
	if tolerance <= 0 {
		return Levels{}
	}

	pricePoints := make(map[float64]int)
	for i := 2; i < len(series)-2; i++ {
		// swing low
		if series[i].Low < series[i-1].Low &&
			series[i].Low < series[i-2].Low &&
			series[i].Low < series[i+1].Low &&
			series[i].Low < series[i+2].Low {
			level := math.Round(series[i].Low/tolerance) * tolerance
			pricePoints[level]++
		}

		// swing high
		if series[i].High > series[i-1].High &&
			series[i].High > series[i-2].High &&
			series[i].High > series[i+1].High &&
			series[i].High > series[i+2].High {
			level := math.Round(series[i].High/tolerance) * tolerance
			pricePoints[level]++
		}
	}

	for i := len(series) - 10; i < len(series); i++ {
		for price := range pricePoints {
			if math.Abs(series[i].Close-price) < tolerance*2 {
				pricePoints[price]++
			}
		}
	}

	type priceLevel struct {
		price    float64
		strength int
	}
	levels := make([]priceLevel, 0, len(pricePoints))
	for price, strength := range pricePoints {
		levels = append(levels, priceLevel{price: price, strength: strength})
	}
	// strongest first; price breaks ties so map order never leaks out
	sort.Slice(levels, func(i, j int) bool {
		if levels[i].strength != levels[j].strength {
			return levels[i].strength > levels[j].strength
		}
		return levels[i].price < levels[j].price
	})

	var out Levels
	for _, level := range levels {
		switch {
		case level.price < currentPrice && len(out.Support) < maxLevels:
			out.Support = append(out.Support, level.price)
		case level.price > currentPrice && len(out.Resistance) < maxLevels:
			out.Resistance = append(out.Resistance, level.price)
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(out.Support)))
	sort.Float64s(out.Resistance)
	return out
}
