package analyze

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// Candlestick pattern names reported in signals
const (
	PatternBullishEngulfing   = "BULLISH_ENGULFING"
	PatternBearishEngulfing   = "BEARISH_ENGULFING"
	PatternHammer             = "HAMMER"
	PatternShootingStar       = "SHOOTING_STAR"
	PatternThreeWhiteSoldiers = "THREE_WHITE_SOLDIERS"
	PatternThreeBlackCrows    = "THREE_BLACK_CROWS"
	PatternMorningStar        = "MORNING_STAR"
	PatternEveningStar        = "EVENING_STAR"
	PatternDoji               = "DOJI"
)

var patternPoints = map[string]float64{
	PatternBullishEngulfing:   35,
	PatternBearishEngulfing:   -35,
	PatternHammer:             25,
	PatternShootingStar:       -25,
	PatternThreeWhiteSoldiers: 30,
	PatternThreeBlackCrows:    -30,
	PatternMorningStar:        35,
	PatternEveningStar:        -35,
	PatternDoji:               0,
}

const minPatternBars = 5

// IdentifyPatterns detects candlestick patterns on the most recent bars.
// It needs at least five bars and returns names in a fixed order.
func IdentifyPatterns(series models.Series) []string {
	if len(series) < minPatternBars {
		return nil
	}

	var patterns []string

	c1 := series[len(series)-5] // oldest
	c2 := series[len(series)-4]
	c3 := series[len(series)-3]
	c4 := series[len(series)-2]
	c5 := series[len(series)-1] // most recent

	bodySize1 := math.Abs(c1.Close - c1.Open)
	bodySize2 := math.Abs(c2.Close - c2.Open)
	bodySize3 := math.Abs(c3.Close - c3.Open)
	bodySize4 := math.Abs(c4.Close - c4.Open)
	bodySize5 := math.Abs(c5.Close - c5.Open)

	avgBodySize := (bodySize1 + bodySize2 + bodySize3 + bodySize4 + bodySize5) / 5

	bullish3, bearish3 := c3.Close > c3.Open, c3.Close < c3.Open
	bullish4, bearish4 := c4.Close > c4.Open, c4.Close < c4.Open
	bullish5, bearish5 := c5.Close > c5.Open, c5.Close < c5.Open

	upperWick5 := c5.High - math.Max(c5.Open, c5.Close)
	lowerWick5 := math.Min(c5.Open, c5.Close) - c5.Low

	// Engulfing
	if bullish5 && bearish4 &&
		c5.Open <= c4.Close &&
		c5.Close >= c4.Open &&
		bodySize5 > bodySize4*1.2 {
		patterns = append(patterns, PatternBullishEngulfing)
	}
	if bearish5 && bullish4 &&
		c5.Open >= c4.Close &&
		c5.Close <= c4.Open &&
		bodySize5 > bodySize4*1.2 {
		patterns = append(patterns, PatternBearishEngulfing)
	}

	// Pin bars
	if bodySize5 > 0 && lowerWick5 > bodySize5*2 && upperWick5 < bodySize5*0.5 {
		patterns = append(patterns, PatternHammer)
	}
	if bodySize5 > 0 && upperWick5 > bodySize5*2 && lowerWick5 < bodySize5*0.5 {
		patterns = append(patterns, PatternShootingStar)
	}

	// Three-candle runs with progressing closes
	if bullish3 && bullish4 && bullish5 && c4.Close > c3.Close && c5.Close > c4.Close {
		patterns = append(patterns, PatternThreeWhiteSoldiers)
	}
	if bearish3 && bearish4 && bearish5 && c4.Close < c3.Close && c5.Close < c4.Close {
		patterns = append(patterns, PatternThreeBlackCrows)
	}

	// Stars: large body, small middle body, large opposite body closing past the first midpoint
	midpoint3 := c3.Open + (c3.Close-c3.Open)/2
	if bearish3 && bodySize3 > avgBodySize &&
		bodySize4 < avgBodySize*0.3 &&
		math.Max(c4.Open, c4.Close) < c3.Close &&
		bullish5 && bodySize5 > avgBodySize &&
		c5.Close > midpoint3 {
		patterns = append(patterns, PatternMorningStar)
	}
	if bullish3 && bodySize3 > avgBodySize &&
		bodySize4 < avgBodySize*0.3 &&
		math.Min(c4.Open, c4.Close) > c3.Close &&
		bearish5 && bodySize5 > avgBodySize &&
		c5.Close < midpoint3 {
		patterns = append(patterns, PatternEveningStar)
	}

	// Doji
	if bodySize5 < avgBodySize*0.3 &&
		(upperWick5 > bodySize5 || lowerWick5 > bodySize5) {
		patterns = append(patterns, PatternDoji)
	}

	return patterns
}

// patternsComponent turns detected patterns into a score
func patternsComponent(series models.Series) models.Component {
	var r ruleSet
	if len(series) < minPatternBars {
		return r.component()
	}
	r.seen()
	for _, name := range IdentifyPatterns(series) {
		r.add(patternPoints[name], "%s", name)
	}
	return r.component()
}
