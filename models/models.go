package models

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidInput marks a malformed bar or series rejected before any indicator runs.
var ErrInvalidInput = errors.New("invalid input")

// Bar represents a single OHLCV price bar
type Bar struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
}

// Series is an ordered price history, oldest bar first
type Series []Bar

// ValidationError describes the first bar that failed validation
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("bar %d: %s", e.Index, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidInput
}

// Validate checks bar invariants and timestamp ordering.
// An empty series is valid: it simply produces empty indicator output.
func (s Series) Validate() error {
	for i, b := range s {
		if reason := b.check(); reason != "" {
			return &ValidationError{Index: i, Reason: reason}
		}
		if i > 0 && !b.Timestamp.After(s[i-1].Timestamp) {
			if b.Timestamp.Equal(s[i-1].Timestamp) {
				return &ValidationError{Index: i, Reason: "duplicate timestamp"}
			}
			return &ValidationError{Index: i, Reason: "timestamp not increasing"}
		}
	}
	return nil
}

func (b Bar) check() string {
	for _, v := range [...]float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return "non-finite value"
		}
	}
	switch {
	case b.Low < 0:
		return "negative price"
	case b.High < b.Low:
		return fmt.Sprintf("high %.6f below low %.6f", b.High, b.Low)
	case b.Open < b.Low || b.Open > b.High:
		return fmt.Sprintf("open %.6f outside [low, high]", b.Open)
	case b.Close < b.Low || b.Close > b.High:
		return fmt.Sprintf("close %.6f outside [low, high]", b.Close)
	case b.Volume < 0:
		return "negative volume"
	}
	return ""
}

// Last returns the most recent bar
func (s Series) Last() (Bar, bool) {
	if len(s) == 0 {
		return Bar{}, false
	}
	return s[len(s)-1], true
}

func (s Series) Closes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Close
	}
	return out
}

func (s Series) Highs() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.High
	}
	return out
}

func (s Series) Lows() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Low
	}
	return out
}

func (s Series) Volumes() []float64 {
	out := make([]float64, len(s))
	for i, b := range s {
		out[i] = b.Volume
	}
	return out
}

// Point is one value of an indicator output line
type Point struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// PointSeries is an indicator output aligned to a suffix of the input series
type PointSeries []Point

func (p PointSeries) Len() int { return len(p) }

// Last returns the most recent point
func (p PointSeries) Last() (Point, bool) {
	if len(p) == 0 {
		return Point{}, false
	}
	return p[len(p)-1], true
}

// Values returns the point values without timestamps
func (p PointSeries) Values() []float64 {
	out := make([]float64, len(p))
	for i, pt := range p {
		out[i] = pt.Value
	}
	return out
}

// Recommendation is the discrete verdict derived from a composite score
type Recommendation string

const (
	StrongBuy  Recommendation = "STRONG_BUY"
	Buy        Recommendation = "BUY"
	Hold       Recommendation = "HOLD"
	Sell       Recommendation = "SELL"
	StrongSell Recommendation = "STRONG_SELL"
)

// Component is one category sub-score of a composite score
type Component struct {
	Score     float64  `json:"score"`  // [-100, 100]
	Weight    float64  `json:"weight"` // effective weight after renormalization
	Signals   []string `json:"signals"`
	Available bool     `json:"available"`
}

// Components groups the four category sub-scores
type Components struct {
	Technical   Component `json:"technical"`
	Volume      Component `json:"volume"`
	PriceAction Component `json:"price_action"`
	Patterns    Component `json:"patterns"`
}

// Score is the composite directional verdict for one series
type Score struct {
	Score          float64        `json:"score"` // [-100, 100]
	Components     Components     `json:"components"`
	Confidence     float64        `json:"confidence"` // [0, 100]
	Recommendation Recommendation `json:"recommendation"`
	Notes          []string       `json:"notes,omitempty"`
}

// Signals flattens the signals of all available components in category order
func (s Score) Signals() []string {
	var out []string
	for _, c := range []Component{s.Components.Technical, s.Components.Volume, s.Components.PriceAction, s.Components.Patterns} {
		if c.Available {
			out = append(out, c.Signals...)
		}
	}
	return out
}

// ScanParams holds the scanner filters and account parameters
type ScanParams struct {
	MinPrice    float64 `json:"min_price" yaml:"min_price"`
	MaxPrice    float64 `json:"max_price" yaml:"max_price"` // 0 disables the upper bound
	MinVolume   float64 `json:"min_volume" yaml:"min_volume"`
	AccountSize float64 `json:"account_size" yaml:"account_size"`
	RiskLevel   string  `json:"risk_level" yaml:"risk_level"` // low, medium, high
	MinScore    float64 `json:"min_score" yaml:"min_score"`
	TopN        int     `json:"top_n" yaml:"top_n"` // 0 keeps every result
}

// PositionSizingResult holds position sizing calculation results
type PositionSizingResult struct {
	Quantity        int64   `json:"quantity"`
	StopLoss        float64 `json:"stop_loss"`
	TakeProfit      float64 `json:"take_profit"`
	RiskRewardRatio float64 `json:"risk_reward_ratio"`
	RiskAmount      float64 `json:"risk_amount"`
	CapitalRequired float64 `json:"capital_required"`
	AccountRisk     float64 `json:"account_risk"`
}

// RankedResult is one row of a scan
type RankedResult struct {
	Symbol         string                `json:"symbol"`
	Score          float64               `json:"score"`
	Recommendation Recommendation        `json:"recommendation"`
	Confidence     float64               `json:"confidence"`
	Signals        []string              `json:"signals"`
	LastPrice      float64               `json:"last_price"`
	Position       *PositionSizingResult `json:"position,omitempty"`
}

// ScanReport is the outcome of one scan over a symbol universe. Attempted
// lists, sorted, every symbol that reached an outcome.
type ScanReport struct {
	ID        string            `json:"id"`
	Results   []RankedResult    `json:"results"`
	Scanned   int               `json:"scanned"`
	Skipped   int               `json:"skipped"`
	Filtered  int               `json:"filtered"`
	Attempted []string          `json:"attempted"`
	StartedAt time.Time         `json:"started_at"`
	Duration  time.Duration     `json:"duration"`
	Errors    map[string]string `json:"errors,omitempty"`
}
