// Package analyze blends indicator rules into a composite directional score.
package analyze

import (
	"fmt"
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// Component names used in notes
const (
	ComponentTechnical   = "technical"
	ComponentVolume      = "volume"
	ComponentPriceAction = "priceAction"
	ComponentPatterns    = "patterns"
)

// Scorer computes composite scores. It holds no mutable state and is safe
// for concurrent use.
type Scorer struct {
	cfg Config
}

// New validates cfg and returns a Scorer bound to a copy of it
func New(cfg Config) (*Scorer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{cfg: cfg}, nil
}

// Config returns the scorer's configuration
func (s *Scorer) Config() Config { return s.cfg }

type weighted struct {
	name   string
	comp   *models.Component
	base   float64
	reason string
}

// Score validates the series and computes the composite score. The only
// error returned wraps models.ErrInvalidInput.
func (s *Scorer) Score(series models.Series) (models.Score, error) {
	if err := series.Validate(); err != nil {
		return models.Score{}, err
	}

	var comps models.Components
	var volumeReason string
	if len(series) > 0 {
		comps.Technical = technicalComponent(series, s.cfg)
		var hasVol bool
		comps.Volume, hasVol = volumeComponent(series, s.cfg)
		if !hasVol {
			volumeReason = "no volume data"
		}
		comps.PriceAction = priceActionComponent(series, s.cfg)
		comps.Patterns = patternsComponent(series)
	} else {
		comps = models.Components{
			Technical:   models.Component{Signals: []string{}},
			Volume:      models.Component{Signals: []string{}},
			PriceAction: models.Component{Signals: []string{}},
			Patterns:    models.Component{Signals: []string{}},
		}
	}

	w := s.cfg.Weights
	parts := []weighted{
		{name: ComponentTechnical, comp: &comps.Technical, base: w.Technical},
		{name: ComponentVolume, comp: &comps.Volume, base: w.Volume, reason: volumeReason},
		{name: ComponentPriceAction, comp: &comps.PriceAction, base: w.PriceAction},
		{name: ComponentPatterns, comp: &comps.Patterns, base: w.Patterns},
	}
	return s.combine(&comps, parts), nil
}

// combine renormalizes weights over the available components and derives
// the composite score, confidence and recommendation
func (s *Scorer) combine(comps *models.Components, parts []weighted) models.Score {
	var notes []string
	var availableWeight float64
	var availableScores []float64

	for _, p := range parts {
		if !p.comp.Available {
			reason := p.reason
			if reason == "" {
				reason = "insufficient history"
			}
			note := fmt.Sprintf("%s: excluded (%s)", p.name, reason)
			notes = append(notes, note)
			p.comp.Signals = append(p.comp.Signals, note)
			p.comp.Score = 0
			p.comp.Weight = 0
			continue
		}
		availableWeight += p.base
		availableScores = append(availableScores, p.comp.Score)
	}

	if availableWeight <= 0 {
		for _, p := range parts {
			p.comp.Weight = 0
		}
		return models.Score{
			Score:          0,
			Components:     *comps,
			Confidence:     0,
			Recommendation: models.Hold,
			Notes:          append(notes, "no components available"),
		}
	}

	var score float64
	for _, p := range parts {
		if !p.comp.Available {
			continue
		}
		p.comp.Weight = p.base / availableWeight
		score += p.comp.Weight * p.comp.Score
	}
	score = clamp(score, -100, 100)

	coverage := availableWeight / s.cfg.Weights.total()
	confidence := clamp(100-popStdDev(availableScores), 0, 100) * coverage

	return models.Score{
		Score:          score,
		Components:     *comps,
		Confidence:     confidence,
		Recommendation: Recommend(score, s.cfg.Thresholds),
		Notes:          notes,
	}
}

// Recommend maps a composite score to a recommendation using thresholds that
// are mirrored around zero
func Recommend(score float64, t Thresholds) models.Recommendation {
	switch {
	case score >= t.StrongBuy:
		return models.StrongBuy
	case score >= t.Buy:
		return models.Buy
	case score > -t.Buy:
		return models.Hold
	case score > -t.StrongBuy:
		return models.Sell
	}
	return models.StrongSell
}

func popStdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var variance float64
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(values)))
}
