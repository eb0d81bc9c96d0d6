package analyze

import (
	"fmt"
	"math"

	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/models"
)

// ruleSet accumulates the points and signals of one component
type ruleSet struct {
	score   float64
	signals []string
	inputs  int // indicators that produced at least one value
}

func (r *ruleSet) add(points float64, format string, args ...any) {
	r.score += points
	r.signals = append(r.signals, fmt.Sprintf(format, args...))
}

func (r *ruleSet) seen() { r.inputs++ }

func (r *ruleSet) component() models.Component {
	signals := r.signals
	if signals == nil {
		signals = []string{}
	}
	return models.Component{
		Score:     clamp(r.score, -100, 100),
		Signals:   signals,
		Available: r.inputs > 0,
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// lastTwo returns the final two values of a point series
func lastTwo(p models.PointSeries) (prev, cur float64, ok bool) {
	if p.Len() < 2 {
		return 0, 0, false
	}
	return p[p.Len()-2].Value, p[p.Len()-1].Value, true
}

// technicalComponent scores trend and momentum oscillators
func technicalComponent(series models.Series, cfg Config) models.Component {
	var r ruleSet
	last, _ := series.Last()
	price := last.Close

	// RSI zones
	if rsi, ok := calculate.RSI(series, calculate.RSIParams{Period: cfg.RSIPeriod}).Last(); ok {
		r.seen()
		switch {
		case rsi.Value < 30:
			r.add(30, "RSI %.1f oversold", rsi.Value)
		case rsi.Value < 40:
			r.add(10, "RSI %.1f approaching oversold", rsi.Value)
		case rsi.Value > 70:
			r.add(-30, "RSI %.1f overbought", rsi.Value)
		case rsi.Value > 60:
			r.add(-10, "RSI %.1f approaching overbought", rsi.Value)
		}
	}

	// MACD histogram
	macd := calculate.MACD(series, calculate.MACDParams{Fast: cfg.MACDFast, Slow: cfg.MACDSlow, Signal: cfg.MACDSignal})
	if hist, ok := macd.Histogram.Last(); ok {
		r.seen()
		prev, cur, both := lastTwo(macd.Histogram)
		switch {
		case both && prev <= 0 && cur > 0:
			r.add(30, "MACD histogram crossed above zero")
		case both && prev >= 0 && cur < 0:
			r.add(-30, "MACD histogram crossed below zero")
		case hist.Value > 0:
			r.add(10, "MACD histogram positive")
		case hist.Value < 0:
			r.add(-10, "MACD histogram negative")
		}
	}

	// Price against the moving averages
	fast, fastOK := calculate.SMA(series, calculate.SMAParams{Period: cfg.FastSMA}).Last()
	if fastOK {
		r.seen()
		if price > fast.Value {
			r.add(10, "price above SMA%d", cfg.FastSMA)
		} else if price < fast.Value {
			r.add(-10, "price below SMA%d", cfg.FastSMA)
		}
	}
	slow, slowOK := calculate.SMA(series, calculate.SMAParams{Period: cfg.SlowSMA}).Last()
	if slowOK {
		r.seen()
		if price > slow.Value {
			r.add(10, "price above SMA%d", cfg.SlowSMA)
		} else if price < slow.Value {
			r.add(-10, "price below SMA%d", cfg.SlowSMA)
		}
	}
	if fastOK && slowOK {
		if fast.Value > slow.Value {
			r.add(10, "golden alignment SMA%d > SMA%d", cfg.FastSMA, cfg.SlowSMA)
		} else if fast.Value < slow.Value {
			r.add(-10, "death alignment SMA%d < SMA%d", cfg.FastSMA, cfg.SlowSMA)
		}
	}

	// ADX and directional movement
	adx := calculate.ADX(series, calculate.ADXParams{Period: cfg.ADXPeriod})
	if a, ok := adx.ADX.Last(); ok {
		r.seen()
		plus, _ := adx.PlusDI.Last()
		minus, _ := adx.MinusDI.Last()
		if a.Value > cfg.ADXTrend {
			if plus.Value > minus.Value {
				r.add(20, "strong uptrend ADX %.1f", a.Value)
			} else if minus.Value > plus.Value {
				r.add(-20, "strong downtrend ADX %.1f", a.Value)
			}
		}
	}

	// Stochastic turning in the extremes
	stoch := calculate.Stochastic(series, calculate.StochasticParams{KPeriod: cfg.StochK, DPeriod: cfg.StochD})
	if k, ok := stoch.K.Last(); ok {
		r.seen()
		d, _ := stoch.D.Last()
		if k.Value < 20 && k.Value > d.Value {
			r.add(10, "stochastic oversold and turning up")
		} else if k.Value > 80 && k.Value < d.Value {
			r.add(-10, "stochastic overbought and turning down")
		}
	}

	return r.component()
}
