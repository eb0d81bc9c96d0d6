package analyze

import (
	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/models"
)

const structureBars = 5

// priceActionComponent scores band position, channel breakouts, SAR side,
// rate of change and swing structure
func priceActionComponent(series models.Series, cfg Config) models.Component {
	var r ruleSet
	last, _ := series.Last()
	price := last.Close

	if pb, ok := calculate.BBPercentB(series, calculate.BBPercentBParams{Period: cfg.BollingerPeriod, StdDev: cfg.BollingerStdDev}).Last(); ok {
		r.seen()
		if pb.Value < 0 {
			r.add(20, "close below lower Bollinger band")
		} else if pb.Value > 1 {
			r.add(-20, "close above upper Bollinger band")
		}
	}

	// Breakout is measured against the channel that ended on the previous bar
	if len(series) > 1 {
		prior := calculate.Donchian(series[:len(series)-1], calculate.DonchianParams{Period: cfg.DonchianPeriod})
		if upper, ok := prior.Upper.Last(); ok {
			r.seen()
			lower, _ := prior.Lower.Last()
			if price > upper.Value {
				r.add(30, "breakout above %d-bar high", cfg.DonchianPeriod)
			} else if price < lower.Value {
				r.add(-30, "breakdown below %d-bar low", cfg.DonchianPeriod)
			}
		}
	}

	if sar, ok := calculate.ParabolicSAR(series, calculate.ParabolicSARParams{Step: cfg.SARStep, Max: cfg.SARMax}).Last(); ok {
		r.seen()
		if price > sar.Value {
			r.add(20, "price above Parabolic SAR")
		} else if price < sar.Value {
			r.add(-20, "price below Parabolic SAR")
		}
	}

	if roc, ok := calculate.ROC(series, calculate.ROCParams{Period: cfg.ROCPeriod}).Last(); ok {
		r.seen()
		if roc.Value > cfg.ROCThreshold {
			r.add(15, "ROC%d %+.1f%%", cfg.ROCPeriod, roc.Value)
		} else if roc.Value < -cfg.ROCThreshold {
			r.add(-15, "ROC%d %+.1f%%", cfg.ROCPeriod, roc.Value)
		}
	}

	if len(series) >= structureBars {
		r.seen()
		switch swingStructure(series[len(series)-structureBars:]) {
		case 1:
			r.add(15, "higher highs and higher lows")
		case -1:
			r.add(-15, "lower highs and lower lows")
		}
	}

	return r.component()
}

// swingStructure is 1 when every bar makes a higher high and higher low,
// -1 for lower highs and lower lows, 0 otherwise
func swingStructure(bars models.Series) int {
	up, down := true, true
	for i := 1; i < len(bars); i++ {
		if !(bars[i].High > bars[i-1].High && bars[i].Low > bars[i-1].Low) {
			up = false
		}
		if !(bars[i].High < bars[i-1].High && bars[i].Low < bars[i-1].Low) {
			down = false
		}
	}
	switch {
	case up:
		return 1
	case down:
		return -1
	}
	return 0
}
