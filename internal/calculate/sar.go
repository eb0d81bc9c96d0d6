package calculate

import (
	"math"

	"github.com/Alias1177/SignalEngine/models"
)

// ParabolicSAR calculates Wilder's stop-and-reverse. The first point is at bar 1.
func ParabolicSAR(series models.Series, p ParabolicSARParams) models.PointSeries {
	if p.Validate() != nil || len(series) < p.Lookback() {
		return models.PointSeries{}
	}
	out := nanSlice(len(series))

	long := series[1].Close >= series[0].Close
	af := p.Step
	var sar, ep float64
	if long {
		sar, ep = series[0].Low, series[1].High
	} else {
		sar, ep = series[0].High, series[1].Low
	}

	for i := 1; i < len(series); i++ {
		bar := series[i]
		prev := series[i-1]

		if long {
			if bar.Low <= sar {
				// reverse to short
				long = false
				sar = math.Max(ep, bar.High)
				ep = bar.Low
				af = p.Step
				out[i] = sar
				sar += af * (ep - sar)
				sar = math.Max(sar, math.Max(bar.High, prev.High))
				continue
			}
			out[i] = sar
			if bar.High > ep {
				ep = bar.High
				af = math.Min(af+p.Step, p.Max)
			}
			sar += af * (ep - sar)
			sar = math.Min(sar, math.Min(bar.Low, prev.Low))
			continue
		}

		if bar.High >= sar {
			// reverse to long
			long = true
			sar = math.Min(ep, bar.Low)
			ep = bar.High
			af = p.Step
			out[i] = sar
			sar += af * (ep - sar)
			sar = math.Min(sar, math.Min(bar.Low, prev.Low))
			continue
		}
		out[i] = sar
		if bar.Low < ep {
			ep = bar.Low
			af = math.Min(af+p.Step, p.Max)
		}
		sar += af * (ep - sar)
		sar = math.Max(sar, math.Max(bar.High, prev.High))
	}
	return toPoints(series, out)
}
