package analyze

import (
	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/models"
)

func hasVolume(series models.Series) bool {
	for _, b := range series {
		if b.Volume > 0 {
			return true
		}
	}
	return false
}

// volumeComponent scores money flow and volume confirmation. The second
// return value is false when the series carries no volume at all.
func volumeComponent(series models.Series, cfg Config) (models.Component, bool) {
	if !hasVolume(series) {
		return models.Component{Signals: []string{}}, false
	}
	var r ruleSet
	last, _ := series.Last()

	// OBV slope
	obv := calculate.OBV(series, calculate.OBVParams{})
	if obv.Len() > cfg.OBVSlopeBars {
		r.seen()
		slope := obv[obv.Len()-1].Value - obv[obv.Len()-1-cfg.OBVSlopeBars].Value
		if slope > 0 {
			r.add(20, "OBV rising over %d bars", cfg.OBVSlopeBars)
		} else if slope < 0 {
			r.add(-20, "OBV falling over %d bars", cfg.OBVSlopeBars)
		}
	}

	if cmf, ok := calculate.CMF(series, calculate.CMFParams{Period: cfg.CMFPeriod}).Last(); ok {
		r.seen()
		if cmf.Value > 0.05 {
			r.add(25, "CMF %.2f accumulation", cmf.Value)
		} else if cmf.Value < -0.05 {
			r.add(-25, "CMF %.2f distribution", cmf.Value)
		}
	}

	if mfi, ok := calculate.MFI(series, calculate.MFIParams{Period: cfg.MFIPeriod}).Last(); ok {
		r.seen()
		if mfi.Value < 20 {
			r.add(20, "MFI %.1f oversold", mfi.Value)
		} else if mfi.Value > 80 {
			r.add(-20, "MFI %.1f overbought", mfi.Value)
		}
	}

	// Volume surge confirming the bar direction
	if len(series) >= cfg.VolumePeriod {
		r.seen()
		var total float64
		for _, b := range series[len(series)-cfg.VolumePeriod:] {
			total += b.Volume
		}
		avg := total / float64(cfg.VolumePeriod)
		if avg > 0 && last.Volume > avg*cfg.VolumeSurge {
			if last.Close > last.Open {
				r.add(20, "volume surge confirms up bar")
			} else if last.Close < last.Open {
				r.add(-20, "volume surge confirms down bar")
			}
		}
	}

	return r.component(), true
}
