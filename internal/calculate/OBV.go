package calculate

import (
	"github.com/Alias1177/SignalEngine/models"
)

// MFIFlat is the MFI value when the window holds no negative money flow
const MFIFlat = 100.0

// OBV calculates on-balance volume, starting at 0 on the first bar
func OBV(series models.Series, _ OBVParams) models.PointSeries {
	out := nanSlice(len(series))
	if len(series) == 0 {
		return models.PointSeries{}
	}
	obv := 0.0
	out[0] = obv
	for i := 1; i < len(series); i++ {
		switch {
		case series[i].Close > series[i-1].Close:
			obv += series[i].Volume
		case series[i].Close < series[i-1].Close:
			obv -= series[i].Volume
		}
		out[i] = obv
	}
	return toPoints(series, out)
}

// MFI calculates the money flow index over typical-price money flow
func MFI(series models.Series, p MFIParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	tp := typicalPrices(series)
	positive := nanSlice(len(series))
	negative := nanSlice(len(series))
	for i := 1; i < len(series); i++ {
		flow := tp[i] * series[i].Volume
		positive[i], negative[i] = 0, 0
		switch {
		case tp[i] > tp[i-1]:
			positive[i] = flow
		case tp[i] < tp[i-1]:
			negative[i] = flow
		}
	}

	posSum := rollingSum(positive, p.Period)
	negSum := rollingSum(negative, p.Period)

	out := nanSlice(len(series))
	for i := range out {
		if !isValid(posSum[i]) {
			continue
		}
		if negSum[i] == 0 {
			out[i] = MFIFlat
			continue
		}
		ratio := posSum[i] / negSum[i]
		out[i] = 100 - 100/(1+ratio)
	}
	return toPoints(series, out)
}

// clv is the close location value; a zero-range bar yields 0
func clv(b models.Bar) float64 {
	return safeDiv((b.Close-b.Low)-(b.High-b.Close), b.High-b.Low, 0)
}

// ADLine calculates the accumulation/distribution line
func ADLine(series models.Series, _ ADLineParams) models.PointSeries {
	out := nanSlice(len(series))
	var ad float64
	for i, b := range series {
		ad += clv(b) * b.Volume
		out[i] = ad
	}
	return toPoints(series, out)
}

// CMF calculates Chaikin money flow; a window with zero volume yields 0
func CMF(series models.Series, p CMFParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	flow := make([]float64, len(series))
	for i, b := range series {
		flow[i] = clv(b) * b.Volume
	}
	flowSum := rollingSum(flow, p.Period)
	volSum := rollingSum(series.Volumes(), p.Period)

	out := nanSlice(len(series))
	for i := range out {
		if isValid(flowSum[i]) {
			out[i] = safeDiv(flowSum[i], volSum[i], 0)
		}
	}
	return toPoints(series, out)
}

// VWAP calculates the cumulative volume-weighted typical price. With
// AnchorSession the sums restart whenever the UTC calendar day changes.
func VWAP(series models.Series, p VWAPParams) models.PointSeries {
	if p.Validate() != nil {
		return models.PointSeries{}
	}
	tp := typicalPrices(series)
	out := nanSlice(len(series))

	var pv, vol float64
	for i, b := range series {
		if i > 0 && p.Anchor == AnchorSession && newSession(series[i-1], b) {
			pv, vol = 0, 0
		}
		pv += tp[i] * b.Volume
		vol += b.Volume
		out[i] = safeDiv(pv, vol, tp[i])
	}
	return toPoints(series, out)
}

func newSession(prev, cur models.Bar) bool {
	py, pm, pd := prev.Timestamp.UTC().Date()
	cy, cm, cd := cur.Timestamp.UTC().Date()
	return py != cy || pm != cm || pd != cd
}
