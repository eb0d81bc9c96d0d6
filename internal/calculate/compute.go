package calculate

import (
	"fmt"

	"github.com/Alias1177/SignalEngine/models"
)

// Line names used in Output.Lines
const (
	LineValue     = "value"
	LineUpper     = "upper"
	LineMiddle    = "middle"
	LineLower     = "lower"
	LineMACD      = "macd"
	LinePPO       = "ppo"
	LineSignal    = "signal"
	LineHistogram = "histogram"
	LineK         = "k"
	LineD         = "d"
	LineADX       = "adx"
	LinePlusDI    = "plusDI"
	LineMinusDI   = "minusDI"
	LineKST       = "kst"
)

// Output is the result of Compute: every named line of one indicator
type Output struct {
	Kind  Kind                          `json:"kind"`
	Lines map[string]models.PointSeries `json:"lines"`
}

func single(kind Kind, line models.PointSeries) Output {
	return Output{Kind: kind, Lines: map[string]models.PointSeries{LineValue: line}}
}

func bandsOutput(kind Kind, b Bands) Output {
	return Output{Kind: kind, Lines: map[string]models.PointSeries{
		LineUpper:  b.Upper,
		LineMiddle: b.Middle,
		LineLower:  b.Lower,
	}}
}

// Compute validates the series and params, then dispatches to the indicator.
// Short history is not an error: the lines are simply empty.
func Compute(series models.Series, params Params) (Output, error) {
	if params == nil {
		return Output{}, fmt.Errorf("%w: nil params", ErrInvalidParams)
	}
	if err := series.Validate(); err != nil {
		return Output{}, err
	}
	if err := params.Validate(); err != nil {
		return Output{}, err
	}

	switch p := params.(type) {
	case SMAParams:
		return single(p.Kind(), SMA(series, p)), nil
	case EMAParams:
		return single(p.Kind(), EMA(series, p)), nil
	case WMAParams:
		return single(p.Kind(), WMA(series, p)), nil
	case DEMAParams:
		return single(p.Kind(), DEMA(series, p)), nil
	case TEMAParams:
		return single(p.Kind(), TEMA(series, p)), nil
	case HMAParams:
		return single(p.Kind(), HMA(series, p)), nil
	case KAMAParams:
		return single(p.Kind(), KAMA(series, p)), nil
	case ZLEMAParams:
		return single(p.Kind(), ZLEMA(series, p)), nil
	case BollingerParams:
		return bandsOutput(p.Kind(), Bollinger(series, p)), nil
	case KeltnerParams:
		return bandsOutput(p.Kind(), Keltner(series, p)), nil
	case DonchianParams:
		return bandsOutput(p.Kind(), Donchian(series, p)), nil
	case EnvelopesParams:
		return bandsOutput(p.Kind(), Envelopes(series, p)), nil
	case ParabolicSARParams:
		return single(p.Kind(), ParabolicSAR(series, p)), nil
	case VWAPParams:
		return single(p.Kind(), VWAP(series, p)), nil
	case RSIParams:
		return single(p.Kind(), RSI(series, p)), nil
	case StochasticParams:
		r := Stochastic(series, p)
		return Output{Kind: p.Kind(), Lines: map[string]models.PointSeries{LineK: r.K, LineD: r.D}}, nil
	case MACDParams:
		r := MACD(series, p)
		return Output{Kind: p.Kind(), Lines: map[string]models.PointSeries{
			LineMACD:      r.MACD,
			LineSignal:    r.Signal,
			LineHistogram: r.Histogram,
		}}, nil
	case PPOParams:
		r := PPO(series, p)
		return Output{Kind: p.Kind(), Lines: map[string]models.PointSeries{
			LinePPO:       r.MACD,
			LineSignal:    r.Signal,
			LineHistogram: r.Histogram,
		}}, nil
	case CCIParams:
		return single(p.Kind(), CCI(series, p)), nil
	case WilliamsRParams:
		return single(p.Kind(), WilliamsR(series, p)), nil
	case ROCParams:
		return single(p.Kind(), ROC(series, p)), nil
	case MomentumParams:
		return single(p.Kind(), Momentum(series, p)), nil
	case AwesomeOscillatorParams:
		return single(p.Kind(), AwesomeOscillator(series, p)), nil
	case UltimateOscillatorParams:
		return single(p.Kind(), UltimateOscillator(series, p)), nil
	case TSIParams:
		return single(p.Kind(), TSI(series, p)), nil
	case KSTParams:
		r := KST(series, p)
		return Output{Kind: p.Kind(), Lines: map[string]models.PointSeries{LineKST: r.KST, LineSignal: r.Signal}}, nil
	case OBVParams:
		return single(p.Kind(), OBV(series, p)), nil
	case MFIParams:
		return single(p.Kind(), MFI(series, p)), nil
	case ADLineParams:
		return single(p.Kind(), ADLine(series, p)), nil
	case CMFParams:
		return single(p.Kind(), CMF(series, p)), nil
	case ATRParams:
		return single(p.Kind(), ATR(series, p)), nil
	case BBWidthParams:
		return single(p.Kind(), BBWidth(series, p)), nil
	case BBPercentBParams:
		return single(p.Kind(), BBPercentB(series, p)), nil
	case StdDevParams:
		return single(p.Kind(), StdDev(series, p)), nil
	case ADXParams:
		r := ADX(series, p)
		return Output{Kind: p.Kind(), Lines: map[string]models.PointSeries{
			LineADX:     r.ADX,
			LinePlusDI:  r.PlusDI,
			LineMinusDI: r.MinusDI,
		}}, nil
	}
	return Output{}, fmt.Errorf("%w: unsupported kind %q", ErrInvalidParams, params.Kind())
}
