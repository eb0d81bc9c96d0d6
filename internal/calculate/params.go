package calculate

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// Kind names an indicator
type Kind string

const (
	KindSMA                Kind = "SMA"
	KindEMA                Kind = "EMA"
	KindWMA                Kind = "WMA"
	KindDEMA               Kind = "DEMA"
	KindTEMA               Kind = "TEMA"
	KindHMA                Kind = "HMA"
	KindKAMA               Kind = "KAMA"
	KindZLEMA              Kind = "ZLEMA"
	KindBollinger          Kind = "BOLLINGER"
	KindKeltner            Kind = "KELTNER"
	KindDonchian           Kind = "DONCHIAN"
	KindEnvelopes          Kind = "ENVELOPES"
	KindParabolicSAR       Kind = "PSAR"
	KindVWAP               Kind = "VWAP"
	KindRSI                Kind = "RSI"
	KindStochastic         Kind = "STOCHASTIC"
	KindMACD               Kind = "MACD"
	KindPPO                Kind = "PPO"
	KindCCI                Kind = "CCI"
	KindWilliamsR          Kind = "WILLIAMS_R"
	KindROC                Kind = "ROC"
	KindMomentum           Kind = "MOMENTUM"
	KindAwesomeOscillator  Kind = "AO"
	KindUltimateOscillator Kind = "UO"
	KindTSI                Kind = "TSI"
	KindKST                Kind = "KST"
	KindOBV                Kind = "OBV"
	KindMFI                Kind = "MFI"
	KindADLine             Kind = "AD_LINE"
	KindCMF                Kind = "CMF"
	KindATR                Kind = "ATR"
	KindBBWidth            Kind = "BB_WIDTH"
	KindBBPercentB         Kind = "BB_PERCENT_B"
	KindStdDev             Kind = "STDDEV"
	KindADX                Kind = "ADX"
)

// ErrInvalidParams is wrapped by every parameter validation failure
var ErrInvalidParams = errors.New("invalid indicator parameters")

// Params is the tagged variant of indicator parameters.
// Lookback is the minimum number of bars needed for the first output point.
type Params interface {
	Kind() Kind
	Validate() error
	Lookback() int
}

func invalid(kind Kind, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidParams, kind, fmt.Sprintf(format, args...))
}

func checkPeriod(kind Kind, name string, v, least int) error {
	if v < least {
		return invalid(kind, "%s must be >= %d, got %d", name, least, v)
	}
	return nil
}

func checkPositive(kind Kind, name string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return invalid(kind, "%s must be positive, got %v", name, v)
	}
	return nil
}

// Moving averages

type SMAParams struct{ Period int }

func (SMAParams) Kind() Kind        { return KindSMA }
func (p SMAParams) Validate() error { return checkPeriod(KindSMA, "period", p.Period, 1) }
func (p SMAParams) Lookback() int   { return p.Period }

type EMAParams struct{ Period int }

func (EMAParams) Kind() Kind        { return KindEMA }
func (p EMAParams) Validate() error { return checkPeriod(KindEMA, "period", p.Period, 1) }
func (p EMAParams) Lookback() int   { return p.Period }

type WMAParams struct{ Period int }

func (WMAParams) Kind() Kind        { return KindWMA }
func (p WMAParams) Validate() error { return checkPeriod(KindWMA, "period", p.Period, 1) }
func (p WMAParams) Lookback() int   { return p.Period }

type DEMAParams struct{ Period int }

func (DEMAParams) Kind() Kind        { return KindDEMA }
func (p DEMAParams) Validate() error { return checkPeriod(KindDEMA, "period", p.Period, 1) }
func (p DEMAParams) Lookback() int   { return 2*p.Period - 1 }

type TEMAParams struct{ Period int }

func (TEMAParams) Kind() Kind        { return KindTEMA }
func (p TEMAParams) Validate() error { return checkPeriod(KindTEMA, "period", p.Period, 1) }
func (p TEMAParams) Lookback() int   { return 3*p.Period - 2 }

type HMAParams struct{ Period int }

func (HMAParams) Kind() Kind        { return KindHMA }
func (p HMAParams) Validate() error { return checkPeriod(KindHMA, "period", p.Period, 2) }
func (p HMAParams) Lookback() int   { return p.Period + hmaSmoothing(p.Period) - 1 }

func hmaSmoothing(period int) int {
	return int(math.Floor(math.Sqrt(float64(period))))
}

// KAMAParams: ER window plus fast/slow smoothing bounds (Kaufman 10, 2, 30)
type KAMAParams struct {
	ERPeriod int
	Fast     int
	Slow     int
}

func (KAMAParams) Kind() Kind { return KindKAMA }
func (p KAMAParams) Validate() error {
	if err := checkPeriod(KindKAMA, "er period", p.ERPeriod, 1); err != nil {
		return err
	}
	if err := checkPeriod(KindKAMA, "fast", p.Fast, 1); err != nil {
		return err
	}
	if p.Slow <= p.Fast {
		return invalid(KindKAMA, "slow (%d) must exceed fast (%d)", p.Slow, p.Fast)
	}
	return nil
}
func (p KAMAParams) Lookback() int { return p.ERPeriod + 1 }

type ZLEMAParams struct{ Period int }

func (ZLEMAParams) Kind() Kind        { return KindZLEMA }
func (p ZLEMAParams) Validate() error { return checkPeriod(KindZLEMA, "period", p.Period, 1) }
func (p ZLEMAParams) Lookback() int   { return p.Period/2 + p.Period }

// Bands

type BollingerParams struct {
	Period int
	StdDev float64
}

func (BollingerParams) Kind() Kind { return KindBollinger }
func (p BollingerParams) Validate() error {
	if err := checkPeriod(KindBollinger, "period", p.Period, 1); err != nil {
		return err
	}
	return checkPositive(KindBollinger, "stdDev", p.StdDev)
}
func (p BollingerParams) Lookback() int { return p.Period }

type KeltnerParams struct {
	EMAPeriod  int
	ATRPeriod  int
	Multiplier float64
}

func (KeltnerParams) Kind() Kind { return KindKeltner }
func (p KeltnerParams) Validate() error {
	if err := checkPeriod(KindKeltner, "ema period", p.EMAPeriod, 1); err != nil {
		return err
	}
	if err := checkPeriod(KindKeltner, "atr period", p.ATRPeriod, 1); err != nil {
		return err
	}
	return checkPositive(KindKeltner, "multiplier", p.Multiplier)
}
func (p KeltnerParams) Lookback() int { return max(p.EMAPeriod, p.ATRPeriod+1) }

type DonchianParams struct{ Period int }

func (DonchianParams) Kind() Kind        { return KindDonchian }
func (p DonchianParams) Validate() error { return checkPeriod(KindDonchian, "period", p.Period, 1) }
func (p DonchianParams) Lookback() int   { return p.Period }

// EnvelopesParams: Percent is the band offset in percent of the SMA
type EnvelopesParams struct {
	Period  int
	Percent float64
}

func (EnvelopesParams) Kind() Kind { return KindEnvelopes }
func (p EnvelopesParams) Validate() error {
	if err := checkPeriod(KindEnvelopes, "period", p.Period, 1); err != nil {
		return err
	}
	if err := checkPositive(KindEnvelopes, "percent", p.Percent); err != nil {
		return err
	}
	if p.Percent >= 100 {
		return invalid(KindEnvelopes, "percent must be below 100, got %v", p.Percent)
	}
	return nil
}
func (p EnvelopesParams) Lookback() int { return p.Period }

// Trend / stop

type ParabolicSARParams struct {
	Step float64
	Max  float64
}

func (ParabolicSARParams) Kind() Kind { return KindParabolicSAR }
func (p ParabolicSARParams) Validate() error {
	if err := checkPositive(KindParabolicSAR, "step", p.Step); err != nil {
		return err
	}
	if p.Max < p.Step || p.Max > 1 {
		return invalid(KindParabolicSAR, "max must be in [step, 1], got %v", p.Max)
	}
	return nil
}
func (ParabolicSARParams) Lookback() int { return 2 }

// VWAPAnchor selects when the cumulative sums restart
type VWAPAnchor string

const (
	AnchorSession VWAPAnchor = "session" // UTC calendar day
	AnchorNone    VWAPAnchor = "none"    // whole series
)

type VWAPParams struct{ Anchor VWAPAnchor }

func (VWAPParams) Kind() Kind { return KindVWAP }
func (p VWAPParams) Validate() error {
	switch p.Anchor {
	case AnchorSession, AnchorNone:
		return nil
	}
	return invalid(KindVWAP, "unknown anchor %q", p.Anchor)
}
func (VWAPParams) Lookback() int { return 1 }

// Momentum

type RSIParams struct{ Period int }

func (RSIParams) Kind() Kind        { return KindRSI }
func (p RSIParams) Validate() error { return checkPeriod(KindRSI, "period", p.Period, 1) }
func (p RSIParams) Lookback() int   { return p.Period + 1 }

type StochasticParams struct {
	KPeriod int
	DPeriod int
}

func (StochasticParams) Kind() Kind { return KindStochastic }
func (p StochasticParams) Validate() error {
	if err := checkPeriod(KindStochastic, "k period", p.KPeriod, 1); err != nil {
		return err
	}
	return checkPeriod(KindStochastic, "d period", p.DPeriod, 1)
}
func (p StochasticParams) Lookback() int { return p.KPeriod + p.DPeriod - 1 }

type MACDParams struct {
	Fast   int
	Slow   int
	Signal int
}

func (MACDParams) Kind() Kind        { return KindMACD }
func (p MACDParams) Validate() error { return validateFastSlow(KindMACD, p.Fast, p.Slow, p.Signal) }
func (p MACDParams) Lookback() int   { return p.Slow + p.Signal - 1 }

func validateFastSlow(kind Kind, fast, slow, signal int) error {
	if err := checkPeriod(kind, "fast", fast, 1); err != nil {
		return err
	}
	if slow <= fast {
		return invalid(kind, "slow (%d) must exceed fast (%d)", slow, fast)
	}
	return checkPeriod(kind, "signal", signal, 1)
}

type PPOParams struct {
	Fast   int
	Slow   int
	Signal int
}

func (PPOParams) Kind() Kind        { return KindPPO }
func (p PPOParams) Validate() error { return validateFastSlow(KindPPO, p.Fast, p.Slow, p.Signal) }
func (p PPOParams) Lookback() int   { return p.Slow + p.Signal - 1 }

type CCIParams struct{ Period int }

func (CCIParams) Kind() Kind        { return KindCCI }
func (p CCIParams) Validate() error { return checkPeriod(KindCCI, "period", p.Period, 1) }
func (p CCIParams) Lookback() int   { return p.Period }

type WilliamsRParams struct{ Period int }

func (WilliamsRParams) Kind() Kind        { return KindWilliamsR }
func (p WilliamsRParams) Validate() error { return checkPeriod(KindWilliamsR, "period", p.Period, 1) }
func (p WilliamsRParams) Lookback() int   { return p.Period }

type ROCParams struct{ Period int }

func (ROCParams) Kind() Kind        { return KindROC }
func (p ROCParams) Validate() error { return checkPeriod(KindROC, "period", p.Period, 1) }
func (p ROCParams) Lookback() int   { return p.Period + 1 }

type MomentumParams struct{ Period int }

func (MomentumParams) Kind() Kind        { return KindMomentum }
func (p MomentumParams) Validate() error { return checkPeriod(KindMomentum, "period", p.Period, 1) }
func (p MomentumParams) Lookback() int   { return p.Period + 1 }

type AwesomeOscillatorParams struct {
	Fast int
	Slow int
}

func (AwesomeOscillatorParams) Kind() Kind { return KindAwesomeOscillator }
func (p AwesomeOscillatorParams) Validate() error {
	if err := checkPeriod(KindAwesomeOscillator, "fast", p.Fast, 1); err != nil {
		return err
	}
	if p.Slow <= p.Fast {
		return invalid(KindAwesomeOscillator, "slow (%d) must exceed fast (%d)", p.Slow, p.Fast)
	}
	return nil
}
func (p AwesomeOscillatorParams) Lookback() int { return p.Slow }

// UltimateOscillatorParams: Williams' three windows, weighted 4:2:1
type UltimateOscillatorParams struct {
	Short  int
	Medium int
	Long   int
}

func (UltimateOscillatorParams) Kind() Kind { return KindUltimateOscillator }
func (p UltimateOscillatorParams) Validate() error {
	if err := checkPeriod(KindUltimateOscillator, "short", p.Short, 1); err != nil {
		return err
	}
	if p.Medium <= p.Short || p.Long <= p.Medium {
		return invalid(KindUltimateOscillator, "windows must increase, got %d/%d/%d", p.Short, p.Medium, p.Long)
	}
	return nil
}
func (p UltimateOscillatorParams) Lookback() int { return p.Long + 1 }

type TSIParams struct {
	Long  int
	Short int
}

func (TSIParams) Kind() Kind { return KindTSI }
func (p TSIParams) Validate() error {
	if err := checkPeriod(KindTSI, "long", p.Long, 1); err != nil {
		return err
	}
	return checkPeriod(KindTSI, "short", p.Short, 1)
}
func (p TSIParams) Lookback() int { return p.Long + p.Short }

// KSTParams: four ROC windows, their SMA smoothing windows and the signal SMA
type KSTParams struct {
	ROC    [4]int
	SMA    [4]int
	Signal int
}

func (KSTParams) Kind() Kind { return KindKST }
func (p KSTParams) Validate() error {
	for i := range p.ROC {
		if err := checkPeriod(KindKST, fmt.Sprintf("roc%d", i+1), p.ROC[i], 1); err != nil {
			return err
		}
		if err := checkPeriod(KindKST, fmt.Sprintf("sma%d", i+1), p.SMA[i], 1); err != nil {
			return err
		}
	}
	return checkPeriod(KindKST, "signal", p.Signal, 1)
}
func (p KSTParams) Lookback() int {
	lb := 0
	for i := range p.ROC {
		lb = max(lb, p.ROC[i]+p.SMA[i])
	}
	return lb + p.Signal - 1
}

// Volume

type OBVParams struct{}

func (OBVParams) Kind() Kind      { return KindOBV }
func (OBVParams) Validate() error { return nil }
func (OBVParams) Lookback() int   { return 1 }

type MFIParams struct{ Period int }

func (MFIParams) Kind() Kind        { return KindMFI }
func (p MFIParams) Validate() error { return checkPeriod(KindMFI, "period", p.Period, 1) }
func (p MFIParams) Lookback() int   { return p.Period + 1 }

type ADLineParams struct{}

func (ADLineParams) Kind() Kind      { return KindADLine }
func (ADLineParams) Validate() error { return nil }
func (ADLineParams) Lookback() int   { return 1 }

type CMFParams struct{ Period int }

func (CMFParams) Kind() Kind        { return KindCMF }
func (p CMFParams) Validate() error { return checkPeriod(KindCMF, "period", p.Period, 1) }
func (p CMFParams) Lookback() int   { return p.Period }

// Volatility

type ATRParams struct{ Period int }

func (ATRParams) Kind() Kind        { return KindATR }
func (p ATRParams) Validate() error { return checkPeriod(KindATR, "period", p.Period, 1) }
func (p ATRParams) Lookback() int   { return p.Period + 1 }

type BBWidthParams struct {
	Period int
	StdDev float64
}

func (BBWidthParams) Kind() Kind { return KindBBWidth }
func (p BBWidthParams) Validate() error {
	return BollingerParams{Period: p.Period, StdDev: p.StdDev}.Validate()
}
func (p BBWidthParams) Lookback() int { return p.Period }

type BBPercentBParams struct {
	Period int
	StdDev float64
}

func (BBPercentBParams) Kind() Kind { return KindBBPercentB }
func (p BBPercentBParams) Validate() error {
	return BollingerParams{Period: p.Period, StdDev: p.StdDev}.Validate()
}
func (p BBPercentBParams) Lookback() int { return p.Period }

type StdDevParams struct{ Period int }

func (StdDevParams) Kind() Kind        { return KindStdDev }
func (p StdDevParams) Validate() error { return checkPeriod(KindStdDev, "period", p.Period, 1) }
func (p StdDevParams) Lookback() int   { return p.Period }

type ADXParams struct{ Period int }

func (ADXParams) Kind() Kind        { return KindADX }
func (p ADXParams) Validate() error { return checkPeriod(KindADX, "period", p.Period, 1) }
func (p ADXParams) Lookback() int   { return 2 * p.Period }

// DefaultParams returns the published default parameters for a kind
func DefaultParams(kind Kind) (Params, error) {
	switch kind {
	case KindSMA:
		return SMAParams{Period: 20}, nil
	case KindEMA:
		return EMAParams{Period: 20}, nil
	case KindWMA:
		return WMAParams{Period: 20}, nil
	case KindDEMA:
		return DEMAParams{Period: 20}, nil
	case KindTEMA:
		return TEMAParams{Period: 20}, nil
	case KindHMA:
		return HMAParams{Period: 16}, nil
	case KindKAMA:
		return KAMAParams{ERPeriod: 10, Fast: 2, Slow: 30}, nil
	case KindZLEMA:
		return ZLEMAParams{Period: 20}, nil
	case KindBollinger:
		return BollingerParams{Period: 20, StdDev: 2}, nil
	case KindKeltner:
		return KeltnerParams{EMAPeriod: 20, ATRPeriod: 10, Multiplier: 2}, nil
	case KindDonchian:
		return DonchianParams{Period: 20}, nil
	case KindEnvelopes:
		return EnvelopesParams{Period: 20, Percent: 2.5}, nil
	case KindParabolicSAR:
		return ParabolicSARParams{Step: 0.02, Max: 0.2}, nil
	case KindVWAP:
		return VWAPParams{Anchor: AnchorSession}, nil
	case KindRSI:
		return RSIParams{Period: 14}, nil
	case KindStochastic:
		return StochasticParams{KPeriod: 14, DPeriod: 3}, nil
	case KindMACD:
		return MACDParams{Fast: 12, Slow: 26, Signal: 9}, nil
	case KindPPO:
		return PPOParams{Fast: 12, Slow: 26, Signal: 9}, nil
	case KindCCI:
		return CCIParams{Period: 20}, nil
	case KindWilliamsR:
		return WilliamsRParams{Period: 14}, nil
	case KindROC:
		return ROCParams{Period: 12}, nil
	case KindMomentum:
		return MomentumParams{Period: 10}, nil
	case KindAwesomeOscillator:
		return AwesomeOscillatorParams{Fast: 5, Slow: 34}, nil
	case KindUltimateOscillator:
		return UltimateOscillatorParams{Short: 7, Medium: 14, Long: 28}, nil
	case KindTSI:
		return TSIParams{Long: 25, Short: 13}, nil
	case KindKST:
		return KSTParams{ROC: [4]int{10, 15, 20, 30}, SMA: [4]int{10, 10, 10, 15}, Signal: 9}, nil
	case KindOBV:
		return OBVParams{}, nil
	case KindMFI:
		return MFIParams{Period: 14}, nil
	case KindADLine:
		return ADLineParams{}, nil
	case KindCMF:
		return CMFParams{Period: 20}, nil
	case KindATR:
		return ATRParams{Period: 14}, nil
	case KindBBWidth:
		return BBWidthParams{Period: 20, StdDev: 2}, nil
	case KindBBPercentB:
		return BBPercentBParams{Period: 20, StdDev: 2}, nil
	case KindStdDev:
		return StdDevParams{Period: 20}, nil
	case KindADX:
		return ADXParams{Period: 14}, nil
	}
	return nil, fmt.Errorf("%w: unknown indicator %q", ErrInvalidParams, kind)
}

// Kinds lists every supported indicator in a stable order
func Kinds() []Kind {
	return []Kind{
		KindSMA, KindEMA, KindWMA, KindDEMA, KindTEMA, KindHMA, KindKAMA, KindZLEMA,
		KindBollinger, KindKeltner, KindDonchian, KindEnvelopes, KindParabolicSAR, KindVWAP,
		KindRSI, KindStochastic, KindMACD, KindPPO, KindCCI, KindWilliamsR, KindROC, KindMomentum,
		KindAwesomeOscillator, KindUltimateOscillator, KindTSI, KindKST,
		KindOBV, KindMFI, KindADLine, KindCMF,
		KindATR, KindBBWidth, KindBBPercentB, KindStdDev, KindADX,
	}
}

// NewParams builds a validated parameter variant from an untyped request.
// Missing keys keep their defaults; unknown keys and fractional periods are rejected.
func NewParams(kind Kind, raw map[string]float64) (Params, error) {
	def, err := DefaultParams(kind)
	if err != nil {
		return nil, err
	}

	r := &rawParams{kind: kind, raw: raw, used: map[string]bool{}}
	var p Params
	switch d := def.(type) {
	case SMAParams:
		p = SMAParams{Period: r.intParam("period", d.Period)}
	case EMAParams:
		p = EMAParams{Period: r.intParam("period", d.Period)}
	case WMAParams:
		p = WMAParams{Period: r.intParam("period", d.Period)}
	case DEMAParams:
		p = DEMAParams{Period: r.intParam("period", d.Period)}
	case TEMAParams:
		p = TEMAParams{Period: r.intParam("period", d.Period)}
	case HMAParams:
		p = HMAParams{Period: r.intParam("period", d.Period)}
	case KAMAParams:
		p = KAMAParams{ERPeriod: r.intParam("er", d.ERPeriod), Fast: r.intParam("fast", d.Fast), Slow: r.intParam("slow", d.Slow)}
	case ZLEMAParams:
		p = ZLEMAParams{Period: r.intParam("period", d.Period)}
	case BollingerParams:
		p = BollingerParams{Period: r.intParam("period", d.Period), StdDev: r.floatParam("stdDev", d.StdDev)}
	case KeltnerParams:
		p = KeltnerParams{EMAPeriod: r.intParam("emaPeriod", d.EMAPeriod), ATRPeriod: r.intParam("atrPeriod", d.ATRPeriod), Multiplier: r.floatParam("multiplier", d.Multiplier)}
	case DonchianParams:
		p = DonchianParams{Period: r.intParam("period", d.Period)}
	case EnvelopesParams:
		p = EnvelopesParams{Period: r.intParam("period", d.Period), Percent: r.floatParam("percent", d.Percent)}
	case ParabolicSARParams:
		p = ParabolicSARParams{Step: r.floatParam("step", d.Step), Max: r.floatParam("max", d.Max)}
	case VWAPParams:
		anchor := d.Anchor
		if r.floatParam("session", 1) == 0 {
			anchor = AnchorNone
		}
		p = VWAPParams{Anchor: anchor}
	case RSIParams:
		p = RSIParams{Period: r.intParam("period", d.Period)}
	case StochasticParams:
		p = StochasticParams{KPeriod: r.intParam("k", d.KPeriod), DPeriod: r.intParam("d", d.DPeriod)}
	case MACDParams:
		p = MACDParams{Fast: r.intParam("fast", d.Fast), Slow: r.intParam("slow", d.Slow), Signal: r.intParam("signal", d.Signal)}
	case PPOParams:
		p = PPOParams{Fast: r.intParam("fast", d.Fast), Slow: r.intParam("slow", d.Slow), Signal: r.intParam("signal", d.Signal)}
	case CCIParams:
		p = CCIParams{Period: r.intParam("period", d.Period)}
	case WilliamsRParams:
		p = WilliamsRParams{Period: r.intParam("period", d.Period)}
	case ROCParams:
		p = ROCParams{Period: r.intParam("period", d.Period)}
	case MomentumParams:
		p = MomentumParams{Period: r.intParam("period", d.Period)}
	case AwesomeOscillatorParams:
		p = AwesomeOscillatorParams{Fast: r.intParam("fast", d.Fast), Slow: r.intParam("slow", d.Slow)}
	case UltimateOscillatorParams:
		p = UltimateOscillatorParams{Short: r.intParam("short", d.Short), Medium: r.intParam("medium", d.Medium), Long: r.intParam("long", d.Long)}
	case TSIParams:
		p = TSIParams{Long: r.intParam("long", d.Long), Short: r.intParam("short", d.Short)}
	case KSTParams:
		k := d
		for i := range k.ROC {
			k.ROC[i] = r.intParam(fmt.Sprintf("roc%d", i+1), k.ROC[i])
			k.SMA[i] = r.intParam(fmt.Sprintf("sma%d", i+1), k.SMA[i])
		}
		k.Signal = r.intParam("signal", k.Signal)
		p = k
	case OBVParams, ADLineParams:
		p = d
	case MFIParams:
		p = MFIParams{Period: r.intParam("period", d.Period)}
	case CMFParams:
		p = CMFParams{Period: r.intParam("period", d.Period)}
	case ATRParams:
		p = ATRParams{Period: r.intParam("period", d.Period)}
	case BBWidthParams:
		p = BBWidthParams{Period: r.intParam("period", d.Period), StdDev: r.floatParam("stdDev", d.StdDev)}
	case BBPercentBParams:
		p = BBPercentBParams{Period: r.intParam("period", d.Period), StdDev: r.floatParam("stdDev", d.StdDev)}
	case StdDevParams:
		p = StdDevParams{Period: r.intParam("period", d.Period)}
	case ADXParams:
		p = ADXParams{Period: r.intParam("period", d.Period)}
	}

	if err := r.check(); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

type rawParams struct {
	kind Kind
	raw  map[string]float64
	used map[string]bool
	err  error
}

func (r *rawParams) floatParam(key string, def float64) float64 {
	v, ok := r.raw[key]
	if !ok {
		return def
	}
	r.used[key] = true
	return v
}

func (r *rawParams) intParam(key string, def int) int {
	v, ok := r.raw[key]
	if !ok {
		return def
	}
	r.used[key] = true
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		if r.err == nil {
			r.err = invalid(r.kind, "%s must be a whole number, got %v", key, v)
		}
		return def
	}
	return int(v)
}

func (r *rawParams) check() error {
	if r.err != nil {
		return r.err
	}
	var unknown []string
	for k := range r.raw {
		if !r.used[k] {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return invalid(r.kind, "unknown parameters %v", unknown)
	}
	return nil
}
