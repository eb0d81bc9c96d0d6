package analyze

import (
	"errors"
	"fmt"

	"github.com/Alias1177/SignalEngine/internal/calculate"
)

// ErrInvalidConfig is wrapped by every Config validation failure
var ErrInvalidConfig = errors.New("invalid scorer config")

// Weights are the base component weights before renormalization
type Weights struct {
	Technical   float64 `json:"technical" yaml:"technical"`
	Volume      float64 `json:"volume" yaml:"volume"`
	PriceAction float64 `json:"price_action" yaml:"price_action"`
	Patterns    float64 `json:"patterns" yaml:"patterns"`
}

func (w Weights) total() float64 {
	return w.Technical + w.Volume + w.PriceAction + w.Patterns
}

// Thresholds map the composite score to a recommendation. They are mirrored
// for the bearish side: score >= StrongBuy is STRONG_BUY, score <= -StrongBuy
// is STRONG_SELL.
type Thresholds struct {
	StrongBuy float64 `json:"strong_buy" yaml:"strong_buy"`
	Buy       float64 `json:"buy" yaml:"buy"`
}

// Config holds everything the scorer needs. It is copied into the Scorer and
// never mutated afterwards.
type Config struct {
	Weights    Weights    `json:"weights" yaml:"weights"`
	Thresholds Thresholds `json:"thresholds" yaml:"thresholds"`

	RSIPeriod       int     `json:"rsi_period" yaml:"rsi_period"`
	MACDFast        int     `json:"macd_fast" yaml:"macd_fast"`
	MACDSlow        int     `json:"macd_slow" yaml:"macd_slow"`
	MACDSignal      int     `json:"macd_signal" yaml:"macd_signal"`
	FastSMA         int     `json:"fast_sma" yaml:"fast_sma"`
	SlowSMA         int     `json:"slow_sma" yaml:"slow_sma"`
	ADXPeriod       int     `json:"adx_period" yaml:"adx_period"`
	ADXTrend        float64 `json:"adx_trend" yaml:"adx_trend"`
	StochK          int     `json:"stoch_k" yaml:"stoch_k"`
	StochD          int     `json:"stoch_d" yaml:"stoch_d"`
	OBVSlopeBars    int     `json:"obv_slope_bars" yaml:"obv_slope_bars"`
	CMFPeriod       int     `json:"cmf_period" yaml:"cmf_period"`
	MFIPeriod       int     `json:"mfi_period" yaml:"mfi_period"`
	VolumePeriod    int     `json:"volume_period" yaml:"volume_period"`
	VolumeSurge     float64 `json:"volume_surge" yaml:"volume_surge"`
	BollingerPeriod int     `json:"bollinger_period" yaml:"bollinger_period"`
	BollingerStdDev float64 `json:"bollinger_std_dev" yaml:"bollinger_std_dev"`
	DonchianPeriod  int     `json:"donchian_period" yaml:"donchian_period"`
	ROCPeriod       int     `json:"roc_period" yaml:"roc_period"`
	ROCThreshold    float64 `json:"roc_threshold" yaml:"roc_threshold"`
	ATRPeriod       int     `json:"atr_period" yaml:"atr_period"`
	SARStep         float64 `json:"sar_step" yaml:"sar_step"`
	SARMax          float64 `json:"sar_max" yaml:"sar_max"`
}

// DefaultConfig returns the standard weights (0.40/0.20/0.25/0.15), the
// ±60/±20 recommendation thresholds and the published indicator defaults.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Technical:   0.40,
			Volume:      0.20,
			PriceAction: 0.25,
			Patterns:    0.15,
		},
		Thresholds: Thresholds{StrongBuy: 60, Buy: 20},

		RSIPeriod:       14,
		MACDFast:        12,
		MACDSlow:        26,
		MACDSignal:      9,
		FastSMA:         20,
		SlowSMA:         50,
		ADXPeriod:       14,
		ADXTrend:        25,
		StochK:          14,
		StochD:          3,
		OBVSlopeBars:    10,
		CMFPeriod:       20,
		MFIPeriod:       14,
		VolumePeriod:    20,
		VolumeSurge:     1.5,
		BollingerPeriod: 20,
		BollingerStdDev: 2,
		DonchianPeriod:  20,
		ROCPeriod:       10,
		ROCThreshold:    2,
		ATRPeriod:       14,
		SARStep:         0.02,
		SARMax:          0.2,
	}
}

// Validate rejects negative or all-zero weights, unordered thresholds and any
// indicator period the calculate package would refuse.
func (c Config) Validate() error {
	w := c.Weights
	for name, v := range map[string]float64{
		"technical":    w.Technical,
		"volume":       w.Volume,
		"price_action": w.PriceAction,
		"patterns":     w.Patterns,
	} {
		if v < 0 {
			return fmt.Errorf("%w: weight %s is negative (%v)", ErrInvalidConfig, name, v)
		}
	}
	if w.total() <= 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidConfig)
	}

	t := c.Thresholds
	if t.Buy <= 0 || t.StrongBuy <= t.Buy || t.StrongBuy > 100 {
		return fmt.Errorf("%w: thresholds must satisfy 0 < buy < strong_buy <= 100, got %v/%v",
			ErrInvalidConfig, t.Buy, t.StrongBuy)
	}
	if c.FastSMA >= c.SlowSMA {
		return fmt.Errorf("%w: fast_sma (%d) must be below slow_sma (%d)", ErrInvalidConfig, c.FastSMA, c.SlowSMA)
	}
	if c.OBVSlopeBars < 1 || c.VolumePeriod < 1 {
		return fmt.Errorf("%w: obv_slope_bars and volume_period must be positive", ErrInvalidConfig)
	}
	if c.VolumeSurge <= 0 || c.ROCThreshold <= 0 || c.ADXTrend <= 0 {
		return fmt.Errorf("%w: volume_surge, roc_threshold and adx_trend must be positive", ErrInvalidConfig)
	}

	for _, p := range c.indicatorParams() {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}

func (c Config) indicatorParams() []calculate.Params {
	return []calculate.Params{
		calculate.RSIParams{Period: c.RSIPeriod},
		calculate.MACDParams{Fast: c.MACDFast, Slow: c.MACDSlow, Signal: c.MACDSignal},
		calculate.SMAParams{Period: c.FastSMA},
		calculate.SMAParams{Period: c.SlowSMA},
		calculate.ADXParams{Period: c.ADXPeriod},
		calculate.StochasticParams{KPeriod: c.StochK, DPeriod: c.StochD},
		calculate.CMFParams{Period: c.CMFPeriod},
		calculate.MFIParams{Period: c.MFIPeriod},
		calculate.BBPercentBParams{Period: c.BollingerPeriod, StdDev: c.BollingerStdDev},
		calculate.DonchianParams{Period: c.DonchianPeriod},
		calculate.ROCParams{Period: c.ROCPeriod},
		calculate.ATRParams{Period: c.ATRPeriod},
		calculate.ParabolicSARParams{Step: c.SARStep, Max: c.SARMax},
	}
}
