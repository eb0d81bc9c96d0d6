package analyze

import (
	"time"

	"github.com/Alias1177/SignalEngine/internal/calculate"
	"github.com/Alias1177/SignalEngine/models"
)

// IndicatorSnapshot holds the latest value of every indicator the scorer
// reads. Indicators without enough history are absent from Values.
type IndicatorSnapshot struct {
	Timestamp time.Time          `json:"timestamp"`
	Close     float64            `json:"close"`
	Values    map[string]float64 `json:"values"`
	Levels    calculate.Levels   `json:"levels"`
	Patterns  []string           `json:"patterns"`
}

// Snapshot validates the series and collects the latest indicator values
func (s *Scorer) Snapshot(series models.Series) (IndicatorSnapshot, error) {
	if err := series.Validate(); err != nil {
		return IndicatorSnapshot{}, err
	}
	snap := IndicatorSnapshot{Values: map[string]float64{}, Patterns: IdentifyPatterns(series)}
	last, ok := series.Last()
	if !ok {
		return snap, nil
	}
	snap.Timestamp = last.Timestamp
	snap.Close = last.Close
	snap.Levels = calculate.SupportResistance(series)

	cfg := s.cfg
	put := func(name string, p models.PointSeries) {
		if pt, ok := p.Last(); ok {
			snap.Values[name] = pt.Value
		}
	}

	put("rsi", calculate.RSI(series, calculate.RSIParams{Period: cfg.RSIPeriod}))

	macd := calculate.MACD(series, calculate.MACDParams{Fast: cfg.MACDFast, Slow: cfg.MACDSlow, Signal: cfg.MACDSignal})
	put("macd", macd.MACD)
	put("macd_signal", macd.Signal)
	put("macd_histogram", macd.Histogram)

	put("sma_fast", calculate.SMA(series, calculate.SMAParams{Period: cfg.FastSMA}))
	put("sma_slow", calculate.SMA(series, calculate.SMAParams{Period: cfg.SlowSMA}))

	adx := calculate.ADX(series, calculate.ADXParams{Period: cfg.ADXPeriod})
	put("adx", adx.ADX)
	put("plus_di", adx.PlusDI)
	put("minus_di", adx.MinusDI)

	stoch := calculate.Stochastic(series, calculate.StochasticParams{KPeriod: cfg.StochK, DPeriod: cfg.StochD})
	put("stoch_k", stoch.K)
	put("stoch_d", stoch.D)

	put("obv", calculate.OBV(series, calculate.OBVParams{}))
	put("cmf", calculate.CMF(series, calculate.CMFParams{Period: cfg.CMFPeriod}))
	put("mfi", calculate.MFI(series, calculate.MFIParams{Period: cfg.MFIPeriod}))
	put("vwap", calculate.VWAP(series, calculate.VWAPParams{Anchor: calculate.AnchorSession}))

	bands := calculate.Bollinger(series, calculate.BollingerParams{Period: cfg.BollingerPeriod, StdDev: cfg.BollingerStdDev})
	put("bb_upper", bands.Upper)
	put("bb_middle", bands.Middle)
	put("bb_lower", bands.Lower)
	put("bb_percent_b", calculate.BBPercentB(series, calculate.BBPercentBParams{Period: cfg.BollingerPeriod, StdDev: cfg.BollingerStdDev}))

	put("psar", calculate.ParabolicSAR(series, calculate.ParabolicSARParams{Step: cfg.SARStep, Max: cfg.SARMax}))
	put("roc", calculate.ROC(series, calculate.ROCParams{Period: cfg.ROCPeriod}))
	put("atr", calculate.ATR(series, calculate.ATRParams{Period: cfg.ATRPeriod}))

	return snap, nil
}

// ATR returns the latest average true range with the scorer's period
func (s *Scorer) ATR(series models.Series) (float64, bool) {
	pt, ok := calculate.ATR(series, calculate.ATRParams{Period: s.cfg.ATRPeriod}).Last()
	return pt.Value, ok
}
