package calculate

import (
	"fmt"
	"math"
	"testing"

	talib "github.com/markcheno/go-talib"

	"github.com/Alias1177/SignalEngine/models"
)

// compareSuffix checks every point against the reference slice, which is
// full-length with a zero-filled warm-up
func compareSuffix(t *testing.T, label string, got models.PointSeries, ref []float64, tol float64) {
	t.Helper()
	offset := len(ref) - got.Len()
	if got.Len() == 0 || offset < 0 {
		t.Fatalf("%s: got %d points for %d reference values", label, got.Len(), len(ref))
	}
	for i, pt := range got {
		assertClose(t, label, pt.Value, ref[offset+i], tol)
	}
}

func compareLast(t *testing.T, label string, got models.PointSeries, ref []float64, tol float64) {
	t.Helper()
	last, ok := got.Last()
	if !ok {
		t.Fatalf("%s: no points", label)
	}
	assertClose(t, label, last.Value, ref[len(ref)-1], tol)
}

// compareTail checks the last n points against ref, both aligned to the last bar
func compareTail(t *testing.T, label string, got models.PointSeries, ref []float64, n int, tol float64) {
	t.Helper()
	if got.Len() < n || len(ref) < n {
		t.Fatalf("%s: got %d points for %d reference values, need %d", label, got.Len(), len(ref), n)
	}
	for i := 1; i <= n; i++ {
		assertClose(t, fmt.Sprintf("%s[-%d]", label, i), got[got.Len()-i].Value, ref[len(ref)-i], tol)
	}
}

func TestAgainstTALib(t *testing.T) {
	bars := waveBars(300)
	closes, highs, lows, volumes := bars.Closes(), bars.Highs(), bars.Lows(), bars.Volumes()

	t.Run("SMA", func(t *testing.T) {
		compareSuffix(t, "SMA", SMA(bars, SMAParams{Period: 20}), talib.Sma(closes, 20), 1e-9)
	})
	t.Run("WMA", func(t *testing.T) {
		compareSuffix(t, "WMA", WMA(bars, WMAParams{Period: 10}), talib.Wma(closes, 10), 1e-9)
	})
	t.Run("EMA", func(t *testing.T) {
		compareLast(t, "EMA", EMA(bars, EMAParams{Period: 20}), talib.Ema(closes, 20), 1e-6)
	})
	t.Run("RSI", func(t *testing.T) {
		compareLast(t, "RSI", RSI(bars, RSIParams{Period: 14}), talib.Rsi(closes, 14), 1e-6)
	})
	t.Run("ATR", func(t *testing.T) {
		compareLast(t, "ATR", ATR(bars, ATRParams{Period: 14}), talib.Atr(highs, lows, closes, 14), 1e-6)
	})
	t.Run("CCI", func(t *testing.T) {
		compareLast(t, "CCI", CCI(bars, CCIParams{Period: 20}), talib.Cci(highs, lows, closes, 20), 1e-6)
	})
	t.Run("Momentum", func(t *testing.T) {
		compareSuffix(t, "MOM", Momentum(bars, MomentumParams{Period: 10}), talib.Mom(closes, 10), 1e-9)
	})
	t.Run("Bollinger", func(t *testing.T) {
		upper, middle, lower := talib.BBands(closes, 20, 2, 2, talib.SMA)
		b := Bollinger(bars, BollingerParams{Period: 20, StdDev: 2})
		compareLast(t, "upper", b.Upper, upper, 1e-6)
		compareLast(t, "middle", b.Middle, middle, 1e-6)
		compareLast(t, "lower", b.Lower, lower, 1e-6)
	})
	t.Run("MACD", func(t *testing.T) {
		macd, signal, hist := talib.Macd(closes, 12, 26, 9)
		r := MACD(bars, MACDParams{Fast: 12, Slow: 26, Signal: 9})
		compareLast(t, "macd", r.MACD, macd, 1e-6)
		compareLast(t, "signal", r.Signal, signal, 1e-6)
		compareLast(t, "histogram", r.Histogram, hist, 1e-6)
	})
	t.Run("DEMA", func(t *testing.T) {
		compareTail(t, "DEMA", DEMA(bars, DEMAParams{Period: 10}), talib.Dema(closes, 10), 50, 1e-6)
	})
	t.Run("TEMA", func(t *testing.T) {
		compareTail(t, "TEMA", TEMA(bars, TEMAParams{Period: 10}), talib.Tema(closes, 10), 50, 1e-6)
	})
	t.Run("HMA", func(t *testing.T) {
		const period = 16
		half, full := talib.Wma(closes, period/2), talib.Wma(closes, period)
		raw := make([]float64, 0, len(closes))
		for i := period - 1; i < len(closes); i++ {
			raw = append(raw, 2*half[i]-full[i])
		}
		compareSuffix(t, "HMA", HMA(bars, HMAParams{Period: period}), talib.Wma(raw, 4), 1e-9)
	})
	t.Run("KAMA", func(t *testing.T) {
		compareLast(t, "KAMA", KAMA(bars, KAMAParams{ERPeriod: 10, Fast: 2, Slow: 30}), talib.Kama(closes, 10), 1e-4)
	})
	t.Run("ADX", func(t *testing.T) {
		r := ADX(bars, ADXParams{Period: 14})
		compareTail(t, "ADX", r.ADX, talib.Adx(highs, lows, closes, 14), 10, 1e-6)
		compareTail(t, "+DI", r.PlusDI, talib.PlusDI(highs, lows, closes, 14), 10, 1e-6)
		compareTail(t, "-DI", r.MinusDI, talib.MinusDI(highs, lows, closes, 14), 10, 1e-6)
	})
	t.Run("UltimateOscillator", func(t *testing.T) {
		got := UltimateOscillator(bars, UltimateOscillatorParams{Short: 7, Medium: 14, Long: 28})
		compareSuffix(t, "UO", got, talib.UltOsc(highs, lows, closes, 7, 14, 28), 1e-6)
	})
	t.Run("WilliamsR", func(t *testing.T) {
		compareSuffix(t, "WillR", WilliamsR(bars, WilliamsRParams{Period: 14}), talib.WillR(highs, lows, closes, 14), 1e-9)
	})
	t.Run("Stochastic", func(t *testing.T) {
		k, d := talib.StochF(highs, lows, closes, 14, 3, talib.SMA)
		r := Stochastic(bars, StochasticParams{KPeriod: 14, DPeriod: 3})
		compareSuffix(t, "%K", r.K, k, 1e-9)
		compareSuffix(t, "%D", r.D, d, 1e-9)
	})
	t.Run("MFI", func(t *testing.T) {
		compareSuffix(t, "MFI", MFI(bars, MFIParams{Period: 14}), talib.Mfi(highs, lows, closes, volumes, 14), 1e-6)
	})
	t.Run("OBV", func(t *testing.T) {
		// TA-Lib starts the running total at the first bar's volume
		ref := talib.Obv(closes, volumes)
		for i := range ref {
			ref[i] -= volumes[0]
		}
		compareSuffix(t, "OBV", OBV(bars, OBVParams{}), ref, 1e-9)
	})
	t.Run("ADLine", func(t *testing.T) {
		compareSuffix(t, "AD", ADLine(bars, ADLineParams{}), talib.Ad(highs, lows, closes, volumes), 1e-6)
	})
	t.Run("ROC", func(t *testing.T) {
		compareSuffix(t, "ROC", ROC(bars, ROCParams{Period: 10}), talib.Roc(closes, 10), 1e-9)
	})
	t.Run("StdDev", func(t *testing.T) {
		compareSuffix(t, "StdDev", StdDev(bars, StdDevParams{Period: 20}), talib.StdDev(closes, 20, 1), 1e-6)
	})
	t.Run("ParabolicSAR", func(t *testing.T) {
		compareLast(t, "SAR", ParabolicSAR(bars, ParabolicSARParams{Step: 0.02, Max: 0.2}), talib.Sar(highs, lows, 0.02, 0.2), 1e-6)
	})
}

// Indicators without a TA-Lib counterpart are rebuilt from TA-Lib primitives
func TestComposedReferences(t *testing.T) {
	bars := waveBars(300)
	closes, highs, lows := bars.Closes(), bars.Highs(), bars.Lows()

	t.Run("ZLEMA", func(t *testing.T) {
		const period, lag = 20, 10
		delagged := make([]float64, 0, len(closes))
		for i := lag; i < len(closes); i++ {
			delagged = append(delagged, 2*closes[i]-closes[i-lag])
		}
		compareTail(t, "ZLEMA", ZLEMA(bars, ZLEMAParams{Period: period}), talib.Ema(delagged, period), 50, 1e-6)
	})
	t.Run("TSI", func(t *testing.T) {
		change := make([]float64, len(closes)-1)
		absChange := make([]float64, len(closes)-1)
		for i := 1; i < len(closes); i++ {
			change[i-1] = closes[i] - closes[i-1]
			absChange[i-1] = math.Abs(change[i-1])
		}
		num := talib.Ema(talib.Ema(change, 25)[24:], 13)
		den := talib.Ema(talib.Ema(absChange, 25)[24:], 13)
		ref := make([]float64, len(num))
		for i := range num {
			if den[i] != 0 {
				ref[i] = 100 * num[i] / den[i]
			}
		}
		compareTail(t, "TSI", TSI(bars, TSIParams{Long: 25, Short: 13}), ref, 50, 1e-6)
	})
	t.Run("KST", func(t *testing.T) {
		p := KSTParams{ROC: [4]int{10, 15, 20, 30}, SMA: [4]int{10, 10, 10, 15}, Signal: 9}
		ref := make([]float64, len(closes))
		for w := range p.ROC {
			smoothed := talib.Sma(talib.Roc(closes, p.ROC[w]), p.SMA[w])
			for i := range ref {
				ref[i] += smoothed[i] * float64(w+1)
			}
		}
		r := KST(bars, p)
		compareTail(t, "KST", r.KST, ref, 50, 1e-9)
		compareTail(t, "KST signal", r.Signal, talib.Sma(ref, 9), 50, 1e-9)
	})
	t.Run("AwesomeOscillator", func(t *testing.T) {
		median := make([]float64, len(bars))
		for i := range bars {
			median[i] = (highs[i] + lows[i]) / 2
		}
		fast, slow := talib.Sma(median, 5), talib.Sma(median, 34)
		ref := make([]float64, len(median))
		for i := range ref {
			ref[i] = fast[i] - slow[i]
		}
		compareSuffix(t, "AO", AwesomeOscillator(bars, AwesomeOscillatorParams{Fast: 5, Slow: 34}), ref, 1e-9)
	})
	t.Run("Envelopes", func(t *testing.T) {
		sma := talib.Sma(closes, 20)
		upper := make([]float64, len(sma))
		lower := make([]float64, len(sma))
		for i, v := range sma {
			upper[i], lower[i] = v*1.025, v*0.975
		}
		b := Envelopes(bars, EnvelopesParams{Period: 20, Percent: 2.5})
		compareSuffix(t, "upper", b.Upper, upper, 1e-9)
		compareSuffix(t, "middle", b.Middle, sma, 1e-9)
		compareSuffix(t, "lower", b.Lower, lower, 1e-9)
	})
	t.Run("Keltner", func(t *testing.T) {
		ema, atr := talib.Ema(closes, 20), talib.Atr(highs, lows, closes, 10)
		upper := make([]float64, len(ema))
		lower := make([]float64, len(ema))
		for i := range ema {
			upper[i], lower[i] = ema[i]+2*atr[i], ema[i]-2*atr[i]
		}
		b := Keltner(bars, KeltnerParams{EMAPeriod: 20, ATRPeriod: 10, Multiplier: 2})
		compareTail(t, "upper", b.Upper, upper, 50, 1e-6)
		compareTail(t, "middle", b.Middle, ema, 50, 1e-6)
		compareTail(t, "lower", b.Lower, lower, 50, 1e-6)
	})
	t.Run("PPO", func(t *testing.T) {
		fast, slow := talib.Ema(closes, 12), talib.Ema(closes, 26)
		line := make([]float64, 0, len(closes))
		for i := 25; i < len(closes); i++ {
			line = append(line, 100*(fast[i]-slow[i])/slow[i])
		}
		r := PPO(bars, PPOParams{Fast: 12, Slow: 26, Signal: 9})
		compareTail(t, "ppo", r.MACD, line, 50, 1e-6)
		compareTail(t, "ppo signal", r.Signal, talib.Ema(line, 9), 50, 1e-6)
	})
}

func TestHandComputedSmallSeries(t *testing.T) {
	bars := generateTestBars(5, func(i int) models.Bar {
		c := float64(i + 1)
		return models.Bar{Open: c, High: c, Low: c, Close: c, Volume: 100}
	})

	// lag 1: 2*c - prev = 3, 4, 5 from bar 1; EMA(2) seeds at 3.5 then 3.5 + 1.5*2/3
	zl := ZLEMA(bars, ZLEMAParams{Period: 2})
	if zl.Len() != 3 {
		t.Fatalf("ZLEMA len = %d, want 3", zl.Len())
	}
	assertClose(t, "ZLEMA[0]", zl[0].Value, 3.5, 1e-12)
	assertClose(t, "ZLEMA[1]", zl[1].Value, 4.5, 1e-12)
	assertClose(t, "ZLEMA[2]", zl[2].Value, 5.5, 1e-12)

	env := Envelopes(bars, EnvelopesParams{Period: 5, Percent: 10})
	if env.Middle.Len() != 1 {
		t.Fatalf("Envelopes len = %d, want 1", env.Middle.Len())
	}
	assertClose(t, "envelope upper", env.Upper[0].Value, 3.3, 1e-12)
	assertClose(t, "envelope middle", env.Middle[0].Value, 3, 1e-12)
	assertClose(t, "envelope lower", env.Lower[0].Value, 2.7, 1e-12)

	// median equals close; SMA(2) - SMA(4) on 1..5 gives 3.5-2.5 and 4.5-3.5
	ao := AwesomeOscillator(bars, AwesomeOscillatorParams{Fast: 2, Slow: 4})
	if ao.Len() != 2 {
		t.Fatalf("AO len = %d, want 2", ao.Len())
	}
	assertClose(t, "AO[0]", ao[0].Value, 1, 1e-12)
	assertClose(t, "AO[1]", ao[1].Value, 1, 1e-12)
}
