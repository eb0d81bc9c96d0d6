package calculate

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Alias1177/SignalEngine/models"
)

var testStart = time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC)

func generateTestBars(count int, gen func(i int) models.Bar) models.Series {
	bars := make(models.Series, count)
	for i := 0; i < count; i++ {
		b := gen(i)
		b.Timestamp = testStart.Add(time.Duration(i) * time.Minute)
		bars[i] = b
	}
	return bars
}

// waveBars is a trending sine wave with varying volume
func waveBars(count int) models.Series {
	prevClose := 100.0
	return generateTestBars(count, func(i int) models.Bar {
		c := 100 + 10*math.Sin(float64(i)/5) + float64(i)*0.1
		high := c + 1 + 0.5*math.Abs(math.Cos(float64(i)))
		low := c - 1 - 0.3*math.Abs(math.Sin(float64(i)*1.3))
		open := math.Max(low, math.Min(high, prevClose))
		prevClose = c
		return models.Bar{Open: open, High: high, Low: low, Close: c, Volume: 1000 + float64(i%7)*100}
	})
}

func flatBars(count int, price float64) models.Series {
	return generateTestBars(count, func(i int) models.Bar {
		return models.Bar{Open: price, High: price, Low: price, Close: price, Volume: 1000}
	})
}

func trendBars(count int, step float64) models.Series {
	return generateTestBars(count, func(i int) models.Bar {
		c := 100 + float64(i)*step
		return models.Bar{Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000 + float64(i)*10}
	})
}

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s = %v, want %v (tol %v)", label, got, want, tol)
	}
}

func mustDefault(t *testing.T, kind Kind) Params {
	t.Helper()
	p, err := DefaultParams(kind)
	if err != nil {
		t.Fatalf("DefaultParams(%s) error = %v", kind, err)
	}
	return p
}

func TestLookbackBoundary(t *testing.T) {
	bars := waveBars(120)
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p := mustDefault(t, kind)
			lb := p.Lookback()

			short, err := Compute(bars[:lb-1], p)
			if err != nil {
				t.Fatalf("Compute(short) error = %v", err)
			}
			for name, line := range short.Lines {
				if line.Len() != 0 {
					t.Errorf("line %s with %d bars: len = %d, want 0", name, lb-1, line.Len())
				}
			}

			exact, err := Compute(bars[:lb], p)
			if err != nil {
				t.Fatalf("Compute(exact) error = %v", err)
			}
			for name, line := range exact.Lines {
				if line.Len() != 1 {
					t.Errorf("line %s with %d bars: len = %d, want 1", name, lb, line.Len())
					continue
				}
				if !line[0].Timestamp.Equal(bars[lb-1].Timestamp) {
					t.Errorf("line %s timestamp = %v, want %v", name, line[0].Timestamp, bars[lb-1].Timestamp)
				}
			}
		})
	}
}

func TestOutputsAreFiniteAndAligned(t *testing.T) {
	bars := waveBars(150)
	for _, kind := range Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			out, err := Compute(bars, mustDefault(t, kind))
			if err != nil {
				t.Fatalf("Compute() error = %v", err)
			}
			var length = -1
			for name, line := range out.Lines {
				if length >= 0 && line.Len() != length {
					t.Errorf("line %s len = %d, want %d", name, line.Len(), length)
				}
				length = line.Len()
				offset := len(bars) - line.Len()
				for i, pt := range line {
					if math.IsNaN(pt.Value) || math.IsInf(pt.Value, 0) {
						t.Fatalf("line %s[%d] = %v, want finite", name, i, pt.Value)
					}
					if !pt.Timestamp.Equal(bars[offset+i].Timestamp) {
						t.Fatalf("line %s[%d] is not aligned to a suffix of the input", name, i)
					}
				}
			}
		})
	}
}

// Finite but extreme prices overflow window sums part way through the series
func TestOverflowEmptiesOutput(t *testing.T) {
	closes := []float64{1, 1, 1e308, 1e308, 1e308}
	bars := generateTestBars(len(closes), func(i int) models.Bar {
		c := closes[i]
		return models.Bar{Open: c, High: c, Low: c, Close: c, Volume: 1}
	})
	if err := bars.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	if got := SMA(bars, SMAParams{Period: 2}); got.Len() != 0 {
		t.Errorf("SMA len = %d, want 0 (got %v)", got.Len(), got.Values())
	}

	b := Bollinger(bars, BollingerParams{Period: 2, StdDev: 2})
	if b.Upper.Len() != 0 || b.Middle.Len() != 0 || b.Lower.Len() != 0 {
		t.Errorf("Bollinger lens = %d/%d/%d, want 0/0/0", b.Upper.Len(), b.Middle.Len(), b.Lower.Len())
	}

	out, err := Compute(bars, SMAParams{Period: 2})
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	for name, line := range out.Lines {
		if line.Len() != 0 {
			t.Errorf("line %s len = %d, want 0", name, line.Len())
		}
	}
}

func TestConstantSeries(t *testing.T) {
	bars := flatBars(80, 100)

	tests := []struct {
		name string
		line models.PointSeries
		want float64
	}{
		{"SMA", SMA(bars, SMAParams{Period: 10}), 100},
		{"EMA", EMA(bars, EMAParams{Period: 10}), 100},
		{"WMA", WMA(bars, WMAParams{Period: 10}), 100},
		{"RSI", RSI(bars, RSIParams{Period: 14}), RSIFlat},
		{"StdDev", StdDev(bars, StdDevParams{Period: 20}), 0},
		{"BBWidth", BBWidth(bars, BBWidthParams{Period: 20, StdDev: 2}), 0},
		{"BBPercentB", BBPercentB(bars, BBPercentBParams{Period: 20, StdDev: 2}), 0.5},
		{"StochasticK", Stochastic(bars, StochasticParams{KPeriod: 14, DPeriod: 3}).K, StochasticFlat},
		{"WilliamsR", WilliamsR(bars, WilliamsRParams{Period: 14}), WilliamsRFlat},
		{"CCI", CCI(bars, CCIParams{Period: 20}), 0},
		{"ROC", ROC(bars, ROCParams{Period: 12}), 0},
		{"MFI", MFI(bars, MFIParams{Period: 14}), MFIFlat},
		{"CMF", CMF(bars, CMFParams{Period: 20}), 0},
		{"UO", UltimateOscillator(bars, UltimateOscillatorParams{Short: 7, Medium: 14, Long: 28}), 50},
		{"TSI", TSI(bars, TSIParams{Long: 25, Short: 13}), 0},
		{"ADX", ADX(bars, ADXParams{Period: 14}).ADX, 0},
		{"VWAP", VWAP(bars, VWAPParams{Anchor: AnchorSession}), 100},
		{"KAMA", KAMA(bars, KAMAParams{ERPeriod: 10, Fast: 2, Slow: 30}), 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.line.Len() == 0 {
				t.Fatalf("%s returned no points", tt.name)
			}
			for i, pt := range tt.line {
				assertClose(t, tt.name, pt.Value, tt.want, 1e-9)
				if t.Failed() {
					t.Fatalf("first mismatch at %d", i)
				}
			}
		})
	}
}

func TestFlatThirtyBars(t *testing.T) {
	bars := flatBars(30, 100)

	rsi := RSI(bars, RSIParams{Period: 14})
	if rsi.Len() != 16 {
		t.Fatalf("RSI len = %d, want 16", rsi.Len())
	}
	if !rsi[0].Timestamp.Equal(bars[14].Timestamp) {
		t.Errorf("RSI first timestamp = %v, want bar 15 (%v)", rsi[0].Timestamp, bars[14].Timestamp)
	}
	for _, pt := range rsi {
		if pt.Value != 100 {
			t.Errorf("RSI = %v, want 100", pt.Value)
		}
	}

	sma := SMA(bars, SMAParams{Period: 14})
	if !sma[0].Timestamp.Equal(bars[13].Timestamp) || sma[0].Value != 100 {
		t.Errorf("SMA first point = %+v, want 100 at bar 14", sma[0])
	}
}

func TestRSIMonotonic(t *testing.T) {
	tests := []struct {
		name string
		step float64
		want float64
	}{
		{"rising", 1, 100},
		{"falling", -1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rsi := RSI(trendBars(40, tt.step), RSIParams{Period: 14})
			for _, pt := range rsi {
				assertClose(t, "RSI", pt.Value, tt.want, 1e-9)
			}
		})
	}
}

func TestMACDHistogram(t *testing.T) {
	r := MACD(waveBars(100), MACDParams{Fast: 12, Slow: 26, Signal: 9})
	if r.MACD.Len() != 100-34+1 {
		t.Fatalf("MACD len = %d, want %d", r.MACD.Len(), 100-34+1)
	}
	if r.Signal.Len() != r.MACD.Len() || r.Histogram.Len() != r.MACD.Len() {
		t.Fatalf("MACD lines differ in length: %d/%d/%d", r.MACD.Len(), r.Signal.Len(), r.Histogram.Len())
	}
	for i := range r.MACD {
		if !r.MACD[i].Timestamp.Equal(r.Histogram[i].Timestamp) {
			t.Fatalf("timestamp mismatch at %d", i)
		}
		assertClose(t, "histogram", r.Histogram[i].Value, r.MACD[i].Value-r.Signal[i].Value, 1e-9)
	}
}

func TestBollingerSymmetry(t *testing.T) {
	b := Bollinger(waveBars(60), BollingerParams{Period: 20, StdDev: 2})
	if b.Middle.Len() != 41 {
		t.Fatalf("Bollinger len = %d, want 41", b.Middle.Len())
	}
	for i := range b.Middle {
		up := b.Upper[i].Value - b.Middle[i].Value
		down := b.Middle[i].Value - b.Lower[i].Value
		assertClose(t, "band symmetry", up, down, 1e-9)
		if up < 0 {
			t.Errorf("upper below middle at %d", i)
		}
	}
}

func TestKeltnerAndDonchianOrdering(t *testing.T) {
	bars := waveBars(80)
	for name, b := range map[string]Bands{
		"keltner":   Keltner(bars, KeltnerParams{EMAPeriod: 20, ATRPeriod: 10, Multiplier: 2}),
		"donchian":  Donchian(bars, DonchianParams{Period: 20}),
		"envelopes": Envelopes(bars, EnvelopesParams{Period: 20, Percent: 2.5}),
	} {
		if b.Middle.Len() == 0 {
			t.Fatalf("%s returned no points", name)
		}
		for i := range b.Middle {
			if !(b.Lower[i].Value <= b.Middle[i].Value && b.Middle[i].Value <= b.Upper[i].Value) {
				t.Errorf("%s[%d]: %v <= %v <= %v does not hold", name, i, b.Lower[i].Value, b.Middle[i].Value, b.Upper[i].Value)
			}
		}
	}
}

func TestParabolicSARUptrend(t *testing.T) {
	bars := trendBars(40, 1)
	sar := ParabolicSAR(bars, ParabolicSARParams{Step: 0.02, Max: 0.2})
	if sar.Len() != len(bars)-1 {
		t.Fatalf("PSAR len = %d, want %d", sar.Len(), len(bars)-1)
	}
	for i, pt := range sar {
		bar := bars[i+1]
		if pt.Value >= bar.Low {
			t.Errorf("PSAR[%d] = %v, want below low %v", i, pt.Value, bar.Low)
		}
	}
}

func TestParabolicSARReverses(t *testing.T) {
	up := trendBars(20, 1)
	last := up[len(up)-1].Close
	down := generateTestBars(40, func(i int) models.Bar {
		c := last - float64(i+1)*1.5
		return models.Bar{Open: c, High: c + 0.5, Low: c - 0.5, Close: c, Volume: 1000}
	})
	bars := append(models.Series{}, up...)
	for i, b := range down {
		b.Timestamp = up[len(up)-1].Timestamp.Add(time.Duration(i+1) * time.Minute)
		bars = append(bars, b)
	}

	sar := ParabolicSAR(bars, ParabolicSARParams{Step: 0.02, Max: 0.2})
	lastPt, _ := sar.Last()
	lastBar, _ := bars.Last()
	if lastPt.Value <= lastBar.High {
		t.Errorf("PSAR after reversal = %v, want above high %v", lastPt.Value, lastBar.High)
	}
}

func TestOBVAndADLine(t *testing.T) {
	bars := generateTestBars(4, func(i int) models.Bar {
		closes := []float64{10, 11, 10.5, 10.5}
		c := closes[i]
		return models.Bar{Open: c, High: c + 1, Low: c - 1, Close: c, Volume: 100}
	})

	obv := OBV(bars, OBVParams{}).Values()
	want := []float64{0, 100, 0, 0}
	if !reflect.DeepEqual(obv, want) {
		t.Errorf("OBV = %v, want %v", obv, want)
	}

	ad := ADLine(bars, ADLineParams{}).Values()
	for i, v := range ad {
		if v != 0 {
			t.Errorf("ADLine[%d] = %v, want 0 for mid-range closes", i, v)
		}
	}
}

func TestVWAPSessionReset(t *testing.T) {
	day1 := time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := models.Series{
		{Timestamp: day1, Open: 10, High: 11, Low: 9, Close: 10, Volume: 100},
		{Timestamp: day1.Add(time.Hour), Open: 20, High: 21, Low: 19, Close: 20, Volume: 100},
		{Timestamp: day2, Open: 30, High: 31, Low: 29, Close: 30, Volume: 100},
	}

	session := VWAP(bars, VWAPParams{Anchor: AnchorSession}).Values()
	assertClose(t, "session[1]", session[1], 15, 1e-9)
	assertClose(t, "session[2]", session[2], 30, 1e-9)

	whole := VWAP(bars, VWAPParams{Anchor: AnchorNone}).Values()
	assertClose(t, "whole[2]", whole[2], 20, 1e-9)

	noVolume := models.Series{{Timestamp: day1, Open: 10, High: 12, Low: 9, Close: 11, Volume: 0}}
	assertClose(t, "zero volume", VWAP(noVolume, VWAPParams{Anchor: AnchorSession}).Values()[0], 32.0/3, 1e-9)
}

func TestADXRange(t *testing.T) {
	r := ADX(trendBars(80, 1), ADXParams{Period: 14})
	if r.ADX.Len() != 80-28+1 {
		t.Fatalf("ADX len = %d, want %d", r.ADX.Len(), 80-28+1)
	}
	for i := range r.ADX {
		for _, v := range []float64{r.ADX[i].Value, r.PlusDI[i].Value, r.MinusDI[i].Value} {
			if v < 0 || v > 100 {
				t.Fatalf("ADX output %v outside [0, 100]", v)
			}
		}
	}
	if last, _ := r.PlusDI.Last(); last.Value <= 0 {
		t.Errorf("+DI = %v, want positive on an uptrend", last.Value)
	}
	if last, _ := r.MinusDI.Last(); last.Value != 0 {
		t.Errorf("-DI = %v, want 0 on a strict uptrend", last.Value)
	}
}

func TestShortHistoryIsEmpty(t *testing.T) {
	bars := waveBars(5)
	if got := SMA(bars, SMAParams{Period: 20}); got == nil || got.Len() != 0 {
		t.Errorf("SMA on short history = %v, want empty non-nil", got)
	}
	if got := MACD(bars, MACDParams{Fast: 12, Slow: 26, Signal: 9}); got.Histogram.Len() != 0 {
		t.Errorf("MACD on short history has %d points", got.Histogram.Len())
	}
	if got := RSI(nil, RSIParams{Period: 14}); got.Len() != 0 {
		t.Errorf("RSI on empty series has %d points", got.Len())
	}
	if got := SMA(bars, SMAParams{Period: 0}); got.Len() != 0 {
		t.Errorf("SMA with invalid params has %d points", got.Len())
	}
}

func TestComputeIdempotent(t *testing.T) {
	bars := waveBars(100)
	for _, kind := range Kinds() {
		p := mustDefault(t, kind)
		a, errA := Compute(bars, p)
		b, errB := Compute(bars, p)
		if errA != nil || errB != nil {
			t.Fatalf("Compute(%s) errors = %v, %v", kind, errA, errB)
		}
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Compute(%s) is not deterministic", kind)
		}
	}
}

func TestComputeErrors(t *testing.T) {
	bars := waveBars(30)
	broken := append(models.Series{}, bars...)
	broken[10].High = broken[10].Low - 1

	tests := []struct {
		name    string
		series  models.Series
		params  Params
		wantErr error
	}{
		{"invalid series", broken, SMAParams{Period: 5}, models.ErrInvalidInput},
		{"invalid params", bars, SMAParams{Period: 0}, ErrInvalidParams},
		{"nil params", bars, nil, ErrInvalidParams},
		{"macd fast >= slow", bars, MACDParams{Fast: 26, Slow: 12, Signal: 9}, ErrInvalidParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.series, tt.params)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Compute() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewParams(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		raw     map[string]float64
		want    Params
		wantErr bool
	}{
		{"defaults", KindRSI, nil, RSIParams{Period: 14}, false},
		{"override", KindBollinger, map[string]float64{"period": 10, "stdDev": 1.5}, BollingerParams{Period: 10, StdDev: 1.5}, false},
		{"vwap whole series", KindVWAP, map[string]float64{"session": 0}, VWAPParams{Anchor: AnchorNone}, false},
		{"kst override", KindKST, map[string]float64{"roc1": 5},
			KSTParams{ROC: [4]int{5, 15, 20, 30}, SMA: [4]int{10, 10, 10, 15}, Signal: 9}, false},
		{"unknown key", KindSMA, map[string]float64{"length": 10}, nil, true},
		{"fractional period", KindEMA, map[string]float64{"period": 10.5}, nil, true},
		{"zero period", KindATR, map[string]float64{"period": 0}, nil, true},
		{"macd fast above slow", KindMACD, map[string]float64{"fast": 30}, nil, true},
		{"psar max below step", KindParabolicSAR, map[string]float64{"step": 0.1, "max": 0.05}, nil, true},
		{"unknown kind", Kind("FOO"), nil, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewParams(tt.kind, tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidParams) {
					t.Errorf("NewParams() error = %v, want ErrInvalidParams", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewParams() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NewParams() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestSupportResistance(t *testing.T) {
	bars := waveBars(120)
	levels := SupportResistance(bars)
	last, _ := bars.Last()

	if len(levels.Support) > 3 || len(levels.Resistance) > 3 {
		t.Fatalf("SupportResistance() kept %d/%d levels, want at most 3 each", len(levels.Support), len(levels.Resistance))
	}
	if len(levels.Support)+len(levels.Resistance) == 0 {
		t.Fatal("SupportResistance() found no levels on a wave series")
	}
	for i, s := range levels.Support {
		if s >= last.Close {
			t.Errorf("support %v not below close %v", s, last.Close)
		}
		if i > 0 && s > levels.Support[i-1] {
			t.Errorf("support not nearest-first: %v", levels.Support)
		}
	}
	for i, r := range levels.Resistance {
		if r <= last.Close {
			t.Errorf("resistance %v not above close %v", r, last.Close)
		}
		if i > 0 && r < levels.Resistance[i-1] {
			t.Errorf("resistance not nearest-first: %v", levels.Resistance)
		}
	}

	if got := SupportResistance(bars[:10]); len(got.Support)+len(got.Resistance) != 0 {
		t.Errorf("SupportResistance() on 10 bars = %+v, want none", got)
	}
}
