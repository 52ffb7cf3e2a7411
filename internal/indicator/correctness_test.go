package indicator

import (
	"math"
	"math/rand"
	"testing"
)

func assertClose(t *testing.T, label string, got, want, tol float64) {
	t.Helper()
	if math.Abs(got-want) > tol {
		t.Errorf("%s: got %.6f, want %.6f (tol=%.6f, diff=%.6f)", label, got, want, tol, math.Abs(got-want))
	}
}

func feed(ind Indicator, values ...float64) {
	for _, v := range values {
		ind.Update(v)
	}
}

// ────────────────────────────────────────────────────────────
// SMA
// ────────────────────────────────────────────────────────────

func TestSMA_Correctness_Period3(t *testing.T) {
	// Prices: 100, 102, 104, 103, 105
	// SMA after 3: 102, after 4: 103, after 5: 104
	sma := NewSMA(3)
	want := []float64{0, 0, 102, 103, 104}
	for i, p := range []float64{100, 102, 104, 103, 105} {
		sma.Update(p)
		if i < 2 && sma.Ready() {
			t.Fatalf("value %d: SMA(3) should not be ready", i)
		}
		assertClose(t, "SMA(3)", sma.Value(), want[i], 1e-9)
	}
	if sma.Name() != "SMA_3" {
		t.Errorf("expected name SMA_3, got %s", sma.Name())
	}
}

func TestSMA_SampleStdDev(t *testing.T) {
	// Window [104 103 105]: mean 104, squared deviations 0+1+1, /(3-1) => 1
	sma := NewSMA(3)
	feed(sma, 100, 102, 104, 103, 105)
	assertClose(t, "stddev", sma.StdDev(), 1.0, 1e-12)

	notReady := NewSMA(3)
	feed(notReady, 1, 2)
	if notReady.StdDev() != 0 {
		t.Errorf("stddev before ready should be 0, got %f", notReady.StdDev())
	}
}

// ────────────────────────────────────────────────────────────
// EMA
// ────────────────────────────────────────────────────────────

func TestEMA_SeededWithFirstValue(t *testing.T) {
	// span 3 => alpha 0.5
	// 10 -> 10, 20 -> 15, 30 -> 22.5, 30 -> 26.25
	ema := NewEMA(3)
	want := []float64{10, 15, 22.5, 26.25}
	for i, p := range []float64{10, 20, 30, 30} {
		ema.Update(p)
		if !ema.Ready() {
			t.Fatalf("value %d: EMA should be ready after the first value", i)
		}
		assertClose(t, "EMA(3)", ema.Value(), want[i], 1e-12)
	}
}

func TestEMA_Alpha(t *testing.T) {
	ema := NewEMA(12)
	assertClose(t, "alpha", ema.alpha, 2.0/13.0, 1e-15)
}

// ────────────────────────────────────────────────────────────
// RSI
// ────────────────────────────────────────────────────────────

func TestRSI_MixedWindow(t *testing.T) {
	// 10 gains of +2 then 4 losses of -1 over the last 14 changes:
	// avgGain = 20/14, avgLoss = 4/14, RS = 5, RSI = 100 - 100/6
	rsi := NewRSI(14)
	price := 100.0
	rsi.Update(price)
	for i := 0; i < 10; i++ {
		price += 2
		rsi.Update(price)
	}
	for i := 0; i < 4; i++ {
		price--
		rsi.Update(price)
	}
	if !rsi.Ready() {
		t.Fatal("RSI(14) should be ready after 15 prices")
	}
	assertClose(t, "RSI", rsi.Value(), 100.0-100.0/6.0, 1e-9)
}

func TestRSI_AllGainsIs100(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 30; i++ {
		rsi.Update(100 + float64(i))
	}
	assertClose(t, "RSI all gains", rsi.Value(), 100, 1e-12)
}

func TestRSI_AllLossesIs0(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 30; i++ {
		rsi.Update(100 - float64(i))
	}
	assertClose(t, "RSI all losses", rsi.Value(), 0, 1e-12)
}

func TestRSI_FlatIsNeutral(t *testing.T) {
	rsi := NewRSI(14)
	for i := 0; i < 30; i++ {
		rsi.Update(100)
	}
	assertClose(t, "RSI flat", rsi.Value(), 50, 1e-12)
}

func TestRSI_WindowSlides(t *testing.T) {
	// 20 rising prices then 14 falling: the rising run has left the window.
	rsi := NewRSI(14)
	price := 100.0
	for i := 0; i < 20; i++ {
		price++
		rsi.Update(price)
	}
	for i := 0; i < 14; i++ {
		price--
		rsi.Update(price)
	}
	assertClose(t, "RSI after slide", rsi.Value(), 0, 1e-12)
}

func TestRSI_ReadyAfterPeriodPrices(t *testing.T) {
	// The first price contributes a zero change, so 14 prices fill the window.
	rsi := NewRSI(14)
	for i := 0; i < 13; i++ {
		rsi.Update(100 + float64(i))
	}
	if rsi.Ready() {
		t.Fatal("RSI(14) should not be ready after 13 prices")
	}
	rsi.Update(113)
	if !rsi.Ready() {
		t.Fatal("RSI(14) should be ready after 14 prices")
	}
	// 13 gains of +1 and one zero: no losses, RSI = 100
	assertClose(t, "RSI", rsi.Value(), 100, 1e-12)
}

// ────────────────────────────────────────────────────────────
// MACD
// ────────────────────────────────────────────────────────────

func TestMACD_FlatSeriesIsZero(t *testing.T) {
	m := NewMACD(12, 26, 9)
	for i := 0; i < 50; i++ {
		m.Update(100)
	}
	assertClose(t, "macd", m.Value(), 0, 1e-12)
	assertClose(t, "signal", m.Signal(), 0, 1e-12)
	assertClose(t, "hist", m.Histogram(), 0, 1e-12)
}

func TestMACD_TwoSteps(t *testing.T) {
	// fast span 1 (alpha 1), slow span 3 (alpha 0.5), signal span 1 (alpha 1)
	// p=10: fast 10, slow 10, macd 0, signal 0
	// p=20: fast 20, slow 15, macd 5, signal 5
	m := NewMACD(1, 3, 1)
	m.Update(10)
	if _, _, ok := m.Previous(); ok {
		t.Fatal("no previous pair after one update")
	}
	m.Update(20)
	assertClose(t, "macd", m.Value(), 5, 1e-12)
	assertClose(t, "signal", m.Signal(), 5, 1e-12)
	pm, ps, ok := m.Previous()
	if !ok {
		t.Fatal("expected previous pair after two updates")
	}
	assertClose(t, "prev macd", pm, 0, 1e-12)
	assertClose(t, "prev signal", ps, 0, 1e-12)
}

func TestMACD_RisingSeriesIsPositive(t *testing.T) {
	m := NewMACD(12, 26, 9)
	for i := 0; i < 60; i++ {
		m.Update(100 + float64(i))
	}
	if m.Value() <= 0 {
		t.Errorf("rising series should have positive MACD, got %f", m.Value())
	}
	if m.Histogram() <= 0 {
		t.Errorf("accelerating spread should lead its signal, got hist %f", m.Histogram())
	}
}

// ────────────────────────────────────────────────────────────
// Bollinger
// ────────────────────────────────────────────────────────────

func TestBollinger_KnownWindow(t *testing.T) {
	// period 3 on [104 103 105]: middle 104, sample std 1, width 2
	bb := NewBollinger(3, 2)
	feed(bb, 100, 102, 104, 103, 105)
	u, m, l := bb.Bands()
	assertClose(t, "upper", u, 106, 1e-9)
	assertClose(t, "middle", m, 104, 1e-9)
	assertClose(t, "lower", l, 102, 1e-9)
}

func TestBollinger_FlatCollapses(t *testing.T) {
	bb := NewBollinger(20, 2)
	for i := 0; i < 20; i++ {
		bb.Update(50)
	}
	u, m, l := bb.Bands()
	if u != 50 || m != 50 || l != 50 {
		t.Errorf("flat series should collapse bands to 50, got %f %f %f", u, m, l)
	}
}

// ────────────────────────────────────────────────────────────
// Volume profile
// ────────────────────────────────────────────────────────────

func TestVolumeProfile(t *testing.T) {
	vp := NewVolumeProfile([]float64{1, 2, 3, 4})
	assertClose(t, "avg", vp.Average, 2.5, 1e-12)
	assertClose(t, "std", vp.StdDev, math.Sqrt(5.0/3.0), 1e-12)
	assertClose(t, "current", vp.Current, 4, 0)
	if !vp.Ready {
		t.Error("profile over 4 values should be ready")
	}

	single := NewVolumeProfile([]float64{7})
	if single.StdDev != 0 || single.Current != 7 {
		t.Errorf("single value profile: got %+v", single)
	}

	if empty := NewVolumeProfile(nil); empty.Ready {
		t.Error("empty profile should not be ready")
	}
}

func TestBollinger_FlatTailAfterLongHistory(t *testing.T) {
	// 980 varied prices then 20 equal: the middle band must sit exactly on
	// the flat price so neither band is breached.
	e := NewEngine(DefaultParams())
	rng := rand.New(rand.NewSource(7))
	breaches := 0
	for trial := 0; trial < 500; trial++ {
		prices := make([]float64, 0, 1000)
		for i := 0; i < 980; i++ {
			prices = append(prices, 50+rng.Float64()*10)
		}
		flat := math.Round((50+rng.Float64()*10)*100) / 100
		for i := 0; i < 20; i++ {
			prices = append(prices, flat)
		}
		bb := e.Compute(prices, nil).Bollinger
		if !bb.Ready {
			t.Fatal("bands should be ready over 1000 prices")
		}
		if bb.Middle != flat || bb.Upper != flat || bb.Lower != flat {
			breaches++
			if breaches == 1 {
				t.Errorf("trial %d: price=%v bands=%v/%v/%v", trial, flat, bb.Upper, bb.Middle, bb.Lower)
			}
		}
	}
	if breaches > 0 {
		t.Errorf("%d/500 flat windows did not collapse onto the price", breaches)
	}
}
