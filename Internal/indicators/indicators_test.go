package indicators

import (
	"math"
	"testing"
	"time"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSMA_WarmupAndValues(t *testing.T) {
	closes := []float64{1, 2, 3, 4, 5}
	out := SMA(closes, 3)

	if !math.IsNaN(out[0]) || !math.IsNaN(out[1]) {
		t.Errorf("expected NaN during warm-up, got %v %v", out[0], out[1])
	}
	if !almostEqual(out[2], 2) {
		t.Errorf("SMA[2] = %v, want 2", out[2])
	}
	if !almostEqual(out[4], 4) {
		t.Errorf("SMA[4] = %v, want 4", out[4])
	}
}

func TestSMA_SeriesShorterThanWindow(t *testing.T) {
	out := SMA([]float64{1, 2}, 5)
	for i, v := range out {
		if !math.IsNaN(v) {
			t.Errorf("out[%d] = %v, want NaN", i, v)
		}
	}
}

func TestEMA_SeededWithSMA(t *testing.T) {
	closes := []float64{1, 2, 3, 4}
	out := EMA(closes, 3)

	if !almostEqual(out[2], 2) {
		t.Errorf("EMA seed = %v, want SMA 2", out[2])
	}
	// alpha = 2/(3+1) = 0.5, so next value is 0.5*4 + 0.5*2
	if !almostEqual(out[3], 3) {
		t.Errorf("EMA[3] = %v, want 3", out[3])
	}
}

func TestRSI_AllGainsIsHundred(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	out := RSI(closes, RSIWindow)

	for i := 0; i < RSIWindow; i++ {
		if !math.IsNaN(out[i]) {
			t.Errorf("RSI[%d] = %v, want NaN during warm-up", i, out[i])
		}
	}
	for i := RSIWindow; i < len(out); i++ {
		if !almostEqual(out[i], 100) {
			t.Errorf("RSI[%d] = %v, want 100 for an all-gain series", i, out[i])
		}
	}
}

func TestBollinger_ConstantSeries(t *testing.T) {
	closes := []float64{10, 10, 10, 10}
	upper, lower := Bollinger(closes, 3, 2)

	if !almostEqual(upper[2], 10) || !almostEqual(lower[2], 10) {
		t.Errorf("constant series should collapse the bands, got upper %v lower %v", upper[2], lower[2])
	}
}

func TestBollinger_PopulationStdDev(t *testing.T) {
	// window {1,2,3}: mean 2, population variance 2/3
	closes := []float64{1, 2, 3}
	upper, lower := Bollinger(closes, 3, 1)

	sd := math.Sqrt(2.0 / 3.0)
	if !almostEqual(upper[2], 2+sd) {
		t.Errorf("upper[2] = %v, want %v", upper[2], 2+sd)
	}
	if !almostEqual(lower[2], 2-sd) {
		t.Errorf("lower[2] = %v, want %v", lower[2], 2-sd)
	}
}

func TestMACD_WarmupIsNaN(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 100 + float64(i%5)
	}
	line, signal, hist := MACD(closes)

	if !math.IsNaN(line[MACDSlow-2]) {
		t.Errorf("MACD line defined before slow EMA warm-up")
	}
	if math.IsNaN(line[MACDSlow-1]) {
		t.Errorf("MACD line should be defined once the slow EMA is seeded")
	}
	lastDefined := MACDSlow - 1 + MACDSignal - 1
	if !math.IsNaN(signal[lastDefined-1]) {
		t.Errorf("signal defined before its own warm-up")
	}
	if math.IsNaN(signal[lastDefined]) || math.IsNaN(hist[lastDefined]) {
		t.Errorf("signal and histogram should be defined at index %d", lastDefined)
	}
}

func TestEnrich_LengthMismatch(t *testing.T) {
	dates := []time.Time{time.Now()}
	if _, err := Enrich(dates, []float64{1, 2}); err == nil {
		t.Error("expected error for mismatched lengths")
	}
}

func TestEnrich_ShortSeriesKeepsNaNTrend(t *testing.T) {
	n := 60
	dates := make([]time.Time, n)
	closes := make([]float64, n)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		dates[i] = base.AddDate(0, 0, i)
		closes[i] = 100 + float64(i)
	}

	bars, err := Enrich(dates, closes)
	if err != nil {
		t.Fatalf("Enrich failed: %v", err)
	}
	if len(bars) != n {
		t.Fatalf("got %d bars, want %d", len(bars), n)
	}
	for i, b := range bars {
		if b.HasTrendData() {
			t.Errorf("bar %d claims trend data with only %d closes", i, n)
		}
	}
	if math.IsNaN(bars[n-1].SMA50) {
		t.Error("SMA50 should be seeded by bar 49")
	}
}
