package indicators

import (
	"fmt"
	"math"
	"time"

	"github.com/fazecat/stratlab/Internal/types"
)

// Default windows, matching the common daily-chart setup.
const (
	MACDFast   = 12
	MACDSlow   = 26
	MACDSignal = 9
	RSIWindow  = 14
	BBWindow   = 20
	BBStdDevs  = 2.0
)

// SMA returns the simple moving average of closes. Positions before the
// window is full hold NaN.
func SMA(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	sum := 0.0
	for i, c := range closes {
		sum += c
		if i >= window {
			sum -= closes[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

// EMA returns the exponential moving average seeded with the SMA of the
// first window values.
func EMA(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) < window {
		return out
	}
	seed := 0.0
	for i := 0; i < window; i++ {
		seed += closes[i]
	}
	prev := seed / float64(window)
	out[window-1] = prev
	alpha := 2.0 / (float64(window) + 1.0)
	for i := window; i < len(closes); i++ {
		prev = alpha*closes[i] + (1-alpha)*prev
		out[i] = prev
	}
	return out
}

// MACD returns the MACD line (EMA12-EMA26), its signal line (EMA9 of the
// MACD line) and the histogram (line minus signal).
func MACD(closes []float64) (line, signal, hist []float64) {
	fast := EMA(closes, MACDFast)
	slow := EMA(closes, MACDSlow)

	line = nanSlice(len(closes))
	for i := range closes {
		if !math.IsNaN(fast[i]) && !math.IsNaN(slow[i]) {
			line[i] = fast[i] - slow[i]
		}
	}

	// Signal is the EMA of the defined portion of the MACD line.
	signal = nanSlice(len(closes))
	hist = nanSlice(len(closes))
	start := MACDSlow - 1
	if len(closes) <= start {
		return line, signal, hist
	}
	sub := EMA(line[start:], MACDSignal)
	for i := range sub {
		signal[start+i] = sub[i]
		if !math.IsNaN(line[start+i]) && !math.IsNaN(sub[i]) {
			hist[start+i] = line[start+i] - sub[i]
		}
	}
	return line, signal, hist
}

// RSI returns the Wilder-smoothed relative strength index.
func RSI(closes []float64, window int) []float64 {
	out := nanSlice(len(closes))
	if window <= 0 || len(closes) <= window {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0
	for i := 1; i <= window; i++ {
		diff := closes[i] - closes[i-1]
		if diff > 0 {
			avgGain += diff
		} else {
			avgLoss -= diff
		}
	}
	avgGain /= float64(window)
	avgLoss /= float64(window)
	out[window] = rsiFrom(avgGain, avgLoss)

	for i := window + 1; i < len(closes); i++ {
		diff := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if diff > 0 {
			gain = diff
		} else {
			loss = -diff
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
		out[i] = rsiFrom(avgGain, avgLoss)
	}
	return out
}

func rsiFrom(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// Bollinger returns the upper and lower bands: SMA(window) +/- k population
// standard deviations.
func Bollinger(closes []float64, window int, k float64) (upper, lower []float64) {
	upper = nanSlice(len(closes))
	lower = nanSlice(len(closes))
	if window <= 0 || len(closes) < window {
		return upper, lower
	}
	mid := SMA(closes, window)
	for i := window - 1; i < len(closes); i++ {
		variance := 0.0
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			variance += d * d
		}
		sd := math.Sqrt(variance / float64(window))
		upper[i] = mid[i] + k*sd
		lower[i] = mid[i] - k*sd
	}
	return upper, lower
}

// Enrich turns a raw dated close series into indicator-bearing Bars. The
// input should include enough leading history (200+ days) so the long
// averages are seeded before the simulated range starts.
func Enrich(dates []time.Time, closes []float64) ([]types.Bar, error) {
	if len(dates) != len(closes) {
		return nil, fmt.Errorf("dates and closes length mismatch: %d vs %d", len(dates), len(closes))
	}

	sma50 := SMA(closes, 50)
	sma200 := SMA(closes, 200)
	macd, macdSignal, macdHist := MACD(closes)
	rsi := RSI(closes, RSIWindow)
	bbUpper, bbLower := Bollinger(closes, BBWindow, BBStdDevs)

	bars := make([]types.Bar, len(closes))
	for i := range closes {
		bars[i] = types.Bar{
			Date:       dates[i],
			Close:      closes[i],
			SMA50:      sma50[i],
			SMA200:     sma200[i],
			MACD:       macd[i],
			MACDSignal: macdSignal[i],
			MACDHist:   macdHist[i],
			RSI:        rsi[i],
			BBUpper:    bbUpper[i],
			BBLower:    bbLower[i],
		}
	}
	return bars, nil
}

func nanSlice(n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = math.NaN()
	}
	return s
}
