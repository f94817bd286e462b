package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazecat/stratlab/Internal/forecast"
	"github.com/fazecat/stratlab/Internal/strategy"
	"github.com/fazecat/stratlab/Internal/types"
)

var testBase = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// trendBar builds a bar with seeded long averages below the close, a calm
// RSI and no band or MACD data. Tests override what they need.
func trendBar(day int, close float64) types.Bar {
	nan := math.NaN()
	return types.Bar{
		Date:       testBase.AddDate(0, 0, day),
		Close:      close,
		SMA50:      close - 1,
		SMA200:     close - 2,
		MACD:       nan,
		MACDSignal: nan,
		MACDHist:   nan,
		RSI:        50,
		BBUpper:    nan,
		BBLower:    nan,
	}
}

// risingOversoldBars is a series the aggressive profile enters on day 1
// (trend + oversold) and never exits until the period ends.
func risingOversoldBars(n int) []types.Bar {
	bars := make([]types.Bar, n)
	for i := range bars {
		bars[i] = trendBar(i, 100+5*float64(i))
		bars[i].RSI = 30
	}
	return bars
}

func TestRun_RisingSeriesSingleRoundTrip(t *testing.T) {
	bars := risingOversoldBars(10)

	res, err := Run(Input{
		Ticker:  "TEST",
		Bars:    bars,
		Profile: strategy.Aggressive(),
		Capital: 10000,
	})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	buy, sell := res.Trades[0], res.Trades[1]

	assert.Equal(t, types.ActionBuy, buy.Action)
	assert.Equal(t, bars[1].Date, buy.Date)
	assert.Equal(t, int64(66), buy.Shares) // floor(10000*0.70/105)

	assert.Equal(t, types.ActionSell, sell.Action)
	assert.Equal(t, bars[9].Date, sell.Date)
	assert.Equal(t, strategy.ReasonEndOfPeriod, sell.Reason)
	assert.InDelta(t, 66*45.0, sell.Profit, 1e-9) // bought 105, closed 150

	assert.Equal(t, 1, res.Summary.TotalTrades)
	assert.InDelta(t, 10000+66*45.0, res.Summary.FinalValue, 1e-9)
}

func TestRun_ValuationRowPerDayAndLedgerIdentity(t *testing.T) {
	bars := risingOversoldBars(10)

	res, err := Run(Input{
		Ticker:  "TEST",
		Bars:    bars,
		Profile: strategy.Aggressive(),
		Capital: 10000,
	})
	require.NoError(t, err)

	require.Len(t, res.Valuations, len(bars))
	for i, v := range res.Valuations {
		assert.Equal(t, bars[i].Date, v.Date)
		assert.InDelta(t, v.Cash+float64(v.SharesHeld)*bars[i].Close, v.PortfolioValue, 1e-9,
			"day %d ledger identity", i)
	}

	// End-of-period close must not duplicate the final day's row.
	last := res.Valuations[len(res.Valuations)-1]
	assert.InDelta(t, res.Summary.FinalValue, last.PortfolioValue, 1e-9)
}

func TestRun_Deterministic(t *testing.T) {
	bars := risingOversoldBars(12)
	in := Input{Ticker: "TEST", Bars: bars, Profile: strategy.Aggressive(), Capital: 10000}

	a, err := Run(in)
	require.NoError(t, err)
	b, err := Run(in)
	require.NoError(t, err)

	assert.Equal(t, a, b)
}

// stopLossBars reproduces the textbook sizing case: 1000 capital at half
// fraction buys 5 shares at 100 with the stop at 95, and the next close at
// 94 takes the position out.
func stopLossBars() []types.Bar {
	b0 := trendBar(0, 100)
	b0.MACD, b0.MACDSignal = -0.5, 0.0

	b1 := trendBar(1, 100)
	b1.MACD, b1.MACDSignal, b1.MACDHist = 0.5, 0.2, 0.3
	b1.RSI = 30

	b2 := trendBar(2, 94)
	b2.RSI = 80
	b2.BBUpper = 90 // indicator exit would fire too; stop loss outranks it

	return []types.Bar{b0, b1, b2}
}

func TestRun_StopLossPrecedence(t *testing.T) {
	res, err := Run(Input{
		Ticker:  "TEST",
		Bars:    stopLossBars(),
		Profile: strategy.Conservative(),
		Capital: 1000,
	})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, int64(5), res.Trades[0].Shares)
	assert.Equal(t, strategy.ReasonStopLoss, res.Trades[1].Reason)
	assert.InDelta(t, 970.0, res.Summary.FinalValue, 1e-9) // 500 cash left + 5 shares out at 94
}

func TestRun_NoSameDayExit(t *testing.T) {
	// The entry bar breaches the lower band, which for the aggressive exit
	// style is itself an exit trigger. The exit must still wait a day.
	bars := []types.Bar{trendBar(0, 100), trendBar(1, 100), trendBar(2, 100)}
	bars[1].RSI = 30
	bars[1].BBLower = 101
	bars[2].BBLower = 101

	res, err := Run(Input{
		Ticker:  "TEST",
		Bars:    bars,
		Profile: strategy.Aggressive(),
		Capital: 10000,
	})
	require.NoError(t, err)

	require.Len(t, res.Trades, 2)
	assert.Equal(t, bars[1].Date, res.Trades[0].Date)
	assert.Equal(t, bars[2].Date, res.Trades[1].Date, "exit must wait for the next bar")
	assert.Equal(t, strategy.ReasonIndicator, res.Trades[1].Reason)
}

func TestRun_MLGate(t *testing.T) {
	bars := risingOversoldBars(10)
	entryDate := bars[1].Date
	start, end := bars[0].Date, bars[9].Date

	agree := forecast.NewAdapter(
		forecast.Series{entryDate: forecast.Bullish},
		forecast.Series{entryDate: forecast.Bullish},
		start, end)
	disagree := forecast.NewAdapter(
		forecast.Series{entryDate: forecast.Bullish},
		forecast.Series{entryDate: forecast.Bearish},
		start, end)

	withAgree, err := Run(Input{Ticker: "TEST", Bars: bars, Forecasts: agree, Profile: strategy.Aggressive(), Capital: 10000})
	require.NoError(t, err)
	assert.NotEmpty(t, withAgree.Trades, "agreeing bullish forecasts pass the gate")

	withDisagree, err := Run(Input{Ticker: "TEST", Bars: bars, Forecasts: disagree, Profile: strategy.Aggressive(), Capital: 10000})
	require.NoError(t, err)
	assert.Empty(t, withDisagree.Trades, "a split verdict is neutral and blocks entry")
	assert.Empty(t, withDisagree.Warnings)
}

func TestRun_NoForecastCoverageWarns(t *testing.T) {
	bars := risingOversoldBars(6)

	res, err := Run(Input{Ticker: "TEST", Bars: bars, Profile: strategy.Aggressive(), Capital: 10000})
	require.NoError(t, err)

	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "indicator-only")
	assert.NotEmpty(t, res.Trades, "gate is waived without coverage")
}

func TestRun_SkippedEntryOnZeroShares(t *testing.T) {
	bars := risingOversoldBars(6)

	res, err := Run(Input{Ticker: "TEST", Bars: bars, Profile: strategy.Aggressive(), Capital: 50})
	require.NoError(t, err)

	assert.Empty(t, res.Trades)
	require.NotEmpty(t, res.SkippedEntries)
	assert.Equal(t, bars[1].Date, res.SkippedEntries[0].Date)
	assert.True(t, res.Summary.NoTrades)
	assert.Len(t, res.Valuations, len(bars))
}

func TestRun_RangeClipping(t *testing.T) {
	bars := risingOversoldBars(10)

	res, err := Run(Input{
		Ticker:  "TEST",
		Bars:    bars,
		Start:   bars[3].Date,
		End:     bars[7].Date,
		Profile: strategy.Aggressive(),
		Capital: 10000,
	})
	require.NoError(t, err)

	require.Len(t, res.Valuations, 5)
	assert.Equal(t, bars[3].Date, res.Valuations[0].Date)
	assert.Equal(t, bars[7].Date, res.Valuations[4].Date)
	// The bar before the range is still visible as decision history, so the
	// first simulated day can trade.
	require.NotEmpty(t, res.Trades)
	assert.Equal(t, bars[3].Date, res.Trades[0].Date)
}

func TestRun_InsufficientWarmup(t *testing.T) {
	bars := risingOversoldBars(5)
	for i := range bars {
		bars[i].SMA200 = math.NaN()
	}

	_, err := Run(Input{Ticker: "TEST", Bars: bars, Profile: strategy.Aggressive(), Capital: 10000})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient leading history")
}

func TestValidateBars(t *testing.T) {
	assert.ErrorIs(t, ValidateBars(nil), ErrNoData)

	dup := risingOversoldBars(3)
	dup[2].Date = dup[1].Date
	assert.Error(t, ValidateBars(dup))

	neg := risingOversoldBars(3)
	neg[1].Close = -4
	assert.Error(t, ValidateBars(neg))

	assert.NoError(t, ValidateBars(risingOversoldBars(3)))
}

func TestClip(t *testing.T) {
	bars := risingOversoldBars(5)

	assert.Len(t, Clip(bars, time.Time{}, time.Time{}), 5)
	assert.Len(t, Clip(bars, bars[1].Date, bars[3].Date), 3)
	assert.Nil(t, Clip(bars, bars[4].Date.AddDate(0, 0, 1), time.Time{}))
}
