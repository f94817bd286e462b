package backtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fazecat/stratlab/Internal/strategy"
)

func TestRunAll_OrderAndErrorIsolation(t *testing.T) {
	good := Input{Ticker: "GOOD", Bars: risingOversoldBars(8), Profile: strategy.Aggressive(), Capital: 10000}
	bad := Input{Ticker: "BAD", Profile: strategy.Aggressive(), Capital: 10000} // no bars

	results := RunAll([]Input{good, bad, good}, 2)
	require.Len(t, results, 3)

	assert.Equal(t, "GOOD", results[0].Input.Ticker)
	require.NoError(t, results[0].Err)
	assert.NotNil(t, results[0].Result)

	assert.Equal(t, "BAD", results[1].Input.Ticker)
	assert.ErrorIs(t, results[1].Err, ErrNoData)
	assert.Nil(t, results[1].Result)

	require.NoError(t, results[2].Err)
	assert.Equal(t, results[0].Result, results[2].Result, "identical jobs give identical results")
}

func TestRunAll_SingleWorker(t *testing.T) {
	jobs := []Input{
		{Ticker: "A", Bars: risingOversoldBars(8), Profile: strategy.Conservative(), Capital: 10000},
		{Ticker: "B", Bars: risingOversoldBars(8), Profile: strategy.Aggressive(), Capital: 10000},
	}

	results := RunAll(jobs, 1)
	require.Len(t, results, 2)
	for i, r := range results {
		assert.Equal(t, jobs[i].Ticker, r.Input.Ticker)
		require.NoError(t, r.Err)
	}
}
