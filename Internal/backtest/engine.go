package backtest

import (
	"errors"
	"fmt"
	"time"

	"github.com/fazecat/stratlab/Internal/analytics"
	"github.com/fazecat/stratlab/Internal/forecast"
	"github.com/fazecat/stratlab/Internal/indicators"
	"github.com/fazecat/stratlab/Internal/portfolio"
	"github.com/fazecat/stratlab/Internal/strategy"
	"github.com/fazecat/stratlab/Internal/types"
)

// ErrNoData marks a run that had nothing to simulate, as opposed to one
// that ran and found nothing to trade.
var ErrNoData = errors.New("no data to simulate")

// Input is everything one backtest needs. Bars must be chronological and
// should include leading history before Start so the long averages and the
// trailing stop are seeded when simulation begins. Bars and Forecasts are
// read-only; runs sharing them may execute concurrently.
type Input struct {
	Ticker       string
	Bars         []types.Bar
	Start        time.Time // zero = first bar
	End          time.Time // zero = last bar
	Forecasts    *forecast.Adapter
	Profile      strategy.Profile
	Capital      float64
	RiskFreeRate float64
}

// SkippedEntry records an entry signal that could not be taken. Kept apart
// from "no signal" days so sizing problems stay visible in the output.
type SkippedEntry struct {
	Date   time.Time `json:"date"`
	Price  float64   `json:"price"`
	Reason string    `json:"reason"`
}

// Result is the full output of one (ticker, profile) run.
type Result struct {
	Ticker         string            `json:"ticker"`
	Profile        string            `json:"profile"`
	Summary        analytics.Summary `json:"summary"`
	Trades         []types.Trade     `json:"trades"`
	Valuations     []types.Valuation `json:"valuations"`
	SkippedEntries []SkippedEntry    `json:"skipped_entries,omitempty"`
	Warnings       []string          `json:"warnings,omitempty"`
}

// Run simulates one strategy over one ticker's bars: a single chronological
// pass where each day's decision reads only that day and strictly earlier
// days. Same inputs always produce the same trades and valuations.
func Run(in Input) (*Result, error) {
	if err := in.Profile.Validate(); err != nil {
		return nil, err
	}
	if in.Capital <= 0 {
		return nil, fmt.Errorf("initial capital %.2f must be positive", in.Capital)
	}
	if err := ValidateBars(in.Bars); err != nil {
		return nil, err
	}

	startIdx, endIdx := clipRange(in.Bars, in.Start, in.End)
	if startIdx > endIdx {
		return nil, fmt.Errorf("%w: no bars between %s and %s", ErrNoData,
			in.Start.Format("2006-01-02"), in.End.Format("2006-01-02"))
	}
	if err := checkWarmup(in.Bars[startIdx : endIdx+1]); err != nil {
		return nil, err
	}

	res := &Result{
		Ticker:  in.Ticker,
		Profile: in.Profile.Name,
	}

	mlAvailable := in.Forecasts != nil && in.Forecasts.Available()
	if !mlAvailable {
		res.Warnings = append(res.Warnings,
			"no ML forecast coverage for the simulated range; running indicator-only")
	}

	ledger := portfolio.NewLedger(in.Capital)
	pos := strategy.NewPosition()

	// The trailing stop is the rolling SMA of the profile's window ending
	// on the current bar, seeded from the leading history.
	closes := make([]float64, len(in.Bars))
	for i, b := range in.Bars {
		closes[i] = b.Close
	}
	trailing := indicators.SMA(closes, in.Profile.TrailingStopWindow)

	for g := startIdx; g <= endIdx; g++ {
		bar := in.Bars[g]

		if g > 0 {
			prev := in.Bars[g-1]
			verdict := forecast.Verdict{Combined: forecast.Neutral}
			if in.Forecasts != nil {
				verdict = in.Forecasts.VerdictOn(bar.Date)
			}

			if pos.Status == strategy.Long && !pos.OpenedOn(bar.Date) {
				exit, reason := in.Profile.EvaluateExit(bar, prev, verdict, mlAvailable, pos, trailing[g])
				if exit {
					if err := sellOut(ledger, pos, bar.Date, bar.Close, reason); err != nil {
						return nil, err
					}
				}
			} else if pos.Status == strategy.Flat {
				votes := in.Profile.EvaluateEntry(bar, prev, verdict)
				if enter, reason := in.Profile.ShouldEnter(votes, mlAvailable); enter {
					shares, err := pos.Enter(bar.Date, bar.Close, ledger.Cash, in.Profile.PositionFraction, in.Profile.StopLossPct)
					switch {
					case errors.Is(err, strategy.ErrInsufficientCapital):
						res.SkippedEntries = append(res.SkippedEntries, SkippedEntry{
							Date:   bar.Date,
							Price:  bar.Close,
							Reason: err.Error(),
						})
					case err != nil:
						return nil, err
					default:
						if err := ledger.Buy(bar.Date, bar.Close, shares, reason); err != nil {
							return nil, err
						}
					}
				}
			}
		}

		ledger.MarkToMarket(bar.Date, bar.Close)
	}

	// An open position is liquidated at the final close so the summary
	// reflects fully realized results. The sale converts shares to cash at
	// the marked price, so the day's valuation row is unchanged by it.
	if pos.Status == strategy.Long {
		last := in.Bars[endIdx]
		if err := sellOut(ledger, pos, last.Date, last.Close, strategy.ReasonEndOfPeriod); err != nil {
			return nil, err
		}
	}

	res.Trades = ledger.Trades()
	res.Valuations = ledger.Valuations()
	res.Summary = analytics.Summarize(in.Capital, res.Valuations, res.Trades, in.RiskFreeRate)
	return res, nil
}

func sellOut(ledger *portfolio.Ledger, pos *strategy.Position, date time.Time, price float64, reason string) error {
	shares := pos.Shares
	entryPrice := pos.EntryPrice
	pos.Exit(price)
	return ledger.Sell(date, price, shares, entryPrice, reason)
}

// ValidateBars enforces the structural input contract: bars exist, dates
// are strictly ascending with no duplicates, and prices are positive.
// Violations abort the run; they are never silently repaired.
func ValidateBars(bars []types.Bar) error {
	if len(bars) == 0 {
		return ErrNoData
	}
	for i, b := range bars {
		if b.Close <= 0 {
			return fmt.Errorf("bar %s: non-positive close %.4f", b.Date.Format("2006-01-02"), b.Close)
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return fmt.Errorf("bar dates not strictly ascending at %s", b.Date.Format("2006-01-02"))
		}
	}
	return nil
}

// checkWarmup rejects a simulated range none of whose bars carries seeded
// long averages: without them no entry can ever fire and every result
// would be a silent no-op.
func checkWarmup(simBars []types.Bar) error {
	for _, b := range simBars {
		if b.HasTrendData() {
			return nil
		}
	}
	return fmt.Errorf("insufficient leading history: no simulated bar has seeded 50/200-day averages (%d bars)", len(simBars))
}

// Clip returns the bars within [start, end]; zero bounds are open.
func Clip(bars []types.Bar, start, end time.Time) []types.Bar {
	startIdx, endIdx := clipRange(bars, start, end)
	if startIdx > endIdx {
		return nil
	}
	return bars[startIdx : endIdx+1]
}

func clipRange(bars []types.Bar, start, end time.Time) (int, int) {
	startIdx := 0
	endIdx := len(bars) - 1
	if !start.IsZero() {
		for startIdx <= endIdx && bars[startIdx].Date.Before(start) {
			startIdx++
		}
	}
	if !end.IsZero() {
		for endIdx >= startIdx && bars[endIdx].Date.After(end) {
			endIdx--
		}
	}
	return startIdx, endIdx
}
