package backtest

import (
	"fmt"
	"sort"
	"time"

	"github.com/fazecat/stratlab/Internal/analytics"
	"github.com/fazecat/stratlab/Internal/portfolio"
	"github.com/fazecat/stratlab/Internal/types"
)

// BenchmarkInput configures a buy-and-hold run. PositionFraction should
// match the active strategy's sizing so comparisons stay apples-to-apples;
// it defaults to the conservative 0.50 when left zero.
type BenchmarkInput struct {
	Ticker           string
	Bars             []types.Bar
	Capital          float64
	PositionFraction float64
	RiskFreeRate     float64
}

// RunBenchmark is the degenerate single-decision case of the same ledger
// machinery: buy whole shares on the first bar, hold, mark daily.
func RunBenchmark(in BenchmarkInput) (*Result, error) {
	if in.Capital <= 0 {
		return nil, fmt.Errorf("initial capital %.2f must be positive", in.Capital)
	}
	if in.PositionFraction == 0 {
		in.PositionFraction = 0.50
	}
	if in.PositionFraction < 0 || in.PositionFraction > 1 {
		return nil, fmt.Errorf("position fraction %.2f must be in (0, 1]", in.PositionFraction)
	}
	if err := validateBenchmarkBars(in.Bars); err != nil {
		return nil, err
	}

	ledger := portfolio.NewLedger(in.Capital)
	res := &Result{Ticker: in.Ticker, Profile: "benchmark"}

	first := in.Bars[0]
	shares := int64(in.Capital * in.PositionFraction / first.Close)
	if shares > 0 {
		if err := ledger.Buy(first.Date, first.Close, shares, "Buy and Hold"); err != nil {
			return nil, err
		}
	} else {
		res.SkippedEntries = append(res.SkippedEntries, SkippedEntry{
			Date:   first.Date,
			Price:  first.Close,
			Reason: "capital buys zero shares at first close",
		})
	}

	for _, bar := range in.Bars {
		ledger.MarkToMarket(bar.Date, bar.Close)
	}

	res.Trades = ledger.Trades()
	res.Valuations = ledger.Valuations()
	res.Summary = analytics.Summarize(in.Capital, res.Valuations, res.Trades, in.RiskFreeRate)
	return res, nil
}

// MultiBenchmarkResult is the aggregate of one buy-and-hold run per ticker
// with equal capital allocation, plus the per-ticker breakdown.
type MultiBenchmarkResult struct {
	PerTicker map[string]*Result `json:"per_ticker"`
	Aggregate []types.Valuation  `json:"aggregate"`
	Summary   analytics.Summary  `json:"summary"`
}

// RunMultiBenchmark runs one benchmark per ticker and sums the valuation
// series. Aggregate rows exist only on dates where every ticker has data,
// so the combined curve is never a partial sum.
func RunMultiBenchmark(bars map[string][]types.Bar, capitalPerTicker float64, positionFraction, riskFreeRate float64) (*MultiBenchmarkResult, error) {
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	out := &MultiBenchmarkResult{PerTicker: make(map[string]*Result, len(bars))}

	tickers := make([]string, 0, len(bars))
	for ticker := range bars {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	series := make([][]types.Valuation, 0, len(tickers))
	for _, ticker := range tickers {
		res, err := RunBenchmark(BenchmarkInput{
			Ticker:           ticker,
			Bars:             bars[ticker],
			Capital:          capitalPerTicker,
			PositionFraction: positionFraction,
			RiskFreeRate:     riskFreeRate,
		})
		if err != nil {
			return nil, fmt.Errorf("benchmark %s: %w", ticker, err)
		}
		out.PerTicker[ticker] = res
		series = append(series, res.Valuations)
	}

	out.Aggregate = AggregateValuations(series)
	totalCapital := capitalPerTicker * float64(len(tickers))
	out.Summary = analytics.Summarize(totalCapital, out.Aggregate, nil, riskFreeRate)
	return out, nil
}

// AggregateValuations sums valuation series day by day into one combined
// curve. Rows exist only on dates present in every series, so the sum is
// never partial.
func AggregateValuations(series [][]types.Valuation) []types.Valuation {
	byDate := map[time.Time]*aggregateDay{}
	for _, vs := range series {
		for _, v := range vs {
			day, ok := byDate[v.Date]
			if !ok {
				day = &aggregateDay{}
				byDate[v.Date] = day
			}
			day.value += v.PortfolioValue
			day.cash += v.Cash
			day.position += v.PositionValue
			day.shares += v.SharesHeld
			day.count++
		}
	}

	dates := make([]time.Time, 0, len(byDate))
	for d, day := range byDate {
		if day.count == len(series) {
			dates = append(dates, d)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	out := make([]types.Valuation, 0, len(dates))
	for _, d := range dates {
		day := byDate[d]
		out = append(out, types.Valuation{
			Date:           d,
			PortfolioValue: day.value,
			Cash:           day.cash,
			PositionValue:  day.position,
			SharesHeld:     day.shares,
		})
	}
	return out
}

type aggregateDay struct {
	value    float64
	cash     float64
	position float64
	shares   int64
	count    int
}

// validateBenchmarkBars applies the structural checks without requiring
// indicator warm-up; buy-and-hold needs none.
func validateBenchmarkBars(bars []types.Bar) error {
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
