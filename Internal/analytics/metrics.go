package analytics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/fazecat/stratlab/Internal/types"
)

// TradingDaysPerYear is used to annualize the Sharpe ratio.
const TradingDaysPerYear = 252

// Summary is the performance record derived from one run's valuations and
// trades. NoTrades distinguishes a genuine 0% win rate from "ran but found
// nothing to trade".
type Summary struct {
	InitialCapital      float64 `json:"initial_capital"`
	FinalValue          float64 `json:"final_value"`
	TotalReturnPct      float64 `json:"total_return_pct"`
	AnnualizedReturnPct float64 `json:"annualized_return_pct"`
	MaxDrawdownPct      float64 `json:"max_drawdown_pct"`
	StdDevDailyPct      float64 `json:"std_dev_daily_pct"`
	SharpeRatio         float64 `json:"sharpe_ratio"`
	TotalTrades         int     `json:"total_trades"`
	WinningTrades       int     `json:"winning_trades"`
	LosingTrades        int     `json:"losing_trades"`
	WinRatePct          float64 `json:"win_rate_pct"`
	NoTrades            bool    `json:"no_trades"`
	AvgProfit           float64 `json:"avg_profit"`
	AvgLoss             float64 `json:"avg_loss"`
}

// Summarize is a pure function of the valuation and trade series.
// riskFreeRate is the annual rate used by the Sharpe ratio; zero unless
// configured otherwise.
func Summarize(initialCapital float64, valuations []types.Valuation, trades []types.Trade, riskFreeRate float64) Summary {
	s := Summary{InitialCapital: initialCapital}
	if len(valuations) == 0 {
		s.NoTrades = true
		return s
	}

	s.FinalValue = valuations[len(valuations)-1].PortfolioValue
	s.TotalReturnPct = (s.FinalValue/initialCapital - 1) * 100
	s.AnnualizedReturnPct = annualize(s.FinalValue/initialCapital, valuations)
	s.MaxDrawdownPct = MaxDrawdownPct(valuations)

	returns := dailyReturns(valuations)
	if len(returns) > 0 {
		s.StdDevDailyPct = stat.PopStdDev(returns, nil) * 100
		s.SharpeRatio = sharpe(returns, riskFreeRate)
	}

	tallyTrades(&s, trades)
	return s
}

// MaxDrawdownPct is the worst peak-to-trough decline over the series, as a
// negative percentage of the running peak.
func MaxDrawdownPct(valuations []types.Valuation) float64 {
	worst := 0.0
	peak := math.Inf(-1)
	for _, v := range valuations {
		if v.PortfolioValue > peak {
			peak = v.PortfolioValue
		}
		dd := (v.PortfolioValue - peak) / peak * 100
		if dd < worst {
			worst = dd
		}
	}
	return worst
}

// RankBySharpe orders named summaries best-first.
func RankBySharpe(summaries map[string]Summary) []string {
	names := make([]string, 0, len(summaries))
	for name := range summaries {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := summaries[names[i]], summaries[names[j]]
		if a.SharpeRatio != b.SharpeRatio {
			return a.SharpeRatio > b.SharpeRatio
		}
		return names[i] < names[j]
	})
	return names
}

func annualize(growth float64, valuations []types.Valuation) float64 {
	days := valuations[len(valuations)-1].Date.Sub(valuations[0].Date).Hours() / 24
	years := days / 365.25
	if years <= 0 || growth <= 0 {
		return 0
	}
	return (math.Pow(growth, 1/years) - 1) * 100
}

func dailyReturns(valuations []types.Valuation) []float64 {
	returns := make([]float64, 0, len(valuations)-1)
	for i := 1; i < len(valuations); i++ {
		prev := valuations[i-1].PortfolioValue
		if prev == 0 {
			continue
		}
		returns = append(returns, valuations[i].PortfolioValue/prev-1)
	}
	return returns
}

func sharpe(returns []float64, riskFreeRate float64) float64 {
	sd := stat.PopStdDev(returns, nil)
	if sd == 0 {
		return 0
	}
	dailyRF := riskFreeRate / TradingDaysPerYear
	return (stat.Mean(returns, nil) - dailyRF) / sd * math.Sqrt(TradingDaysPerYear)
}

func tallyTrades(s *Summary, trades []types.Trade) {
	profitSum, lossSum := 0.0, 0.0
	closed := 0
	for _, t := range trades {
		switch t.Action {
		case types.ActionBuy:
			s.TotalTrades++
		case types.ActionSell:
			closed++
			if t.Profit > 0 {
				s.WinningTrades++
				profitSum += t.Profit
			} else if t.Profit < 0 {
				s.LosingTrades++
				lossSum += t.Profit
			}
		}
	}

	if closed == 0 {
		s.NoTrades = true
		return
	}
	s.WinRatePct = float64(s.WinningTrades) / float64(closed) * 100
	if s.WinningTrades > 0 {
		s.AvgProfit = profitSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = lossSum / float64(s.LosingTrades)
	}
}
