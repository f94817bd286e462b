package formatting

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fazecat/stratlab/Internal/analytics"
	"github.com/fazecat/stratlab/Internal/backtest"
)

// RenderHeader prints the run banner: ticker, period, starting capital.
func RenderHeader(ticker, start, end string, capital float64) string {
	var b strings.Builder
	fmt.Fprintln(&b, Separator(80))
	fmt.Fprintf(&b, "Backtest for %s\n", ticker)
	fmt.Fprintf(&b, "Period: %s to %s\n", start, end)
	fmt.Fprintf(&b, "Initial Capital: %s\n", Money(capital))
	fmt.Fprintln(&b, Separator(80))
	return b.String()
}

// RenderSummary prints one strategy's results block.
func RenderSummary(label string, s analytics.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s Results:\n", label)
	fmt.Fprintln(&b, strings.Repeat("-", 50))
	fmt.Fprintf(&b, "Initial Capital:      %s\n", Money(s.InitialCapital))
	fmt.Fprintf(&b, "Final Value:          %s\n", Money(s.FinalValue))
	fmt.Fprintf(&b, "Total Return:         %.2f%%\n", s.TotalReturnPct)
	fmt.Fprintf(&b, "Annualized Return:    %.2f%%\n", s.AnnualizedReturnPct)
	fmt.Fprintf(&b, "Max Drawdown:         %.2f%%\n", s.MaxDrawdownPct)
	fmt.Fprintf(&b, "Std Dev (daily):      %.2f%%\n", s.StdDevDailyPct)
	fmt.Fprintf(&b, "Sharpe Ratio:         %.2f\n", s.SharpeRatio)
	fmt.Fprintf(&b, "Total Trades:         %d\n", s.TotalTrades)
	if s.NoTrades {
		fmt.Fprintln(&b, "Win Rate:             n/a (no closed trades)")
	} else {
		fmt.Fprintf(&b, "Winning Trades:       %d\n", s.WinningTrades)
		fmt.Fprintf(&b, "Losing Trades:        %d\n", s.LosingTrades)
		fmt.Fprintf(&b, "Win Rate:             %.2f%%\n", s.WinRatePct)
		fmt.Fprintf(&b, "Avg Profit (wins):    %s\n", Money(s.AvgProfit))
		fmt.Fprintf(&b, "Avg Loss (losses):    %s\n", Money(s.AvgLoss))
	}
	return b.String()
}

// RenderTrades prints the trade log for one run.
func RenderTrades(res *backtest.Result) string {
	if len(res.Trades) == 0 {
		return "\nNo trades executed.\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "\n%-12s %-6s %-12s %-10s %-14s %s\n",
		"Date", "Side", "Price", "Shares", "Cash After", "Reason")
	fmt.Fprintln(&b, strings.Repeat("-", 80))
	for _, t := range res.Trades {
		fmt.Fprintf(&b, "%-12s %-6s %-12s %-10d %-14s %s\n",
			t.Date.Format("2006-01-02"), t.Action, Money(t.Price), t.Shares, Money(t.CashAfter), t.Reason)
	}
	for _, s := range res.SkippedEntries {
		fmt.Fprintf(&b, "%-12s %-6s %-12s %-10s %-14s %s\n",
			s.Date.Format("2006-01-02"), "SKIP", Money(s.Price), "-", "-", s.Reason)
	}
	return b.String()
}

// RenderComparison prints the side-by-side table for a set of labeled runs.
func RenderComparison(summaries map[string]analytics.Summary) string {
	labels := make([]string, 0, len(summaries))
	for label := range summaries {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var b strings.Builder
	fmt.Fprintf(&b, "\n%-35s %-15s %-12s %-12s %-12s %-10s\n",
		"Strategy", "Final Value", "Return %", "Max DD %", "Std Dev %", "Trades")
	fmt.Fprintln(&b, strings.Repeat("-", 100))
	for _, label := range labels {
		s := summaries[label]
		fmt.Fprintf(&b, "%-35s %-15s %10.2f%%  %10.2f%%  %10.2f%%  %-10d\n",
			label, Money(s.FinalValue), s.TotalReturnPct, s.MaxDrawdownPct, s.StdDevDailyPct, s.TotalTrades)
	}
	return b.String()
}

// RenderSharpeRanking prints all runs ordered best Sharpe first.
func RenderSharpeRanking(summaries map[string]analytics.Summary, riskFreeRate float64) string {
	var b strings.Builder
	fmt.Fprintln(&b, Separator(100))
	fmt.Fprintln(&b, "SHARPE RATIO ANALYSIS")
	fmt.Fprintf(&b, "Risk-free rate: %.1f%%\n", riskFreeRate*100)
	fmt.Fprintln(&b, Separator(100))

	for i, label := range analytics.RankBySharpe(summaries) {
		s := summaries[label]
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, label)
		fmt.Fprintf(&b, "  Final Value:      %s\n", Money(s.FinalValue))
		fmt.Fprintf(&b, "  Total Return:     %.2f%%\n", s.TotalReturnPct)
		fmt.Fprintf(&b, "  Std Dev (daily):  %.2f%%\n", s.StdDevDailyPct)
		fmt.Fprintf(&b, "  Max Drawdown:     %.2f%%\n", s.MaxDrawdownPct)
		fmt.Fprintf(&b, "  Sharpe Ratio:     %.4f\n", s.SharpeRatio)
	}
	return b.String()
}
