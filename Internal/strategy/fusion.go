package strategy

import (
	"fmt"
	"math"
	"strings"

	"github.com/fazecat/stratlab/Internal/forecast"
	"github.com/fazecat/stratlab/Internal/types"
)

// Exit reasons, ordered by the precedence used when several triggers fire on
// the same day. The tightest risk control wins the reported reason; whether
// the exit happens at all is a plain OR over the triggers.
const (
	ReasonStopLoss     = "Stop Loss"
	ReasonMLBearish    = "ML Bearish"
	ReasonIndicator    = "Indicator Exit"
	ReasonTrailingStop = "Trailing Stop"
	ReasonEndOfPeriod  = "End of Period"
)

// EntryVotes is the per-day indicator tally. ML sits apart from the three
// counted votes: when forecasts are available it is a gate, not a vote.
type EntryVotes struct {
	Trend    bool
	Momentum bool
	Oversold bool
	ML       bool
}

// Count returns how many of the three indicator votes are set.
func (v EntryVotes) Count() int {
	n := 0
	for _, b := range []bool{v.Trend, v.Momentum, v.Oversold} {
		if b {
			n++
		}
	}
	return n
}

// EvaluateEntry computes the day's votes from the bar pair and the ML
// verdict. prev is the prior trading day; the MACD crossover is an edge
// condition and cannot be read off a single bar.
func (p Profile) EvaluateEntry(bar, prev types.Bar, v forecast.Verdict) EntryVotes {
	votes := EntryVotes{}

	// A bar whose long averages are still warming up never produces an
	// entry signal.
	if !bar.HasTrendData() {
		return votes
	}

	votes.Trend = bar.Close > bar.SMA200 && bar.Close > bar.SMA50

	if valid(prev.MACD, prev.MACDSignal, bar.MACD, bar.MACDSignal, bar.MACDHist) {
		crossedUp := prev.MACD <= prev.MACDSignal && bar.MACD > bar.MACDSignal
		votes.Momentum = crossedUp && bar.MACDHist > 0
	}

	if !math.IsNaN(bar.RSI) && bar.RSI < p.RSIOversold {
		votes.Oversold = true
	} else if !math.IsNaN(bar.BBLower) && bar.Close <= bar.BBLower {
		votes.Oversold = true
	}

	votes.ML = v.Combined == forecast.Bullish
	return votes
}

// ShouldEnter applies the quorum rule. With forecasts available the ML
// verdict is a hard gate on top of the quorum; without any coverage the gate
// is waived and the indicators decide alone.
func (p Profile) ShouldEnter(votes EntryVotes, mlAvailable bool) (bool, string) {
	if votes.Count() < p.EntryQuorum {
		return false, ""
	}
	if mlAvailable && !votes.ML {
		return false, ""
	}
	return true, p.entryReason(votes, mlAvailable)
}

func (p Profile) entryReason(votes EntryVotes, mlAvailable bool) string {
	parts := []string{}
	if votes.Trend {
		parts = append(parts, "Trend")
	}
	if votes.Momentum {
		parts = append(parts, "MACD")
	}
	if votes.Oversold {
		parts = append(parts, "Oversold")
	}
	if mlAvailable && votes.ML {
		parts = append(parts, "ML Bullish")
	}
	return fmt.Sprintf("%s Entry: %s", titleCase(p.Name), strings.Join(parts, ", "))
}

// EvaluateExit runs the ordered trigger list for an open position.
// trailingStop is the rolling SMA of the profile's trailing window ending on
// this bar (NaN while the window is short). The first true trigger in
// precedence order names the reason; any true trigger fires the exit.
func (p Profile) EvaluateExit(bar, prev types.Bar, v forecast.Verdict, mlAvailable bool, pos *Position, trailingStop float64) (bool, string) {
	triggers := []struct {
		reason string
		fired  bool
	}{
		{ReasonStopLoss, bar.Close <= pos.StopLossPrice},
		{ReasonMLBearish, mlAvailable && v.Combined == forecast.Bearish},
		{ReasonIndicator, p.indicatorExit(bar, prev)},
		{ReasonTrailingStop, !math.IsNaN(trailingStop) && bar.Close < trailingStop},
	}

	for _, t := range triggers {
		if t.fired {
			return true, t.reason
		}
	}
	return false, ""
}

func (p Profile) indicatorExit(bar, prev types.Bar) bool {
	overbought := !math.IsNaN(bar.RSI) && bar.RSI > p.RSIOverbought

	switch p.ExitStyle {
	case ExitConservative:
		upperTouch := !math.IsNaN(bar.BBUpper) && bar.Close >= bar.BBUpper
		return overbought && upperTouch
	case ExitAggressive:
		lowerBreach := !math.IsNaN(bar.BBLower) && bar.Close < bar.BBLower
		bearishCross := false
		if valid(prev.MACD, prev.MACDSignal, bar.MACD, bar.MACDSignal) {
			bearishCross = prev.MACD >= prev.MACDSignal && bar.MACD < bar.MACDSignal
		}
		return overbought || lowerBreach || bearishCross
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func valid(vals ...float64) bool {
	for _, f := range vals {
		if math.IsNaN(f) {
			return false
		}
	}
	return true
}
