package strategy

import "fmt"

// ExitStyle selects which indicator-exit rule a profile uses.
type ExitStyle string

const (
	// ExitConservative fires only when RSI is overbought AND price touches
	// the upper Bollinger band.
	ExitConservative ExitStyle = "conservative"
	// ExitAggressive fires on RSI overbought OR a lower-band breach OR a
	// MACD bearish cross, each on its own.
	ExitAggressive ExitStyle = "aggressive"
)

// Profile is the immutable configuration of one strategy variant.
type Profile struct {
	Name               string    `yaml:"name"`
	PositionFraction   float64   `yaml:"position_fraction"`
	EntryQuorum        int       `yaml:"entry_quorum"`
	RSIOversold        float64   `yaml:"rsi_oversold"`
	RSIOverbought      float64   `yaml:"rsi_overbought"`
	StopLossPct        float64   `yaml:"stop_loss_pct"`
	TrailingStopWindow int       `yaml:"trailing_stop_window"`
	ExitStyle          ExitStyle `yaml:"exit_style"`
}

// Conservative commits half the portfolio and wants all three indicator
// votes aligned before entering.
func Conservative() Profile {
	return Profile{
		Name:               "conservative",
		PositionFraction:   0.50,
		EntryQuorum:        3,
		RSIOversold:        40,
		RSIOverbought:      70,
		StopLossPct:        0.05,
		TrailingStopWindow: 50,
		ExitStyle:          ExitConservative,
	}
}

// Aggressive commits more capital on a two-vote quorum and exits on any
// single bearish indicator.
func Aggressive() Profile {
	return Profile{
		Name:               "aggressive",
		PositionFraction:   0.70,
		EntryQuorum:        2,
		RSIOversold:        45,
		RSIOverbought:      70,
		StopLossPct:        0.05,
		TrailingStopWindow: 50,
		ExitStyle:          ExitAggressive,
	}
}

// Validate rejects configurations that cannot produce a meaningful run.
func (p Profile) Validate() error {
	if p.PositionFraction <= 0 || p.PositionFraction > 1 {
		return fmt.Errorf("profile %s: position_fraction %.2f must be in (0, 1]", p.Name, p.PositionFraction)
	}
	if p.EntryQuorum < 1 || p.EntryQuorum > 3 {
		return fmt.Errorf("profile %s: entry_quorum %d must be between 1 and 3", p.Name, p.EntryQuorum)
	}
	if p.StopLossPct <= 0 || p.StopLossPct >= 1 {
		return fmt.Errorf("profile %s: stop_loss_pct %.2f must be in (0, 1)", p.Name, p.StopLossPct)
	}
	if p.TrailingStopWindow < 1 {
		return fmt.Errorf("profile %s: trailing_stop_window %d must be positive", p.Name, p.TrailingStopWindow)
	}
	switch p.ExitStyle {
	case ExitConservative, ExitAggressive:
	default:
		return fmt.Errorf("profile %s: unknown exit_style %q", p.Name, p.ExitStyle)
	}
	return nil
}
