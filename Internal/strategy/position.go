package strategy

import (
	"errors"
	"time"
)

// Status is the position state. There are exactly two: flat and long.
type Status string

const (
	Flat Status = "FLAT"
	Long Status = "LONG"
)

// ErrInsufficientCapital marks an entry signal that could not buy a single
// share. It is a diagnostic, not a failure: the caller records a skipped
// entry and stays flat.
var ErrInsufficientCapital = errors.New("entry signal skipped: cash buys zero shares")

// Position tracks one open long per ticker. Entry metadata and the fixed
// stop are set together on entry and cleared together on exit.
type Position struct {
	Status        Status
	EntryPrice    float64
	EntryDate     time.Time
	Shares        int64
	StopLossPrice float64
}

// NewPosition starts flat.
func NewPosition() *Position {
	return &Position{Status: Flat}
}

// Enter moves FLAT -> LONG, sizing the position as floor(cash*fraction /
// price) whole shares. A zero-share sizing aborts the transition with
// ErrInsufficientCapital and leaves the state untouched.
func (p *Position) Enter(date time.Time, price, cash, fraction, stopLossPct float64) (int64, error) {
	if p.Status != Flat {
		return 0, errors.New("cannot enter: position already open")
	}
	shares := int64(cash * fraction / price)
	if shares <= 0 {
		return 0, ErrInsufficientCapital
	}

	p.Status = Long
	p.EntryPrice = price
	p.EntryDate = date
	p.Shares = shares
	p.StopLossPrice = price * (1 - stopLossPct)
	return shares, nil
}

// Exit moves LONG -> FLAT, returning the realized P&L at the given price.
func (p *Position) Exit(price float64) float64 {
	if p.Status != Long {
		return 0
	}
	profit := (price - p.EntryPrice) * float64(p.Shares)

	p.Status = Flat
	p.EntryPrice = 0
	p.EntryDate = time.Time{}
	p.Shares = 0
	p.StopLossPrice = 0
	return profit
}

// OpenedOn reports whether the position was opened on the given date. A
// freshly opened position is never exited the same day.
func (p *Position) OpenedOn(date time.Time) bool {
	return p.Status == Long && p.EntryDate.Equal(date)
}
