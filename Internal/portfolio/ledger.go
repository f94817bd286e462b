package portfolio

import (
	"fmt"
	"time"

	"github.com/fazecat/stratlab/Internal/types"
)

// Ledger is the per-ticker cash and share account. Trades and valuations
// are append-only; valuations are written once per simulated day so the
// downstream drawdown math always sees a continuous series.
type Ledger struct {
	InitialCapital float64
	Cash           float64
	SharesHeld     int64

	trades     []types.Trade
	valuations []types.Valuation
}

// NewLedger opens an account with the given starting capital.
func NewLedger(capital float64) *Ledger {
	return &Ledger{
		InitialCapital: capital,
		Cash:           capital,
	}
}

// Buy debits cash and records the trade. Funding is checked here as a
// hard invariant: the position sizing upstream must never overdraw.
func (l *Ledger) Buy(date time.Time, price float64, shares int64, reason string) error {
	cost := price * float64(shares)
	if cost > l.Cash {
		return fmt.Errorf("buy of %d shares @ %.4f costs %.2f, only %.2f cash available", shares, price, cost, l.Cash)
	}

	l.Cash -= cost
	l.SharesHeld += shares
	l.trades = append(l.trades, types.Trade{
		Date:        date,
		Action:      types.ActionBuy,
		Price:       price,
		Shares:      shares,
		CashAfter:   l.Cash,
		SharesAfter: l.SharesHeld,
		Reason:      reason,
	})
	return nil
}

// Sell credits the proceeds, zeroes the holding and records the trade with
// its realized profit against the given entry price.
func (l *Ledger) Sell(date time.Time, price float64, shares int64, entryPrice float64, reason string) error {
	if shares != l.SharesHeld {
		return fmt.Errorf("sell of %d shares does not match holding of %d", shares, l.SharesHeld)
	}

	l.Cash += price * float64(shares)
	l.SharesHeld = 0

	profit := (price - entryPrice) * float64(shares)
	profitPct := 0.0
	if entryPrice > 0 {
		profitPct = (price - entryPrice) / entryPrice * 100
	}
	l.trades = append(l.trades, types.Trade{
		Date:        date,
		Action:      types.ActionSell,
		Price:       price,
		Shares:      shares,
		CashAfter:   l.Cash,
		SharesAfter: 0,
		Profit:      profit,
		ProfitPct:   profitPct,
		Reason:      reason,
	})
	return nil
}

// MarkToMarket appends the end-of-day valuation row at the given price.
func (l *Ledger) MarkToMarket(date time.Time, price float64) types.Valuation {
	positionValue := float64(l.SharesHeld) * price
	v := types.Valuation{
		Date:           date,
		PortfolioValue: l.Cash + positionValue,
		Cash:           l.Cash,
		PositionValue:  positionValue,
		SharesHeld:     l.SharesHeld,
	}
	l.valuations = append(l.valuations, v)
	return v
}

// Trades returns the recorded trade rows in execution order.
func (l *Ledger) Trades() []types.Trade { return l.trades }

// Valuations returns the daily valuation rows in date order.
func (l *Ledger) Valuations() []types.Valuation { return l.valuations }
