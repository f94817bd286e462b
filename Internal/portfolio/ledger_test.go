package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/fazecat/stratlab/Internal/types"
)

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func TestLedger_BuySellRoundTrip(t *testing.T) {
	l := NewLedger(1000)

	if err := l.Buy(day(0), 100, 5, "entry"); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if l.Cash != 500 || l.SharesHeld != 5 {
		t.Errorf("after buy: cash %v shares %d, want 500 / 5", l.Cash, l.SharesHeld)
	}

	if err := l.Sell(day(1), 110, 5, 100, "exit"); err != nil {
		t.Fatalf("Sell failed: %v", err)
	}
	if l.Cash != 1050 || l.SharesHeld != 0 {
		t.Errorf("after sell: cash %v shares %d, want 1050 / 0", l.Cash, l.SharesHeld)
	}

	trades := l.Trades()
	if len(trades) != 2 {
		t.Fatalf("got %d trades, want 2", len(trades))
	}
	sell := trades[1]
	if sell.Action != types.ActionSell || sell.Profit != 50 {
		t.Errorf("sell trade = %+v, want SELL with profit 50", sell)
	}
	if math.Abs(sell.ProfitPct-10) > 1e-9 {
		t.Errorf("profit pct = %v, want 10", sell.ProfitPct)
	}
}

func TestLedger_BuyOverdraw(t *testing.T) {
	l := NewLedger(100)
	if err := l.Buy(day(0), 100, 5, "entry"); err == nil {
		t.Error("expected overdraw error")
	}
	if l.Cash != 100 || l.SharesHeld != 0 {
		t.Errorf("failed buy must not move the account, got cash %v shares %d", l.Cash, l.SharesHeld)
	}
}

func TestLedger_SellMustMatchHolding(t *testing.T) {
	l := NewLedger(1000)
	if err := l.Buy(day(0), 100, 5, "entry"); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}
	if err := l.Sell(day(1), 110, 3, 100, "exit"); err == nil {
		t.Error("expected error selling a partial holding")
	}
}

func TestLedger_MarkToMarketIdentity(t *testing.T) {
	l := NewLedger(1000)
	if err := l.Buy(day(0), 100, 5, "entry"); err != nil {
		t.Fatalf("Buy failed: %v", err)
	}

	prices := []float64{100, 110, 94}
	for i, price := range prices {
		v := l.MarkToMarket(day(i), price)
		want := l.Cash + float64(l.SharesHeld)*price
		if v.PortfolioValue != want {
			t.Errorf("day %d: portfolio value %v != cash %v + position %v", i, v.PortfolioValue, l.Cash, v.PositionValue)
		}
		if v.SharesHeld != l.SharesHeld {
			t.Errorf("day %d: valuation shares %d != ledger shares %d", i, v.SharesHeld, l.SharesHeld)
		}
	}

	if len(l.Valuations()) != len(prices) {
		t.Errorf("got %d valuation rows, want %d", len(l.Valuations()), len(prices))
	}
}
