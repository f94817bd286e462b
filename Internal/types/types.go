package types

import (
	"math"
	"time"
)

// Bar is one trading day together with the indicator values the strategies
// read. Indicator fields hold NaN while their window is still warming up.
type Bar struct {
	Date       time.Time
	Close      float64
	SMA50      float64
	SMA200     float64
	MACD       float64
	MACDSignal float64
	MACDHist   float64
	RSI        float64
	BBUpper    float64
	BBLower    float64
}

// HasTrendData reports whether the long moving averages are seeded.
// Entries are never taken off a bar that is still warming up.
func (b Bar) HasTrendData() bool {
	return !math.IsNaN(b.SMA50) && !math.IsNaN(b.SMA200)
}

const (
	ActionBuy  = "BUY"
	ActionSell = "SELL"
)

// Trade is one executed BUY or SELL as reported downstream.
// Profit and ProfitPct are only meaningful on SELL rows.
type Trade struct {
	Date        time.Time `json:"date"`
	Action      string    `json:"action"`
	Price       float64   `json:"price"`
	Shares      int64     `json:"shares"`
	CashAfter   float64   `json:"cash_after"`
	SharesAfter int64     `json:"shares_after"`
	Profit      float64   `json:"profit"`
	ProfitPct   float64   `json:"profit_pct"`
	Reason      string    `json:"reason"`
}

// Valuation is the end-of-day mark-to-market row. One is emitted for every
// simulated day whether or not a trade occurred.
type Valuation struct {
	Date           time.Time `json:"date"`
	PortfolioValue float64   `json:"portfolio_value"`
	Cash           float64   `json:"cash"`
	PositionValue  float64   `json:"position_value"`
	SharesHeld     int64     `json:"shares_held"`
}
