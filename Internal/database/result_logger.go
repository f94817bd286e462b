package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fazecat/stratlab/Internal/backtest"
)

// LogBacktestRun persists a run summary and its trades. Returns the new
// run id so callers can reference it later.
func LogBacktestRun(ctx context.Context, res *backtest.Result, start, end time.Time) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var runID int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO backtest_runs (
			ticker, profile, start_date, end_date,
			initial_capital, final_value,
			total_return_pct, annualized_return_pct, max_drawdown_pct,
			sharpe_ratio, win_rate_pct, total_trades
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id`,
		res.Ticker, res.Profile, start, end,
		decimal.NewFromFloat(res.Summary.InitialCapital).String(),
		decimal.NewFromFloat(res.Summary.FinalValue).String(),
		res.Summary.TotalReturnPct, res.Summary.AnnualizedReturnPct, res.Summary.MaxDrawdownPct,
		res.Summary.SharpeRatio, res.Summary.WinRatePct, res.Summary.TotalTrades,
	).Scan(&runID)
	if err != nil {
		return 0, fmt.Errorf("failed to log run: %w", err)
	}

	for _, t := range res.Trades {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO backtest_trades (
				run_id, trade_date, action, price, shares,
				cash_after, profit, profit_pct, reason
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
			runID, t.Date, t.Action,
			decimal.NewFromFloat(t.Price).String(),
			decimal.NewFromInt(t.Shares).String(),
			decimal.NewFromFloat(t.CashAfter).String(),
			decimal.NewFromFloat(t.Profit).String(),
			t.ProfitPct, t.Reason,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to log trade: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}

	log.Printf("Backtest run logged: %s/%s (%d trades, run id %d)\n",
		res.Ticker, res.Profile, len(res.Trades), runID)
	return runID, nil
}

// RunRow is one persisted summary as read back from storage.
type RunRow struct {
	ID                  int64     `json:"id"`
	Ticker              string    `json:"ticker"`
	Profile             string    `json:"profile"`
	InitialCapital      string    `json:"initial_capital"`
	FinalValue          string    `json:"final_value"`
	TotalReturnPct      float64   `json:"total_return_pct"`
	AnnualizedReturnPct float64   `json:"annualized_return_pct"`
	MaxDrawdownPct      float64   `json:"max_drawdown_pct"`
	SharpeRatio         float64   `json:"sharpe_ratio"`
	WinRatePct          float64   `json:"win_rate_pct"`
	TotalTrades         int       `json:"total_trades"`
	CreatedAt           time.Time `json:"created_at"`
}

func GetRunHistory(ctx context.Context, ticker string, limit int32) ([]RunRow, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, ticker, profile, initial_capital, final_value,
		       total_return_pct, annualized_return_pct, max_drawdown_pct,
		       sharpe_ratio, win_rate_pct, total_trades, created_at
		FROM backtest_runs
		WHERE ticker = $1
		ORDER BY created_at DESC
		LIMIT $2`, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch run history: %w", err)
	}
	defer rows.Close()

	var out []RunRow
	for rows.Next() {
		var r RunRow
		if err := rows.Scan(&r.ID, &r.Ticker, &r.Profile, &r.InitialCapital, &r.FinalValue,
			&r.TotalReturnPct, &r.AnnualizedReturnPct, &r.MaxDrawdownPct,
			&r.SharpeRatio, &r.WinRatePct, &r.TotalTrades, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// TradeRow is one persisted trade as read back from storage.
type TradeRow struct {
	ID        int64     `json:"id"`
	RunID     int64     `json:"run_id"`
	TradeDate time.Time `json:"trade_date"`
	Action    string    `json:"action"`
	Price     string    `json:"price"`
	Shares    string    `json:"shares"`
	CashAfter string    `json:"cash_after"`
	Profit    string    `json:"profit"`
	ProfitPct float64   `json:"profit_pct"`
	Reason    string    `json:"reason"`
}

func GetRunTrades(ctx context.Context, runID int64) ([]TradeRow, error) {
	if DB == nil {
		return nil, fmt.Errorf("database not initialized")
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT id, run_id, trade_date, action, price, shares,
		       cash_after, profit, profit_pct, reason
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY trade_date`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trades: %w", err)
	}
	defer rows.Close()

	var out []TradeRow
	for rows.Next() {
		var t TradeRow
		if err := rows.Scan(&t.ID, &t.RunID, &t.TradeDate, &t.Action, &t.Price, &t.Shares,
			&t.CashAfter, &t.Profit, &t.ProfitPct, &t.Reason); err != nil {
			return nil, fmt.Errorf("failed to scan trade row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
