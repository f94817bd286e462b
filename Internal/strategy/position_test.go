package strategy

import (
	"errors"
	"testing"
	"time"
)

func TestPosition_EnterSizesWholeShares(t *testing.T) {
	pos := NewPosition()
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	shares, err := pos.Enter(date, 100, 1000, 0.5, 0.05)
	if err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if shares != 5 {
		t.Errorf("shares = %d, want 5", shares)
	}
	if pos.Status != Long {
		t.Errorf("status = %s, want LONG", pos.Status)
	}
	if pos.StopLossPrice != 95 {
		t.Errorf("stop = %v, want 95", pos.StopLossPrice)
	}
}

func TestPosition_EnterInsufficientCapital(t *testing.T) {
	pos := NewPosition()

	_, err := pos.Enter(time.Now(), 100, 150, 0.5, 0.05)
	if !errors.Is(err, ErrInsufficientCapital) {
		t.Fatalf("err = %v, want ErrInsufficientCapital", err)
	}
	if pos.Status != Flat {
		t.Errorf("failed entry must leave the position flat, got %s", pos.Status)
	}
}

func TestPosition_EnterWhileLong(t *testing.T) {
	pos := NewPosition()
	if _, err := pos.Enter(time.Now(), 100, 1000, 0.5, 0.05); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	if _, err := pos.Enter(time.Now(), 100, 1000, 0.5, 0.05); err == nil {
		t.Error("expected error entering an open position")
	}
}

func TestPosition_ExitRealizesProfit(t *testing.T) {
	pos := NewPosition()
	if _, err := pos.Enter(time.Now(), 100, 1000, 0.5, 0.05); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	profit := pos.Exit(110)
	if profit != 50 {
		t.Errorf("profit = %v, want 50 (5 shares x 10)", profit)
	}
	if pos.Status != Flat || pos.Shares != 0 || pos.StopLossPrice != 0 {
		t.Errorf("exit must clear the position, got %+v", pos)
	}
}

func TestPosition_OpenedOn(t *testing.T) {
	entry := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pos := NewPosition()
	if _, err := pos.Enter(entry, 100, 1000, 0.5, 0.05); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}

	if !pos.OpenedOn(entry) {
		t.Error("OpenedOn(entry date) = false")
	}
	if pos.OpenedOn(entry.AddDate(0, 0, 1)) {
		t.Error("OpenedOn(next day) = true")
	}
}
