package datafeed

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadCSVBars(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	csv := "Date,Close\n" +
		"2024-01-03,102.5\n" +
		"2024-01-01,100.0\n" + // out of order on purpose
		"2024-01-02,101.0\n" +
		"garbage,1.0\n"
	if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	bars, err := LoadCSVBars(path)
	if err != nil {
		t.Fatalf("LoadCSVBars failed: %v", err)
	}

	if len(bars) != 3 {
		t.Fatalf("got %d bars, want 3", len(bars))
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !bars[0].Date.Equal(want) {
		t.Errorf("bars must come back oldest first, got %v", bars[0].Date)
	}
	if bars[2].Close != 102.5 {
		t.Errorf("last close = %v, want 102.5", bars[2].Close)
	}
}

func TestLoadCSVBars_MissingColumns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("Foo,Bar\n1,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCSVBars(path); err == nil {
		t.Error("expected error for missing Date/Close columns")
	}
}

func TestCloseByDate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.csv")
	if err := os.WriteFile(path, []byte("Date,Close\n2024-01-01,100.0\n2024-01-02,101.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	bars, err := LoadCSVBars(path)
	if err != nil {
		t.Fatal(err)
	}

	closes := CloseByDate(bars)
	d := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	if closes[d] != 101.0 {
		t.Errorf("closes[%v] = %v, want 101", d, closes[d])
	}
}
