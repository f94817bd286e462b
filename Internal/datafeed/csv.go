package datafeed

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/fazecat/stratlab/Internal/indicators"
	"github.com/fazecat/stratlab/Internal/types"
)

// LoadCSVBars reads a daily price history file with a header row containing
// at least Date and Close columns, sorts it oldest first, and runs the
// indicator pass. Used when running offline instead of hitting the data API.
func LoadCSVBars(path string) ([]types.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening price file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading price file %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("price file %s has no data rows", path)
	}

	dateCol, closeCol := -1, -1
	for i, name := range rows[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "close", "adj close", "adj_close":
			if closeCol < 0 || strings.EqualFold(name, "close") {
				closeCol = i
			}
		}
	}
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("price file %s missing Date or Close column", path)
	}

	type row struct {
		date  time.Time
		close float64
	}
	parsed := make([]row, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		if len(rec) <= dateCol || len(rec) <= closeCol {
			continue
		}
		date, err := parseBarDate(rec[dateCol])
		if err != nil {
			continue
		}
		close, err := strconv.ParseFloat(strings.TrimSpace(rec[closeCol]), 64)
		if err != nil {
			continue
		}
		parsed = append(parsed, row{date: date, close: close})
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("price file %s has no parseable rows", path)
	}

	sort.Slice(parsed, func(i, j int) bool { return parsed[i].date.Before(parsed[j].date) })

	dates := make([]time.Time, len(parsed))
	closes := make([]float64, len(parsed))
	for i, r := range parsed {
		dates[i] = r.date
		closes[i] = r.close
	}
	return indicators.Enrich(dates, closes)
}

func parseBarDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006/01/02", "01/02/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
