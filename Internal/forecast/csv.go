package forecast

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadLSTMCSV reads an LSTM prediction export: first column is the date
// (YYYY-MM-DD), and the named column holds the predicted next-day SMA50
// difference. A positive diff reads as bullish, negative as bearish; zero or
// unparseable values contribute nothing.
func LoadLSTMCSV(path, valueColumn string) (Series, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header, valueColumn)
	if col < 0 {
		return nil, fmt.Errorf("lstm csv %s: column %q not found", path, valueColumn)
	}

	series := Series{}
	for _, row := range rows {
		if len(row) <= col {
			continue
		}
		date, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			// Metadata or malformed rows are skipped, same as the exports
			// produced by the model runner.
			continue
		}
		diff, err := strconv.ParseFloat(strings.TrimSpace(row[col]), 64)
		if err != nil {
			continue
		}
		switch {
		case diff > 0:
			series[DateKey(date)] = Bullish
		case diff < 0:
			series[DateKey(date)] = Bearish
		}
	}
	return series, nil
}

// LoadRandomForestCSV reads a Random Forest prediction export: a Date column
// (YYYY/M/D H:MM) and a predicted next-day price. The direction is the
// predicted price relative to that day's close, so the loader needs the
// close series keyed by date. Rows with dates missing from closes are
// dropped rather than guessed at.
func LoadRandomForestCSV(path, priceColumn string, closes map[time.Time]float64) (Series, error) {
	rows, header, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	dateCol := columnIndex(header, "Date")
	priceCol := columnIndex(header, priceColumn)
	if dateCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("random forest csv %s: need Date and %q columns", path, priceColumn)
	}

	series := Series{}
	for _, row := range rows {
		if len(row) <= dateCol || len(row) <= priceCol {
			continue
		}
		date, err := parseRFDate(strings.TrimSpace(row[dateCol]))
		if err != nil {
			continue
		}
		predicted, err := strconv.ParseFloat(strings.TrimSpace(row[priceCol]), 64)
		if err != nil {
			continue
		}
		key := DateKey(date)
		close, ok := closes[key]
		if !ok || close <= 0 {
			continue
		}
		switch {
		case predicted > close:
			series[key] = Bullish
		case predicted < close:
			series[key] = Bearish
		}
	}
	return series, nil
}

func parseRFDate(s string) (time.Time, error) {
	formats := []string{
		"2006/1/2 15:04",
		"2006/01/02 15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.Parse(f, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func readCSV(path string) (rows [][]string, header []string, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open forecast csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read forecast csv %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("forecast csv %s is empty", path)
	}
	return all[1:], all[0], nil
}

func columnIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(strings.TrimSpace(h), name) {
			return i
		}
	}
	return -1
}
