package datafeed

import (
	"fmt"
	"os"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/fazecat/stratlab/Internal/indicators"
	"github.com/fazecat/stratlab/Internal/types"
	"github.com/fazecat/stratlab/Internal/utils"
)

// DefaultWarmupDays is the calendar buffer fetched before a requested start
// date so the 200-day average and the trailing stop are seeded on day one.
const DefaultWarmupDays = 320

// FetchDailyCloses returns closing prices for symbol between start and end,
// oldest first. Credentials come from ALPACA_API_KEY and ALPACA_API_SECRET.
func FetchDailyCloses(symbol string, start, end time.Time) ([]time.Time, []float64, error) {
	apiKey := os.Getenv("ALPACA_API_KEY")
	secretKey := os.Getenv("ALPACA_API_SECRET")
	if apiKey == "" || secretKey == "" {
		return nil, nil, fmt.Errorf("ALPACA_API_KEY or ALPACA_API_SECRET not set")
	}

	client := marketdata.NewClient(marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: secretKey,
	})

	var raw []marketdata.Bar
	retryConfig := utils.DefaultRetryConfig()

	err := utils.RetryWithBackoff(func() error {
		var fetchErr error
		raw, fetchErr = client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame:  marketdata.OneDay,
			Start:      start,
			End:        end,
			Adjustment: marketdata.Split,
		})
		return fetchErr
	}, retryConfig)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching daily bars for %s: %w", symbol, err)
	}
	if len(raw) == 0 {
		return nil, nil, fmt.Errorf("no daily bars returned for %s between %s and %s",
			symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	dates := make([]time.Time, len(raw))
	closes := make([]float64, len(raw))
	for i, b := range raw {
		dates[i] = time.Date(b.Timestamp.Year(), b.Timestamp.Month(), b.Timestamp.Day(), 0, 0, 0, 0, time.UTC)
		closes[i] = b.Close
	}
	return dates, closes, nil
}

// FetchEnrichedBars fetches daily closes with a leading warm-up buffer and
// runs the indicator pass over the whole series. The returned bars start
// before the requested range; callers clip to [start, end] when simulating.
func FetchEnrichedBars(symbol string, start, end time.Time, warmupDays int) ([]types.Bar, error) {
	if warmupDays <= 0 {
		warmupDays = DefaultWarmupDays
	}
	dates, closes, err := FetchDailyCloses(symbol, start.AddDate(0, 0, -warmupDays), end)
	if err != nil {
		return nil, err
	}
	return indicators.Enrich(dates, closes)
}

// CloseByDate indexes closes by date for forecast alignment.
func CloseByDate(bars []types.Bar) map[time.Time]float64 {
	out := make(map[time.Time]float64, len(bars))
	for _, b := range bars {
		out[b.Date] = b.Close
	}
	return out
}
