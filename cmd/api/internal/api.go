package internal

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fazecat/stratlab/Internal/analytics"
	"github.com/fazecat/stratlab/Internal/backtest"
	"github.com/fazecat/stratlab/Internal/database"
	"github.com/fazecat/stratlab/Internal/datafeed"
	"github.com/fazecat/stratlab/Internal/forecast"
	"github.com/fazecat/stratlab/Internal/types"
	"github.com/fazecat/stratlab/Internal/utils/config"
	"github.com/fazecat/stratlab/Internal/utils/formatting"
)

type API struct {
	Config     *config.Config
	JWTManager *JWTManager
	DBEnabled  bool
}

func (api *API) HandleGenerateToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Email  string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	token, err := api.JWTManager.GenerateToken(req.UserID, req.Email, 24)
	if err != nil {
		log.Printf("Error generating token: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to generate token")
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"token":      token,
		"expires_in": 24 * 3600,
	})
}

// HandleRunBacktest runs the requested strategies over fresh daily bars and
// returns the summaries. Results are persisted when the database is up.
func (api *API) HandleRunBacktest(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}
	start := formatting.ParseDate(r.URL.Query().Get("start"))
	end := formatting.ParseDate(r.URL.Query().Get("end"))
	if start.IsZero() || end.IsZero() {
		WriteError(w, http.StatusBadRequest, "start and end dates are required (YYYY-MM-DD)")
		return
	}

	capital := api.Config.Capital
	if v := r.URL.Query().Get("capital"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			WriteError(w, http.StatusBadRequest, "capital must be a positive number")
			return
		}
		capital = parsed
	}

	strategyName := r.URL.Query().Get("strategy")
	if strategyName == "" {
		strategyName = "both"
	}
	var jobs []backtest.Input
	bars, err := datafeed.FetchEnrichedBars(ticker, start, end, 0)
	if err != nil {
		log.Printf("Error fetching bars for %s: %v", ticker, err)
		WriteError(w, http.StatusBadGateway, "Failed to fetch price history")
		return
	}

	adapter := api.loadForecasts(ticker, bars, start, end)

	for _, name := range []string{"conservative", "aggressive"} {
		if strategyName != name && strategyName != "both" {
			continue
		}
		p := api.Config.Profile(name)
		if p == nil {
			continue
		}
		jobs = append(jobs, backtest.Input{
			Ticker:       ticker,
			Bars:         bars,
			Start:        start,
			End:          end,
			Forecasts:    adapter,
			Profile:      *p,
			Capital:      capital,
			RiskFreeRate: api.Config.RiskFreeRate,
		})
	}
	if len(jobs) == 0 {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown strategy %q", strategyName))
		return
	}

	type runOutput struct {
		Profile string            `json:"profile"`
		RunID   int64             `json:"run_id,omitempty"`
		Summary analytics.Summary `json:"summary"`
		Trades  interface{}       `json:"trades"`
		Errors  []string          `json:"warnings,omitempty"`
	}

	var out []runOutput
	for _, jr := range backtest.RunAll(jobs, 0) {
		if jr.Err != nil {
			log.Printf("Backtest error for %s/%s: %v", jr.Input.Ticker, jr.Input.Profile.Name, jr.Err)
			WriteError(w, http.StatusInternalServerError, jr.Err.Error())
			return
		}
		entry := runOutput{
			Profile: jr.Result.Profile,
			Summary: jr.Result.Summary,
			Trades:  jr.Result.Trades,
			Errors:  jr.Result.Warnings,
		}
		if api.DBEnabled {
			runID, err := database.LogBacktestRun(r.Context(), jr.Result, start, end)
			if err != nil {
				log.Printf("Warning: could not persist run: %v", err)
			} else {
				entry.RunID = runID
			}
		}
		out = append(out, entry)
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"ticker": ticker,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
		"runs":   out,
	})
}

// HandleBenchmark runs the buy-and-hold reference for one ticker.
func (api *API) HandleBenchmark(w http.ResponseWriter, r *http.Request) {
	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}
	start := formatting.ParseDate(r.URL.Query().Get("start"))
	end := formatting.ParseDate(r.URL.Query().Get("end"))
	if start.IsZero() || end.IsZero() {
		WriteError(w, http.StatusBadRequest, "start and end dates are required (YYYY-MM-DD)")
		return
	}

	bars, err := datafeed.FetchEnrichedBars(ticker, start, end, 0)
	if err != nil {
		log.Printf("Error fetching bars for %s: %v", ticker, err)
		WriteError(w, http.StatusBadGateway, "Failed to fetch price history")
		return
	}

	res, err := backtest.RunBenchmark(backtest.BenchmarkInput{
		Ticker:           ticker,
		Bars:             backtest.Clip(bars, start, end),
		Capital:          api.Config.Capital,
		PositionFraction: api.Config.Benchmark.PositionFraction,
		RiskFreeRate:     api.Config.RiskFreeRate,
	})
	if err != nil {
		log.Printf("Benchmark error for %s: %v", ticker, err)
		WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}

	WriteJSON(w, http.StatusOK, res)
}

func (api *API) HandleGetRuns(w http.ResponseWriter, r *http.Request) {
	if !api.DBEnabled {
		WriteError(w, http.StatusServiceUnavailable, "Run history requires the database")
		return
	}

	ticker := r.URL.Query().Get("ticker")
	if ticker == "" {
		WriteError(w, http.StatusBadRequest, "ticker query parameter is required")
		return
	}

	limit := int32(50)
	if v := r.URL.Query().Get("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err == nil && parsed > 0 {
			limit = int32(parsed)
		}
	}

	runs, err := database.GetRunHistory(r.Context(), ticker, limit)
	if err != nil {
		log.Printf("Error fetching run history: %v", err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch run history")
		return
	}

	WriteJSON(w, http.StatusOK, runs)
}

func (api *API) HandleGetRunTrades(w http.ResponseWriter, r *http.Request) {
	if !api.DBEnabled {
		WriteError(w, http.StatusServiceUnavailable, "Run history requires the database")
		return
	}

	runID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "run id must be an integer")
		return
	}

	trades, err := database.GetRunTrades(r.Context(), runID)
	if err != nil {
		log.Printf("Error fetching trades for run %d: %v", runID, err)
		WriteError(w, http.StatusInternalServerError, "Failed to fetch trades")
		return
	}

	WriteJSON(w, http.StatusOK, trades)
}

// loadForecasts probes the configured forecast directories for this
// ticker's prediction exports. Missing files mean an indicator-only run.
func (api *API) loadForecasts(ticker string, bars []types.Bar, start, end time.Time) *forecast.Adapter {
	var lstm, rf forecast.Series

	if dir := api.Config.Forecasts.LSTMDir; dir != "" {
		path := filepath.Join(dir, ticker+"_lstm.csv")
		if _, err := os.Stat(path); err == nil {
			series, err := forecast.LoadLSTMCSV(path, "next_day_SMA50_diff")
			if err != nil {
				log.Printf("Skipping LSTM predictions for %s: %v", ticker, err)
			} else {
				lstm = series
			}
		}
	}
	if dir := api.Config.Forecasts.RandomForestDir; dir != "" {
		path := filepath.Join(dir, ticker+"_rf.csv")
		if _, err := os.Stat(path); err == nil {
			series, err := forecast.LoadRandomForestCSV(path, "Random Forest", datafeed.CloseByDate(bars))
			if err != nil {
				log.Printf("Skipping Random Forest predictions for %s: %v", ticker, err)
			} else {
				rf = series
			}
		}
	}

	if lstm == nil && rf == nil {
		return nil
	}
	return forecast.NewAdapter(lstm, rf, start, end)
}
