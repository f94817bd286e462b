package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/fazecat/stratlab/Internal/analytics"
	"github.com/fazecat/stratlab/Internal/backtest"
	"github.com/fazecat/stratlab/Internal/database"
	"github.com/fazecat/stratlab/Internal/datafeed"
	"github.com/fazecat/stratlab/Internal/forecast"
	"github.com/fazecat/stratlab/Internal/strategy"
	"github.com/fazecat/stratlab/Internal/types"
	"github.com/fazecat/stratlab/Internal/utils/config"
	"github.com/fazecat/stratlab/Internal/utils/formatting"
)

const (
	lstmValueColumn = "next_day_SMA50_diff"
	rfPriceColumn   = "Random Forest"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	var (
		tickerFlag   = flag.String("ticker", "", "Stock ticker (e.g. 0005.HK)")
		tickersFlag  = flag.String("tickers", "", "Comma separated tickers for portfolio runs")
		startFlag    = flag.String("start", "", "Start date (YYYY-MM-DD)")
		endFlag      = flag.String("end", "", "End date (YYYY-MM-DD)")
		strategyName = flag.String("strategy", "both", "Strategy: conservative, aggressive or both")
		capitalFlag  = flag.Float64("capital", 0, "Initial capital (0 = config default)")
		lstmPath     = flag.String("lstm-path", "", "Path to LSTM predictions CSV")
		rfPath       = flag.String("rf-path", "", "Path to Random Forest predictions CSV")
		pricesPath   = flag.String("prices", "", "Daily price CSV instead of the data API (single ticker)")
		outputDir    = flag.String("output", "trading_results", "Output directory for results")
		workers      = flag.Int("workers", 0, "Parallel runs (0 = number of CPUs)")
		benchOnly    = flag.Bool("benchmark", false, "Run the buy-and-hold benchmark instead of strategies")
		saveDB       = flag.Bool("save-db", false, "Persist results to Postgres")
		showTrades   = flag.Bool("trades", false, "Print the full trade log")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	tickers := resolveTickers(*tickerFlag, *tickersFlag, cfg)
	if len(tickers) == 0 {
		log.Fatal("No ticker given: use -ticker, -tickers, or config.yaml")
	}

	start := formatting.ParseDate(*startFlag)
	end := formatting.ParseDate(*endFlag)
	if start.IsZero() || end.IsZero() {
		log.Fatal("Both -start and -end dates are required (YYYY-MM-DD)")
	}
	if end.Before(start) {
		log.Fatalf("End date %s is before start date %s", *endFlag, *startFlag)
	}

	capital := cfg.Capital
	if *capitalFlag > 0 {
		capital = *capitalFlag
	}

	if *saveDB {
		if err := database.InitDatabase(); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDatabase()
	}

	barsByTicker := make(map[string][]types.Bar, len(tickers))
	for _, ticker := range tickers {
		bars, err := loadBars(ticker, *pricesPath, len(tickers), start, end)
		if err != nil {
			log.Fatalf("Failed to load bars for %s: %v", ticker, err)
		}
		barsByTicker[ticker] = bars
	}

	if *benchOnly {
		runBenchmark(tickers, barsByTicker, cfg, capital, start, end)
		return
	}

	profiles := resolveProfiles(*strategyName, cfg)
	if len(profiles) == 0 {
		log.Fatalf("Unknown strategy %q: want conservative, aggressive or both", *strategyName)
	}

	var jobs []backtest.Input
	for _, ticker := range tickers {
		adapter := loadForecasts(ticker, *lstmPath, *rfPath, len(tickers), cfg, barsByTicker[ticker], start, end)
		for _, p := range profiles {
			jobs = append(jobs, backtest.Input{
				Ticker:       ticker,
				Bars:         barsByTicker[ticker],
				Start:        start,
				End:          end,
				Forecasts:    adapter,
				Profile:      p,
				Capital:      capital,
				RiskFreeRate: cfg.RiskFreeRate,
			})
		}
	}

	fmt.Print(formatting.RenderHeader(strings.Join(tickers, ", "), *startFlag, *endFlag, capital))

	summaries := map[string]analytics.Summary{}
	valuationsByProfile := map[string][][]types.Valuation{}
	for _, jr := range backtest.RunAll(jobs, *workers) {
		label := fmt.Sprintf("%s %s", jr.Input.Ticker, titleLabel(jr.Input.Profile.Name))
		if jr.Err != nil {
			log.Printf("Error running %s: %v", label, jr.Err)
			continue
		}
		res := jr.Result

		for _, w := range res.Warnings {
			fmt.Printf("\nWARNING: %s\n", w)
		}
		fmt.Print(formatting.RenderSummary(label, res.Summary))
		if *showTrades {
			fmt.Print(formatting.RenderTrades(res))
		}
		summaries[label] = res.Summary
		valuationsByProfile[jr.Input.Profile.Name] = append(valuationsByProfile[jr.Input.Profile.Name], res.Valuations)

		if err := writeResults(*outputDir, res); err != nil {
			log.Printf("Failed to save results for %s: %v", label, err)
		}
		if *saveDB {
			if _, err := database.LogBacktestRun(context.Background(), res, start, end); err != nil {
				log.Printf("Failed to persist %s: %v", label, err)
			}
		}
	}

	if len(tickers) > 1 {
		names := make([]string, 0, len(valuationsByProfile))
		for name := range valuationsByProfile {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			series := valuationsByProfile[name]
			combined := backtest.AggregateValuations(series)
			pooled := capital * float64(len(series))
			label := fmt.Sprintf("Portfolio %s", titleLabel(name))
			fmt.Print(formatting.RenderSummary(label, analytics.Summarize(pooled, combined, nil, cfg.RiskFreeRate)))
		}
	}

	if len(summaries) > 1 {
		fmt.Print(formatting.RenderComparison(summaries))
		fmt.Print(formatting.RenderSharpeRanking(summaries, cfg.RiskFreeRate))
	}
}

func resolveTickers(single, many string, cfg *config.Config) []string {
	if many != "" {
		var out []string
		for _, t := range strings.Split(many, ",") {
			if t = strings.TrimSpace(t); t != "" {
				out = append(out, t)
			}
		}
		return out
	}
	if single != "" {
		return []string{single}
	}
	return cfg.Tickers
}

func resolveProfiles(name string, cfg *config.Config) []strategy.Profile {
	var out []strategy.Profile
	for _, candidate := range []string{"conservative", "aggressive"} {
		if name == candidate || name == "both" {
			if p := cfg.Profile(candidate); p != nil {
				out = append(out, *p)
			}
		}
	}
	return out
}

func loadBars(ticker, pricesPath string, tickerCount int, start, end time.Time) ([]types.Bar, error) {
	if pricesPath != "" {
		if tickerCount > 1 {
			return nil, fmt.Errorf("-prices only supports a single ticker")
		}
		return datafeed.LoadCSVBars(pricesPath)
	}
	return datafeed.FetchEnrichedBars(ticker, start, end, 0)
}

// loadForecasts builds the ML adapter for one ticker. Explicit -lstm-path
// and -rf-path flags win for single-ticker runs; otherwise the configured
// forecast directories are probed for <ticker>_lstm.csv and <ticker>_rf.csv.
// A ticker with no forecast files runs indicator-only.
func loadForecasts(ticker, lstmPath, rfPath string, tickerCount int, cfg *config.Config, bars []types.Bar, start, end time.Time) *forecast.Adapter {
	if tickerCount > 1 {
		lstmPath, rfPath = "", ""
	}
	if lstmPath == "" && cfg.Forecasts.LSTMDir != "" {
		lstmPath = probeFile(filepath.Join(cfg.Forecasts.LSTMDir, ticker+"_lstm.csv"))
	}
	if rfPath == "" && cfg.Forecasts.RandomForestDir != "" {
		rfPath = probeFile(filepath.Join(cfg.Forecasts.RandomForestDir, ticker+"_rf.csv"))
	}

	var lstm, rf forecast.Series
	if lstmPath != "" {
		var err error
		lstm, err = forecast.LoadLSTMCSV(lstmPath, lstmValueColumn)
		if err != nil {
			log.Printf("Skipping LSTM predictions for %s: %v", ticker, err)
		} else {
			log.Printf("Loaded LSTM predictions from %s", lstmPath)
		}
	}
	if rfPath != "" {
		var err error
		rf, err = forecast.LoadRandomForestCSV(rfPath, rfPriceColumn, datafeed.CloseByDate(bars))
		if err != nil {
			log.Printf("Skipping Random Forest predictions for %s: %v", ticker, err)
		} else {
			log.Printf("Loaded Random Forest predictions from %s", rfPath)
		}
	}
	if lstm == nil && rf == nil {
		return nil
	}
	return forecast.NewAdapter(lstm, rf, start, end)
}

func probeFile(path string) string {
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func runBenchmark(tickers []string, barsByTicker map[string][]types.Bar, cfg *config.Config, capital float64, start, end time.Time) {
	fmt.Print(formatting.RenderHeader(strings.Join(tickers, ", "), start.Format("2006-01-02"), end.Format("2006-01-02"), capital))

	if len(tickers) == 1 {
		res, err := backtest.RunBenchmark(backtest.BenchmarkInput{
			Ticker:           tickers[0],
			Bars:             backtest.Clip(barsByTicker[tickers[0]], start, end),
			Capital:          capital,
			PositionFraction: cfg.Benchmark.PositionFraction,
			RiskFreeRate:     cfg.RiskFreeRate,
		})
		if err != nil {
			log.Fatalf("Benchmark failed: %v", err)
		}
		fmt.Print(formatting.RenderSummary(tickers[0]+" Buy & Hold", res.Summary))
		return
	}

	clipped := make(map[string][]types.Bar, len(tickers))
	for t, bars := range barsByTicker {
		clipped[t] = backtest.Clip(bars, start, end)
	}
	multi, err := backtest.RunMultiBenchmark(clipped, cfg.CapitalPerTicker, cfg.Benchmark.PositionFraction, cfg.RiskFreeRate)
	if err != nil {
		log.Fatalf("Multi-ticker benchmark failed: %v", err)
	}
	for ticker, res := range multi.PerTicker {
		fmt.Print(formatting.RenderSummary(ticker+" Buy & Hold", res.Summary))
	}
	fmt.Print(formatting.RenderSummary("Portfolio Buy & Hold", multi.Summary))
}

// writeResults saves one run under <output>/<ticker>_<profile>/ as
// summary.json, trades.csv and portfolio_history.csv.
func writeResults(outputDir string, res *backtest.Result) error {
	dir := filepath.Join(outputDir, fmt.Sprintf("%s_%s", res.Ticker, strings.ToLower(res.Profile)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	summaryJSON, err := json.MarshalIndent(res.Summary, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.json"), summaryJSON, 0o644); err != nil {
		return err
	}

	if err := writeTradesCSV(filepath.Join(dir, "trades.csv"), res.Trades); err != nil {
		return err
	}
	if err := writeValuationsCSV(filepath.Join(dir, "portfolio_history.csv"), res.Valuations); err != nil {
		return err
	}

	fmt.Printf("\nResults saved to: %s/\n", dir)
	return nil
}

func writeTradesCSV(path string, trades []types.Trade) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Action", "Price", "Shares", "Cash_After", "Profit", "Profit_Pct", "Reason"}); err != nil {
		return err
	}
	for _, t := range trades {
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Action,
			strconv.FormatFloat(t.Price, 'f', 4, 64),
			strconv.FormatInt(t.Shares, 10),
			strconv.FormatFloat(t.CashAfter, 'f', 2, 64),
			strconv.FormatFloat(t.Profit, 'f', 2, 64),
			strconv.FormatFloat(t.ProfitPct, 'f', 4, 64),
			t.Reason,
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func writeValuationsCSV(path string, valuations []types.Valuation) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Date", "Portfolio_Value", "Cash", "Position_Value", "Shares_Held"}); err != nil {
		return err
	}
	for _, v := range valuations {
		record := []string{
			v.Date.Format("2006-01-02"),
			strconv.FormatFloat(v.PortfolioValue, 'f', 2, 64),
			strconv.FormatFloat(v.Cash, 'f', 2, 64),
			strconv.FormatFloat(v.PositionValue, 'f', 2, 64),
			strconv.FormatInt(v.SharesHeld, 10),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return w.Error()
}

func titleLabel(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
