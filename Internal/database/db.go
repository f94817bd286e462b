package database

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
)

var DB *sql.DB

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func InitDatabase() error {
	config := DatabaseConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     getEnvOrDefault("DB_PORT", "5432"),
		User:     getEnvOrDefault("DB_USER", "postgres"),
		Password: os.Getenv("DB_PASSWORD"), // Required - no default
		DBName:   getEnvOrDefault("DB_NAME", "stratlab"),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	var err error
	DB, err = sql.Open("postgres", connStr)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	if err = initializeSchema(); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	fmt.Println("Database connected successfully!")
	return nil
}

// initializeSchema creates result tables if they don't exist
func initializeSchema() error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS backtest_runs (
		id SERIAL PRIMARY KEY,
		ticker TEXT NOT NULL,
		profile TEXT NOT NULL,
		start_date DATE,
		end_date DATE,
		initial_capital NUMERIC NOT NULL,
		final_value NUMERIC NOT NULL,
		total_return_pct REAL NOT NULL,
		annualized_return_pct REAL NOT NULL,
		max_drawdown_pct REAL NOT NULL,
		sharpe_ratio REAL NOT NULL,
		win_rate_pct REAL NOT NULL,
		total_trades INTEGER NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS backtest_trades (
		id SERIAL PRIMARY KEY,
		run_id INTEGER NOT NULL,
		trade_date DATE NOT NULL,
		action TEXT NOT NULL,
		price NUMERIC NOT NULL,
		shares NUMERIC NOT NULL,
		cash_after NUMERIC NOT NULL,
		profit NUMERIC,
		profit_pct REAL,
		reason TEXT,
		FOREIGN KEY(run_id) REFERENCES backtest_runs(id)
	);

	CREATE INDEX IF NOT EXISTS idx_backtest_runs_ticker ON backtest_runs(ticker);
	CREATE INDEX IF NOT EXISTS idx_backtest_trades_run ON backtest_trades(run_id);
	`

	_, err := DB.Exec(schemaSQL)
	return err
}

func CloseDatabase() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func HealthCheck() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}
	return DB.Ping()
}
