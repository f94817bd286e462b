package main

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/fazecat/stratlab/Internal/database"
	"github.com/fazecat/stratlab/Internal/utils/config"
	"github.com/fazecat/stratlab/cmd/api/internal"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../../.env")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	dbEnabled := true
	if err := database.InitDatabase(); err != nil {
		log.Printf("Warning: database unavailable, run history disabled: %v", err)
		dbEnabled = false
	} else {
		defer database.CloseDatabase()
	}

	jwtManager := internal.NewJWTManager()

	apiServer := &internal.API{
		Config:     cfg,
		JWTManager: jwtManager,
		DBEnabled:  dbEnabled,
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(internal.CorsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"data":    "healthy",
		})
	})

	// Public routes
	r.Post("/api/token", apiServer.HandleGenerateToken)
	r.Get("/api/runs", apiServer.HandleGetRuns)
	r.Get("/api/runs/{id}/trades", apiServer.HandleGetRunTrades)
	r.Get("/api/benchmark", apiServer.HandleBenchmark)

	// Backtests run real simulations, so they sit behind auth
	r.Group(func(r chi.Router) {
		r.Use(internal.JWTAuthMiddleware(jwtManager))
		r.Post("/api/backtest", apiServer.HandleRunBacktest)
	})

	log.Println("Starting API server on :8080")
	if err := http.ListenAndServe(":8080", r); err != nil {
		log.Fatal(err)
	}
}
