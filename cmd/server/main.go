/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the holiday overtime engine server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from the environment (viper)
  2. Set up structured logging (zerolog)
  3. Open the SQLite store
  4. Wire the domain services (ledger, sessions, corrections, claims)
  5. Build the proof detector (Gemini if configured, disabled otherwise)
  6. Configure HTTP router and start with graceful shutdown

CONFIGURATION (environment variables):
  SERVER_PORT    HTTP server port (default: 8080)
  DB_PATH        SQLite database path (default: ./data/overtime.db)
                 Use ":memory:" for an in-memory database
  GENAI_API_KEY  Gemini API key; proof detection is disabled when empty
  GENAI_MODEL    Gemini model name (default: gemini-2.5-flash)
  LOCAL_DEV      Pretty console logs at debug level when true

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Cancel pending reminders, close the database
  4. Exit

SEE ALSO:
  - config/config.go: Environment configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/warp/overtime-engine/api"
	"github.com/warp/overtime-engine/config"
	"github.com/warp/overtime-engine/detector"
	"github.com/warp/overtime-engine/engine"
	"github.com/warp/overtime-engine/logging"
	"github.com/warp/overtime-engine/store/sqlite"
	"github.com/warp/overtime-engine/tracker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LocalDev)

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	// Domain services share one clock and one lock table per
	// (employee, holiday) pair.
	clock := engine.RealClock{}
	locks := tracker.NewPairLock()
	ledger := tracker.NewBudgetLedger(store, locks, clock)
	sessions := tracker.NewSessions(store, ledger, locks, clock)
	corrections := tracker.NewCorrections(store, ledger, locks, clock)

	var proofDetector tracker.Detector
	if cfg.GenaiAPIKey != "" {
		proofDetector, err = detector.NewGenai(context.Background(), cfg.GenaiAPIKey, cfg.GenaiModel)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create proof detector")
		}
		log.Info().Str("model", cfg.GenaiModel).Msg("proof detection enabled")
	} else {
		proofDetector = detector.Disabled{}
		log.Warn().Msg("GENAI_API_KEY not set, hour-bank proof detection disabled")
	}
	compensations := tracker.NewCompensations(store, ledger, proofDetector, locks, clock)

	reminders := api.NewReminderScheduler(api.LogNotifier{}, clock)
	defer reminders.Stop()

	handler := api.NewHandler(store, ledger, sessions, corrections, compensations, reminders, clock)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
