package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/errors"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/config"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/storage"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/telemetry"
)

// Command-line flags
var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	mode       = flag.String("mode", "stats", "Operation mode: prune, get, stats")
	olderThan  = flag.Duration("older-than", 30*24*time.Hour, "Prune events older than this duration")
	eventID    = flag.String("id", "", "Event ID for the get operation")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger, err := telemetry.SetupLogger(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		slog.Error("failed to setup logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	storeLogger, err := telemetry.NewStoreLogger(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		logger.Error("failed to setup store logger", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "store.db"), []byte(cfg.Secret), storeLogger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	switch *mode {
	case "prune":
		err = runPrune(store, logger)
	case "get":
		err = runGet(store)
	case "stats":
		err = runStats(store)
	default:
		err = errors.NewValidationError("INVALID_MODE", fmt.Sprintf("unknown mode: %s", *mode))
	}

	if err != nil {
		logger.Error("operation failed", "mode", *mode, "error", err)
		os.Exit(1)
	}
}

// runPrune deletes every event strictly older than the -older-than cutoff.
func runPrune(store *storage.Store, logger *slog.Logger) error {
	if *olderThan <= 0 {
		return errors.NewValidationError("INVALID_RETENTION", "older-than must be positive")
	}
	cutoff := time.Now().UTC().Add(-*olderThan)

	pruned, err := store.PruneBefore(cutoff.UnixMilli())
	if err != nil {
		return err
	}

	logger.Info("prune completed",
		"pruned", pruned,
		"cutoff", cutoff.Format(time.RFC3339))
	return nil
}

// runGet decrypts one record and prints it to stdout.
func runGet(store *storage.Store) error {
	if *eventID == "" {
		return errors.NewValidationError("MISSING_ID", "id is required for the get operation")
	}

	rec, err := store.GetEvent(*eventID)
	if err != nil {
		return err
	}
	if rec == nil {
		return errors.NewValidationError("NOT_FOUND", fmt.Sprintf("no event with id %s", *eventID))
	}

	fmt.Printf("id:    %s\n", rec.ID)
	fmt.Printf("ts:    %s\n", time.UnixMilli(rec.TS).UTC().Format(time.RFC3339))
	fmt.Printf("kind:  %s\n", rec.Kind)
	if rec.RiskScore != nil {
		fmt.Printf("score: %.4f\n", *rec.RiskScore)
	}
	fmt.Printf("payload:\n%s\n", rec.Payload)
	return nil
}

// runStats prints row count and timestamp bounds.
func runStats(store *storage.Store) error {
	count, oldest, newest, err := store.Stats()
	if err != nil {
		return err
	}

	fmt.Printf("events: %d\n", count)
	if count > 0 {
		fmt.Printf("oldest: %s\n", time.UnixMilli(oldest).UTC().Format(time.RFC3339))
		fmt.Printf("newest: %s\n", time.UnixMilli(newest).UTC().Format(time.RFC3339))
	}
	return nil
}
