package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/davidleathers/dependable-endpoint-agent/internal/domain/risk"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/collector"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/config"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/model"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/storage"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/telemetry"
	"github.com/davidleathers/dependable-endpoint-agent/internal/infrastructure/uplink"
	"github.com/davidleathers/dependable-endpoint-agent/internal/metrics"
	"github.com/davidleathers/dependable-endpoint-agent/internal/service/analytics"
	"github.com/davidleathers/dependable-endpoint-agent/internal/service/pipeline"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

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

	if err := run(ctx, cfg, logger); err != nil {
		slog.Error("agent failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("endpoint agent starting",
		"device_id", cfg.DeviceID,
		"data_dir", cfg.DataDir,
		"interval", cfg.Daemon.Interval)

	if err := os.MkdirAll(cfg.DataDir, 0o700); err != nil {
		return err
	}

	storeLogger, err := telemetry.NewStoreLogger(cfg.Log.Level, cfg.Log.JSON)
	if err != nil {
		return err
	}

	store, err := storage.Open(filepath.Join(cfg.DataDir, "store.db"), []byte(cfg.Secret), storeLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	deps := pipeline.Deps{
		Collectors: buildCollectors(cfg.Collectors),
		Extractor:  analytics.NewExtractor(cfg.Features.WindowEvents, cfg.Features.FeatureDim),
		Model:      model.Load(cfg.ModelPath, cfg.Features.FeatureDim, logger),
		Engine:     risk.NewEngine(cfg.Risk),
		Store:      store,
		Metrics:    metrics.NewRegistry(prometheus.DefaultRegisterer),
		Logger:     logger,
		Interval:   cfg.Daemon.Interval,
	}

	// Uplink is policy-controlled. Leave Deps.Uplink nil unless a client was
	// actually constructed so the orchestrator sees a nil interface.
	if cfg.Uplink.Enabled {
		client, err := uplink.New(cfg.Uplink, cfg.DeviceID, logger)
		if err != nil {
			return err
		}
		deps.Uplink = client
	}

	if cfg.Metrics.Enabled {
		serveMetrics(ctx, cfg.Metrics.Addr, logger)
	}

	return pipeline.New(deps).Run(ctx)
}

func buildCollectors(cfg config.CollectorsConfig) []pipeline.Collector {
	var collectors []pipeline.Collector
	if cfg.Process {
		collectors = append(collectors, collector.NewProcess(cfg.ProcessInterval))
	}
	if cfg.Network {
		collectors = append(collectors, collector.NewNetwork())
	}
	if cfg.FileIntegrity {
		collectors = append(collectors, collector.NewFileIntegrity(cfg.FileInterval, cfg.FilePaths))
	}
	if cfg.Privilege {
		collectors = append(collectors, collector.NewPrivilege())
	}
	return collectors
}

// serveMetrics exposes the Prometheus endpoint in the background and shuts
// it down when ctx is cancelled.
func serveMetrics(ctx context.Context, addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Warn("metrics listener failed", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
}
