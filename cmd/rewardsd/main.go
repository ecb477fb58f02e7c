package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"activityrewards/cmd/internal/app"
	"activityrewards/config"
	"activityrewards/core/ledger"
	"activityrewards/observability/metrics"
	telemetry "activityrewards/observability/otel"
	"activityrewards/rpc"
)

const serviceName = "rewardsd"

func main() {
	if err := run(); err != nil {
		slog.Error("rewardsd exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	var (
		cfgPath  string
		addr     string
		dataDir  string
		backend  string
		logLevel string
	)
	flag.StringVar(&cfgPath, "config", "./rewards.toml", "path to the TOML or YAML configuration")
	flag.StringVar(&addr, "rpc", "", "override RPCAddress")
	flag.StringVar(&dataDir, "datadir", "", "override DataDir")
	flag.StringVar(&backend, "storage", "", "override Storage.Backend (leveldb|sqlite|postgres|memory)")
	flag.StringVar(&logLevel, "log-level", "", "override Logging.Level")
	flag.Parse()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if v := strings.TrimSpace(addr); v != "" {
		cfg.RPCAddress = v
	}
	if v := strings.TrimSpace(dataDir); v != "" {
		cfg.DataDir = v
	}
	cfg.SetBackend(backend)
	if v := strings.TrimSpace(logLevel); v != "" {
		cfg.Logging.Level = v
	}
	if env := strings.TrimSpace(os.Getenv("REWARDS_ENV")); env != "" {
		cfg.Environment = env
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := app.SetupLogging(serviceName, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, app.TelemetryConfig(serviceName, cfg))
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Warn("telemetry shutdown failed", slog.Any("error", err))
		}
	}()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sinks, err := app.OpenSinks(serviceName, cfg, logger)
	if err != nil {
		return err
	}
	defer sinks.Close()

	hub := rpc.NewHub(0)
	processor, err := app.NewProcessor(cfg, db,
		ledger.WithEmitter(sinks.Emitters(hub)),
		ledger.WithMetrics(metrics.Rewards()),
		ledger.WithLogger(logger),
		ledger.WithClock(time.Now),
	)
	if err != nil {
		return err
	}

	server, err := rpc.NewServer(processor, hub, app.ServerConfig(cfg, logger))
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", cfg.RPCAddress)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.RPCAddress, err)
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(listener)
	}()
	logger.Info("rewards service started",
		slog.String("address", cfg.RPCAddress),
		slog.String("storage", cfg.Storage.Backend),
		slog.Bool("auth", cfg.Auth.Enabled),
		slog.Int("activities", len(cfg.Activities)))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("rpc shutdown", slog.Any("error", err))
	}
	// Serve may not have registered its http.Server yet.
	_ = listener.Close()
	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, net.ErrClosed) {
			return err
		}
		return nil
	case <-shutdownCtx.Done():
		return shutdownCtx.Err()
	}
}
