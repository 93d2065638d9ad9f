package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dgnsrekt/gex-monitor/internal/config"
	"github.com/dgnsrekt/gex-monitor/internal/feed"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
	"github.com/dgnsrekt/gex-monitor/internal/history"
	"github.com/dgnsrekt/gex-monitor/internal/monitor"
	"github.com/dgnsrekt/gex-monitor/internal/notify"
	"github.com/dgnsrekt/gex-monitor/internal/scan"
	"github.com/dgnsrekt/gex-monitor/internal/server"
	"github.com/dgnsrekt/gex-monitor/internal/session"
	"github.com/dgnsrekt/gex-monitor/internal/ws"
)

const version = "0.3.0"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg, err := config.Load(os.Getenv("GEXMON_CONFIG"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 1
	}

	logger, err := setupLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Server.Port),
		zap.Strings("symbols", cfg.Monitor.Symbols),
		zap.Int("pollIntervalSec", cfg.Monitor.PollIntervalSec),
		zap.Bool("alertsEnabled", cfg.Alerts.Enabled),
		zap.Bool("historyEnabled", cfg.History.Enabled),
	)

	provider := feed.NewHTTPProvider(
		cfg.Feed.BaseURL,
		cfg.Feed.APIKey,
		cfg.Feed.RatePerSecond,
		time.Duration(cfg.Feed.TimeoutSec)*time.Second,
		time.Duration(cfg.Feed.RetryDelaySec)*time.Second,
		cfg.Feed.RetryCount,
		logger,
	)
	clock := session.NewClock(cfg.Monitor.Timezone)
	scanner := scan.NewScanner(provider, cfg.Scan.Workers, logger)
	scanner.UseClock(clock.Now)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	hub := ws.NewHub("alerts", logger)
	go hub.Run(ctx)

	notifier := notify.New(&notify.Config{
		Enabled:  cfg.Notify.Enabled,
		Server:   cfg.Notify.Server,
		Topic:    cfg.Notify.Topic,
		Priority: cfg.Notify.Priority,
		Tags:     cfg.Notify.Tags,
		Token:    cfg.Notify.Token,
	}, logger)

	var recorder *history.Recorder
	if cfg.History.Enabled {
		recorder, err = history.NewRecorder(cfg.History.Directory, logger)
		if err != nil {
			logger.Error("failed to create history recorder", zap.Error(err))
			return 1
		}
		defer recorder.Close()
	}

	runner := monitor.NewRunner(monitor.Options{
		Symbols:        cfg.Monitor.Symbols,
		PollInterval:   time.Duration(cfg.Monitor.PollIntervalSec) * time.Second,
		MarketDaysOnly: cfg.Monitor.MarketDaysOnly,
		AlertsEnabled:  cfg.Alerts.Enabled,
		AlertCooldown:  time.Duration(cfg.Alerts.CooldownSec) * time.Second,
		Request: scan.Request{
			Window: feed.FilterWindow{
				MaxDTE:         cfg.Engine.MaxDTE,
				StrikeRangePct: cfg.Engine.StrikeRangePct,
			},
			MajorThresholdM: cfg.Engine.MajorThresholdM,
			Signals: gex.SignalConfig{
				PinProximityPct:   cfg.Signals.PinProximityPct,
				PinAfterHour:      cfg.Signals.PinAfterHour,
				PinDominanceRatio: cfg.Signals.PinDominanceRatio,
			},
		},
	}, scanner, clock, hub, notifier, recorder, logger)
	go runner.Run(ctx)

	srv := server.NewServer(scanner, hub, version, logger)
	srv.UseClock(clock.Now)
	router := server.NewRouter(srv, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Stop the hub and the monitor loop
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

func setupLogger(level string) (*zap.Logger, error) {
	if os.Getenv("GEXMON_DEV") != "" {
		return zap.NewDevelopment()
	}
	zapConfig := zap.NewProductionConfig()
	zapConfig.DisableStacktrace = true
	if level != "" {
		var l zapcore.Level
		if err := l.UnmarshalText([]byte(level)); err == nil {
			zapConfig.Level = zap.NewAtomicLevelAt(l)
		}
	}
	return zapConfig.Build()
}
