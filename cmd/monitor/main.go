// Command monitor runs the polling engine headless: no HTTP surface,
// alerts and signals go to ntfy and optionally to the history log.
package main

import (
	"context"
	"fmt"
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
	"github.com/dgnsrekt/gex-monitor/internal/session"
)

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

	logger.Info("monitor starting",
		zap.Strings("symbols", cfg.Monitor.Symbols),
		zap.Int("pollIntervalSec", cfg.Monitor.PollIntervalSec),
		zap.Bool("marketDaysOnly", cfg.Monitor.MarketDaysOnly),
		zap.Bool("ntfyEnabled", cfg.Notify.Enabled),
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
	}, scanner, clock, nil, notify.New(notifyConfig(cfg), logger), recorder, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runner.Run(ctx)

	logger.Info("monitor stopped")
	return 0
}

func notifyConfig(cfg *config.Config) *notify.Config {
	return &notify.Config{
		Enabled:  cfg.Notify.Enabled,
		Server:   cfg.Notify.Server,
		Topic:    cfg.Notify.Topic,
		Priority: cfg.Notify.Priority,
		Tags:     cfg.Notify.Tags,
		Token:    cfg.Notify.Token,
	}
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
