// Package config loads service configuration from YAML files and
// GEXMON_ environment variables.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Signals SignalsConfig `mapstructure:"signals"`
	Alerts  AlertsConfig  `mapstructure:"alerts"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Monitor MonitorConfig `mapstructure:"monitor"`
	History HistoryConfig `mapstructure:"history"`
	Scan    ScanConfig    `mapstructure:"scan"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type FeedConfig struct {
	BaseURL       string `mapstructure:"base_url"`
	APIKey        string `mapstructure:"api_key"`
	TimeoutSec    int    `mapstructure:"timeout_sec"`
	RetryCount    int    `mapstructure:"retry_count"`
	RetryDelaySec int    `mapstructure:"retry_delay_sec"`
	RatePerSecond int    `mapstructure:"rate_per_second"`
}

type EngineConfig struct {
	MaxDTE          int     `mapstructure:"max_dte"`
	StrikeRangePct  float64 `mapstructure:"strike_range_pct"`
	MajorThresholdM float64 `mapstructure:"major_threshold_m"`
}

type SignalsConfig struct {
	PinProximityPct   float64 `mapstructure:"pin_proximity_pct"`
	PinAfterHour      int     `mapstructure:"pin_after_hour"`
	PinDominanceRatio float64 `mapstructure:"pin_dominance_ratio"`
}

type AlertsConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	CooldownSec int  `mapstructure:"cooldown_sec"`
}

type NotifyConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Server   string `mapstructure:"server"`
	Topic    string `mapstructure:"topic"`
	Priority string `mapstructure:"priority"`
	Tags     string `mapstructure:"tags"`
	Token    string `mapstructure:"token"`
}

type MonitorConfig struct {
	Symbols         []string `mapstructure:"symbols"`
	PollIntervalSec int      `mapstructure:"poll_interval_sec"`
	Timezone        string   `mapstructure:"timezone"`
	MarketDaysOnly  bool     `mapstructure:"market_days_only"`
}

type HistoryConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Directory string `mapstructure:"directory"`
}

type ScanConfig struct {
	Workers int `mapstructure:"workers"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("feed.base_url", "https://chains.gex.bot")
	v.SetDefault("feed.timeout_sec", 30)
	v.SetDefault("feed.retry_count", 3)
	v.SetDefault("feed.retry_delay_sec", 2)
	v.SetDefault("feed.rate_per_second", 5)
	v.SetDefault("engine.max_dte", 5)
	v.SetDefault("engine.strike_range_pct", 0.15)
	v.SetDefault("engine.major_threshold_m", 100)
	v.SetDefault("signals.pin_proximity_pct", 0.005)
	v.SetDefault("signals.pin_after_hour", 14)
	v.SetDefault("signals.pin_dominance_ratio", 1.5)
	v.SetDefault("alerts.enabled", true)
	v.SetDefault("alerts.cooldown_sec", 300)
	v.SetDefault("notify.enabled", false)
	v.SetDefault("notify.server", "https://ntfy.sh")
	v.SetDefault("notify.priority", "default")
	v.SetDefault("notify.tags", "chart_with_upwards_trend")
	v.SetDefault("monitor.symbols", []string{"SPY"})
	v.SetDefault("monitor.poll_interval_sec", 60)
	v.SetDefault("monitor.timezone", "America/New_York")
	v.SetDefault("monitor.market_days_only", true)
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.directory", "history")
	v.SetDefault("scan.workers", 4)
	v.SetDefault("logging.level", "info")

	// Environment variable support
	v.SetEnvPrefix("GEXMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// Explicitly bind nested keys to env vars
	_ = v.BindEnv("feed.api_key", "GEXMON_API_KEY")
	_ = v.BindEnv("notify.topic", "GEXMON_NOTIFY_TOPIC")
	_ = v.BindEnv("notify.token", "GEXMON_NOTIFY_TOKEN")

	// Load config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("default")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}
