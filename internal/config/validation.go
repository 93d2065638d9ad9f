package config

import (
	"fmt"
	"strings"
)

// ValidationErrors collects every config problem so a bad file reports
// all of them at once.
type ValidationErrors struct {
	Problems []string
}

func (e *ValidationErrors) add(format string, args ...any) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// HasErrors returns true if any validation errors exist
func (e *ValidationErrors) HasErrors() bool {
	return len(e.Problems) > 0
}

// Error formats all validation errors into a clear message
func (e *ValidationErrors) Error() string {
	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, p := range e.Problems {
		sb.WriteString(fmt.Sprintf("  - %s\n", p))
	}
	return sb.String()
}

func (c *Config) Validate() error {
	errs := &ValidationErrors{}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs.add("server.port must be in 1..65535, got %d", c.Server.Port)
	}

	if c.Feed.TimeoutSec < 1 {
		errs.add("feed.timeout_sec must be >= 1, got %d", c.Feed.TimeoutSec)
	}
	if c.Feed.RetryCount < 0 {
		errs.add("feed.retry_count must be >= 0, got %d", c.Feed.RetryCount)
	}
	if c.Feed.RatePerSecond < 1 {
		errs.add("feed.rate_per_second must be >= 1, got %d", c.Feed.RatePerSecond)
	}

	if c.Engine.MaxDTE < 0 {
		errs.add("engine.max_dte must be >= 0, got %d", c.Engine.MaxDTE)
	}
	if c.Engine.StrikeRangePct <= 0 || c.Engine.StrikeRangePct > 1 {
		errs.add("engine.strike_range_pct must be in (0, 1], got %v", c.Engine.StrikeRangePct)
	}
	if c.Engine.MajorThresholdM <= 0 {
		errs.add("engine.major_threshold_m must be positive, got %v", c.Engine.MajorThresholdM)
	}

	if c.Signals.PinProximityPct <= 0 {
		errs.add("signals.pin_proximity_pct must be positive, got %v", c.Signals.PinProximityPct)
	}
	if c.Signals.PinAfterHour < 0 || c.Signals.PinAfterHour > 23 {
		errs.add("signals.pin_after_hour must be in 0..23, got %d", c.Signals.PinAfterHour)
	}
	if c.Signals.PinDominanceRatio < 1 {
		errs.add("signals.pin_dominance_ratio must be >= 1, got %v", c.Signals.PinDominanceRatio)
	}

	if c.Alerts.CooldownSec < 1 {
		errs.add("alerts.cooldown_sec must be >= 1, got %d", c.Alerts.CooldownSec)
	}

	if c.Notify.Enabled {
		if c.Notify.Topic == "" {
			errs.add("notify.topic is required when notify is enabled")
		}
		switch c.Notify.Priority {
		case "min", "low", "default", "high", "urgent":
		default:
			errs.add("notify.priority must be one of min, low, default, high, urgent, got %q", c.Notify.Priority)
		}
	}

	if len(c.Monitor.Symbols) == 0 {
		errs.add("monitor.symbols must list at least one symbol")
	}
	for _, symbol := range c.Monitor.Symbols {
		if strings.TrimSpace(symbol) == "" {
			errs.add("monitor.symbols must not contain blank entries")
			break
		}
	}
	if c.Monitor.PollIntervalSec < 1 {
		errs.add("monitor.poll_interval_sec must be >= 1, got %d", c.Monitor.PollIntervalSec)
	}

	if c.History.Enabled && c.History.Directory == "" {
		errs.add("history.directory is required when history is enabled")
	}

	if c.Scan.Workers < 1 {
		errs.add("scan.workers must be >= 1, got %d", c.Scan.Workers)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs.add("logging.level must be one of debug, info, warn, error, got %q", c.Logging.Level)
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
