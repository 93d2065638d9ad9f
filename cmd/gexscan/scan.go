package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-monitor/internal/feed"
	"github.com/dgnsrekt/gex-monitor/internal/gex"
	"github.com/dgnsrekt/gex-monitor/internal/scan"
	"github.com/dgnsrekt/gex-monitor/internal/session"
)

func scanCmd() *cobra.Command {
	var (
		maxDTE          int
		strikeRangePct  float64
		majorThresholdM float64
		showLevels      bool
	)

	cmd := &cobra.Command{
		Use:   "scan SYMBOL [SYMBOL...]",
		Short: "Compute gamma exposure profiles for one or more symbols",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbols := make([]string, 0, len(args))
			for _, arg := range args {
				symbols = append(symbols, strings.ToUpper(strings.TrimSpace(arg)))
			}

			provider := feed.NewHTTPProvider(
				cfg.Feed.BaseURL,
				cfg.Feed.APIKey,
				cfg.Feed.RatePerSecond,
				time.Duration(cfg.Feed.TimeoutSec)*time.Second,
				time.Duration(cfg.Feed.RetryDelaySec)*time.Second,
				cfg.Feed.RetryCount,
				logger,
			)
			scanner := scan.NewScanner(provider, cfg.Scan.Workers, logger)
			scanner.UseClock(session.NewClock(cfg.Monitor.Timezone).Now)

			req := scan.Request{
				Symbols:         symbols,
				Window:          feed.FilterWindow{MaxDTE: maxDTE, StrikeRangePct: strikeRangePct},
				MajorThresholdM: majorThresholdM,
				Signals: gex.SignalConfig{
					PinProximityPct:   cfg.Signals.PinProximityPct,
					PinAfterHour:      cfg.Signals.PinAfterHour,
					PinDominanceRatio: cfg.Signals.PinDominanceRatio,
				},
			}

			start := time.Now()
			batch, err := scanner.Scan(cmd.Context(), req)
			if err != nil {
				return err
			}

			for _, res := range batch.Results {
				printResult(cmd, res, showLevels)
			}

			logger.Info("scan finished",
				zap.Int("total", batch.Total),
				zap.Int("success", batch.Success),
				zap.Int("noData", batch.NoData),
				zap.Int("failed", batch.Failed),
				zap.Duration("duration", time.Since(start).Round(time.Millisecond)),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&maxDTE, "max-dte", 5, "keep expirations at most this many days out")
	cmd.Flags().Float64Var(&strikeRangePct, "strike-range", 0.15, "keep strikes within this fraction of spot")
	cmd.Flags().Float64Var(&majorThresholdM, "major-threshold", 100, "major level cutoff in $M of net GEX")
	cmd.Flags().BoolVar(&showLevels, "levels", false, "print major levels per symbol")

	return cmd
}

func printResult(cmd *cobra.Command, res scan.SymbolResult, showLevels bool) {
	out := cmd.OutOrStdout()

	switch {
	case res.NoData:
		fmt.Fprintf(out, "%-8s no options listed\n", res.Symbol)
		return
	case res.Error != "":
		fmt.Fprintf(out, "%-8s error: %s\n", res.Symbol, res.Error)
		return
	}

	p := res.Profile
	fmt.Fprintf(out, "%-8s spot %.2f  net %.0fM  regime %s\n",
		p.Symbol, p.SpotPrice, p.TotalNetGexM, res.Regime)
	fmt.Fprintf(out, "         call wall %s  put wall %s  zero gamma %s\n",
		fmtLevel(p.CallWall), fmtLevel(p.PutWall), fmtLevel(p.ZeroGamma))

	if res.Signal != nil {
		fmt.Fprintf(out, "         signal %s (%s): %s\n", res.Signal.Type, res.Signal.Bias, res.Signal.Message)
	}

	if showLevels {
		for _, lvl := range p.MajorLevels {
			fmt.Fprintf(out, "         %-4s %.2f  %+.0fM\n", lvl.Side, lvl.Strike, lvl.NetGexM)
		}
	}
}

func fmtLevel(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}
