package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgnsrekt/gex-monitor/internal/gex"
	"github.com/dgnsrekt/gex-monitor/internal/history"
)

func replayCmd() *cobra.Command {
	var day string

	cmd := &cobra.Command{
		Use:   "replay SYMBOL",
		Short: "Print recorded profiles for a symbol from the history log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			symbol := strings.ToUpper(strings.TrimSpace(args[0]))
			if day == "" {
				day = time.Now().Format("2006-01-02")
			}

			recorder, err := history.NewRecorder(cfg.History.Directory, logger)
			if err != nil {
				return err
			}
			defer recorder.Close()

			profiles, err := recorder.ReadDay(symbol, day)
			if err != nil {
				return err
			}
			if len(profiles) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no history for %s on %s\n", symbol, day)
				return nil
			}

			out := cmd.OutOrStdout()
			for _, p := range profiles {
				fmt.Fprintf(out, "%s  spot %.2f  net %.0fM  regime %s  call %s  put %s  zg %s\n",
					p.ComputedAt.Format("15:04:05"),
					p.SpotPrice,
					p.TotalNetGexM,
					gex.Classify(p.TotalNetGexM),
					fmtLevel(p.CallWall),
					fmtLevel(p.PutWall),
					fmtLevel(p.ZeroGamma),
				)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&day, "day", "", "trading day to replay (YYYY-MM-DD, default today)")

	return cmd
}
