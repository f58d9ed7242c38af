package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/config"
	"github.com/danpilch/perfmon/pkg/output"
	"github.com/danpilch/perfmon/pkg/reading"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		count int
		score bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll every reading on an interval",
		Long: `Poll every reading on an interval and render it with trend sparklines.
Use --cpu-mode interval to see utilization over each polling window instead
of since boot.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			s, err := a.sampler()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			f := output.NewFormatter(format, w)
			f.SetSparklineTracker(output.NewSparklineTracker(30))
			f.SetShowScore(score)

			ticker := time.NewTicker(a.cfg.Interval)
			defer ticker.Stop()

			for i := 0; count <= 0 || i < count; i++ {
				if i > 0 {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-ticker.C:
					}
				}
				if format == output.FormatTable {
					printf(cmd, "\033[H\033[2J")
				}
				if err := f.Render(reading.Take(s, time.Now())); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().Duration("interval", time.Second, "polling interval")
	cmd.Flags().IntVarP(&count, "count", "c", 0, "stop after this many polls (0 = until interrupted)")
	cmd.Flags().BoolVar(&score, "score", false, "show a health score")
	_ = a.v.BindPFlag(config.KeyInterval, cmd.Flags().Lookup("interval"))
	return cmd
}
