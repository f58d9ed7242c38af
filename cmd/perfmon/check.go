package main

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/crosscheck"
	"github.com/danpilch/perfmon/pkg/debug"
	"github.com/danpilch/perfmon/pkg/output"
	"github.com/danpilch/perfmon/pkg/procfs"
	"github.com/danpilch/perfmon/pkg/reading"
)

var errCheckFailed = errors.New("cross-check failed")

func (a *app) checkCmd() *cobra.Command {
	var (
		raw      bool
		fail     bool
		noProbes bool
		suspect  float64
		conflict float64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Cross-check readings against independent sources",
		Long: `Take one snapshot and compare it with gopsutil and the sysinfo syscall,
then run sanity checks (percentages in range, used + available == total,
PSS <= RSS).`,
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

			if raw {
				debug.DumpRaw(cmd.ErrOrStderr(), procfs.NewFS(a.cfg.ProcRoot), a.pid(), nil)
			}

			v := crosscheck.NewValidator()
			v.SuspectThreshold = suspect
			v.ConflictThreshold = conflict
			// keeps an idle CPU at 0.2% vs 0.3% from reading as a conflict
			v.Floor = 1

			var probes []crosscheck.Probe
			if !noProbes {
				probes = crosscheck.DefaultProbes(a.pid())
			}
			res := crosscheck.Run(v, reading.Take(s, time.Now()), probes)

			if format == output.FormatJSON {
				if err := crosscheck.ReportJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				crosscheck.Report(cmd.OutOrStdout(), res)
			}

			if fail && res.Failed() {
				return errCheckFailed
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "dump the raw counters to stderr first")
	cmd.Flags().BoolVar(&fail, "fail", false, "exit non-zero on a conflict or failed sanity check")
	cmd.Flags().BoolVar(&noProbes, "no-probes", false, "only run sanity checks")
	cmd.Flags().Float64Var(&suspect, "suspect", 5, "deviation percent marking a reading suspect")
	cmd.Flags().Float64Var(&conflict, "conflict", 20, "deviation percent marking a reading in conflict")
	return cmd
}
