package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/channel"
	"github.com/danpilch/perfmon/pkg/debug"
)

func (a *app) callCmd() *cobra.Command {
	var (
		repeat   int
		interval time.Duration
		timing   bool
	)

	cmd := &cobra.Command{
		Use:   "call <method> [key=value...]",
		Short: "Invoke one channel method and print the result",
		Long: `Invoke one channel method and print the result as a JSON line.

Methods:
  getAndroidMemoryUsage   PSS of the process in bytes
  getAndroidCPUUsage      aggregate CPU utilization in percent
  getAndroidTotalMemory   physical memory in bytes
  getMemoryInfo           total, available and used memory
  getCpuUsage             average and per-core CPU utilization

Examples:
  perfmon call getAndroidCPUUsage
  perfmon call getAndroidCPUUsage --cpu-mode interval --repeat 5 --interval 1s`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sampler()
			if err != nil {
				return err
			}
			ch := a.bound(s)

			rec := &debug.Recorder{}
			if timing {
				debug.Instrument(ch, rec)
			}

			callArgs, err := parseArgs(args[1:])
			if err != nil {
				return err
			}
			call := channel.Call{Method: args[0], Args: callArgs}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for i := 0; i < max(repeat, 1); i++ {
				if i > 0 {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-time.After(interval):
					}
				}
				res := ch.Invoke(cmd.Context(), call)
				if err := enc.Encode(channel.NewResponse(nil, res)); err != nil {
					return err
				}
			}

			if timing {
				debug.TimingReport(cmd.ErrOrStderr(), rec.Timings())
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&repeat, "repeat", "n", 1, "number of calls")
	cmd.Flags().DurationVar(&interval, "interval", time.Second, "delay between repeated calls")
	cmd.Flags().BoolVar(&timing, "timing", false, "print a call timing report to stderr")
	return cmd
}

func parseArgs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("argument %q is not key=value", p)
		}
		out[k] = v
	}
	return out, nil
}
