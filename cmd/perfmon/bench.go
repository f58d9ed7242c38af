package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/benchmark"
	"github.com/danpilch/perfmon/pkg/output"
)

func (a *app) benchCmd() *cobra.Command {
	opts := benchmark.DefaultOptions()

	cmd := &cobra.Command{
		Use:   "bench [method...]",
		Short: "Measure the cost of polling each method",
		Long: `Invoke each method repeatedly and report latency percentiles, allocations
per call and the spread of returned values. With no arguments every
registered method is benchmarked.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			s, err := a.sampler()
			if err != nil {
				return err
			}
			ch := a.bound(s)

			methods := args
			if len(methods) == 0 {
				methods = ch.Methods()
			}
			results := benchmark.Run(cmd.Context(), ch, methods, opts)
			overhead := benchmark.MeasureOverhead()

			if format == output.FormatJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(struct {
					Results  []benchmark.Result `json:"results"`
					Overhead benchmark.Overhead `json:"overhead"`
				}{results, overhead})
			}
			benchmark.RenderResults(cmd.OutOrStdout(), results, overhead)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Iterations, "iterations", opts.Iterations, "calls per method")
	cmd.Flags().IntVar(&opts.Warmup, "warmup", opts.Warmup, "unmeasured calls per method")
	return cmd
}
