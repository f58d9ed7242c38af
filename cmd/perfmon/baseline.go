package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/baseline"
	"github.com/danpilch/perfmon/pkg/output"
	"github.com/danpilch/perfmon/pkg/reading"
)

func (a *app) baselineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "baseline",
		Short: "Save snapshots and compare against them",
	}
	cmd.AddCommand(a.baselineSaveCmd(), a.baselineCompareCmd(), a.baselineListCmd(), a.baselineDeleteCmd())
	return cmd
}

func (a *app) baselineSaveCmd() *cobra.Command {
	var meta []string

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save the current readings as a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.sampler()
			if err != nil {
				return err
			}
			b := baseline.New(args[0], reading.Take(s, time.Now()), reading.DefaultThresholds())
			for _, kv := range meta {
				k, v, ok := strings.Cut(kv, "=")
				if !ok {
					return fmt.Errorf("metadata %q is not key=value", kv)
				}
				if b.Metadata == nil {
					b.Metadata = map[string]string{}
				}
				b.Metadata[k] = v
			}
			if err := b.Save(a.cfg.BaselineDir); err != nil {
				return err
			}
			printf(cmd, "Saved baseline %q (%d readings)\n", b.Name, len(b.Rows))
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&meta, "meta", nil, "key=value metadata to store with the baseline")
	return cmd
}

func (a *app) baselineCompareCmd() *cobra.Command {
	var fail bool

	cmd := &cobra.Command{
		Use:   "compare <name>",
		Short: "Compare the current readings with a baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := a.format()
			if err != nil {
				return err
			}
			b, err := baseline.Load(args[0], a.cfg.BaselineDir)
			if err != nil {
				return err
			}
			s, err := a.sampler()
			if err != nil {
				return err
			}

			rows := reading.Take(s, time.Now()).Rows(reading.DefaultThresholds())
			comparisons := baseline.Compare(b, rows)

			var regressions int
			if format == output.FormatJSON {
				for _, c := range comparisons {
					if c.Regression() {
						regressions++
					}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(comparisons); err != nil {
					return err
				}
			} else {
				regressions = baseline.RenderComparison(cmd.OutOrStdout(), b, comparisons)
			}

			if fail && regressions > 0 {
				return fmt.Errorf("%d regressions against %q", regressions, b.Name)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fail, "fail", false, "exit non-zero when a regression is detected")
	return cmd
}

func (a *app) baselineListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved baselines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			names, err := baseline.List(a.cfg.BaselineDir)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printf(cmd, "No baselines in %s\n", a.cfg.BaselineDir)
				return nil
			}
			for _, n := range names {
				printf(cmd, "%s\n", n)
			}
			return nil
		},
	}
}

func (a *app) baselineDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a saved baseline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return baseline.Delete(args[0], a.cfg.BaselineDir)
		},
	}
}
