package main

import (
	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/config"
	"github.com/danpilch/perfmon/pkg/exporter"
)

func (a *app) exportCmd() *cobra.Command {
	var serveChannel bool

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Serve readings as Prometheus metrics",
		Long: `Serve every reading on /metrics in the Prometheus exposition format.
Readings are taken on each scrape; nothing is cached.

With --channel the method channel is also answered on /ws, one JSON request
per websocket message.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.sampler()
			if err != nil {
				return err
			}
			e := exporter.New(s, a.logger)
			if serveChannel {
				e.ServeChannel(a.bound(s))
			}
			return e.Run(cmd.Context(), a.cfg.Listen)
		},
	}

	cmd.Flags().String("listen", ":9464", "address to serve metrics on")
	cmd.Flags().BoolVar(&serveChannel, "channel", false, "answer method calls on /ws")
	_ = a.v.BindPFlag(config.KeyListen, cmd.Flags().Lookup("listen"))
	return cmd
}
