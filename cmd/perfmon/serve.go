package main

import (
	"github.com/spf13/cobra"

	"github.com/danpilch/perfmon/pkg/channel"
	"github.com/danpilch/perfmon/pkg/host"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Answer JSON-line method calls on stdin",
		Long: `Read one JSON request per line from stdin and write one JSON response per
line to stdout, in order, until EOF or interrupt.

  {"id":1,"method":"getAndroidCPUUsage"}
  {"id":1,"outcome":"success","value":15}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.sampler()
			if err != nil {
				return err
			}
			mm, err := host.NewMemoryManager(a.cfg.HostBackend, a.cfg.ProcRoot)
			if err != nil {
				return err
			}

			// The sampler starts detached; the plugin lifecycle installs the
			// manager, mirroring an engine and activity coming up.
			s.Detach()
			p := channel.NewPlugin(channel.New(channel.Name, a.logger), s, channel.BindOptions{Strict: a.cfg.Strict})
			p.OnAttachedToEngine()
			if mm != nil {
				p.OnAttachedToActivity(mm)
			}
			defer func() {
				p.OnDetachedFromActivity()
				p.OnDetachedFromEngine()
			}()

			a.logger.WithField("methods", p.Channel().Methods()).Debug("Serving")
			return p.Channel().Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}
