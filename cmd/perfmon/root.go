package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/danpilch/perfmon/pkg/channel"
	"github.com/danpilch/perfmon/pkg/config"
	"github.com/danpilch/perfmon/pkg/debug"
	"github.com/danpilch/perfmon/pkg/output"
	"github.com/danpilch/perfmon/pkg/sampler"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	trace   bool
	pprof   string

	cfg       *config.Config
	logger    *logrus.Logger
	stopPprof func()
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "perfmon",
		Short: "perfmon reads process memory, system memory and CPU counters",
		Long: `perfmon reads process memory, system memory and CPU utilization from the
proc filesystem and answers them as named method calls, the way a mobile
runtime's performance plugin does.`,
		SilenceUsage:       true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.perfmon.yaml)")
	flags.String("proc-root", "/proc", "root of the proc filesystem")
	flags.Int("pid", 0, "process whose memory is reported (0 = perfmon itself)")
	flags.String("cpu-mode", string(sampler.CPUCumulative), "cpu sampling mode: cumulative or interval")
	flags.Bool("strict", false, "report unavailable readings as UNAVAILABLE errors instead of zero")
	flags.String("log-level", "warn", "log level")
	flags.StringP("format", "o", string(output.FormatTable), "output format: table, json, tsv or ai")
	flags.String("host-backend", "auto", "memory manager: auto, procfs, gopsutil or none")
	flags.String("baseline-dir", "", "baseline directory (default is $HOME/.perfmon/baselines)")
	flags.BoolVar(&a.trace, "trace", false, "trace every log entry to stderr")
	flags.StringVar(&a.pprof, "pprof", "", "serve pprof on this address while running")

	for key, flag := range map[string]string{
		config.KeyProcRoot:    "proc-root",
		config.KeyPID:         "pid",
		config.KeyCPUMode:     "cpu-mode",
		config.KeyStrict:      "strict",
		config.KeyLogLevel:    "log-level",
		config.KeyFormat:      "format",
		config.KeyHostBackend: "host-backend",
		config.KeyBaselineDir: "baseline-dir",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.callCmd(),
		a.serveCmd(),
		a.watchCmd(),
		a.exportCmd(),
		a.checkCmd(),
		a.benchCmd(),
		a.baselineCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	bootstrap := logrus.New()
	bootstrap.SetOutput(cmd.ErrOrStderr())
	config.LoadDotEnv(bootstrap)

	if err := config.ReadFile(a.v, a.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.logger = cfg.Logger()
	a.logger.SetOutput(cmd.ErrOrStderr())
	if a.trace {
		debug.NewTraceLogger(cmd.ErrOrStderr()).Attach(a.logger)
	}
	if a.v.ConfigFileUsed() != "" {
		a.logger.WithField("file", a.v.ConfigFileUsed()).Debug("Using config file")
	}

	if a.pprof != "" {
		stop, err := debug.StartPprofServer(a.pprof, a.logger)
		if err != nil {
			return err
		}
		a.stopPprof = stop
	}
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.stopPprof != nil {
		a.stopPprof()
	}
	return nil
}

func (a *app) format() (output.Format, error) {
	return output.ParseFormat(a.cfg.Format)
}

func (a *app) sampler() (*sampler.Sampler, error) {
	return a.cfg.Sampler(a.logger)
}

// bound returns a channel with the sampler's methods registered.
func (a *app) bound(s channel.Sampler) *channel.Channel {
	ch := channel.New(channel.Name, a.logger)
	channel.Bind(ch, s, channel.BindOptions{Strict: a.cfg.Strict})
	return ch
}

// pid is the process the sampler reports on.
func (a *app) pid() int {
	if a.cfg.PID > 0 {
		return a.cfg.PID
	}
	return os.Getpid()
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
