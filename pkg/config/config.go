// Package config loads perfmon settings from flags, environment, an optional
// config file and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/danpilch/perfmon/pkg/baseline"
	"github.com/danpilch/perfmon/pkg/host"
	"github.com/danpilch/perfmon/pkg/procfs"
	"github.com/danpilch/perfmon/pkg/sampler"
)

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "PERFMON"

// Keys.
const (
	KeyProcRoot    = "proc_root"
	KeyPID         = "pid"
	KeyCPUMode     = "cpu_mode"
	KeyStrict      = "strict"
	KeyLogLevel    = "log_level"
	KeyInterval    = "interval"
	KeyFormat      = "format"
	KeyListen      = "listen"
	KeyBaselineDir = "baseline_dir"
	KeyHostBackend = "host_backend"
)

// Config holds resolved settings.
type Config struct {
	ProcRoot    string        `mapstructure:"proc_root"`
	PID         int           `mapstructure:"pid"`
	CPUMode     string        `mapstructure:"cpu_mode"`
	Strict      bool          `mapstructure:"strict"`
	LogLevel    string        `mapstructure:"log_level"`
	Interval    time.Duration `mapstructure:"interval"`
	Format      string        `mapstructure:"format"`
	Listen      string        `mapstructure:"listen"`
	BaselineDir string        `mapstructure:"baseline_dir"`
	HostBackend string        `mapstructure:"host_backend"`
}

// SetDefaults installs default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyProcRoot, procfs.DefaultRoot)
	v.SetDefault(KeyPID, 0)
	v.SetDefault(KeyCPUMode, string(sampler.CPUCumulative))
	v.SetDefault(KeyStrict, false)
	v.SetDefault(KeyLogLevel, "warn")
	v.SetDefault(KeyInterval, time.Second)
	v.SetDefault(KeyFormat, "table")
	v.SetDefault(KeyListen, ":9464")
	v.SetDefault(KeyBaselineDir, baseline.DefaultDir())
	v.SetDefault(KeyHostBackend, host.BackendAuto)
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

// LoadDotEnv loads .env from the working directory when it exists.
// Variables already set in the environment win.
func LoadDotEnv(logger *logrus.Logger) {
	if err := godotenv.Load(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.WithError(err).Warn("Could not load .env")
		}
		return
	}
	logger.Debug("Loaded .env")
}

// ReadFile reads the config file at path, or $HOME/.perfmon.yaml when path
// is empty. A missing default file is not an error.
func ReadFile(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.AddConfigPath(home)
		v.SetConfigType("yaml")
		v.SetConfigName(".perfmon")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// Load resolves v into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unusable settings.
func (c *Config) Validate() error {
	if _, err := sampler.ParseCPUMode(c.CPUMode); err != nil {
		return err
	}
	switch c.HostBackend {
	case host.BackendAuto, host.BackendProcfs, host.BackendGopsutil, host.BackendNone:
	default:
		return fmt.Errorf("unknown host backend %q", c.HostBackend)
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", c.Interval)
	}
	if c.PID < 0 {
		return fmt.Errorf("pid must not be negative, got %d", c.PID)
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// Logger builds a logrus logger at the configured level.
func (c *Config) Logger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// Sampler builds a sampler and attaches the configured memory manager.
func (c *Config) Sampler(logger *logrus.Logger) (*sampler.Sampler, error) {
	mode, err := sampler.ParseCPUMode(c.CPUMode)
	if err != nil {
		return nil, err
	}
	mm, err := host.NewMemoryManager(c.HostBackend, c.ProcRoot)
	if err != nil {
		return nil, err
	}

	opts := []sampler.Option{
		sampler.WithLogger(logger),
		sampler.WithCPUMode(mode),
		sampler.WithPID(c.PID),
	}
	if mm != nil {
		opts = append(opts, sampler.WithMemoryManager(mm))
	}
	return sampler.New(procfs.NewFS(c.ProcRoot), opts...), nil
}
