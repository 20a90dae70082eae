// Package config provides YAML-based configuration loading for the scheduler
// demos.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tomasbasham/mlfq"
)

// Config is the root application configuration.
type Config struct {
	// Scheduler holds the dispatch parameters.
	Scheduler SchedulerConfig `mapstructure:"scheduler"`

	// Log holds logging configuration
	Log LogConfig `mapstructure:"log"`

	// Workload shapes the threads a demo registers.
	Workload WorkloadConfig `mapstructure:"workload"`
}

// SchedulerConfig mirrors the constructor parameters of the scheduler.
type SchedulerConfig struct {
	// Quantum is the base time slice, e.g. "1s" or "200ms".
	Quantum time.Duration `mapstructure:"quantum"`
	// MaxThreads is the capacity of the thread identifier pool.
	MaxThreads int `mapstructure:"max_threads"`
	// Policy: mlfq or round-robin
	Policy string `mapstructure:"policy"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: list of outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	// Rotation controls file rotation when writing to files
	Rotation RotationConfig `mapstructure:"rotation"`
	// Development toggles development-friendly logging options
	Development bool `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// WorkloadConfig describes the synthetic threads registered by the demos.
type WorkloadConfig struct {
	// Parents is the number of CPU bound threads registered up front.
	Parents int `mapstructure:"parents"`
	// Children is the number of short threads each parent registers.
	Children int `mapstructure:"children"`
	// Work is how long a CPU bound thread runs before terminating.
	Work time.Duration `mapstructure:"work"`
	// Burst is how long a short thread runs before terminating.
	Burst time.Duration `mapstructure:"burst"`
	// Watch restricts queue reports to one level: high, normal or low.
	// Empty reports every level.
	Watch string `mapstructure:"watch"`
}

// WatchLevel returns the level named by Watch and whether one was set.
func (w WorkloadConfig) WatchLevel() (mlfq.Level, bool) {
	if w.Watch == "" {
		return mlfq.Level{}, false
	}
	l := mlfq.ParseLevel(w.Watch)
	return l, l.IsValid()
}

// Default returns a Config populated with sensible defaults.
func Default() *Config {
	return &Config{
		Scheduler: SchedulerConfig{
			Quantum:    mlfq.DefaultQuantum,
			MaxThreads: mlfq.DefaultMaxThreads,
			Policy:     mlfq.Policies.MLFQ.String(),
		},
		Log: LogConfig{
			Level:       "info",
			Format:      "console",
			Outputs:     []string{"stdout"},
			Development: true,
			Rotation: RotationConfig{
				Enable:     false,
				Filename:   "logs/mlfq.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Workload: WorkloadConfig{
			Parents:  3,
			Children: 2,
			Work:     5 * time.Second,
			Burst:    200 * time.Millisecond,
		},
	}
}

// Load reads configuration from the provided path (if non-empty),
// otherwise it searches common locations and supports environment overrides.
// Environment variables use the prefix MLFQ and `.`/`-` are replaced with `_`.
// Example: MLFQ_SCHEDULER_QUANTUM=250ms
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("MLFQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults for viper so env-only configs work
	v.SetDefault("scheduler.quantum", cfg.Scheduler.Quantum)
	v.SetDefault("scheduler.max_threads", cfg.Scheduler.MaxThreads)
	v.SetDefault("scheduler.policy", cfg.Scheduler.Policy)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("workload.parents", cfg.Workload.Parents)
	v.SetDefault("workload.children", cfg.Workload.Children)
	v.SetDefault("workload.work", cfg.Workload.Work)
	v.SetDefault("workload.burst", cfg.Workload.Burst)
	v.SetDefault("workload.watch", cfg.Workload.Watch)

	// Choose config file
	if path == "" {
		if envPath := os.Getenv("MLFQ_CONFIG"); envPath != "" {
			path = envPath
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mlfq")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".mlfq"))
		}
	}

	// Read config file if present; if not found, continue with defaults/env
	if err := v.ReadInConfig(); err != nil {
		var viperConfigFileNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &viperConfigFileNotFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and fills in empty optional fields.
func (c *Config) Validate() error {
	if c.Scheduler.Quantum <= 0 {
		return fmt.Errorf("invalid scheduler.quantum: %s", c.Scheduler.Quantum)
	}
	if c.Scheduler.MaxThreads <= 0 {
		return fmt.Errorf("invalid scheduler.max_threads: %d", c.Scheduler.MaxThreads)
	}
	c.Scheduler.Policy = strings.ToLower(strings.TrimSpace(c.Scheduler.Policy))
	if !mlfq.ParsePolicy(c.Scheduler.Policy).IsValid() {
		return fmt.Errorf("invalid scheduler.policy: %q", c.Scheduler.Policy)
	}

	lvl := strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch lvl {
	case "debug", "info", "warn", "warning", "error":
		// ok
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stdout"}
	}
	if c.Workload.Parents < 0 || c.Workload.Children < 0 {
		return errors.New("invalid workload: counts must not be negative")
	}
	c.Workload.Watch = strings.ToLower(strings.TrimSpace(c.Workload.Watch))
	if _, ok := c.Workload.WatchLevel(); c.Workload.Watch != "" && !ok {
		return fmt.Errorf("invalid workload.watch: %q", c.Workload.Watch)
	}
	return nil
}

// SchedulerOptions maps the configuration onto scheduler options.
func (c *Config) SchedulerOptions(logger *zap.Logger) []mlfq.Option {
	return []mlfq.Option{
		mlfq.WithQuantum(c.Scheduler.Quantum),
		mlfq.WithMaxThreads(c.Scheduler.MaxThreads),
		mlfq.WithPolicy(mlfq.ParsePolicy(c.Scheduler.Policy)),
		mlfq.WithLogger(logger),
	}
}
