// Package config loads guardian settings from pymend.yaml.
//
// Settings resolve in the usual order: explicit file, then environment
// variables with the PYMEND_ prefix, then defaults. A missing config
// file is not an error; the defaults describe a working guardian for
// the current directory.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// FormatterConfig controls the external formatter subprocess.
type FormatterConfig struct {
	// Command is the formatter binary name or path.
	Command string `mapstructure:"command" yaml:"command"`
	// Timeout bounds each formatter invocation.
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// HistoryConfig controls the heal-history store.
type HistoryConfig struct {
	// Path of the SQLite database. Empty disables history.
	Path string `mapstructure:"path" yaml:"path"`
}

// DocsConfig controls documentation refresh.
type DocsConfig struct {
	// Dir receives outline manifests. Empty disables manifests.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// SummaryModel selects the model used for prose summaries. The API
	// key always comes from the ANTHROPIC_API_KEY environment variable;
	// summaries are skipped when it is unset.
	SummaryModel string `mapstructure:"summary_model" yaml:"summary_model"`
}

// DashboardConfig controls the WebSocket event server.
type DashboardConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	Port    int  `mapstructure:"port" yaml:"port"`
}

// LogConfig controls the rotating daemon log file.
type LogConfig struct {
	// File is the log path. Empty logs to stderr only.
	File       string `mapstructure:"file" yaml:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// Config holds all guardian settings.
type Config struct {
	// Root is the directory tree to watch.
	Root string `mapstructure:"root" yaml:"root"`
	// Suffix selects which files the guardian touches.
	Suffix string `mapstructure:"suffix" yaml:"suffix"`
	// Debounce is the quiet period before a changed file is healed.
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
	// PollInterval is how often the queue is checked for due files.
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	// HealTimeout bounds one file's full pipeline run.
	HealTimeout time.Duration `mapstructure:"heal_timeout" yaml:"heal_timeout"`

	Formatter FormatterConfig `mapstructure:"formatter" yaml:"formatter"`
	History   HistoryConfig   `mapstructure:"history" yaml:"history"`
	Docs      DocsConfig      `mapstructure:"docs" yaml:"docs"`
	Dashboard DashboardConfig `mapstructure:"dashboard" yaml:"dashboard"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	return &Config{
		Root:         ".",
		Suffix:       ".py",
		Debounce:     1500 * time.Millisecond,
		PollInterval: 100 * time.Millisecond,
		HealTimeout:  30 * time.Second,
		Formatter: FormatterConfig{
			Command: "ruff",
			Timeout: 10 * time.Second,
		},
		History: HistoryConfig{
			Path: ".pymend/history.db",
		},
		Dashboard: DashboardConfig{
			Enabled: false,
			Port:    8791,
		},
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads configuration from the given file path, or searches the
// working directory for pymend.yaml when path is empty. Environment
// variables prefixed PYMEND_ override file values (PYMEND_FORMATTER_COMMAND,
// PYMEND_DASHBOARD_PORT, and so on).
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("PYMEND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("pymend")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers Default() values so partial config files work.
func setDefaults(v *viper.Viper) {
	def := Default()
	v.SetDefault("root", def.Root)
	v.SetDefault("suffix", def.Suffix)
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("poll_interval", def.PollInterval)
	v.SetDefault("heal_timeout", def.HealTimeout)
	v.SetDefault("formatter.command", def.Formatter.Command)
	v.SetDefault("formatter.timeout", def.Formatter.Timeout)
	v.SetDefault("history.path", def.History.Path)
	v.SetDefault("docs.dir", def.Docs.Dir)
	v.SetDefault("docs.summary_model", def.Docs.SummaryModel)
	v.SetDefault("dashboard.enabled", def.Dashboard.Enabled)
	v.SetDefault("dashboard.port", def.Dashboard.Port)
	v.SetDefault("log.file", def.Log.File)
	v.SetDefault("log.max_size_mb", def.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", def.Log.MaxBackups)
	v.SetDefault("log.max_age_days", def.Log.MaxAgeDays)
}

// Validate rejects settings the guardian cannot run with.
func (c *Config) Validate() error {
	if c.Root == "" {
		return fmt.Errorf("root must not be empty")
	}
	if c.Suffix == "" || !strings.HasPrefix(c.Suffix, ".") {
		return fmt.Errorf("suffix must start with a dot, got %q", c.Suffix)
	}
	if c.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive, got %v", c.Debounce)
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive, got %v", c.PollInterval)
	}
	if c.PollInterval > c.Debounce {
		return fmt.Errorf("poll_interval %v exceeds debounce %v", c.PollInterval, c.Debounce)
	}
	if c.Formatter.Command == "" {
		return fmt.Errorf("formatter.command must not be empty")
	}
	if c.Formatter.Timeout <= 0 {
		return fmt.Errorf("formatter.timeout must be positive, got %v", c.Formatter.Timeout)
	}
	if c.Dashboard.Enabled && (c.Dashboard.Port < 0 || c.Dashboard.Port > 65535) {
		return fmt.Errorf("dashboard.port %d out of range", c.Dashboard.Port)
	}
	return nil
}
