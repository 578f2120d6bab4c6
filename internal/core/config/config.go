// Package config handles configuration loading and validation for ccdash.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/hay-kot/criterio"
	"gopkg.in/yaml.v3"

	"github.com/hay-kot/ccdash/internal/core/terminal"
	"github.com/hay-kot/ccdash/pkg/tmpl"
)

// Config holds the application configuration.
type Config struct {
	DefaultModel   string        `yaml:"default_model"`
	ClaudeCLIPath  string        `yaml:"claude_cli_path"`
	AutoDetect     bool          `yaml:"auto_detect_claude_terminals"`
	DetectPatterns []string      `yaml:"detect_patterns"`
	DebounceWindow time.Duration `yaml:"debounce_window"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	ShowOnCreate   bool          `yaml:"show_on_create"`
	StartupCommand string        `yaml:"startup_command"`
	TmuxPath       string        `yaml:"tmux_path"`
	Log            LogConfig     `yaml:"log"`
}

// LogConfig controls log file rotation when a log file is set.
type LogConfig struct {
	MaxSizeMB  int  `yaml:"max_size_mb"`
	MaxBackups int  `yaml:"max_backups"`
	MaxAgeDays int  `yaml:"max_age_days"`
	Compress   bool `yaml:"compress"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DefaultModel:   string(terminal.ModelSonnet),
		ClaudeCLIPath:  "claude",
		AutoDetect:     true,
		DetectPatterns: []string{},
		DebounceWindow: terminal.DefaultDebounceWindow,
		PollInterval:   500 * time.Millisecond,
		ShowOnCreate:   true,
		TmuxPath:       "tmux",
		Log: LogConfig{
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 14,
		},
	}
}

// Load reads configuration from the given path. A missing file yields the
// defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.DebounceWindow == 0 {
		c.DebounceWindow = defaults.DebounceWindow
	}
	if c.PollInterval == 0 {
		c.PollInterval = defaults.PollInterval
	}
	if c.TmuxPath == "" {
		c.TmuxPath = defaults.TmuxPath
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = defaults.Log.MaxSizeMB
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs criterio.FieldErrorsBuilder

	if _, err := terminal.ParseModel(c.DefaultModel); err != nil {
		errs = errs.Append("default_model", err)
	}

	if c.ClaudeCLIPath == "" {
		errs = errs.Append("claude_cli_path", fmt.Errorf("cannot be empty"))
	}

	if c.DebounceWindow < 0 {
		errs = errs.Append("debounce_window", fmt.Errorf("must not be negative"))
	}

	if c.PollInterval < 50*time.Millisecond {
		errs = errs.Append("poll_interval", fmt.Errorf("must be at least 50ms, got %s", c.PollInterval))
	}

	for i, p := range c.DetectPatterns {
		if _, err := terminal.NewDetector([]string{p}); err != nil {
			errs = errs.Append(fmt.Sprintf("detect_patterns[%d]", i), err)
		}
	}

	if c.StartupCommand != "" {
		sample := terminal.StartupData{CLI: c.ClaudeCLIPath, Model: c.DefaultModel}
		if err := tmpl.Check(c.StartupCommand, sample, c.ClaudeCLIPath); err != nil {
			errs = errs.Append("startup_command", err)
		}
	}

	if c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 || c.Log.MaxSizeMB < 0 {
		errs = errs.Append("log", fmt.Errorf("rotation limits must not be negative"))
	}

	return errs.ToError()
}

// Model returns the configured default model.
func (c *Config) Model() terminal.Model {
	m, err := terminal.ParseModel(c.DefaultModel)
	if err != nil {
		return terminal.ModelSonnet
	}
	return m
}

// Settings converts the configuration into registry settings.
func (c *Config) Settings() (terminal.Settings, error) {
	det, err := terminal.NewDetector(c.DetectPatterns)
	if err != nil {
		return terminal.Settings{}, err
	}

	return terminal.Settings{
		CLIPath:         c.ClaudeCLIPath,
		AutoDetect:      c.AutoDetect,
		Detector:        det,
		DebounceWindow:  c.DebounceWindow,
		ShowOnCreate:    c.ShowOnCreate,
		StartupTemplate: c.StartupCommand,
	}, nil
}
