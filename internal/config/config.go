// Package config loads and validates imgstack settings: YAML file, optional
// .env files, then IMGSTACK_* environment overrides, in that order.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/imgstack/internal/stack"
)

// Config is the root configuration.
type Config struct {
	// Vault is the root directory of the markdown vault.
	Vault string `yaml:"vault"`

	// Mode selects block adjacency: "strict" or "lenient".
	Mode string `yaml:"mode"`

	Daemon  DaemonConfig  `yaml:"daemon"`
	Journal JournalConfig `yaml:"journal"`
	Logging LoggingConfig `yaml:"logging"`
}

// DaemonConfig configures the local IPC daemon.
type DaemonConfig struct {
	// Listen is the HTTP listen address for the plugin IPC endpoints.
	Listen string `yaml:"listen"`

	// SweepInterval enables the periodic vault-wide normalize sweep when set
	// to a non-zero duration string ("1h"). Disabled by default.
	SweepInterval string `yaml:"sweep_interval"`

	// WatchDebounce batches rapid file events before reindexing a note.
	WatchDebounce string `yaml:"watch_debounce"`
}

// JournalConfig configures the transform journal.
type JournalConfig struct {
	// Path is the sqlite database path; empty disables the journal and
	// ":memory:" keeps it ephemeral.
	Path string `yaml:"path"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Vault: ".",
		Mode:  string(stack.ModeLenient),
		Daemon: DaemonConfig{
			Listen:        "127.0.0.1:7617",
			SweepInterval: "",
			WatchDebounce: "500ms",
		},
		Journal: JournalConfig{Path: ""},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads the configuration file at path, layering .env files and
// environment overrides on top of the defaults. A missing file is not an
// error; defaults plus environment apply.
func Load(path string) (*Config, error) {
	// Best effort: absent .env files are the normal case.
	_ = godotenv.Load(".env", ".env.local")

	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the CLI flag.
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("IMGSTACK_VAULT"); v != "" {
		cfg.Vault = v
	}
	if v := os.Getenv("IMGSTACK_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("IMGSTACK_LISTEN"); v != "" {
		cfg.Daemon.Listen = v
	}
	if v := os.Getenv("IMGSTACK_JOURNAL"); v != "" {
		cfg.Journal.Path = v
	}
	if v := os.Getenv("IMGSTACK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("IMGSTACK_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("IMGSTACK_SWEEP_INTERVAL"); v != "" {
		cfg.Daemon.SweepInterval = v
	}
}

// Validate normalizes enumerated fields and rejects unusable settings.
func (c *Config) Validate() error {
	c.Mode = string(NormalizeMode(c.Mode))

	if c.Vault == "" {
		return fmt.Errorf("config: vault root must not be empty")
	}
	if c.Daemon.Listen == "" {
		return fmt.Errorf("config: daemon listen address must not be empty")
	}
	if c.Daemon.SweepInterval != "" {
		if _, err := time.ParseDuration(c.Daemon.SweepInterval); err != nil {
			return fmt.Errorf("config: invalid sweep_interval: %w", err)
		}
	}
	if c.Daemon.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Daemon.WatchDebounce); err != nil {
			return fmt.Errorf("config: invalid watch_debounce: %w", err)
		}
	}

	c.Logging.Level = string(NormalizeLogLevel(c.Logging.Level))
	c.Logging.Format = string(NormalizeLogFormat(c.Logging.Format))
	return nil
}

// SweepIntervalDuration returns the parsed sweep interval; zero means the
// sweep is disabled. Validate has already checked the syntax.
func (d DaemonConfig) SweepIntervalDuration() time.Duration {
	if d.SweepInterval == "" {
		return 0
	}
	dur, _ := time.ParseDuration(d.SweepInterval)
	return dur
}

// WatchDebounceDuration returns the parsed watch debounce with the default as
// fallback.
func (d DaemonConfig) WatchDebounceDuration() time.Duration {
	dur, err := time.ParseDuration(d.WatchDebounce)
	if err != nil || dur <= 0 {
		return 500 * time.Millisecond
	}
	return dur
}

// StackMode returns the adjacency mode as the engine's enum.
func (c *Config) StackMode() stack.Mode {
	return NormalizeMode(c.Mode)
}

// NormalizeMode maps a raw string onto the closed Mode set, defaulting to
// lenient (the behavior users see in the editor plugin).
func NormalizeMode(raw string) stack.Mode {
	switch raw {
	case string(stack.ModeStrict):
		return stack.ModeStrict
	default:
		return stack.ModeLenient
	}
}

// DefaultYAML is the config file written by `imgstack init`.
const DefaultYAML = `# imgstack configuration
vault: .
mode: lenient # strict requires perfectly consecutive image lines

daemon:
  listen: 127.0.0.1:7617
  # sweep_interval: 1h    # enable the periodic vault-wide normalize sweep
  watch_debounce: 500ms

journal:
  path: "" # e.g. .imgstack/journal.db

logging:
  level: info
  format: text
`
