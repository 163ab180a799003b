package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vietdv277/autoclass/internal/retry"
)

// Terminal storage classes Autoclass accepts.
const (
	TerminalArchive  = "ARCHIVE"
	TerminalNearline = "NEARLINE"

	DefaultConcurrency = 20
)

// MaxBackoffBase bounds the first retry delay.
const MaxBackoffBase = time.Hour

// Config represents the migration settings. Values come from defaults, an
// optional YAML file, AUTOCLASS_* environment variables and flags, in
// increasing order of precedence.
type Config struct {
	Concurrency          int           `yaml:"concurrency,omitempty"`
	MaxAttempts          int           `yaml:"max_attempts,omitempty"`
	BackoffBase          time.Duration `yaml:"backoff_base,omitempty"`
	TerminalStorageClass string        `yaml:"terminal_storage_class,omitempty"`
	BillToProject        bool          `yaml:"bill_to_project,omitempty"`
	Endpoint             string        `yaml:"endpoint,omitempty"`
	DryRun               bool          `yaml:"dry_run,omitempty"`
	LogLevel             string        `yaml:"log_level,omitempty"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Concurrency:          DefaultConcurrency,
		MaxAttempts:          retry.DefaultMaxAttempts,
		BackoffBase:          retry.DefaultBase,
		TerminalStorageClass: TerminalArchive,
		LogLevel:             "info",
	}
}

// LoadFile reads a YAML config file on top of the defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings and normalises the terminal storage class.
func (c *Config) Validate() error {
	var errs []error

	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency))
	}
	if c.MaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts))
	}
	if c.BackoffBase < 0 {
		errs = append(errs, fmt.Errorf("backoff base must not be negative, got %s", c.BackoffBase))
	}
	if c.BackoffBase > MaxBackoffBase {
		errs = append(errs, fmt.Errorf("backoff base must be at most %s, got %s", MaxBackoffBase, c.BackoffBase))
	}

	c.TerminalStorageClass = strings.ToUpper(strings.TrimSpace(c.TerminalStorageClass))
	switch c.TerminalStorageClass {
	case TerminalArchive, TerminalNearline:
	default:
		errs = append(errs, fmt.Errorf("terminal storage class must be %s or %s, got %q",
			TerminalArchive, TerminalNearline, c.TerminalStorageClass))
	}

	return errors.Join(errs...)
}
