// Package config loads swatches settings from defaults, a YAML file, the
// environment and command line overrides, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables read by WithEnvConfig.
const (
	EnvPage     = "SWATCHES_PAGE"
	EnvFilter   = "SWATCHES_FILTER"
	EnvLogLevel = "SWATCHES_LOG_LEVEL"
	EnvNoColour = "SWATCHES_NO_COLOUR"
	EnvTimeout  = "SWATCHES_TIMEOUT"
)

// DefaultTimeout bounds a single scan or substitution.
const DefaultTimeout = 30 * time.Second

// Config holds runtime settings.
type Config struct {
	// Page is the page location handed to page.Open.
	Page string `yaml:"page"`

	// Filter lists the selected categories. Unset selects every category
	// the page reports; an empty list selects none.
	Filter []string `yaml:"filter,omitempty"`

	LogLevel string        `yaml:"log_level"`
	NoColour bool          `yaml:"no_colour"`
	Timeout  time.Duration `yaml:"timeout"`

	// Headers are sent with every request to a remote page.
	Headers map[string]string `yaml:"headers,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LogLevel: "info",
		Timeout:  DefaultTimeout,
	}
}

// Validate checks the configuration for unusable values.
func (c *Config) Validate() error {
	if hclog.LevelFromString(c.LogLevel) == hclog.NoLevel {
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative: %s", c.Timeout)
	}
	return nil
}

// DefaultPath returns $XDG_CONFIG_HOME/swatches/config.yaml, or an empty
// string when no config directory is available.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "swatches", "config.yaml")
}

// Builder assembles a Config.
type Builder struct {
	config    Config
	path      string
	required  bool
	useEnv    bool
	overrides []func(*Config)
}

// NewBuilder creates a builder starting from Default.
func NewBuilder() *Builder {
	return &Builder{config: Default()}
}

// WithFile loads the YAML file at path, which must exist.
func (b *Builder) WithFile(path string) *Builder {
	b.path = path
	b.required = true
	return b
}

// WithDefaultFile loads DefaultPath when it exists.
func (b *Builder) WithDefaultFile() *Builder {
	if b.path == "" {
		b.path = DefaultPath()
		b.required = false
	}
	return b
}

// WithEnvConfig applies SWATCHES_* environment variables. A .env file next
// to the config file is loaded first without overriding the environment.
func (b *Builder) WithEnvConfig() *Builder {
	b.useEnv = true
	return b
}

// WithOverride applies fn after every other source.
func (b *Builder) WithOverride(fn func(*Config)) *Builder {
	b.overrides = append(b.overrides, fn)
	return b
}

// Build resolves the configuration.
func (b *Builder) Build() (*Config, error) {
	cfg := b.config

	if b.path != "" {
		if err := loadFile(b.path, &cfg); err != nil {
			if b.required || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if b.useEnv {
		if b.path != "" {
			envPath := filepath.Join(filepath.Dir(b.path), ".env")
			if err := godotenv.Load(envPath); err != nil && !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("error loading .env file: %w", err)
			}
		}
		if err := applyEnv(&cfg); err != nil {
			return nil, err
		}
	}

	for _, fn := range b.overrides {
		fn(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path) // #nosec G304 - User-specified config file, intended to be read
	if err != nil {
		return fmt.Errorf("error reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error parsing config file %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvPage); v != "" {
		cfg.Page = v
	}
	if v := os.Getenv(EnvFilter); v != "" {
		cfg.Filter = SplitList(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvNoColour); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvNoColour, err)
		}
		cfg.NoColour = b
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		cfg.NoColour = true
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvTimeout, err)
		}
		cfg.Timeout = d
	}
	return nil
}

// SplitList splits a comma separated list, dropping blank entries.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
