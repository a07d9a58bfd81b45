package config

import (
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/vango-dev/livestore/internal/errors"
)

const (
	// ConfigFileName is the default configuration file name.
	ConfigFileName = "livestore.yaml"

	// EnvPrefix prefixes every environment variable.
	EnvPrefix = "LIVESTORE_"

	// DefaultListen is the default serve address.
	DefaultListen = "localhost:8080"

	// DefaultMaxQueue is the default host task queue size.
	DefaultMaxQueue = 256

	// DefaultMaxSettlePasses is the default bound on effect/render passes.
	DefaultMaxSettlePasses = 100

	// DefaultNamespace is the default Prometheus namespace.
	DefaultNamespace = "livestore"
)

// Config is the complete livestore configuration.
type Config struct {
	// Listen is the serve address.
	Listen string `yaml:"listen,omitempty" env:"LISTEN"`

	// Document is the path of the YAML or JSON document to load into the store.
	Document string `yaml:"document,omitempty" env:"DOCUMENT"`

	// Debug enables hook order validation in the reactive runtime.
	Debug bool `yaml:"debug,omitempty" env:"DEBUG"`

	// Log contains logging configuration.
	Log LogConfig `yaml:"log,omitempty" envPrefix:"LOG_"`

	// Host contains event loop configuration.
	Host HostConfig `yaml:"host,omitempty" envPrefix:"HOST_"`

	// Metrics contains Prometheus configuration.
	Metrics MetricsConfig `yaml:"metrics,omitempty" envPrefix:"METRICS_"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty" env:"LEVEL"`

	// Format is text or json.
	Format string `yaml:"format,omitempty" env:"FORMAT"`
}

// HostConfig contains event loop settings.
type HostConfig struct {
	// MaxQueue is the task queue size.
	MaxQueue int `yaml:"maxQueue,omitempty" env:"MAX_QUEUE"`

	// MaxSettlePasses bounds effect/render passes per task.
	MaxSettlePasses int `yaml:"maxSettlePasses,omitempty" env:"MAX_SETTLE_PASSES"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes /metrics when serving.
	Enabled bool `yaml:"enabled" env:"ENABLED"`

	// Namespace is the metric name prefix.
	Namespace string `yaml:"namespace,omitempty" env:"NAMESPACE"`
}

// New returns a Config with defaults applied.
func New() *Config {
	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	cfg.applyDefaults()
	return cfg
}

// LoadFile reads a YAML configuration file. Missing fields get defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E201").
			WithDetail("Cannot read " + path).
			Wrap(err)
	}

	cfg := &Config{Metrics: MetricsConfig{Enabled: true}}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E201").
			WithDetail("Failed to parse " + path).
			WithSuggestion("Check that the file is valid YAML").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// ApplyEnv overrides fields from LIVESTORE_* variables. A nil environ
// reads the process environment.
func (c *Config) ApplyEnv(environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(c, opts); err != nil {
		return errors.New("E201").
			WithDetail("Invalid " + EnvPrefix + "* environment variable").
			Wrap(err)
	}
	c.applyDefaults()
	return nil
}

// Resolve loads path (or defaults when path is empty, or when path is the
// default file name and does not exist), applies the process environment
// and validates the result.
func Resolve(path string) (*Config, error) {
	var cfg *Config
	switch {
	case path == "":
		cfg = New()
	case path == ConfigFileName && !Exists(path):
		cfg = New()
	default:
		var err error
		cfg, err = LoadFile(path)
		if err != nil {
			return nil, err
		}
	}

	if err := cfg.ApplyEnv(nil); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Exists reports whether a file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Path returns the path the config was loaded from, if any.
func (c *Config) Path() string {
	return c.configPath
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Host.MaxQueue == 0 {
		c.Host.MaxQueue = DefaultMaxQueue
	}
	if c.Host.MaxSettlePasses == 0 {
		c.Host.MaxSettlePasses = DefaultMaxSettlePasses
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return errors.New("E201").
			WithDetail(fmt.Sprintf("listen address %q is not host:port", c.Listen)).
			Wrap(err)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return errors.New("E201").Wrap(err).
			WithSuggestion("Use one of debug, info, warn, error")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E201").
			WithDetail(fmt.Sprintf("log format %q is not text or json", c.Log.Format))
	}
	if c.Host.MaxQueue < 0 {
		return errors.New("E201").
			WithDetail("host.maxQueue must be positive")
	}
	if c.Host.MaxSettlePasses < 0 {
		return errors.New("E201").
			WithDetail("host.maxSettlePasses must be positive")
	}
	return nil
}

// Level returns the configured slog level.
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.Log.Level)
	return level
}

// NewLogger builds a logger writing to w in the configured format.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.Level()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}
