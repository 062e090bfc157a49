// Package config assembles the router-metrics configuration from a YAML
// file, the environment and command line flags.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/EnMasseProject/enmasse/internal/management"
	"github.com/EnMasseProject/enmasse/internal/metrics"
	"github.com/EnMasseProject/enmasse/internal/server"
)

const (
	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log output format.
	DefaultLogFormat = "text"
)

// Environment variables read by ApplyEnv.
const (
	EnvRouterHost    = "ROUTER_HOST"
	EnvRouterPort    = "ROUTER_PORT"
	EnvCertDir       = "CERT_DIR"
	EnvListenAddress = "LISTEN_ADDRESS"
	EnvLogLevel      = "LOG_LEVEL"
)

// Config is the top-level configuration. It aggregates the subsystem
// configurations.
type Config struct {
	// LogLevel is the log level: "debug", "info", "warn", "error".
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// LogFormat selects the log handler: "text" or "json".
	// Default: "text"
	LogFormat string `yaml:"log_format"`

	Router    management.Config `yaml:"router"`
	Collector metrics.Config    `yaml:"collector"`
	Server    server.Config     `yaml:"server"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = DefaultLogFormat
	}
	c.Router.ApplyDefaults()
	c.Collector.ApplyDefaults()
	c.Server.ApplyDefaults()
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("config: invalid log_format %q (must be \"text\" or \"json\")", c.LogFormat)
	}
	if err := c.Router.Validate(); err != nil {
		return err
	}
	if err := c.Collector.Validate(); err != nil {
		return err
	}
	if err := c.Server.Validate(); err != nil {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from environment variables. lookup is usually
// os.LookupEnv; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvRouterHost); ok && v != "" {
		c.Router.Host = v
	}
	if v, ok := lookup(EnvRouterPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %s: invalid port %q", EnvRouterPort, v)
		}
		c.Router.Port = port
	}
	if v, ok := lookup(EnvCertDir); ok && v != "" {
		c.Router.CertDir = v
	}
	if v, ok := lookup(EnvListenAddress); ok && v != "" {
		c.Server.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	return nil
}

// Parse reads a YAML configuration file. An empty path yields an empty
// Config. Defaults are not applied and the result is not validated, so that
// environment and flag overrides can be layered on first.
func Parse(path string) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Load parses path, applies environment overrides and defaults, and
// validates the result.
func Load(path string, lookup func(string) (string, bool)) (*Config, error) {
	cfg, err := Parse(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
