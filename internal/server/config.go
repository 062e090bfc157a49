// Package server exposes gathered metrics over HTTP.
package server

import (
	"errors"
	"strings"
	"time"
)

// Config holds the configuration for the metrics HTTP server.
type Config struct {
	// Listen is the TCP listen address.
	// Default: :8080
	Listen string `yaml:"listen"`

	// MetricsPath is the path the exposition is served on.
	// Default: /metrics
	MetricsPath string `yaml:"metrics_path"`

	// TokenFile is the path to a bearer token file. When set, requests to
	// MetricsPath must carry the token.
	TokenFile string `yaml:"token_file"`

	// ReadHeaderTimeout bounds reading request headers.
	// Default: 5s
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`

	// ShutdownTimeout is the maximum time to wait for a graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// DefaultListen is the default listen address.
const DefaultListen = ":8080"

// DefaultMetricsPath is the default exposition path.
const DefaultMetricsPath = "/metrics"

// DefaultReadHeaderTimeout is the default request header timeout.
const DefaultReadHeaderTimeout = 5 * time.Second

// DefaultShutdownTimeout is the default graceful shutdown timeout.
const DefaultShutdownTimeout = 5 * time.Second

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.MetricsPath == "" {
		c.MetricsPath = DefaultMetricsPath
	}
	if c.ReadHeaderTimeout == 0 {
		c.ReadHeaderTimeout = DefaultReadHeaderTimeout
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks that values are acceptable.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return errors.New("server: config: Listen is required")
	}
	if !strings.HasPrefix(c.MetricsPath, "/") || c.MetricsPath == "/" || c.MetricsPath == healthPath {
		return errors.New("server: config: MetricsPath must be an absolute path other than / and " + healthPath)
	}
	if c.ReadHeaderTimeout <= 0 {
		return errors.New("server: config: ReadHeaderTimeout must be positive")
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New("server: config: ShutdownTimeout must be positive")
	}
	return nil
}
