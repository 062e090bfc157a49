// Package metrics turns router entity tables into labeled Prometheus series.
package metrics

import (
	"errors"
	"time"
)

// DefaultPassTimeout bounds one collection pass.
const DefaultPassTimeout = 30 * time.Second

// Config holds the configuration for the router metrics collector.
type Config struct {
	// PassTimeout is the maximum duration of one collection pass, including
	// connecting to the router.
	// Default: 30s
	PassTimeout time.Duration `yaml:"pass_timeout"`

	// Namespace prefixes the collector's own metrics (scrape duration,
	// fetch failures, up). Router series keep their names.
	Namespace string `yaml:"namespace"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.PassTimeout == 0 {
		c.PassTimeout = DefaultPassTimeout
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *Config) Validate() error {
	if c.PassTimeout <= 0 {
		return errors.New("metrics: config: PassTimeout must be positive")
	}
	return nil
}
