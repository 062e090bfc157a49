// Package management queries the router's AMQP management agent for entity
// tables.
package management

import (
	"errors"
	"time"
)

// Config holds the configuration for connecting to the router management agent.
// Config is passed as a constructor argument; no file I/O happens here except
// loading TLS material from CertDir.
type Config struct {
	// Host is the router host name or address (required).
	Host string `yaml:"host"`

	// Port is the router AMQP port.
	// Default: 5672
	Port int `yaml:"port"`

	// CertDir is a directory holding ca.crt, tls.crt and tls.key. When set,
	// the connection uses TLS and SASL EXTERNAL.
	CertDir string `yaml:"cert_dir"`

	// VerifyHostname additionally checks the router certificate against Host.
	// By default only the certificate chain is verified.
	VerifyHostname bool `yaml:"verify_hostname"`

	// ConnectTimeout bounds connection establishment.
	// Default: 10s
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// RequestTimeout bounds one management request/response round trip.
	// Default: 10s
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ContainerID is the AMQP container id announced on open.
	// Default: router-metrics-<uuid>
	ContainerID string `yaml:"container_id"`
}

// DefaultPort is the default AMQP port.
const DefaultPort = 5672

// DefaultConnectTimeout is the default connection establishment timeout.
const DefaultConnectTimeout = 10 * time.Second

// DefaultRequestTimeout is the default management request timeout.
const DefaultRequestTimeout = 10 * time.Second

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks that required fields are set and values are acceptable.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("management: config: Host is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.New("management: config: Port must be between 1 and 65535")
	}
	if c.ConnectTimeout <= 0 {
		return errors.New("management: config: ConnectTimeout must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("management: config: RequestTimeout must be positive")
	}
	return nil
}

// TLSEnabled reports whether a certificate directory is configured.
func (c *Config) TLSEnabled() bool {
	return c.CertDir != ""
}
