package cis

import (
	"errors"
	"time"

	"github.com/smnsjas/go-vcenter/rest/transport"
)

// Config holds the connection settings of a Session.
type Config struct {
	// InsecureSkipVerify skips TLS certificate verification.
	// WARNING: Only use for lab hosts with self-signed certificates.
	InsecureSkipVerify bool

	// Timeout bounds each HTTP round trip.
	Timeout time.Duration

	// Proxy is "" for the environment defaults, "direct" for none, or a proxy URL.
	Proxy string

	// CAFile is an optional PEM bundle trusted in addition to the system roots.
	CAFile string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Timeout: transport.DefaultTimeout,
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	if c.InsecureSkipVerify && c.CAFile != "" {
		return errors.New("CAFile has no effect when InsecureSkipVerify is set")
	}
	return nil
}

func (c *Config) transportOptions() []transport.HTTPTransportOption {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = transport.DefaultTimeout
	}
	return []transport.HTTPTransportOption{
		transport.WithTimeout(timeout),
		transport.WithInsecureSkipVerify(c.InsecureSkipVerify),
		transport.WithProxy(c.Proxy),
		transport.WithRootCAs(c.CAFile),
	}
}
