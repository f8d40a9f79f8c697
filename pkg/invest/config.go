// pkg/invest/config.go
package invest

import (
	"fmt"
	"time"
)

// Config holds connection parameters for the upstream quote stream.
type Config struct {
	Host              string        `mapstructure:"host"`
	HandshakeTimeout  time.Duration `mapstructure:"handshake_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
}

// ApplyDefaults applies fallback defaults if values are unset.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 10 * time.Second
	}
	if c.HeartbeatInterval <= 0 {
		// период, который апстрим ожидает между heartbeat-кадрами
		c.HeartbeatInterval = 3200 * time.Millisecond
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
}

// Validate checks config for required fields.
func (c *Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("invest: Host is required")
	case c.HeartbeatInterval <= 0:
		return fmt.Errorf("invest: HeartbeatInterval must be > 0")
	default:
		return nil
	}
}
