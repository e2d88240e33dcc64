package api

import "fmt"

// Config configures the HTTP and WebSocket server.
type Config struct {
	// Addr is the listen address, for example ":8080".
	Addr string `json:"addr"`
	// SendBuffer is the number of messages queued per WebSocket client before
	// the client is dropped.
	SendBuffer int `json:"send_buffer"`
	// ShutdownTimeoutMS bounds graceful shutdown.
	ShutdownTimeoutMS int `json:"shutdown_timeout_ms"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.SendBuffer == 0 {
		c.SendBuffer = 32
	}
	if c.ShutdownTimeoutMS == 0 {
		c.ShutdownTimeoutMS = 5000
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.SendBuffer <= 0 {
		return fmt.Errorf("api send_buffer must be positive")
	}
	if c.ShutdownTimeoutMS < 0 {
		return fmt.Errorf("api shutdown_timeout_ms must not be negative")
	}
	return nil
}
