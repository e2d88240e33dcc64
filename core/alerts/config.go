package alerts

import (
	"fmt"
	"time"
)

// Config controls the alert generator loop.
type Config struct {
	IntervalMS int `json:"interval_ms"`
	// Threshold is the draw a tick must exceed to emit an alert.
	Threshold   float64 `json:"threshold"`
	CatalogFile string  `json:"catalog_file"`
	Seed        int64   `json:"seed"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.IntervalMS <= 0 {
		c.IntervalMS = 5000
	}
	if c.Threshold == 0 {
		c.Threshold = 0.8
	}
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.IntervalMS <= 0 {
		return fmt.Errorf("alerts interval_ms must be positive")
	}
	if c.Threshold < 0 || c.Threshold >= 1 {
		return fmt.Errorf("alerts threshold must be in [0, 1)")
	}
	return nil
}

// Interval returns the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
