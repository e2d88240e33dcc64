package dispatch

import (
	"fmt"
	"time"
)

// DefaultAssets lists the assets that accept manual dispatch.
var DefaultAssets = []string{"BESS-0042", "PV-2847", "WIND-0156", "CHP-Warsaw"}

// Config defines the command lifecycle timings and limits.
type Config struct {
	Assets          []string `json:"assets" yaml:"assets"`
	MaxTargetMW     float64  `json:"max_target_mw" yaml:"max_target_mw"`
	RampRateMW      float64  `json:"ramp_rate_mw_per_min" yaml:"ramp_rate_mw_per_min"`
	AckDelayMS      int      `json:"ack_delay_ms" yaml:"ack_delay_ms"`
	ExecuteDelayMS  int      `json:"execute_delay_ms" yaml:"execute_delay_ms"`
	CompleteDelayMS int      `json:"complete_delay_ms" yaml:"complete_delay_ms"`
	MaxCommands     int      `json:"max_commands" yaml:"max_commands"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if len(c.Assets) == 0 {
		c.Assets = append([]string(nil), DefaultAssets...)
	}
	if c.MaxTargetMW == 0 {
		c.MaxTargetMW = 50
	}
	if c.RampRateMW == 0 {
		c.RampRateMW = 5
	}
	if c.AckDelayMS == 0 {
		c.AckDelayMS = 1500
	}
	if c.ExecuteDelayMS == 0 {
		c.ExecuteDelayMS = 3000
	}
	if c.CompleteDelayMS == 0 {
		c.CompleteDelayMS = 6000
	}
	if c.MaxCommands == 0 {
		c.MaxCommands = 100
	}
}

// Validate checks that the lifecycle delays are increasing.
func (c Config) Validate() error {
	if c.MaxTargetMW <= 0 || c.RampRateMW <= 0 {
		return fmt.Errorf("dispatch max_target_mw and ramp rate must be positive")
	}
	if c.AckDelayMS <= 0 || c.ExecuteDelayMS <= c.AckDelayMS || c.CompleteDelayMS <= c.ExecuteDelayMS {
		return fmt.Errorf("dispatch delays must satisfy 0 < ack < execute < complete")
	}
	if c.MaxCommands <= 0 {
		return fmt.Errorf("dispatch max_commands must be positive")
	}
	return nil
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }
