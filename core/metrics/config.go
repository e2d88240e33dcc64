package metrics

import (
	"fmt"

	"github.com/kilianp07/vppsim/core/factory"
)

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusPort is the listen address of the /metrics server. Empty
	// disables the server.
	PrometheusPort string `json:"prometheus_port"`
}

// Validate checks that every sink names a type.
func (c Config) Validate() error {
	for i, s := range c.Sinks {
		if s.Type == "" {
			return fmt.Errorf("metrics sink %d has no type", i)
		}
	}
	return nil
}
