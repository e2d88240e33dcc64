// Package config loads the service configuration from a YAML or JSON file
// with K_ environment overrides, e.g. K_SIMULATION__INTERVAL_MS=1000.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/vppsim/api"
	"github.com/kilianp07/vppsim/core/alerts"
	"github.com/kilianp07/vppsim/core/dispatch"
	"github.com/kilianp07/vppsim/core/frequency"
	"github.com/kilianp07/vppsim/core/market"
	"github.com/kilianp07/vppsim/core/metrics"
	"github.com/kilianp07/vppsim/core/simulation"
	"github.com/kilianp07/vppsim/infra/logger"
	"github.com/kilianp07/vppsim/infra/monitoring"
	"github.com/kilianp07/vppsim/infra/mqtt"
)

// Config aggregates the settings of every component.
type Config struct {
	Simulation simulation.Config `json:"simulation"`
	Alerts     alerts.Config     `json:"alerts"`
	Frequency  frequency.Config  `json:"frequency"`
	Dispatch   dispatch.Config   `json:"dispatch"`
	Market     market.Config     `json:"market"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Metrics    metrics.Config    `json:"metrics"`
	API        api.Config        `json:"api"`
	Logging    logger.Config     `json:"logging"`
	Sentry     monitoring.Config `json:"sentry"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var cfg Config
	cfg.SetDefaults()
	return &cfg
}

// SetDefaults applies the defaults of each section.
func (c *Config) SetDefaults() {
	c.Simulation.SetDefaults()
	c.Alerts.SetDefaults()
	c.Frequency.SetDefaults()
	c.Dispatch.SetDefaults()
	c.MQTT.SetDefaults()
	c.API.SetDefaults()
	c.Logging.SetDefaults()
}

// Validate checks each section.
func (c *Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"simulation", c.Simulation.Validate},
		{"alerts", c.Alerts.Validate},
		{"frequency", c.Frequency.Validate},
		{"dispatch", c.Dispatch.Validate},
		{"mqtt", c.MQTT.Validate},
		{"metrics", c.Metrics.Validate},
		{"api", c.API.Validate},
		{"logging", c.Logging.Validate},
	}
	for _, ch := range checks {
		if err := ch.fn(); err != nil {
			return fmt.Errorf("%s: %w", ch.name, err)
		}
	}
	return nil
}

// Load reads path, applies environment overrides, fills defaults and
// validates. An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("K_", ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "k_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
