package simulation

import (
	"fmt"
	"time"
)

// Baseline is the fixed value a KPI fluctuates around and the fraction of
// that value it may deviate by on each tick.
type Baseline struct {
	Value float64 `json:"value"`
	Range float64 `json:"range"`
}

// Config defines the simulation loop period and KPI baselines.
type Config struct {
	IntervalMS     int      `json:"interval_ms"`
	Seed           int64    `json:"seed"`
	TotalCapacity  Baseline `json:"total_capacity"`
	ActiveAssets   Baseline `json:"active_assets"`
	UpRegulation   Baseline `json:"up_regulation"`
	DownRegulation Baseline `json:"down_regulation"`
	MarketPrice    Baseline `json:"market_price"`
	AvgPrice       Baseline `json:"avg_price"`
	MaxPrice       Baseline `json:"max_price"`
	MinPrice       Baseline `json:"min_price"`
}

// DefaultConfig returns the baselines of the reference plant.
func DefaultConfig() Config {
	return Config{
		IntervalMS:     2000,
		TotalCapacity:  Baseline{Value: 1250},
		ActiveAssets:   Baseline{Value: 2847, Range: 0.005},
		UpRegulation:   Baseline{Value: 320, Range: 0.05},
		DownRegulation: Baseline{Value: 185, Range: 0.05},
		MarketPrice:    Baseline{Value: 487.50, Range: 0.02},
		AvgPrice:       Baseline{Value: 465.20},
		MaxPrice:       Baseline{Value: 512.00},
		MinPrice:       Baseline{Value: 398.50},
	}
}

// SetDefaults fills unset fields from DefaultConfig. A baseline is unset when
// both its value and range are zero.
func (c *Config) SetDefaults() {
	d := DefaultConfig()
	if c.IntervalMS <= 0 {
		c.IntervalMS = d.IntervalMS
	}
	for _, p := range []struct{ dst, def *Baseline }{
		{&c.TotalCapacity, &d.TotalCapacity},
		{&c.ActiveAssets, &d.ActiveAssets},
		{&c.UpRegulation, &d.UpRegulation},
		{&c.DownRegulation, &d.DownRegulation},
		{&c.MarketPrice, &d.MarketPrice},
		{&c.AvgPrice, &d.AvgPrice},
		{&c.MaxPrice, &d.MaxPrice},
		{&c.MinPrice, &d.MinPrice},
	} {
		if *p.dst == (Baseline{}) {
			*p.dst = *p.def
		}
	}
}

// Validate rejects negative ranges and a non-positive interval.
func (c Config) Validate() error {
	if c.IntervalMS <= 0 {
		return fmt.Errorf("simulation interval_ms must be positive")
	}
	for name, b := range map[string]Baseline{
		"total_capacity":  c.TotalCapacity,
		"active_assets":   c.ActiveAssets,
		"up_regulation":   c.UpRegulation,
		"down_regulation": c.DownRegulation,
		"market_price":    c.MarketPrice,
		"avg_price":       c.AvgPrice,
		"max_price":       c.MaxPrice,
		"min_price":       c.MinPrice,
	} {
		if b.Range < 0 {
			return fmt.Errorf("simulation %s range must not be negative", name)
		}
	}
	return nil
}

// Interval returns the tick period.
func (c Config) Interval() time.Duration {
	return time.Duration(c.IntervalMS) * time.Millisecond
}
