package main

import (
	"errors"
	"time"
)

// Config holds parameters for the traffic generator.
type Config struct {
	Broker      string
	TopicPrefix string
	Floors      int
	Cars        []string
	// Rate is the mean number of presses per minute at full intensity.
	Rate float64
	// PanelPct is the share of presses made on car panels rather than in
	// the hall.
	PanelPct float64
	// Profile weights Rate for each hour of the day.
	Profile  [24]float64
	Duration time.Duration
	Seed     int64
	Verbose  bool
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return errors.New("broker is required")
	}
	if c.Floors < 2 {
		return errors.New("at least two floors are required")
	}
	if c.Rate <= 0 {
		return errors.New("rate must be positive")
	}
	if c.PanelPct < 0 || c.PanelPct > 1 {
		return errors.New("panel-pct must be between 0 and 1")
	}
	if c.PanelPct > 0 && len(c.Cars) == 0 {
		return errors.New("panel presses need at least one car")
	}
	return nil
}
