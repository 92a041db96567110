// Package simulator emits synthetic analyzer telemetry so the plotter can be
// run without hardware.
package simulator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("invalid simulator config")

// Config holds configuration for a simulated device.
type Config struct {
	Interval      time.Duration // Time between records; the analyzer reports once per second
	Count         int           // Number of records to emit; 0 runs until cancelled
	MalformedRate float64       // Fraction of records replaced by a malformed line, 0..1
	Seed          uint64        // Random seed; runs with the same seed emit the same stream
}

// Stats holds what a run emitted.
type Stats struct {
	Records   int
	Malformed int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("%w: interval must not be negative", ErrInvalidConfig)
	}
	if c.Count < 0 {
		return fmt.Errorf("%w: count must not be negative", ErrInvalidConfig)
	}
	if c.MalformedRate < 0 || c.MalformedRate > 1 {
		return fmt.Errorf("%w: malformed rate must be within [0, 1]", ErrInvalidConfig)
	}
	return nil
}
