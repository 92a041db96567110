package driver

import (
	"time"

	"github.com/okian/eegscope/pkg/logger"
)

const defaultInterval = 200 * time.Millisecond

// Option applies a configuration option to the Driver.
type Option func(*Driver)

// WithInterval sets the refresh period used by Run.
func WithInterval(d time.Duration) Option {
	return func(dr *Driver) {
		if d > 0 {
			dr.interval = d
		}
	}
}

// WithLogger sets a custom logger for the driver.
func WithLogger(l logger.Logger) Option {
	return func(dr *Driver) {
		if l != nil {
			dr.logger = l
		}
	}
}
