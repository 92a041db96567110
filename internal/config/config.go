// Package config defines process configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers .env, YAML, environment and flag overrides on top of New().
// - External errors must be wrapped with this package's sentinels.
package config

import (
	"fmt"
	"time"
)

// Renderer names accepted by the renderer key.
const (
	RendererTUI = "tui"
	RendererLog = "log"
)

// StdinPort selects standard input as the byte-stream source.
const StdinPort = "-"

// DefaultLogFile receives logs while the terminal UI owns the screen.
const DefaultLogFile = "eegscope.log"

// Config contains process configuration.
type Config struct {
	// Port is the serial device path, or "-" for stdin.
	Port string `koanf:"port"`

	// Baud is the serial line speed; frames are always 8N1.
	Baud int `koanf:"baud"`

	// Window is the number of samples kept for plotting.
	Window int `koanf:"window"`

	// TickIntervalMS is the refresh period of the driver loop.
	TickIntervalMS int `koanf:"tick_interval_ms"`

	// ReadTimeoutMS bounds a single read from the device.
	ReadTimeoutMS int `koanf:"read_timeout_ms"`

	// QueueSize bounds the lines buffered between reader and driver.
	QueueSize int `koanf:"queue_size"`

	// Renderer is "tui" or "log".
	Renderer string `koanf:"renderer"`

	// Addr configures the HTTP listen address, e.g. ":9090". Empty disables HTTP.
	Addr string `koanf:"addr"`

	// MetricsIntervalMS is how often process and queue gauges are refreshed.
	MetricsIntervalMS int `koanf:"metrics_interval_ms"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile, when set, receives logs instead of stdout.
	LogFile string `koanf:"log_file"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		Port:              "/dev/ttyACM0",
		Baud:              115200,
		Window:            60,
		TickIntervalMS:    200,
		ReadTimeoutMS:     1000,
		QueueSize:         64,
		Renderer:          RendererTUI,
		Addr:              "",
		MetricsIntervalMS: 10000,
		LogLevel:          "info",
		LogFile:           "",
	}
}

// TickInterval returns the driver refresh period.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.TickIntervalMS) * time.Millisecond
}

// MetricsInterval returns the polled gauge refresh period.
func (c *Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalMS) * time.Millisecond
}

// ReadTimeout returns the per-read device timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// ResolvedLogFile returns where logs should go. The TUI needs the terminal,
// so it falls back to DefaultLogFile when nothing was configured.
func (c *Config) ResolvedLogFile() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	if c.Renderer == RendererTUI {
		return DefaultLogFile
	}
	return ""
}

// Validate checks the configuration for values the plotter cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.Port == "":
		return fmt.Errorf("%w: port must not be empty", ErrInvalidConfig)
	case c.Baud <= 0:
		return fmt.Errorf("%w: baud must be positive, got %d", ErrInvalidConfig, c.Baud)
	case c.Window <= 0:
		return fmt.Errorf("%w: window must be positive, got %d", ErrInvalidConfig, c.Window)
	case c.TickIntervalMS <= 0:
		return fmt.Errorf("%w: tick_interval_ms must be positive, got %d", ErrInvalidConfig, c.TickIntervalMS)
	case c.ReadTimeoutMS <= 0:
		return fmt.Errorf("%w: read_timeout_ms must be positive, got %d", ErrInvalidConfig, c.ReadTimeoutMS)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.MetricsIntervalMS <= 0:
		return fmt.Errorf("%w: metrics_interval_ms must be positive, got %d", ErrInvalidConfig, c.MetricsIntervalMS)
	case c.Renderer != RendererTUI && c.Renderer != RendererLog:
		return fmt.Errorf("%w: renderer must be %q or %q, got %q", ErrInvalidConfig, RendererTUI, RendererLog, c.Renderer)
	}
	return nil
}
