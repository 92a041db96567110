package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/eegscope/internal/simulator"
	"github.com/okian/eegscope/pkg/logger"
)

// Default configuration constants.
const (
	defaultInterval = time.Second
	filePermission  = 0o600
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run emits simulated records until the count is reached or ctx ends. Every
// deferred cleanup has run by the time it returns the exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("fake-device", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var (
		interval  = fs.Duration("interval", defaultInterval, "time between records")
		count     = fs.Int("count", 0, "number of records to emit (0 runs until interrupted)")
		malformed = fs.Float64("malformed", 0, "fraction of records replaced by malformed lines, 0..1")
		output    = fs.String("output", "", "write records to this file or FIFO instead of stdout")
		seed      = fs.Uint64("seed", 0, "random seed (0 picks one from the clock)")
		logLevel  = fs.String("log-level", "info", "debug, info, warn or error")
	)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	// Records go to stdout, so logs go to stderr.
	if err := logger.Init(logger.WithOutput(stderr)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return exitFailure
	}
	if err := logger.SetLevelString(*logLevel); err != nil {
		_ = logger.SetLevelString("info")
	}

	out := stdout
	if *output != "" {
		f, err := os.OpenFile(*output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, filePermission)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open output: %v\n", err)
			return exitFailure
		}
		defer f.Close()
		out = f
	}

	cfg := &simulator.Config{
		Interval:      *interval,
		Count:         *count,
		MalformedRate: *malformed,
		Seed:          *seed,
	}
	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	if _, err := simulator.Run(ctx, cfg, out); err != nil {
		fmt.Fprintf(stderr, "simulated device failed: %v\n", err)
		if errors.Is(err, simulator.ErrInvalidConfig) {
			return exitUsage
		}
		return exitFailure
	}
	return exitOK
}
