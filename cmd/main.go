package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/eegscope/internal/adapters/http/api"
	"github.com/okian/eegscope/internal/adapters/serial"
	"github.com/okian/eegscope/internal/adapters/tui"
	app "github.com/okian/eegscope/internal/app"
	"github.com/okian/eegscope/internal/config"
	"github.com/okian/eegscope/internal/driver"
	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	nanosecondsPerMillisecond = 1e6
)

// Process exit codes.
const (
	exitOK        = 0
	exitFailure   = 1
	exitUsage     = 2
	exitTransport = 3
)

func main() {
	// Disable default Go metrics collection to avoid duplicate metrics
	// We collect our own custom system metrics instead
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// cliFlags are the command-line settings. Only flags given explicitly
// override the loaded configuration.
type cliFlags struct {
	listPorts bool
	overrides map[string]any
}

func parseFlags(args []string, stderr io.Writer) (*cliFlags, error) {
	fs := flag.NewFlagSet("eegscope", flag.ContinueOnError)
	fs.SetOutput(stderr)

	defaults := config.New()
	listPorts := fs.Bool("list-ports", false, "print the serial ports found on this machine and exit")
	fs.String("port", defaults.Port, `serial device path, or "-" to read stdin`)
	fs.Int("baud", defaults.Baud, "serial line speed")
	fs.Int("window", defaults.Window, "number of samples kept on screen")
	fs.Int("tick", defaults.TickIntervalMS, "refresh interval in milliseconds")
	fs.Int("read-timeout", defaults.ReadTimeoutMS, "device read timeout in milliseconds")
	fs.Int("queue-size", defaults.QueueSize, "lines buffered between the reader and the refresh loop")
	fs.String("renderer", defaults.Renderer, `"tui" for the terminal chart, "log" for structured log output`)
	fs.String("addr", defaults.Addr, "HTTP listen address for metrics and the window API (empty disables)")
	fs.Int("metrics-interval", defaults.MetricsIntervalMS, "process and queue gauge refresh interval in milliseconds")
	fs.String("log-level", defaults.LogLevel, "debug, info, warn or error")
	fs.String("log-file", defaults.LogFile, "write logs to this file (defaults to eegscope.log in tui mode)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	keys := map[string]string{
		"port":             "port",
		"baud":             "baud",
		"window":           "window",
		"tick":             "tick_interval_ms",
		"read-timeout":     "read_timeout_ms",
		"queue-size":       "queue_size",
		"renderer":         "renderer",
		"addr":             "addr",
		"metrics-interval": "metrics_interval_ms",
		"log-level":        "log_level",
		"log-file":         "log_file",
	}
	overrides := make(map[string]any)
	fs.Visit(func(f *flag.Flag) {
		key, ok := keys[f.Name]
		if !ok {
			return
		}
		if g, ok := f.Value.(flag.Getter); ok {
			overrides[key] = g.Get()
		}
	})

	return &cliFlags{listPorts: *listPorts, overrides: overrides}, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	flags, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	if flags.listPorts {
		return listPorts(stdout, stderr)
	}

	// Load configuration (defaults -> .env -> optional file -> env -> flags)
	cfg, err := config.Load(ctx, flags.overrides)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitUsage
	}

	// Initialize logging; the terminal chart owns stdout in tui mode.
	logOut := stdout
	if path := cfg.ResolvedLogFile(); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(stderr, "failed to open log file: %v\n", err)
			return exitFailure
		}
		defer f.Close()
		logOut = f
	}
	if err := logger.Init(logger.WithOutput(logOut)); err != nil {
		fmt.Fprintf(stderr, "failed to initialize logging: %v\n", err)
		return exitFailure
	}
	defer func() { _ = logger.Sync() }()

	loggerInstance := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	// Nothing can scrape metrics without the HTTP server, so recording is off then.
	metrics.Init(
		metrics.WithMetricsEnabled(cfg.Addr != ""),
		metrics.WithRefreshInterval(cfg.MetricsInterval()),
	)
	loggerInstance.Info(ctx, "configured",
		logger.String("renderer", cfg.Renderer),
		logger.Bool("http", cfg.Addr != ""),
		logger.Bool("metrics", metrics.Enabled()),
		logger.Duration("metricsInterval", metrics.RefreshInterval()))

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		renderer driver.Renderer
		termUI   *tui.Renderer
	)
	if cfg.Renderer == config.RendererTUI {
		termUI = tui.NewRenderer()
		renderer = termUI
	} else {
		renderer = driver.NewLogRenderer(loggerInstance.Named("plot"))
	}

	svc := app.New(
		app.WithLogger(loggerInstance),
		app.WithPort(cfg.Port),
		app.WithBaud(cfg.Baud),
		app.WithReadTimeout(cfg.ReadTimeout()),
		app.WithWindow(cfg.Window),
		app.WithQueueSize(cfg.QueueSize),
		app.WithTickInterval(cfg.TickInterval()),
		app.WithRenderer(renderer),
	)
	if err := svc.Start(runCtx); err != nil {
		loggerInstance.Error(ctx, "failed to start plotter", logger.Error(err))
		fmt.Fprintf(stderr, "failed to start plotter: %v\n", err)
		return exitCode(err)
	}
	defer svc.Stop()

	if metrics.Enabled() {
		// Start system metrics updater
		go startSystemMetricsUpdater(runCtx)

		// Start service metrics updater
		go startServiceMetricsUpdater(runCtx, svc)
	}

	srv := startHTTPServer(runCtx, cfg.Addr, svc)

	if termUI != nil {
		go func() {
			if err := termUI.Run(runCtx); err != nil {
				loggerInstance.Error(ctx, "terminal ui failed", logger.Error(err))
			}
			// Quitting the chart ends the session.
			cancel()
		}()
	}

	runErr := svc.Wait(runCtx)
	cancel()
	if termUI != nil {
		<-termUI.Done()
	}
	loggerInstance.Info(ctx, "shutting down...")

	if srv != nil {
		// Graceful shutdown with timeout
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			loggerInstance.Error(ctx, "server shutdown failed", logger.Error(err))
		}
	}

	if runErr != nil {
		loggerInstance.Error(ctx, "plotter stopped", logger.Error(runErr))
		fmt.Fprintf(stderr, "plotter stopped: %v\n", runErr)
		return exitCode(runErr)
	}

	loggerInstance.Info(ctx, "plotter stopped")
	return exitOK
}

func exitCode(err error) int {
	if driver.IsSourceFailure(err) {
		return exitTransport
	}
	return exitFailure
}

func listPorts(stdout, stderr io.Writer) int {
	ports, err := serial.Ports()
	if err != nil {
		fmt.Fprintf(stderr, "failed to list ports: %v\n", err)
		return exitTransport
	}
	if len(ports) == 0 {
		fmt.Fprintln(stderr, "no serial ports found")
		return exitOK
	}
	for _, p := range ports {
		fmt.Fprintln(stdout, p)
	}
	return exitOK
}

// startHTTPServer serves the API when addr is set. It returns nil when HTTP is disabled.
func startHTTPServer(ctx context.Context, addr string, svc *app.Service) *http.Server {
	if addr == "" {
		return nil
	}

	// HTTP mux and routes.
	mux := http.NewServeMux()
	apiServer := api.NewServer(svc, svc)
	apiServer.Register(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	l := logger.Get()
	go func() {
		l.Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			l.Error(ctx, "HTTP server failed", logger.Error(err))
		}
	}()

	return srv
}

// startSystemMetricsUpdater starts a background goroutine that updates system metrics.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater starts a background goroutine that updates service metrics.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

// updateSystemMetrics updates system-level metrics.
func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)

	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics copies service gauges that are not updated inline.
func updateServiceMetrics(svc *app.Service) {
	stats := svc.GetStats()

	if queueLen, ok := stats["queue_length"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}

	if capacity, ok := stats["window_capacity"].(int); ok {
		metrics.UpdateWindowCapacity(capacity)
	}
}
