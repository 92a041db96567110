// Package service wires the byte-stream source, line queue, window store and
// refresh driver into one lifecycle, and implements the dependencies required
// by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eegscope/internal/adapters/mq/ingest"
	linequeue "github.com/okian/eegscope/internal/adapters/mq/queue"
	"github.com/okian/eegscope/internal/adapters/repository"
	"github.com/okian/eegscope/internal/adapters/serial"
	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/internal/driver"
	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"
)

const pumpShutdownTimeout = 5 * time.Second

// ErrNotStarted is returned by Wait when Start has not succeeded.
var ErrNotStarted = errors.New("service not started")

// SourceOpener connects to the byte-stream source.
type SourceOpener func(ctx context.Context, cfg serial.Config) (serial.Source, error)

func openSerial(ctx context.Context, cfg serial.Config) (serial.Source, error) {
	return serial.Open(ctx, cfg)
}

// Service owns the plotter pipeline.
type Service struct {
	mu sync.RWMutex

	// Core components
	source serial.Source
	queue  *linequeue.LineQueue
	store  *repository.WindowStore
	pump   *ingest.Pump
	driver *driver.Driver

	// Configuration
	sourceCfg    serial.Config
	window       int
	queueSize    int
	tickInterval time.Duration
	renderer     driver.Renderer
	opener       SourceOpener

	// State
	sessionID string
	startedAt time.Time
	started   bool
	cancel    context.CancelFunc
	done      chan struct{}
	runErr    error

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithPort sets the serial device path, or "-" for stdin.
func WithPort(port string) Option {
	return func(s *Service) {
		if port != "" {
			s.sourceCfg.Port = port
		}
	}
}

// WithBaud sets the serial line speed.
func WithBaud(baud int) Option {
	return func(s *Service) {
		if baud > 0 {
			s.sourceCfg.Baud = baud
		}
	}
}

// WithReadTimeout bounds a single device read.
func WithReadTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.sourceCfg.ReadTimeout = d
		}
	}
}

// WithWindow sets the number of samples kept.
func WithWindow(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.window = n
		}
	}
}

// WithQueueSize sets the maximum number of buffered lines.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithTickInterval sets the refresh period.
func WithTickInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tickInterval = d
		}
	}
}

// WithRenderer sets the renderer frames are drawn with.
func WithRenderer(r driver.Renderer) Option {
	return func(s *Service) {
		if r != nil {
			s.renderer = r
		}
	}
}

// WithSourceOpener replaces how the byte-stream source is opened.
func WithSourceOpener(open SourceOpener) Option {
	return func(s *Service) {
		if open != nil {
			s.opener = open
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		sourceCfg: serial.Config{
			Port:        "/dev/ttyACM0",
			Baud:        115200,
			ReadTimeout: time.Second,
		},
		window:       60,
		queueSize:    64,
		tickInterval: 200 * time.Millisecond,
		opener:       openSerial,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start opens the source and launches the reader and refresh loop. A source
// that cannot be opened is reported as a transport failure.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}
	if s.renderer == nil {
		s.renderer = driver.NewLogRenderer(s.logger.Named("plot"))
	}

	s.sessionID = uuid.NewString()
	s.logger.Info(ctx, "starting plotter",
		logger.String("session_id", s.sessionID),
		logger.String("port", s.sourceCfg.Port),
		logger.Int("baud", s.sourceCfg.Baud))

	source, err := s.opener(ctx, s.sourceCfg)
	if err != nil {
		if !errors.Is(err, serial.ErrTransport) {
			err = fmt.Errorf("%w: %w", serial.ErrTransport, err)
		}
		metrics.RecordTransportError()
		return fmt.Errorf("open source: %w", err)
	}

	store, err := repository.NewWindowStore(s.window)
	if err != nil {
		_ = source.Close()
		return fmt.Errorf("create window: %w", err)
	}

	s.source = source
	s.store = store
	s.queue = linequeue.NewLineQueue(linequeue.WithCapacity(s.queueSize))
	s.pump = ingest.NewPump(source, s.queue, ingest.WithLogger(s.logger.Named("ingest")))
	s.driver = driver.New(s.queue, s.store, s.renderer,
		driver.WithInterval(s.tickInterval),
		driver.WithLogger(s.logger.Named("driver")))

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.done = make(chan struct{})
	s.runErr = nil

	go s.pump.Run(runCtx)
	go func(d *driver.Driver, done chan struct{}) {
		err := d.Run(runCtx)
		s.mu.Lock()
		s.runErr = err
		s.mu.Unlock()
		close(done)
	}(s.driver, s.done)

	s.startedAt = time.Now()
	s.started = true
	s.logger.Info(ctx, "plotter started",
		logger.Int("window", s.window),
		logger.Int("queueSize", s.queueSize),
		logger.Duration("tickInterval", s.tickInterval))

	return nil
}

// Wait blocks until the refresh loop ends or ctx is done. It returns the
// loop's error, which wraps driver.ErrSourceFailed on a transport failure.
func (s *Service) Wait(ctx context.Context) error {
	s.mu.RLock()
	done := s.done
	s.mu.RUnlock()
	if done == nil {
		return ErrNotStarted
	}

	select {
	case <-done:
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.runErr
	case <-ctx.Done():
		return nil
	}
}

// Stop gracefully shuts down the pipeline: the source is closed, the reader
// drains and the refresh loop ends.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	cancel, source, pump, q, done := s.cancel, s.source, s.pump, s.queue, s.done
	s.mu.Unlock()

	ctx := context.Background()
	s.logger.Info(ctx, "stopping plotter...")

	cancel()
	if err := source.Close(); err != nil {
		s.logger.Warn(ctx, "closing source failed", logger.Error(err))
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, pumpShutdownTimeout)
	defer cancelShutdown()
	if err := pump.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn(ctx, "reader shutdown failed", logger.Error(err))
	}
	_ = q.Close()

	<-done
	s.logger.Info(ctx, "plotter stopped", logger.String("session_id", s.sessionID))
}

// Snapshot returns the window contents, oldest first.
func (s *Service) Snapshot(ctx context.Context) []model.Sample {
	if st := s.windowStore(); st != nil {
		return st.Snapshot(ctx)
	}
	return []model.Sample{}
}

// Latest returns the newest sample.
func (s *Service) Latest(ctx context.Context) (model.Sample, bool) {
	if st := s.windowStore(); st != nil {
		return st.Latest(ctx)
	}
	return model.Sample{}, false
}

// Len returns the number of samples in the window.
func (s *Service) Len(ctx context.Context) int {
	if st := s.windowStore(); st != nil {
		return st.Len(ctx)
	}
	return 0
}

// Capacity returns the window capacity.
func (s *Service) Capacity() int {
	return s.window
}

func (s *Service) windowStore() *repository.WindowStore {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store
}

// SessionID identifies this run in logs and stats.
func (s *Service) SessionID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sessionID
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":         s.started,
		"session_id":      s.sessionID,
		"port":            s.sourceCfg.Port,
		"baud":            s.sourceCfg.Baud,
		"window_capacity": s.window,
		"queue_capacity":  s.queueSize,
		"tick_interval":   s.tickInterval.String(),
	}

	if s.store != nil {
		stats["window_len"] = s.store.Len(ctx)
	}
	if s.queue != nil {
		stats["queue_length"] = s.queue.Len(ctx)
	}
	if s.driver != nil {
		ds := s.driver.Stats()
		stats["ticks"] = ds.Ticks
		stats["appended"] = ds.Appended
		stats["parse_failures"] = ds.ParseFailures
		stats["render_errors"] = ds.RenderErrors
		if ds.LastError != "" {
			stats["last_error"] = ds.LastError
		}
	}
	if s.started {
		stats["uptime_seconds"] = time.Since(s.startedAt).Seconds()
	}

	return stats
}
