package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/okian/eegscope/internal/adapters/mq/queue"
	"github.com/okian/eegscope/internal/adapters/serial"
	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"
)

// Queue is where the pump delivers lines. Put waits for space.
type Queue interface {
	Put(ctx context.Context, l queue.Line) error
	Close() error
	CloseWithError(err error) error
}

// Pump reads the source on its own goroutine so the tick loop never waits
// on the device.
type Pump struct {
	source serial.Source
	queue  Queue
	name   string

	// Shutdown control
	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	// Logging
	logger logger.Logger
}

// NewPump creates a pump with configuration options.
func NewPump(source serial.Source, q Queue, opts ...Option) *Pump {
	p := &Pump{
		source:   source,
		queue:    q,
		name:     "ingest",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("ingest"),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.name != "ingest" {
		p.logger = p.logger.Named(p.name)
	}

	return p
}

// Run reads until the source ends, fails, ctx is cancelled or Shutdown is
// called. The queue is always closed on return; a transport failure is
// recorded on it with ErrTransport.
func (p *Pump) Run(ctx context.Context) {
	defer close(p.done)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-p.shutdown:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		raw, err := p.source.ReadLine(ctx)
		switch {
		case err == nil:
			metrics.RecordLineRead()
			// Waiting here only holds up the device read; the tick keeps its cadence.
			if err := p.queue.Put(ctx, queue.Line{Raw: raw, ReceivedAt: time.Now()}); err != nil {
				p.logger.Debug(ctx, "stopped while waiting for queue space", logger.Error(err))
				_ = p.queue.Close()
				return
			}
		case errors.Is(err, serial.ErrTimeout):
			continue
		case errors.Is(err, serial.ErrLineTooLong):
			metrics.RecordParseFailure("line_too_long")
			p.logger.Warn(ctx, "discarding overlong record", logger.Error(err))
		case errors.Is(err, io.EOF):
			p.logger.Info(ctx, "source reached end of stream")
			_ = p.queue.Close()
			return
		case errors.Is(err, serial.ErrClosed), ctx.Err() != nil:
			_ = p.queue.Close()
			return
		default:
			metrics.RecordTransportError()
			p.logger.Error(ctx, "source read failed", logger.Error(err))
			if !errors.Is(err, serial.ErrTransport) {
				err = fmt.Errorf("%w: %w", serial.ErrTransport, err)
			}
			_ = p.queue.CloseWithError(err)
			return
		}
	}
}

// Shutdown stops the pump and waits for Run to return.
func (p *Pump) Shutdown(ctx context.Context) error {
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		p.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (p *Pump) Done() <-chan struct{} {
	return p.done
}
