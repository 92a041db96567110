// Package driver runs the refresh loop: dequeue one line, parse it, append it
// to the window and render the result.
package driver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/eegscope/internal/adapters/mq/queue"
	"github.com/okian/eegscope/internal/adapters/repository"
	"github.com/okian/eegscope/internal/adapters/serial"
	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/internal/domain/parser"
	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"
)

// LineSource is the consuming side of the line queue.
type LineSource interface {
	TryDequeue(ctx context.Context) (queue.Line, bool)
	Drained() bool
	Err() error
}

// Driver owns the tick loop. Tick must not be called concurrently.
type Driver struct {
	source   LineSource
	store    repository.Store
	renderer Renderer
	interval time.Duration
	logger   logger.Logger

	mu      sync.RWMutex
	stats   Stats
	lastErr error
}

// New creates a driver with configuration options.
func New(source LineSource, store repository.Store, renderer Renderer, opts ...Option) *Driver {
	d := &Driver{
		source:   source,
		store:    store,
		renderer: renderer,
		interval: defaultInterval,
		logger:   logger.Get().Named("driver"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Interval returns the refresh period.
func (d *Driver) Interval() time.Duration {
	return d.interval
}

// Stats returns a copy of the counters.
func (d *Driver) Stats() Stats {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.stats
}

// Tick takes at most one line, applies it and renders the window.
func (d *Driver) Tick(ctx context.Context) TickResult {
	start := time.Now()
	d.mu.Lock()
	d.stats.Ticks++
	d.mu.Unlock()

	res := d.tick(ctx)
	metrics.RecordTick(string(res.Outcome))
	metrics.RecordTickDuration(time.Since(start))
	return res
}

func (d *Driver) tick(ctx context.Context) TickResult {
	line, ok := d.source.TryDequeue(ctx)
	if !ok {
		if d.source.Drained() {
			return d.closed()
		}
		return d.render(ctx, TickResult{Outcome: OutcomeIdle})
	}

	sample, err := d.apply(ctx, line)
	if err != nil {
		return d.render(ctx, TickResult{Outcome: OutcomeParseFailure, Err: err})
	}
	return d.render(ctx, TickResult{Outcome: OutcomeAppended, Sample: sample})
}

// apply decodes, parses and appends one line.
func (d *Driver) apply(ctx context.Context, line queue.Line) (model.Sample, error) {
	text, err := serial.Decode(line.Raw)
	if err != nil {
		err = &parser.Error{Kind: parser.ErrShapeMismatch, Cause: err}
		d.failed(ctx, err, fmt.Sprintf("%q", line.Raw))
		return model.Sample{}, err
	}

	sample, err := parser.ParseSample(text)
	if err != nil {
		d.failed(ctx, err, text)
		return model.Sample{}, err
	}

	d.store.Append(ctx, sample)
	metrics.RecordSampleAppended()

	d.mu.Lock()
	d.stats.Appended++
	d.mu.Unlock()
	return sample, nil
}

func (d *Driver) failed(ctx context.Context, err error, line string) {
	kind := parser.KindLabel(err)
	metrics.RecordParseFailure(kind)
	d.logger.Warn(ctx, "rejected line",
		logger.String("kind", kind),
		logger.String("line", line),
		logger.Error(err))

	d.mu.Lock()
	d.stats.ParseFailures++
	d.stats.LastError = err.Error()
	d.lastErr = err
	d.mu.Unlock()
}

func (d *Driver) closed() TickResult {
	if err := d.source.Err(); err != nil {
		return TickResult{Outcome: OutcomeTransportFailure, Err: err}
	}
	return TickResult{Outcome: OutcomeSourceClosed}
}

// render builds the frame for the current window and hands it to the renderer.
func (d *Driver) render(ctx context.Context, res TickResult) TickResult {
	if d.renderer == nil {
		return res
	}

	frame := d.Frame(ctx)
	frame.Outcome = res.Outcome

	if err := d.renderer.Render(ctx, frame); err != nil {
		metrics.RecordRenderError()
		d.logger.Error(ctx, "render failed", logger.Error(err))
		d.mu.Lock()
		d.stats.RenderErrors++
		d.mu.Unlock()
		if res.Err == nil {
			res.Err = err
		}
		return res
	}
	res.Rendered = true
	return res
}

// Frame snapshots the window and counters.
func (d *Driver) Frame(ctx context.Context) Frame {
	samples := d.store.Snapshot(ctx)
	f := Frame{
		Samples:  samples,
		Columns:  model.ColumnsOf(samples),
		Capacity: d.store.Capacity(),
	}
	if n := len(samples); n > 0 {
		f.Latest = samples[n-1]
		f.HasLatest = true
	}

	d.mu.RLock()
	f.Stats = d.stats
	f.LastError = d.lastErr
	d.mu.RUnlock()
	return f
}

// Run ticks at the configured interval. It returns nil when ctx is cancelled
// or the source ends, and an error wrapping ErrSourceFailed when the source
// failed.
func (d *Driver) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info(ctx, "refresh loop started", logger.Duration("interval", d.interval))
	for {
		select {
		case <-ctx.Done():
			d.logger.Info(ctx, "refresh loop stopped", logger.String("reason", "context done"))
			return nil
		case <-ticker.C:
			res := d.Tick(ctx)
			switch res.Outcome {
			case OutcomeSourceClosed:
				d.logger.Info(ctx, "refresh loop stopped", logger.String("reason", "source closed"))
				return nil
			case OutcomeTransportFailure:
				return fmt.Errorf("%w: %w", ErrSourceFailed, res.Err)
			}
		}
	}
}

// IsSourceFailure reports whether err came from a failed byte-stream source.
func IsSourceFailure(err error) bool {
	return errors.Is(err, ErrSourceFailed) || errors.Is(err, serial.ErrTransport)
}
