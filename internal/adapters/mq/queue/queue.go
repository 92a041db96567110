// Package queue buffers raw device lines between the reader and the tick loop.
//
// TryDequeue never blocks, so the tick does not stall on a quiet device. The
// reader uses Put, which waits for space: unread bytes stay in the device
// buffer instead of being dropped.
package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 64
)

// Line is one raw record read from the device, without its terminator.
type Line struct {
	Raw        []byte
	ReceivedAt time.Time
}

// Queue buffers lines between one producer and one consumer.
type Queue interface {
	// Put adds a line, waiting while the queue is full. It fails with
	// ErrClosed once the queue is closed, or with ctx's error.
	Put(ctx context.Context, l Line) error

	// TryDequeue returns the oldest buffered line, or false when none is ready.
	TryDequeue(ctx context.Context) (Line, bool)

	// Len returns the current number of buffered lines.
	Len(ctx context.Context) int

	// Close stops accepting lines. Buffered lines remain dequeueable.
	Close() error

	// CloseWithError closes the queue and records why the producer stopped.
	CloseWithError(err error) error

	// Err returns the error passed to CloseWithError, if any.
	Err() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool

	// Drained returns true once the queue is closed and empty.
	Drained() bool
}

// LineQueue implements Queue using a buffered channel.
type LineQueue struct {
	lines    chan Line
	capacity int
	now      func() time.Time

	// closing is closed before the write lock is taken in CloseWithError, so
	// a Put waiting for space under the read lock lets go.
	closing   chan struct{}
	closeOnce sync.Once

	mu     sync.RWMutex
	closed bool
	err    error
}

var _ Queue = (*LineQueue)(nil)

// NewLineQueue creates a new line queue with configuration options.
func NewLineQueue(opts ...Option) *LineQueue {
	q := &LineQueue{
		capacity: defaultQueueCapacity,
		now:      time.Now,
		closing:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(q)
	}

	q.lines = make(chan Line, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)

	return q
}

// Put adds a line to the queue, waiting for space while it is full.
func (q *LineQueue) Put(ctx context.Context, l Line) error {
	if l.ReceivedAt.IsZero() {
		l.ReceivedAt = q.now()
	}

	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueDropped()
		return ErrClosed
	}

	select {
	case q.lines <- l:
		metrics.UpdateQueueSize(len(q.lines))
		return nil
	default:
	}

	logger.Get().Debug(ctx, "line queue full, waiting for space",
		logger.Int("capacity", q.capacity),
		logger.Int("bytes", len(l.Raw)))

	select {
	case q.lines <- l:
		metrics.UpdateQueueSize(len(q.lines))
		return nil
	case <-q.closing:
		metrics.RecordQueueDropped()
		return ErrClosed
	case <-ctx.Done():
		metrics.RecordQueueDropped()
		return fmt.Errorf("put line: %w", ctx.Err())
	}
}

// TryDequeue returns the oldest buffered line without blocking.
func (q *LineQueue) TryDequeue(_ context.Context) (Line, bool) {
	select {
	case l, ok := <-q.lines:
		if !ok {
			return Line{}, false
		}
		metrics.UpdateQueueSize(len(q.lines))
		return l, true
	default:
		return Line{}, false
	}
}

// Len returns the current number of buffered lines.
func (q *LineQueue) Len(_ context.Context) int {
	size := len(q.lines)
	metrics.UpdateQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *LineQueue) Close() error {
	return q.CloseWithError(nil)
}

// CloseWithError closes the queue, keeping the first non-nil cause.
func (q *LineQueue) CloseWithError(err error) error {
	q.closeOnce.Do(func() { close(q.closing) })

	q.mu.Lock()
	defer q.mu.Unlock()

	if q.err == nil {
		q.err = err
	}
	if q.closed {
		return nil
	}

	close(q.lines)
	q.closed = true
	return nil
}

// Err returns the error the queue was closed with.
func (q *LineQueue) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// IsClosed returns true if the queue has been closed.
func (q *LineQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}

// Drained returns true once the queue is closed and every line was dequeued.
func (q *LineQueue) Drained() bool {
	return q.IsClosed() && len(q.lines) == 0
}
