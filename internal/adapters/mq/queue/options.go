package queue

import "time"

// Option applies a configuration option to the LineQueue.
type Option func(*LineQueue)

// WithCapacity sets the maximum number of buffered lines.
func WithCapacity(capacity int) Option {
	return func(q *LineQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithClock replaces time.Now for stamping lines without a receive time.
func WithClock(now func() time.Time) Option {
	return func(q *LineQueue) {
		if now != nil {
			q.now = now
		}
	}
}
