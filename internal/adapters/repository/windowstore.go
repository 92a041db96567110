package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/pkg/metrics"
)

// WindowStore is a fixed-capacity ring of samples.
//
// head indexes the oldest sample; size counts valid entries. Insertion and
// eviction happen under one write lock, so readers always see either the
// window before an append or after it.
type WindowStore struct {
	mu   sync.RWMutex
	buf  []model.Sample
	head int
	size int
}

var _ Store = (*WindowStore)(nil)

// NewWindowStore constructs an empty window holding at most capacity samples.
func NewWindowStore(capacity int) (*WindowStore, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	metrics.UpdateWindowCapacity(capacity)
	metrics.UpdateWindowLength(0)
	return &WindowStore{buf: make([]model.Sample, capacity)}, nil
}

// Append implements Store.Append.
func (s *WindowStore) Append(_ context.Context, sample model.Sample) {
	s.mu.Lock()
	evicted := false
	if s.size == len(s.buf) {
		// Overwrite the oldest slot and advance head.
		s.buf[s.head] = sample
		s.head = (s.head + 1) % len(s.buf)
		evicted = true
	} else {
		s.buf[(s.head+s.size)%len(s.buf)] = sample
		s.size++
	}
	size := s.size
	s.mu.Unlock()

	if evicted {
		metrics.RecordWindowEviction()
	}
	metrics.UpdateWindowLength(size)
	metrics.UpdateLatestSample(sample.Seconds, sample.RMS, sample.Attention,
		sample.AlphaPower, sample.ThetaPower, sample.DeltaPower, sample.BetaPower)
}

// Snapshot implements Store.Snapshot.
func (s *WindowStore) Snapshot(_ context.Context) []model.Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Sample, s.size)
	for i := 0; i < s.size; i++ {
		out[i] = s.buf[(s.head+i)%len(s.buf)]
	}
	return out
}

// Latest implements Store.Latest.
func (s *WindowStore) Latest(_ context.Context) (model.Sample, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.size == 0 {
		return model.Sample{}, false
	}
	return s.buf[(s.head+s.size-1)%len(s.buf)], true
}

// Len implements Store.Len.
func (s *WindowStore) Len(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.size
}

// Capacity implements Store.Capacity.
func (s *WindowStore) Capacity() int {
	return len(s.buf)
}
