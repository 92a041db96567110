// Package repository holds the bounded sliding window of accepted samples.
package repository

import (
	"context"

	"github.com/okian/eegscope/internal/domain/model"
)

// Store provides read/write access to the sample window.
type Store interface {
	// Append adds a sample, evicting the oldest when the window is full.
	Append(ctx context.Context, s model.Sample)

	// Snapshot returns a copy of the window, oldest first.
	Snapshot(ctx context.Context) []model.Sample

	// Latest returns the most recent sample, or false when the window is empty.
	Latest(ctx context.Context) (model.Sample, bool)

	// Len returns the number of samples held.
	Len(ctx context.Context) int

	// Capacity returns the maximum number of samples held.
	Capacity() int
}
