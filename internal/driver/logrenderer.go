package driver

import (
	"context"
	"sync"

	"github.com/okian/eegscope/pkg/logger"
)

// LogRenderer is a headless Renderer that logs each newly appended sample.
// Frames without a new sample produce no output.
type LogRenderer struct {
	logger logger.Logger

	mu       sync.Mutex
	appended int64
}

// NewLogRenderer creates a renderer writing through l, or the global logger when nil.
func NewLogRenderer(l logger.Logger) *LogRenderer {
	if l == nil {
		l = logger.Get().Named("plot")
	}
	return &LogRenderer{logger: l}
}

// Render implements Renderer.
func (r *LogRenderer) Render(ctx context.Context, f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !f.HasLatest || f.Stats.Appended == r.appended {
		return nil
	}
	r.appended = f.Stats.Appended

	s := f.Latest
	r.logger.Info(ctx, "sample",
		logger.Int64("second", s.Seconds),
		logger.String("state", s.State),
		logger.Float64("rms", s.RMS),
		logger.Float64("attention", s.Attention),
		logger.Float64("alpha", s.AlphaPower),
		logger.Float64("theta", s.ThetaPower),
		logger.Float64("delta", s.DeltaPower),
		logger.Float64("beta", s.BetaPower),
		logger.Int("window", len(f.Samples)),
		logger.Int("capacity", f.Capacity))
	return nil
}
