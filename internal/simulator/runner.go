package simulator

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/okian/eegscope/pkg/logger"
)

// lineTerminator matches Serial.println on the analyzer.
const lineTerminator = "\r\n"

// Run writes records to w at the configured interval until Count records are
// written or ctx is cancelled.
func Run(ctx context.Context, cfg *Config, w io.Writer) (*Stats, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	l := logger.Get().Named("simulator")
	stats := &Stats{StartTime: time.Now()}
	l.Info(ctx, "starting simulated device",
		logger.String("run_id", runID),
		logger.Duration("interval", cfg.Interval),
		logger.Int("count", cfg.Count),
		logger.Float64("malformedRate", cfg.MalformedRate),
		logger.Any("seed", cfg.Seed))

	gen := NewGenerator(cfg.Seed, cfg.MalformedRate)

	var tick <-chan time.Time
	if cfg.Interval > 0 {
		ticker := time.NewTicker(cfg.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	finish := func(err error) (*Stats, error) {
		stats.EndTime = time.Now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
		l.Info(ctx, "simulated device stopped",
			logger.String("run_id", runID),
			logger.Int("records", stats.Records),
			logger.Int("malformed", stats.Malformed),
			logger.Duration("duration", stats.Duration))
		return stats, err
	}

	for cfg.Count == 0 || stats.Records < cfg.Count {
		if tick != nil {
			select {
			case <-ctx.Done():
				return finish(nil)
			case <-tick:
			}
		} else if ctx.Err() != nil {
			return finish(nil)
		}

		line, malformed := gen.NextLine()
		if _, err := io.WriteString(w, line+lineTerminator); err != nil {
			return finish(fmt.Errorf("write record: %w", err))
		}
		stats.Records++
		if malformed {
			stats.Malformed++
			l.Debug(ctx, "emitted malformed record", logger.String("line", line))
		}
	}

	return finish(nil)
}
