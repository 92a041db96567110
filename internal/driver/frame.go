package driver

import (
	"context"

	"github.com/okian/eegscope/internal/domain/model"
)

// Outcome classifies what a single tick did.
type Outcome string

// Tick outcomes.
const (
	OutcomeIdle             Outcome = "idle"
	OutcomeAppended         Outcome = "appended"
	OutcomeParseFailure     Outcome = "parse_failure"
	OutcomeTransportFailure Outcome = "transport_failure"
	OutcomeSourceClosed     Outcome = "source_closed"
)

// Terminal reports whether the loop should stop after this outcome.
func (o Outcome) Terminal() bool {
	return o == OutcomeTransportFailure || o == OutcomeSourceClosed
}

// Stats counts what the driver has done since start.
type Stats struct {
	Ticks         int64  `json:"ticks"`
	Appended      int64  `json:"appended"`
	ParseFailures int64  `json:"parse_failures"`
	RenderErrors  int64  `json:"render_errors"`
	LastError     string `json:"last_error,omitempty"`
}

// Frame is everything a renderer needs to draw one refresh.
type Frame struct {
	Samples   []model.Sample
	Columns   model.Columns
	Latest    model.Sample
	HasLatest bool
	Capacity  int
	Outcome   Outcome
	LastError error
	Stats     Stats
}

// Renderer draws frames. Rendering the same frame twice must look the same.
type Renderer interface {
	Render(ctx context.Context, f Frame) error
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, f Frame) error

// Render implements Renderer.
func (fn RendererFunc) Render(ctx context.Context, f Frame) error {
	return fn(ctx, f)
}

// TickResult reports the outcome of one Tick.
type TickResult struct {
	Outcome  Outcome
	Sample   model.Sample // set when Outcome is OutcomeAppended
	Err      error        // parse, transport or render error
	Rendered bool
}
