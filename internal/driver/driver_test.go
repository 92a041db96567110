package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/okian/eegscope/internal/adapters/mq/queue"
	"github.com/okian/eegscope/internal/adapters/repository"
	"github.com/okian/eegscope/internal/adapters/serial"
	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/internal/domain/parser"
	"github.com/okian/eegscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func wireLine(sec int64, state string) string {
	return parser.Format(model.Reading{
		Sample: model.Sample{
			Seconds: sec, RMS: 12.5, Attention: 0.75,
			AlphaPower: 1, ThetaPower: 2, DeltaPower: 3, BetaPower: 4,
			State: state,
		},
		SpikeCount: 1,
	})
}

type frameRecorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *frameRecorder) Render(_ context.Context, f Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func (r *frameRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.frames)
}

func (r *frameRecorder) last() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frames[len(r.frames)-1]
}

type fixture struct {
	q     *queue.LineQueue
	store *repository.WindowStore
	rec   *frameRecorder
	d     *Driver
}

func newFixture(capacity int) fixture {
	q := queue.NewLineQueue(queue.WithCapacity(16))
	store, err := repository.NewWindowStore(capacity)
	if err != nil {
		panic(err)
	}
	rec := &frameRecorder{}
	return fixture{q: q, store: store, rec: rec, d: New(q, store, rec, WithInterval(time.Millisecond))}
}

func (f fixture) push(lines ...string) {
	for _, l := range lines {
		_ = f.q.Put(context.Background(), queue.Line{Raw: []byte(l)})
	}
}

func TestTick(t *testing.T) {
	ctx := context.Background()

	Convey("Given a driver over an empty queue", t, func() {
		f := newFixture(3)

		Convey("When ticking with no line available", func() {
			res := f.d.Tick(ctx)

			Convey("Then the tick is idle and still renders", func() {
				So(res.Outcome, ShouldEqual, OutcomeIdle)
				So(res.Err, ShouldBeNil)
				So(res.Rendered, ShouldBeTrue)
				So(f.rec.last().HasLatest, ShouldBeFalse)
				So(f.store.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When ticking over a well-formed line", func() {
			f.push(wireLine(5, "Relaxed"))
			res := f.d.Tick(ctx)

			Convey("Then the sample is appended and rendered", func() {
				So(res.Outcome, ShouldEqual, OutcomeAppended)
				So(res.Sample.Seconds, ShouldEqual, 5)
				So(res.Sample.RMS, ShouldEqual, 12.5)
				So(f.store.Len(ctx), ShouldEqual, 1)

				frame := f.rec.last()
				So(frame.HasLatest, ShouldBeTrue)
				So(frame.Latest.State, ShouldEqual, "Relaxed")
				So(frame.Columns.Len(), ShouldEqual, 1)
				So(frame.Capacity, ShouldEqual, 3)
				So(frame.Outcome, ShouldEqual, OutcomeAppended)
				So(frame.Stats.Appended, ShouldEqual, 1)
				So(frame.Stats.Ticks, ShouldEqual, 1)
			})
		})

		Convey("When ticking over garbage", func() {
			f.push(wireLine(1, "Focused"))
			f.d.Tick(ctx)
			f.push("garbage")
			res := f.d.Tick(ctx)

			Convey("Then the line is rejected and the window is unchanged", func() {
				So(res.Outcome, ShouldEqual, OutcomeParseFailure)
				So(errors.Is(res.Err, parser.ErrShapeMismatch), ShouldBeTrue)
				So(f.store.Len(ctx), ShouldEqual, 1)
				So(res.Rendered, ShouldBeTrue)

				frame := f.rec.last()
				So(frame.Latest.State, ShouldEqual, "Focused")
				So(frame.Stats.ParseFailures, ShouldEqual, 1)
				So(frame.LastError, ShouldNotBeNil)
			})
		})

		Convey("When a numeric field is not a number", func() {
			f.push("second:x, RMS:1, spikeCount:0, alphaPower:1, attention:0.1, thetaPower:1, thetaIndex:0, " +
				"dominantThetaFreq:0, deltaPower:1, deltaIndex:0, dominantDeltaFreq:0, betaPower:1, betaIndex:0, " +
				"dominantBetaFreq:0, state:Relaxed")
			res := f.d.Tick(ctx)

			Convey("Then the failure carries the numeric kind", func() {
				So(errors.Is(res.Err, parser.ErrNumericCoercion), ShouldBeTrue)
				So(f.store.Len(ctx), ShouldEqual, 0)
			})
		})

		Convey("When the line is not valid UTF-8", func() {
			f.push(string([]byte{0xff, 0xfe}))
			res := f.d.Tick(ctx)

			Convey("Then it is treated as a shape mismatch", func() {
				So(res.Outcome, ShouldEqual, OutcomeParseFailure)
				So(errors.Is(res.Err, parser.ErrShapeMismatch), ShouldBeTrue)
				So(errors.Is(res.Err, serial.ErrInvalidEncoding), ShouldBeTrue)
			})
		})

		Convey("When the renderer fails", func() {
			gone := errors.New("terminal gone")
			var seen []Frame
			d := New(f.q, f.store, RendererFunc(func(_ context.Context, fr Frame) error {
				seen = append(seen, fr)
				return gone
			}))
			f.push(wireLine(2, "Relaxed"))
			res := d.Tick(ctx)

			Convey("Then the sample is still appended and the error is counted", func() {
				So(res.Outcome, ShouldEqual, OutcomeAppended)
				So(res.Rendered, ShouldBeFalse)
				So(errors.Is(res.Err, gone), ShouldBeTrue)
				So(f.store.Len(ctx), ShouldEqual, 1)
				So(d.Stats().RenderErrors, ShouldEqual, 1)
				So(len(seen), ShouldEqual, 1)
				So(seen[0].Outcome, ShouldEqual, OutcomeAppended)

				again := d.Tick(ctx)
				So(again.Outcome, ShouldEqual, OutcomeIdle)
				So(d.Stats().RenderErrors, ShouldEqual, 2)
			})
		})

		Convey("When the queue is closed with lines left", func() {
			f.push(wireLine(1, "Relaxed"))
			_ = f.q.Close()

			Convey("Then remaining lines are applied before the source is reported closed", func() {
				So(f.d.Tick(ctx).Outcome, ShouldEqual, OutcomeAppended)

				rendered := f.rec.count()
				res := f.d.Tick(ctx)
				So(res.Outcome, ShouldEqual, OutcomeSourceClosed)
				So(res.Rendered, ShouldBeFalse)
				So(f.rec.count(), ShouldEqual, rendered)
			})
		})

		Convey("When the queue was closed by a transport failure", func() {
			_ = f.q.CloseWithError(serial.ErrTransport)
			res := f.d.Tick(ctx)

			Convey("Then the tick reports it", func() {
				So(res.Outcome, ShouldEqual, OutcomeTransportFailure)
				So(errors.Is(res.Err, serial.ErrTransport), ShouldBeTrue)
				So(res.Outcome.Terminal(), ShouldBeTrue)
			})
		})
	})
}

func TestTickEviction(t *testing.T) {
	ctx := context.Background()

	Convey("Given a driver with window capacity 3", t, func() {
		f := newFixture(3)

		Convey("When four lines are applied", func() {
			for sec := int64(1); sec <= 4; sec++ {
				f.push(wireLine(sec, "Relaxed"))
				f.d.Tick(ctx)
			}

			Convey("Then the rendered columns hold the last three", func() {
				So(f.rec.last().Columns.Seconds, ShouldResemble, []int64{2, 3, 4})
			})
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a driver with queued lines and a closed source", t, func() {
		f := newFixture(10)
		f.push(wireLine(1, "Relaxed"), "garbage", wireLine(2, "Focused"))
		_ = f.q.Close()

		Convey("When running", func() {
			err := f.d.Run(context.Background())

			Convey("Then it drains the queue and returns nil", func() {
				So(err, ShouldBeNil)
				So(f.store.Len(context.Background()), ShouldEqual, 2)
				So(f.d.Stats().ParseFailures, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a source that failed", t, func() {
		f := newFixture(10)
		_ = f.q.CloseWithError(fmt.Errorf("%w: read /dev/ttyACM0", serial.ErrTransport))

		Convey("Then Run returns ErrSourceFailed", func() {
			err := f.d.Run(context.Background())
			So(errors.Is(err, ErrSourceFailed), ShouldBeTrue)
			So(errors.Is(err, serial.ErrTransport), ShouldBeTrue)
			So(IsSourceFailure(err), ShouldBeTrue)
		})
	})

	Convey("Given a quiet open source", t, func() {
		f := newFixture(10)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		Convey("Then Run returns nil once the context ends", func() {
			So(f.d.Run(ctx), ShouldBeNil)
			So(f.d.Stats().Ticks, ShouldBeGreaterThan, 0)
		})
	})
}
