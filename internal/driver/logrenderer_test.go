package driver

import (
	"context"
	"sync"
	"testing"

	"github.com/okian/eegscope/internal/domain/model"
	"github.com/okian/eegscope/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, msg)
}

func (l *recordingLogger) Info(_ context.Context, msg string, _ ...logger.Field)  { l.record(msg) }
func (l *recordingLogger) Error(_ context.Context, msg string, _ ...logger.Field) { l.record(msg) }
func (l *recordingLogger) Debug(_ context.Context, msg string, _ ...logger.Field) { l.record(msg) }
func (l *recordingLogger) Warn(_ context.Context, msg string, _ ...logger.Field)  { l.record(msg) }
func (l *recordingLogger) Fatal(_ context.Context, msg string, _ ...logger.Field) { l.record(msg) }
func (l *recordingLogger) Named(string) logger.Logger                             { return l }

func TestLogRenderer(t *testing.T) {
	ctx := context.Background()

	Convey("Given a log renderer", t, func() {
		rl := &recordingLogger{}
		r := NewLogRenderer(rl)

		Convey("When rendering an empty window", func() {
			So(r.Render(ctx, Frame{}), ShouldBeNil)

			Convey("Then nothing is logged", func() {
				So(rl.messages, ShouldBeEmpty)
			})
		})

		Convey("When rendering the same frame twice", func() {
			frame := Frame{
				Samples:   []model.Sample{{Seconds: 3, State: "Relaxed"}},
				Latest:    model.Sample{Seconds: 3, State: "Relaxed"},
				HasLatest: true,
				Stats:     Stats{Appended: 1},
			}
			So(r.Render(ctx, frame), ShouldBeNil)
			So(r.Render(ctx, frame), ShouldBeNil)

			Convey("Then the sample is logged once", func() {
				So(rl.messages, ShouldResemble, []string{"sample"})
			})

			Convey("And a new append logs again", func() {
				frame.Stats.Appended = 2
				So(r.Render(ctx, frame), ShouldBeNil)
				So(len(rl.messages), ShouldEqual, 2)
			})
		})
	})
}
