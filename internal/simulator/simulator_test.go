package simulator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

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

func TestClassify(t *testing.T) {
	Convey("Given analyzer readings", t, func() {
		calm := model.Reading{Sample: model.Sample{RMS: 10}}

		cases := []struct {
			name string
			edit func(r *model.Reading)
			want string
		}{
			{"no rule matches", func(*model.Reading) {}, StateUnknown},
			{"high RMS", func(r *model.Reading) { r.RMS = 51 }, StateMoving},
			{"many spikes", func(r *model.Reading) { r.SpikeCount = 4 }, StateMoving},
			{"beta dominant, attention 0.96", func(r *model.Reading) {
				r.BetaPower, r.ThetaPower, r.DeltaPower, r.Attention = 3, 2, 1, 0.96
			}, StateHighlyFocused},
			{"beta dominant, attention 0.92", func(r *model.Reading) {
				r.BetaPower, r.ThetaPower, r.DeltaPower, r.Attention = 3, 2, 1, 0.92
			}, StateFullyFocused},
			{"beta dominant, attention 0.86", func(r *model.Reading) {
				r.BetaPower, r.ThetaPower, r.DeltaPower, r.Attention = 3, 2, 1, 0.86
			}, StateFocused},
			{"theta saturated at low RMS", func(r *model.Reading) {
				r.ThetaIndex, r.Attention, r.RMS = 0.99, 0.96, 4
			}, StateFullyRelaxed},
			{"theta high", func(r *model.Reading) {
				r.ThetaIndex, r.Attention = 0.96, 0.91
			}, StateRelaxed},
			{"delta saturated at very low RMS", func(r *model.Reading) {
				r.DeltaIndex, r.RMS = 0.99, 2
			}, StateDeepSleep},
			{"theta moderately high", func(r *model.Reading) { r.ThetaIndex = 0.91 }, StateSemiRelaxed},
			{"movement wins over focus", func(r *model.Reading) {
				r.BetaPower, r.ThetaPower, r.DeltaPower, r.Attention, r.RMS = 3, 2, 1, 0.99, 60
			}, StateMoving},
		}

		for _, tc := range cases {
			r := calm
			tc.edit(&r)
			Convey("When "+tc.name, func() {
				So(Classify(r), ShouldEqual, tc.want)
			})
		}
	})
}

func TestGenerator(t *testing.T) {
	Convey("Given a generator without malformed lines", t, func() {
		gen := NewGenerator(42, 0)

		Convey("Then every line should parse with increasing seconds", func() {
			for i := int64(1); i <= 200; i++ {
				line, malformed := gen.NextLine()
				So(malformed, ShouldBeFalse)

				r, err := parser.Parse(line)
				So(err, ShouldBeNil)
				So(r.Seconds, ShouldEqual, i)
				So(r.State, ShouldNotBeEmpty)
				So(r.Attention, ShouldBeBetweenOrEqual, 0.0, 1.0)
			}
		})
	})

	Convey("Given two generators with the same seed", t, func() {
		a, b := NewGenerator(7, 0.3), NewGenerator(7, 0.3)

		Convey("Then they should emit the same stream", func() {
			for range 50 {
				la, ma := a.NextLine()
				lb, mb := b.NextLine()
				So(la, ShouldEqual, lb)
				So(ma, ShouldEqual, mb)
			}
		})
	})

	Convey("Given a generator that always corrupts lines", t, func() {
		gen := NewGenerator(3, 1)

		Convey("Then no line should parse", func() {
			for range 100 {
				line, malformed := gen.NextLine()
				So(malformed, ShouldBeTrue)

				_, err := parser.Parse(line)
				So(err, ShouldNotBeNil)
				var perr *parser.Error
				So(errors.As(err, &perr), ShouldBeTrue)
			}
		})
	})
}

func TestRun(t *testing.T) {
	Convey("Given a simulated device", t, func() {
		ctx := context.Background()

		Convey("When asked for a fixed number of records", func() {
			var out bytes.Buffer
			stats, err := Run(ctx, &Config{Count: 25, Seed: 1}, &out)

			Convey("Then it should write exactly that many terminated lines", func() {
				So(err, ShouldBeNil)
				So(stats.Records, ShouldEqual, 25)
				So(stats.Malformed, ShouldEqual, 0)
				So(strings.HasSuffix(out.String(), "\r\n"), ShouldBeTrue)

				lines := strings.Split(strings.TrimSuffix(out.String(), "\r\n"), "\r\n")
				So(len(lines), ShouldEqual, 25)
				_, err := parser.Parse(lines[24])
				So(err, ShouldBeNil)
			})
		})

		Convey("When the configuration is invalid", func() {
			_, err := Run(ctx, &Config{MalformedRate: 1.5}, io.Discard)

			Convey("Then it should be rejected", func() {
				So(errors.Is(err, ErrInvalidConfig), ShouldBeTrue)
			})
		})

		Convey("When the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(ctx, 30*time.Millisecond)
			defer cancel()

			stats, err := Run(ctx, &Config{Interval: time.Hour}, io.Discard)

			Convey("Then it should stop without error", func() {
				So(err, ShouldBeNil)
				So(stats.Records, ShouldEqual, 0)
			})
		})

		Convey("When the output fails", func() {
			_, err := Run(ctx, &Config{Count: 3}, failingWriter{})

			Convey("Then the write error should be returned", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "write record")
			})
		})
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("broken pipe")
}
