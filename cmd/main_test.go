package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"testing"
	"time"

	"github.com/okian/eegscope/internal/adapters/serial"
	app "github.com/okian/eegscope/internal/app"
	"github.com/okian/eegscope/internal/driver"
	"github.com/okian/eegscope/pkg/logger"
	"github.com/okian/eegscope/pkg/metrics"
	"github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(logger.WithOutput(io.Discard)); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func TestParseFlags(t *testing.T) {
	convey.Convey("Given the command-line flags", t, func() {
		convey.Convey("When no flags are given", func() {
			flags, err := parseFlags(nil, io.Discard)

			convey.Convey("Then nothing should be overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(flags.listPorts, convey.ShouldBeFalse)
				convey.So(flags.overrides, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When some flags are given", func() {
			flags, err := parseFlags([]string{"-port", "-", "-window", "120", "-tick", "50", "-renderer", "log"}, io.Discard)

			convey.Convey("Then only those keys should be overridden", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(flags.overrides, convey.ShouldResemble, map[string]any{
					"port":             "-",
					"window":           120,
					"tick_interval_ms": 50,
					"renderer":         "log",
				})
			})
		})

		convey.Convey("When the metrics interval is given", func() {
			flags, err := parseFlags([]string{"-metrics-interval", "250", "-addr", ":9090"}, io.Discard)

			convey.Convey("Then it maps onto the config key", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(flags.overrides, convey.ShouldResemble, map[string]any{
					"metrics_interval_ms": 250,
					"addr":                ":9090",
				})
			})
		})

		convey.Convey("When -list-ports is given", func() {
			flags, err := parseFlags([]string{"-list-ports"}, io.Discard)

			convey.Convey("Then it should be reported without overrides", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(flags.listPorts, convey.ShouldBeTrue)
				convey.So(flags.overrides, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When an unknown flag is given", func() {
			var stderr bytes.Buffer
			_, err := parseFlags([]string{"-bogus"}, &stderr)

			convey.Convey("Then parsing should fail with usage", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "-bogus")
			})
		})
	})
}

func TestRun(t *testing.T) {
	convey.Convey("Given the plotter entry point", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		convey.Convey("When help is requested", func() {
			convey.So(run(ctx, []string{"-h"}, io.Discard, io.Discard), convey.ShouldEqual, exitOK)
		})

		convey.Convey("When the flags are malformed", func() {
			convey.So(run(ctx, []string{"-window", "many"}, io.Discard, io.Discard), convey.ShouldEqual, exitUsage)
		})

		convey.Convey("When the configuration is invalid", func() {
			var stderr bytes.Buffer
			code := run(ctx, []string{"-window", "0", "-renderer", "log"}, io.Discard, &stderr)

			convey.Convey("Then it should exit with a usage error", func() {
				convey.So(code, convey.ShouldEqual, exitUsage)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to load config")
			})
		})

		convey.Convey("When the serial device does not exist", func() {
			var stderr bytes.Buffer
			code := run(ctx, []string{"-port", "/dev/eegscope-missing-device", "-renderer", "log"}, io.Discard, &stderr)

			convey.Convey("Then it should exit with a transport error", func() {
				convey.So(code, convey.ShouldEqual, exitTransport)
				convey.So(stderr.String(), convey.ShouldContainSubstring, "failed to start plotter")
			})
		})

		convey.Convey("When running without an HTTP address", func() {
			convey.Reset(func() { metrics.Init() })
			code := run(ctx, []string{"-port", "/dev/eegscope-missing-device", "-renderer", "log", "-metrics-interval", "250"}, io.Discard, io.Discard)

			convey.Convey("Then metrics recording is off and the interval is applied", func() {
				convey.So(code, convey.ShouldEqual, exitTransport)
				convey.So(metrics.Enabled(), convey.ShouldBeFalse)
				convey.So(metrics.RefreshInterval(), convey.ShouldEqual, 250*time.Millisecond)
			})
		})
	})
}

func TestExitCode(t *testing.T) {
	convey.Convey("Given errors returned by the plotter", t, func() {
		convey.Convey("Then source failures should map to the transport exit code", func() {
			err := fmt.Errorf("%w: %w", driver.ErrSourceFailed, serial.ErrTransport)
			convey.So(exitCode(err), convey.ShouldEqual, exitTransport)
			convey.So(exitCode(fmt.Errorf("open source: %w", serial.ErrTransport)), convey.ShouldEqual, exitTransport)
		})

		convey.Convey("And other errors should map to a generic failure", func() {
			convey.So(exitCode(errors.New("boom")), convey.ShouldEqual, exitFailure)
		})
	})
}

func TestMainApplicationComponents(t *testing.T) {
	convey.Convey("Given main application components", t, func() {
		convey.Convey("When testing system metrics updater", func() {
			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startSystemMetricsUpdater(ctx)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When testing service metrics updater", func() {
			svc := app.New()

			convey.Convey("Then it should return once the context ends", func() {
				ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
				defer cancel()

				convey.So(func() {
					startServiceMetricsUpdater(ctx, svc)
				}, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When updating metrics directly", func() {
			svc := app.New()

			convey.Convey("Then it should not panic", func() {
				convey.So(func() { updateSystemMetrics() }, convey.ShouldNotPanic)
				convey.So(func() { updateServiceMetrics(svc) }, convey.ShouldNotPanic)
			})
		})

		convey.Convey("When the HTTP address is empty", func() {
			srv := startHTTPServer(context.Background(), "", app.New())

			convey.Convey("Then no server should be started", func() {
				convey.So(srv, convey.ShouldBeNil)
			})
		})

		convey.Convey("When an HTTP address is set", func() {
			srv := startHTTPServer(context.Background(), "127.0.0.1:0", app.New())

			convey.Convey("Then a server should be started and shut down cleanly", func() {
				convey.So(srv, convey.ShouldNotBeNil)
				convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				convey.So(srv.Shutdown(ctx), convey.ShouldBeNil)
			})
		})
	})
}
