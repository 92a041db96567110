// Package metrics provides Prometheus metrics for the eegscope telemetry plotter.
package metrics

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Bands reported by the analyzer, used as label values.
const (
	BandAlpha = "alpha"
	BandTheta = "theta"
	BandDelta = "delta"
	BandBeta  = "beta"
)

// Manager manages all Prometheus metrics for the plotter.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Source and queue
	linesRead       prometheus.Counter
	transportErrors prometheus.Counter
	queueSize       prometheus.Gauge
	queueCapacity   prometheus.Gauge
	queueDropped    prometheus.Counter

	// Tick loop
	ticks          *prometheus.CounterVec
	tickDuration   prometheus.Histogram
	renderErrors   prometheus.Counter
	parseFailures  *prometheus.CounterVec
	samplesApplied prometheus.Counter

	// Window
	windowLength   prometheus.Gauge
	windowCapacity prometheus.Gauge
	windowEvicted  prometheus.Counter

	// Latest sample
	latestSecond    prometheus.Gauge
	latestRMS       prometheus.Gauge
	latestAttention prometheus.Gauge
	latestBandPower *prometheus.GaugeVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// global is the process-wide manager and the registry it records into.
type global struct {
	manager  *Manager
	registry *prometheus.Registry
}

var current atomic.Pointer[global] //nolint:gochecknoglobals // process-wide metrics, swapped by Init

func init() { //nolint:gochecknoinits // recorders work before Init is called
	Init()
}

// Init replaces the process-wide manager with one built from opts on a fresh
// custom registry. Call it during startup, before handlers read GetRegistry.
func Init(opts ...Option) *Manager {
	registry := prometheus.NewRegistry()
	m := NewManager(append(opts, WithPrometheusRegistry(registry))...)
	current.Store(&global{manager: m, registry: registry})
	return m
}

// Enabled reports whether the package-level recorders record anything.
func Enabled() bool {
	return current.Load().manager.enabled
}

// RefreshInterval is how often polled gauges (process, queue) should be updated.
func RefreshInterval() time.Duration {
	return current.Load().manager.refreshInterval
}

// active returns the manager to record on, or nil when recording is disabled.
func active() *Manager {
	if m := current.Load().manager; m.enabled {
		return m
	}
	return nil
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "eegscope",
		subsystem:        "stream",
		histogramBuckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 50, 100},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)
	labels := prometheus.Labels(m.customLabels)

	m.linesRead = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("lines_read_total"),
		Help: "Lines read from the byte-stream source",
	})
	m.transportErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("transport_errors_total"),
		Help: "Fatal read failures on the byte-stream source",
	})
	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("queue_size"),
		Help: "Lines waiting between the reader and the tick loop",
	})
	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("queue_capacity"),
		Help: "Maximum number of lines held between the reader and the tick loop",
	})
	m.queueDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("queue_dropped_total"),
		Help: "Lines refused because the line queue closed or the reader stopped",
	})

	m.ticks = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("ticks_total"),
		Help: "Refresh ticks by outcome",
	}, []string{"outcome"})
	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("tick_duration_milliseconds"),
		Help:    "Time spent in one dequeue, parse, append and render cycle",
		Buckets: m.histogramBuckets,
	})
	m.renderErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("render_errors_total"),
		Help: "Render calls that returned an error",
	})
	m.parseFailures = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("parse_failures_total"),
		Help: "Rejected lines by parse error kind",
	}, []string{"kind"})
	m.samplesApplied = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("samples_appended_total"),
		Help: "Samples appended to the window",
	})

	m.windowLength = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("window_length"),
		Help: "Samples currently held in the window",
	})
	m.windowCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("window_capacity"),
		Help: "Window capacity in samples",
	})
	m.windowEvicted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("window_evicted_total"),
		Help: "Samples evicted from the window to make room",
	})

	m.latestSecond = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("latest_second"),
		Help: "Device-reported second of the newest sample",
	})
	m.latestRMS = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("latest_rms"),
		Help: "RMS of the newest sample",
	})
	m.latestAttention = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("latest_attention"),
		Help: "Attention score of the newest sample",
	})
	m.latestBandPower = auto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("latest_band_power"),
		Help: "Band power of the newest sample",
	}, []string{"band"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_memory_bytes"),
		Help: "Heap bytes allocated by the process",
	})
	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("system_goroutines"),
		Help: "Number of live goroutines",
	})
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("system_gc_pause_milliseconds"),
		Help:    "Average garbage collection pause",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name: m.name("http_requests_total"),
		Help: "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: labels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// Source and queue.

// RecordLineRead increments the lines read counter.
func RecordLineRead() {
	if m := active(); m != nil {
		m.linesRead.Inc()
	}
}

// RecordTransportError increments the transport error counter.
func RecordTransportError() {
	if m := active(); m != nil {
		m.transportErrors.Inc()
	}
}

// UpdateQueueSize sets the current line queue size.
func UpdateQueueSize(size int) {
	if m := active(); m != nil {
		m.queueSize.Set(float64(size))
	}
}

// UpdateQueueCapacity sets the line queue capacity.
func UpdateQueueCapacity(capacity int) {
	if m := active(); m != nil {
		m.queueCapacity.Set(float64(capacity))
	}
}

// RecordQueueDropped increments the dropped lines counter.
func RecordQueueDropped() {
	if m := active(); m != nil {
		m.queueDropped.Inc()
	}
}

// Tick loop.

// RecordTick counts one tick with the given outcome label.
func RecordTick(outcome string) {
	if m := active(); m != nil {
		m.ticks.WithLabelValues(outcome).Inc()
	}
}

// RecordTickDuration records how long one tick took.
func RecordTickDuration(d time.Duration) {
	if m := active(); m != nil {
		m.tickDuration.Observe(float64(d) / float64(time.Millisecond))
	}
}

// RecordRenderError increments the render error counter.
func RecordRenderError() {
	if m := active(); m != nil {
		m.renderErrors.Inc()
	}
}

// RecordParseFailure counts a rejected line by error kind.
func RecordParseFailure(kind string) {
	if m := active(); m != nil {
		m.parseFailures.WithLabelValues(kind).Inc()
	}
}

// RecordSampleAppended increments the appended samples counter.
func RecordSampleAppended() {
	if m := active(); m != nil {
		m.samplesApplied.Inc()
	}
}

// Window.

// UpdateWindowLength sets the number of samples in the window.
func UpdateWindowLength(n int) {
	if m := active(); m != nil {
		m.windowLength.Set(float64(n))
	}
}

// UpdateWindowCapacity sets the window capacity.
func UpdateWindowCapacity(n int) {
	if m := active(); m != nil {
		m.windowCapacity.Set(float64(n))
	}
}

// RecordWindowEviction increments the evicted samples counter.
func RecordWindowEviction() {
	if m := active(); m != nil {
		m.windowEvicted.Inc()
	}
}

// UpdateLatestSample publishes the newest sample's channels.
func UpdateLatestSample(second int64, rms, attention, alpha, theta, delta, beta float64) {
	if m := active(); m != nil {
		m.latestSecond.Set(float64(second))
		m.latestRMS.Set(rms)
		m.latestAttention.Set(attention)
		m.latestBandPower.WithLabelValues(BandAlpha).Set(alpha)
		m.latestBandPower.WithLabelValues(BandTheta).Set(theta)
		m.latestBandPower.WithLabelValues(BandDelta).Set(delta)
		m.latestBandPower.WithLabelValues(BandBeta).Set(beta)
	}
}

// Process.

// UpdateSystemMemoryUsage sets the allocated heap bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	if m := active(); m != nil {
		m.systemMemoryUsage.Set(float64(bytes))
	}
}

// UpdateSystemGoroutineCount sets the goroutine count.
func UpdateSystemGoroutineCount(n int) {
	if m := active(); m != nil {
		m.systemGoroutineCount.Set(float64(n))
	}
}

// RecordSystemGCPauseTime records the average GC pause in milliseconds.
func RecordSystemGCPauseTime(ms float64) {
	if m := active(); m != nil {
		m.systemGCPauseTime.Observe(ms)
	}
}

// HTTP.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if m := active(); m != nil {
		m.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
	}
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if m := active(); m != nil {
		m.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
	}
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return current.Load().registry
}
