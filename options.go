package rabitq

import (
	"runtime"

	"github.com/hupe1980/rabitq/internal/compress"
	"github.com/hupe1980/rabitq/metric"
	"github.com/hupe1980/rabitq/quantization"
	"github.com/hupe1980/rabitq/rotator"
)

// DefaultBits is the code width used when WithBits is not given.
const DefaultBits = 4

// Compression selects how serialized rotator parameters are compressed.
type Compression = compress.Kind

const (
	CompressionNone = compress.None
	CompressionLZ4  = compress.LZ4
	CompressionZSTD = compress.ZSTD
)

type options struct {
	bits             int
	metric           metric.Type
	rotatorKind      rotator.Kind
	seed             uint64
	hasSeed          bool
	scaleMode        quantization.ScaleMode
	constScale       float64
	concurrency      int
	compression      Compression
	logger           *Logger
	metricsCollector MetricsCollector
}

func defaultOptions() options {
	return options{
		bits:             DefaultBits,
		metric:           metric.L2,
		rotatorKind:      rotator.KindFhtKac,
		scaleMode:        quantization.ScaleSearch,
		concurrency:      runtime.GOMAXPROCS(0),
		compression:      compress.None,
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
}

// Option configures New, Read and LoadCodec.
//
// Options that describe the encoding (bits, metric, rotator, seed, scale
// mode) are ignored when a codec is loaded; the stored values win.
type Option func(*options)

// WithBits sets the code width in bits per dimension, 1 through 8.
func WithBits(bits int) Option {
	return func(o *options) {
		o.bits = bits
	}
}

// WithMetric sets the distance metric used by Distance and Search.
func WithMetric(m metric.Type) Option {
	return func(o *options) {
		o.metric = m
	}
}

// WithRotatorKind selects the rotation. The default is rotator.KindFhtKac.
func WithRotatorKind(kind rotator.Kind) Option {
	return func(o *options) {
		o.rotatorKind = kind
	}
}

// WithSeed makes the rotation reproducible. Without it a random seed is
// drawn and can be read back from Rotator().Seed().
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

// WithScaleMode selects how each vector's grid scale is chosen.
// quantization.ScaleConst computes one factor per codec in New.
func WithScaleMode(mode quantization.ScaleMode) Option {
	return func(o *options) {
		o.scaleMode = mode
	}
}

// WithConcurrency bounds the goroutines EncodeBatch uses.
// Values < 1 select runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.concurrency = n
	}
}

// WithCompression selects how the rotator parameters are compressed when the
// codec is serialized.
func WithCompression(kind Compression) Option {
	return func(o *options) {
		o.compression = kind
	}
}

// WithLogger sets the logger. If nil is passed, NoopLogger is used.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics sink. If nil is passed,
// NoopMetricsCollector is used.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

func buildOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.concurrency < 1 {
		o.concurrency = runtime.GOMAXPROCS(0)
	}
	return o
}
