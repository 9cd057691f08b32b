package quantization

import "fmt"

// ScaleMode selects how the grid scale of QuantizeScalar is chosen.
type ScaleMode uint8

const (
	// ScaleSearch runs the exact rescale factor search per vector.
	ScaleSearch ScaleMode = iota
	// ScaleConst uses a precomputed factor divided by the vector norm.
	ScaleConst
)

// String returns the string representation of a ScaleMode.
func (m ScaleMode) String() string {
	switch m {
	case ScaleSearch:
		return "search"
	case ScaleConst:
		return "const"
	default:
		return fmt.Sprintf("unknown(%d)", m)
	}
}

// Option configures QuantizeScalar.
type Option func(*options)

type options struct {
	mode       ScaleMode
	constScale float64
}

// WithScaleMode selects the rescale strategy. ScaleConst without
// WithConstScale uses the cached DefaultConstScale for the vector's length.
func WithScaleMode(mode ScaleMode) Option {
	return func(o *options) {
		o.mode = mode
	}
}

// WithConstScale switches to ScaleConst with the given factor, usually
// obtained from ConstScalingFactor once per index.
func WithConstScale(c float64) Option {
	return func(o *options) {
		o.mode = ScaleConst
		o.constScale = c
	}
}
