// Package pool provides object pools for allocation-free encoding.
// Uses sync.Pool for automatic memory reuse of the per-vector scratch buffers.
package pool

import "sync"

const (
	// DefaultDimensions is the initial capacity of pooled buffers.
	DefaultDimensions = 1024

	// MaxPooledDimensions bounds the buffers kept in the pool. Larger
	// contexts are dropped on Put so one huge vector does not pin memory.
	MaxPooledDimensions = 1 << 16
)

// EncodeContext contains pre-allocated buffers for one encode.
// All fields are reusable across encodes of the same padded size.
type EncodeContext struct {
	Rotated []float32
	Codes   []uint8
}

// encodeContextPool is the global pool of EncodeContext objects.
var encodeContextPool = sync.Pool{
	New: func() any {
		return &EncodeContext{
			Rotated: make([]float32, 0, DefaultDimensions),
			Codes:   make([]uint8, 0, DefaultDimensions),
		}
	},
}

// Get retrieves an EncodeContext whose buffers have length size.
// The buffer contents are unspecified.
func Get(size int) *EncodeContext {
	ctx := encodeContextPool.Get().(*EncodeContext)
	ctx.Resize(size)
	return ctx
}

// Put returns an EncodeContext to the pool for reuse.
func Put(ctx *EncodeContext) {
	if cap(ctx.Rotated) > MaxPooledDimensions {
		return
	}
	encodeContextPool.Put(ctx)
}

// Resize sets both buffers to length size, growing them if needed.
func (ec *EncodeContext) Resize(size int) {
	if cap(ec.Rotated) < size {
		ec.Rotated = make([]float32, size)
	}
	if cap(ec.Codes) < size {
		ec.Codes = make([]uint8, size)
	}
	ec.Rotated = ec.Rotated[:size]
	ec.Codes = ec.Codes[:size]
}
