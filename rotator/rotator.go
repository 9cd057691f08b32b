package rotator

import (
	"encoding"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
)

var (
	// ErrInvalidDimension is returned for non-positive dimensions.
	ErrInvalidDimension = errors.New("rotator: dimension must be positive")
	// ErrUnknownKind is returned for unsupported rotator kinds.
	ErrUnknownKind = errors.New("rotator: unknown kind")
	// ErrKindMismatch is returned when loading a blob of another kind.
	ErrKindMismatch = errors.New("rotator: kind mismatch")
	// ErrCorrupt is returned for blobs with a bad magic, length or checksum.
	ErrCorrupt = errors.New("rotator: corrupt blob")
	// ErrUnsupportedVersion is returned for blobs written by a newer format.
	ErrUnsupportedVersion = errors.New("rotator: unsupported blob version")
	// ErrShortBuffer is returned when a destination buffer is smaller than DumpBytes.
	ErrShortBuffer = errors.New("rotator: buffer too short")
)

// MaxDim bounds the dimension accepted from persisted blobs.
const MaxDim = 1 << 16

// Kind identifies a rotator implementation.
type Kind uint8

const (
	// KindFhtKac is the fast Hadamard transform with Kac walk rounds.
	KindFhtKac Kind = iota + 1
	// KindMatrix is a dense random orthogonal matrix.
	KindMatrix
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindFhtKac:
		return "fht-kac"
	case KindMatrix:
		return "matrix"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// ParseKind parses "fht-kac" (also "fhtkac", "fht") or "matrix".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fht-kac", "fhtkac", "fht":
		return KindFhtKac, nil
	case "matrix":
		return KindMatrix, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Rotator is an orthogonal transform from Dim() to Size() dimensions.
type Rotator interface {
	// Kind returns the transform implementation.
	Kind() Kind
	// Dim returns the input dimension.
	Dim() int
	// Size returns the padded output dimension.
	Size() int
	// Seed returns the seed the random parameters were drawn from.
	Seed() uint64

	// Rotate writes the transform of in (len Dim()) into out (len >= Size()).
	// in is never modified. Length violations panic.
	Rotate(in, out []float32)
	// Apply returns the transform of in in a new slice of length Size().
	Apply(in []float32) []float32

	// DumpBytes returns the exact serialized size.
	DumpBytes() int
	// SaveBuffer writes the serialized rotator into dst[:DumpBytes()].
	SaveBuffer(dst []byte) error
	// LoadBuffer replaces the rotator's parameters with a serialized blob.
	LoadBuffer(src []byte) error

	io.WriterTo
	io.ReaderFrom
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

var (
	_ Rotator = (*FhtKac)(nil)
	_ Rotator = (*Matrix)(nil)
)

// Option configures rotator construction.
type Option func(*options)

type options struct {
	seed    uint64
	hasSeed bool
}

// WithSeed makes construction reproducible.
func WithSeed(seed uint64) Option {
	return func(o *options) {
		o.seed = seed
		o.hasSeed = true
	}
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if !o.hasSeed {
		o.seed = rand.Uint64()
		o.hasSeed = true
	}
	return o
}

// Choose returns the default rotator for dim.
func Choose(dim int, opts ...Option) (Rotator, error) {
	return New(KindFhtKac, dim, opts...)
}

// New returns a rotator of the given kind.
func New(kind Kind, dim int, opts ...Option) (Rotator, error) {
	if dim <= 0 || dim > MaxDim {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidDimension, dim)
	}
	o := buildOptions(opts)
	switch kind {
	case KindFhtKac:
		return NewFhtKac(dim, o.seed), nil
	case KindMatrix:
		if PaddedSize(dim) > MaxMatrixSize {
			return nil, fmt.Errorf("%w: matrix rotator supports dim <= %d, got %d", ErrInvalidDimension, MaxMatrixSize, dim)
		}
		return NewMatrix(dim, o.seed), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// Read decodes a rotator of whichever kind the stream declares.
func Read(r io.Reader) (Rotator, error) {
	blob, _, err := readBlob(r)
	if err != nil {
		return nil, err
	}
	return Decode(blob)
}

// Decode decodes a rotator of whichever kind the blob declares.
func Decode(blob []byte) (Rotator, error) {
	h, err := parseHeader(blob)
	if err != nil {
		return nil, err
	}
	var rot Rotator
	switch h.kind {
	case KindFhtKac:
		rot = &FhtKac{}
	case KindMatrix:
		rot = &Matrix{}
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, h.kind)
	}
	if err := rot.LoadBuffer(blob); err != nil {
		return nil, err
	}
	return rot, nil
}

// FlipSign negates x[i] for every bit set in mask, where coordinate i maps to
// bit i%8 of mask[i/8].
func FlipSign(mask []byte, x []float32) {
	flipSign(mask, x)
}

// PaddedSize returns the smallest multiple of 64 that is >= dim.
func PaddedSize(dim int) int {
	return (dim + 63) / 64 * 64
}

func checkRotate(dim, size int, in, out []float32) {
	if len(in) != dim {
		panic(fmt.Sprintf("rotator: input length %d != dim %d", len(in), dim))
	}
	if len(out) < size {
		panic(fmt.Sprintf("rotator: output length %d < size %d", len(out), size))
	}
}
