package rabitq

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")
	// ErrCodeSize is returned when an encoded vector does not match the codec.
	ErrCodeSize = errors.New("encoded vector has the wrong code size")
	// ErrCorrupt is returned when a serialized codec fails validation.
	ErrCorrupt = errors.New("corrupt codec blob")
	// ErrUnsupportedVersion is returned for codec blobs from a newer format.
	ErrUnsupportedVersion = errors.New("unsupported codec blob version")
)

// ErrDimensionMismatch indicates a vector/query dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

// ErrInvalidBitDepth indicates a code width outside [1, 8].
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidBitDepth struct {
	Bits  int
	cause error
}

func (e *ErrInvalidBitDepth) Error() string {
	return fmt.Sprintf("invalid bit depth: %d (must be in [1, 8])", e.Bits)
}

func (e *ErrInvalidBitDepth) Unwrap() error { return e.cause }
