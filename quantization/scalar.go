package quantization

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/rabitq/internal/simd"
)

var (
	// ErrInvalidBits is returned for bit depths outside [1, 8].
	ErrInvalidBits = errors.New("quantization: bits must be in [1, 8]")
	// ErrInvalidDelta is returned by the range quantizer for delta <= 0 or NaN.
	ErrInvalidDelta = errors.New("quantization: delta must be positive")
	// ErrInvalidScale is returned for a non-positive or non-finite const scale.
	ErrInvalidScale = errors.New("quantization: scale factor must be positive")
	// ErrNonFinite is returned for input containing NaN or Inf, or whose
	// reconstruction grid does not fit in float32.
	ErrNonFinite = errors.New("quantization: input is not finite")
	// ErrLengthMismatch is returned when the output buffer is shorter than the input.
	ErrLengthMismatch = errors.New("quantization: output shorter than input")
)

// degenerateMaxAbs is the magnitude below which a vector quantizes to zero.
const degenerateMaxAbs = 1e-20

// QuantizeScalar quantizes data into code[:len(data)] with the
// zero-centered b-bit quantizer and returns the affine reconstruction
// parameters. It is a pure function of its arguments.
func QuantizeScalar(data []float32, bits int, code []uint8, opts ...Option) (delta, vl float32, err error) {
	if bits < 1 || bits > 8 {
		return 0, 0, fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}
	if len(code) < len(data) {
		return 0, 0, fmt.Errorf("%w: code %d, data %d", ErrLengthMismatch, len(code), len(data))
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	code = code[:len(data)]
	mid := uint8(1 << (bits - 1))
	maxCode := float64(int(1)<<bits - 1)

	maxAbs := float64(simd.MaxAbs(data))
	if math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return 0, 0, ErrNonFinite
	}
	if maxAbs < degenerateMaxAbs {
		fillDegenerate(code, mid)
		return 0, 0, nil
	}

	t, err := rescaleFactor(data, bits, maxAbs, o)
	if err != nil {
		return 0, 0, err
	}

	// Initial grid codes and the least-squares step against y = code - maxCode/2.
	maxLevel := int(mid) - 1
	half := maxCode / 2
	var xy, yy float64
	for i, v := range data {
		x := float64(v)
		level := min(int(t*math.Abs(x)+rescaleEps), maxLevel)
		var c int
		if x >= 0 {
			c = int(mid) + level
		} else {
			c = int(mid) - 1 - level
		}
		code[i] = uint8(c)
		y := float64(c) - half
		xy += x * y
		yy += y * y
	}

	d := xy / yy
	if !(d > 0) || math.IsInf(d, 0) {
		fillDegenerate(code, mid)
		return 0, 0, nil
	}

	delta = float32(d)
	vl = float32(-d * maxCode / 2)
	if !finite32(delta) || !finite32(vl) || !finite32(vl+delta*float32(maxCode)) {
		return 0, 0, fmt.Errorf("%w: grid [%g, %g] overflows float32", ErrNonFinite, -d*maxCode/2, d*maxCode/2)
	}

	// Final pass: nearest grid point under the fitted parameters.
	fd, fvl := float64(delta), float64(vl)
	for i, v := range data {
		q := math.Round((float64(v) - fvl) / fd)
		code[i] = uint8(max(0, min(maxCode, q)))
	}
	return delta, vl, nil
}

func finite32(v float32) bool {
	return !math.IsInf(float64(v), 0) && !math.IsNaN(float64(v))
}

func fillDegenerate(code []uint8, mid uint8) {
	for i := range code {
		code[i] = mid
	}
}

// ReconstructVec writes out[i] = vl + delta*code[i] for every code.
// out must be at least as long as code.
func ReconstructVec(code []uint8, delta, vl float32, out []float32) {
	out = out[:len(code)]
	for i, c := range code {
		out[i] = vl + delta*float32(c)
	}
}

// ScalarQuantizeOptimized writes dst[i] = clamp(round((src[i]-lo)/delta), 0, max(T)).
// The mapping is monotone: sorted input yields non-decreasing codes.
func ScalarQuantizeOptimized[T uint8 | uint16](dst []T, src []float32, lo, delta float32) error {
	if !(delta > 0) || math.IsInf(float64(delta), 0) {
		return fmt.Errorf("%w: got %v", ErrInvalidDelta, delta)
	}
	if len(dst) < len(src) {
		return fmt.Errorf("%w: dst %d, src %d", ErrLengthMismatch, len(dst), len(src))
	}
	var top T
	top--
	limit := float64(top)
	inv := 1 / float64(delta)
	l := float64(lo)
	for i, v := range src {
		q := math.Round((float64(v) - l) * inv)
		switch {
		case q <= 0 || math.IsNaN(q):
			dst[i] = 0
		case q >= limit:
			dst[i] = top
		default:
			dst[i] = T(q)
		}
	}
	return nil
}
