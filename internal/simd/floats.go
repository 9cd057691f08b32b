package simd

import "math"

// Dot calculates the dot product of two vectors.
//
// SAFETY: This function assumes len(a) == len(b).
// It does NOT perform bounds checks for performance reasons.
func Dot(a, b []float32) float32 {
	return dot(a, b)
}

// SquaredNorm returns Σ a[i]².
func SquaredNorm(a []float32) float32 {
	return dot(a, a)
}

// Sum returns Σ a[i].
func Sum(a []float32) float32 {
	return sum(a)
}

// ScaleInPlace multiplies all elements of a by scalar.
func ScaleInPlace(a []float32, scalar float32) {
	scale(a, scalar)
}

// MaxAbs returns max |a[i]|, or 0 for an empty slice. Any NaN element
// makes the result NaN.
func MaxAbs(a []float32) float32 {
	var m float32
	for _, v := range a {
		if v != v {
			return v
		}
		if v < 0 {
			v = -v
		}
		if v > m {
			m = v
		}
	}
	return m
}

// Sqrt returns the float32 square root of x.
func Sqrt(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func dot(a, b []float32) float32 {
	b = b[:len(a)]
	var s0, s1, s2, s3 float64
	i := 0
	for ; i+4 <= len(a); i += 4 {
		s0 += float64(a[i]) * float64(b[i])
		s1 += float64(a[i+1]) * float64(b[i+1])
		s2 += float64(a[i+2]) * float64(b[i+2])
		s3 += float64(a[i+3]) * float64(b[i+3])
	}
	for ; i < len(a); i++ {
		s0 += float64(a[i]) * float64(b[i])
	}
	return float32(s0 + s1 + s2 + s3)
}

func sum(a []float32) float32 {
	var s float64
	for _, v := range a {
		s += float64(v)
	}
	return float32(s)
}

func scale(a []float32, scalar float32) {
	for i := range a {
		a[i] *= scalar
	}
}
