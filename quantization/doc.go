// Package quantization maps rotated float vectors to b-bit integer codes.
//
// # Zero-centered scalar quantizer
//
// QuantizeScalar quantizes each coordinate onto the symmetric half-integer
// grid {-(2^b-1)/2, ..., (2^b-1)/2} scaled by delta:
//
//	value[i] ≈ vl + delta*code[i],   vl = -delta*(2^b-1)/2
//
// The grid scale is chosen per vector. ScaleSearch (default) finds the
// rescale factor that maximizes the cosine similarity between the vector and
// its grid image with an exact event-driven sweep; ScaleConst uses a
// precomputed factor divided by the vector norm, trading a little accuracy
// for a linear-time encode. delta is then fitted by least squares.
//
// Vectors whose largest magnitude is below 1e-20 are degenerate: delta and
// vl are zero and every code is the grid midpoint, so reconstruction is
// exactly zero.
//
// # Range quantizer
//
// ScalarQuantizeOptimized quantizes against an explicit (lo, delta) range and
// is order preserving, for callers that need monotone codes.
//
// # Usage
//
//	code := make([]uint8, len(rotated))
//	delta, vl, err := quantization.QuantizeScalar(rotated, 4, code)
//	if err != nil {
//		return err
//	}
//	recon := make([]float32, len(rotated))
//	quantization.ReconstructVec(code, delta, vl, recon)
package quantization
