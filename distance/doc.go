// Package distance selects the inner-product kernel for a bit depth and
// exposes the float vector helpers the codec builds on.
//
// # Kernel dispatch
//
// SelectKernel maps a bit depth to a fixed kernel:
//
//	bits      kernel
//	0, 1      ip16_fxu1
//	2, 3      ip64_fxu2, ip64_fxu3
//	4         ip16_fxu4
//	5, 6, 7   ip64_fxu5 .. ip64_fxu7
//	8, other  ip_fxu8 (generic byte kernel)
//
// The kernel's Func computes Σ query[i]*code[i] against a buffer produced by
// packing.Pack with the same bit depth. The implementation behind Func is the
// word-parallel kernel, or the scalar reference kernel when RABITQ_SIMD=generic.
//
// # Usage
//
//	k := distance.SelectKernel(4)
//	ip := k.Func(rotatedQuery, packed, paddedDim)
package distance
