// Package simd provides the inner-product kernels and vector primitives used
// by the codec.
//
// # Kernels
//
// One kernel per bit depth computes Σ query[i]*code[i] directly against a
// packed code buffer (see the packing package for the layouts):
//
//	bits  kernel      block
//	1     ip16FxU1    16
//	2     ip64FxU2    64
//	3     ip64FxU3    64
//	4     ip16FxU4    16
//	5-7   ip64FxU5-7  64
//	8     ipFxU8      1
//
// The kernels decode eight codes at a time with word-parallel (SWAR) bit
// tricks and accumulate in float64. ReferenceInnerProduct decodes one block
// at a time through internal/bitlane and serves as ground truth in tests.
//
// # Kernel families
//
// The word-parallel kernels use plain 64-bit integer arithmetic and run on
// every CPU. Setting RABITQ_SIMD=reference (or generic) installs the scalar
// reference kernels instead. CPUFeatures reports the vector extensions found
// by golang.org/x/sys/cpu for diagnostics.
//
// # Transforms
//
// FWHT, FlipSign and KacWalk are the building blocks of the FhtKac rotator.
package simd
