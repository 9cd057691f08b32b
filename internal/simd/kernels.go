package simd

import (
	"encoding/binary"
	"fmt"

	"github.com/hupe1980/rabitq/internal/bitlane"
)

// PackedIPFunc computes Σ query[i]*code[i] over the first dim dimensions,
// where code is the b-bit code buffer produced by the packing package.
type PackedIPFunc func(query []float32, packed []byte, dim int) float32

// Word-parallel kernels, indexed by bit depth. Slot 0 is unused.
var swarKernels = [9]PackedIPFunc{
	1: ip16FxU1,
	2: ip64FxU2,
	3: ip64FxU3,
	4: ip16FxU4,
	5: ip64FxU5,
	6: ip64FxU6,
	7: ip64FxU7,
	8: ipFxU8,
}

// Scalar reference kernels, indexed by bit depth.
var referenceKernels = [9]PackedIPFunc{
	1: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 1) },
	2: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 2) },
	3: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 3) },
	4: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 4) },
	5: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 5) },
	6: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 6) },
	7: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 7) },
	8: func(q []float32, p []byte, d int) float32 { return ReferenceInnerProduct(q, p, d, 8) },
}

// packedIPImpl is the active kernel table.
var packedIPImpl = swarKernels

// installKernels makes k the active kernel table.
func installKernels(k Kernels) {
	if k == Reference {
		packedIPImpl = referenceKernels
		return
	}
	packedIPImpl = swarKernels
}

// PackedInnerProduct returns the active kernel for bits in [1, 8], or nil.
func PackedInnerProduct(bits int) PackedIPFunc {
	if bits < 1 || bits > 8 {
		return nil
	}
	return packedIPImpl[bits]
}

// WordKernel returns the word-parallel kernel for bits regardless of the
// active family, or nil.
func WordKernel(bits int) PackedIPFunc {
	if bits < 1 || bits > 8 {
		return nil
	}
	return swarKernels[bits]
}

// ReferenceInnerProduct decodes each block with bitlane and accumulates the
// dot product one lane at a time. It is the ground truth for the
// word-parallel kernels.
func ReferenceInnerProduct(query []float32, packed []byte, dim, bits int) float32 {
	checkPacked(query, packed, dim, bits)
	bs := bitlane.BlockSize(bits)
	blockBytes := bitlane.BlockBytes(bs, bits)

	var scratch [64]uint8
	var sum float64
	off := 0
	for base := 0; base < dim; base += bs {
		codes := scratch[:bs]
		bitlane.UnpackBlock(codes, packed[off:off+blockBytes], bits)
		for i, c := range codes {
			sum += float64(query[base+i]) * float64(c)
		}
		off += blockBytes
	}
	return float32(sum)
}

// checkPacked panics on contract violations: dim must be a positive multiple
// of the block size and both buffers must cover it.
func checkPacked(query []float32, packed []byte, dim, bits int) {
	bs := bitlane.BlockSize(bits)
	if bs == 0 {
		panic(fmt.Sprintf("simd: unsupported bit depth %d", bits))
	}
	if dim < 0 || dim%bs != 0 {
		panic(fmt.Sprintf("simd: dim %d is not a multiple of block size %d", dim, bs))
	}
	if len(query) < dim {
		panic(fmt.Sprintf("simd: query length %d < dim %d", len(query), dim))
	}
	if need := dim * bits / 8; len(packed) < need {
		panic(fmt.Sprintf("simd: packed length %d < %d for dim %d, bits %d", len(packed), need, dim, bits))
	}
}

// dot8 multiplies eight query values with the eight byte lanes of w.
func dot8(q []float32, w uint64) float64 {
	q = q[:8]
	return float64(q[0])*float64(w&0xFF) +
		float64(q[1])*float64((w>>8)&0xFF) +
		float64(q[2])*float64((w>>16)&0xFF) +
		float64(q[3])*float64((w>>24)&0xFF) +
		float64(q[4])*float64((w>>32)&0xFF) +
		float64(q[5])*float64((w>>40)&0xFF) +
		float64(q[6])*float64((w>>48)&0xFF) +
		float64(q[7])*float64(w>>56)
}

// ip16FxU1 handles 1-bit codes: two bytes per 16-dim block, one bit per dim.
func ip16FxU1(query []float32, packed []byte, dim int) float32 {
	checkPacked(query, packed, dim, 1)
	var s0, s1 float64
	for g := 0; g < dim/8; g += 2 {
		s0 += dot8(query[g*8:], bitlane.Spread(packed[g]))
		s1 += dot8(query[g*8+8:], bitlane.Spread(packed[g+1]))
	}
	return float32(s0 + s1)
}

// ip16FxU4 handles 4-bit codes: one little-endian word per 16-dim block,
// dims 0..7 in the low nibbles and dims 8..15 in the high nibbles.
func ip16FxU4(query []float32, packed []byte, dim int) float32 {
	checkPacked(query, packed, dim, 4)
	var s0, s1 float64
	for base, off := 0, 0; base < dim; base, off = base+16, off+8 {
		lo, hi := bitlane.Nibbles(binary.LittleEndian.Uint64(packed[off:]))
		s0 += dot8(query[base:], lo)
		s1 += dot8(query[base+8:], hi)
	}
	return float32(s0 + s1)
}

// ip64Planes handles bit-plane layouts: each 64-dim block is bits
// little-endian words, word p holding bit p of every code.
func ip64Planes(query []float32, packed []byte, dim, bits int) float32 {
	checkPacked(query, packed, dim, bits)
	var planes [8]uint64
	var s0, s1 float64
	stride := 8 * bits
	for base, off := 0, 0; base < dim; base, off = base+64, off+stride {
		for p := 0; p < bits; p++ {
			planes[p] = binary.LittleEndian.Uint64(packed[off+8*p:])
		}
		for g := 0; g < 8; g += 2 {
			var w0, w1 uint64
			for p := 0; p < bits; p++ {
				w0 |= bitlane.Spread(byte(planes[p]>>(8*g))) << p
				w1 |= bitlane.Spread(byte(planes[p]>>(8*(g+1)))) << p
			}
			s0 += dot8(query[base+8*g:], w0)
			s1 += dot8(query[base+8*g+8:], w1)
		}
	}
	return float32(s0 + s1)
}

func ip64FxU2(query []float32, packed []byte, dim int) float32 {
	return ip64Planes(query, packed, dim, 2)
}

func ip64FxU3(query []float32, packed []byte, dim int) float32 {
	return ip64Planes(query, packed, dim, 3)
}

func ip64FxU5(query []float32, packed []byte, dim int) float32 {
	return ip64Planes(query, packed, dim, 5)
}

func ip64FxU6(query []float32, packed []byte, dim int) float32 {
	return ip64Planes(query, packed, dim, 6)
}

func ip64FxU7(query []float32, packed []byte, dim int) float32 {
	return ip64Planes(query, packed, dim, 7)
}

// ipFxU8 treats each byte as a full code value.
func ipFxU8(query []float32, packed []byte, dim int) float32 {
	checkPacked(query, packed, dim, 8)
	var s0, s1 float64
	i := 0
	for ; i+16 <= dim; i += 16 {
		s0 += dot8(query[i:], binary.LittleEndian.Uint64(packed[i:]))
		s1 += dot8(query[i+8:], binary.LittleEndian.Uint64(packed[i+8:]))
	}
	for ; i < dim; i++ {
		s0 += float64(query[i]) * float64(packed[i])
	}
	return float32(s0 + s1)
}
