package simd

import (
	"fmt"
	"math"
	"math/bits"
)

// FWHT applies the normalized fast Walsh-Hadamard transform to x in place.
// len(x) must be a power of two and at least 8. The 1/sqrt(n) normalization
// makes the transform orthogonal.
func FWHT(x []float32) {
	n := len(x)
	if n < 8 || bits.OnesCount(uint(n)) != 1 {
		panic(fmt.Sprintf("simd: FWHT length %d is not a power of two >= 8", n))
	}
	fwht(x)
	ScaleInPlace(x, float32(1/math.Sqrt(float64(n))))
}

// fwht is the unnormalized transform with an unrolled length-8 base case.
func fwht(x []float32) {
	if len(x) == 8 {
		x = x[:8]
		x[0], x[1] = x[0]+x[1], x[0]-x[1]
		x[2], x[3] = x[2]+x[3], x[2]-x[3]
		x[0], x[2] = x[0]+x[2], x[0]-x[2]
		x[1], x[3] = x[1]+x[3], x[1]-x[3]

		x[4], x[5] = x[4]+x[5], x[4]-x[5]
		x[6], x[7] = x[6]+x[7], x[6]-x[7]
		x[4], x[6] = x[4]+x[6], x[4]-x[6]
		x[5], x[7] = x[5]+x[7], x[5]-x[7]

		x[0], x[4] = x[0]+x[4], x[0]-x[4]
		x[1], x[5] = x[1]+x[5], x[1]-x[5]
		x[2], x[6] = x[2]+x[6], x[2]-x[6]
		x[3], x[7] = x[3]+x[7], x[3]-x[7]
		return
	}
	m := len(x) / 2
	fwht(x[:m])
	fwht(x[m:])
	lo, hi := x[:m], x[m:2*m]
	for i := range lo {
		lo[i], hi[i] = lo[i]+hi[i], lo[i]-hi[i]
	}
}

// FlipSign negates x[i] for every bit set in mask. Coordinate i maps to
// bit i%8 of mask[i/8]. mask must hold at least ceil(len(x)/8) bytes.
func FlipSign(mask []byte, x []float32) {
	if len(mask)*8 < len(x) {
		panic(fmt.Sprintf("simd: flip mask of %d bytes cannot cover %d coordinates", len(mask), len(x)))
	}
	const signBit = 1 << 31
	for k := 0; k*8 < len(x); k++ {
		m := mask[k]
		if m == 0 {
			continue
		}
		blk := x[k*8 : min(len(x), k*8+8)]
		for j := range blk {
			// Branch-free: shift the mask bit into the float sign position.
			blk[j] = math.Float32frombits(math.Float32bits(blk[j]) ^ (uint32(m>>j)&1)*signBit)
		}
	}
}

// KacWalk applies one butterfly stage pairing x[i] with x[i+len(x)/2]:
// (a, b) -> (a+b, a-b). len(x) must be even. It scales norms by sqrt(2).
func KacWalk(x []float32) {
	if len(x)%2 != 0 {
		panic(fmt.Sprintf("simd: KacWalk length %d is odd", len(x)))
	}
	h := len(x) / 2
	lo, hi := x[:h], x[h:]
	for i := range lo {
		lo[i], hi[i] = lo[i]+hi[i], lo[i]-hi[i]
	}
}
