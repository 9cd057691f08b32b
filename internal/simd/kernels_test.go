package simd

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rabitq/packing"
)

func randCodes(r *rand.Rand, n, bits int) []uint8 {
	out := make([]uint8, n)
	for i := range out {
		out[i] = uint8(r.Intn(1 << bits))
	}
	return out
}

func dotFloat64(q []float32, codes []uint8) float64 {
	var s float64
	for i, c := range codes {
		s += float64(q[i]) * float64(c)
	}
	return s
}

func TestKernelsMatchFloat64Reference(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for bits := 1; bits <= 8; bits++ {
		for _, dim := range []int{64, 128, 256, 960} {
			if dim%packing.BlockSize(bits) != 0 {
				continue
			}
			t.Run(fmt.Sprintf("bits=%d/dim=%d", bits, dim), func(t *testing.T) {
				q := randFloats(r, dim)
				codes := randCodes(r, dim, bits)
				packed, err := packing.Pack(codes, bits)
				require.NoError(t, err)

				want := dotFloat64(q, codes)
				tol := 1e-4 * (1 + abs64(want))

				assert.InDelta(t, want, float64(WordKernel(bits)(q, packed, dim)), tol, "word-parallel")
				assert.InDelta(t, want, float64(ReferenceInnerProduct(q, packed, dim, bits)), tol, "reference")
				assert.InDelta(t, want, float64(PackedInnerProduct(bits)(q, packed, dim)), tol, "active")
			})
		}
	}
}

func TestKernelOneBitDim64(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	q := make([]float32, 64)
	for i := range q {
		q[i] = r.Float32()
	}
	codes := randCodes(r, 64, 1)
	packed, err := packing.Pack(codes, 1)
	require.NoError(t, err)
	require.Len(t, packed, 8)

	got := PackedInnerProduct(1)(q, packed, 64)
	assert.InDelta(t, dotFloat64(q, codes), float64(got), 0.1)
}

func TestKernelTwoBitDim256(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	q := make([]float32, 256)
	for i := range q {
		q[i] = r.Float32()*2 - 1
	}
	codes := randCodes(r, 256, 2)
	packed, err := packing.Pack(codes, 2)
	require.NoError(t, err)
	require.Len(t, packed, 64)

	got := PackedInnerProduct(2)(q, packed, 256)
	assert.InDelta(t, dotFloat64(q, codes), float64(got), 0.1)
}

func TestKernelsDoNotMutateInputs(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for bits := 1; bits <= 8; bits++ {
		q := randFloats(r, 128)
		packed, err := packing.Pack(randCodes(r, 128, bits), bits)
		require.NoError(t, err)

		qCopy := append([]float32(nil), q...)
		pCopy := append([]byte(nil), packed...)
		_ = WordKernel(bits)(q, packed, 128)
		assert.Equal(t, qCopy, q)
		assert.Equal(t, pCopy, packed)
	}
}

func TestKernelsDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(9))
	q := randFloats(r, 256)
	packed, err := packing.Pack(randCodes(r, 256, 3), 3)
	require.NoError(t, err)

	first := WordKernel(3)(q, packed, 256)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, WordKernel(3)(q, packed, 256))
	}
}

func TestKernelContractViolationsPanic(t *testing.T) {
	q := make([]float32, 64)
	packed := make([]byte, 64)

	assert.Panics(t, func() { WordKernel(1)(q, packed, 8) }, "dim not a multiple of 16")
	assert.Panics(t, func() { WordKernel(2)(q, packed, 32) }, "dim not a multiple of 64")
	assert.Panics(t, func() { WordKernel(4)(q[:16], packed, 32) }, "short query")
	assert.Panics(t, func() { WordKernel(7)(q, packed[:10], 64) }, "short packed")
	assert.Panics(t, func() { ReferenceInnerProduct(q, packed, 64, 9) }, "bad bits")
}

func TestPackedInnerProductRange(t *testing.T) {
	assert.Nil(t, PackedInnerProduct(0))
	assert.Nil(t, PackedInnerProduct(9))
	assert.Nil(t, WordKernel(-1))
	for bits := 1; bits <= 8; bits++ {
		assert.NotNil(t, PackedInnerProduct(bits))
	}
}

func TestChooseKernels(t *testing.T) {
	defer initKernels()

	tests := []struct {
		override   string
		want       Kernels
		overridden bool
	}{
		{"", WordParallel, false},
		{"generic", Reference, true},
		{" Reference ", Reference, true},
		{"word", WordParallel, true},
		{"avx512", WordParallel, false},
		{"bogus", WordParallel, false},
	}
	for _, tt := range tests {
		got, ok := chooseKernels(tt.override)
		assert.Equal(t, tt.want, got, "override %q", tt.override)
		assert.Equal(t, tt.overridden, ok, "override %q", tt.override)
	}
}

func TestInstallKernels(t *testing.T) {
	defer initKernels()

	r := rand.New(rand.NewSource(4))
	q := randFloats(r, 64)
	codes := randCodes(r, 64, 5)
	packed, err := packing.Pack(codes, 5)
	require.NoError(t, err)
	want := dotFloat64(q, codes)

	for _, k := range []Kernels{Reference, WordParallel} {
		installKernels(k)
		assert.InDelta(t, want, float64(PackedInnerProduct(5)(q, packed, 64)), 1e-3, "kernels %s", k)
	}

	installKernels(Reference)
	assert.Equal(t,
		ReferenceInnerProduct(q, packed, 64, 5),
		PackedInnerProduct(5)(q, packed, 64))
}

func TestParseKernels(t *testing.T) {
	for _, k := range []Kernels{WordParallel, Reference} {
		got, ok := ParseKernels(" " + k.String() + " ")
		require.True(t, ok)
		assert.Equal(t, k, got)
	}
	_, ok := ParseKernels("mmx")
	assert.False(t, ok)
	assert.Equal(t, "unknown(9)", Kernels(9).String())
}

func TestFeaturesString(t *testing.T) {
	assert.Equal(t, "none", Features{}.String())
	assert.Equal(t, "avx2,fma", Features{AVX2: true, FMA: true}.String())
	assert.NotEmpty(t, CPUFeatures().String())
}

func abs64(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
