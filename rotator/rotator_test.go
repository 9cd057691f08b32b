package rotator

import (
	"bytes"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomVector(r *rand.Rand, dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(r.NormFloat64())
	}
	return v
}

func norm(v []float32) float64 {
	var s float64
	for _, x := range v {
		s += float64(x) * float64(x)
	}
	return math.Sqrt(s)
}

func assertRelClose(t *testing.T, want, got []float32, rel float64) {
	t.Helper()
	require.Equal(t, len(want), len(got))
	scale := norm(want)/math.Sqrt(float64(len(want))) + 1e-12
	for i := range want {
		assert.InDelta(t, want[i], got[i], rel*scale, "index %d", i)
	}
}

func TestChoosePadding(t *testing.T) {
	for _, dim := range []int{64, 100, 128, 256, 500, 1024} {
		rot, err := Choose(dim, WithSeed(1))
		require.NoError(t, err)
		size := rot.Size()
		assert.Equal(t, 0, size%64, "dim=%d", dim)
		assert.GreaterOrEqual(t, size, dim)
		assert.Less(t, size, dim+64)
		assert.Equal(t, dim, rot.Dim())
		assert.Equal(t, KindFhtKac, rot.Kind())
	}
}

func TestNewErrors(t *testing.T) {
	_, err := Choose(0)
	require.ErrorIs(t, err, ErrInvalidDimension)
	_, err = New(Kind(9), 64)
	require.ErrorIs(t, err, ErrUnknownKind)
	_, err = New(KindMatrix, MaxMatrixSize+1)
	require.ErrorIs(t, err, ErrInvalidDimension)
}

func TestRotatePreservesNorm(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for _, kind := range []Kind{KindFhtKac, KindMatrix} {
		for _, dim := range []int{64, 100, 128, 200, 500} {
			if kind == KindMatrix && dim > 200 {
				continue
			}
			t.Run(fmt.Sprintf("%s/dim=%d", kind, dim), func(t *testing.T) {
				rot, err := New(kind, dim, WithSeed(42))
				require.NoError(t, err)
				v := randomVector(r, dim)
				out := rot.Apply(v)
				require.Len(t, out, rot.Size())
				assert.InEpsilon(t, norm(v), norm(out), 1e-3)
			})
		}
	}
}

func TestRotateIsLinear(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	rot, err := Choose(200, WithSeed(5))
	require.NoError(t, err)

	a := randomVector(r, 200)
	b := randomVector(r, 200)
	sum := make([]float32, 200)
	for i := range sum {
		sum[i] = a[i] + b[i]
	}
	ra, rb, rs := rot.Apply(a), rot.Apply(b), rot.Apply(sum)
	for i := range rs {
		assert.InDelta(t, ra[i]+rb[i], rs[i], 1e-4)
	}

	// Inner products survive rotation.
	var ip, ipRot float64
	for i := range a {
		ip += float64(a[i]) * float64(b[i])
	}
	for i := range ra {
		ipRot += float64(ra[i]) * float64(rb[i])
	}
	assert.InDelta(t, ip, ipRot, 1e-3*(norm(a)*norm(b)))
}

func TestRotateZero(t *testing.T) {
	for _, kind := range []Kind{KindFhtKac, KindMatrix} {
		rot, err := New(kind, 100, WithSeed(3))
		require.NoError(t, err)
		out := rot.Apply(make([]float32, 100))
		for _, v := range out {
			assert.Equal(t, float32(0), v)
		}
	}
}

func TestRotateDeterministic(t *testing.T) {
	r := rand.New(rand.NewSource(3))
	v := randomVector(r, 300)

	rot, err := Choose(300, WithSeed(9))
	require.NoError(t, err)
	first := rot.Apply(v)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rot.Apply(v))
	}

	// Same seed, same rotation; other seed, other rotation.
	same, err := Choose(300, WithSeed(9))
	require.NoError(t, err)
	assert.Equal(t, first, same.Apply(v))

	other, err := Choose(300, WithSeed(10))
	require.NoError(t, err)
	assert.NotEqual(t, first, other.Apply(v))
}

func TestRotateDoesNotMutateInput(t *testing.T) {
	r := rand.New(rand.NewSource(4))
	v := randomVector(r, 100)
	orig := append([]float32(nil), v...)
	rot, err := Choose(100, WithSeed(1))
	require.NoError(t, err)
	_ = rot.Apply(v)
	assert.Equal(t, orig, v)
}

func TestRandomSeedRecorded(t *testing.T) {
	rot, err := Choose(128)
	require.NoError(t, err)
	again, err := Choose(128, WithSeed(rot.Seed()))
	require.NoError(t, err)

	v := randomVector(rand.New(rand.NewSource(5)), 128)
	assert.Equal(t, rot.Apply(v), again.Apply(v))
}

func TestRotatePanicsOnLengthMismatch(t *testing.T) {
	rot, err := Choose(100, WithSeed(1))
	require.NoError(t, err)
	assert.Panics(t, func() { rot.Rotate(make([]float32, 99), make([]float32, 128)) })
	assert.Panics(t, func() { rot.Rotate(make([]float32, 100), make([]float32, 127)) })
	assert.Panics(t, func() { (&FhtKac{}).Apply(make([]float32, 4)) })
}

func TestSaveLoadStream(t *testing.T) {
	r := rand.New(rand.NewSource(6))
	for _, kind := range []Kind{KindFhtKac, KindMatrix} {
		for _, dim := range []int{64, 100, 256} {
			t.Run(fmt.Sprintf("%s/dim=%d", kind, dim), func(t *testing.T) {
				rot, err := New(kind, dim, WithSeed(77))
				require.NoError(t, err)

				var buf bytes.Buffer
				n, err := rot.WriteTo(&buf)
				require.NoError(t, err)
				assert.Equal(t, int64(rot.DumpBytes()), n)
				assert.Equal(t, rot.DumpBytes(), buf.Len())

				loaded, err := Read(bytes.NewReader(buf.Bytes()))
				require.NoError(t, err)
				assert.Equal(t, rot.Kind(), loaded.Kind())
				assert.Equal(t, rot.Dim(), loaded.Dim())
				assert.Equal(t, rot.Size(), loaded.Size())
				assert.Equal(t, rot.Seed(), loaded.Seed())

				v := randomVector(r, dim)
				assertRelClose(t, rot.Apply(v), loaded.Apply(v), 1e-5)
			})
		}
	}
}

func TestSaveLoadBuffer(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	rot, err := Choose(500, WithSeed(8))
	require.NoError(t, err)

	buf := make([]byte, rot.DumpBytes())
	require.NoError(t, rot.SaveBuffer(buf))
	assert.Equal(t, rot.DumpBytes(), rot.DumpBytes(), "DumpBytes is stable")

	fresh := &FhtKac{}
	require.NoError(t, fresh.LoadBuffer(buf))
	v := randomVector(r, 500)
	assertRelClose(t, rot.Apply(v), fresh.Apply(v), 1e-5)

	// ReadFrom on an existing instance.
	other, err := Choose(64, WithSeed(1))
	require.NoError(t, err)
	n, err := other.ReadFrom(bytes.NewReader(buf))
	require.NoError(t, err)
	assert.Equal(t, int64(len(buf)), n)
	assert.Equal(t, 500, other.Dim())
}

func TestMarshalBinary(t *testing.T) {
	rot, err := New(KindMatrix, 64, WithSeed(2))
	require.NoError(t, err)
	data, err := rot.MarshalBinary()
	require.NoError(t, err)

	loaded, err := Decode(data)
	require.NoError(t, err)
	require.IsType(t, &Matrix{}, loaded)

	var m Matrix
	require.NoError(t, m.UnmarshalBinary(data))
	v := randomVector(rand.New(rand.NewSource(8)), 64)
	assert.Equal(t, rot.Apply(v), m.Apply(v))
}

func TestLoadFailuresKeepState(t *testing.T) {
	rot, err := Choose(128, WithSeed(11))
	require.NoError(t, err)
	v := randomVector(rand.New(rand.NewSource(9)), 128)
	before := rot.Apply(v)

	other, err := Choose(256, WithSeed(12))
	require.NoError(t, err)
	good, err := other.MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
		err    error
	}{
		{"Truncated", func(b []byte) []byte { return b[:len(b)-1] }, ErrCorrupt},
		{"HeaderOnly", func(b []byte) []byte { return b[:10] }, ErrCorrupt},
		{"BadMagic", func(b []byte) []byte { b[0] = 'X'; return b }, ErrCorrupt},
		{"BadChecksum", func(b []byte) []byte { b[headerSize+3] ^= 0xFF; return b }, ErrCorrupt},
		{"BadVersion", func(b []byte) []byte { b[4] = 99; return b }, ErrUnsupportedVersion},
		{"BadKind", func(b []byte) []byte { b[6] = 42; return b }, ErrUnknownKind},
		{"BadSize", func(b []byte) []byte { b[12]++; return b }, ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := tt.mutate(append([]byte(nil), good...))
			err := rot.LoadBuffer(blob)
			require.ErrorIs(t, err, tt.err)
			assert.Equal(t, 128, rot.Dim())
			assert.Equal(t, before, rot.Apply(v))
		})
	}

	t.Run("KindMismatch", func(t *testing.T) {
		m, err := New(KindMatrix, 64, WithSeed(1))
		require.NoError(t, err)
		blob, err := m.MarshalBinary()
		require.NoError(t, err)
		require.ErrorIs(t, rot.LoadBuffer(blob), ErrKindMismatch)
		assert.Equal(t, before, rot.Apply(v))
	})

	t.Run("ShortStream", func(t *testing.T) {
		_, err := rot.ReadFrom(bytes.NewReader(good[:len(good)/2]))
		require.Error(t, err)
		assert.Equal(t, before, rot.Apply(v))
	})
}

func TestSaveBufferShort(t *testing.T) {
	rot, err := Choose(64, WithSeed(1))
	require.NoError(t, err)
	err = rot.SaveBuffer(make([]byte, rot.DumpBytes()-1))
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestDumpBytes(t *testing.T) {
	rot, err := Choose(100, WithSeed(1))
	require.NoError(t, err)
	// header + 4 masks of 128/8 bytes + crc
	assert.Equal(t, 28+4*16+4, rot.DumpBytes())

	m, err := New(KindMatrix, 64, WithSeed(1))
	require.NoError(t, err)
	assert.Equal(t, 28+64*64*4+4, m.DumpBytes())
}

func TestKind(t *testing.T) {
	for _, k := range []Kind{KindFhtKac, KindMatrix} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("givens")
	require.ErrorIs(t, err, ErrUnknownKind)
	assert.Equal(t, "unknown(0)", Kind(0).String())
}

func TestFlipSign(t *testing.T) {
	x := []float32{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	FlipSign([]byte{0b1000_0001, 0b0000_0010}, x)
	assert.Equal(t, []float32{-1, 2, 3, 4, 5, 6, 7, -8, 9, -10}, x)
}

func TestMatrixOrthonormalRows(t *testing.T) {
	m := NewMatrix(64, 3)
	st := m.state()
	for i := 0; i < st.size; i += 7 {
		for j := 0; j < st.size; j += 5 {
			var d float64
			for k := 0; k < st.size; k++ {
				d += float64(st.rows[i*st.size+k]) * float64(st.rows[j*st.size+k])
			}
			want := 0.0
			if i == j {
				want = 1
			}
			assert.InDelta(t, want, d, 1e-5)
		}
	}
}

func BenchmarkFhtKacRotate(b *testing.B) {
	for _, dim := range []int{128, 768, 960} {
		rot, _ := Choose(dim, WithSeed(1))
		v := randomVector(rand.New(rand.NewSource(1)), dim)
		out := make([]float32, rot.Size())
		b.Run(fmt.Sprintf("dim=%d", dim), func(b *testing.B) {
			for b.Loop() {
				rot.Rotate(v, out)
			}
		})
	}
}
