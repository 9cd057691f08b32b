package rotator

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"sync/atomic"

	"github.com/hupe1980/rabitq/internal/simd"
)

// MaxMatrixSize bounds the padded size of a Matrix rotator (64 MiB of float32).
const MaxMatrixSize = 4096

// Matrix rotates with a dense random orthogonal matrix. Rows are built by
// modified Gram-Schmidt over Gaussian vectors in float64 and stored as float32.
type Matrix struct {
	st atomic.Pointer[matrixState]
}

type matrixState struct {
	dim  int
	size int
	seed uint64
	// rows is size x size, row-major.
	rows []float32
}

// NewMatrix returns a Matrix rotator drawn from seed. It panics if the padded
// size exceeds MaxMatrixSize; New reports that as an error instead.
func NewMatrix(dim int, seed uint64) *Matrix {
	size := PaddedSize(dim)
	if size > MaxMatrixSize {
		panic(fmt.Sprintf("rotator: matrix size %d exceeds %d", size, MaxMatrixSize))
	}
	rng := rand.New(rand.NewPCG(seed, pcgStream))
	q := randomOrthogonal(size, rng)

	rows := make([]float32, size*size)
	for i, v := range q {
		rows[i] = float32(v)
	}
	m := &Matrix{}
	m.st.Store(&matrixState{dim: dim, size: size, seed: seed, rows: rows})
	return m
}

// randomOrthogonal returns an n x n row-major orthogonal matrix.
func randomOrthogonal(n int, rng *rand.Rand) []float64 {
	q := make([]float64, n*n)
	for {
		for i := range q {
			q[i] = rng.NormFloat64()
		}
		if gramSchmidt(q, n) {
			return q
		}
		// Rank deficient draw; practically unreachable for Gaussian entries.
	}
}

// gramSchmidt orthonormalizes the rows of q in place. It returns false if a
// row collapses to (near) zero.
func gramSchmidt(q []float64, n int) bool {
	for i := 0; i < n; i++ {
		ri := q[i*n : (i+1)*n]
		for j := 0; j < i; j++ {
			rj := q[j*n : (j+1)*n]
			var d float64
			for k := range ri {
				d += ri[k] * rj[k]
			}
			for k := range ri {
				ri[k] -= d * rj[k]
			}
		}
		var norm float64
		for _, v := range ri {
			norm += v * v
		}
		norm = math.Sqrt(norm)
		if norm < 1e-10 {
			return false
		}
		for k := range ri {
			ri[k] /= norm
		}
	}
	return true
}

func (m *Matrix) state() *matrixState {
	st := m.st.Load()
	if st == nil {
		panic("rotator: Matrix used before construction or load")
	}
	return st
}

// Kind returns KindMatrix.
func (m *Matrix) Kind() Kind { return KindMatrix }

// Dim returns the input dimension, or 0 for an unloaded rotator.
func (m *Matrix) Dim() int {
	if st := m.st.Load(); st != nil {
		return st.dim
	}
	return 0
}

// Size returns the padded output dimension, or 0 for an unloaded rotator.
func (m *Matrix) Size() int {
	if st := m.st.Load(); st != nil {
		return st.size
	}
	return 0
}

// Seed returns the construction seed.
func (m *Matrix) Seed() uint64 {
	if st := m.st.Load(); st != nil {
		return st.seed
	}
	return 0
}

// Rotate writes rows·in into out[:Size()]. Padded input positions are zero,
// so only the first Dim() columns contribute.
func (m *Matrix) Rotate(in, out []float32) {
	st := m.state()
	checkRotate(st.dim, st.size, in, out)
	for i := 0; i < st.size; i++ {
		row := st.rows[i*st.size : i*st.size+st.dim]
		out[i] = simd.Dot(row, in)
	}
}

// Apply returns the transform of in in a new slice.
func (m *Matrix) Apply(in []float32) []float32 {
	out := make([]float32, m.state().size)
	m.Rotate(in, out)
	return out
}

// DumpBytes returns the exact serialized size.
func (m *Matrix) DumpBytes() int {
	return blobSize(4 * len(m.state().rows))
}

// SaveBuffer writes the serialized rotator into dst.
func (m *Matrix) SaveBuffer(dst []byte) error {
	st := m.state()
	payloadLen := 4 * len(st.rows)
	need := blobSize(payloadLen)
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	payload := dst[headerSize : headerSize+payloadLen]
	for i, v := range st.rows {
		binary.LittleEndian.PutUint32(payload[4*i:], math.Float32bits(v))
	}
	encodeBlob(dst, header{
		kind:       KindMatrix,
		dim:        st.dim,
		size:       st.size,
		seed:       st.seed,
		payloadLen: payloadLen,
	}, nil)
	return nil
}

// LoadBuffer replaces the parameters with those of a serialized Matrix blob.
func (m *Matrix) LoadBuffer(src []byte) error {
	h, payload, err := decodeBlob(src)
	if err != nil {
		return err
	}
	if h.kind != KindMatrix {
		return fmt.Errorf("%w: blob is %s, rotator is %s", ErrKindMismatch, h.kind, KindMatrix)
	}
	rows := make([]float32, h.size*h.size)
	for i := range rows {
		rows[i] = math.Float32frombits(binary.LittleEndian.Uint32(payload[4*i:]))
	}
	m.st.Store(&matrixState{dim: h.dim, size: h.size, seed: h.seed, rows: rows})
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (m *Matrix) MarshalBinary() ([]byte, error) {
	buf := make([]byte, m.DumpBytes())
	if err := m.SaveBuffer(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (m *Matrix) UnmarshalBinary(data []byte) error {
	return m.LoadBuffer(data)
}

// WriteTo implements io.WriterTo.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	return writeTo(w, m)
}

// ReadFrom implements io.ReaderFrom.
func (m *Matrix) ReadFrom(r io.Reader) (int64, error) {
	blob, n, err := readBlob(r)
	if err != nil {
		return n, err
	}
	return n, m.LoadBuffer(blob)
}
