package rotator

import (
	"fmt"
	"io"
	"math/bits"
	"math/rand/v2"
	"sync/atomic"

	"github.com/hupe1980/rabitq/internal/simd"
)

const (
	fhtRounds = 4
	// pcgStream is the fixed PCG stream; only the seed varies between rotators.
	pcgStream = 0x385ab5285169b1ac
)

var flipSign = simd.FlipSign

// FhtKac is the default rotator: four rounds of random sign flips and
// normalized Walsh-Hadamard transforms, with Kac walks when the padded size
// is not a power of two.
type FhtKac struct {
	st atomic.Pointer[fhtState]
}

type fhtState struct {
	dim   int
	size  int
	trunc int // largest power of two <= size
	seed  uint64
	// masks holds fhtRounds flip masks of size/8 bytes each, back to back.
	masks []byte
}

// NewFhtKac returns an FhtKac rotator whose flip masks are drawn from seed.
func NewFhtKac(dim int, seed uint64) *FhtKac {
	size := PaddedSize(dim)
	masks := make([]byte, fhtRounds*size/8)
	rng := rand.New(rand.NewPCG(seed, pcgStream))
	for i := 0; i < len(masks); i += 8 {
		w := rng.Uint64()
		for j := 0; j < 8 && i+j < len(masks); j++ {
			masks[i+j] = byte(w >> (8 * j))
		}
	}
	r := &FhtKac{}
	r.st.Store(newFhtState(dim, seed, masks))
	return r
}

func newFhtState(dim int, seed uint64, masks []byte) *fhtState {
	size := PaddedSize(dim)
	return &fhtState{
		dim:   dim,
		size:  size,
		trunc: 1 << (bits.Len(uint(size)) - 1),
		seed:  seed,
		masks: masks,
	}
}

func (r *FhtKac) state() *fhtState {
	st := r.st.Load()
	if st == nil {
		panic("rotator: FhtKac used before construction or load")
	}
	return st
}

// Kind returns KindFhtKac.
func (r *FhtKac) Kind() Kind { return KindFhtKac }

// Dim returns the input dimension, or 0 for an unloaded rotator.
func (r *FhtKac) Dim() int {
	if st := r.st.Load(); st != nil {
		return st.dim
	}
	return 0
}

// Size returns the padded output dimension, or 0 for an unloaded rotator.
func (r *FhtKac) Size() int {
	if st := r.st.Load(); st != nil {
		return st.size
	}
	return 0
}

// Seed returns the construction seed.
func (r *FhtKac) Seed() uint64 {
	if st := r.st.Load(); st != nil {
		return st.seed
	}
	return 0
}

// Rotate writes the transform of in into out[:Size()].
func (r *FhtKac) Rotate(in, out []float32) {
	st := r.state()
	checkRotate(st.dim, st.size, in, out)

	x := out[:st.size]
	copy(x, in)
	clear(x[st.dim:])

	maskLen := st.size / 8
	if st.trunc == st.size {
		for round := 0; round < fhtRounds; round++ {
			flipSign(st.masks[round*maskLen:(round+1)*maskLen], x)
			simd.FWHT(x)
		}
		return
	}

	tail := st.size - st.trunc
	for round := 0; round < fhtRounds; round++ {
		flipSign(st.masks[round*maskLen:(round+1)*maskLen], x)
		if round%2 == 0 {
			simd.FWHT(x[:st.trunc])
		} else {
			simd.FWHT(x[tail:])
		}
		simd.KacWalk(x)
	}
	// Each Kac walk scales by sqrt(2).
	simd.ScaleInPlace(x, 0.25)
}

// Apply returns the transform of in in a new slice.
func (r *FhtKac) Apply(in []float32) []float32 {
	out := make([]float32, r.state().size)
	r.Rotate(in, out)
	return out
}

// DumpBytes returns the exact serialized size.
func (r *FhtKac) DumpBytes() int {
	return blobSize(len(r.state().masks))
}

// SaveBuffer writes the serialized rotator into dst.
func (r *FhtKac) SaveBuffer(dst []byte) error {
	st := r.state()
	need := blobSize(len(st.masks))
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	encodeBlob(dst, header{
		kind:       KindFhtKac,
		dim:        st.dim,
		size:       st.size,
		seed:       st.seed,
		payloadLen: len(st.masks),
	}, st.masks)
	return nil
}

// LoadBuffer replaces the parameters with those of a serialized FhtKac blob.
func (r *FhtKac) LoadBuffer(src []byte) error {
	h, payload, err := decodeBlob(src)
	if err != nil {
		return err
	}
	if h.kind != KindFhtKac {
		return fmt.Errorf("%w: blob is %s, rotator is %s", ErrKindMismatch, h.kind, KindFhtKac)
	}
	masks := make([]byte, len(payload))
	copy(masks, payload)
	r.st.Store(newFhtState(h.dim, h.seed, masks))
	return nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r *FhtKac) MarshalBinary() ([]byte, error) {
	buf := make([]byte, r.DumpBytes())
	if err := r.SaveBuffer(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (r *FhtKac) UnmarshalBinary(data []byte) error {
	return r.LoadBuffer(data)
}

// WriteTo implements io.WriterTo.
func (r *FhtKac) WriteTo(w io.Writer) (int64, error) {
	return writeTo(w, r)
}

// ReadFrom implements io.ReaderFrom.
func (r *FhtKac) ReadFrom(rd io.Reader) (int64, error) {
	blob, n, err := readBlob(rd)
	if err != nil {
		return n, err
	}
	return n, r.LoadBuffer(blob)
}
