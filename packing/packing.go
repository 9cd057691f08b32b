package packing

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rabitq/internal/bitlane"
)

var (
	// ErrInvalidBits is returned for bit depths outside [1, 8].
	ErrInvalidBits = errors.New("packing: bits must be in [1, 8]")
	// ErrShortBuffer is returned when a destination or source buffer is too small.
	ErrShortBuffer = errors.New("packing: buffer too short")
	// ErrCodeOverflow is returned when a code does not fit into the bit depth.
	ErrCodeOverflow = errors.New("packing: code exceeds bit depth")
)

// MinBits and MaxBits bound the supported bit depths.
const (
	MinBits = 1
	MaxBits = 8
)

// BlockSize returns the number of dimensions per packed block for bits,
// or 0 if bits is unsupported.
func BlockSize(bits int) int {
	return bitlane.BlockSize(bits)
}

// PackedSize returns the number of bytes needed to pack n codes of the given
// bit depth. It returns 0 for unsupported bit depths or n <= 0.
func PackedSize(n, bits int) int {
	bs := bitlane.BlockSize(bits)
	if bs == 0 || n <= 0 {
		return 0
	}
	full := n / bs
	size := full * bitlane.BlockBytes(bs, bits)
	if rem := n % bs; rem > 0 {
		size += bitlane.BlockBytes(rem, bits)
	}
	return size
}

// Pack packs code into a newly allocated buffer.
func Pack(code []uint8, bits int) ([]byte, error) {
	if err := validateBits(bits); err != nil {
		return nil, err
	}
	dst := make([]byte, PackedSize(len(code), bits))
	if err := PackInto(dst, code, bits); err != nil {
		return nil, err
	}
	return dst, nil
}

// PackInto packs code into dst, which must hold at least PackedSize(len(code), bits) bytes.
// Bytes of dst beyond the packed size are left untouched.
func PackInto(dst []byte, code []uint8, bits int) error {
	if err := validateBits(bits); err != nil {
		return err
	}
	need := PackedSize(len(code), bits)
	if len(dst) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(dst))
	}
	if bits < MaxBits {
		limit := uint8(1) << bits
		for i, c := range code {
			if c >= limit {
				return fmt.Errorf("%w: code[%d]=%d, bits=%d", ErrCodeOverflow, i, c, bits)
			}
		}
	}

	if bits == 8 {
		copy(dst, code)
		return nil
	}

	bs := bitlane.BlockSize(bits)
	off := 0
	for start := 0; start < len(code); start += bs {
		block := code[start:min(len(code), start+bs)]
		n := bitlane.BlockBytes(len(block), bits)
		bitlane.PackBlock(dst[off:off+n], block, bits)
		off += n
	}
	return nil
}

// Unpack decodes n codes from packed into a newly allocated slice.
func Unpack(packed []byte, n, bits int) ([]uint8, error) {
	if err := validateBits(bits); err != nil {
		return nil, err
	}
	if n < 0 {
		return nil, fmt.Errorf("packing: negative length %d", n)
	}
	dst := make([]uint8, n)
	if err := UnpackInto(dst, packed, bits); err != nil {
		return nil, err
	}
	return dst, nil
}

// UnpackInto decodes len(dst) codes from packed.
func UnpackInto(dst []uint8, packed []byte, bits int) error {
	if err := validateBits(bits); err != nil {
		return err
	}
	need := PackedSize(len(dst), bits)
	if len(packed) < need {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrShortBuffer, need, len(packed))
	}

	if bits == 8 {
		copy(dst, packed)
		return nil
	}

	bs := bitlane.BlockSize(bits)
	off := 0
	for start := 0; start < len(dst); start += bs {
		block := dst[start:min(len(dst), start+bs)]
		n := bitlane.BlockBytes(len(block), bits)
		bitlane.UnpackBlock(block, packed[off:off+n], bits)
		off += n
	}
	return nil
}

func validateBits(bits int) error {
	if bits < MinBits || bits > MaxBits {
		return fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}
	return nil
}
