package distance

import (
	"errors"
	"fmt"

	"github.com/hupe1980/rabitq/internal/simd"
)

// ErrInvalidBits is returned by SelectKernelStrict for bit depths outside [1, 8].
var ErrInvalidBits = errors.New("distance: bits must be in [1, 8]")

// KernelFunc computes Σ query[i]*code[i] over dim dimensions of a packed code.
// dim must be a multiple of the kernel's block size; violations panic.
type KernelFunc func(query []float32, packed []byte, dim int) float32

// KernelID names a kernel of the dispatch table.
type KernelID uint8

const (
	// IP16FxU1 scores 1-bit codes in 16-dim blocks of two bytes.
	IP16FxU1 KernelID = iota + 1
	// IP64FxU2 scores 2-bit codes in 64-dim blocks of two bit-planes.
	IP64FxU2
	// IP64FxU3 scores 3-bit codes in 64-dim blocks of three bit-planes.
	IP64FxU3
	// IP16FxU4 scores 4-bit codes in 16-dim blocks of eight nibble pairs.
	IP16FxU4
	// IP64FxU5 scores 5-bit codes in 64-dim blocks of five bit-planes.
	IP64FxU5
	// IP64FxU6 scores 6-bit codes in 64-dim blocks of six bit-planes.
	IP64FxU6
	// IP64FxU7 scores 7-bit codes in 64-dim blocks of seven bit-planes.
	IP64FxU7
	// IPFxU8 scores 8-bit codes stored one byte per dimension.
	IPFxU8
)

var kernelNames = [...]string{
	IP16FxU1: "ip16_fxu1",
	IP64FxU2: "ip64_fxu2",
	IP64FxU3: "ip64_fxu3",
	IP16FxU4: "ip16_fxu4",
	IP64FxU5: "ip64_fxu5",
	IP64FxU6: "ip64_fxu6",
	IP64FxU7: "ip64_fxu7",
	IPFxU8:   "ip_fxu8",
}

// String returns the kernel's table name, e.g. "ip64_fxu3".
func (id KernelID) String() string {
	if int(id) < len(kernelNames) && kernelNames[id] != "" {
		return kernelNames[id]
	}
	return fmt.Sprintf("Unknown(%d)", id)
}

// Kernel is one entry of the dispatch table.
type Kernel struct {
	ID KernelID
	// Bits is the code width the kernel decodes.
	Bits int
	// BlockSize is the number of dimensions per packed block.
	BlockSize int
	Func      KernelFunc
}

// kernelIDs maps bit depth to kernel; index 0 aliases 1-bit.
var kernelIDs = [9]KernelID{IP16FxU1, IP16FxU1, IP64FxU2, IP64FxU3, IP16FxU4, IP64FxU5, IP64FxU6, IP64FxU7, IPFxU8}

// SelectKernel returns the kernel for bits. Zero selects the 1-bit kernel and
// anything outside [0, 8] selects the generic byte kernel.
func SelectKernel(bits int) Kernel {
	switch {
	case bits == 0:
		bits = 1
	case bits < 0 || bits > 8:
		bits = 8
	}
	bs := 1
	switch bits {
	case 1, 4:
		bs = 16
	case 2, 3, 5, 6, 7:
		bs = 64
	}
	return Kernel{
		ID:        kernelIDs[bits],
		Bits:      bits,
		BlockSize: bs,
		Func:      KernelFunc(simd.PackedInnerProduct(bits)),
	}
}

// SelectKernelStrict is SelectKernel without the lenient defaults.
func SelectKernelStrict(bits int) (Kernel, error) {
	if bits < 1 || bits > 8 {
		return Kernel{}, fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}
	return SelectKernel(bits), nil
}
