// Package bitlane packs and unpacks fixed-width integer lanes into machine words.
//
// It is the single place that knows how b-bit codes are laid out inside a packed
// block. The packing package uses it to serialize codes, and the scalar reference
// kernel in internal/simd uses it to decode them, so the offset arithmetic exists
// exactly once.
//
// # Block layouts
//
//	bits  block  bytes/block  layout
//	1     16     2            dim i -> bit i%8 of byte i/8
//	4     16     8            byte j = dim j (low nibble) | dim j+8 (high nibble)
//	2,3,5,6,7  64  8*bits     bits little-endian uint64 bit-planes
//	8     1      1            identity
package bitlane

import "encoding/binary"

const (
	// lowBits has bit 0 of every byte lane set.
	lowBits = 0x0101010101010101
	// lowNibbles has the low nibble of every byte lane set.
	lowNibbles = 0x0F0F0F0F0F0F0F0F
	// gatherMagic moves bit 0 of byte lane j to bit 56+j when multiplied.
	gatherMagic = 0x0102040810204080
)

// spread[b] holds bit j of b in byte lane j.
var spread [256]uint64

func init() {
	for b := range spread {
		var w uint64
		for j := 0; j < 8; j++ {
			w |= uint64((b>>j)&1) << (8 * j)
		}
		spread[b] = w
	}
}

// Spread returns a word whose byte lane j is bit j of b.
func Spread(b byte) uint64 {
	return spread[b]
}

// Gather collects bit 0 of each byte lane of w into one byte (lane j -> bit j).
// Higher bits of each lane are ignored.
func Gather(w uint64) byte {
	return byte(((w & lowBits) * gatherMagic) >> 56)
}

// Load8 reads up to 8 one-byte lanes from src into a little-endian word.
// Missing lanes read as zero.
func Load8(src []byte) uint64 {
	if len(src) >= 8 {
		return binary.LittleEndian.Uint64(src)
	}
	var w uint64
	for j, b := range src {
		w |= uint64(b) << (8 * j)
	}
	return w
}

// Store8 writes the low len(dst) byte lanes of w into dst (at most 8).
func Store8(dst []byte, w uint64) {
	if len(dst) >= 8 {
		binary.LittleEndian.PutUint64(dst, w)
		return
	}
	for j := range dst {
		dst[j] = byte(w >> (8 * j))
	}
}

// Nibbles splits a packed 4-bit word into its two halves of byte lanes:
// lo holds the codes of dims 0..7, hi those of dims 8..15.
func Nibbles(w uint64) (lo, hi uint64) {
	return w & lowNibbles, (w >> 4) & lowNibbles
}

// Planes rebuilds eight byte lanes from one byte of each bit-plane.
// src[p*planeStride] is the byte of plane p that covers the lane group.
func Planes(src []byte, planeStride, bits int) uint64 {
	var w uint64
	for p := 0; p < bits; p++ {
		w |= spread[src[p*planeStride]] << p
	}
	return w
}
