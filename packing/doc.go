// Package packing serializes b-bit quantization codes into the block layouts
// consumed by the inner-product kernels, and decodes them back.
//
// Codes are stored one value per byte before packing. A packed buffer is a
// sequence of blocks; the block width depends on the bit depth:
//
//	bits       dims/block  bytes/block  layout
//	1          16          2            dim i -> bit i%8 of byte i/8
//	4          16          8            byte j = dim j | dim j+8 << 4
//	2,3,5,6,7  64          8*bits       bit-planes: plane p holds bit p of every dim
//	8          1           1            identity
//
// Bit-planes are little-endian uint64 words: bit i of plane p is bit p of the
// code of dim i within the block. A trailing partial block is shortened to the
// bytes it needs, so PackedSize(n, bits) == ceil(n*bits/8) for n that is a
// multiple of the block size.
//
// # Usage
//
//	packed, err := packing.Pack(codes, 4)
//	if err != nil {
//		return err
//	}
//	codes2, err := packing.Unpack(packed, len(codes), 4)
package packing
