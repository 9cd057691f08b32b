package hash

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash"
	"hash/crc32"
)

// TrailerSize is the size of a checksum trailer in bytes.
const TrailerSize = 4

// ErrChecksum is returned when a trailer does not match its data.
var ErrChecksum = errors.New("hash: checksum mismatch")

// crc32cTable is pre-computed for CRC32-Castagnoli polynomial.
var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

// CRC32C computes the CRC32-Castagnoli checksum of data.
// Uses hardware acceleration when available (SSE4.2, ARM CRC).
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, crc32cTable)
}

// NewCRC32C returns a new CRC32-Castagnoli hash.Hash32.
func NewCRC32C() hash.Hash32 {
	return crc32.New(crc32cTable)
}

// PutTrailer writes the checksum of data into dst[:TrailerSize].
func PutTrailer(dst, data []byte) {
	binary.LittleEndian.PutUint32(dst[:TrailerSize], CRC32C(data))
}

// AppendTrailer appends the checksum of buf to buf.
func AppendTrailer(buf []byte) []byte {
	return binary.LittleEndian.AppendUint32(buf, CRC32C(buf))
}

// SplitTrailer verifies the trailing checksum of blob and returns the data
// it covers.
func SplitTrailer(blob []byte) ([]byte, error) {
	if len(blob) < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrChecksum, len(blob))
	}
	end := len(blob) - TrailerSize
	data := blob[:end]
	got, want := CRC32C(data), binary.LittleEndian.Uint32(blob[end:])
	if got != want {
		return nil, fmt.Errorf("%w: %08x, want %08x", ErrChecksum, got, want)
	}
	return data, nil
}
