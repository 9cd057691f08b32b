// Package hash provides the CRC32-Castagnoli checksums that guard every
// serialized blob (rotator state and codec files).
//
// One-shot checksums:
//
//	sum := hash.CRC32C(data)
//
// Streaming checksums:
//
//	h := hash.NewCRC32C()
//	h.Write(header)
//	h.Write(payload)
//	sum := h.Sum32()
//
// Blobs carry the checksum as a 4-byte little-endian trailer over everything
// before it. AppendTrailer writes one and SplitTrailer verifies it.
package hash
