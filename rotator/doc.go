// Package rotator applies a random orthogonal transform to vectors before
// quantization.
//
// Rotation spreads the energy of a vector evenly across its coordinates, so
// that independent per-coordinate scalar quantization is close to optimal.
// Output vectors are zero-padded to Size(), the smallest multiple of 64 that
// is >= Dim().
//
// # Kinds
//
//   - KindFhtKac (default): four rounds of a random sign flip followed by a
//     normalized fast Walsh-Hadamard transform. When Size() is not a power of
//     two the transform alternates between the head and the tail of the
//     vector and every round ends with a Kac walk butterfly. O(n log n).
//   - KindMatrix: a dense random orthogonal matrix. O(n²); useful as a
//     reference and for small dimensions.
//
// Randomness is drawn once at construction from a seeded PCG source. Pass
// WithSeed for reproducible construction; without it a seed is drawn and
// recorded so that Seed() always reports what was used.
//
// # Persistence
//
// Every rotator serializes to a self-describing, checksummed blob of exactly
// DumpBytes() bytes:
//
//	magic "RBQR" | version u16 | kind u8 | reserved u8 | dim u32 | size u32 |
//	seed u64 | payload_len u32 | payload | crc32c u32
//
// All integers are little endian. Loading decodes into a fresh state and
// swaps it in only after the checksum and every length have been verified,
// so a failed load never leaves a rotator half-updated. Read and Decode
// rebuild a rotator of whichever kind the blob declares.
//
// # Concurrency
//
// Rotate may be called from many goroutines. Loading replaces the state
// atomically; callers should still avoid loading while rotating if they
// need every concurrent Rotate to observe the same parameters.
package rotator
