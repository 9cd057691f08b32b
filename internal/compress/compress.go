// Package compress wraps persisted payloads in self-describing compressed blocks.
//
// Block format: [UncompressedSize uint32][CompressedSize uint32][Data...]
// A CompressedSize of 0 marks a block stored uncompressed, which is also what
// Encode falls back to when compression saves less than 10%.
package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Kind selects the compression algorithm.
type Kind uint8

const (
	// None stores blocks uncompressed.
	None Kind = 0
	// LZ4 uses LZ4 block compression (fast).
	LZ4 Kind = 1
	// ZSTD uses Zstandard (better ratio).
	ZSTD Kind = 2
)

// HeaderSize is the size of the block header in bytes.
const HeaderSize = 8

// MaxBlockSize bounds the uncompressed size a header may declare.
const MaxBlockSize = 1 << 30

var (
	// ErrUnknownKind is returned for an unsupported compression kind.
	ErrUnknownKind = errors.New("compress: unknown kind")
	// ErrCorrupt is returned for malformed blocks.
	ErrCorrupt = errors.New("compress: corrupt block")
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case LZ4:
		return "lz4"
	case ZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k <= ZSTD
}

// ParseKind parses "none", "lz4" or "zstd" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return None, nil
	case "lz4":
		return LZ4, nil
	case "zstd":
		return ZSTD, nil
	default:
		return None, fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// ZSTD encoder/decoder pools; both types are safe for reuse after EncodeAll/DecodeAll.
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(MaxBlockSize))
}

// Encode compresses data into a block.
func Encode(data []byte, kind Kind) ([]byte, error) {
	var compressed []byte
	switch kind {
	case None:
	case LZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("compress: lz4: %w", err)
		}
		compressed = buf[:n]
	case ZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		compressed = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}

	if len(compressed) == 0 || float64(len(compressed)) > float64(len(data))*0.9 {
		out := make([]byte, HeaderSize+len(data))
		binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
		copy(out[HeaderSize:], data)
		return out, nil
	}

	out := make([]byte, HeaderSize+len(compressed))
	binary.LittleEndian.PutUint32(out[0:], uint32(len(data)))
	binary.LittleEndian.PutUint32(out[4:], uint32(len(compressed)))
	copy(out[HeaderSize:], compressed)
	return out, nil
}

// BlockLen returns the encoded length of the block starting at src.
func BlockLen(src []byte) (int, error) {
	if len(src) < HeaderSize {
		return 0, fmt.Errorf("%w: %d bytes is shorter than the header", ErrCorrupt, len(src))
	}
	raw := binary.LittleEndian.Uint32(src[0:])
	packed := binary.LittleEndian.Uint32(src[4:])
	if raw > MaxBlockSize || packed > MaxBlockSize {
		return 0, fmt.Errorf("%w: declared size %d/%d exceeds limit", ErrCorrupt, raw, packed)
	}
	if packed == 0 {
		return HeaderSize + int(raw), nil
	}
	return HeaderSize + int(packed), nil
}

// Decode decompresses a block produced by Encode with the same kind.
func Decode(src []byte, kind Kind) ([]byte, error) {
	n, err := BlockLen(src)
	if err != nil {
		return nil, err
	}
	if len(src) < n {
		return nil, fmt.Errorf("%w: truncated (%d of %d bytes)", ErrCorrupt, len(src), n)
	}
	raw := int(binary.LittleEndian.Uint32(src[0:]))
	if binary.LittleEndian.Uint32(src[4:]) == 0 {
		return src[HeaderSize:n], nil
	}
	payload := src[HeaderSize:n]

	switch kind {
	case LZ4:
		out := make([]byte, raw)
		m, err := lz4.UncompressBlock(payload, out)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if m != raw {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, m, raw)
		}
		return out, nil
	case ZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("compress: zstd: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(payload, make([]byte, 0, raw))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(out) != raw {
			return nil, fmt.Errorf("%w: decompressed %d bytes, want %d", ErrCorrupt, len(out), raw)
		}
		return out, nil
	case None:
		return nil, fmt.Errorf("%w: compressed block with kind none", ErrCorrupt)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}
