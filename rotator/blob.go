package rotator

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hupe1980/rabitq/internal/hash"
)

const (
	blobMagic   = "RBQR"
	blobVersion = 1

	headerSize  = 28
	trailerSize = hash.TrailerSize
)

// MaxBlobSize is the largest serialized rotator any kind can produce.
const MaxBlobSize = headerSize + MaxMatrixSize*MaxMatrixSize*4 + trailerSize

type header struct {
	kind       Kind
	dim        int
	size       int
	seed       uint64
	payloadLen int
}

func blobSize(payloadLen int) int {
	return headerSize + payloadLen + trailerSize
}

// expectedPayload returns the payload length a kind requires for size.
func expectedPayload(kind Kind, size int) (int, error) {
	switch kind {
	case KindFhtKac:
		return fhtRounds * size / 8, nil
	case KindMatrix:
		return size * size * 4, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnknownKind, kind)
	}
}

// putHeader writes h into dst[:headerSize].
func putHeader(dst []byte, h header) {
	copy(dst[0:4], blobMagic)
	binary.LittleEndian.PutUint16(dst[4:6], blobVersion)
	dst[6] = byte(h.kind)
	dst[7] = 0
	binary.LittleEndian.PutUint32(dst[8:12], uint32(h.dim))
	binary.LittleEndian.PutUint32(dst[12:16], uint32(h.size))
	binary.LittleEndian.PutUint64(dst[16:24], h.seed)
	binary.LittleEndian.PutUint32(dst[24:28], uint32(h.payloadLen))
}

// parseHeader validates the fixed header fields and the declared lengths.
func parseHeader(src []byte) (header, error) {
	if len(src) < headerSize {
		return header{}, fmt.Errorf("%w: header truncated (%d bytes)", ErrCorrupt, len(src))
	}
	if string(src[0:4]) != blobMagic {
		return header{}, fmt.Errorf("%w: bad magic %q", ErrCorrupt, src[0:4])
	}
	if v := binary.LittleEndian.Uint16(src[4:6]); v != blobVersion {
		return header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	h := header{
		kind:       Kind(src[6]),
		dim:        int(binary.LittleEndian.Uint32(src[8:12])),
		size:       int(binary.LittleEndian.Uint32(src[12:16])),
		seed:       binary.LittleEndian.Uint64(src[16:24]),
		payloadLen: int(binary.LittleEndian.Uint32(src[24:28])),
	}
	if h.dim <= 0 || h.dim > MaxDim || h.size != PaddedSize(h.dim) {
		return header{}, fmt.Errorf("%w: dim %d, size %d", ErrCorrupt, h.dim, h.size)
	}
	if h.kind == KindMatrix && h.size > MaxMatrixSize {
		return header{}, fmt.Errorf("%w: matrix size %d exceeds %d", ErrCorrupt, h.size, MaxMatrixSize)
	}
	want, err := expectedPayload(h.kind, h.size)
	if err != nil {
		return header{}, err
	}
	if h.payloadLen != want {
		return header{}, fmt.Errorf("%w: payload length %d, want %d", ErrCorrupt, h.payloadLen, want)
	}
	return h, nil
}

// encodeBlob writes header, payload and checksum into dst, which must hold
// blobSize(len(payload)) bytes. A nil payload means the caller already
// wrote the payload in place.
func encodeBlob(dst []byte, h header, payload []byte) {
	putHeader(dst, h)
	if payload != nil {
		copy(dst[headerSize:], payload)
	}
	end := headerSize + h.payloadLen
	hash.PutTrailer(dst[end:], dst[:end])
}

// decodeBlob validates src and returns its header and payload view.
func decodeBlob(src []byte) (header, []byte, error) {
	h, err := parseHeader(src)
	if err != nil {
		return header{}, nil, err
	}
	total := blobSize(h.payloadLen)
	if len(src) < total {
		return header{}, nil, fmt.Errorf("%w: truncated (%d of %d bytes)", ErrCorrupt, len(src), total)
	}
	data, err := hash.SplitTrailer(src[:total])
	if err != nil {
		return header{}, nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return h, data[headerSize:], nil
}

// readBlob reads exactly one blob from r. The header is validated before the
// payload is allocated.
func readBlob(r io.Reader) ([]byte, int64, error) {
	var hdr [headerSize]byte
	n, err := io.ReadFull(r, hdr[:])
	if err != nil {
		return nil, int64(n), fmt.Errorf("rotator: read header: %w", err)
	}
	h, err := parseHeader(hdr[:])
	if err != nil {
		return nil, int64(n), err
	}
	blob := make([]byte, blobSize(h.payloadLen))
	copy(blob, hdr[:])
	m, err := io.ReadFull(r, blob[headerSize:])
	total := int64(n + m)
	if err != nil {
		return nil, total, fmt.Errorf("rotator: read payload: %w", err)
	}
	return blob, total, nil
}

// writeTo serializes a rotator to w in one write.
func writeTo(w io.Writer, rot Rotator) (int64, error) {
	buf := make([]byte, rot.DumpBytes())
	if err := rot.SaveBuffer(buf); err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	return int64(n), err
}
