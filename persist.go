package rabitq

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/hupe1980/rabitq/blobstore"
	"github.com/hupe1980/rabitq/internal/compress"
	"github.com/hupe1980/rabitq/internal/hash"
	"github.com/hupe1980/rabitq/metric"
	"github.com/hupe1980/rabitq/quantization"
	"github.com/hupe1980/rabitq/rotator"
)

// Codec blob layout, little-endian:
//
//	magic "RBQC" | version u16 | bits u8 | metric u8 | scale mode u8 |
//	compression u8 | reserved u16 | dim u32 | const scale f64 |
//	compressed rotator blob | crc32c
const (
	codecMagic      = "RBQC"
	codecVersion    = 1
	codecHeaderSize = 24
)

// MarshalBinary serializes the codec parameters and its rotator. Runtime
// options (logger, metrics, concurrency) are not stored.
func (c *Codec) MarshalBinary() ([]byte, error) {
	rotBlob, err := c.rot.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("rabitq: marshal rotator: %w", err)
	}
	block, err := compress.Encode(rotBlob, c.compression)
	if err != nil {
		return nil, fmt.Errorf("rabitq: compress rotator: %w", err)
	}

	buf := make([]byte, codecHeaderSize, codecHeaderSize+len(block)+hash.TrailerSize)
	copy(buf[0:4], codecMagic)
	binary.LittleEndian.PutUint16(buf[4:], codecVersion)
	buf[6] = byte(c.bits)
	buf[7] = byte(c.metric)
	buf[8] = byte(c.scaleMode)
	buf[9] = byte(c.compression)
	binary.LittleEndian.PutUint32(buf[12:], uint32(c.dim))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(c.constScale))
	buf = append(buf, block...)
	return hash.AppendTrailer(buf), nil
}

// WriteTo writes the serialized codec to w.
func (c *Codec) WriteTo(w io.Writer) (int64, error) {
	blob, err := c.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(blob)
	return int64(n), err
}

// UnmarshalBinary replaces the codec with the one stored in data. The
// receiver keeps its logger, metrics collector and concurrency. data is
// validated completely before anything is replaced. It must not be called
// while the codec is in use by other goroutines.
func (c *Codec) UnmarshalBinary(data []byte) error {
	loaded, err := c.decode(data)
	if err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// ReadFrom reads one serialized codec from r and replaces the receiver with
// it, like UnmarshalBinary. It consumes exactly the bytes of one blob.
func (c *Codec) ReadFrom(r io.Reader) (int64, error) {
	blob, err := readCodecBlob(r)
	if err != nil {
		return int64(len(blob)), err
	}
	return int64(len(blob)), c.UnmarshalBinary(blob)
}

// Read reads a serialized codec from r. Encoding parameters come from the
// stream; opts supply the runtime options.
func Read(r io.Reader, opts ...Option) (*Codec, error) {
	blob, err := readCodecBlob(r)
	if err != nil {
		return nil, err
	}
	return Unmarshal(blob, opts...)
}

// Unmarshal decodes a codec from data produced by MarshalBinary.
func Unmarshal(data []byte, opts ...Option) (*Codec, error) {
	o := buildOptions(opts)
	return decodeCodec(data, o)
}

func (c *Codec) decode(data []byte) (*Codec, error) {
	o := defaultOptions()
	if c.baseLogger != nil {
		o.logger = c.baseLogger
	}
	if c.metrics != nil {
		o.metricsCollector = c.metrics
	}
	if c.concurrency > 0 {
		o.concurrency = c.concurrency
	}
	return decodeCodec(data, o)
}

func decodeCodec(data []byte, o options) (*Codec, error) {
	if len(data) < codecHeaderSize+compress.HeaderSize+hash.TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is too short", ErrCorrupt, len(data))
	}
	if string(data[0:4]) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorrupt, data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:]); v != codecVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, v)
	}
	body, err := hash.SplitTrailer(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	o.bits = int(body[6])
	o.metric = metric.Type(body[7])
	o.scaleMode = quantization.ScaleMode(body[8])
	o.compression = Compression(body[9])
	dim := int(binary.LittleEndian.Uint32(body[12:]))
	constScale := math.Float64frombits(binary.LittleEndian.Uint64(body[16:]))

	if !o.compression.Valid() {
		return nil, fmt.Errorf("%w: compression %d", ErrCorrupt, body[9])
	}
	if o.scaleMode != quantization.ScaleSearch && o.scaleMode != quantization.ScaleConst {
		return nil, fmt.Errorf("%w: scale mode %d", ErrCorrupt, body[8])
	}

	block := body[codecHeaderSize:]
	n, err := rotatorBlockLen(block)
	if err != nil {
		return nil, err
	}
	if n != len(block) {
		return nil, fmt.Errorf("%w: rotator block is %d bytes, header declares %d", ErrCorrupt, len(block), n)
	}
	rotBlob, err := compress.Decode(block, o.compression)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	rot, err := rotator.Decode(rotBlob)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if rot.Dim() != dim {
		return nil, fmt.Errorf("%w: header dim %d, rotator dim %d", ErrCorrupt, dim, rot.Dim())
	}

	c, err := newCodec(rot, o, constScale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return c, nil
}

// rotatorBlockLen returns the encoded length of the compressed rotator block
// at the start of block. Neither the raw nor the stored size may exceed the
// largest rotator blob.
func rotatorBlockLen(block []byte) (int, error) {
	n, err := compress.BlockLen(block)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	raw := int(binary.LittleEndian.Uint32(block[0:]))
	if raw > rotator.MaxBlobSize || n-compress.HeaderSize > rotator.MaxBlobSize {
		return 0, fmt.Errorf("%w: rotator block declares %d/%d bytes, limit %d",
			ErrCorrupt, raw, n-compress.HeaderSize, rotator.MaxBlobSize)
	}
	return n, nil
}

// readCodecBlob reads exactly one codec blob from r. On error it returns the
// bytes consumed so far.
func readCodecBlob(r io.Reader) ([]byte, error) {
	prefix := make([]byte, codecHeaderSize+compress.HeaderSize)
	if n, err := io.ReadFull(r, prefix); err != nil {
		return prefix[:n], fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if string(prefix[0:4]) != codecMagic {
		return prefix, fmt.Errorf("%w: bad magic %q", ErrCorrupt, prefix[0:4])
	}
	n, err := rotatorBlockLen(prefix[codecHeaderSize:])
	if err != nil {
		return prefix, err
	}

	rest := int64(n - compress.HeaderSize + hash.TrailerSize)
	buf := bytes.NewBuffer(prefix)
	m, err := buf.ReadFrom(io.LimitReader(r, rest))
	if err == nil && m < rest {
		err = io.ErrUnexpectedEOF
	}
	if err != nil {
		return buf.Bytes(), fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return buf.Bytes(), nil
}

// SaveCodec stores the serialized codec under name.
func SaveCodec(ctx context.Context, store blobstore.BlobStore, name string, c *Codec) error {
	start := time.Now()
	blob, err := c.MarshalBinary()
	if err == nil {
		err = store.Put(ctx, name, blob)
	}
	c.metrics.RecordSave(len(blob), time.Since(start), err)
	c.logger.LogSave(ctx, name, len(blob), err)
	if err != nil {
		return fmt.Errorf("rabitq: save %q: %w", name, err)
	}
	return nil
}

// LoadCodec loads a codec stored by SaveCodec. A missing blob yields an error
// matching blobstore.ErrNotFound.
func LoadCodec(ctx context.Context, store blobstore.BlobStore, name string, opts ...Option) (*Codec, error) {
	o := buildOptions(opts)
	start := time.Now()

	blob, err := store.Get(ctx, name)
	var c *Codec
	if err == nil {
		c, err = decodeCodec(blob, o)
	}
	o.metricsCollector.RecordLoad(len(blob), time.Since(start), err)
	o.logger.LogLoad(ctx, name, len(blob), err)
	if err != nil {
		return nil, fmt.Errorf("rabitq: load %q: %w", name, err)
	}
	return c, nil
}
