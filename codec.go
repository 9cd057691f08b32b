package rabitq

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/rabitq/distance"
	"github.com/hupe1980/rabitq/internal/pool"
	"github.com/hupe1980/rabitq/internal/queue"
	"github.com/hupe1980/rabitq/internal/simd"
	"github.com/hupe1980/rabitq/metric"
	"github.com/hupe1980/rabitq/model"
	"github.com/hupe1980/rabitq/packing"
	"github.com/hupe1980/rabitq/quantization"
	"github.com/hupe1980/rabitq/rotator"
)

// searchCheckInterval is how many codes Search scores between context checks.
const searchCheckInterval = 1024

// EncodedVector is one quantized vector.
type EncodedVector struct {
	// Code is the packed b-bit code of the rotated vector.
	Code []byte
	// Delta and VL reconstruct coordinate i as VL + Delta*code[i].
	Delta float32
	VL    float32
	// NormSq is the squared norm of the rotated (equivalently, the original) vector.
	NormSq float32
}

// Query is a rotated query with the aggregates the estimators need.
type Query struct {
	rot    []float32
	sum    float32
	normSq float32
}

// Rotated returns the rotated query. The slice must not be modified.
func (q *Query) Rotated() []float32 { return q.rot }

// NormSq returns the squared norm of the query.
func (q *Query) NormSq() float32 { return q.normSq }

// Codec rotates, quantizes and packs vectors of one dimension, and estimates
// inner products and distances between queries and the resulting codes.
//
// A Codec is immutable after construction and safe for concurrent use.
type Codec struct {
	dim         int
	padded      int
	bits        int
	metric      metric.Type
	rot         rotator.Rotator
	kernel      distance.Kernel
	scaleMode   quantization.ScaleMode
	constScale  float64
	concurrency int
	compression Compression
	baseLogger  *Logger
	logger      *Logger
	metrics     MetricsCollector
}

// New creates a codec for vectors of length dim.
func New(dim int, opts ...Option) (*Codec, error) {
	o := buildOptions(opts)
	if dim <= 0 || dim > rotator.MaxDim {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}

	var rotOpts []rotator.Option
	if o.hasSeed {
		rotOpts = append(rotOpts, rotator.WithSeed(o.seed))
	}
	rot, err := rotator.New(o.rotatorKind, dim, rotOpts...)
	if err != nil {
		return nil, &ErrInvalidDimension{Dimension: dim, cause: err}
	}

	var constScale float64
	if o.scaleMode == quantization.ScaleConst {
		constScale = quantization.DefaultConstScale(rot.Size(), o.bits)
	}
	return newCodec(rot, o, constScale)
}

// newCodec validates the encoding parameters and assembles a codec around rot.
func newCodec(rot rotator.Rotator, o options, constScale float64) (*Codec, error) {
	kernel, err := distance.SelectKernelStrict(o.bits)
	if err != nil {
		return nil, &ErrInvalidBitDepth{Bits: o.bits, cause: err}
	}
	if !o.metric.Valid() {
		return nil, fmt.Errorf("rabitq: invalid metric %v", o.metric)
	}
	if !o.compression.Valid() {
		return nil, fmt.Errorf("rabitq: invalid compression %v", o.compression)
	}
	if o.scaleMode == quantization.ScaleConst && !(constScale > 0) {
		return nil, fmt.Errorf("rabitq: %w: %v", quantization.ErrInvalidScale, constScale)
	}

	c := &Codec{
		dim:         rot.Dim(),
		padded:      rot.Size(),
		bits:        o.bits,
		metric:      o.metric,
		rot:         rot,
		kernel:      kernel,
		scaleMode:   o.scaleMode,
		constScale:  constScale,
		concurrency: o.concurrency,
		compression: o.compression,
		baseLogger:  o.logger,
		logger:      o.logger.WithDimension(rot.Dim()).WithBits(o.bits),
		metrics:     o.metricsCollector,
	}
	return c, nil
}

// Dim returns the input dimension.
func (c *Codec) Dim() int { return c.dim }

// PaddedDim returns the rotated dimension, a multiple of 64.
func (c *Codec) PaddedDim() int { return c.padded }

// Bits returns the code width.
func (c *Codec) Bits() int { return c.bits }

// Metric returns the distance metric.
func (c *Codec) Metric() metric.Type { return c.metric }

// Rotator returns the rotation shared by encoding and queries.
func (c *Codec) Rotator() rotator.Rotator { return c.rot }

// Kernel returns the inner-product kernel for the codec's bit depth.
func (c *Codec) Kernel() distance.Kernel { return c.kernel }

// ScaleMode returns the rescale strategy.
func (c *Codec) ScaleMode() quantization.ScaleMode { return c.scaleMode }

// CodeSize returns the packed size of one code in bytes.
func (c *Codec) CodeSize() int { return packing.PackedSize(c.padded, c.bits) }

func (c *Codec) checkDim(v []float32) error {
	if len(v) != c.dim {
		return &ErrDimensionMismatch{Expected: c.dim, Actual: len(v)}
	}
	return nil
}

func (c *Codec) quantizeOptions() []quantization.Option {
	if c.scaleMode == quantization.ScaleConst {
		return []quantization.Option{quantization.WithConstScale(c.constScale)}
	}
	return nil
}

// Encode rotates, quantizes and packs v. v is not modified.
func (c *Codec) Encode(v []float32) (EncodedVector, error) {
	start := time.Now()
	ev, err := c.encode(v)
	c.metrics.RecordEncode(time.Since(start), err)
	if err != nil {
		c.logger.LogEncode(context.Background(), len(v), err)
	}
	return ev, err
}

func (c *Codec) encode(v []float32) (EncodedVector, error) {
	if err := c.checkDim(v); err != nil {
		return EncodedVector{}, err
	}
	scratch := pool.Get(c.padded)
	defer pool.Put(scratch)
	rotated, codes := scratch.Rotated, scratch.Codes
	c.rot.Rotate(v, rotated)

	delta, vl, err := quantization.QuantizeScalar(rotated, c.bits, codes, c.quantizeOptions()...)
	if err != nil {
		return EncodedVector{}, fmt.Errorf("rabitq: quantize: %w", err)
	}
	packed, err := packing.Pack(codes, c.bits)
	if err != nil {
		return EncodedVector{}, fmt.Errorf("rabitq: pack: %w", err)
	}
	return EncodedVector{
		Code:   packed,
		Delta:  delta,
		VL:     vl,
		NormSq: distance.SquaredNorm(rotated),
	}, nil
}

// EncodeBatch encodes vs concurrently, bounded by WithConcurrency. The result
// keeps the input order. The first error cancels the remaining work.
func (c *Codec) EncodeBatch(ctx context.Context, vs [][]float32) ([]EncodedVector, error) {
	start := time.Now()
	out := make([]EncodedVector, len(vs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	var done atomic.Int64
	for i := range vs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := c.encode(vs[i])
			if err != nil {
				return fmt.Errorf("rabitq: vector %d: %w", i, err)
			}
			out[i] = ev
			done.Add(1)
			return nil
		})
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	c.metrics.RecordBatchEncode(len(vs), time.Since(start), err)
	c.logger.LogBatchEncode(ctx, int(done.Load()), err)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode reconstructs ev in the rotated space (length PaddedDim).
func (c *Codec) Decode(ev EncodedVector) ([]float32, error) {
	if len(ev.Code) != c.CodeSize() {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrCodeSize, len(ev.Code), c.CodeSize())
	}
	codes, err := packing.Unpack(ev.Code, c.padded, c.bits)
	if err != nil {
		return nil, fmt.Errorf("rabitq: unpack: %w", err)
	}
	out := make([]float32, c.padded)
	quantization.ReconstructVec(codes, ev.Delta, ev.VL, out)
	return out, nil
}

// PrepareQuery rotates q once so it can be scored against many codes.
func (c *Codec) PrepareQuery(q []float32) (*Query, error) {
	if err := c.checkDim(q); err != nil {
		return nil, err
	}
	rot := make([]float32, c.padded)
	c.rot.Rotate(q, rot)
	return &Query{
		rot:    rot,
		sum:    simd.Sum(rot),
		normSq: distance.SquaredNorm(rot),
	}, nil
}

// InnerProduct estimates <q, x> from the code of x without reconstructing it:
// Σ q_i (VL + Delta*code_i) = Delta*Σ q_i code_i + VL*Σ q_i.
// ev must come from this codec; a wrong code size panics in the kernel.
func (c *Codec) InnerProduct(q *Query, ev EncodedVector) float32 {
	ip := c.kernel.Func(q.rot, ev.Code, c.padded)
	return ev.Delta*ip + ev.VL*q.sum
}

// Distance estimates the metric distance between q and the encoded vector.
// Smaller is closer for every metric.
func (c *Codec) Distance(q *Query, ev EncodedVector) float32 {
	return c.metric.Distance(c.InnerProduct(q, ev), q.normSq, ev.NormSq)
}

// Search scores every code against q and returns the k closest, ascending by
// distance. Candidate IDs are indices into codes. A non-nil filter restricts
// the scan to the indices it contains.
func (c *Codec) Search(ctx context.Context, q *Query, codes []EncodedVector, k int, filter *roaring.Bitmap) ([]model.AnnCandidate, error) {
	start := time.Now()
	results, scanned, err := c.search(ctx, q, codes, k, filter)
	c.metrics.RecordSearch(k, scanned, time.Since(start), err)
	c.logger.LogSearch(ctx, k, len(results), err)
	return results, err
}

func (c *Codec) search(ctx context.Context, q *Query, codes []EncodedVector, k int, filter *roaring.Bitmap) ([]model.AnnCandidate, int, error) {
	if k <= 0 {
		return nil, 0, fmt.Errorf("%w: got %d", ErrInvalidK, k)
	}
	if q == nil || len(q.rot) != c.padded {
		return nil, 0, fmt.Errorf("rabitq: query was not prepared by this codec")
	}
	codeSize := c.CodeSize()
	top := queue.NewTopK(k)

	score := func(i int) error {
		ev := codes[i]
		if len(ev.Code) != codeSize {
			return fmt.Errorf("%w: code %d has %d bytes, want %d", ErrCodeSize, i, len(ev.Code), codeSize)
		}
		top.Offer(model.AnnCandidate{ID: uint64(i), Distance: c.Distance(q, ev)})
		return nil
	}

	scanned := 0
	if filter != nil {
		it := filter.Iterator()
		for it.HasNext() {
			i := int(it.Next())
			if i >= len(codes) {
				break
			}
			if scanned%searchCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					return nil, scanned, err
				}
			}
			if err := score(i); err != nil {
				return nil, scanned, err
			}
			scanned++
		}
		return top.Results(), scanned, nil
	}

	for i := range codes {
		if i%searchCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, scanned, err
			}
		}
		if err := score(i); err != nil {
			return nil, scanned, err
		}
		scanned++
	}
	return top.Results(), scanned, nil
}
