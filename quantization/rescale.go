package quantization

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"github.com/hupe1980/rabitq/internal/queue"
)

const (
	// rescaleEps absorbs rounding when t*|x| lands exactly on a level boundary.
	rescaleEps = 1e-5
	// rescaleHeadroom extends the search range past the top level.
	rescaleHeadroom = 10
	// constScaleSamples is the number of random unit vectors averaged by
	// ConstScalingFactor.
	constScaleSamples = 100
	// DefaultConstScaleSeed seeds the cached default const scale.
	DefaultConstScaleSeed = 0x5eed
)

// tightStart[magBits] is the fraction of t_end where the search starts. Below
// it the optimum was never observed for Gaussian-like data.
var tightStart = [9]float64{0, 0.15, 0.20, 0.52, 0.59, 0.71, 0.75, 0.77, 0.81}

// rescaleEvent is the t at which coordinate dim moves to its next level.
type rescaleEvent struct {
	t   float64
	dim int
}

func rescaleFactor(data []float32, bits int, maxAbs float64, o options) (float64, error) {
	if bits == 1 {
		// Only the sign survives; any t gives level 0.
		return 0, nil
	}
	if o.mode == ScaleConst {
		c := o.constScale
		if c == 0 {
			c = DefaultConstScale(len(data), bits)
		}
		if !(c > 0) || math.IsInf(c, 0) {
			return 0, fmt.Errorf("%w: got %v", ErrInvalidScale, c)
		}
		var normSq float64
		for _, v := range data {
			normSq += float64(v) * float64(v)
		}
		return c / math.Sqrt(normSq), nil
	}
	abs := make([]float64, len(data))
	for i, v := range data {
		abs[i] = math.Abs(float64(v))
	}
	return bestRescaleFactor(abs, bits-1, maxAbs), nil
}

// bestRescaleFactor returns the t that maximizes the cosine between |x| and
// its grid image (floor(t*|x|) + 0.5), with levels capped at 2^magBits - 1.
//
// As t grows each coordinate's level steps up at t = (level+1)/|x_i|. A
// min-heap yields those events in order and the cosine numerator and
// denominator are updated incrementally, so the sweep is exact and costs
// O(n * 2^magBits * log n).
func bestRescaleFactor(abs []float64, magBits int, maxAbs float64) float64 {
	maxLevel := 1<<magBits - 1
	tEnd := float64(maxLevel+rescaleHeadroom) / maxAbs
	tStart := tEnd * tightStart[magBits]

	levels := make([]int, len(abs))
	// Σ (level+0.5)² = Σ level² + level + 0.25
	denom := 0.25 * float64(len(abs))
	var numer float64

	events := queue.NewHeap(len(abs), func(a, b rescaleEvent) bool {
		if a.t != b.t {
			return a.t < b.t
		}
		return a.dim < b.dim
	})
	for i, a := range abs {
		lvl := min(int(tStart*a+rescaleEps), maxLevel)
		levels[i] = lvl
		denom += float64(lvl*lvl + lvl)
		numer += (float64(lvl) + 0.5) * a
		if a > 0 && lvl < maxLevel {
			if next := float64(lvl+1) / a; next < tEnd {
				events.Push(rescaleEvent{t: next, dim: i})
			}
		}
	}

	bestIP := numer / math.Sqrt(denom)
	bestT := tStart
	for {
		ev, ok := events.Pop()
		if !ok {
			break
		}
		levels[ev.dim]++
		lvl := levels[ev.dim]
		denom += float64(2 * lvl)
		numer += abs[ev.dim]

		if ip := numer / math.Sqrt(denom); ip > bestIP {
			bestIP = ip
			bestT = ev.t
		}
		if lvl < maxLevel {
			if next := float64(lvl+1) / abs[ev.dim]; next < tEnd {
				events.Push(rescaleEvent{t: next, dim: ev.dim})
			}
		}
	}
	return bestT
}

// RescaleFactor returns the grid scale the ScaleSearch mode picks for data.
// It returns 0 for 1-bit codes and degenerate input.
func RescaleFactor(data []float32, bits int) (float64, error) {
	if bits < 1 || bits > 8 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}
	var maxAbs float64
	for _, v := range data {
		maxAbs = max(maxAbs, math.Abs(float64(v)))
	}
	if maxAbs < degenerateMaxAbs {
		return 0, nil
	}
	return rescaleFactor(data, bits, maxAbs, options{})
}

// ConstScalingFactor returns the mean best rescale factor of random Gaussian
// unit vectors of length dim. Multiplying it by 1/‖x‖ approximates the
// per-vector search for rotated data.
func ConstScalingFactor(dim, bits int, seed uint64) (float64, error) {
	if bits < 1 || bits > 8 {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidBits, bits)
	}
	if dim <= 0 {
		return 0, fmt.Errorf("quantization: dim must be positive, got %d", dim)
	}
	if bits == 1 {
		return 1, nil
	}
	rng := rand.New(rand.NewPCG(seed, uint64(dim)<<8|uint64(bits)))
	abs := make([]float64, dim)
	var sum float64
	for s := 0; s < constScaleSamples; s++ {
		var normSq float64
		for i := range abs {
			v := rng.NormFloat64()
			abs[i] = v
			normSq += v * v
		}
		inv := 1 / math.Sqrt(normSq)
		var maxAbs float64
		for i, v := range abs {
			abs[i] = math.Abs(v) * inv
			maxAbs = max(maxAbs, abs[i])
		}
		sum += bestRescaleFactor(abs, bits-1, maxAbs)
	}
	return sum / constScaleSamples, nil
}

type constScaleKey struct{ dim, bits int }

var constScaleCache sync.Map // constScaleKey -> float64

// DefaultConstScale returns ConstScalingFactor(dim, bits, DefaultConstScaleSeed),
// computed once per (dim, bits) and cached.
func DefaultConstScale(dim, bits int) float64 {
	key := constScaleKey{dim, bits}
	if v, ok := constScaleCache.Load(key); ok {
		return v.(float64)
	}
	c, err := ConstScalingFactor(dim, bits, DefaultConstScaleSeed)
	if err != nil {
		return 0
	}
	v, _ := constScaleCache.LoadOrStore(key, c)
	return v.(float64)
}
