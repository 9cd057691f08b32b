package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUniformRangeVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformRangeVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(-1.0))
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))

	for _, vec := range v {
		assert.InDelta(t, 1.0, Norm(vec), 1e-5)
	}
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.GaussianVectors(1, 10)

	rng.Reset()
	v2 := rng.GaussianVectors(1, 10)

	assert.Equal(t, v1, v2)
}

func TestCodes(t *testing.T) {
	rng := NewRNG(1)
	for bits := 1; bits <= 8; bits++ {
		for _, c := range rng.Codes(256, bits) {
			assert.Less(t, int(c), 1<<bits)
		}
	}
}

func TestFixtures(t *testing.T) {
	assert.Equal(t, []float32{0, 0.1, 0.2}, SimpleVector(3))
	assert.Equal(t, float32(0), SimpleVector(11)[10])
	assert.Equal(t, []float32{0, 1, 2, 3}, IncrementalVector(4))
	assert.Equal(t, []float32{2, 2}, ConstantVector(2, 2))
}

func TestReferences(t *testing.T) {
	a := []float32{1, 2, 3}
	b := []float32{1, 0, 3}
	assert.InDelta(t, 4.0/3, MeanSquaredError(a, b), 1e-12)
	assert.InDelta(t, 14.0/3, MeanSquare(a), 1e-12)
	assert.InDelta(t, 1+4+9, DotFloat64(a, []uint8{1, 2, 3}), 1e-12)
}

func TestBruteForceAndRecall(t *testing.T) {
	vectors := [][]float32{{0, 0}, {1, 1}, {5, 5}, {2, 2}}
	gt := BruteForceSearch(vectors, []float32{0, 0}, 2)
	assert.Equal(t, []uint64{0, 1}, []uint64{gt[0].ID, gt[1].ID})

	ip := BruteForceSearchIP(vectors, []float32{1, 1}, 1)
	assert.Equal(t, uint64(2), ip[0].ID)

	assert.Equal(t, 1.0, ComputeRecall(gt, gt))
	assert.Equal(t, 0.5, ComputeRecall(gt, []SearchResult{{ID: 0}, {ID: 3}}))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
}
