package queue

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rabitq/model"
)

func TestHeap_MinOrder(t *testing.T) {
	h := NewHeap(4, func(a, b float64) bool { return a < b })
	for _, v := range []float64{5, 1, 4, 2, 3} {
		h.Push(v)
	}
	require.Equal(t, 5, h.Len())

	var got []float64
	for h.Len() > 0 {
		v, ok := h.Pop()
		require.True(t, ok)
		got = append(got, v)
	}
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, got)

	_, ok := h.Pop()
	assert.False(t, ok)
	_, ok = h.Top()
	assert.False(t, ok)
}

func TestHeap_ReplaceTop(t *testing.T) {
	h := NewHeap(3, func(a, b int) bool { return a > b })
	h.Push(1)
	h.Push(9)
	h.Push(5)

	top, _ := h.Top()
	assert.Equal(t, 9, top)

	h.ReplaceTop(0)
	top, _ = h.Top()
	assert.Equal(t, 5, top)

	h.Reset()
	assert.Equal(t, 0, h.Len())
}

func TestHeap_Random(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	h := NewHeap(0, func(a, b float64) bool { return a < b })
	vals := make([]float64, 500)
	for i := range vals {
		vals[i] = r.NormFloat64()
		h.Push(vals[i])
	}
	sort.Float64s(vals)
	for _, want := range vals {
		got, _ := h.Pop()
		assert.Equal(t, want, got)
	}
}

func TestTopK(t *testing.T) {
	tk := NewTopK(3)
	assert.Equal(t, 3, tk.K())
	assert.True(t, tk.Worst().IsSentinel())
	assert.Empty(t, tk.Results())

	assert.True(t, tk.Offer(model.AnnCandidate{ID: 1, Distance: 5}))
	assert.True(t, tk.Offer(model.AnnCandidate{ID: 2, Distance: 1}))
	assert.True(t, tk.Offer(model.AnnCandidate{ID: 3, Distance: 3}))
	assert.Equal(t, float32(5), tk.Worst().Distance)

	assert.False(t, tk.Offer(model.AnnCandidate{ID: 4, Distance: 7}))
	assert.True(t, tk.Offer(model.AnnCandidate{ID: 5, Distance: 2}))

	assert.Equal(t, []model.AnnCandidate{
		{ID: 2, Distance: 1},
		{ID: 5, Distance: 2},
		{ID: 3, Distance: 3},
	}, tk.Results())

	tk.Reset()
	assert.Empty(t, tk.Results())
}

func TestTopK_MatchesSort(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	all := make([]model.AnnCandidate, 200)
	tk := NewTopK(10)
	for i := range all {
		all[i] = model.AnnCandidate{ID: uint64(i), Distance: r.Float32()}
		tk.Offer(all[i])
	}
	model.SortCandidates(all)
	assert.Equal(t, all[:10], tk.Results())
}

func TestTopK_InvalidK(t *testing.T) {
	assert.Panics(t, func() { NewTopK(0) })
}
