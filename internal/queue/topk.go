package queue

import (
	"slices"

	"github.com/hupe1980/rabitq/model"
)

// TopK keeps the k closest candidates seen so far. Internally it is a
// max-heap pre-filled with sentinels, so the top is always the current
// admission threshold.
type TopK struct {
	k    int
	heap *Heap[model.AnnCandidate]
}

// NewTopK returns a collector for the k closest candidates. k must be positive.
func NewTopK(k int) *TopK {
	if k <= 0 {
		panic("queue: TopK requires k > 0")
	}
	h := NewHeap(k, func(a, b model.AnnCandidate) bool {
		return a.Compare(b) > 0
	})
	for i := 0; i < k; i++ {
		h.Push(model.SentinelCandidate())
	}
	return &TopK{k: k, heap: h}
}

// K returns the capacity of the collector.
func (t *TopK) K() int { return t.k }

// Worst returns the candidate a newcomer has to beat.
func (t *TopK) Worst() model.AnnCandidate {
	top, _ := t.heap.Top()
	return top
}

// Offer admits c if it is closer than the current worst candidate.
// It reports whether c was admitted.
func (t *TopK) Offer(c model.AnnCandidate) bool {
	if c.Compare(t.Worst()) >= 0 {
		return false
	}
	t.heap.ReplaceTop(c)
	return true
}

// Results returns the admitted candidates sorted by distance ascending.
// Sentinels that were never displaced are omitted.
func (t *TopK) Results() []model.AnnCandidate {
	out := make([]model.AnnCandidate, 0, t.k)
	for _, c := range t.heap.Items() {
		if !c.IsSentinel() {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, model.AnnCandidate.Compare)
	return out
}

// Reset refills the collector with sentinels.
func (t *TopK) Reset() {
	t.heap.Reset()
	for i := 0; i < t.k; i++ {
		t.heap.Push(model.SentinelCandidate())
	}
}
