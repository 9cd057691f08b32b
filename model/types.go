package model

import (
	"cmp"
	"fmt"
	"math"
	"slices"
)

// AnnCandidate is a search result entry.
type AnnCandidate struct {
	ID       uint64
	Distance float32
}

// SentinelCandidate returns the worst possible candidate, used to initialize
// top-k heaps.
func SentinelCandidate() AnnCandidate {
	return AnnCandidate{ID: 0, Distance: float32(math.Inf(1))}
}

// IsSentinel reports whether c is still the heap-initialization placeholder.
func (c AnnCandidate) IsSentinel() bool {
	return math.IsInf(float64(c.Distance), 1)
}

// Less orders candidates by distance ascending.
func (c AnnCandidate) Less(other AnnCandidate) bool {
	return c.Distance < other.Distance
}

// Compare returns -1, 0 or +1 ordering by distance and then by ID, so that
// ties sort deterministically.
func (c AnnCandidate) Compare(other AnnCandidate) int {
	if r := cmp.Compare(c.Distance, other.Distance); r != 0 {
		return r
	}
	return cmp.Compare(c.ID, other.ID)
}

// String returns a string representation of the candidate.
func (c AnnCandidate) String() string {
	return fmt.Sprintf("Cand(%d:%g)", c.ID, c.Distance)
}

// SortCandidates sorts cs in place by Compare.
func SortCandidates(cs []AnnCandidate) {
	slices.SortFunc(cs, AnnCandidate.Compare)
}
