// Package model defines the search result type shared by the codec and the
// index that consumes it.
//
// AnnCandidate orders by Distance ascending. Callers normalize their metric
// so that smaller always means closer (see metric.Type.Distance), which lets
// one heap implementation serve both L2 and inner-product search.
//
//	best := model.SentinelCandidate() // {ID: 0, Distance: +Inf}
//	if c.Less(best) {
//		best = c
//	}
package model
