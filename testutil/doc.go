// Package testutil provides testing utilities for the codec.
//
// This package is intended for use in tests and benchmarks only.
// It provides seeded data generators, float64 reference computations and
// exact search for recall checks.
//
// # Random Vector Generation
//
//	rng := testutil.NewRNG(seed)
//	vec := make([]float32, 128)
//	rng.FillUniformRange(vec, -1, 1)
//	rng.FillGaussian(vec)
//	codes := rng.Codes(128, 4)
//
// # Fixtures
//
//	testutil.SimpleVector(64)       // i%10/10
//	testutil.IncrementalVector(64)  // 0, 1, 2, ...
//
// # References
//
//	mse := testutil.MeanSquaredError(orig, recon)
//	ip := testutil.DotFloat64(query, codes)
//	gt := testutil.BruteForceSearch(vectors, query, k)
//	recall := testutil.ComputeRecall(gt, approx)
package testutil
