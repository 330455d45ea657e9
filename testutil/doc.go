// Package testutil provides testing utilities for dehnvol.
//
// This package is intended for use in tests only. It generates seeded
// volume data with controlled coincidences, computes volume groups by brute
// force and compares groupings.
//
// # Random Volumes
//
//	rng := testutil.NewRNG(seed)
//	samples := rng.ClusteredSamples(slopes, 5, 1e-12)
//	table := rng.VolumeTable("m004", 8, 5, 1e-12)
//
// # Ground Truth
//
//	want := testutil.BruteForceGroups(samples, tol)
//
// # Agreement
//
//	agreement := testutil.ComputeAgreement(want, testutil.Members(groups))
package testutil
