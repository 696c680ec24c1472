// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
)

// MutexTester tests gene sets for mutual exclusivity and
// co-occurrence of alterations in one matrix.
//
// Mutex p-value of a set: fraction of shuffles whose coverage is at
// least the observed coverage. Cooc p-value: fraction whose coverage is
// at most the observed coverage. Each member gene gets the analogous
// p-values of its sample hits, with the tails reversed: lower shuffled
// participation supports exclusivity.
type MutexTester struct {
	Matrix   *Matrix
	GeneSets GeneSets

	// Number of shuffles. Run time is proportional to this number.
	Iterations int
	// Trial swaps per edge per shuffle (0 means DefaultQ).
	Q int
	// Seed for the shufflers (0 means random).
	Seed uint64
	// Number of independent replicas shuffled concurrently.
	Threads int
}

// Test runs the protocol and returns the results. The tester's matrix
// is not modified.
func (t *MutexTester) Test(ctx context.Context) (*Results, error) {
	e := &engine{
		matrices:   []*Matrix{t.Matrix},
		sets:       t.GeneSets,
		iterations: t.Iterations,
		q:          t.Q,
		seed:       t.Seed,
		threads:    t.Threads,
		label:      "mutex",
	}
	_, tally, err := e.run(ctx)
	if err != nil {
		return nil, err
	}
	return newResults(e, tally), nil
}

// Run runs the protocol and writes the result table and member files
// to outDir.
func (t *MutexTester) Run(ctx context.Context, outDir string) (*Results, error) {
	res, err := t.Test(ctx)
	if err != nil {
		return nil, err
	}
	return res, res.WriteDir(outDir)
}
