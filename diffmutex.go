// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
)

// DifferentialMutexTester tests whether gene sets are more mutually
// exclusive (or co-occurring) in a test matrix than in a control
// matrix. The statistic is the coverage in the test matrix minus the
// coverage in the control matrix; both matrices are shuffled once per
// iteration.
type DifferentialMutexTester struct {
	TestMatrix *Matrix
	CtrlMatrix *Matrix
	GeneSets   GeneSets

	Iterations int
	Q          int
	Seed       uint64
	Threads    int
}

func (t *DifferentialMutexTester) Test(ctx context.Context) (*Results, error) {
	e := &engine{
		matrices:   []*Matrix{t.TestMatrix, t.CtrlMatrix},
		sets:       t.GeneSets,
		iterations: t.Iterations,
		q:          t.Q,
		seed:       t.Seed,
		threads:    t.Threads,
		label:      "differential mutex",
	}
	_, tally, err := e.run(ctx)
	if err != nil {
		return nil, err
	}
	return newResults(e, tally), nil
}

func (t *DifferentialMutexTester) Run(ctx context.Context, outDir string) (*Results, error) {
	res, err := t.Test(ctx)
	if err != nil {
		return nil, err
	}
	return res, res.WriteDir(outDir)
}
