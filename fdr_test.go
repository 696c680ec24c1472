// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"gopkg.in/check.v1"
)

type fdrSuite struct{}

var _ = check.Suite(&fdrSuite{})

func (s *fdrSuite) TestSelectFDR(c *check.C) {
	for _, trial := range []struct {
		pvals map[string]float64
		fdr   float64
		out   []string
	}{
		{map[string]float64{"a": 0.01, "b": 0.02, "c": 0.03, "d": 0.5}, 0.1, []string{"a", "b", "c"}},
		{map[string]float64{"a": 0.04, "b": 0.01}, 0.05, []string{"b", "a"}},
		{map[string]float64{"y": 0.01, "x": 0.01}, 0.05, []string{"x", "y"}},
		// step-up: the smallest p fails its own threshold but is
		// selected along with larger ones
		{map[string]float64{"a": 0.03, "b": 0.03, "c": 0.03}, 0.05, []string{"a", "b", "c"}},
		{map[string]float64{"a": 0.3, "b": 0.6}, 0.1, []string{}},
		{map[string]float64{}, 0.1, []string{}},
	} {
		c.Check(SelectFDR(trial.pvals, trial.fdr), check.DeepEquals, trial.out, check.Commentf("%v", trial.pvals))
	}
}
