// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"gonum.org/v1/gonum/stat/distuv"
)

// uniformityPvalue returns the p-value of a chi-square goodness-of-fit
// test of the observed counts against equal expected counts. A small
// value means the counts are unevenly spread, e.g. a few samples
// carry most of the alterations.
func uniformityPvalue(counts []int) float64 {
	if len(counts) < 2 {
		return 1
	}
	var total float64
	for _, c := range counts {
		total += float64(c)
	}
	if total == 0 {
		return 1
	}
	exp := total / float64(len(counts))
	var sum float64
	for _, c := range counts {
		d := float64(c) - exp
		sum += d * d / exp
	}
	return distuv.ChiSquared{K: float64(len(counts) - 1)}.Survival(sum)
}
