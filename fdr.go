// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import "sort"

// SelectFDR returns the names selected by the Benjamini-Hochberg
// procedure at the given false discovery rate, ordered by p-value,
// ties by name.
func SelectFDR(pvals map[string]float64, fdr float64) []string {
	names := make([]string, 0, len(pvals))
	for name := range pvals {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		pi, pj := pvals[names[i]], pvals[names[j]]
		if pi != pj {
			return pi < pj
		}
		return names[i] < names[j]
	})
	m := float64(len(names))
	k := 0
	for i, name := range names {
		if pvals[name] <= float64(i+1)*fdr/m {
			k = i + 1
		}
	}
	return names[:k]
}
