// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

// PatternType selects mutual exclusivity or co-occurrence.
type PatternType int

const (
	Mutex PatternType = iota
	Cooc
)

func ParsePatternType(s string) (PatternType, error) {
	switch s {
	case "mutex", "mutual-exclusivity":
		return Mutex, nil
	case "cooc", "co-occurrence":
		return Cooc, nil
	}
	return 0, fmt.Errorf("unknown pattern type %q (possible values: mutex, cooc)", s)
}

func (p PatternType) String() string {
	if p == Cooc {
		return "cooc"
	}
	return "mutex"
}

// pColumn returns the name of the p-value column for p in a
// single-matrix result table.
func (p PatternType) pColumn() string {
	if p == Cooc {
		return singleHeader[5]
	}
	return singleHeader[4]
}

// resultHits is a result table with each row's hit count (coverage +
// overlap) and selected p-value parsed.
type resultHits struct {
	*table
	hits  []int
	pvals []float64
}

func readResultHits(fnm string, pattern PatternType) (*resultHits, error) {
	t, err := readTable(fnm, true)
	if err != nil {
		return nil, err
	}
	covCol, err := t.column(singleHeader[2])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	ovCol, err := t.column(singleHeader[3])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	pCol, err := t.column(pattern.pColumn())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	rh := &resultHits{table: t}
	for i, row := range t.rows {
		cov, err1 := strconv.Atoi(row[covCol])
		ov, err2 := strconv.Atoi(row[ovCol])
		p, err3 := strconv.ParseFloat(row[pCol], 64)
		for _, err := range []error{err1, err2, err3} {
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %w", fnm, i+1, err)
			}
		}
		rh.hits = append(rh.hits, cov+ov)
		rh.pvals = append(rh.pvals, p)
	}
	return rh, nil
}

// ExploreSignificance reports, for each distinct hit-count threshold
// (descending), how many gene sets with at least that many hits pass
// each FDR cutoff, and finally the maximum count for each cutoff.
func ExploreSignificance(inFile string, out io.Writer, pattern PatternType, fdrs []float64) error {
	rh, err := readResultHits(inFile, pattern)
	if err != nil {
		return err
	}
	thrSet := map[int]bool{}
	for _, h := range rh.hits {
		thrSet[h] = true
	}
	var thrs []int
	for h := range thrSet {
		thrs = append(thrs, h)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(thrs)))

	bufw := bufio.NewWriter(out)
	fmt.Fprint(bufw, "Tested size\tHit thr")
	for _, fdr := range fdrs {
		fmt.Fprintf(bufw, "\tFDR=%s", formatP(fdr))
	}
	fmt.Fprintln(bufw)

	maximums := make([]int, len(fdrs))
	for _, thr := range thrs {
		pvals := map[string]float64{}
		for i, row := range rh.rows {
			if rh.hits[i] >= thr {
				pvals[row[0]] = rh.pvals[i]
			}
		}
		fmt.Fprintf(bufw, "%d\t%d", len(pvals), thr)
		for i, fdr := range fdrs {
			n := len(SelectFDR(pvals, fdr))
			fmt.Fprintf(bufw, "\t%d", n)
			if n > maximums[i] {
				maximums[i] = n
			}
		}
		fmt.Fprintln(bufw)
	}
	fmt.Fprint(bufw, "\nmaximums\t")
	for _, n := range maximums {
		fmt.Fprintf(bufw, "\t%d", n)
	}
	fmt.Fprintln(bufw)
	return bufw.Flush()
}

// FilterToTopHit writes the topX gene sets with the most hits
// (coverage + overlap), ordered ascending by the pattern's p-value,
// under the input's header.
func FilterToTopHit(inFile string, out io.Writer, pattern PatternType, topX int) error {
	rh, err := readResultHits(inFile, pattern)
	if err != nil {
		return err
	}
	order := make([]int, len(rh.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rh.hits[order[i]] > rh.hits[order[j]]
	})
	if topX >= 0 && len(order) > topX {
		order = order[:topX]
	}
	sort.SliceStable(order, func(i, j int) bool {
		return rh.pvals[order[i]] < rh.pvals[order[j]]
	})
	bufw := bufio.NewWriter(out)
	fmt.Fprintln(bufw, strings.Join(rh.header, "\t"))
	for _, i := range order {
		fmt.Fprintln(bufw, strings.Join(rh.rows[i], "\t"))
	}
	return bufw.Flush()
}
