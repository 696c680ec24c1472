// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"fmt"
	"io"
	"io/ioutil"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// FindSignificantMembers reads every member file in dir whose name
// ends with suffix, selects members at the given FDR, and writes
// "<set><TAB>[g1, g2, ...]" for each set with a non-empty selection,
// sorted by set name.
func FindSignificantMembers(dir, suffix string, fdr float64, out io.Writer) error {
	fis, err := ioutil.ReadDir(dir)
	if err != nil {
		return err
	}
	bufw := bufio.NewWriter(out)
	for _, fi := range fis {
		if fi.IsDir() || !strings.HasSuffix(fi.Name(), suffix) {
			continue
		}
		_, pvals, err := readPvalues(filepath.Join(dir, fi.Name()))
		if err != nil {
			return err
		}
		selected := SelectFDR(pvals, fdr)
		if len(selected) == 0 {
			continue
		}
		fmt.Fprintf(bufw, "%s\t[%s]\n", strings.TrimSuffix(fi.Name(), suffix), strings.Join(selected, ", "))
	}
	return bufw.Flush()
}

// AnnotateSetMembers reads a member file of one gene set and writes a
// table describing each member in the context of the set: its rank
// in the ranked gene list (if given), mutation count, total overlap
// with the other members, p-value, and the non-zero overlaps with
// specific members.
func AnnotateSetMembers(inFile string, m *Matrix, ranked RankedGeneList, out io.Writer) error {
	genes, pvals, err := readPvalues(inFile)
	if err != nil {
		return err
	}
	if !m.HasAllGenes(genes) {
		var missing []string
		for _, g := range genes {
			if !m.HasGene(g) {
				missing = append(missing, g)
			}
		}
		return fmt.Errorf("%s: genes missing from the matrix (result cannot come from this matrix): %v", inFile, missing)
	}
	pairwise := m.CountOverlapPairwise(genes)
	coverage := m.IndividualCoverage(genes)

	bufw := bufio.NewWriter(out)
	fmt.Fprintln(bufw, "Rank\tGene\tMut#\tOv\tP-val\tSpecific overlaps")
	for _, gene := range genes {
		rank := ""
		if ranked != nil {
			if s, ok := ranked.Score(gene); ok {
				rank = strconv.Itoa(s)
			}
		}
		total := 0
		var others []string
		for g2, n := range pairwise[gene] {
			total += n
			if n > 0 {
				others = append(others, g2)
			}
		}
		sort.Slice(others, func(i, j int) bool {
			ni, nj := pairwise[gene][others[i]], pairwise[gene][others[j]]
			if ni != nj {
				return ni > nj
			}
			return others[i] < others[j]
		})
		for i, g2 := range others {
			others[i] = fmt.Sprintf("%s=%d", g2, pairwise[gene][g2])
		}
		fmt.Fprintf(bufw, "%s\t%s\t%d\t%d\t%s\t%s\n", rank, gene, coverage[gene], total, formatP(pvals[gene]), strings.Join(others, " "))
	}
	return bufw.Flush()
}
