// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"
)

// ResultsFilename is the name of the group result table in an output
// directory.
const ResultsFilename = "results.txt"

var (
	singleHeader = []string{"ID", "Genes size", "Coverage", "Overlap", "Mutex p-value", "Cooc p-value"}
	diffHeader   = []string{"ID", "Genes size", "Coverage Test", "Coverage Ctrl", "Overlap Test", "Overlap Ctrl", "Differential mutex p-value", "Differential cooc p-value"}
)

// GroupResult is the outcome of testing one gene set. Coverage and
// Overlap have one entry per matrix (test, then control in a paired
// test).
type GroupResult struct {
	ID       string
	Size     int
	Coverage []int
	Overlap  []int
	MutexP   float64
	CoocP    float64
}

// MemberResult holds per-member p-values of one gene set, parallel to
// Genes.
type MemberResult struct {
	Set    string
	Genes  []string
	MutexP []float64
	CoocP  []float64
}

// Results is the outcome of a tester run.
type Results struct {
	Iterations   int
	Differential bool
	// Groups is sorted ascending by MutexP; ties keep gene set order.
	Groups []GroupResult
	// Members is in gene set order.
	Members []MemberResult
}

func newResults(e *engine, t *tally) *Results {
	n := float64(e.iterations)
	res := &Results{
		Iterations:   e.iterations,
		Differential: len(e.matrices) > 1,
	}
	for i, set := range e.sets {
		gr := GroupResult{
			ID:     set.Name,
			Size:   len(set.Genes),
			MutexP: float64(t.mutex[i]) / n,
			CoocP:  float64(t.cooc[i]) / n,
		}
		for _, m := range e.matrices {
			gr.Coverage = append(gr.Coverage, m.CountCoverage(set.Genes))
			gr.Overlap = append(gr.Overlap, m.CountOverlap(set.Genes))
		}
		res.Groups = append(res.Groups, gr)

		mr := MemberResult{
			Set:    set.Name,
			Genes:  set.Genes,
			MutexP: make([]float64, len(set.Genes)),
			CoocP:  make([]float64, len(set.Genes)),
		}
		for g := range set.Genes {
			mr.MutexP[g] = float64(t.geneMutex[i][g]) / n
			mr.CoocP[g] = float64(t.geneCooc[i][g]) / n
		}
		res.Members = append(res.Members, mr)
	}
	sort.SliceStable(res.Groups, func(i, j int) bool {
		return res.Groups[i].MutexP < res.Groups[j].MutexP
	})
	return res
}

// Group returns the result for the named set.
func (res *Results) Group(id string) (GroupResult, bool) {
	for _, gr := range res.Groups {
		if gr.ID == id {
			return gr, true
		}
	}
	return GroupResult{}, false
}

// Member returns the per-member p-values for the named set.
func (res *Results) Member(set string) (MemberResult, bool) {
	for _, mr := range res.Members {
		if mr.Set == set {
			return mr, true
		}
	}
	return MemberResult{}, false
}

func formatP(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}

// WriteTable writes the group result table.
func (res *Results) WriteTable(w io.Writer) error {
	bufw := bufio.NewWriter(w)
	header := singleHeader
	if res.Differential {
		header = diffHeader
	}
	fmt.Fprintln(bufw, strings.Join(header, "\t"))
	for _, gr := range res.Groups {
		fields := []string{gr.ID, strconv.Itoa(gr.Size)}
		for _, c := range gr.Coverage {
			fields = append(fields, strconv.Itoa(c))
		}
		for _, o := range gr.Overlap {
			fields = append(fields, strconv.Itoa(o))
		}
		fields = append(fields, formatP(gr.MutexP), formatP(gr.CoocP))
		fmt.Fprintln(bufw, strings.Join(fields, "\t"))
	}
	return bufw.Flush()
}

// writeMemberFile writes "gene<TAB>p" lines sorted ascending by p,
// ties in gene order.
func writeMemberFile(fnm string, genes []string, pvals []float64) error {
	order := make([]int, len(genes))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return pvals[order[i]] < pvals[order[j]]
	})
	f, err := zcreate(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, i := range order {
		_, err = fmt.Fprintf(f, "%s\t%s\n", genes[i], formatP(pvals[i]))
		if err != nil {
			return fmt.Errorf("write %s: %w", fnm, err)
		}
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

// WriteMemberFiles writes <dir>/<set>-mutex.txt and
// <dir>/<set>-cooc.txt for every gene set.
func (res *Results) WriteMemberFiles(dir string) error {
	for _, mr := range res.Members {
		err := writeMemberFile(filepath.Join(dir, mr.Set+"-mutex.txt"), mr.Genes, mr.MutexP)
		if err != nil {
			return err
		}
		err = writeMemberFile(filepath.Join(dir, mr.Set+"-cooc.txt"), mr.Genes, mr.CoocP)
		if err != nil {
			return err
		}
	}
	return nil
}

// WriteDir creates dir if needed and writes the group table and all
// member files into it. Files written before an error are left in
// place.
func (res *Results) WriteDir(dir string) error {
	err := os.MkdirAll(dir, 0777)
	if err != nil {
		return err
	}
	fnm := filepath.Join(dir, ResultsFilename)
	log.Infof("writing %s", fnm)
	f, err := zcreate(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	err = res.WriteTable(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	log.Infof("writing %d member files to %s", 2*len(res.Members), dir)
	return res.WriteMemberFiles(dir)
}

// table is a tab-separated file with a header row.
type table struct {
	header []string
	rows   [][]string
}

func (t *table) column(name string) (int, error) {
	for i, h := range t.header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no column named %q in header %q", name, strings.Join(t.header, "\t"))
}

// readTable reads a tab-separated file. If header is false every line
// is a data row.
func readTable(fnm string, header bool) (*table, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t := &table{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if header && t.header == nil {
			t.header = fields
			continue
		}
		if header && len(fields) != len(t.header) {
			return nil, fmt.Errorf("%s line %d: wrong number of fields (%d != %d): %.40q", fnm, lineIdx, len(fields), len(t.header), line)
		}
		t.rows = append(t.rows, fields)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	if header && t.header == nil {
		return nil, fmt.Errorf("%s: no header row", fnm)
	}
	return t, nil
}

// readPvalues reads a two-column "name<TAB>p" file, returning the
// names in file order and the p-value of each.
func readPvalues(fnm string) ([]string, map[string]float64, error) {
	t, err := readTable(fnm, false)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, len(t.rows))
	pvals := make(map[string]float64, len(t.rows))
	for i, row := range t.rows {
		if len(row) < 2 {
			return nil, nil, fmt.Errorf("%s row %d: wrong number of fields (%d < 2)", fnm, i+1, len(row))
		}
		p, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s row %d: %w", fnm, i+1, err)
		}
		if _, dup := pvals[row[0]]; !dup {
			names = append(names, row[0])
		}
		pvals[row[0]] = p
	}
	return names, pvals, nil
}
