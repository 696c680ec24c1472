// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Edge is one true cell of an alteration matrix, seen as an edge of
// the bipartite gene-sample graph.
type Edge struct {
	Gene   string
	Sample int

	row int // index into Matrix.rows
}

// Matrix is a binary gene × sample alteration matrix. It keeps two
// views of the same data: one bit row per gene, and (once requested)
// an edge list with one entry per true cell. Only a Shuffler may
// mutate a Matrix; everyone else treats both views as read-only.
type Matrix struct {
	samples []string
	genes   []string // sorted
	index   map[string]int
	rows    []bitRow
	edges   []Edge
}

// NewMatrix returns a matrix with the given sample names and rows.
// Every row must have one value per sample.
func NewMatrix(samples []string, rows map[string][]bool) (*Matrix, error) {
	m := newEmptyMatrix(samples, len(rows))
	for gene := range rows {
		m.genes = append(m.genes, gene)
	}
	sort.Strings(m.genes)
	for i, gene := range m.genes {
		vals := rows[gene]
		if len(vals) != len(samples) {
			return nil, fmt.Errorf("row %q has %d values, expected %d", gene, len(vals), len(samples))
		}
		row := newBitRow(len(samples))
		for s, v := range vals {
			if v {
				row.set(s)
			}
		}
		m.index[gene] = i
		m.rows = append(m.rows, row)
	}
	return m, nil
}

func newEmptyMatrix(samples []string, ngenes int) *Matrix {
	return &Matrix{
		samples: append([]string(nil), samples...),
		genes:   make([]string, 0, ngenes),
		index:   make(map[string]int, ngenes),
		rows:    make([]bitRow, 0, ngenes),
	}
}

// ReadMatrix parses the tab-separated matrix format: a header row
// whose first field is ignored and whose remaining fields are sample
// names, then one row per gene with one cell per sample. A cell is
// true if it is neither empty nor "0".
func ReadMatrix(r io.Reader) (*Matrix, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<20), 1<<30)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, err
		}
		return nil, errors.New("empty matrix file: no header row")
	}
	header := strings.Split(strings.TrimSuffix(scanner.Text(), "\r"), "\t")
	samples := header[1:]
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		if seen[s] {
			return nil, fmt.Errorf("line 1: duplicate sample name %q", s)
		}
		seen[s] = true
	}

	rows := map[string]bitRow{}
	for lineIdx := 2; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) != len(samples)+1 {
			return nil, fmt.Errorf("line %d: wrong number of fields (%d != %d): %.40q", lineIdx, len(fields), len(samples)+1, line)
		}
		gene := fields[0]
		if _, dup := rows[gene]; dup {
			return nil, fmt.Errorf("line %d: duplicate gene %q", lineIdx, gene)
		}
		row := newBitRow(len(samples))
		for s, cell := range fields[1:] {
			if cell != "" && cell != "0" {
				row.set(s)
			}
		}
		rows[gene] = row
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	m := newEmptyMatrix(samples, len(rows))
	for gene := range rows {
		m.genes = append(m.genes, gene)
	}
	sort.Strings(m.genes)
	for i, gene := range m.genes {
		m.index[gene] = i
		m.rows = append(m.rows, rows[gene])
	}
	return m, nil
}

// LoadMatrix reads a matrix file, decompressing it if the name ends
// in ".gz".
func LoadMatrix(fnm string) (*Matrix, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	m, err := ReadMatrix(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	log.Infof("loaded matrix %s: %d genes, %d samples", fnm, len(m.genes), len(m.samples))
	return m, nil
}

// WriteTo writes the matrix in the format read by ReadMatrix, with
// cells "1" and "0" and genes in sorted order.
func (m *Matrix) WriteTo(w io.Writer) (int64, error) {
	bufw := bufio.NewWriter(w)
	var n int64
	c, err := fmt.Fprintf(bufw, "\t%s\n", strings.Join(m.samples, "\t"))
	n += int64(c)
	if err != nil {
		return n, err
	}
	cells := make([]byte, 2*len(m.samples))
	for i, gene := range m.genes {
		row := m.rows[i]
		for s := range m.samples {
			cells[2*s] = '\t'
			if row.get(s) {
				cells[2*s+1] = '1'
			} else {
				cells[2*s+1] = '0'
			}
		}
		c, err = bufw.WriteString(gene)
		n += int64(c)
		if err != nil {
			return n, err
		}
		c, err = bufw.Write(cells)
		n += int64(c)
		if err != nil {
			return n, err
		}
		err = bufw.WriteByte('\n')
		if err != nil {
			return n, err
		}
		n++
	}
	return n, bufw.Flush()
}

// WriteFile writes the matrix to the named file, compressing it if the
// name ends in ".gz".
func (m *Matrix) WriteFile(fnm string) error {
	f, err := zcreate(fnm)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = m.WriteTo(f)
	if err != nil {
		return fmt.Errorf("write %s: %w", fnm, err)
	}
	err = f.Close()
	if err != nil {
		return fmt.Errorf("close %s: %w", fnm, err)
	}
	return nil
}

// Copy returns an independent copy of m. Shuffling the copy does not
// affect m. The edge view is not carried over; the copy builds its
// own on demand.
func (m *Matrix) Copy() *Matrix {
	c := &Matrix{
		samples: append([]string(nil), m.samples...),
		genes:   append([]string(nil), m.genes...),
		index:   make(map[string]int, len(m.index)),
		rows:    make([]bitRow, len(m.rows)),
	}
	for gene, i := range m.index {
		c.index[gene] = i
	}
	for i, row := range m.rows {
		c.rows[i] = row.clone()
	}
	return c
}

// Samples returns the sample names in column order.
func (m *Matrix) Samples() []string {
	return append([]string(nil), m.samples...)
}

// NumSamples returns the number of columns.
func (m *Matrix) NumSamples() int { return len(m.samples) }

// Genes returns the row keys in sorted order. The returned slice is
// shared with m and must not be modified.
func (m *Matrix) Genes() []string { return m.genes }

func (m *Matrix) HasGene(gene string) bool {
	_, ok := m.index[gene]
	return ok
}

func (m *Matrix) HasAllGenes(genes []string) bool {
	for _, gene := range genes {
		if !m.HasGene(gene) {
			return false
		}
	}
	return true
}

// Row returns a copy of the given gene's row, or nil if the gene is
// not in the matrix.
func (m *Matrix) Row(gene string) []bool {
	i, ok := m.index[gene]
	if !ok {
		return nil
	}
	out := make([]bool, len(m.samples))
	for s := range out {
		out[s] = m.rows[i].get(s)
	}
	return out
}

// MutationCount returns the number of samples in which the gene is
// altered (0 if the gene is not in the matrix).
func (m *Matrix) MutationCount(gene string) int {
	i, ok := m.index[gene]
	if !ok {
		return 0
	}
	return m.rows[i].count()
}

// IndividualCoverage returns the mutation count of each given gene.
func (m *Matrix) IndividualCoverage(genes []string) map[string]int {
	cov := make(map[string]int, len(genes))
	for _, gene := range genes {
		cov[gene] = m.MutationCount(gene)
	}
	return cov
}

// sampleHits returns, for each sample, the number of the given genes
// altered in that sample. Genes not in the matrix are ignored.
func (m *Matrix) sampleHits(genes []string) []int {
	hits := make([]int, len(m.samples))
	var idx []int
	for _, gene := range genes {
		i, ok := m.index[gene]
		if !ok {
			continue
		}
		idx = m.rows[i].indices(idx[:0])
		for _, s := range idx {
			hits[s]++
		}
	}
	return hits
}

// CountCoverage returns the number of samples in which at least one
// of the given genes is altered.
func (m *Matrix) CountCoverage(genes []string) int {
	cov := 0
	for _, k := range m.sampleHits(genes) {
		if k > 0 {
			cov++
		}
	}
	return cov
}

// CountOverlap returns the number of extra hits per sample, summed
// over samples: a sample hit by k of the given genes contributes k-1.
func (m *Matrix) CountOverlap(genes []string) int {
	ov := 0
	for _, k := range m.sampleHits(genes) {
		if k > 1 {
			ov += k - 1
		}
	}
	return ov
}

// CountPairOverlap returns the number of samples in which both genes
// are altered.
func (m *Matrix) CountPairOverlap(gene1, gene2 string) int {
	i1, ok1 := m.index[gene1]
	i2, ok2 := m.index[gene2]
	if !ok1 || !ok2 {
		return 0
	}
	return m.rows[i1].andCount(m.rows[i2])
}

// CountOverlapPairwise returns, for each given gene, its pair overlap
// with each other given gene.
func (m *Matrix) CountOverlapPairwise(genes []string) map[string]map[string]int {
	ret := make(map[string]map[string]int, len(genes))
	for _, g1 := range genes {
		ret[g1] = make(map[string]int, len(genes)-1)
		for _, g2 := range genes {
			if g1 != g2 {
				ret[g1][g2] = m.CountPairOverlap(g1, g2)
			}
		}
	}
	return ret
}

// GeneToIndices returns, for every gene, the sample indices where it
// is altered, built from the edge view. Genes with no alterations map
// to an empty slice.
func (m *Matrix) GeneToIndices() map[string][]int {
	ret := make(map[string][]int, len(m.genes))
	for _, gene := range m.genes {
		ret[gene] = []int{}
	}
	for _, e := range m.Edges() {
		ret[e.Gene] = append(ret[e.Gene], e.Sample)
	}
	for _, inds := range ret {
		sort.Ints(inds)
	}
	return ret
}

// Edges returns the edge view, building it on first use by walking
// the rows in gene order. The returned slice is owned by m and is
// rearranged in place by Shuffle; callers must not modify it.
func (m *Matrix) Edges() []Edge {
	if m.edges == nil {
		m.edges = m.generateEdges()
	}
	return m.edges
}

func (m *Matrix) generateEdges() []Edge {
	n := 0
	for _, row := range m.rows {
		n += row.count()
	}
	edges := make([]Edge, 0, n)
	var idx []int
	for i, row := range m.rows {
		idx = row.indices(idx[:0])
		for _, s := range idx {
			edges = append(edges, Edge{Gene: m.genes[i], Sample: s, row: i})
		}
	}
	return edges
}

// GeneDegrees returns each gene's mutation count, in Genes() order.
func (m *Matrix) GeneDegrees() []int {
	deg := make([]int, len(m.rows))
	for i, row := range m.rows {
		deg[i] = row.count()
	}
	return deg
}

// SampleDegrees returns the number of altered genes in each sample.
func (m *Matrix) SampleDegrees() []int {
	deg := make([]int, len(m.samples))
	var idx []int
	for _, row := range m.rows {
		idx = row.indices(idx[:0])
		for _, s := range idx {
			deg[s]++
		}
	}
	return deg
}

// swap applies one edge-swap proposal to edges i and j: (g1,s1),
// (g2,s2) become (g1,s2), (g2,s1). It reports whether the swap was
// accepted; proposals that would duplicate an existing edge
// (including any pair sharing a gene or a sample) are rejected and
// leave m unchanged. Both views are updated together.
func (m *Matrix) swap(i, j int) bool {
	e1, e2 := &m.edges[i], &m.edges[j]
	r1, r2 := m.rows[e1.row], m.rows[e2.row]
	if r1.get(e2.Sample) || r2.get(e1.Sample) {
		return false
	}
	r1.flip(e1.Sample)
	r1.flip(e2.Sample)
	r2.flip(e1.Sample)
	r2.flip(e2.Sample)
	e1.Sample, e2.Sample = e2.Sample, e1.Sample
	return true
}
