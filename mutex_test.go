// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
	"fmt"
	"io/ioutil"
	"math"
	"strings"

	"gopkg.in/check.v1"
)

type mutexSuite struct{}

var _ = check.Suite(&mutexSuite{})

func sampleRange(from, to int) []int {
	var idx []int
	for i := from; i < to; i++ {
		idx = append(idx, i)
	}
	return idx
}

// backgroundMatrix returns a matrix with S samples and nbg background
// genes BG00, BG01, ... of 10 alterations each, spread so that every
// sample has some, plus the given extra genes.
func backgroundMatrix(c *check.C, S, nbg int, extra map[string][]int) *Matrix {
	rows := map[string][]bool{}
	for k := 0; k < nbg; k++ {
		row := make([]bool, S)
		for j := 0; j < 10; j++ {
			row[(k*7+j*3)%S] = true
		}
		rows[fmt.Sprintf("BG%02d", k)] = row
	}
	for gene, idx := range extra {
		row := make([]bool, S)
		for _, s := range idx {
			row[s] = true
		}
		rows[gene] = row
	}
	m, err := NewMatrix(sampleNames(S), rows)
	c.Assert(err, check.IsNil)
	return m
}

func exclusiveMatrix(c *check.C) *Matrix {
	return backgroundMatrix(c, 40, 20, map[string][]int{
		"A": sampleRange(0, 15),
		"B": sampleRange(15, 30),
	})
}

func cooccurringMatrix(c *check.C) *Matrix {
	return backgroundMatrix(c, 40, 20, map[string][]int{
		"A": sampleRange(0, 15),
		"B": sampleRange(0, 15),
	})
}

var abSets = GeneSets{
	{Name: "AB", Genes: []string{"A", "B"}},
	{Name: "BG", Genes: []string{"BG00", "BG01", "BG02"}},
}

func checkPvalues(c *check.C, res *Results) {
	N := float64(res.Iterations)
	checkP := func(p float64) {
		c.Check(p >= 0 && p <= 1, check.Equals, true, check.Commentf("p=%v", p))
		c.Check(math.Abs(p*N-math.Round(p*N)) < 1e-9, check.Equals, true, check.Commentf("p=%v N=%v", p, N))
	}
	for i, gr := range res.Groups {
		checkP(gr.MutexP)
		checkP(gr.CoocP)
		if i > 0 {
			c.Check(gr.MutexP >= res.Groups[i-1].MutexP, check.Equals, true)
		}
	}
	for _, mr := range res.Members {
		c.Check(mr.MutexP, check.HasLen, len(mr.Genes))
		for g := range mr.Genes {
			checkP(mr.MutexP[g])
			checkP(mr.CoocP[g])
		}
	}
}

func (s *mutexSuite) runTester(c *check.C, m *Matrix, sets GeneSets, seed uint64, threads int) *Results {
	t := &MutexTester{
		Matrix:     m,
		GeneSets:   sets,
		Iterations: 200,
		Q:          20,
		Seed:       seed,
		Threads:    threads,
	}
	res, err := t.Test(context.Background())
	c.Assert(err, check.IsNil)
	checkPvalues(c, res)
	return res
}

func (s *mutexSuite) TestExclusive(c *check.C) {
	m := exclusiveMatrix(c)
	before := matrixText(c, m)
	res := s.runTester(c, m, abSets, 42, 1)
	c.Check(matrixText(c, m), check.Equals, before)

	gr, ok := res.Group("AB")
	c.Assert(ok, check.Equals, true)
	c.Logf("%+v", gr)
	c.Check(gr.Size, check.Equals, 2)
	c.Check(gr.Coverage, check.DeepEquals, []int{30})
	c.Check(gr.Overlap, check.DeepEquals, []int{0})
	c.Check(gr.MutexP < 0.05, check.Equals, true)
	c.Check(gr.CoocP > 0.5, check.Equals, true)

	mr, ok := res.Member("AB")
	c.Assert(ok, check.Equals, true)
	c.Check(mr.Genes, check.DeepEquals, []string{"A", "B"})
	c.Check(mr.MutexP[0] < 0.05, check.Equals, true)
	c.Check(mr.CoocP[0], check.Equals, 1.0)
}

func (s *mutexSuite) TestCooccurring(c *check.C) {
	res := s.runTester(c, cooccurringMatrix(c), abSets, 42, 1)
	gr, ok := res.Group("AB")
	c.Assert(ok, check.Equals, true)
	c.Logf("%+v", gr)
	c.Check(gr.Coverage, check.DeepEquals, []int{15})
	c.Check(gr.Overlap, check.DeepEquals, []int{15})
	c.Check(gr.CoocP < 0.05, check.Equals, true)
	c.Check(gr.MutexP, check.Equals, 1.0)

	mr, _ := res.Member("AB")
	c.Check(mr.CoocP[0] < 0.05, check.Equals, true)
	c.Check(mr.MutexP[0], check.Equals, 1.0)
}

func (s *mutexSuite) TestIndependent(c *check.C) {
	m := backgroundMatrix(c, 40, 20, map[string][]int{
		"A": sampleRange(0, 15),
		"B": sampleRange(10, 25),
	})
	res := s.runTester(c, m, abSets, 42, 1)
	gr, _ := res.Group("AB")
	c.Logf("%+v", gr)
	c.Check(gr.MutexP > 0.05, check.Equals, true)
	c.Check(gr.CoocP > 0.05, check.Equals, true)
}

// With only two genes every column degree is fixed, so no accepted
// swap can change coverage and both tails always meet.
func (s *mutexSuite) TestTinyMatrices(c *check.C) {
	for _, trial := range []struct {
		rows     map[string]string
		coverage int
		overlap  int
	}{
		{map[string]string{"A": "1100", "B": "0011"}, 4, 0},
		{map[string]string{"A": "1100", "B": "1100"}, 2, 2},
	} {
		res := s.runTester(c, testMatrix(c, trial.rows), abSets[:1], 1, 1)
		c.Assert(res.Groups, check.HasLen, 1)
		gr := res.Groups[0]
		c.Check(gr.Coverage, check.DeepEquals, []int{trial.coverage})
		c.Check(gr.Overlap, check.DeepEquals, []int{trial.overlap})
		c.Check(gr.MutexP, check.Equals, 1.0)
		c.Check(gr.CoocP, check.Equals, 1.0)
	}
}

func (s *mutexSuite) TestUnalteredMember(c *check.C) {
	m := backgroundMatrix(c, 40, 20, map[string][]int{
		"A": sampleRange(0, 15),
		"Z": nil,
	})
	res := s.runTester(c, m, GeneSets{{Name: "AZ", Genes: []string{"A", "Z"}}}, 5, 1)
	mr, ok := res.Member("AZ")
	c.Assert(ok, check.Equals, true)
	c.Check(mr.Genes[1], check.Equals, "Z")
	c.Check(mr.MutexP[1], check.Equals, 1.0)
	c.Check(mr.CoocP[1], check.Equals, 1.0)
}

func (s *mutexSuite) TestDeterminism(c *check.C) {
	for _, threads := range []int{1, 2, 3} {
		var out []string
		for i := 0; i < 2; i++ {
			dir := c.MkDir()
			t := &MutexTester{
				Matrix:     exclusiveMatrix(c),
				GeneSets:   abSets,
				Iterations: 50,
				Q:          5,
				Seed:       99,
				Threads:    threads,
			}
			_, err := t.Run(context.Background(), dir)
			c.Assert(err, check.IsNil)
			var buf strings.Builder
			for _, fnm := range []string{ResultsFilename, "AB-mutex.txt", "AB-cooc.txt", "BG-mutex.txt", "BG-cooc.txt"} {
				data, err := ioutil.ReadFile(dir + "/" + fnm)
				c.Assert(err, check.IsNil)
				buf.Write(data)
			}
			out = append(out, buf.String())
		}
		c.Check(out[0], check.Equals, out[1], check.Commentf("threads=%d", threads))
	}
}

func (s *mutexSuite) TestRunOutput(c *check.C) {
	dir := c.MkDir() + "/out"
	t := &MutexTester{
		Matrix:     exclusiveMatrix(c),
		GeneSets:   abSets,
		Iterations: 20,
		Q:          2,
		Seed:       1,
	}
	res, err := t.Run(context.Background(), dir)
	c.Assert(err, check.IsNil)
	c.Check(res.Groups, check.HasLen, 2)

	data, err := ioutil.ReadFile(dir + "/" + ResultsFilename)
	c.Assert(err, check.IsNil)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	c.Assert(lines, check.HasLen, 3)
	c.Check(lines[0], check.Equals, "ID\tGenes size\tCoverage\tOverlap\tMutex p-value\tCooc p-value")
	c.Check(string(data), check.Matches, `(?ms).*^AB\t2\t30\t0\t[0-9.e-]+\t[0-9.e-]+$.*`)

	data, err = ioutil.ReadFile(dir + "/BG-mutex.txt")
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Matches, `(BG0[0-2]\t[0-9.e-]+\n){3}`)
	names, pvals, err := readPvalues(dir + "/BG-cooc.txt")
	c.Assert(err, check.IsNil)
	c.Check(names, check.HasLen, 3)
	for i := 1; i < len(names); i++ {
		c.Check(pvals[names[i]] >= pvals[names[i-1]], check.Equals, true)
	}
}

func (s *mutexSuite) TestNoGeneSets(c *check.C) {
	dir := c.MkDir()
	t := &MutexTester{Matrix: exclusiveMatrix(c), Iterations: 3}
	res, err := t.Run(context.Background(), dir)
	c.Assert(err, check.IsNil)
	c.Check(res.Groups, check.HasLen, 0)
	data, err := ioutil.ReadFile(dir + "/" + ResultsFilename)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, strings.Join(singleHeader, "\t")+"\n")
}

func (s *mutexSuite) TestErrors(c *check.C) {
	t := &MutexTester{Matrix: exclusiveMatrix(c), GeneSets: abSets, Iterations: 0}
	_, err := t.Test(context.Background())
	c.Check(err, check.ErrorMatches, "number of iterations must be at least 1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	t.Iterations = 10
	dir := c.MkDir() + "/out"
	_, err = t.Run(ctx, dir)
	c.Check(err, check.Equals, context.Canceled)
	_, err = ioutil.ReadDir(dir)
	c.Check(err, check.NotNil)
}
