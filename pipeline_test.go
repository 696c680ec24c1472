// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"gopkg.in/check.v1"
)

type pipelineSuite struct{}

var _ = check.Suite(&pipelineSuite{})

// writeEvents writes the edges of m as a denovo-db style event file,
// with an extra control event that the phenotype filter drops.
func writeEvents(c *check.C, m *Matrix, fnm string) {
	var buf bytes.Buffer
	fmt.Fprintln(&buf, "## test events")
	fmt.Fprintln(&buf, "#SampleID\tPrimaryPhenotype\tGene")
	for _, e := range m.Edges() {
		fmt.Fprintf(&buf, "%s\tautism\t%s\n", m.Samples()[e.Sample], e.Gene)
	}
	fmt.Fprintln(&buf, "ctrl1\tcontrol\tA")
	err := ioutil.WriteFile(fnm, buf.Bytes(), 0644)
	c.Assert(err, check.IsNil)
}

func (s *pipelineSuite) TestPipeline(c *check.C) {
	tmpdir := c.MkDir()
	writeEvents(c, exclusiveMatrix(c), tmpdir+"/events.tsv")
	err := ioutil.WriteFile(tmpdir+"/sets.txt", []byte("AB\tA B\nBG\tBG00 BG01 BG02\nsolo\tA\n"), 0644)
	c.Assert(err, check.IsNil)

	code := (&generateMatrix{}).RunCommand("mutexdenovo generate-matrix", []string{"-events", tmpdir + "/events.tsv", "-phenotype", "autism", "-o", tmpdir + "/matrix.txt.gz"}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	m, err := LoadMatrix(tmpdir + "/matrix.txt.gz")
	c.Assert(err, check.IsNil)
	c.Check(m.NumSamples(), check.Equals, 40)
	c.Check(m.HasGene("A"), check.Equals, true)
	c.Check(m.MutationCount("A"), check.Equals, 15)

	code = (&calculate{}).RunCommand("mutexdenovo calculate", []string{
		"-matrix", tmpdir + "/matrix.txt.gz",
		"-gene-sets", tmpdir + "/sets.txt",
		"-output-dir", tmpdir + "/out",
		"-iterations", "40",
		"-q", "5",
		"-seed", "1",
		"-threads", "2",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	results, err := ioutil.ReadFile(tmpdir + "/out/results.txt")
	c.Assert(err, check.IsNil)
	c.Logf("%s", results)
	c.Check(strings.Count(string(results), "\n"), check.Equals, 3)
	_, err = os.Stat(tmpdir + "/out/solo-mutex.txt")
	c.Check(os.IsNotExist(err), check.Equals, true)

	var stdout bytes.Buffer
	code = (&exploreSignificance{}).RunCommand("mutexdenovo explore-significance", []string{"-i", tmpdir + "/out/results.txt", "-fdr", "0.1, 0.5"}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Check(code, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `(?ms)Tested size\tHit thr\tFDR=0.1\tFDR=0.5\n.*maximums\t\t\d+\t\d+\n`)

	code = (&filterTopHit{}).RunCommand("mutexdenovo filter-results-to-most-hit", []string{"-i", tmpdir + "/out/results.txt", "-o", tmpdir + "/top.txt", "-pattern", "cooc", "-top", "1"}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Check(code, check.Equals, 0)
	top, err := ioutil.ReadFile(tmpdir + "/top.txt")
	c.Assert(err, check.IsNil)
	c.Check(strings.Count(string(top), "\n"), check.Equals, 2)

	stdout.Reset()
	code = (&findMembers{}).RunCommand("mutexdenovo find-significant-members", []string{"-dir", tmpdir + "/out", "-fdr", "1"}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Check(code, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `(?ms)(AB\t\[A, B\]\n|AB\t\[B, A\]\n)?BG\t\[.*\]\n`)

	stdout.Reset()
	code = (&annotateMembers{}).RunCommand("mutexdenovo annotate-set-members", []string{"-i", tmpdir + "/out/AB-mutex.txt", "-matrix", tmpdir + "/matrix.txt.gz"}, &bytes.Buffer{}, &stdout, os.Stderr)
	c.Check(code, check.Equals, 0)
	c.Check(stdout.String(), check.Matches, `Rank\tGene\tMut#\tOv\tP-val\tSpecific overlaps\n(\t[AB]\t15\t0\t[0-9.e-]+\t\n){2}`)

	code = (&calculateDifferential{}).RunCommand("mutexdenovo calculate-differential", []string{
		"-test-matrix", tmpdir + "/matrix.txt.gz",
		"-ctrl-matrix", tmpdir + "/matrix.txt.gz",
		"-gene-sets", tmpdir + "/sets.txt",
		"-output-dir", tmpdir + "/diff",
		"-iterations", "10",
		"-q", "2",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	results, err = ioutil.ReadFile(tmpdir + "/diff/results.txt")
	c.Assert(err, check.IsNil)
	c.Check(string(results), check.Matches, `(?ms)ID\tGenes size\tCoverage Test\tCoverage Ctrl\t.*^AB\t2\t30\t30\t0\t0\t.*`)
}

func (s *pipelineSuite) TestPathways(c *check.C) {
	tmpdir := c.MkDir()
	c.Assert(exclusiveMatrix(c).WriteFile(tmpdir+"/matrix.txt"), check.IsNil)
	err := ioutil.WriteFile(tmpdir+"/pathways.gmt", []byte(
		"http://identifiers.org/reactome/R-HSA-1\tAlpha\tA\tB\tNOTINMATRIX\n"+
			"http://identifiers.org/reactome/R-HSA-2\tBeta\tBG00\tBG03\n"), 0644)
	c.Assert(err, check.IsNil)
	err = ioutil.WriteFile(tmpdir+"/sfari.tsv", []byte("gene-symbol\tgene-score\nA\t1\nB\t2\nBG05\t3\n"), 0644)
	c.Assert(err, check.IsNil)

	code := (&calculate{}).RunCommand("mutexdenovo calculate", []string{
		"-matrix", tmpdir + "/matrix.txt",
		"-gene-sets", "Reactome",
		"-pathways", tmpdir + "/pathways.gmt",
		"-output-dir", tmpdir + "/reactome",
		"-iterations", "10",
		"-q", "2",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	named, err := ioutil.ReadFile(tmpdir + "/reactome/results-with-names.txt")
	c.Assert(err, check.IsNil)
	c.Check(string(named), check.Matches, `(?ms)ID\tName\tGenes size\t.*`)
	c.Check(string(named), check.Matches, `(?ms).*^R-HSA-1\tAlpha\t2\t.*`)
	c.Check(string(named), check.Matches, `(?ms).*^R-HSA-2\tBeta\t2\t.*`)

	code = (&addNames{}).RunCommand("mutexdenovo add-names", []string{
		"-i", tmpdir + "/reactome/results.txt",
		"-o", tmpdir + "/named.txt",
		"-pathways", tmpdir + "/pathways.gmt",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	named2, err := ioutil.ReadFile(tmpdir + "/named.txt")
	c.Assert(err, check.IsNil)
	c.Check(string(named2), check.Equals, string(named))

	code = (&calculate{}).RunCommand("mutexdenovo calculate", []string{
		"-matrix", tmpdir + "/matrix.txt",
		"-gene-sets", "SFARI",
		"-ranked-genes", tmpdir + "/sfari.tsv",
		"-output-dir", tmpdir + "/sfari",
		"-iterations", "10",
		"-q", "2",
	}, &bytes.Buffer{}, os.Stderr, os.Stderr)
	c.Assert(code, check.Equals, 0)
	results, err := ioutil.ReadFile(tmpdir + "/sfari/results.txt")
	c.Assert(err, check.IsNil)
	// SFARI-1-to-1 has one gene; 1-to-2 is {A,B}; 1-to-3 adds BG05;
	// the rest duplicate 1-to-3
	c.Check(strings.Count(string(results), "\n"), check.Equals, 3)
	c.Check(string(results), check.Matches, `(?ms).*^SFARI-1-to-2\t2\t30\t0\t.*`)
	c.Check(string(results), check.Matches, `(?ms).*^SFARI-1-to-3\t3\t.*`)
	_, err = os.Stat(tmpdir + "/sfari/results-with-names.txt")
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *pipelineSuite) TestUsageErrors(c *check.C) {
	for _, args := range [][]string{
		{"calculate"},
		{"calculate", "-matrix", "x"},
		{"calculate", "-matrix", "x", "-gene-sets", "y", "-iterations", "0"},
		{"calculate", "-bogus"},
		{"calculate", "-matrix", "x", "-gene-sets", "y", "extra"},
		{"calculate-differential", "-test-matrix", "x", "-gene-sets", "y"},
		{"generate-matrix", "-events", "x"},
		{"explore-significance", "-i", "x", "-pattern", "sideways"},
		{"explore-significance", "-i", "x", "-fdr", "0.1,abc"},
		{"add-names", "-i", "x"},
		{"annotate-set-members", "-i", "x"},
		{"find-significant-members"},
		{"filter-results-to-most-hit"},
	} {
		var stderr bytes.Buffer
		code := handler.RunCommand("mutexdenovo", args, &bytes.Buffer{}, &bytes.Buffer{}, &stderr)
		c.Check(code, check.Equals, 2, check.Commentf("%q", args))
		c.Check(stderr.Len() > 0, check.Equals, true, check.Commentf("%q", args))
	}

	tmpdir := c.MkDir()
	c.Assert(exclusiveMatrix(c).WriteFile(tmpdir+"/matrix.txt"), check.IsNil)
	for _, args := range [][]string{
		{"calculate", "-matrix", tmpdir + "/missing.txt", "-gene-sets", tmpdir + "/sets.txt"},
		{"calculate", "-matrix", tmpdir + "/matrix.txt", "-gene-sets", tmpdir + "/sets.txt"},
		{"calculate", "-matrix", tmpdir + "/matrix.txt", "-gene-sets", "SFARI"},
		{"calculate", "-matrix", tmpdir + "/matrix.txt", "-gene-sets", "Reactome"},
	} {
		var stderr bytes.Buffer
		code := handler.RunCommand("mutexdenovo", args, &bytes.Buffer{}, &bytes.Buffer{}, &stderr)
		c.Check(code, check.Equals, 1, check.Commentf("%q", args))
		c.Check(stderr.Len() > 0, check.Equals, true, check.Commentf("%q", args))
	}

	code := handler.RunCommand("mutexdenovo", []string{"calculate", "-help"}, &bytes.Buffer{}, &bytes.Buffer{}, &bytes.Buffer{})
	c.Check(code, check.Equals, 0)
}
