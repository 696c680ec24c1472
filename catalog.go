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

// PathwayCatalog is a curated collection of pathways.
type PathwayCatalog interface {
	// CroppedPathways returns each pathway's member genes that are
	// in universe, keyed by pathway ID. Pathways with no such genes
	// are omitted.
	CroppedPathways(universe map[string]bool) map[string][]string
	// Name returns the pathway's display name, or "" if unknown.
	Name(id string) string
}

// RankedGeneList is a list of genes scored by confidence, 1 being
// the most confident.
type RankedGeneList interface {
	GenesWithMaxScore(rank int) []string
	AllGenes() []string
	// Score returns the gene's score, if it has one.
	Score(gene string) (int, bool)
}

type gmtPathway struct {
	name  string
	genes []string
}

// gmtCatalog is a PathwayCatalog read from a GMT file: one pathway
// per line, "id<TAB>name<TAB>gene<TAB>gene...".
type gmtCatalog struct {
	pathways map[string]gmtPathway
}

// ReadGMT parses a GMT pathway file.
func ReadGMT(r io.Reader) (PathwayCatalog, error) {
	cat := &gmtCatalog{pathways: map[string]gmtPathway{}}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: wrong number of fields (%d < 2): %.40q", lineIdx, len(fields), line)
		}
		var genes []string
		for _, g := range fields[2:] {
			if g != "" {
				genes = append(genes, g)
			}
		}
		cat.pathways[fields[0]] = gmtPathway{name: fields[1], genes: genes}
	}
	return cat, scanner.Err()
}

// LoadGMT reads a GMT pathway file, decompressing it if the name ends
// in ".gz".
func LoadGMT(fnm string) (PathwayCatalog, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	cat, err := ReadGMT(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return cat, nil
}

func (cat *gmtCatalog) CroppedPathways(universe map[string]bool) map[string][]string {
	ret := map[string][]string{}
	for id, pw := range cat.pathways {
		var genes []string
		for _, g := range pw.genes {
			if universe[g] {
				genes = append(genes, g)
			}
		}
		if len(genes) > 0 {
			ret[id] = genes
		}
	}
	return ret
}

func (cat *gmtCatalog) Name(id string) string {
	return cat.pathways[id].name
}

// rankedList is a RankedGeneList read from a two-column
// "gene<TAB>score" file. Genes whose score is not an integer (for
// example "S") are listed but unscored.
type rankedList struct {
	genes  []string
	scores map[string]int
}

// ReadRankedGeneList parses a "gene<TAB>score" file. If the first
// line's score column is not numeric it is taken to be a header.
func ReadRankedGeneList(r io.Reader) (RankedGeneList, error) {
	rl := &rankedList{scores: map[string]int{}}
	seen := map[string]bool{}
	scanner := bufio.NewScanner(r)
	first := true
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, fmt.Errorf("line %d: wrong number of fields (%d < 2): %.40q", lineIdx, len(fields), line)
		}
		score, err := strconv.Atoi(strings.TrimSpace(fields[1]))
		if first {
			first = false
			if err != nil {
				continue
			}
		}
		gene := fields[0]
		if !seen[gene] {
			seen[gene] = true
			rl.genes = append(rl.genes, gene)
		}
		if err == nil {
			rl.scores[gene] = score
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	sort.Strings(rl.genes)
	return rl, nil
}

// LoadRankedGeneList reads a ranked gene list file.
func LoadRankedGeneList(fnm string) (RankedGeneList, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rl, err := ReadRankedGeneList(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return rl, nil
}

func (rl *rankedList) GenesWithMaxScore(rank int) []string {
	var genes []string
	for _, g := range rl.genes {
		if s, ok := rl.scores[g]; ok && s <= rank {
			genes = append(genes, g)
		}
	}
	return genes
}

func (rl *rankedList) AllGenes() []string {
	return append([]string(nil), rl.genes...)
}

func (rl *rankedList) Score(gene string) (int, bool) {
	s, ok := rl.scores[gene]
	return s, ok
}
