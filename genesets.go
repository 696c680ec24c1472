// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Names of the built-in gene set sources accepted in place of a gene
// set file.
const (
	RankedSets  = "SFARI"
	PathwaySets = "Reactome"
)

// maxRank is the lowest-confidence score of the ranked gene list.
const maxRank = 6

// GeneSet is a named collection of distinct genes, kept in sorted
// order.
type GeneSet struct {
	Name  string
	Genes []string
}

// GeneSets is an ordered collection of gene sets. Order determines
// which of two identical sets survives deduplication and breaks ties
// in reports.
type GeneSets []GeneSet

func newGeneSet(name string, genes []string) GeneSet {
	seen := make(map[string]bool, len(genes))
	uniq := make([]string, 0, len(genes))
	for _, g := range genes {
		if g != "" && !seen[g] {
			seen[g] = true
			uniq = append(uniq, g)
		}
	}
	sort.Strings(uniq)
	return GeneSet{Name: name, Genes: uniq}
}

// ReadGeneSets parses lines of the form "name<TAB>gene gene gene".
// Blank lines are ignored; a line without a tab or a repeated name is
// an error.
func ReadGeneSets(r io.Reader) (GeneSets, error) {
	var sets GeneSets
	names := map[string]bool{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1<<16), 1<<26)
	for lineIdx := 1; scanner.Scan(); lineIdx++ {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		tab := strings.IndexByte(line, '\t')
		if tab < 0 {
			return nil, fmt.Errorf("line %d: no tab separating name from genes: %.40q", lineIdx, line)
		}
		name := line[:tab]
		if name == "" {
			return nil, fmt.Errorf("line %d: empty gene set name", lineIdx)
		}
		if names[name] {
			return nil, fmt.Errorf("line %d: duplicate gene set name %q", lineIdx, name)
		}
		names[name] = true
		sets = append(sets, newGeneSet(name, strings.Split(line[tab+1:], " ")))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return sets, nil
}

// Crop returns the sets restricted to genes accepted by universe,
// dropping sets left with fewer than two genes and sets whose genes
// duplicate an earlier admitted set.
func (sets GeneSets) Crop(universe func(gene string) bool) GeneSets {
	var out GeneSets
	seen := map[string]string{}
	small, dup := 0, 0
	for _, set := range sets {
		var genes []string
		for _, g := range set.Genes {
			if universe(g) {
				genes = append(genes, g)
			}
		}
		if len(genes) < 2 {
			small++
			continue
		}
		key := strings.Join(genes, " ")
		if first, ok := seen[key]; ok {
			log.Debugf("gene set %q duplicates %q, dropping", set.Name, first)
			dup++
			continue
		}
		seen[key] = set.Name
		out = append(out, GeneSet{Name: set.Name, Genes: genes})
	}
	log.Infof("admitted %d gene sets (dropped %d with <2 genes, %d duplicates)", len(out), small, dup)
	return out
}

// Get returns the set with the given name.
func (sets GeneSets) Get(name string) (GeneSet, bool) {
	for _, set := range sets {
		if set.Name == name {
			return set, true
		}
	}
	return GeneSet{}, false
}

// GeneSetLoader loads gene sets restricted to the genes of one or
// more matrices: a gene is retained only if every matrix has it.
type GeneSetLoader struct {
	Matrices []*Matrix
}

func (l *GeneSetLoader) universe(gene string) bool {
	for _, m := range l.Matrices {
		if !m.HasGene(gene) {
			return false
		}
	}
	return true
}

// LoadFile reads and crops a gene set file.
func (l *GeneSetLoader) LoadFile(fnm string) (GeneSets, error) {
	f, err := zopen(fnm)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sets, err := ReadGeneSets(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", fnm, err)
	}
	return sets.Crop(l.universe), nil
}

// LoadRanked returns the nested sets "SFARI-1-to-i" for i = 1..6,
// each holding the genes scored i or better.
func (l *GeneSetLoader) LoadRanked(list RankedGeneList) GeneSets {
	var sets GeneSets
	for i := 1; i <= maxRank; i++ {
		sets = append(sets, newGeneSet(fmt.Sprintf("%s-1-to-%d", RankedSets, i), list.GenesWithMaxScore(i)))
	}
	return sets.Crop(l.universe)
}

// LoadPathways returns the catalog's pathways cropped to the matrix
// genes, named by the last path element of their IDs.
func (l *GeneSetLoader) LoadPathways(cat PathwayCatalog) GeneSets {
	universe := map[string]bool{}
	for _, g := range l.Matrices[0].Genes() {
		if l.universe(g) {
			universe[g] = true
		}
	}
	cropped := cat.CroppedPathways(universe)
	ids := make([]string, 0, len(cropped))
	for id := range cropped {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var sets GeneSets
	names := map[string]bool{}
	for _, id := range ids {
		name := id[strings.LastIndex(id, "/")+1:]
		if names[name] {
			log.Warnf("pathway %q has the same short name as another pathway, skipping", id)
			continue
		}
		names[name] = true
		sets = append(sets, newGeneSet(name, cropped[id]))
	}
	return sets.Crop(l.universe)
}
