// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"context"
	"errors"
	"sync/atomic"

	log "github.com/sirupsen/logrus"
)

// engine runs the shuffling protocol shared by the single-matrix and
// the paired testers. The group statistic of a set is its coverage in
// matrices[0] minus its coverage in matrices[1] (if any); the member
// statistic is the analogous signed sum of sample hits.
type engine struct {
	matrices   []*Matrix
	sets       GeneSets
	iterations int
	q          int
	seed       uint64
	threads    int
	label      string
}

// setStats holds the group and member statistics of every set.
type setStats struct {
	group []int64
	gene  [][]int64
}

// tally holds meet counters: the number of iterations in which the
// shuffled statistic fell on the tail side of the observed one.
type tally struct {
	mutex, cooc         []int
	geneMutex, geneCooc [][]int
}

func (e *engine) newSetStats() *setStats {
	st := &setStats{group: make([]int64, len(e.sets)), gene: make([][]int64, len(e.sets))}
	for i, set := range e.sets {
		st.gene[i] = make([]int64, len(set.Genes))
	}
	return st
}

func (e *engine) newTally() *tally {
	t := &tally{
		mutex:     make([]int, len(e.sets)),
		cooc:      make([]int, len(e.sets)),
		geneMutex: make([][]int, len(e.sets)),
		geneCooc:  make([][]int, len(e.sets)),
	}
	for i, set := range e.sets {
		t.geneMutex[i] = make([]int, len(set.Genes))
		t.geneCooc[i] = make([]int, len(set.Genes))
	}
	return t
}

func (t *tally) add(o *tally) {
	for i := range t.mutex {
		t.mutex[i] += o.mutex[i]
		t.cooc[i] += o.cooc[i]
		for g := range t.geneMutex[i] {
			t.geneMutex[i][g] += o.geneMutex[i][g]
			t.geneCooc[i][g] += o.geneCooc[i][g]
		}
	}
}

// compile resolves each set's genes to row indices of m (-1 where m
// lacks the gene). Row indices are stable across Copy and Shuffle.
func (e *engine) compile(m *Matrix) [][]int {
	rows := make([][]int, len(e.sets))
	for i, set := range e.sets {
		rows[i] = make([]int, len(set.Genes))
		for g, gene := range set.Genes {
			if r, ok := m.index[gene]; ok {
				rows[i][g] = r
			} else {
				rows[i][g] = -1
			}
		}
	}
	return rows
}

// scorer computes the statistics of one set in one matrix, reusing
// its scratch space between calls.
type scorer struct {
	hits    []int64 // per sample; all zero between calls
	touched []int
	idx     []int
	h       []int64 // per member gene of the last scored set
}

func (e *engine) newScorer() *scorer {
	maxS, maxG := 0, 0
	for _, m := range e.matrices {
		if m.NumSamples() > maxS {
			maxS = m.NumSamples()
		}
	}
	for _, set := range e.sets {
		if len(set.Genes) > maxG {
			maxG = len(set.Genes)
		}
	}
	return &scorer{hits: make([]int64, maxS), h: make([]int64, maxG)}
}

// score fills sc.h with each member's sample hits -- the sum, over
// samples the member hits, of the number of members hitting that
// sample -- and returns the set's coverage.
func (sc *scorer) score(m *Matrix, rows []int) int64 {
	sc.touched = sc.touched[:0]
	for _, r := range rows {
		if r < 0 {
			continue
		}
		sc.idx = m.rows[r].indices(sc.idx[:0])
		for _, s := range sc.idx {
			if sc.hits[s] == 0 {
				sc.touched = append(sc.touched, s)
			}
			sc.hits[s]++
		}
	}
	for g, r := range rows {
		var h int64
		if r >= 0 {
			sc.idx = m.rows[r].indices(sc.idx[:0])
			for _, s := range sc.idx {
				h += sc.hits[s]
			}
		}
		sc.h[g] = h
	}
	for _, s := range sc.touched {
		sc.hits[s] = 0
	}
	return int64(len(sc.touched))
}

// measure computes the combined statistics of every set over ms.
func (e *engine) measure(ms []*Matrix, rows [][][]int, sc *scorer, out *setStats) {
	for i := range e.sets {
		out.group[i] = 0
		gene := out.gene[i]
		for g := range gene {
			gene[g] = 0
		}
		for a, m := range ms {
			sign := int64(1)
			if a > 0 {
				sign = -1
			}
			out.group[i] += sign * sc.score(m, rows[a][i])
			for g := range gene {
				gene[g] += sign * sc.h[g]
			}
		}
	}
}

// compare increments the meet counters for one shuffled round.
func (t *tally) compare(obs, cur *setStats) {
	for i, stat := range cur.group {
		if stat >= obs.group[i] {
			t.mutex[i]++
		}
		if stat <= obs.group[i] {
			t.cooc[i]++
		}
		for g, h := range cur.gene[i] {
			if h <= obs.gene[i][g] {
				t.geneMutex[i][g]++
			}
			if h >= obs.gene[i][g] {
				t.geneCooc[i][g]++
			}
		}
	}
}

// workerSeed derives a distinct nonzero seed for each shuffler.
func workerSeed(seed uint64, n int) uint64 {
	if seed == 0 {
		return 0
	}
	s := seed + uint64(n)*0x9e3779b97f4a7c15
	if s == 0 {
		s = 1
	}
	return s
}

// run computes the observed statistics, then shuffles independent
// copies of the matrices e.iterations times in total, split across
// e.threads workers, and returns the observed statistics with the
// summed meet counters. The caller's matrices are not modified.
func (e *engine) run(ctx context.Context) (*setStats, *tally, error) {
	if e.iterations < 1 {
		return nil, nil, errors.New("number of iterations must be at least 1")
	}
	threads := e.threads
	if threads < 1 {
		threads = 1
	}
	if threads > e.iterations {
		threads = e.iterations
	}
	q := e.q
	if q < 1 {
		q = DefaultQ
	}

	rows := make([][][]int, len(e.matrices))
	for a, m := range e.matrices {
		rows[a] = e.compile(m)
	}
	obs := e.newSetStats()
	e.measure(e.matrices, rows, e.newScorer(), obs)

	log.Infof("%s: shuffling %d times (%d gene sets, %d threads)", e.label, e.iterations, len(e.sets), threads)
	var done int64
	step := int64(e.iterations/10 + 1)
	tallies := make([]*tally, threads)
	throttle := &throttle{Max: threads}
	for w := 0; w < threads; w++ {
		w := w
		n := e.iterations / threads
		if w < e.iterations%threads {
			n++
		}
		tallies[w] = e.newTally()
		ms := make([]*Matrix, len(e.matrices))
		shufflers := make([]*Shuffler, len(e.matrices))
		for a, m := range e.matrices {
			ms[a] = m.Copy()
			shufflers[a] = NewShuffler(ms[a], workerSeed(e.seed, w*len(e.matrices)+a))
			shufflers[a].Q = q
		}
		throttle.Go(func() error {
			cur := e.newSetStats()
			sc := e.newScorer()
			for i := 0; i < n; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if throttle.Err() != nil {
					return nil
				}
				for _, s := range shufflers {
					s.Shuffle()
				}
				e.measure(ms, rows, sc, cur)
				tallies[w].compare(obs, cur)
				if d := atomic.AddInt64(&done, 1); d%step == 0 {
					log.Infof("%s: %d/%d iterations", e.label, d, e.iterations)
				}
			}
			return nil
		})
	}
	if err := throttle.Wait(); err != nil {
		return nil, nil, err
	}
	total := tallies[0]
	for _, t := range tallies[1:] {
		total.add(t)
	}
	log.Infof("%s: done", e.label)
	return obs, total, nil
}
