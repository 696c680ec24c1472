// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import (
	"time"

	"golang.org/x/exp/rand"
)

// DefaultQ is the number of trial swaps per edge in one shuffle.
const DefaultQ = 100

// Shuffler randomizes a matrix in place while preserving every gene's
// and every sample's number of alterations (Maslov & Sneppen,
// https://arxiv.org/abs/cond-mat/0312028).
//
// A Shuffler owns its matrix for as long as it is in use: nothing else
// may read or write the matrix during Shuffle.
type Shuffler struct {
	// Q is the number of trial swaps per edge in one shuffle.
	Q int

	matrix *Matrix
	rnd    *rand.Rand
}

// NewShuffler returns a shuffler for m. A zero seed selects a random
// seed.
func NewShuffler(m *Matrix, seed uint64) *Shuffler {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano()) ^ rand.Uint64()
	}
	return &Shuffler{
		Q:      DefaultQ,
		matrix: m,
		rnd:    rand.New(rand.NewSource(seed)),
	}
}

// Matrix returns the matrix being shuffled.
func (s *Shuffler) Matrix() *Matrix { return s.matrix }

// Shuffle performs Q×E trial swaps, where E is the number of edges,
// and returns the number of accepted swaps.
func (s *Shuffler) Shuffle() int {
	edges := s.matrix.Edges()
	E := len(edges)
	if E < 2 {
		return 0
	}
	accepted := 0
	for i := 0; i < s.Q; i++ {
		for j := 0; j < E; j++ {
			e1 := s.rnd.Intn(E)
			e2 := s.rnd.Intn(E)
			if e1 != e2 && s.matrix.swap(e1, e2) {
				accepted++
			}
		}
	}
	return accepted
}
