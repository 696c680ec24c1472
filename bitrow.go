// Copyright (C) The Mutexdenovo Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package mutexdenovo

import "math/bits"

// bitRow is a dense bit array holding one matrix row, one bit per
// sample.
type bitRow []uint64

func newBitRow(n int) bitRow {
	return make(bitRow, (n+63)/64)
}

func (r bitRow) get(i int) bool {
	return r[i>>6]&(1<<uint(i&63)) != 0
}

func (r bitRow) set(i int) {
	r[i>>6] |= 1 << uint(i&63)
}

func (r bitRow) flip(i int) {
	r[i>>6] ^= 1 << uint(i&63)
}

func (r bitRow) count() int {
	n := 0
	for _, w := range r {
		n += bits.OnesCount64(w)
	}
	return n
}

func (r bitRow) andCount(o bitRow) int {
	n := 0
	for i, w := range r {
		n += bits.OnesCount64(w & o[i])
	}
	return n
}

// indices appends the positions of all set bits, in ascending order,
// to dst.
func (r bitRow) indices(dst []int) []int {
	for wi, w := range r {
		for w != 0 {
			dst = append(dst, wi<<6+bits.TrailingZeros64(w))
			w &= w - 1
		}
	}
	return dst
}

func (r bitRow) clone() bitRow {
	return append(bitRow(nil), r...)
}
