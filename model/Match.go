/*
Copyright 2018-2024 Luc Deneve
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
you may obtain a copy of the License at

                http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package model

import (
	"math/bits"
)

const (
	// MATCH_SLOTS bounds the position table of one model.
	MATCH_SLOTS = uint64(1) << 18

	// MATCH_BUCKETS is the number of confidence cells, indexed by the
	// capped match length.
	MATCH_BUCKETS = 32

	// MATCH_MAX_VERIFY bounds the backward comparison when a candidate
	// match is found.
	MATCH_MAX_VERIFY = 32
)

// Match locates the most recent prior occurrence of the current context
// in the observed-byte ring. While the prior occurrence keeps extending,
// the model predicts the matching bit with a learned confidence that
// grows with the match length; on a mismatch it falls back to a weak
// baseline and seeks a new match at the next byte boundary.
type Match struct {
	manager      *ContextManager
	ctx          *uint32
	bitCtx       *uint32
	delta        float32
	longestMatch *uint32
	positions    []uint32
	size         uint64
	probs        [MATCH_BUCKETS]float32
	counts       [MATCH_BUCKETS]uint16
	limit        float32
	matchPos     uint32
	matchLen     int32
}

func NewMatch(manager *ContextManager, ctx, bitCtx *uint32, limit int, delta float32,
	size uint64, longestMatch *uint32) *Match {
	this := new(Match)
	this.manager = manager
	this.ctx = ctx
	this.bitCtx = bitCtx
	this.delta = delta
	this.limit = float32(limit)
	this.longestMatch = longestMatch

	if size > MATCH_SLOTS {
		size = MATCH_SLOTS
	}

	this.size = size
	this.positions = make([]uint32, size)

	for i := range this.probs {
		this.probs[i] = 1 - 1/float32(i+3)
	}

	return this
}

func (this *Match) bucket() int {
	b := this.matchLen - 1

	if b >= MATCH_BUCKETS {
		b = MATCH_BUCKETS - 1
	}

	return int(b)
}

// expectedBit returns the predicted bit of the expected byte, or -1
// when no match is active or the accumulator already diverged from the
// expected byte.
func (this *Match) expectedBit() int {
	if this.matchLen == 0 {
		return -1
	}

	acc := *this.bitCtx
	seen := uint(bits.Len32(acc)) - 1
	expected := uint32(this.manager.HistoryAt(this.matchPos))

	if (expected|256)>>(8-seen) != acc {
		return -1
	}

	return int((expected >> (7 - seen)) & 1)
}

func (this *Match) Predict() float32 {
	e := this.expectedBit()

	if e < 0 {
		return this.delta
	}

	c := this.probs[this.bucket()]

	if e == 1 {
		return c
	}

	return 1 - c
}

func (this *Match) Perceive(bit int) {
	e := this.expectedBit()

	if e < 0 {
		return
	}

	b := this.bucket()
	correct := float32(0)

	if bit == e {
		correct = 1
	}

	n := float32(this.counts[b]) + 2

	if n > this.limit {
		n = this.limit
	} else {
		this.counts[b]++
	}

	this.probs[b] += (correct - this.probs[b]) / n

	if bit != e {
		this.matchLen = 0
	}
}

func (this *Match) ByteUpdate() {
	if this.matchLen > 0 {
		if this.manager.HistoryAt(this.matchPos) == this.manager.HistoryByte(0) {
			this.matchLen++
			this.matchPos++
		} else {
			this.matchLen = 0
		}
	}

	if this.matchLen == 0 {
		idx := uint32(uint64(*this.ctx) % this.size)
		cand := this.positions[idx]

		if cand != 0 && this.manager.Pos()-cand < HISTORY_SIZE {
			r := int32(0)

			for r < MATCH_MAX_VERIFY && cand > uint32(r) &&
				uint32(r) < this.manager.Pos() &&
				this.manager.HistoryAt(cand-1-uint32(r)) == this.manager.HistoryByte(uint32(r)) {
				r++
			}

			this.matchLen = r
			this.matchPos = cand
		}

		this.positions[idx] = this.manager.Pos()
	}

	if this.matchLen > 0 {
		bucket := uint32(this.matchLen)

		if bucket > MAX_LONGEST_MATCH {
			bucket = MAX_LONGEST_MATCH
		}

		if bucket > *this.longestMatch {
			*this.longestMatch = bucket
		}
	}
}
