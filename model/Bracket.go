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

	okapi "github.com/ldeneve/okapi-go"
)

const (
	// BRACKET_MAX_STACK bounds the tracked nesting depth.
	BRACKET_MAX_STACK = 64

	// BRACKET_INITIAL_CONFIDENCE seeds the per-cell probability that an
	// open pair is closed by its partner.
	BRACKET_INITIAL_CONFIDENCE = float32(0.9)
)

// Bracket predicts the bits of the expected closing delimiter while a
// bracket or quote pair is open. The confidence is learned per
// (delimiter, capped distance since opening) cell.
type Bracket struct {
	bitCtx  *uint32
	limit   float32
	maxDist uint32
	size    uint64
	vocab   []bool
	probs   []float32
	counts  []uint16
	stack   []byte
	dist    uint32
}

func NewBracket(bitCtx *uint32, limit int, maxDist uint, size uint64, vocab []bool) *Bracket {
	this := new(Bracket)
	this.bitCtx = bitCtx
	this.limit = float32(limit)
	this.maxDist = uint32(maxDist)
	this.size = size
	this.vocab = vocab
	this.probs = make([]float32, size)
	this.counts = make([]uint16, size)
	this.stack = make([]byte, 0, BRACKET_MAX_STACK)

	for i := range this.probs {
		this.probs[i] = BRACKET_INITIAL_CONFIDENCE
	}

	return this
}

func (this *Bracket) expected() (byte, bool) {
	if len(this.stack) == 0 {
		return 0, false
	}

	c := this.stack[len(this.stack)-1]

	if this.vocab[c] == false {
		return 0, false
	}

	return c, true
}

func (this *Bracket) cell(expected byte) uint32 {
	d := this.dist

	if d > this.maxDist {
		d = this.maxDist
	}

	return uint32(uint64(okapi.HashMix(uint32(expected), d)) % this.size)
}

func (this *Bracket) Predict() float32 {
	expected, ok := this.expected()

	if ok == false {
		return 0.5
	}

	acc := *this.bitCtx
	seen := uint(bits.Len32(acc)) - 1

	if (uint32(expected)|256)>>(8-seen) != acc {
		return 0.5
	}

	c := this.probs[this.cell(expected)]

	if (expected>>(7-seen))&1 == 1 {
		return c
	}

	return 1 - c
}

func (this *Bracket) Perceive(bit int) {
	acc := *this.bitCtx

	if acc < 128 {
		return
	}

	b := byte(acc<<1 | uint32(bit))

	if expected, ok := this.expected(); ok == true {
		idx := this.cell(expected)
		correct := float32(0)

		if b == expected {
			correct = 1
		}

		n := float32(this.counts[idx]) + 2

		if n > this.limit {
			n = this.limit
		} else {
			this.counts[idx]++
		}

		this.probs[idx] += (correct - this.probs[idx]) / n
	}

	if n := len(this.stack); n > 0 && this.stack[n-1] == b {
		this.stack = this.stack[:n-1]
		this.dist = 0
		return
	}

	if c := closingDelimiter(b); c != 0 && len(this.stack) < BRACKET_MAX_STACK {
		this.stack = append(this.stack, c)
		this.dist = 0
		return
	}

	if len(this.stack) > 0 && this.dist < this.maxDist {
		this.dist++
	}
}

func (this *Bracket) ByteUpdate() {
}
