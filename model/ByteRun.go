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
	// BYTE_RUN_SLOTS bounds the run table of one model.
	BYTE_RUN_SLOTS = uint64(1) << 18
)

// ByteRun tracks the dominant byte under a context and the length of
// its current run. While the accumulator stays consistent with the
// dominant byte, the predicted bit follows that byte with confidence
// growing with the run length.
type ByteRun struct {
	ctx    *uint32
	bitCtx *uint32
	delta  float32
	size   uint64
	tags   []uint32
	bytes  []uint8
	runs   []uint16
}

func NewByteRun(ctx, bitCtx *uint32, delta float32, size uint64) *ByteRun {
	this := new(ByteRun)
	this.ctx = ctx
	this.bitCtx = bitCtx
	this.delta = delta

	if size > BYTE_RUN_SLOTS {
		size = BYTE_RUN_SLOTS
	}

	this.size = size
	this.tags = make([]uint32, size)
	this.bytes = make([]uint8, size)
	this.runs = make([]uint16, size)
	return this
}

func (this *ByteRun) index() uint32 {
	return uint32(uint64(*this.ctx) % this.size)
}

func (this *ByteRun) Predict() float32 {
	idx := this.index()

	if this.tags[idx] != *this.ctx || this.runs[idx] == 0 {
		return 0.5
	}

	acc := *this.bitCtx
	seen := uint(bits.Len32(acc)) - 1
	dominant := uint32(this.bytes[idx])

	if (dominant|256)>>(8-seen) != acc {
		return 0.5
	}

	strength := this.delta * float32(this.runs[idx])

	if (dominant>>(7-seen))&1 == 1 {
		return (strength + 1) / (strength + 2)
	}

	return 1 / (strength + 2)
}

func (this *ByteRun) Perceive(bit int) {
	acc := *this.bitCtx

	if acc < 128 {
		return
	}

	// Last bit of the byte: fold the completed byte into the run table
	// while the context still addresses the slot it was seen under.
	b := uint8(acc<<1 | uint32(bit))
	idx := this.index()

	if this.tags[idx] == *this.ctx && this.bytes[idx] == b {
		if this.runs[idx] < 0xFFFF {
			this.runs[idx]++
		}

		return
	}

	this.tags[idx] = *this.ctx
	this.bytes[idx] = b
	this.runs[idx] = 1
}

func (this *ByteRun) ByteUpdate() {
}
