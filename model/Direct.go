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
	okapi "github.com/ldeneve/okapi-go"
)

const (
	// PROB_SCALE is the fixed-point scale of the 16-bit probability cells.
	PROB_SCALE = 1 << 16

	// DIRECT_MAX_CELLS bounds the table of one Direct model.
	DIRECT_MAX_CELLS = uint64(1) << 22
)

// probCells is the per-context 16-bit probability store shared by the
// directly and hash addressed variants: one probability and one
// saturating counter per cell.
type probCells struct {
	probs  []uint16
	counts []uint8
	limit  int32
}

func newProbCells(cells uint64, limit int, delta float32) *probCells {
	this := new(probCells)
	this.probs = make([]uint16, cells)
	this.counts = make([]uint8, cells)
	this.limit = int32(limit)

	for i := range this.probs {
		this.probs[i] = PROB_SCALE / 2
	}

	for i := range this.counts {
		this.counts[i] = uint8(delta)
	}

	return this
}

func (this *probCells) predict(idx uint32) float32 {
	return (float32(this.probs[idx]) + 0.5) / PROB_SCALE
}

func (this *probCells) perceive(idx uint32, bit int) {
	c := int32(this.counts[idx]) + 2

	if c > this.limit {
		c = this.limit
	} else {
		this.counts[idx]++
	}

	p := int32(this.probs[idx])
	p += (int32(bit)<<16 - p) / c

	if p < 0 {
		p = 0
	} else if p >= PROB_SCALE {
		p = PROB_SCALE - 1
	}

	this.probs[idx] = uint16(p)
}

// Direct addresses one probability cell per (context, accumulator) pair.
type Direct struct {
	cells  *probCells
	ctx    *uint32
	bitCtx *uint32
	size   uint64
}

func NewDirect(ctx, bitCtx *uint32, limit int, delta float32, size uint64) *Direct {
	this := new(Direct)
	cells := size * 256

	if cells > DIRECT_MAX_CELLS {
		cells = DIRECT_MAX_CELLS
	}

	this.cells = newProbCells(cells, limit, delta)
	this.ctx = ctx
	this.bitCtx = bitCtx
	this.size = cells
	return this
}

func (this *Direct) index() uint32 {
	return uint32((uint64(*this.ctx)*256 + uint64(*this.bitCtx)) % this.size)
}

func (this *Direct) Predict() float32 {
	return this.cells.predict(this.index())
}

func (this *Direct) Perceive(bit int) {
	this.cells.perceive(this.index(), bit)
}

func (this *Direct) ByteUpdate() {
}

// DirectHash is Direct over a bounded hash table; deep contexts share
// cells through collisions instead of growing the table.
type DirectHash struct {
	cells  *probCells
	ctx    *uint32
	bitCtx *uint32
	size   uint64
}

func NewDirectHash(ctx, bitCtx *uint32, limit int, delta float32, size uint64) *DirectHash {
	this := new(DirectHash)
	this.cells = newProbCells(size, limit, delta)
	this.ctx = ctx
	this.bitCtx = bitCtx
	this.size = size
	return this
}

func (this *DirectHash) index() uint32 {
	return uint32(uint64(okapi.HashMix(*this.ctx, *this.bitCtx)) % this.size)
}

func (this *DirectHash) Predict() float32 {
	return this.cells.predict(this.index())
}

func (this *DirectHash) Perceive(bit int) {
	this.cells.perceive(this.index(), bit)
}

func (this *DirectHash) ByteUpdate() {
}
