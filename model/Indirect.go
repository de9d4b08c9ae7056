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
	// INDIRECT_SLOTS is the per-model capacity of the hashed state
	// slots. Power of two; collisions are tolerated.
	INDIRECT_SLOTS = uint32(1) << 18
)

// Indirect predicts through two levels: the derived context addresses a
// one-byte compact state, and the state addresses the probability cell
// in the SharedMap. Perceive advances both.
type Indirect struct {
	table  okapi.StateTable
	ctx    *uint32
	bitCtx *uint32
	limit  float32
	shared *SharedMap
	states []uint8
	mask   uint32
}

func NewIndirect(table okapi.StateTable, ctx, bitCtx *uint32, limit float32, shared *SharedMap) *Indirect {
	this := new(Indirect)
	this.table = table
	this.ctx = ctx
	this.bitCtx = bitCtx
	this.limit = limit
	this.shared = shared
	this.states = make([]uint8, INDIRECT_SLOTS)
	this.mask = INDIRECT_SLOTS - 1
	return this
}

func (this *Indirect) index() uint32 {
	return okapi.HashMix(*this.ctx, *this.bitCtx) & this.mask
}

func (this *Indirect) Predict() float32 {
	return this.shared.Prob(this.states[this.index()])
}

func (this *Indirect) Perceive(bit int) {
	idx := this.index()
	state := this.states[idx]
	this.shared.Update(state, bit, this.limit)
	this.states[idx] = this.table.Next(state, bit)
}

func (this *Indirect) ByteUpdate() {
}
