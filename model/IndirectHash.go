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
	// INDIRECT_HASH_BITS bounds the first-level key table.
	INDIRECT_HASH_BITS = 18
)

// IndirectHash is a two-level context: the first level hashes the
// keyBytes most recent bytes; the table cell for that key accumulates
// the bytes observed after previous occurrences of the key; the
// published context hashes the ctxBytes most recent of those.
type IndirectHash struct {
	manager  *ContextManager
	keyBytes uint32
	keyMask  uint32
	ctxBytes uint32
	shift    uint
	mask     uint32
	table    []uint32
	lastKey  uint32
	primed   bool
	ctx      uint32
}

func NewIndirectHash(manager *ContextManager, keyBytes, keyBits, ctxBytes, ctxBits uint) *IndirectHash {
	this := new(IndirectHash)
	this.manager = manager
	this.keyBytes = uint32(keyBytes)
	this.ctxBytes = uint32(ctxBytes)
	keyShift := keyBytes * keyBits

	if keyShift > INDIRECT_HASH_BITS {
		keyShift = INDIRECT_HASH_BITS
	}

	this.keyMask = uint32((uint64(1) << keyShift) - 1)
	this.shift = ctxBytes * ctxBits

	if this.shift > 32 {
		this.shift = 32
	}

	this.mask = uint32((uint64(1) << this.shift) - 1)
	this.table = make([]uint32, this.keyMask+1)
	return this
}

func (this *IndirectHash) GetContext() *uint32 {
	return &this.ctx
}

func (this *IndirectHash) Size() uint64 {
	return uint64(1) << this.shift
}

func (this *IndirectHash) Refresh() {
	// Record the byte just observed under the key it followed.
	if this.primed == true {
		this.table[this.lastKey] = this.table[this.lastKey]<<8 | this.manager.RecentBytes[0]
	}

	key := uint32(0)

	for i := int(this.keyBytes) - 1; i >= 0; i-- {
		key = okapi.CombineHash(key, uint32(this.manager.HistoryByte(uint32(i))))
	}

	this.lastKey = key & this.keyMask
	this.primed = true
	trail := this.table[this.lastKey]
	h := uint32(0)

	for i := int(this.ctxBytes) - 1; i >= 0; i-- {
		h = okapi.CombineHash(h, (trail>>(8*uint(i)))&0xFF)
	}

	this.ctx = h & this.mask
}
