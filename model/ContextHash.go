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

// ContextHash hashes the order+1 most recent bytes into
// min(32, (order+1)*bits) bits. The number of hash bits per byte trades
// table size against collisions for the deeper orders.
type ContextHash struct {
	manager *ContextManager
	order   uint32
	shift   uint
	mask    uint32
	ctx     uint32
}

func NewContextHash(manager *ContextManager, order, bits uint) *ContextHash {
	this := new(ContextHash)
	this.manager = manager
	this.order = uint32(order)
	this.shift = (order + 1) * bits

	if this.shift > 32 {
		this.shift = 32
	}

	this.mask = uint32((uint64(1) << this.shift) - 1)
	return this
}

func (this *ContextHash) GetContext() *uint32 {
	return &this.ctx
}

func (this *ContextHash) Size() uint64 {
	return uint64(1) << this.shift
}

func (this *ContextHash) Refresh() {
	h := uint32(0)

	for i := int(this.order); i >= 0; i-- {
		h = okapi.CombineHash(h, uint32(this.manager.HistoryByte(uint32(i))))
	}

	this.ctx = h & this.mask
}
