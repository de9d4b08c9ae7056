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

// Interval projects each byte through a 256-entry bucket table into a
// 4-bit bucket and publishes the last two buckets.
type Interval struct {
	manager *ContextManager
	buckets [256]uint32
	state   uint32
	ctx     uint32
}

func NewInterval(manager *ContextManager, buckets []int) *Interval {
	this := new(Interval)
	this.manager = manager

	for i := range this.buckets {
		this.buckets[i] = uint32(buckets[i]) & 0x0F
	}

	return this
}

func (this *Interval) GetContext() *uint32 {
	return &this.ctx
}

func (this *Interval) Size() uint64 {
	return 256
}

func (this *Interval) Refresh() {
	b := this.manager.RecentBytes[0]
	this.state = (this.state<<4 | this.buckets[b]) & 0xFF
	this.ctx = this.state
}

// IntervalHash concatenates the buckets of the order+1 most recent
// bytes into a hash of min(32, (order+1)*bits) bits.
type IntervalHash struct {
	manager *ContextManager
	buckets [256]uint32
	order   uint32
	shift   uint
	mask    uint32
	nibbles uint64
	ctx     uint32
}

func NewIntervalHash(manager *ContextManager, buckets []int, order, bits uint) *IntervalHash {
	this := new(IntervalHash)
	this.manager = manager
	this.order = uint32(order)

	for i := range this.buckets {
		this.buckets[i] = uint32(buckets[i]) & 0x0F
	}

	this.shift = (order + 1) * bits

	if this.shift > 32 {
		this.shift = 32
	}

	this.mask = uint32((uint64(1) << this.shift) - 1)
	return this
}

func (this *IntervalHash) GetContext() *uint32 {
	return &this.ctx
}

func (this *IntervalHash) Size() uint64 {
	return uint64(1) << this.shift
}

func (this *IntervalHash) Refresh() {
	b := this.manager.RecentBytes[0]
	this.nibbles = this.nibbles<<4 | uint64(this.buckets[b])
	h := uint32(0)

	for i := int(this.order); i >= 0; i-- {
		h = okapi.CombineHash(h, uint32((this.nibbles>>(4*uint(i)))&0x0F))
	}

	this.ctx = h & this.mask
}
