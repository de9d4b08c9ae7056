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

// BitContext composes a coarse 8-bit component (typically the bit
// accumulator) with a finer base context into one joint id. It is
// refreshed on every bit.
type BitContext struct {
	first      *uint32
	second     *uint32
	secondSize uint64
	ctx        uint32
}

func NewBitContext(first, second *uint32, secondSize uint64) *BitContext {
	this := new(BitContext)
	this.first = first
	this.second = second
	this.secondSize = secondSize
	return this
}

func (this *BitContext) GetContext() *uint32 {
	return &this.ctx
}

func (this *BitContext) Size() uint64 {
	return 256 * this.secondSize
}

func (this *BitContext) Refresh() {
	this.ctx = uint32(uint64(*this.first)*this.secondSize + uint64(*this.second))
}
