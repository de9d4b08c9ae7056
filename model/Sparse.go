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

// Sparse concatenates the entries of a published byte-like buffer
// (recent bytes or word hashes) named by a fixed position pattern into
// one hash.
type Sparse struct {
	source  []uint32
	pattern []uint
	ctx     uint32
}

func NewSparse(source []uint32, pattern []uint) *Sparse {
	this := new(Sparse)
	this.source = source
	this.pattern = pattern
	return this
}

func (this *Sparse) GetContext() *uint32 {
	return &this.ctx
}

func (this *Sparse) Size() uint64 {
	return uint64(1) << 32
}

func (this *Sparse) Refresh() {
	h := uint32(0)

	for _, idx := range this.pattern {
		h = okapi.CombineHash(h, this.source[idx])
	}

	this.ctx = h
}
