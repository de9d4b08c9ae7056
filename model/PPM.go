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
	// PPM_ROW_FOOTPRINT approximates the in-memory size of one count
	// row, used to turn the byte budget into a row budget.
	PPM_ROW_FOOTPRINT = 600

	// PPM_MIN_WEIGHT stops the order blending once the residual escape
	// weight is negligible.
	PPM_MIN_WEIGHT = float32(1e-6)
)

type ppmEscape int

const (
	ESCAPE_PPMC ppmEscape = iota
	ESCAPE_PPMD
)

// PPM maintains byte counts for every context order up to its limit and
// blends them, highest order first, with escape probabilities deciding
// how much mass falls through to the shorter contexts. When the row
// budget is exhausted the tables are flushed and relearned.
type PPM struct {
	byteDistribution
	manager   *ContextManager
	order     int
	limit     uint16
	maxRows   int
	vocab     []bool
	vocabSize int
	escape    ppmEscape
	tables    []map[uint64]*[256]uint16
	keys      []uint64
	rows      int
}

func NewPPM(order int, manager *ContextManager, limit int, memory uint64, vocab []bool) *PPM {
	this := new(PPM)
	this.manager = manager
	this.bitCtx = &manager.BitContext
	this.order = order
	this.limit = uint16(limit)
	this.maxRows = int(memory / PPM_ROW_FOOTPRINT)
	this.vocab = vocab
	this.escape = ESCAPE_PPMC

	for _, v := range vocab {
		if v == true {
			this.vocabSize++
		}
	}

	this.tables = make([]map[uint64]*[256]uint16, order+1)

	for k := range this.tables {
		this.tables[k] = make(map[uint64]*[256]uint16)
	}

	this.keys = make([]uint64, order+1)
	this.maskAndNormalize(this.vocab, this.vocabSize)
	return this
}

func (this *PPM) Perceive(bit int) {
}

func (this *PPM) ByteUpdate() {
	b := this.manager.HistoryByte(0)

	for k := range this.tables {
		row := this.tables[k][this.keys[k]]

		if row == nil {
			row = new([256]uint16)
			this.tables[k][this.keys[k]] = row
			this.rows++
		}

		row[b]++

		if row[b] >= this.limit {
			for i := range row {
				row[i] >>= 1
			}
		}
	}

	if this.rows > this.maxRows {
		for k := range this.tables {
			this.tables[k] = make(map[uint64]*[256]uint16)
		}

		this.rows = 0
	}

	for k := range this.keys {
		h := uint32(0)

		for i := k - 1; i >= 0; i-- {
			h = okapi.CombineHash(h, uint32(this.manager.HistoryByte(uint32(i))))
		}

		this.keys[k] = uint64(h)
	}

	this.refill()
}

func (this *PPM) refill() {
	var dist [256]float32
	weight := float32(1)

	for k := this.order; k >= 0; k-- {
		row := this.tables[k][this.keys[k]]

		if row == nil {
			continue
		}

		total := float32(0)
		distinct := float32(0)

		for _, c := range row {
			if c > 0 {
				total += float32(c)
				distinct++
			}
		}

		if total == 0 {
			continue
		}

		var esc float32

		if this.escape == ESCAPE_PPMC {
			denom := total + distinct

			for i, c := range row {
				if c > 0 {
					dist[i] += weight * float32(c) / denom
				}
			}

			esc = distinct / denom
		} else {
			denom := 2 * total

			for i, c := range row {
				if c > 0 {
					dist[i] += weight * (2*float32(c) - 1) / denom
				}
			}

			esc = distinct / denom
		}

		weight *= esc

		if weight < PPM_MIN_WEIGHT {
			break
		}
	}

	for i := range dist {
		dist[i] += weight / 256
	}

	this.probs = dist
	this.maskAndNormalize(this.vocab, this.vocabSize)
}
