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

// Paq8 is the PAQ-lineage legacy predictor: eight sub-models over hashed
// byte contexts (seven bit-history state maps plus a match model) mixed
// by a per-context neuron. It satisfies the regular model contract and
// additionally republishes each sub-model probability so the outer
// mixing layers can weight them individually.

const (
	PAQ8_MAX_LENGTH  = 88
	PAQ8_BUFFER_SIZE = 1 << 16
	PAQ8_MASK_BUFFER = PAQ8_BUFFER_SIZE - 1
	PAQ8_HASH_SIZE   = 1 << 16
	PAQ8_NUM_INPUTS  = 8
	PAQ8_MASK_80     = int32(-2139062144) // 0x80808080
	PAQ8_MASK_F0     = int32(-252645136)  // 0xF0F0F0F0
	PAQ8_MASK_4F     = int32(1330642943)  // 0x4F4FFFFF
	PAQ8_BEGIN_LEARN = float32(0.02)
	PAQ8_END_LEARN   = float32(0.005)
	PAQ8_LEARN_DECAY = float32(2e-6)
	PAQ8_INIT_WEIGHT = float32(0.25)
)

func paq8Hash(x, y int32) int32 {
	h := x*int32(okapi.HASH32) ^ y*int32(okapi.HASH32)
	return h>>1 ^ h>>9 ^ x>>2 ^ y>>3 ^ int32(okapi.HASH32)
}

func paq8Context(ctxID, cx int32) int32 {
	cx = cx*987654323 + ctxID
	cx = (cx << 16) | int32(uint32(cx)>>16)
	return cx*123456791 + ctxID
}

type paq8Mixer struct {
	pr        float32
	skew      float32
	w         [PAQ8_NUM_INPUTS]float32
	in        [PAQ8_NUM_INPUTS]float32
	learnRate float32
}

func (this *paq8Mixer) init() {
	this.pr = 0.5
	this.learnRate = PAQ8_BEGIN_LEARN

	for i := range this.w {
		this.w[i] = PAQ8_INIT_WEIGHT
	}
}

func (this *paq8Mixer) update(bit int) {
	err := (float32(bit) - this.pr) * this.learnRate

	if this.learnRate > PAQ8_END_LEARN {
		this.learnRate -= PAQ8_LEARN_DECAY
	}

	this.skew += err

	for i := range this.w {
		this.w[i] += err * this.in[i]
	}
}

func (this *paq8Mixer) mix(in *[PAQ8_NUM_INPUTS]float32) float32 {
	this.in = *in
	dot := this.skew

	for i := range this.w {
		dot += this.w[i] * in[i]
	}

	this.pr = okapi.Squash(dot)
	return this.pr
}

type Paq8 struct {
	pr              float32
	c0              int32
	c4              int32
	c8              int32
	bpos            uint
	pos             int32
	binCount        int32
	matchLen        int32
	matchPos        int32
	hash            int32
	statesMask      int32
	mixersMask      int32
	hashMask        int32
	mixers          []paq8Mixer
	mixer           *paq8Mixer
	buffer          []int8
	hashes          []int32
	bigStatesMap    []uint8
	smallStatesMap0 []uint8
	smallStatesMap1 []uint8
	cp              [7]int32
	ctx             [7]int32
	inputs          [PAQ8_NUM_INPUTS]float32
	predictions     [PAQ8_NUM_INPUTS]float32
}

// NewPaq8 sizes the state tables from the memory exponent: the shared
// hashed state map holds 1<<(mem+11) one-byte slots.
func NewPaq8(mem uint) *Paq8 {
	this := new(Paq8)
	statesSize := int32(1) << (mem + 11)
	mixersSize := int32(1) << 12
	this.mixers = make([]paq8Mixer, mixersSize)

	for i := range this.mixers {
		this.mixers[i].init()
	}

	this.mixer = &this.mixers[0]
	this.pr = 0.5
	this.c0 = 1
	this.bigStatesMap = make([]uint8, statesSize)
	this.smallStatesMap0 = make([]uint8, 1<<16)
	this.smallStatesMap1 = make([]uint8, 1<<20)
	this.hashes = make([]int32, PAQ8_HASH_SIZE)
	this.buffer = make([]int8, PAQ8_BUFFER_SIZE)
	this.statesMask = statesSize - 1
	this.mixersMask = mixersSize - 1
	this.hashMask = PAQ8_HASH_SIZE - 1

	for i := range this.predictions {
		this.predictions[i] = 0.5
	}

	return this
}

func (this *Paq8) Predict() float32 {
	return this.pr
}

// ModelPredictions exposes the per-sub-model probabilities, refreshed on
// every Perceive. The backing array is stable for the life of the model.
func (this *Paq8) ModelPredictions() []float32 {
	return this.predictions[:]
}

func (this *Paq8) ByteUpdate() {
}

func (this *Paq8) Perceive(bit int) {
	this.mixer.update(bit)
	this.bpos++
	this.c0 = this.c0<<1 | int32(bit)

	if this.c0 > 255 {
		this.buffer[this.pos&PAQ8_MASK_BUFFER] = int8(this.c0)
		this.pos++
		this.c8 = this.c8<<8 | ((this.c4 >> 24) & 0xFF)
		this.c4 = this.c4<<8 | (this.c0 & 0xFF)
		this.hash = (((this.hash * int32(okapi.HASH32)) << 4) + this.c4) & this.hashMask
		this.c0 = 1
		this.bpos = 0
		this.binCount += (this.c4 >> 7) & 1

		this.mixer = &this.mixers[this.c4&this.mixersMask]

		this.ctx[0] = (this.c4 & 0xFF) << 8
		this.ctx[1] = (this.c4 & 0xFFFF) << 8
		this.ctx[2] = paq8Context(2, this.c4&0x00FFFFFF)
		this.ctx[3] = paq8Context(3, this.c4)

		if this.binCount < this.pos>>2 {
			// Mostly text or mixed
			var h1, h2 int32

			if this.c4&PAQ8_MASK_80 == 0 {
				h1 = this.c4 & PAQ8_MASK_4F
			} else {
				h1 = this.c4 & PAQ8_MASK_80
			}

			if this.c8&PAQ8_MASK_80 == 0 {
				h2 = this.c8 & PAQ8_MASK_4F
			} else {
				h2 = this.c8 & PAQ8_MASK_80
			}

			this.ctx[4] = paq8Context(this.c4&0xFFFF, this.c4^(this.c8&0xFFFF))
			this.ctx[5] = paq8Hash(h1, h2)
			this.ctx[6] = paq8Hash(this.c8&PAQ8_MASK_F0, this.c4&PAQ8_MASK_F0)
		} else {
			// Mostly binary
			this.ctx[4] = paq8Context(int32(okapi.HASH32), this.c4^(this.c4&0x000FFFFF))
			this.ctx[5] = paq8Hash(this.ctx[1], this.c8>>16)
			this.ctx[6] = this.ctx[0] | (this.c8 << 16)
		}

		this.findMatch()
		this.hashes[this.hash] = this.pos
	}

	c := this.c0
	table := &STATE_TRANSITIONS[bit]

	for i := 0; i < 7; i++ {
		idx := this.cp[i]

		switch i {
		case 0:
			this.smallStatesMap0[idx] = table[this.smallStatesMap0[idx]]
			this.cp[i] = (this.ctx[i] + c) & 0xFFFF
			this.inputs[i] = float32(STATE_MAP[this.smallStatesMap0[this.cp[i]]]) / 256

		case 1:
			this.smallStatesMap1[idx] = table[this.smallStatesMap1[idx]]
			this.cp[i] = (this.ctx[i] + c) & (1<<20 - 1)
			this.inputs[i] = float32(STATE_MAP[this.smallStatesMap1[this.cp[i]]]) / 256

		default:
			this.bigStatesMap[idx] = table[this.bigStatesMap[idx]]
			this.cp[i] = (this.ctx[i] + c) & this.statesMask
			this.inputs[i] = float32(STATE_MAP[this.bigStatesMap[this.cp[i]]]) / 256
		}
	}

	this.inputs[7] = this.matchPrediction()
	this.pr = this.mixer.mix(&this.inputs)

	for i := range this.inputs {
		this.predictions[i] = okapi.Squash(this.inputs[i])
	}
}

func (this *Paq8) findMatch() {
	if this.matchLen > 0 {
		if this.matchLen < PAQ8_MAX_LENGTH {
			this.matchLen++
		}

		this.matchPos++
	} else {
		this.matchPos = this.hashes[this.hash]

		if this.matchPos != 0 && this.pos-this.matchPos <= PAQ8_MASK_BUFFER {
			r := this.matchLen + 1

			for r <= PAQ8_MAX_LENGTH &&
				this.buffer[(this.pos-r)&PAQ8_MASK_BUFFER] == this.buffer[(this.matchPos-r)&PAQ8_MASK_BUFFER] {
				r++
			}

			this.matchLen = r - 1
		}
	}
}

// matchPrediction returns the match sub-model output in the stretched
// domain, scaled with the match length.
func (this *Paq8) matchPrediction() float32 {
	p := int32(0)

	if this.matchLen > 0 {
		if this.c0 == ((int32(this.buffer[this.matchPos&PAQ8_MASK_BUFFER])&0xFF)|256)>>(8-this.bpos) {
			if this.matchLen <= 24 {
				p = this.matchLen
			} else {
				p = 24 + ((this.matchLen - 24) >> 3)
			}

			if (this.buffer[this.matchPos&PAQ8_MASK_BUFFER]>>(7-this.bpos))&1 == 0 {
				p = -p
			}

			p <<= 6
		} else {
			this.matchLen = 0
		}
	}

	return float32(p) / 256
}
