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

package okapi

import (
	"math"
)

const (
	// LOGISTIC_TABLE_SIZE is the fixed resolution of the squash and
	// stretch tables.
	LOGISTIC_TABLE_SIZE = 10000

	// STRETCH_LIMIT bounds the domain of the squash table. Stretched
	// values outside [-STRETCH_LIMIT, STRETCH_LIMIT] are clipped.
	STRETCH_LIMIT = float32(16)

	// RANDOM_SEED is the fixed seed for any stochastic initialisation.
	// Part of the wire format.
	RANDOM_SEED = uint32(0xDEADBEEF)

	HASH32 = uint32(0x7FEB352D)
)

// SQUASH contains 1/(1+exp(-x)) sampled over [-STRETCH_LIMIT, STRETCH_LIMIT].
var SQUASH [LOGISTIC_TABLE_SIZE + 1]float32

// STRETCH is the inverse of squash: ln(p/(1-p)) sampled over [0, 1].
// The first and last entries are clamped to the values one table step in.
var STRETCH [LOGISTIC_TABLE_SIZE + 1]float32

func init() {
	for i := 0; i <= LOGISTIC_TABLE_SIZE; i++ {
		x := float64(2*i-LOGISTIC_TABLE_SIZE) / float64(LOGISTIC_TABLE_SIZE) * float64(STRETCH_LIMIT)
		SQUASH[i] = float32(1 / (1 + math.Exp(-x)))
	}

	for i := 1; i < LOGISTIC_TABLE_SIZE; i++ {
		p := float64(i) / float64(LOGISTIC_TABLE_SIZE)
		STRETCH[i] = float32(math.Log(p / (1 - p)))
	}

	STRETCH[0] = STRETCH[1]
	STRETCH[LOGISTIC_TABLE_SIZE] = STRETCH[LOGISTIC_TABLE_SIZE-1]
}

// Squash returns 1/(1+exp(-x)) with the table's fixed resolution.
func Squash(x float32) float32 {
	if x >= STRETCH_LIMIT {
		return SQUASH[LOGISTIC_TABLE_SIZE]
	}

	if x <= -STRETCH_LIMIT {
		return SQUASH[0]
	}

	t := (x + STRETCH_LIMIT) * float32(LOGISTIC_TABLE_SIZE) / (2 * STRETCH_LIMIT)
	i := int(t)
	w := t - float32(i)
	return SQUASH[i]*(1-w) + SQUASH[i+1]*w
}

// Stretch returns ln(p/(1-p)) with the table's fixed resolution. The
// result is clipped to the table range.
func Stretch(p float32) float32 {
	if p <= 0 {
		return STRETCH[0]
	}

	if p >= 1 {
		return STRETCH[LOGISTIC_TABLE_SIZE]
	}

	return STRETCH[int(p*float32(LOGISTIC_TABLE_SIZE)+0.5)]
}

// HashMix combines two context components into a well spread hash.
func HashMix(x, y uint32) uint32 {
	h := x*HASH32 ^ y*HASH32
	return h>>1 ^ h>>9 ^ x>>2 ^ y>>3 ^ HASH32
}

// CombineHash folds one more component into a rolling hash.
func CombineHash(h, x uint32) uint32 {
	return (h + x + 1) * HASH32
}

// XorShift is a deterministic pseudorandom generator. Every instance
// seeded with the same value produces the same sequence on every
// platform.
type XorShift struct {
	state uint32
}

// NewXorShift creates a generator from a non-zero seed.
func NewXorShift(seed uint32) *XorShift {
	if seed == 0 {
		seed = RANDOM_SEED
	}

	return &XorShift{state: seed}
}

// Next returns the next 32 bits of the sequence.
func (this *XorShift) Next() uint32 {
	x := this.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	this.state = x
	return x
}

// NextFloat returns a value uniformly distributed in [-scale, scale].
func (this *XorShift) NextFloat(scale float32) float32 {
	return (float32(this.Next()>>8)/float32(1<<24)*2 - 1) * scale
}

// Min returns the minimum of 2 values without a branch
func Min(x, y int32) int32 {
	return y + (((x - y) >> 31) & (x - y))
}

// Max returns the maximum of 2 values without a branch
func Max(x, y int32) int32 {
	return x - (((x - y) >> 31) & (x - y))
}

// Abs returns the absolute value of the input without a branch
func Abs(x int32) int32 {
	return (x + (x >> 31)) ^ (x >> 31)
}

// IsPowerOf2 returns true if the input value is a power of two
func IsPowerOf2(x int32) bool {
	return (x & (x - 1)) == 0
}
