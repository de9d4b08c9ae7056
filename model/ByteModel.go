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
	"math/bits"
)

// byteDistribution bit-slices a 256-way distribution over the next
// byte: the probability of the next bit is the share of the mass on the
// half of the bytes consistent with the accumulator whose next bit is 1.
// Concrete byte models embed it and refill probs in ByteUpdate.
type byteDistribution struct {
	probs  [256]float32
	bitCtx *uint32
}

func (this *byteDistribution) BytePredict() []float32 {
	return this.probs[:]
}

func (this *byteDistribution) Predict() float32 {
	acc := *this.bitCtx
	seen := uint(bits.Len32(acc)) - 1
	width := uint32(1) << (8 - seen)
	lo := acc<<(8-seen) - 256
	half := width >> 1
	total := float32(0)
	ones := float32(0)

	for i := lo; i < lo+half; i++ {
		total += this.probs[i]
	}

	for i := lo + half; i < lo+width; i++ {
		ones += this.probs[i]
		total += this.probs[i]
	}

	if total <= 0 {
		return 0.5
	}

	p := ones / total

	if p < 1e-6 {
		p = 1e-6
	} else if p > 1-1e-6 {
		p = 1 - 1e-6
	}

	return p
}

// maskAndNormalize removes the mass of the bytes outside the vocabulary
// and renormalizes the rest to sum to 1. With an empty remainder the
// mass is spread uniformly over the vocabulary.
func (this *byteDistribution) maskAndNormalize(vocab []bool, vocabSize int) {
	total := float32(0)

	for i := range this.probs {
		if vocab[i] == false {
			this.probs[i] = 0
		} else {
			total += this.probs[i]
		}
	}

	if total > 0 {
		for i := range this.probs {
			this.probs[i] /= total
		}

		return
	}

	uniform := float32(1) / float32(vocabSize)

	for i := range this.probs {
		if vocab[i] == true {
			this.probs[i] = uniform
		}
	}
}
