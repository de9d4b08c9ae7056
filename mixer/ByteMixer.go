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

package mixer

import (
	"math/bits"

	"github.com/pkg/errors"

	okapi "github.com/ldeneve/okapi-go"
)

const (
	// BYTE_MIXER_INIT_SCALE bounds the pseudorandom initial weights.
	BYTE_MIXER_INIT_SCALE = float32(0.5)
)

// ByteMixer mixes the byte distributions of every byte model into one
// distribution through a small feed-forward network: one hidden layer,
// logistic activations read back into the stretched domain through the
// tables, a 256-way sigmoid output masked by the vocabulary and
// renormalised. It trains online by backpropagation once per byte.
// When the masked output leaves exactly one value for the next bit, the
// degenerate probability (0 or 1) is surfaced unchanged so the caller
// can short-circuit.
type ByteMixer struct {
	numModels int
	clip      float32
	hidden    int
	learnRate float32
	bitCtx    *uint32
	vocab     []bool
	vocabSize int
	x         []float32
	pending   []float32
	w1        [][]float32
	b1        []float32
	w2        [][]float32
	b2        []float32
	z1        []float32
	h         []float32
	out       []float32
	delta1    []float32
	delta2    []float32
	probs     [256]float32
	primed    bool
}

func NewByteMixer(numModels int, clip float32, numLayers, hidden int, learnRate float32,
	bitCtx *uint32, vocab []bool, vocabSize int) (*ByteMixer, error) {
	if len(vocab) != 256 {
		return nil, errors.Errorf("invalid vocabulary length %d (must be 256)", len(vocab))
	}

	if numLayers != 2 {
		return nil, errors.Errorf("invalid number of layers %d (must be 2)", numLayers)
	}

	this := new(ByteMixer)
	this.numModels = numModels
	this.clip = clip
	this.hidden = hidden
	this.learnRate = learnRate
	this.bitCtx = bitCtx
	this.vocab = vocab
	this.vocabSize = vocabSize
	in := numModels * 256
	this.x = make([]float32, in)
	this.pending = make([]float32, in)
	this.w1 = make([][]float32, hidden)
	this.b1 = make([]float32, hidden)
	this.w2 = make([][]float32, 256)
	this.b2 = make([]float32, 256)
	this.z1 = make([]float32, hidden)
	this.h = make([]float32, hidden)
	this.out = make([]float32, 256)
	this.delta1 = make([]float32, hidden)
	this.delta2 = make([]float32, 256)
	rnd := okapi.NewXorShift(okapi.RANDOM_SEED)

	for j := range this.w1 {
		this.w1[j] = make([]float32, in)

		for i := range this.w1[j] {
			this.w1[j][i] = rnd.NextFloat(BYTE_MIXER_INIT_SCALE)
		}
	}

	for k := range this.w2 {
		this.w2[k] = make([]float32, hidden)

		for j := range this.w2[k] {
			this.w2[k][j] = rnd.NextFloat(BYTE_MIXER_INIT_SCALE)
		}
	}

	uniform := float32(1) / float32(vocabSize)

	for i := range this.probs {
		if vocab[i] == true {
			this.probs[i] = uniform
		}
	}

	return this, nil
}

// SetInput publishes one entry of one byte model's distribution. The
// values take effect at the next ByteUpdate.
func (this *ByteMixer) SetInput(model, i int, p float32) {
	this.pending[model*256+i] = p
}

// BytePredict returns the current mixed distribution.
func (this *ByteMixer) BytePredict() []float32 {
	return this.probs[:]
}

// Predict bit-slices the mixed distribution against the accumulator.
// Unlike the byte models the result is not clamped: a degenerate 0 or 1
// is the short-circuit sentinel.
func (this *ByteMixer) Predict() float32 {
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

	return ones / total
}

func (this *ByteMixer) Perceive(bit int) {
}

// ByteUpdate first trains on the byte just completed, against the
// inputs that produced the current distribution, then runs a forward
// pass over the freshly published inputs.
func (this *ByteMixer) ByteUpdate() {
	if this.primed == true && *this.bitCtx >= 256 {
		this.train(int(*this.bitCtx & 0xFF))
	}

	copy(this.x, this.pending)
	this.forward()
	this.primed = true
}

func (this *ByteMixer) clipGrad(g float32) float32 {
	if g > this.clip {
		return this.clip
	}

	if g < -this.clip {
		return -this.clip
	}

	return g
}

func (this *ByteMixer) train(observed int) {
	delta2 := this.delta2

	for k := 0; k < 256; k++ {
		target := float32(0)

		if k == observed {
			target = 1
		}

		delta2[k] = this.clipGrad(this.out[k] - target)
	}

	delta1 := this.delta1

	for j := 0; j < this.hidden; j++ {
		sum := float32(0)

		for k := 0; k < 256; k++ {
			sum += this.w2[k][j] * delta2[k]
		}

		// The table-backed activation is treated as the identity
		// inside +-STRETCH_LIMIT and as flat outside it.
		if this.z1[j] >= okapi.STRETCH_LIMIT || this.z1[j] <= -okapi.STRETCH_LIMIT {
			sum = 0
		}

		delta1[j] = this.clipGrad(sum)
	}

	for k := 0; k < 256; k++ {
		w := this.w2[k]

		for j := 0; j < this.hidden; j++ {
			w[j] -= this.learnRate * delta2[k] * this.h[j]
		}

		this.b2[k] -= this.learnRate * delta2[k]
	}

	for j := 0; j < this.hidden; j++ {
		w := this.w1[j]

		for i := range this.x {
			w[i] -= this.learnRate * delta1[j] * this.x[i]
		}

		this.b1[j] -= this.learnRate * delta1[j]
	}
}

func (this *ByteMixer) forward() {
	for j := 0; j < this.hidden; j++ {
		z := this.b1[j]
		w := this.w1[j]

		for i := range this.x {
			z += w[i] * this.x[i]
		}

		this.z1[j] = z
		this.h[j] = okapi.Stretch(okapi.Squash(z))
	}

	total := float32(0)

	for k := 0; k < 256; k++ {
		z := this.b2[k]
		w := this.w2[k]

		for j := 0; j < this.hidden; j++ {
			z += w[j] * this.h[j]
		}

		this.out[k] = okapi.Squash(z)

		if this.vocab[k] == true {
			this.probs[k] = this.out[k]
			total += this.probs[k]
		} else {
			this.probs[k] = 0
		}
	}

	if total > 0 {
		for k := range this.probs {
			this.probs[k] /= total
		}

		return
	}

	uniform := float32(1) / float32(this.vocabSize)

	for k := range this.probs {
		if this.vocab[k] == true {
			this.probs[k] = uniform
		}
	}
}
