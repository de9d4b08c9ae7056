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
	okapi "github.com/ldeneve/okapi-go"
)

const (
	// MAX_WEIGHT bounds every mixer weight after a gradient step.
	MAX_WEIGHT = float32(1e5)
)

// Mixer is a logistic regression neuron over the stretched inputs of
// its layer. The context id selects the weight row; rows are allocated
// lazily, up to size rows. One online gradient step is taken per bit
// against the row used for the last mix.
type Mixer struct {
	inputs    *MixerInput
	ctx       *uint32
	learnRate float32
	size      uint64
	numInputs int
	rows      map[uint32][]float32
	lastRow   []float32
	lastProb  float32
}

func NewMixer(inputs *MixerInput, ctx *uint32, learnRate float32, size uint64, numInputs int) *Mixer {
	this := new(Mixer)
	this.inputs = inputs
	this.ctx = ctx
	this.learnRate = learnRate
	this.size = size
	this.numInputs = numInputs
	this.rows = make(map[uint32][]float32)
	return this
}

func (this *Mixer) row() []float32 {
	w, ok := this.rows[*this.ctx]

	if ok == false {
		w = make([]float32, this.numInputs)
		this.rows[*this.ctx] = w
	}

	return w
}

// Mix returns the stretched output: the dot product of the selected
// weight row with the layer inputs, accumulated in slot order.
func (this *Mixer) Mix() float32 {
	w := this.row()
	in := this.inputs.Inputs()
	dot := float32(0)

	for i := 0; i < this.numInputs; i++ {
		dot += w[i] * in[i]
	}

	this.lastRow = w
	this.lastProb = okapi.Squash(dot)
	return dot
}

// Perceive takes one gradient step on the row used by the last Mix.
func (this *Mixer) Perceive(bit int) {
	w := this.lastRow

	if w == nil {
		return
	}

	err := (float32(bit) - this.lastProb) * this.learnRate
	in := this.inputs.Inputs()

	for i := 0; i < this.numInputs; i++ {
		w[i] += err * in[i]

		if w[i] > MAX_WEIGHT {
			w[i] = MAX_WEIGHT
		} else if w[i] < -MAX_WEIGHT {
			w[i] = -MAX_WEIGHT
		}
	}
}

// Size returns the maximum number of weight rows.
func (this *Mixer) Size() uint64 {
	return this.size
}
