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

// MixerInput holds the input vector shared by all mixers of one layer:
// the raw probabilities and their stretched form. Probabilities are
// clamped away from 0 and 1 before stretching; stretched values are
// clamped to the stretcher's table domain.
type MixerInput struct {
	minProb   float32
	probs     []float32
	stretched []float32
}

func NewMixerInput(minProb float32) *MixerInput {
	this := new(MixerInput)
	this.minProb = minProb
	return this
}

// SetNumInputs sizes the input vectors. Called once during wiring.
func (this *MixerInput) SetNumInputs(n int) {
	this.probs = make([]float32, n)
	this.stretched = make([]float32, n)
}

// SetInput publishes a probability at the given slot.
func (this *MixerInput) SetInput(i int, p float32) {
	if p < this.minProb {
		p = this.minProb
	} else if p > 1-this.minProb {
		p = 1 - this.minProb
	}

	this.probs[i] = p
	this.stretched[i] = okapi.Stretch(p)
}

// SetStretchedInput publishes an already stretched value at the given slot.
func (this *MixerInput) SetStretchedInput(i int, s float32) {
	if s > okapi.STRETCH_LIMIT {
		s = okapi.STRETCH_LIMIT
	} else if s < -okapi.STRETCH_LIMIT {
		s = -okapi.STRETCH_LIMIT
	}

	this.stretched[i] = s
	this.probs[i] = okapi.Squash(s)
}

// Inputs returns the stretched input vector.
func (this *MixerInput) Inputs() []float32 {
	return this.stretched
}

// Probs returns the probability input vector.
func (this *MixerInput) Probs() []float32 {
	return this.probs
}
