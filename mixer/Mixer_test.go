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
	"math"
	"testing"

	okapi "github.com/ldeneve/okapi-go"
)

func TestMixerInputClamps(t *testing.T) {
	in := NewMixerInput(1e-4)
	in.SetNumInputs(2)
	in.SetInput(0, 0)
	in.SetInput(1, 1)
	s := in.Inputs()

	if math.IsInf(float64(s[0]), 0) == true || math.IsInf(float64(s[1]), 0) == true {
		t.Errorf("stretched inputs must stay finite: %v", s)
	}

	in.SetStretchedInput(0, 1000)

	if s[0] > okapi.STRETCH_LIMIT {
		t.Errorf("stretched input must be clamped to the table domain: %v", s[0])
	}

	if p := in.Probs()[0]; p <= 0.5 || p > 1 {
		t.Errorf("companion probability incoherent: %v", p)
	}
}

func TestMixerLearnsConstantBit(t *testing.T) {
	in := NewMixerInput(1e-4)
	in.SetNumInputs(4)
	ctx := uint32(0)
	m := NewMixer(in, &ctx, 0.005, 1, 4)

	for i := 0; i < 2000; i++ {
		in.SetInput(0, 0.9)
		in.SetInput(1, 0.7)
		in.SetInput(2, 0.6)
		in.SetInput(3, 0.8)
		m.Mix()
		m.Perceive(1)
	}

	in.SetInput(0, 0.9)
	in.SetInput(1, 0.7)
	in.SetInput(2, 0.6)
	in.SetInput(3, 0.8)

	if p := okapi.Squash(m.Mix()); p < 0.9 {
		t.Errorf("mixer did not learn the constant bit: %v", p)
	}
}

func TestMixerWeightsStayFinite(t *testing.T) {
	in := NewMixerInput(1e-4)
	in.SetNumInputs(2)
	ctx := uint32(0)
	m := NewMixer(in, &ctx, 0.5, 4, 2)

	for i := 0; i < 10000; i++ {
		ctx = uint32(i) & 3
		in.SetInput(0, float32(i%97)/97)
		in.SetInput(1, 1-float32(i%89)/89)
		dot := m.Mix()

		if math.IsNaN(float64(dot)) == true || math.IsInf(float64(dot), 0) == true {
			t.Fatalf("mix output not finite at step %d", i)
		}

		m.Perceive(i & 1)
	}
}

func TestSSERefines(t *testing.T) {
	ctx := uint32(0)
	sse := NewSSE(&ctx, 256)
	p := sse.Process(0.7)

	if p <= 0 || p >= 1 {
		t.Fatalf("refined probability out of (0,1): %v", p)
	}

	for i := 0; i < 2000; i++ {
		sse.Process(0.7)
		sse.Perceive(1)
	}

	if p := sse.Process(0.7); p < 0.9 {
		t.Errorf("cells must learn the observed bit: %v", p)
	}

	// A distant bin is barely affected
	if p := sse.Process(0.01); p > 0.5 {
		t.Errorf("unrelated bin moved too much: %v", p)
	}
}

func allTrue() []bool {
	vocab := make([]bool, 256)

	for i := range vocab {
		vocab[i] = true
	}

	return vocab
}

func TestByteMixerConfigErrors(t *testing.T) {
	acc := uint32(1)

	if _, err := NewByteMixer(3, 100, 3, 40, 0.03, &acc, allTrue(), 256); err == nil {
		t.Error("three layers must be rejected")
	}

	if _, err := NewByteMixer(3, 100, 2, 40, 0.03, &acc, make([]bool, 5), 5); err == nil {
		t.Error("a short vocabulary must be rejected")
	}
}

func TestByteMixerMasksVocabulary(t *testing.T) {
	vocab := allTrue()
	vocab[0] = false
	vocab[255] = false
	acc := uint32(1)
	bm, err := NewByteMixer(1, 100, 2, 40, 0.03, &acc, vocab, 254)

	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 256; i++ {
		bm.SetInput(0, i, 1.0/256)
	}

	bm.ByteUpdate()
	dist := bm.BytePredict()
	sum := float32(0)

	for i, p := range dist {
		if vocab[i] == false && p != 0 {
			t.Fatalf("masked byte %d has mass %v", i, p)
		}

		sum += p
	}

	if math.Abs(float64(sum-1)) > 1e-3 {
		t.Errorf("distribution must renormalise to 1, got %v", sum)
	}
}

func TestByteMixerShortCircuit(t *testing.T) {
	vocab := make([]bool, 256)
	vocab['A'] = true
	acc := uint32(1)
	bm, err := NewByteMixer(1, 100, 2, 40, 0.03, &acc, vocab, 1)

	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 256; i++ {
		bm.SetInput(0, i, 1.0/256)
	}

	bm.ByteUpdate()

	// With a single admitted byte every bit of it is certain.
	acc = 1

	for i := 7; i >= 0; i-- {
		bit := int('A'>>uint(i)) & 1
		p := bm.Predict()

		if p != float32(bit) {
			t.Fatalf("expected the degenerate value %d, got %v", bit, p)
		}

		acc = acc<<1 | uint32(bit)
	}
}

func TestByteMixerTrainsTowardObserved(t *testing.T) {
	vocab := allTrue()
	acc := uint32(1)
	bm, err := NewByteMixer(1, 100, 2, 40, 0.03, &acc, vocab, 256)

	if err != nil {
		t.Fatal(err)
	}

	before := float32(-1)

	for round := 0; round < 50; round++ {
		for i := 0; i < 256; i++ {
			bm.SetInput(0, i, 1.0/256)
		}

		if round == 1 {
			before = bm.BytePredict()['Q']
		}

		acc = 256 + 'Q' // the byte-update phase sees the completed byte
		bm.ByteUpdate()
		acc = 1
	}

	after := bm.BytePredict()['Q']

	if after <= before {
		t.Errorf("observed byte mass must increase: %v then %v", before, after)
	}
}
