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

package predictor

import (
	"math"
	"testing"
)

func allTrueVocab() []bool {
	vocab := make([]bool, 256)

	for i := range vocab {
		vocab[i] = true
	}

	return vocab
}

// feed runs the text through the predictor and returns every emitted
// probability.
func feed(t *testing.T, p *Predictor, text []byte) []float32 {
	t.Helper()
	probs := make([]float32, 0, 8*len(text))

	for _, b := range text {
		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1
			pr := p.Predict()

			if math.IsNaN(float64(pr)) == true || pr < 0 || pr > 1 {
				t.Fatalf("invalid probability %v", pr)
			}

			probs = append(probs, pr)
			p.Perceive(bit)
		}
	}

	return probs
}

func TestVocabularyLengthError(t *testing.T) {
	if _, err := New(make([]bool, 5)); err == nil {
		t.Error("a vocabulary of the wrong length must be rejected")
	}
}

func TestSingleByteRollover(t *testing.T) {
	p, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	probs := feed(t, p, []byte("A"))

	if len(probs) != 8 {
		t.Fatalf("expected 8 probabilities, got %d", len(probs))
	}

	if p.manager.BitContext != 1 {
		t.Errorf("accumulator after the 8th bit: got %d, expected 1", p.manager.BitContext)
	}

	if p.manager.RecentBytes[0] != 0x41 {
		t.Errorf("RecentBytes[0]: got %x, expected 41", p.manager.RecentBytes[0])
	}
}

func TestZeroRunConvergence(t *testing.T) {
	p, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	last := float32(0)

	for i := 0; i < 256; i++ {
		for j := 0; j < 8; j++ {
			last = p.Predict()
			p.Perceive(0)
		}
	}

	// Probability of the 0 bit on the last step
	if p0 := 1 - last; p0 <= 0.99 {
		t.Errorf("probability of the 0 bit after 256 zero bytes: %v, expected above 0.99", p0)
	}
}

func TestDeterminism(t *testing.T) {
	text := []byte("Determinism is part of the wire format (no exceptions).\n")
	p1, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	p2, _ := New(allTrueVocab())
	probs1 := feed(t, p1, text)
	probs2 := feed(t, p2, text)

	for i := range probs1 {
		if probs1[i] != probs2[i] {
			t.Fatalf("probability sequences diverged at bit %d: %v != %v",
				i, probs1[i], probs2[i])
		}
	}
}

func TestPrefixIndependence(t *testing.T) {
	full := []byte("prefix and suffix")
	prefix := full[:6]
	p1, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	probsFull := feed(t, p1, full)
	p2, _ := New(allTrueVocab())
	probsPrefix := feed(t, p2, prefix)

	for i := range probsPrefix {
		if probsPrefix[i] != probsFull[i] {
			t.Fatalf("prefix probabilities differ at bit %d: %v != %v",
				i, probsPrefix[i], probsFull[i])
		}
	}
}

func TestBracketCloseFavored(t *testing.T) {
	// The predictors are deterministic, so the probability assigned to
	// ')' after "(" can be compared with the one assigned to ']' by
	// running two fresh instances over the same prefix. A short warmup
	// of balanced pairs lets the mixers pick up the bracket signal.
	warmup := make([]byte, 0, 102)

	for i := 0; i < 50; i++ {
		warmup = append(warmup, '(', ')')
	}

	byteProb := func(text []byte) float64 {
		p, err := New(allTrueVocab())

		if err != nil {
			t.Fatal(err)
		}

		probs := feed(t, p, text)
		prob := float64(1)
		last := text[len(text)-1]

		for i := 0; i < 8; i++ {
			bit := int(last>>uint(7-i)) & 1
			pr := float64(probs[8*(len(text)-1)+i])

			if bit == 0 {
				pr = 1 - pr
			}

			prob *= pr
		}

		return prob
	}

	matching := byteProb(append(append([]byte{}, warmup...), '(', ')'))
	mismatched := byteProb(append(append([]byte{}, warmup...), '(', ']'))

	if matching <= mismatched {
		t.Errorf("the matching close must be more likely: ')'=%v ']'=%v",
			matching, mismatched)
	}
}

func TestSingleVocabularyByteShortCircuits(t *testing.T) {
	vocab := make([]bool, 256)
	vocab['Z'] = true
	p, err := New(vocab)

	if err != nil {
		t.Fatal(err)
	}

	for n := 0; n < 3; n++ {
		for i := 7; i >= 0; i-- {
			bit := int('Z'>>uint(i)) & 1
			pr := p.Predict()

			if pr != float32(bit) {
				t.Fatalf("expected the degenerate value %d, got %v", bit, pr)
			}

			p.Perceive(bit)
		}
	}
}

func TestAuxiliaryPassthrough(t *testing.T) {
	p, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	feed(t, p, []byte("spy"))
	p.Predict()

	for layer := 1; layer <= 2; layer++ {
		base := len(p.mixers[layer-1])
		inputs := p.layers[layer].Inputs()

		for i, aux := range p.auxiliary {
			expected := p.layers[0].Inputs()[aux]

			if inputs[base+i] != expected {
				t.Errorf("layer %d auxiliary slot %d: got %v, expected %v",
					layer, i, inputs[base+i], expected)
			}
		}
	}
}

func TestAuxiliaryRoster(t *testing.T) {
	p, err := New(allTrueVocab())

	if err != nil {
		t.Fatal(err)
	}

	// Two legacy predictors plus the byte mixer slot.
	if len(p.auxiliary) != 3 {
		t.Fatalf("expected 3 auxiliary inputs, got %d", len(p.auxiliary))
	}

	if p.auxiliary[2] != len(p.models)+len(p.byteModels) {
		t.Error("the byte mixer slot must be the last layer 0 input")
	}
}
