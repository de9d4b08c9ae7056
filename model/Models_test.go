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
	"math"
	"testing"

	okapi "github.com/ldeneve/okapi-go"
)

func TestDirectLearnsConstantBit(t *testing.T) {
	ctx := uint32(0)
	acc := uint32(1)
	direct := NewDirect(&ctx, &acc, 30, 0, 256)
	p := direct.Predict()

	if p < 0.49 || p > 0.51 {
		t.Fatalf("fresh cell must start near 0.5, got %v", p)
	}

	for i := 0; i < 500; i++ {
		direct.Perceive(1)
	}

	p = direct.Predict()

	if p < 0.9 || p >= 1 {
		t.Errorf("after 500 ones: got %v, expected in [0.9, 1)", p)
	}

	// Another context is untouched
	ctx = 7

	if q := direct.Predict(); q < 0.49 || q > 0.51 {
		t.Errorf("unrelated cell moved: %v", q)
	}
}

func TestDirectHashStaysInRange(t *testing.T) {
	ctx := uint32(123456789)
	acc := uint32(200)
	direct := NewDirectHash(&ctx, &acc, 30, 0, 100000)

	for i := 0; i < 2000; i++ {
		direct.Perceive(i & 1)

		if p := direct.Predict(); p <= 0 || p >= 1 {
			t.Fatalf("probability left (0,1): %v", p)
		}
	}
}

func TestIndirectLearns(t *testing.T) {
	ctx := uint32(99)
	acc := uint32(1)
	shared := NewSharedMap()
	ind := NewIndirect(NewNonstationary(), &ctx, &acc, 500, shared)

	for i := 0; i < 1000; i++ {
		ind.Perceive(1)
	}

	if p := ind.Predict(); p < 0.8 || p >= 1 {
		t.Errorf("after 1000 ones: got %v, expected in [0.8, 1)", p)
	}
}

func TestByteRunConfidenceGrowsWithRun(t *testing.T) {
	ctx := uint32(5)
	acc := uint32(1)
	run := NewByteRun(&ctx, &acc, 200, 1024)

	feed := func(b byte) {
		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1
			run.Perceive(bit)
			acc = acc<<1 | uint32(bit)
		}

		run.ByteUpdate()
		acc = 1
	}

	feed(0xFF)
	p1 := run.Predict() // expected next bit of 0xFF at a fresh accumulator
	feed(0xFF)
	feed(0xFF)
	feed(0xFF)
	p4 := run.Predict()

	if p1 <= 0.5 {
		t.Errorf("one observed byte must bias the prediction, got %v", p1)
	}

	if p4 <= p1 {
		t.Errorf("confidence must grow with the run: %v then %v", p1, p4)
	}

	// A conflicting accumulator silences the model
	acc = 2 // first bit was 0, inconsistent with 0xFF

	if p := run.Predict(); p != 0.5 {
		t.Errorf("inconsistent prefix must give 0.5, got %v", p)
	}
}

// driveModel runs bytes through the manager and one model following the
// predictor schedule.
func driveModel(cm *ContextManager, m okapi.Model, text []byte) {
	for _, b := range text {
		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1
			m.Predict()
			m.Perceive(bit)
			boundary := cm.BitContext >= 128
			cm.Perceive(bit)

			if boundary == true {
				m.ByteUpdate()
				cm.FinishByte()
			}
		}
	}
}

func TestMatchFindsRepeats(t *testing.T) {
	cm := NewContextManager()
	ctx := cm.AddContext(NewContextHash(cm, 2, 8))
	match := NewMatch(cm, ctx.GetContext(), &cm.BitContext, 200, 0.5, 1024,
		&cm.LongestMatch)
	driveModel(cm, match, []byte("abcdefabcdefabcdef"))

	if cm.LongestMatch == 0 {
		t.Error("a repeating pattern must produce a match")
	}

	if match.matchLen == 0 {
		t.Error("the match must still be active at the end of the repeats")
	}
}

func TestMatchPredictsExpectedBit(t *testing.T) {
	cm := NewContextManager()
	ctx := cm.AddContext(NewContextHash(cm, 1, 8))
	match := NewMatch(cm, ctx.GetContext(), &cm.BitContext, 200, 0.5, 1024,
		&cm.LongestMatch)
	driveModel(cm, match, []byte("xyxyxyxyxyxyxyxy"))

	// At a byte boundary the next expected byte is known; the first bit
	// of both 'x' and 'y' is 0, so the model must lean toward 0.
	if p := match.Predict(); p >= 0.5 {
		t.Errorf("expected a confident 0 bit, got %v", p)
	}
}

func TestBracketPrefersMatchingClose(t *testing.T) {
	vocab := make([]bool, 256)

	for i := range vocab {
		vocab[i] = true
	}

	acc := uint32(1)
	bracket := NewBracket(&acc, 200, 10, 100000, vocab)

	feed := func(b byte) {
		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1
			bracket.Perceive(bit)
			acc = acc<<1 | uint32(bit)
		}

		acc = 1
	}

	feed('(')

	// Probability of a whole byte is the product of its bit
	// probabilities; Predict is pure so candidates can be compared.
	byteProb := func(b byte) float64 {
		prob := float64(1)
		acc = 1

		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1
			p := float64(bracket.Predict())

			if bit == 0 {
				p = 1 - p
			}

			prob *= p
			acc = acc<<1 | uint32(bit)
		}

		acc = 1
		return prob
	}

	matching := byteProb(')')
	other := byteProb(']')
	letter := byteProb('x')

	if matching <= other || matching <= letter {
		t.Errorf("the matching close must be favored: ')'=%v ']'=%v 'x'=%v",
			matching, other, letter)
	}
}

func TestFacadeClamps(t *testing.T) {
	src := float32(0.75)
	f := NewFacade(&src)

	if f.Predict() != 0.75 {
		t.Error("facade must republish its source")
	}

	src = 1.5

	if f.Predict() != 1 {
		t.Error("facade must clamp to [0,1]")
	}

	src = 0

	if f.Predict() != 0 {
		t.Error("facade passes 0 through unchanged")
	}
}

func TestPPMFavorsSeenContinuation(t *testing.T) {
	vocab := make([]bool, 256)

	for i := range vocab {
		vocab[i] = true
	}

	cm := NewContextManager()
	ppm := NewPPM(2, cm, 10000, 1<<20, vocab)
	driveModel(cm, ppm, []byte("abababababababababababab"))

	dist := ppm.BytePredict()
	sum := float32(0)

	for _, p := range dist {
		sum += p
	}

	if math.Abs(float64(sum-1)) > 1e-3 {
		t.Errorf("distribution must sum to 1, got %v", sum)
	}

	// Last byte was 'b', so 'a' is the seen continuation.
	if dist['a'] < 0.5 {
		t.Errorf("'a' must dominate after 'b', got %v", dist['a'])
	}

	if p := ppm.Predict(); p <= 0 || p >= 1 {
		t.Errorf("bit probability out of (0,1): %v", p)
	}
}

func TestPPMDVocabularyMask(t *testing.T) {
	vocab := make([]bool, 256)
	vocab['a'] = true
	vocab['b'] = true
	cm := NewContextManager()
	ppmd := NewPPMD(4, 1, cm, vocab)
	driveModel(cm, ppmd, []byte("abab"))

	dist := ppmd.BytePredict()

	for i, p := range dist {
		if vocab[i] == false && p != 0 {
			t.Fatalf("masked byte %d has mass %v", i, p)
		}
	}
}

func TestDMCLearnsZeros(t *testing.T) {
	dmc := NewDMC(0.02, 70000000)

	for i := 0; i < 200; i++ {
		if p := dmc.Predict(); p <= 0 || p >= 1 {
			t.Fatalf("probability left (0,1): %v", p)
		}

		dmc.Perceive(0)
	}

	if p := dmc.Predict(); p > 0.3 {
		t.Errorf("after 200 zeros: got %v, expected below 0.3", p)
	}
}

func TestPaq8Deterministic(t *testing.T) {
	p1 := NewPaq8(11)
	p2 := NewPaq8(11)
	text := []byte("the rain in spain falls mainly on the plain")

	for _, b := range text {
		for i := 7; i >= 0; i-- {
			bit := int(b>>uint(i)) & 1

			if p1.Predict() != p2.Predict() {
				t.Fatal("identical instances diverged")
			}

			p1.Perceive(bit)
			p2.Perceive(bit)
		}
	}

	preds := p1.ModelPredictions()

	if len(preds) != PAQ8_NUM_INPUTS {
		t.Fatalf("expected %d sub-model predictions, got %d", PAQ8_NUM_INPUTS, len(preds))
	}

	for i, p := range preds {
		if p < 0 || p > 1 || math.IsNaN(float64(p)) == true {
			t.Errorf("sub-model %d prediction out of range: %v", i, p)
		}
	}
}
