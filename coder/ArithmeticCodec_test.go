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

package coder

import (
	"bytes"
	"testing"

	"github.com/ldeneve/okapi-go/bitstream"
)

// order0Predictor is a small adaptive order 0 model, enough to exercise
// the codec: one probability per bit-context of the in-flight byte.
type order0Predictor struct {
	probs  [256]float32
	ctxIdx int
}

func newOrder0Predictor() *order0Predictor {
	this := new(order0Predictor)
	this.ctxIdx = 1

	for i := range this.probs {
		this.probs[i] = 0.5
	}

	return this
}

func (this *order0Predictor) Predict() float32 {
	return this.probs[this.ctxIdx]
}

func (this *order0Predictor) Perceive(bit int) {
	this.probs[this.ctxIdx] += (float32(bit) - this.probs[this.ctxIdx]) / 32

	if this.ctxIdx < 128 {
		this.ctxIdx = this.ctxIdx<<1 | bit
	} else {
		this.ctxIdx = 1
	}
}

func roundTrip(t *testing.T, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	obs, _ := bitstream.NewDefaultOutputBitStream(&buf, 16384)
	enc, err := NewBinaryEncoder(obs, newOrder0Predictor())

	if err != nil {
		t.Fatal(err)
	}

	for _, b := range data {
		enc.EncodeByte(b)
	}

	enc.Dispose()
	obs.Close()
	ibs, _ := bitstream.NewDefaultInputBitStream(&buf, 16384)
	dec, err := NewBinaryDecoder(ibs, newOrder0Predictor())

	if err != nil {
		t.Fatal(err)
	}

	dec.Initialize()
	decoded := make([]byte, len(data))

	for i := range decoded {
		decoded[i] = dec.DecodeByte()
	}

	if bytes.Equal(data, decoded) == false {
		t.Fatalf("round trip failed for %d bytes", len(data))
	}
}

func TestRoundTripText(t *testing.T) {
	roundTrip(t, []byte("The entropy of English is about one bit per character."))
}

func TestRoundTripZeros(t *testing.T) {
	roundTrip(t, make([]byte, 4096))
}

func TestRoundTripAllByteValues(t *testing.T) {
	data := make([]byte, 1024)

	for i := range data {
		data[i] = byte(i * 31)
	}

	roundTrip(t, data)
}

func TestRoundTripEmpty(t *testing.T) {
	roundTrip(t, nil)
}

func TestNullArguments(t *testing.T) {
	var buf bytes.Buffer
	obs, _ := bitstream.NewDefaultOutputBitStream(&buf, 16384)

	if _, err := NewBinaryEncoder(obs, nil); err == nil {
		t.Error("a null predictor must be rejected")
	}

	if _, err := NewBinaryEncoder(nil, newOrder0Predictor()); err == nil {
		t.Error("a null bitstream must be rejected")
	}
}

func TestQuantizeClamps(t *testing.T) {
	if quantize(0) != 1 || quantize(1) != 4095 {
		t.Error("degenerate probabilities must stay codable")
	}

	if quantize(0.5) != 2048 {
		t.Errorf("quantize(0.5) = %d, expected 2048", quantize(0.5))
	}
}
