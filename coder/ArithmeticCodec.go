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
	"github.com/pkg/errors"

	okapi "github.com/ldeneve/okapi-go"
)

const (
	BINARY_TOP = uint64(0x00FFFFFFFFFFFFFF)
	MASK_24_56 = uint64(0x00FFFFFFFF000000)
	MASK_0_56  = uint64(0x00FFFFFFFFFFFFFF)
	MASK_0_32  = uint64(0x00000000FFFFFFFF)
	MASK_0_24  = uint64(0x0000000000FFFFFF)
)

// quantize maps a probability to the 12-bit split scale, clamped away
// from the interval edges so a degenerate prediction stays codable.
func quantize(p float32) uint64 {
	v := int64(p * 4096)

	if v < 1 {
		v = 1
	} else if v > 4095 {
		v = 4095
	}

	return uint64(v)
}

// BinaryEncoder entropy codes single bits driven by the predictor, in
// lockstep with BinaryDecoder.
type BinaryEncoder struct {
	predictor okapi.Predictor
	low       uint64
	high      uint64
	bitstream okapi.OutputBitStream
	disposed  bool
}

func NewBinaryEncoder(bs okapi.OutputBitStream, predictor okapi.Predictor) (*BinaryEncoder, error) {
	if bs == nil {
		return nil, errors.New("invalid null bitstream parameter")
	}

	if predictor == nil {
		return nil, errors.New("invalid null predictor parameter")
	}

	this := new(BinaryEncoder)
	this.predictor = predictor
	this.high = BINARY_TOP
	this.bitstream = bs
	return this, nil
}

func (this *BinaryEncoder) EncodeByte(val byte) {
	this.EncodeBit(int(val>>7) & 1)
	this.EncodeBit(int(val>>6) & 1)
	this.EncodeBit(int(val>>5) & 1)
	this.EncodeBit(int(val>>4) & 1)
	this.EncodeBit(int(val>>3) & 1)
	this.EncodeBit(int(val>>2) & 1)
	this.EncodeBit(int(val>>1) & 1)
	this.EncodeBit(int(val) & 1)
}

func (this *BinaryEncoder) EncodeBit(bit int) {
	// Interval split, written to maximize the accuracy of the
	// multiplication/division
	split := (((this.high - this.low) >> 4) * quantize(this.predictor.Predict())) >> 8

	if bit == 1 {
		this.high = this.low + split
	} else {
		this.low += split + 1
	}

	this.predictor.Perceive(bit)

	// Emit the settled first 32 bits
	for (this.low^this.high)&MASK_24_56 == 0 {
		this.bitstream.WriteBits(this.high>>24, 32)
		this.low = (this.low << 32) & MASK_0_56
		this.high = ((this.high << 32) | MASK_0_32) & MASK_0_56
	}
}

// Dispose must be called once after the last encoded bit.
func (this *BinaryEncoder) Dispose() {
	if this.disposed == true {
		return
	}

	this.disposed = true
	this.bitstream.WriteBits(this.low|MASK_0_24, 56)
}

// BinaryDecoder runs the same predictor in lockstep with the encoder
// and reconstructs the bit stream.
type BinaryDecoder struct {
	predictor   okapi.Predictor
	low         uint64
	high        uint64
	current     uint64
	initialized bool
	bitstream   okapi.InputBitStream
}

func NewBinaryDecoder(bs okapi.InputBitStream, predictor okapi.Predictor) (*BinaryDecoder, error) {
	if bs == nil {
		return nil, errors.New("invalid null bitstream parameter")
	}

	if predictor == nil {
		return nil, errors.New("invalid null predictor parameter")
	}

	this := new(BinaryDecoder)
	this.predictor = predictor
	this.high = BINARY_TOP
	this.bitstream = bs
	return this, nil
}

// Initialize loads the first register. Deferred from construction so
// creating a decoder does no I/O.
func (this *BinaryDecoder) Initialize() {
	if this.initialized == true {
		return
	}

	this.current = this.bitstream.ReadBits(56)
	this.initialized = true
}

func (this *BinaryDecoder) DecodeByte() byte {
	return (this.DecodeBit() << 7) |
		(this.DecodeBit() << 6) |
		(this.DecodeBit() << 5) |
		(this.DecodeBit() << 4) |
		(this.DecodeBit() << 3) |
		(this.DecodeBit() << 2) |
		(this.DecodeBit() << 1) |
		this.DecodeBit()
}

func (this *BinaryDecoder) DecodeBit() byte {
	split := this.low + ((((this.high - this.low) >> 4) * quantize(this.predictor.Predict())) >> 8)
	var bit byte

	if split >= this.current {
		bit = 1
		this.high = split
		this.predictor.Perceive(1)
	} else {
		bit = 0
		this.low = split + 1
		this.predictor.Perceive(0)
	}

	// Pull the next 32 bits once the first 32 settled
	for (this.low^this.high)&MASK_24_56 == 0 {
		this.low = (this.low << 32) & MASK_0_56
		this.high = ((this.high << 32) | MASK_0_32) & MASK_0_56
		this.current = ((this.current << 32) | this.bitstream.ReadBits(32)) & MASK_0_56
	}

	return bit
}
