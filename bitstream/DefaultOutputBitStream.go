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

package bitstream

import (
	"io"

	"github.com/pkg/errors"
)

// DefaultOutputBitStream is a buffered bit writer over an io.Writer.
// Bits are packed MSB first into 64-bit words.
type DefaultOutputBitStream struct {
	closed    bool
	written   uint64
	current   uint64
	availBits uint
	os        io.Writer
	buffer    []byte
	position  int
}

// NewDefaultOutputBitStream creates a bitstream for writing, using the
// provided stream as the underlying I/O object.
func NewDefaultOutputBitStream(stream io.Writer, bufferSize uint) (*DefaultOutputBitStream, error) {
	if stream == nil {
		return nil, errors.New("invalid null output stream parameter")
	}

	if bufferSize < 1024 || bufferSize > 1<<29 {
		return nil, errors.Errorf("invalid buffer size %d (must be in [1024, 1<<29])", bufferSize)
	}

	this := new(DefaultOutputBitStream)
	this.os = stream
	this.buffer = make([]byte, bufferSize)
	this.availBits = 64
	return this, nil
}

// WriteBit writes the least significant bit of the input integer.
// Panics if the stream is closed or on an I/O error.
func (this *DefaultOutputBitStream) WriteBit(bit int) {
	this.WriteBits(uint64(bit&1), 1)
}

// WriteBits writes the length least significant bits of bits, most
// significant first. Returns the number of bits written. Panics if the
// stream is closed or on an I/O error.
func (this *DefaultOutputBitStream) WriteBits(bits uint64, length uint) uint {
	if this.closed == true {
		panic(errors.New("stream closed"))
	}

	if length == 0 || length > 64 {
		panic(errors.Errorf("invalid bit count %d (must be in [1..64])", length))
	}

	if length < 64 {
		bits &= (uint64(1) << length) - 1
	}

	if length < this.availBits {
		this.current |= bits << (this.availBits - length)
		this.availBits -= length
	} else {
		remaining := length - this.availBits
		this.current |= bits >> remaining
		this.pushCurrent()

		if remaining > 0 {
			this.current = bits << (64 - remaining)
			this.availBits = 64 - remaining
		}
	}

	this.written += uint64(length)
	return length
}

// pushCurrent appends the full 64-bit word to the buffer, flushing to
// the underlying stream when the buffer fills up.
func (this *DefaultOutputBitStream) pushCurrent() {
	for i := 7; i >= 0; i-- {
		this.buffer[this.position+7-i] = byte(this.current >> (8 * uint(i)))
	}

	this.position += 8
	this.current = 0
	this.availBits = 64

	if this.position >= len(this.buffer) {
		this.flush()
	}
}

func (this *DefaultOutputBitStream) flush() {
	if this.position == 0 {
		return
	}

	if _, err := this.os.Write(this.buffer[:this.position]); err != nil {
		panic(errors.Wrap(err, "cannot flush bitstream"))
	}

	this.position = 0
}

// Close pads the last byte with zeros, flushes and makes the stream
// unavailable for further writes.
func (this *DefaultOutputBitStream) Close() (bool, error) {
	if this.closed == true {
		return true, nil
	}

	if this.availBits < 64 {
		// Pad the pending word to a byte boundary and emit its used bytes.
		used := (64 - this.availBits + 7) >> 3
		for i := uint(0); i < used; i++ {
			this.buffer[this.position] = byte(this.current >> (56 - 8*i))
			this.position++
		}
	}

	this.flush()
	this.closed = true
	return true, nil
}

// Written returns the number of bits written so far.
func (this *DefaultOutputBitStream) Written() uint64 {
	return this.written
}
