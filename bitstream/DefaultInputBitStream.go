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

// DefaultInputBitStream is a buffered bit reader over an io.Reader.
// Reads past the end of the underlying stream return zero bits; the
// arithmetic decoder relies on this while draining its final register.
type DefaultInputBitStream struct {
	closed    bool
	read      uint64
	current   uint64
	availBits uint
	is        io.Reader
	buffer    []byte
	position  int
	limit     int
	eos       bool
}

// NewDefaultInputBitStream creates a bitstream for reading, using the
// provided stream as the underlying I/O object.
func NewDefaultInputBitStream(stream io.Reader, bufferSize uint) (*DefaultInputBitStream, error) {
	if stream == nil {
		return nil, errors.New("invalid null input stream parameter")
	}

	if bufferSize < 1024 || bufferSize > 1<<29 {
		return nil, errors.Errorf("invalid buffer size %d (must be in [1024, 1<<29])", bufferSize)
	}

	this := new(DefaultInputBitStream)
	this.is = stream
	this.buffer = make([]byte, bufferSize)
	return this, nil
}

// ReadBit returns the next bit of the stream.
// Panics if the stream is closed.
func (this *DefaultInputBitStream) ReadBit() int {
	return int(this.ReadBits(1))
}

// ReadBits returns the next length bits, most significant first.
// Panics if the stream is closed.
func (this *DefaultInputBitStream) ReadBits(length uint) uint64 {
	if this.closed == true {
		panic(errors.New("stream closed"))
	}

	if length == 0 || length > 64 {
		panic(errors.Errorf("invalid bit count %d (must be in [1..64])", length))
	}

	res := uint64(0)

	for length > 0 {
		if this.availBits == 0 {
			this.pullCurrent()
		}

		n := length

		if n > this.availBits {
			n = this.availBits
		}

		res = res<<n | this.current>>(64-n)
		this.current <<= n
		this.availBits -= n
		length -= n
		this.read += uint64(n)
	}

	return res
}

// pullCurrent refills the 64-bit cache, padding with zero bytes once
// the underlying stream is exhausted.
func (this *DefaultInputBitStream) pullCurrent() {
	w := uint64(0)

	for i := 0; i < 8; i++ {
		w = w<<8 | uint64(this.nextByte())
	}

	this.current = w
	this.availBits = 64
}

func (this *DefaultInputBitStream) nextByte() byte {
	if this.position >= this.limit {
		if this.eos == true {
			return 0
		}

		n, err := io.ReadFull(this.is, this.buffer)

		if err != nil {
			this.eos = true
		}

		this.position = 0
		this.limit = n

		if n == 0 {
			return 0
		}
	}

	b := this.buffer[this.position]
	this.position++
	return b
}

// Close makes the bitstream unavailable for further reads.
func (this *DefaultInputBitStream) Close() (bool, error) {
	this.closed = true
	return true, nil
}

// Read returns the number of bits read so far.
func (this *DefaultInputBitStream) Read() uint64 {
	return this.read
}
