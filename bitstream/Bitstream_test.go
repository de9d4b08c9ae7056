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
	"bytes"
	"testing"

	okapi "github.com/ldeneve/okapi-go"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	obs, err := NewDefaultOutputBitStream(&buf, 16384)

	if err != nil {
		t.Fatal(err)
	}

	values := []struct {
		bits   uint64
		length uint
	}{
		{1, 1}, {0, 1}, {0x2A, 7}, {uint64(okapi.STREAM_MAGIC), 32},
		{0xFFFFFFFFFFFFFF, 56}, {0, 64}, {0x123456789ABCDEF0, 64}, {5, 3},
	}

	for _, v := range values {
		obs.WriteBits(v.bits, v.length)
	}

	if _, err := obs.Close(); err != nil {
		t.Fatal(err)
	}

	ibs, err := NewDefaultInputBitStream(&buf, 16384)

	if err != nil {
		t.Fatal(err)
	}

	for i, v := range values {
		if got := ibs.ReadBits(v.length); got != v.bits {
			t.Fatalf("value %d: got %x, expected %x", i, got, v.bits)
		}
	}
}

func TestSingleBits(t *testing.T) {
	var buf bytes.Buffer
	obs, _ := NewDefaultOutputBitStream(&buf, 1024)
	pattern := []int{1, 0, 1, 1, 0, 0, 1, 0, 1, 1, 1, 0, 0, 0, 1, 1, 0}

	for _, bit := range pattern {
		obs.WriteBit(bit)
	}

	if obs.Written() != uint64(len(pattern)) {
		t.Errorf("Written: got %d, expected %d", obs.Written(), len(pattern))
	}

	obs.Close()
	ibs, _ := NewDefaultInputBitStream(&buf, 1024)

	for i, bit := range pattern {
		if got := ibs.ReadBit(); got != bit {
			t.Fatalf("bit %d: got %d, expected %d", i, got, bit)
		}
	}
}

func TestReadPastEndReturnsZeros(t *testing.T) {
	var buf bytes.Buffer
	obs, _ := NewDefaultOutputBitStream(&buf, 1024)
	obs.WriteBits(0xFF, 8)
	obs.Close()
	ibs, _ := NewDefaultInputBitStream(&buf, 1024)
	ibs.ReadBits(8)

	if got := ibs.ReadBits(32); got != 0 {
		t.Errorf("reads past the end must return zero bits, got %x", got)
	}
}

func TestWriteAfterCloseRejected(t *testing.T) {
	var buf bytes.Buffer
	obs, _ := NewDefaultOutputBitStream(&buf, 1024)
	obs.WriteBit(1)
	obs.Close()

	defer func() {
		if recover() == nil {
			t.Error("writing to a closed stream must panic")
		}
	}()

	obs.WriteBit(0)
}
