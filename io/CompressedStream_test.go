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

package io

import (
	"bytes"
	"testing"
)

func vocabOf(data []byte) []bool {
	vocab := make([]bool, 256)

	if len(data) == 0 {
		for i := range vocab {
			vocab[i] = true
		}

		return vocab
	}

	for _, b := range data {
		vocab[b] = true
	}

	return vocab
}

func TestCompressedStreamRoundTrip(t *testing.T) {
	data := []byte("To be, or not to be, that is the question:\n" +
		"Whether 'tis nobler in the mind to suffer\n" +
		"The slings and arrows of outrageous fortune.\n")
	var buf bytes.Buffer
	written, err := Compress(&buf, data, vocabOf(data))

	if err != nil {
		t.Fatal(err)
	}

	if written == 0 || int(written) != buf.Len() {
		t.Errorf("reported %d bytes written, buffer holds %d", written, buf.Len())
	}

	decoded, err := Decompress(&buf)

	if err != nil {
		t.Fatal(err)
	}

	if bytes.Equal(data, decoded) == false {
		t.Fatal("round trip failed")
	}
}

func TestCompressedStreamEmptyInput(t *testing.T) {
	var buf bytes.Buffer

	if _, err := Compress(&buf, nil, vocabOf(nil)); err != nil {
		t.Fatal(err)
	}

	decoded, err := Decompress(&buf)

	if err != nil {
		t.Fatal(err)
	}

	if len(decoded) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(decoded))
	}
}

func TestInvalidMagicRejected(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0}

	if _, err := Decompress(bytes.NewReader(data)); err == nil {
		t.Error("an invalid magic must be rejected")
	}
}

func TestInvalidVocabularyRejected(t *testing.T) {
	var buf bytes.Buffer

	if _, err := Compress(&buf, []byte("x"), make([]bool, 3)); err == nil {
		t.Error("an invalid vocabulary length must be rejected")
	}
}

func TestChecksumMismatchRejected(t *testing.T) {
	data := []byte("checksums catch corrupted payloads")
	var buf bytes.Buffer

	if _, err := Compress(&buf, data, vocabOf(data)); err != nil {
		t.Fatal(err)
	}

	// The header (magic, version, length, vocabulary, checksum) takes 49
	// bytes; flip a bit in the middle of the coded payload after it.
	corrupted := buf.Bytes()
	corrupted[49+(len(corrupted)-49)/2] ^= 0x40

	if _, err := Decompress(bytes.NewReader(corrupted)); err == nil {
		t.Error("a corrupted payload must be rejected")
	}
}
