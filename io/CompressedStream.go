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
	"io"
	"time"

	"github.com/pkg/errors"

	okapi "github.com/ldeneve/okapi-go"
	"github.com/ldeneve/okapi-go/bitstream"
	"github.com/ldeneve/okapi-go/coder"
	"github.com/ldeneve/okapi-go/predictor"
	"github.com/ldeneve/okapi-go/util/hash"
)

const (
	_STREAM_BUFFER_SIZE   = 1 << 16
	_PROGRESS_GRANULARITY = 1 << 16
)

// Compress writes one framed compressed stream: magic, version, the
// original length, the vocabulary table, a checksum of the original
// data, then the arithmetic coded payload. The same vocabulary must be
// used for compression and decompression; storing it in the frame
// guarantees the decoder rebuilds the same predictor.
func Compress(os io.Writer, data []byte, vocab []bool, listeners ...okapi.Listener) (uint64, error) {
	if len(vocab) != 256 {
		return 0, errors.Errorf("invalid vocabulary length %d (must be 256)", len(vocab))
	}

	obs, err := bitstream.NewDefaultOutputBitStream(os, _STREAM_BUFFER_SIZE)

	if err != nil {
		return 0, errors.Wrap(err, "cannot create output bitstream")
	}

	pred, err := predictor.New(vocab)

	if err != nil {
		return 0, errors.Wrap(err, "cannot create predictor")
	}

	enc, err := coder.NewBinaryEncoder(obs, pred)

	if err != nil {
		return 0, errors.Wrap(err, "cannot create encoder")
	}

	xxh, _ := hash.NewXXHash32(okapi.STREAM_MAGIC)
	checksum := xxh.Hash(data)
	obs.WriteBits(uint64(okapi.STREAM_MAGIC), 32)
	obs.WriteBits(okapi.STREAM_VERSION, 8)
	obs.WriteBits(uint64(len(data)), 64)

	for i := 0; i < 256; i++ {
		bit := 0

		if vocab[i] == true {
			bit = 1
		}

		obs.WriteBit(bit)
	}

	obs.WriteBits(uint64(checksum), 32)

	for i, b := range data {
		enc.EncodeByte(b)

		if (i+1)%_PROGRESS_GRANULARITY == 0 {
			notify(listeners, okapi.NewEvent(okapi.EVT_PROGRESS, int64(i+1), 0, false, time.Time{}))
		}
	}

	enc.Dispose()

	if _, err := obs.Close(); err != nil {
		return 0, errors.Wrap(err, "cannot close output bitstream")
	}

	return (obs.Written() + 7) >> 3, nil
}

// Decompress reads one framed stream produced by Compress and returns
// the original data. The magic, version and checksum are validated.
func Decompress(is io.Reader, listeners ...okapi.Listener) ([]byte, error) {
	ibs, err := bitstream.NewDefaultInputBitStream(is, _STREAM_BUFFER_SIZE)

	if err != nil {
		return nil, errors.Wrap(err, "cannot create input bitstream")
	}

	if magic := uint32(ibs.ReadBits(32)); magic != okapi.STREAM_MAGIC {
		return nil, errors.Errorf("invalid stream magic %x", magic)
	}

	if version := ibs.ReadBits(8); version != okapi.STREAM_VERSION {
		return nil, errors.Errorf("unsupported stream version %d", version)
	}

	size := ibs.ReadBits(64)

	if size > 1<<40 {
		return nil, errors.Errorf("invalid stream length %d", size)
	}

	vocab := make([]bool, 256)

	for i := 0; i < 256; i++ {
		vocab[i] = ibs.ReadBit() == 1
	}

	checksum := uint32(ibs.ReadBits(32))
	pred, err := predictor.New(vocab)

	if err != nil {
		return nil, errors.Wrap(err, "cannot create predictor")
	}

	dec, err := coder.NewBinaryDecoder(ibs, pred)

	if err != nil {
		return nil, errors.Wrap(err, "cannot create decoder")
	}

	dec.Initialize()
	data := make([]byte, size)

	for i := range data {
		data[i] = dec.DecodeByte()

		if (i+1)%_PROGRESS_GRANULARITY == 0 {
			notify(listeners, okapi.NewEvent(okapi.EVT_PROGRESS, int64(i+1), 0, false, time.Time{}))
		}
	}

	xxh, _ := hash.NewXXHash32(okapi.STREAM_MAGIC)

	if actual := xxh.Hash(data); actual != checksum {
		return nil, errors.Errorf("checksum mismatch: %x instead of %x", actual, checksum)
	}

	return data, nil
}

func notify(listeners []okapi.Listener, evt *okapi.Event) {
	for _, l := range listeners {
		l.ProcessEvent(evt)
	}
}
