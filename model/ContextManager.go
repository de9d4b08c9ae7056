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
	okapi "github.com/ldeneve/okapi-go"
)

const (
	// HISTORY_SIZE is the capacity of the observed-byte ring. Power of two.
	HISTORY_SIZE = 1 << 24
	HISTORY_MASK = HISTORY_SIZE - 1

	// NUM_RECENT_BYTES is the number of published trailing bytes.
	NUM_RECENT_BYTES = 8

	// NUM_WORDS is the number of published word hashes: the in-flight
	// word first, then the previous words.
	NUM_WORDS = 8

	// MAX_LINE_BREAK caps the published distance since the last newline.
	MAX_LINE_BREAK = 99

	// MAX_LONGEST_MATCH caps the published longest match bucket.
	MAX_LONGEST_MATCH = 7
)

// Derived is a context registered with the ContextManager. Refresh is
// invoked by the registry, in registration order, each time the shared
// state advances.
type Derived interface {
	GetContext() *uint32

	Size() uint64

	Refresh()
}

// ContextManager owns all state shared between models: the partial byte
// accumulator, the trailing bytes, the word history, the observed-byte
// ring and the compact-state resources. Everything is mutated in
// Perceive/FinishByte only; between those calls all fields are read-only
// to models, which hold pointers to individual fields.
type ContextManager struct {
	// BitContext accumulates the bits of the in-flight byte, MSB first,
	// prefixed by a sentinel 1. It is 1..255 while a byte is partial and
	// reaches 256+b transiently once byte b completes, until FinishByte.
	BitContext uint32

	// LongBitContext is BitContext reduced to 8 bits; it stays below 256
	// at all times and gates mixer row selection.
	LongBitContext uint32

	// ZeroContext is the constant context of the global mixers.
	ZeroContext uint32

	// RecentBytes publishes the trailing bytes, most recent first.
	RecentBytes []uint32

	// Words publishes the hash of the in-flight word followed by the
	// hashes of the preceding words.
	Words []uint32

	// LongestMatch is the bucketed length of the longest active match,
	// zeroed at each byte boundary and raised by the match models.
	LongestMatch uint32

	// LineBreak is the capped distance since the last newline.
	LineBreak uint32

	history []byte
	pos     uint32

	Nonstationary *Nonstationary
	RunStates     *RunStates
	SharedMap     *SharedMap

	contexts    []Derived
	bitContexts []Derived
}

func NewContextManager() *ContextManager {
	this := new(ContextManager)
	this.BitContext = 1
	this.LongBitContext = 1
	this.RecentBytes = make([]uint32, NUM_RECENT_BYTES)
	this.Words = make([]uint32, NUM_WORDS)
	this.history = make([]byte, HISTORY_SIZE)
	this.Nonstationary = NewNonstationary()
	this.RunStates = NewRunStates()
	this.SharedMap = NewSharedMap()
	return this
}

// AddContext registers a byte-granular derived context. Registration
// order is evaluation order.
func (this *ContextManager) AddContext(ctx Derived) Derived {
	this.contexts = append(this.contexts, ctx)
	ctx.Refresh()
	return ctx
}

// AddBitContext registers a context combining a base context with the
// bit accumulator; it is refreshed on every bit.
func (this *ContextManager) AddBitContext(ctx Derived) Derived {
	this.bitContexts = append(this.bitContexts, ctx)
	ctx.Refresh()
	return ctx
}

// HistoryByte returns the byte observed i positions ago (0 = most
// recent), or 0 before enough input has been seen.
func (this *ContextManager) HistoryByte(i uint32) byte {
	if i >= this.pos {
		return 0
	}

	return this.history[(this.pos-1-i)&HISTORY_MASK]
}

// HistoryAt returns the byte at the given absolute position.
func (this *ContextManager) HistoryAt(pos uint32) byte {
	return this.history[pos&HISTORY_MASK]
}

// Pos returns the number of whole bytes observed.
func (this *ContextManager) Pos() uint32 {
	return this.pos
}

// Perceive appends one bit to the accumulator. When the accumulator
// completes a byte, the byte-level state rolls over and every registered
// byte context is re-evaluated; the accumulator stays at 256+b until
// FinishByte so the byte-update phase can still address the completed
// byte.
func (this *ContextManager) Perceive(bit int) {
	this.BitContext += this.BitContext + uint32(bit)
	this.LongBitContext = this.BitContext & 0xFF

	if this.BitContext < 256 {
		for _, ctx := range this.bitContexts {
			ctx.Refresh()
		}

		return
	}

	b := byte(this.BitContext)
	this.history[this.pos&HISTORY_MASK] = b
	this.pos++

	for i := NUM_RECENT_BYTES - 1; i > 0; i-- {
		this.RecentBytes[i] = this.RecentBytes[i-1]
	}

	this.RecentBytes[0] = uint32(b)
	this.updateWords(b)

	if b == '\n' {
		this.LineBreak = 0
	} else if this.LineBreak < MAX_LINE_BREAK {
		this.LineBreak++
	}

	this.LongestMatch = 0

	for _, ctx := range this.contexts {
		ctx.Refresh()
	}
}

// FinishByte resets the accumulator after the byte-update phase and
// refreshes the bit-granular contexts for the next bit.
func (this *ContextManager) FinishByte() {
	this.BitContext = 1
	this.LongBitContext = 1

	for _, ctx := range this.bitContexts {
		ctx.Refresh()
	}
}

func (this *ContextManager) updateWords(b byte) {
	c := b

	if c >= 'A' && c <= 'Z' {
		c += 'a' - 'A'
	}

	if c >= 'a' && c <= 'z' {
		this.Words[0] = okapi.CombineHash(this.Words[0], uint32(c))
		return
	}

	if this.Words[0] != 0 {
		for i := NUM_WORDS - 1; i > 0; i-- {
			this.Words[i] = this.Words[i-1]
		}

		this.Words[0] = 0
	}
}
