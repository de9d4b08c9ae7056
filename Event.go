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

package okapi

import (
	"fmt"
	"time"
)

const (
	EVT_COMPRESSION_START   = 0
	EVT_DECOMPRESSION_START = 1
	EVT_VOCABULARY_DONE     = 2
	EVT_PROGRESS            = 3
	EVT_COMPRESSION_END     = 4
	EVT_DECOMPRESSION_END   = 5
)

type Event struct {
	eventType int
	size      int64
	hash      uint32
	hashing   bool
	eventTime time.Time
	msg       string
}

func NewEventFromString(evtType int, msg string, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, size: 0, msg: msg, eventTime: evtTime}
}

func NewEvent(evtType int, size int64, hash uint32, hashing bool, evtTime time.Time) *Event {
	if evtTime.IsZero() {
		evtTime = time.Now()
	}

	return &Event{eventType: evtType, size: size, hash: hash,
		hashing: hashing, eventTime: evtTime}
}

func (this *Event) Type() int {
	return this.eventType
}

func (this *Event) Time() time.Time {
	return this.eventTime
}

func (this *Event) Size() int64 {
	return this.size
}

func (this *Event) Hash() uint32 {
	return this.hash
}

func (this *Event) Hashing() bool {
	return this.hashing
}

func (this *Event) String() string {
	if len(this.msg) > 0 {
		return this.msg
	}

	hash := ""
	t := ""

	if this.hashing == true {
		hash = fmt.Sprintf(", \"hash\": %x", this.hash)
	}

	switch this.eventType {
	case EVT_COMPRESSION_START:
		t = "COMPRESSION_START"

	case EVT_DECOMPRESSION_START:
		t = "DECOMPRESSION_START"

	case EVT_VOCABULARY_DONE:
		t = "VOCABULARY_DONE"

	case EVT_PROGRESS:
		t = "PROGRESS"

	case EVT_COMPRESSION_END:
		t = "COMPRESSION_END"

	case EVT_DECOMPRESSION_END:
		t = "DECOMPRESSION_END"
	}

	return fmt.Sprintf("{ \"type\":\"%s\", \"size\":%d, \"time\":%d%s }", t, this.size,
		this.eventTime.UnixNano()/1000000, hash)
}
