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
	"encoding/binary"
)

const (
	// STREAM_MAGIC identifies an okapi compressed stream ("OKPI").
	STREAM_MAGIC = uint32(0x4F4B5049)

	// STREAM_VERSION is the format version written in the frame header.
	// Any change to the model roster, parameters or registration order
	// bumps it.
	STREAM_VERSION = 1
)

// IsStreamHeader checks the first bytes of the slice against the stream magic.
func IsStreamHeader(src []byte) bool {
	if len(src) < 4 {
		return false
	}

	return binary.BigEndian.Uint32(src) == STREAM_MAGIC
}
