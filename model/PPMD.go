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

// NewPPMD configures the count engine with the PPMD escape estimator:
// seen bytes weigh (2c-1)/2t and the escape takes d/2t. The memory
// argument is in megabytes.
func NewPPMD(order int, memoryMB uint64, manager *ContextManager, vocab []bool) *PPM {
	this := NewPPM(order, manager, 1<<12, memoryMB<<20, vocab)
	this.escape = ESCAPE_PPMD
	return this
}
