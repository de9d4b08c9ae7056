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

// Facade republishes a probability computed elsewhere, refreshed once
// per bit by its owner. Unlike every other model its output may touch
// 0 or 1.
type Facade struct {
	src *float32
}

func NewFacade(src *float32) *Facade {
	return &Facade{src: src}
}

func (this *Facade) Predict() float32 {
	p := *this.src

	if p < 0 {
		return 0
	}

	if p > 1 {
		return 1
	}

	return p
}

func (this *Facade) Perceive(bit int) {
}

func (this *Facade) ByteUpdate() {
}
