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

package predictor

import (
	"errors"

	okapi "github.com/ldeneve/okapi-go"
	"github.com/ldeneve/okapi-go/mixer"
	"github.com/ldeneve/okapi-go/model"
)

// Predictor is the complete ensemble: every bit and byte model, the
// shared context manager feeding them, three mixing layers and the
// final secondary estimator. The model roster, every parameter and the
// registration order are part of the wire format; changing any of them
// makes the output incompatible with previously produced streams.
type Predictor struct {
	manager       *model.ContextManager
	vocab         []bool
	models        []okapi.Model
	byteModels    []okapi.ByteModel
	byteMixer     *mixer.ByteMixer
	layers        []*mixer.MixerInput
	mixers        [][]*mixer.Mixer
	auxiliary     []int
	sse           *mixer.SSE
	byteMixerProb float32
}

// New builds the predictor for the given vocabulary table.
func New(vocab []bool) (*Predictor, error) {
	if len(vocab) != 256 {
		return nil, errors.New("invalid vocabulary length (must be 256)")
	}

	this := new(Predictor)
	this.manager = model.NewContextManager()
	this.vocab = vocab

	this.addBracket()
	this.addPaq8HP()
	this.addPaq8L()
	this.addPPM()
	this.addPPMD()
	this.addDMC()
	this.addByteRun()
	this.addNonstationary()
	this.addEnglish()
	this.addSparse()
	this.addDirect()
	this.addRunMap()
	this.addMatch()
	this.addDoubleIndirect()
	this.addInterval()

	if err := this.addMixers(); err != nil {
		return nil, err
	}

	return this, nil
}

func (this *Predictor) add(m okapi.Model) {
	this.models = append(this.models, m)
}

func (this *Predictor) addByteModel(m okapi.ByteModel) {
	this.byteModels = append(this.byteModels, m)
}

func (this *Predictor) addMixer(layer int, m *mixer.Mixer) {
	this.mixers[layer] = append(this.mixers[layer], m)
}

// numModels counts the layer 0 inputs: every model plus the byte mixer slot.
func (this *Predictor) numModels() int {
	return len(this.models) + len(this.byteModels) + 1
}

func (this *Predictor) addBracket() {
	cm := this.manager
	this.add(model.NewBracket(&cm.BitContext, 200, 10, 100000, this.vocab))
	ctx := cm.AddContext(model.NewBracketContext(cm, 256, 15))
	this.add(model.NewDirect(ctx.GetContext(), &cm.BitContext, 30, 0, ctx.Size()))
	this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext, 300,
		cm.SharedMap))
}

func (this *Predictor) addPaq8HP() {
	this.auxiliary = append(this.auxiliary, len(this.models))
	paq := model.NewPaq8(11)
	this.add(paq)
	predictions := paq.ModelPredictions()

	for i := range predictions {
		this.add(model.NewFacade(&predictions[i]))
	}
}

func (this *Predictor) addPaq8L() {
	this.auxiliary = append(this.auxiliary, len(this.models))
	paq := model.NewPaq8(11)
	this.add(paq)
	predictions := paq.ModelPredictions()

	for i := range predictions {
		this.add(model.NewFacade(&predictions[i]))
	}
}

func (this *Predictor) addPPM() {
	this.addByteModel(model.NewPPM(7, this.manager, 10000, 11000000, this.vocab))
	this.addByteModel(model.NewPPM(5, this.manager, 10000, 7000000, this.vocab))
}

func (this *Predictor) addPPMD() {
	this.addByteModel(model.NewPPMD(16, 1680, this.manager, this.vocab))
}

func (this *Predictor) addDMC() {
	this.add(model.NewDMC(0.02, 70000000))
}

func (this *Predictor) addByteRun() {
	cm := this.manager
	maxSize := uint64(10000000)
	delta := float32(200)
	modelParams := [][2]uint{{0, 8}, {1, 5}, {1, 8}, {2, 8}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewContextHash(cm, params[0], params[1]))
		size := ctx.Size()

		if size > maxSize {
			size = maxSize
		}

		this.add(model.NewByteRun(ctx.GetContext(), &cm.BitContext, delta, size))
	}
}

func (this *Predictor) addNonstationary() {
	cm := this.manager
	delta := float32(500)
	modelParams := [][2]uint{{0, 8}, {2, 8}, {4, 7}, {8, 3}, {12, 1}, {16, 1}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewContextHash(cm, params[0], params[1]))
		this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}
}

func (this *Predictor) addEnglish() {
	cm := this.manager
	delta := float32(200)
	modelParams := [][]uint{{0}, {0, 1}, {7, 2}, {7}, {1}, {1, 2}, {1, 2, 3},
		{1, 3}, {1, 4}, {1, 5}, {2, 3}, {3, 4}, {1, 2, 4}, {1, 2, 3, 4},
		{2, 3, 4}, {2}, {1, 2, 3, 4, 5}, {1, 2, 3, 4, 5, 6}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewSparse(cm.Words, params))
		this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}

	modelParams2 := [][]uint{{0}, {1}, {7}, {1, 3}, {1, 2, 3}, {7, 2}}

	for _, params := range modelParams2 {
		ctx := cm.AddContext(model.NewSparse(cm.Words, params))
		this.add(model.NewMatch(cm, ctx.GetContext(), &cm.BitContext, 200, 0.5,
			10000000, &cm.LongestMatch))
		this.add(model.NewByteRun(ctx.GetContext(), &cm.BitContext, 100, 10000000))

		if params[0] == 1 && len(params) == 1 {
			this.add(model.NewIndirect(cm.RunStates, ctx.GetContext(), &cm.BitContext,
				delta, cm.SharedMap))
			this.add(model.NewDirectHash(ctx.GetContext(), &cm.BitContext, 30, 0, 500000))
		}
	}
}

func (this *Predictor) addSparse() {
	cm := this.manager
	delta := float32(300)
	modelParams := [][]uint{{1}, {2}, {3}, {4}, {5}, {0, 2}, {0, 3}, {0, 4},
		{0, 5}, {0, 6}, {0, 7}, {1, 2}, {1, 3}, {2, 3}, {2, 5}, {3, 4}, {3, 5},
		{3, 7}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewSparse(cm.RecentBytes, params))
		this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}

	modelParams2 := [][]uint{{1}, {0, 2}, {0, 4}, {1, 2}, {2, 3}, {3, 4}, {3, 7}}

	for _, params := range modelParams2 {
		ctx := cm.AddContext(model.NewSparse(cm.RecentBytes, params))
		this.add(model.NewMatch(cm, ctx.GetContext(), &cm.BitContext, 200, 0.5,
			10000000, &cm.LongestMatch))
		this.add(model.NewByteRun(ctx.GetContext(), &cm.BitContext, 100, 10000000))
	}
}

func (this *Predictor) addDirect() {
	cm := this.manager
	delta := float32(0)
	limit := 30
	modelParams := [][2]uint{{0, 8}, {1, 8}, {2, 8}, {3, 8}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewContextHash(cm, params[0], params[1]))

		if params[0] < 3 {
			this.add(model.NewDirect(ctx.GetContext(), &cm.BitContext, limit, delta,
				ctx.Size()))
		} else {
			this.add(model.NewDirectHash(ctx.GetContext(), &cm.BitContext, limit, delta,
				100000))
		}
	}
}

func (this *Predictor) addRunMap() {
	cm := this.manager
	delta := float32(200)
	modelParams := [][2]uint{{0, 8}, {1, 5}, {1, 7}, {1, 8}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewContextHash(cm, params[0], params[1]))
		this.add(model.NewIndirect(cm.RunStates, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}
}

func (this *Predictor) addMatch() {
	cm := this.manager
	delta := float32(0.5)
	limit := 200
	maxSize := uint64(20000000)
	modelParams := [][2]uint{{0, 8}, {1, 8}, {2, 8}, {7, 4}, {11, 3}, {13, 2},
		{15, 2}, {17, 2}, {20, 1}, {25, 1}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewContextHash(cm, params[0], params[1]))
		size := ctx.Size()

		if size > maxSize {
			size = maxSize
		}

		this.add(model.NewMatch(cm, ctx.GetContext(), &cm.BitContext, limit, delta,
			size, &cm.LongestMatch))
	}
}

func (this *Predictor) addDoubleIndirect() {
	cm := this.manager
	delta := float32(400)
	modelParams := [][4]uint{{1, 8, 1, 8}, {2, 8, 1, 8}, {1, 8, 2, 8},
		{2, 8, 2, 8}, {1, 8, 3, 8}, {3, 8, 1, 8}, {4, 6, 4, 8}, {5, 5, 5, 5},
		{1, 8, 4, 8}, {1, 8, 5, 6}, {6, 4, 6, 4}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewIndirectHash(cm, params[0], params[1],
			params[2], params[3]))
		this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}
}

// intervalBuckets is the bucket table shared by the interval contexts.
// Part of the wire format.
func intervalBuckets() []int {
	buckets := make([]int, 256)

	for i := 0; i < 256; i++ {
		buckets[i] = b2i(i < 41) + b2i(i < 92) + b2i(i < 124) + b2i(i < 58) +
			b2i(i < 11) + b2i(i < 46) + b2i(i < 36) + b2i(i < 47) +
			b2i(i < 64) + b2i(i < 4) + b2i(i < 61) + b2i(i < 97) +
			b2i(i < 125) + b2i(i < 45) + b2i(i < 48)
	}

	return buckets
}

func b2i(b bool) int {
	if b {
		return 1
	}

	return 0
}

func (this *Predictor) addInterval() {
	cm := this.manager
	buckets := intervalBuckets()
	delta := float32(400)
	modelParams := [][2]uint{{2, 8}, {4, 7}, {8, 3}, {12, 1}, {16, 1}}

	for _, params := range modelParams {
		ctx := cm.AddContext(model.NewIntervalHash(cm, buckets, params[0], params[1]))
		this.add(model.NewIndirect(cm.Nonstationary, ctx.GetContext(), &cm.BitContext,
			delta, cm.SharedMap))
	}
}

func (this *Predictor) addMixers() error {
	cm := this.manager
	vocabSize := 0

	for _, v := range this.vocab {
		if v == true {
			vocabSize++
		}
	}

	var err error
	this.byteMixer, err = mixer.NewByteMixer(len(this.byteModels), 100, 2, 40, 0.03,
		&cm.BitContext, this.vocab, vocabSize)

	if err != nil {
		return err
	}

	this.auxiliary = append(this.auxiliary, len(this.models)+len(this.byteModels))
	this.layers = make([]*mixer.MixerInput, 3)
	this.mixers = make([][]*mixer.Mixer, 3)

	for i := range this.layers {
		this.layers[i] = mixer.NewMixerInput(1.0e-4)
	}

	inputSize := this.numModels()
	this.layers[0].SetNumInputs(inputSize)

	type ctxMixerParams struct {
		order     uint
		bits      uint
		learnRate float32
	}

	for _, params := range []ctxMixerParams{{0, 8, 0.005}, {0, 8, 0.0005},
		{1, 8, 0.005}, {1, 8, 0.0005}, {2, 4, 0.005}, {3, 2, 0.002}} {
		ctx := cm.AddContext(model.NewContextHash(cm, params.order, params.bits))
		bitCtx := cm.AddBitContext(model.NewBitContext(&cm.LongBitContext,
			ctx.GetContext(), ctx.Size()))
		this.addMixer(0, mixer.NewMixer(this.layers[0], bitCtx.GetContext(),
			params.learnRate, bitCtx.Size(), inputSize))
	}

	type byteMixerParams struct {
		recent    int
		learnRate float32
	}

	for _, params := range []byteMixerParams{{0, 0.001}, {2, 0.002}, {3, 0.005}} {
		this.addMixer(0, mixer.NewMixer(this.layers[0], &cm.RecentBytes[params.recent],
			params.learnRate, 256, inputSize))
	}

	this.addMixer(0, mixer.NewMixer(this.layers[0], &cm.ZeroContext, 0.00005, 1, inputSize))
	this.addMixer(0, mixer.NewMixer(this.layers[0], &cm.LineBreak, 0.0007, 100, inputSize))
	this.addMixer(0, mixer.NewMixer(this.layers[0], &cm.LongestMatch, 0.0005, 8, inputSize))

	buckets1 := make([]int, 256)

	for i := 0; i < 256; i++ {
		buckets1[i] = b2i(i < 1) + b2i(i < 32) + b2i(i < 64) + b2i(i < 128) +
			b2i(i < 255) + b2i(i < 142) + b2i(i < 138) + b2i(i < 140) +
			b2i(i < 137) + b2i(i < 97)
	}

	buckets2 := intervalBuckets()
	interval1 := cm.AddContext(model.NewInterval(cm, buckets1))
	this.addMixer(0, mixer.NewMixer(this.layers[0], interval1.GetContext(), 0.001,
		interval1.Size(), inputSize))
	interval2 := cm.AddContext(model.NewInterval(cm, buckets2))
	this.addMixer(0, mixer.NewMixer(this.layers[0], interval2.GetContext(), 0.001,
		interval2.Size(), inputSize))

	bitCtx1 := cm.AddBitContext(model.NewBitContext(&cm.LongBitContext,
		&cm.RecentBytes[1], 256))
	this.addMixer(0, mixer.NewMixer(this.layers[0], bitCtx1.GetContext(), 0.005,
		bitCtx1.Size(), inputSize))

	bitCtx2 := cm.AddBitContext(model.NewBitContext(&cm.RecentBytes[1],
		&cm.RecentBytes[0], 256))
	this.addMixer(0, mixer.NewMixer(this.layers[0], bitCtx2.GetContext(), 0.005,
		bitCtx2.Size(), inputSize))

	bitCtx3 := cm.AddBitContext(model.NewBitContext(&cm.RecentBytes[2],
		&cm.RecentBytes[1], 256))
	this.addMixer(0, mixer.NewMixer(this.layers[0], bitCtx3.GetContext(), 0.003,
		bitCtx3.Size(), inputSize))

	inputSize = len(this.mixers[0]) + len(this.auxiliary)
	this.layers[1].SetNumInputs(inputSize)

	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.ZeroContext, 0.005, 1, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.ZeroContext, 0.0005, 1, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.LongBitContext, 0.005, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.LongBitContext, 0.0005, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.LongBitContext, 0.00001, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.RecentBytes[0], 0.005, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.RecentBytes[1], 0.005, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.RecentBytes[2], 0.005, 256, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], &cm.LongestMatch, 0.0005, 8, inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], interval1.GetContext(), 0.001,
		interval1.Size(), inputSize))
	this.addMixer(1, mixer.NewMixer(this.layers[1], interval2.GetContext(), 0.001,
		interval2.Size(), inputSize))

	inputSize = len(this.mixers[1]) + len(this.auxiliary)
	this.layers[2].SetNumInputs(inputSize)
	this.addMixer(2, mixer.NewMixer(this.layers[2], &cm.ZeroContext, 0.0003, 1, inputSize))

	this.sse = mixer.NewSSE(&cm.LongBitContext, 256)
	return nil
}

// Predict returns the probability that the next bit is 1. It leaves the
// learned state unchanged: it only records the layer inputs, mixer rows
// and SSE cells that the next Perceive trains, so calling it again
// before Perceive returns the same value.
func (this *Predictor) Predict() float32 {
	for i, m := range this.models {
		this.layers[0].SetInput(i, m.Predict())
	}

	for i, m := range this.byteModels {
		this.layers[0].SetInput(len(this.models)+i, m.Predict())
	}

	this.byteMixerProb = this.byteMixer.Predict()
	this.layers[0].SetInput(len(this.models)+len(this.byteModels), this.byteMixerProb)

	for layer := 1; layer <= 2; layer++ {
		prev := this.mixers[layer-1]

		for i, mx := range prev {
			this.layers[layer].SetStretchedInput(i, mx.Mix())
		}

		for i, aux := range this.auxiliary {
			this.layers[layer].SetStretchedInput(len(prev)+i, this.layers[0].Inputs()[aux])
		}
	}

	p := okapi.Squash(this.mixers[2][0].Mix())
	p = this.sse.Process(p)

	if p != p || p < 0 || p > 1 {
		// The contract forbids this; a hit means corrupted state.
		panic("probability out of range")
	}

	if this.byteMixerProb == 0 || this.byteMixerProb == 1 {
		return this.byteMixerProb
	}

	return p
}

// Perceive consumes the observed bit: every model, mixer and the
// estimator learn, then the shared state advances. At byte boundaries
// the byte-level rollover runs and the byte mixer is refilled.
func (this *Predictor) Perceive(bit int) {
	for _, m := range this.models {
		m.Perceive(bit)
	}

	for _, m := range this.byteModels {
		m.Perceive(bit)
	}

	this.byteMixer.Perceive(bit)

	for layer := range this.mixers {
		for _, mx := range this.mixers[layer] {
			mx.Perceive(bit)
		}
	}

	this.sse.Perceive(bit)

	byteUpdate := this.manager.BitContext >= 128
	this.manager.Perceive(bit)

	if byteUpdate == false {
		return
	}

	for _, m := range this.models {
		m.ByteUpdate()
	}

	for _, m := range this.byteModels {
		m.ByteUpdate()
	}

	for i, m := range this.byteModels {
		p := m.BytePredict()

		for j := 0; j < 256; j++ {
			this.byteMixer.SetInput(i, j, p[j])
		}
	}

	this.byteMixer.ByteUpdate()
	this.manager.FinishByte()
}
