// Package graph implements the modulation-graph evaluator: for each
// active voice, the mutually recursive run_audio/run_waveenv procedures
// that walk FM/PM/AM operator lists and produce one block of samples.
package graph

import (
	"math"

	"sonicc/program"
	"sonicc/tables"
)

// BlockSize is the fixed rendering unit.
const BlockSize = 256

// Evaluator renders voices from a built Program. It owns the noise
// sources (one 32-bit counter per noise operator) and a scratch pool
// sized from the program's worst-case graph depth; the pool exists to
// bound the renderer's per-block allocations to what Build already
// computed (op_nest_depth), not because Go needs manual arenas.
type Evaluator struct {
	prog  *program.Program
	ops   []*program.OperatorNode // per-render mutable operator state, shared with the scheduler
	srate float64
	noise map[int]*tables.Noise

	// stack is a LIFO scratch allocator: every function that calls
	// scratch() snapshots stackTop on entry and restores it on exit
	// (see mark/release below), so sibling and parent frames never see
	// a buffer a still-live caller is holding, the way a depth-indexed
	// pool would if recursion fanned out wider than expected.
	stack    [][]float64
	stackTop int
}

// New creates an Evaluator for prog, rendering against ops - the
// scheduler's per-render operator state (see program.NewOperatorState),
// not prog.Operators itself, so the compiled Program stays immutable and
// shareable across renderers. Its scratch stack starts sized from the
// program's worst-case graph depth (a pool of at least D+2 float
// buffers) and grows on demand if a render needs more.
func New(prog *program.Program, ops []*program.OperatorNode) *Evaluator {
	maxDepth := 0
	for _, v := range prog.Voices {
		if v.MaxDepth > maxDepth {
			maxDepth = v.MaxDepth
		}
	}
	e := &Evaluator{
		prog:  prog,
		ops:   ops,
		srate: prog.SampleRate,
		noise: make(map[int]*tables.Noise),
	}
	n := (maxDepth + 2) * 8
	if n < 32 {
		n = 32
	}
	e.stack = make([][]float64, n)
	for i := range e.stack {
		e.stack[i] = make([]float64, BlockSize)
	}
	return e
}

// mark returns the current stack depth; release(mark) pops back to it.
func (e *Evaluator) mark() int { return e.stackTop }

func (e *Evaluator) release(m int) { e.stackTop = m }

func (e *Evaluator) scratch(n int) []float64 {
	if e.stackTop >= len(e.stack) {
		e.stack = append(e.stack, make([]float64, BlockSize))
	}
	buf := e.stack[e.stackTop][:n]
	e.stackTop++
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

func (e *Evaluator) noiseFor(op *program.OperatorNode) *tables.Noise {
	n, ok := e.noise[op.ID]
	if !ok {
		n = tables.NewNoise(op.NoiseSeed)
		e.noise[op.ID] = n
	}
	return n
}

// RenderVoice fills out[:frames] (mono, int16-scaled but kept as float64
// for panning precision) with the voice's carriers, resetting the
// evaluator's scratch stack at the start of each call.
func (e *Evaluator) RenderVoice(v *program.VoiceAllocation, out []float64, frames int) {
	e.stackTop = 0
	for i := 0; i < frames; i++ {
		out[i] = 0
	}
	for _, cid := range v.CarrierIDs {
		e.renderCarrierChain(cid, out, frames)
	}
}

// renderCarrierChain walks a carrier's LinkedSibling chain, accumulating
// each into out (step 6 of run_audio: "if the operator has a linked
// sibling ... move to it with acc=true").
func (e *Evaluator) renderCarrierChain(opID int, out []float64, frames int) {
	id := opID
	for id >= 0 {
		op := e.ops[id]
		e.runAudio(op, frames, nil, true, out)
		id = op.LinkedSibling
	}
}

// runAudio produces a signed-int16-scaled signal for op, adding it into
// dst if acc is set or overwriting dst otherwise.
func (e *Evaluator) runAudio(op *program.OperatorNode, n int, parentFreq []float64, acc bool, dst []float64) {
	m := e.mark()
	defer e.release(m)

	freq := e.scratch(n)
	e.sampleLine(op.FreqRamp, freq, n)
	if op.FreqIsRatio && parentFreq != nil {
		for i := 0; i < n; i++ {
			freq[i] *= parentFreq[i]
		}
	}

	if op.FMList.Count() > 0 {
		fmEnv := e.scratch(n)
		e.sumWaveEnv(op.FMList, n, freq, fmEnv)
		dyn := e.scratch(n)
		if op.DynFreq != nil {
			e.sampleLine(op.DynFreq, dyn, n)
		}
		for i := 0; i < n; i++ {
			target := dyn[i]
			if op.DynFreqIsRatio {
				target *= freq[i]
			}
			freq[i] += (target - freq[i]) * fmEnv[i]
		}
	}
	if op.RateFMList.Count() > 0 {
		rateEnv := e.scratch(n)
		e.sumWaveEnv(op.RateFMList, n, freq, rateEnv)
		for i := 0; i < n; i++ {
			freq[i] *= 1 + rateEnv[i]
		}
	}

	ampBase := e.scratch(n)
	e.sampleLine(op.AmpRamp, ampBase, n)
	amp := ampBase
	if op.AMList.Count() > 0 || op.RingAMList.Count() > 0 {
		amp = e.scratch(n)
		copy(amp, ampBase)
		if op.AMList.Count() > 0 {
			amEnv := e.scratch(n)
			e.sumWaveEnv(op.AMList, n, freq, amEnv)
			dyn := e.scratch(n)
			if op.DynAmp != nil {
				e.sampleLine(op.DynAmp, dyn, n)
			}
			for i := 0; i < n; i++ {
				amp[i] = ampBase[i] + amEnv[i]*(dyn[i]-ampBase[i])
			}
		}
		if op.RingAMList.Count() > 0 {
			ringEnv := e.scratch(n)
			e.sumWaveEnv(op.RingAMList, n, freq, ringEnv)
			for i := 0; i < n; i++ {
				amp[i] *= ringEnv[i]
			}
		}
	}

	var pm []float64
	if op.PMList.Count() > 0 {
		pm = e.scratch(n)
		e.sumAudio(op.PMList, n, freq, pm)
	}
	var fpm []float64
	if op.FreqPMList.Count() > 0 {
		fpm = e.scratch(n)
		e.sumAudio(op.FreqPMList, n, freq, fpm)
	}

	for i := 0; i < n; i++ {
		f := freq[i]
		if fpm != nil {
			f += fpm[i] / 32768.0 * f
		}
		incr := uint32(int64(math.Round(f * 4294967296.0 / e.srate)))
		op.Phase += incr
		phase := op.Phase
		if pm != nil {
			phase += uint32(int32(pm[i])) << 16
		}
		var sample float64
		if op.IsNoise {
			sample = e.noiseFor(op).Next()
		} else if op.Wavetable != nil {
			sample = float64(op.Wavetable.Sample(phase))
		}
		v := sample * amp[i] * 32767.0
		rv := math.RoundToEven(v)
		if acc {
			dst[i] += rv
		} else {
			dst[i] = rv
		}
	}
	op.TimeInVoice += int64(n)
}

// runWaveEnv is run_audio's envelope counterpart: produces a unipolar
// [0,1] float into dst instead of accumulating an int16-scaled signal.
func (e *Evaluator) runWaveEnv(op *program.OperatorNode, n int, parentFreq []float64, dst []float64) {
	m := e.mark()
	defer e.release(m)

	freq := e.scratch(n)
	e.sampleLine(op.FreqRamp, freq, n)
	if op.FreqIsRatio && parentFreq != nil {
		for i := 0; i < n; i++ {
			freq[i] *= parentFreq[i]
		}
	}
	ampBase := e.scratch(n)
	e.sampleLine(op.AmpRamp, ampBase, n)

	for i := 0; i < n; i++ {
		incr := uint32(int64(math.Round(freq[i] * 4294967296.0 / e.srate)))
		op.Phase += incr
		var sample float64
		if op.IsNoise {
			sample = e.noiseFor(op).Next()
		} else if op.Wavetable != nil {
			sample = float64(op.Wavetable.Sample(op.Phase))
		}
		unipolar := (sample + 1) * 0.5
		dst[i] = unipolar * ampBase[i]
	}
	op.TimeInVoice += int64(n)
}

// sumWaveEnv recurses run_waveenv across a modulator list, combining
// siblings by multiplication (the envelope variant of step 6).
func (e *Evaluator) sumWaveEnv(list *program.OpList, n int, parentFreq []float64, dst []float64) {
	for i := range dst[:n] {
		dst[i] = 1
	}
	if list == nil {
		return
	}
	m := e.mark()
	defer e.release(m)
	tmp := e.scratch(n)
	for _, id := range list.IDs {
		op := e.ops[id]
		e.runWaveEnv(op, n, parentFreq, tmp)
		for i := 0; i < n; i++ {
			dst[i] *= tmp[i]
		}
	}
}

// sumAudio recurses run_audio across a modulator list (used for PM/
// freq-PM sources), accumulating siblings additively.
func (e *Evaluator) sumAudio(list *program.OpList, n int, parentFreq []float64, dst []float64) {
	for i := range dst[:n] {
		dst[i] = 0
	}
	if list == nil {
		return
	}
	for _, id := range list.IDs {
		op := e.ops[id]
		e.runAudio(op, n, parentFreq, true, dst)
	}
}

// sampleLine advances a Line (or holds at zero if nil) for n samples.
func (e *Evaluator) sampleLine(l *tables.Line, dst []float64, n int) {
	if l == nil {
		for i := range dst[:n] {
			dst[i] = 0
		}
		return
	}
	l.Run(dst[:n], nil)
}
