// Package scheduler implements the cooperative render loop described in
// stepping through a compiled program's event list, merging each
// event's parameter deltas into per-render operator state at the moment
// it fires, and pulling blocks of samples from the graph evaluator in
// between.
package scheduler

import (
	"sonicc/graph"
	"sonicc/mixer"
	"sonicc/program"
	"sonicc/tables"
)

// Scheduler renders one compiled Program. Its operator and voice state
// is private to this Scheduler (see program.NewOperatorState /
// NewVoiceState), so multiple Schedulers can render the same Program
// independently and concurrently.
type Scheduler struct {
	prog *program.Program
	ops  []*program.OperatorNode
	vox  []*program.VoiceAllocation
	eval *graph.Evaluator
	bus  *mixer.Bus

	sampleClock    int64
	nextEventIndex int
	untilNext      int64 // samples remaining before events[nextEventIndex] fires

	mono    bool
	monoBuf []float64
	panBuf  []float64
}

// New creates a Scheduler for prog. mono selects a mono output mix
// (mono output halves the stereo mix).
func New(prog *program.Program, mono bool) *Scheduler {
	ops := prog.NewOperatorState()
	vox := prog.NewVoiceState()
	s := &Scheduler{
		prog:    prog,
		ops:     ops,
		vox:     vox,
		eval:    graph.New(prog, ops),
		bus:     mixer.NewBus(graph.BlockSize, mono),
		mono:    mono,
		monoBuf: make([]float64, graph.BlockSize),
		panBuf:  make([]float64, graph.BlockSize),
	}
	if len(prog.Events) > 0 {
		s.untilNext = prog.Events[0].WaitSamples
	}
	return s
}

// Done reports whether no active voices remain and no future events
// exist - the program_done condition.
func (s *Scheduler) Done() bool {
	if s.nextEventIndex < len(s.prog.Events) {
		return false
	}
	for _, v := range s.vox {
		if v.Active {
			return false
		}
	}
	return true
}

// Render fills out (interleaved int16, stereo unless the Scheduler was
// built mono) with up to frames frames and returns how many frames it
// actually produced and whether the program has finished.
func (s *Scheduler) Render(out []int16, frames int) (int, bool) {
	channels := 2
	if s.mono {
		channels = 1
	}
	produced := 0
	for produced < frames {
		s.applyDueEvents()
		if s.Done() {
			break
		}

		remaining := frames - produced
		block := graph.BlockSize
		if block > remaining {
			block = remaining
		}
		if s.untilNext > 0 && int64(block) > s.untilNext {
			block = int(s.untilNext)
		}
		// Stop the block where the first active voice runs out, so no
		// voice renders past its duration.
		for _, v := range s.vox {
			if v.Active && v.RemainingSamples > 0 && int64(block) > v.RemainingSamples {
				block = int(v.RemainingSamples)
			}
		}
		if block == 0 {
			// applyDueEvents only leaves untilNext==0 once no event
			// remains, so the clamp above never drives block to zero;
			// this can only mean nothing is left to produce.
			break
		}

		s.renderBlock(out[produced*channels:], block)
		produced += block
		s.sampleClock += int64(block)
		if s.untilNext > 0 {
			s.untilNext -= int64(block)
		}

		if s.Done() {
			break
		}
	}
	return produced, s.Done()
}

// applyDueEvents merges every event whose wait has fully elapsed before
// any further samples render: events
// landing on the same sample apply, in list order, before that sample.
func (s *Scheduler) applyDueEvents() {
	for s.nextEventIndex < len(s.prog.Events) && s.untilNext == 0 {
		ev := &s.prog.Events[s.nextEventIndex]
		s.applyEvent(ev)
		s.nextEventIndex++
		if s.nextEventIndex < len(s.prog.Events) {
			s.untilNext = s.prog.Events[s.nextEventIndex].WaitSamples
		}
	}
}

func (s *Scheduler) applyEvent(ev *program.Event) {
	v := s.vox[ev.VoiceID]
	if ev.NewVoice {
		v.Active = true
		v.RemainingSamples = v.DurationSamples
	}
	for _, up := range ev.OpUpdates {
		op := s.ops[up.OpID]
		if up.SetWavetable != nil {
			op.Wavetable = up.SetWavetable
			op.IsNoise = false
		}
		if up.SetNoise {
			op.IsNoise = true
			op.Wavetable = nil
		}
		if up.FreqUpdate != nil {
			op.FreqRamp.Merge(*up.FreqUpdate, s.prog.SampleRate)
		}
		if up.DynFreqUpdate != nil {
			if op.DynFreq == nil {
				op.DynFreq = tables.NewLine()
			}
			op.DynFreq.Merge(*up.DynFreqUpdate, s.prog.SampleRate)
		}
		if up.AmpUpdate != nil {
			op.AmpRamp.Merge(*up.AmpUpdate, s.prog.SampleRate)
		}
		if up.DynAmpUpdate != nil {
			if op.DynAmp == nil {
				op.DynAmp = tables.NewLine()
			}
			op.DynAmp.Merge(*up.DynAmpUpdate, s.prog.SampleRate)
		}
		if up.PanUpdate != nil {
			op.PanRamp.Merge(*up.PanUpdate, s.prog.SampleRate)
		}
		if up.ListsSet {
			op.FMList = &program.OpList{IDs: up.FMList}
			op.RateFMList = &program.OpList{IDs: up.RateFMList}
			op.PMList = &program.OpList{IDs: up.PMList}
			op.FreqPMList = &program.OpList{IDs: up.FreqPMList}
			op.AMList = &program.OpList{IDs: up.AMList}
			op.RingAMList = &program.OpList{IDs: up.RingAMList}
		}
	}
	if ev.GraphRefresh {
		s.eval = graph.New(s.prog, s.ops)
	}
}

// renderBlock mixes every active voice's next n samples into out
// starting at its first frame.
func (s *Scheduler) renderBlock(out []int16, n int) {
	s.bus.Reset(n)
	for _, v := range s.vox {
		if !v.Active || len(v.CarrierIDs) == 0 {
			continue
		}
		s.eval.RenderVoice(v, s.monoBuf, n)

		op := s.ops[v.CarrierIDs[0]]
		op.PanRamp.Run(s.panBuf[:n], nil)
		s.bus.AddVoice(s.monoBuf, s.panBuf, n)

		v.RemainingSamples -= int64(n)
		if v.RemainingSamples <= 0 {
			v.Active = false
		}
	}
	s.bus.InterleaveInto(out, n)
}
