package program

import "sonicc/tables"

// NewOperatorState returns a fresh, independent copy of the program's
// operator table for a single renderer to own and mutate. Structural
// fields (topology, wavetable/noise assignment, modulator lists, linked
// siblings, resolved durations) carry over from Build's compiled result
// unchanged; the per-render mutable fields - ramps, phase, elapsed time -
// start at their zero state and are advanced only by the scheduler
// replaying this program's Events against this particular slice, so two
// renderers sharing one compiled Program never see each other's progress:
// per-render state is allocated once at renderer construction and
// mutated in place.
func (p *Program) NewOperatorState() []*OperatorNode {
	out := make([]*OperatorNode, len(p.Operators))
	for i, src := range p.Operators {
		dst := &OperatorNode{
			ID:             src.ID,
			IsCarrier:      src.IsCarrier,
			DurationSmp:    src.DurationSmp,
			Wavetable:      src.Wavetable,
			IsNoise:        src.IsNoise,
			NoiseSeed:      src.NoiseSeed,
			FreqRamp:       tables.NewLine(),
			AmpRamp:        tables.NewLine(),
			PanRamp:        tables.NewLine(),
			FreqIsRatio:    src.FreqIsRatio,
			DynFreqIsRatio: src.DynFreqIsRatio,
			FMList:         src.FMList,
			RateFMList:     src.RateFMList,
			PMList:         src.PMList,
			FreqPMList:     src.FreqPMList,
			AMList:         src.AMList,
			RingAMList:     src.RingAMList,
			LinkedSibling:  src.LinkedSibling,
		}
		if src.DynFreq != nil {
			dst.DynFreq = tables.NewLine()
		}
		if src.DynAmp != nil {
			dst.DynAmp = tables.NewLine()
		}
		out[i] = dst
	}
	return out
}

// NewVoiceState returns a fresh, independent copy of the program's voice
// table for a single renderer. Topology (carrier ids, graph order, start
// sample, resolved duration) carries over unchanged; Active and
// RemainingSamples - the fields a render actually advances as voices
// play out and get recycled - start zeroed and are set by the scheduler
// as each voice's activating event fires.
func (p *Program) NewVoiceState() []*VoiceAllocation {
	out := make([]*VoiceAllocation, len(p.Voices))
	for i, src := range p.Voices {
		out[i] = &VoiceAllocation{
			ID:          src.ID,
			CarrierIDs:  src.CarrierIDs,
			GraphOrder:  src.GraphOrder,
			MaxDepth:    src.MaxDepth,
			StartSample: src.StartSample,
			DurationSamples: src.DurationSamples,
		}
	}
	return out
}
