package program

import (
	"sort"

	"sonicc/synerr"
	"sonicc/tables"
)

const (
	// MaxVoiceCount and MaxOpCount mirror the invariants on voice ids
	// and operator ids are dense non-negative integers with these caps.
	MaxVoiceCount = 65535
	MaxOpCount    = 1<<31 - 1
	MaxNestDepth  = 255
)

// BuildOptions configures the build pipeline.
type BuildOptions struct {
	SampleRate        float64
	DefaultDurationMs float64 // used when an operator's time is never set
	DisableAmpScale   bool
}

// DefaultBuildOptions returns sensible defaults (1s default duration).
func DefaultBuildOptions(sampleRate float64) BuildOptions {
	return BuildOptions{SampleRate: sampleRate, DefaultDurationMs: 1000}
}

type builder struct {
	opt BuildOptions

	opIDs   map[OpKey]int
	voiceOf map[OpKey]int // root op key -> last voice id seen for it
	voiceEnd map[OpKey]float64

	ops    []*OperatorNode
	voices []*VoiceAllocation
	opVoice []int // opID -> voiceID

	maxDepthSeen int
	freqHint     map[int]float64 // opID -> latest known steady-state frequency
}

// Build runs the voice/operator allocation, list flattening, graph
// computation, timing, and amplitude-scaling passes,
// turning a parser-emitted event list into a renderable Program.
func Build(events []*ScriptEvent, opt BuildOptions) (*Program, error) {
	b := &builder{
		opt:      opt,
		opIDs:    make(map[OpKey]int),
		voiceOf:  make(map[OpKey]int),
		voiceEnd: make(map[OpKey]float64),
		freqHint: make(map[int]float64),
	}

	flat := flattenEvents(events)

	type groupBound struct{ start, end int }
	var groupBounds []groupBound
	groupStart := 0
	for i := range flat {
		if flat[i].ev.GroupBreak && i > groupStart {
			groupBounds = append(groupBounds, groupBound{groupStart, i})
			groupStart = i
		}
	}
	if groupStart < len(flat) {
		groupBounds = append(groupBounds, groupBound{groupStart, len(flat)})
	}

	progEvents := make([]Event, 0, len(flat))
	var lastAbs float64

	// groupOffsetMs is where the current duration group's own zero point
	// sits on the global timeline: a '|' boundary sequences groups rather
	// than overlapping them, so the group that follows one starts where
	// the previous group's resolved longest operator duration ends.
	// pendingDelayOffsetSamples carries the gap between that nominal
	// (pre-cycle-trim) duration and the carrier's actual trimmed duration
	// into the next event's wait, so trimming a carrier to its nearest
	// cycle boundary never silently drifts subsequent timing.
	var groupOffsetMs float64
	var pendingDelayOffsetSamples int64

	for _, g := range groupBounds {
		for i := g.start; i < g.end; i++ {
			fe := flat[i]
			abs := fe.abs + groupOffsetMs
			pe, err := b.applyScriptEvent(flatEvent{abs: abs, ev: fe.ev})
			if err != nil {
				return nil, err
			}
			waitMs := abs - lastAbs
			if waitMs < 0 {
				return nil, synerr.NewBuild("negative time value: event wait %.3fms", waitMs)
			}
			waitSamples := int64(waitMs*opt.SampleRate/1000.0+0.5) + pendingDelayOffsetSamples
			pendingDelayOffsetSamples = 0
			if waitSamples < 0 {
				waitSamples = 0
			}
			pe.WaitSamples = waitSamples
			lastAbs = abs
			progEvents = append(progEvents, pe)
		}

		// Timing pass (step 5) for this group: resolve inherited
		// durations and cycle-trim carrier durations now, while the
		// group's nominal and trimmed longest operator durations are
		// both in hand, so the boundary advance and delay offset above
		// can use them for the group that follows.
		nominalSmp, trimmedSmp := b.resolveGroupTiming(g.start, g.end, flat)
		pendingDelayOffsetSamples += trimmedSmp - nominalSmp
		groupOffsetMs += float64(nominalSmp) * 1000.0 / opt.SampleRate
	}

	if len(b.voices) > MaxVoiceCount {
		return nil, synerr.NewBuild("voice count %d exceeds limit %d", len(b.voices), MaxVoiceCount)
	}
	if len(b.ops) > MaxOpCount {
		return nil, synerr.NewBuild("operator count %d exceeds limit %d", len(b.ops), MaxOpCount)
	}

	// Voice graph computation (step 4): compute DFS evaluation order for
	// every voice whose carriers have modulator lists attached.
	for _, v := range b.voices {
		b.computeGraphOrder(v)
	}
	if b.maxDepthSeen > MaxNestDepth {
		return nil, synerr.NewBuild("nesting depth %d exceeds limit %d", b.maxDepthSeen, MaxNestDepth)
	}

	for _, v := range b.voices {
		var longest int64
		for _, cid := range v.CarrierIDs {
			if d := b.ops[cid].DurationSmp; d > longest {
				longest = d
			}
		}
		if longest > 0 {
			v.DurationSamples = longest
		}
		v.RemainingSamples = v.DurationSamples
	}

	// Amplitude scaling (step 6): carriers start silent (AmpRamp defaults
	// to v0=vt=0) until an event's AmpUpdate gives them a state or goal,
	// so scaling the stored update snapshots themselves - rather than any
	// operator field - is sufficient to scale everything that will ever
	// become audible, and keeps Build free of mutating runtime state.
	if !opt.DisableAmpScale && len(b.voices) > 1 {
		scale := 1.0 / float64(len(b.voices))
		isCarrier := make([]bool, len(b.ops))
		for i, op := range b.ops {
			isCarrier[i] = op.IsCarrier
		}
		for ei := range progEvents {
			for ui := range progEvents[ei].OpUpdates {
				up := &progEvents[ei].OpUpdates[ui]
				if !isCarrier[up.OpID] || up.AmpUpdate == nil {
					continue
				}
				scaled := *up.AmpUpdate
				if scaled.Flags&tables.FlagStateSet != 0 {
					scaled.V0 *= scale
				}
				if scaled.Flags&tables.FlagGoalSet != 0 {
					scaled.Vt *= scale
				}
				up.AmpUpdate = &scaled
			}
		}
	}

	durationMs := lastAbs
	for _, v := range b.voices {
		end := float64(v.DurationSamples) * 1000.0 / opt.SampleRate
		if opStart := float64(v.StartSample) * 1000.0 / opt.SampleRate; opStart+end > durationMs {
			durationMs = opStart + end
		}
	}

	return &Program{
		Events:      progEvents,
		Operators:   b.ops,
		Voices:      b.voices,
		VoiceCount:  len(b.voices),
		OpCount:     len(b.ops),
		OpNestDepth: b.maxDepthSeen,
		DurationMs:  durationMs,
		SampleRate:  opt.SampleRate,
	}, nil
}

type flatEvent struct {
	abs float64
	ev  *ScriptEvent
}

// flattenEvents explodes EventBranch forks into the main list by
// absolute time, preserving relative (source) order for ties.
func flattenEvents(events []*ScriptEvent) []flatEvent {
	var out []flatEvent
	var abs float64
	var explode func(e *ScriptEvent, base float64) float64
	explode = func(e *ScriptEvent, base float64) float64 {
		t := base + e.WaitMs
		out = append(out, flatEvent{abs: t, ev: e})
		forkBase := t
		for _, f := range e.Fork {
			forkBase = explode(f, forkBase)
		}
		return t
	}
	for _, e := range events {
		abs = explode(e, abs)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].abs < out[j].abs })
	return out
}

func (b *builder) opID(key OpKey) (int, bool) {
	id, ok := b.opIDs[key]
	return id, ok
}

func (b *builder) allocOp(key OpKey) *OperatorNode {
	if id, ok := b.opIDs[key]; ok {
		return b.ops[id]
	}
	id := len(b.ops)
	node := newOperatorNode(id)
	b.ops = append(b.ops, node)
	b.opIDs[key] = id
	b.opVoice = append(b.opVoice, -1)
	return node
}

func (b *builder) allocVoiceFor(rootKey OpKey, absMs float64) *VoiceAllocation {
	if prevEnd, seen := b.voiceEnd[rootKey]; seen && prevEnd <= absMs {
		id := b.voiceOf[rootKey]
		return b.voices[id]
	}
	id := len(b.voices)
	v := &VoiceAllocation{ID: id, StartSample: int64(absMs * b.opt.SampleRate / 1000.0), Active: true}
	b.voices = append(b.voices, v)
	b.voiceOf[rootKey] = id
	return v
}

func (b *builder) applyScriptEvent(fe flatEvent) (Event, error) {
	e := fe.ev
	v := b.allocVoiceFor(e.RootOpKey, fe.abs)
	newVoice := v.StartSample == int64(fe.abs*b.opt.SampleRate/1000.0) && len(v.CarrierIDs) == 0

	pe := Event{VoiceID: v.ID, NewVoice: newVoice}

	for _, sod := range e.OpUpdates {
		up, isNewOp, err := b.applyOpData(sod, v)
		if err != nil {
			return Event{}, err
		}
		b.opVoice[up.OpID] = v.ID
		if sod.IsCarrier && isNewOp {
			v.CarrierIDs = append(v.CarrierIDs, up.OpID)
		}
		if sod.ListsSet {
			pe.GraphRefresh = true
			b.ops[up.OpID].GraphDirty = true
		}
		pe.OpUpdates = append(pe.OpUpdates, up)
	}
	// Track end-of-voice estimate for recycling decisions using whatever
	// explicit time was given on this event's carrier operators, falling
	// back to the configured default; refined further in the timing pass.
	dur := -1.0
	for _, sod := range e.OpUpdates {
		if sod.IsCarrier && sod.TimeMs != nil && *sod.TimeMs > dur {
			dur = *sod.TimeMs
		}
	}
	if dur < 0 {
		dur = b.opt.DefaultDurationMs
	}
	b.voiceEnd[e.RootOpKey] = fe.abs + dur
	v.DurationSamples = int64(dur * b.opt.SampleRate / 1000.0)

	return pe, nil
}

func (b *builder) applyOpData(sod *ScriptOpData, v *VoiceAllocation) (OpUpdate, bool, error) {
	_, existed := b.opID(sod.OpKey)
	node := b.allocOp(sod.OpKey)
	node.IsCarrier = node.IsCarrier || sod.IsCarrier

	up := OpUpdate{OpID: node.ID}

	if sod.WaveName != "" {
		node.Wavetable = lookupWavetable(sod.WaveName)
		up.SetWavetable = node.Wavetable
	}
	if sod.NoiseType != "" {
		if sod.NoiseType != "WH" {
			return OpUpdate{}, false, synerr.NewBuild("unsupported noise type %q on operator %d", sod.NoiseType, node.ID)
		}
		node.IsNoise = true
		up.SetNoise = true
	}

	// Ramp updates are recorded as snapshots for the scheduler to replay
	// via Line.Merge at the moment each event fires; Build does not
	// mutate the operator's render-time ramp state itself (that state is
	// cloned fresh per Renderer — see NewOperatorState), only the
	// structural/topology fields operators carry forward unconditionally.
	defaultEnd := int(b.opt.DefaultDurationMs * b.opt.SampleRate / 1000.0)
	if sod.Freq != nil {
		u := sod.Freq.toUpdate(defaultEnd)
		up.FreqUpdate = &u
		if sod.Freq.V0 != nil {
			b.freqHint[node.ID] = *sod.Freq.V0
		} else if sod.Freq.Vt != nil {
			b.freqHint[node.ID] = *sod.Freq.Vt
		}
	}
	if sod.DynFreq != nil {
		if node.DynFreq == nil {
			node.DynFreq = tables.NewLine()
		}
		u := sod.DynFreq.toUpdate(defaultEnd)
		up.DynFreqUpdate = &u
	}
	if sod.Amp != nil {
		u := sod.Amp.toUpdate(defaultEnd)
		up.AmpUpdate = &u
	}
	if sod.DynAmp != nil {
		if node.DynAmp == nil {
			node.DynAmp = tables.NewLine()
		}
		u := sod.DynAmp.toUpdate(defaultEnd)
		up.DynAmpUpdate = &u
	}
	if sod.Pan != nil {
		u := sod.Pan.toUpdate(defaultEnd)
		up.PanUpdate = &u
	}
	if sod.TimeMs != nil {
		node.DurationSmp = int64(*sod.TimeMs * b.opt.SampleRate / 1000.0)
		if node.DurationSmp < 0 {
			return OpUpdate{}, false, synerr.NewBuild("discarding negative time value on operator %d", node.ID)
		}
	}
	if sod.Freq != nil {
		node.FreqIsRatio = sod.FreqIsRatio
	}
	if sod.DynFreq != nil {
		node.DynFreqIsRatio = sod.DynFreqIsRatio
	}

	if sod.ListsSet {
		up.ListsSet = true
		up.FMList = b.resolveList(sod.FMList)
		up.RateFMList = b.resolveList(sod.RateFMList)
		up.PMList = b.resolveList(sod.PMList)
		up.FreqPMList = b.resolveList(sod.FreqPMList)
		up.AMList = b.resolveList(sod.AMList)
		up.RingAMList = b.resolveList(sod.RingAMList)

		node.FMList = &OpList{IDs: up.FMList}
		node.RateFMList = &OpList{IDs: up.RateFMList}
		node.PMList = &OpList{IDs: up.PMList}
		node.FreqPMList = &OpList{IDs: up.FreqPMList}
		node.AMList = &OpList{IDs: up.AMList}
		node.RingAMList = &OpList{IDs: up.RingAMList}
	}

	if sod.LinkedNext != nil {
		sib := b.allocOp(sod.LinkedNext.OpKey)
		node.LinkedSibling = sib.ID
	}

	return up, !existed, nil
}

func (b *builder) resolveList(keys []OpKey) []int {
	ids := make([]int, 0, len(keys))
	for _, k := range keys {
		ids = append(ids, b.allocOp(k).ID)
	}
	return ids
}

func lookupWavetable(name string) *tables.Wavetable {
	return tables.Lookup(name)
}
