package program

import "sonicc/tables"

// OpKey identifies a parser-side operator object by pointer equality —
// the parser's symbol table and AST nodes are external collaborators;
// Build only needs to tell "same operator again" from "new operator".
type OpKey interface{}

// RampSpec is the parser's description of a ramp update: only the
// fields actually written in the script are non-nil/flagged, matching
// the ramp's own "merge" precedence (see tables.Update).
type RampSpec struct {
	V0       *float64
	Vt       *float64
	Shape    tables.Shape
	ShapeSet bool
	TimeMs   *float64
}

func (r *RampSpec) toUpdate(defaultEnd int) tables.Update {
	if r == nil {
		return tables.Update{}
	}
	var u tables.Update
	if r.V0 != nil {
		u.V0 = *r.V0
		u.Flags |= tables.FlagStateSet
	}
	if r.Vt != nil {
		u.Vt = *r.Vt
		u.Flags |= tables.FlagGoalSet
	}
	if r.ShapeSet {
		u.Shape = r.Shape
		u.Flags |= tables.FlagShapeSet
	} else {
		u.Shape = tables.ShapeLin
	}
	if r.TimeMs != nil {
		u.TimeMs = *r.TimeMs
		u.Flags |= tables.FlagTimeSet
	}
	u.DefaultEnd = defaultEnd
	return u
}

// ScriptOpData is one operator update as emitted by the parser: a
// pointer-equality key identifying "same operator as before" vs "new
// operator", plus whichever parameters the script line actually set.
type ScriptOpData struct {
	OpKey     OpKey
	IsNew     bool
	IsCarrier bool

	WaveName  string // "" if not a wave oscillator
	NoiseType string // "" if not a noise source; "WH" for white noise

	Freq    *RampSpec
	DynFreq *RampSpec // FM-depth target frequency
	Amp     *RampSpec
	DynAmp  *RampSpec // AM-depth target amplitude
	Pan     *RampSpec

	FreqIsRatio    bool
	DynFreqIsRatio bool

	TimeMs      *float64
	LinkedNext  *ScriptOpData // multi-operator carrier group chain

	FMList     []OpKey
	RateFMList []OpKey
	PMList     []OpKey
	FreqPMList []OpKey
	AMList     []OpKey
	RingAMList []OpKey
	ListsSet   bool
}

// ScriptEvent is one event as emitted by the parser: a wait time from
// the previous event, a root (carrier) operator key, a set of operator
// updates reachable from it, and any forked sub-sequence.
type ScriptEvent struct {
	WaitMs      float64
	RootOpKey   OpKey
	OpUpdates   []*ScriptOpData
	Fork        []*ScriptEvent // EventBranch: compositive sub-steps
	GroupBreak  bool           // '|' duration-group boundary before this event
}
