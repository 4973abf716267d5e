// Package program holds the compiled-program data model — the operator
// graph, voice allocations, and the linear event list the scheduler
// steps through — and the build pipeline that turns parsed script events
// into it.
package program

import "sonicc/tables"

// UseType names how one operator modulates another.
type UseType int

const (
	UseFM UseType = iota
	UseRateFM
	UsePM
	UseFreqPM
	UseAM
	UseRingAM
)

// GraphEntry is one step of a voice's flattened DFS evaluation order.
type GraphEntry struct {
	OpID    int
	Depth   int
	UseType UseType
	IsRoot  bool
}

// OpList is an immutable flattened modulator list: a dense id slice.
type OpList struct {
	IDs []int
}

func (l *OpList) Count() int {
	if l == nil {
		return 0
	}
	return len(l.IDs)
}

// OperatorNode is one operator instance in the compiled program.
type OperatorNode struct {
	ID        int
	IsCarrier bool

	TimeInVoice    int64 // samples elapsed since voice start
	SilencePrelude int64
	DurationSmp    int64 // resolved operator duration in samples

	Wavetable *tables.Wavetable
	IsNoise   bool
	NoiseSeed uint32

	Phase          uint32
	PhaseIncrement uint32 // 2^32/R coefficient factor baseline

	FreqRamp  *tables.Line // carrier/modulator base frequency
	DynFreq   *tables.Line // FM-depth target frequency ramp
	AmpRamp   *tables.Line
	DynAmp    *tables.Line // AM-depth target amplitude ramp
	PanRamp   *tables.Line // carriers only

	FreqIsRatio    bool
	DynFreqIsRatio bool

	FMList      *OpList
	RateFMList  *OpList
	PMList      *OpList
	FreqPMList  *OpList
	AMList      *OpList
	RingAMList  *OpList

	LinkedSibling int // -1 if none; next operator in a multi-op carrier group

	GraphDirty bool
}

func newOperatorNode(id int) *OperatorNode {
	return &OperatorNode{
		ID:            id,
		FreqRamp:      tables.NewLine(),
		AmpRamp:       tables.NewLine(),
		PanRamp:       tables.NewLine(),
		LinkedSibling: -1,
	}
}

// VoiceAllocation is a voice's carrier set and cached evaluation order.
type VoiceAllocation struct {
	ID         int
	CarrierIDs []int
	GraphOrder []GraphEntry
	MaxDepth   int

	StartSample      int64
	DurationSamples  int64
	RemainingSamples int64
	Active           bool
}

// OpUpdate is one operator's parameter delta within an Event.
type OpUpdate struct {
	OpID          int
	FreqUpdate    *tables.Update
	DynFreqUpdate *tables.Update
	AmpUpdate     *tables.Update
	DynAmpUpdate  *tables.Update
	PanUpdate     *tables.Update

	SetWavetable *tables.Wavetable
	SetNoise     bool

	FMList     []int
	RateFMList []int
	PMList     []int
	FreqPMList []int
	AMList     []int
	RingAMList []int
	ListsSet   bool
}

// Event is one entry in the program's linear, time-ordered event list.
type Event struct {
	WaitSamples     int64 // from the previous event's scheduled time
	VoiceID         int
	NewVoice        bool
	OpUpdates       []OpUpdate
	GraphRefresh    bool
}

// DurationGroup is a contiguous run of top-level events whose operators'
// undefined times resolve jointly to the group's longest operator time.
type DurationGroup struct {
	StartEvent int
	EndEvent   int // exclusive
	ResolvedMs float64
}

// ModeFlags are per-program build-time options.
type ModeFlags int

const (
	ModeAmpScaleDisabled ModeFlags = 1 << iota
)

// Program is the compiled result of Build: a flat event list plus the
// operator/voice tables it refers to by dense id.
type Program struct {
	Events      []Event
	Operators   []*OperatorNode
	Voices      []*VoiceAllocation
	VoiceCount  int
	OpCount     int
	OpNestDepth int
	DurationMs  float64
	ModeFlags   ModeFlags
	SampleRate  float64
}

func (p *Program) Operator(id int) *OperatorNode { return p.Operators[id] }
func (p *Program) Voice(id int) *VoiceAllocation { return p.Voices[id] }
