package program

import "testing"

func f64(v float64) *float64 { return &v }

func TestBuildSimpleSineVoice(t *testing.T) {
	ev := &ScriptEvent{
		WaitMs:    0,
		RootOpKey: "v1",
		OpUpdates: []*ScriptOpData{
			{
				OpKey:     "v1",
				IsNew:     true,
				IsCarrier: true,
				WaveName:  "sin",
				Freq:      &RampSpec{V0: f64(440)},
				Amp:       &RampSpec{V0: f64(0.5)},
				TimeMs:    f64(1000),
			},
		},
	}
	p, err := Build([]*ScriptEvent{ev}, DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if p.VoiceCount != 1 {
		t.Fatalf("expected 1 voice, got %d", p.VoiceCount)
	}
	if p.OpCount != 1 {
		t.Fatalf("expected 1 operator, got %d", p.OpCount)
	}
	if p.DurationMs < 999 || p.DurationMs > 1001 {
		t.Fatalf("expected ~1000ms duration, got %v", p.DurationMs)
	}
	op := p.Operator(0)
	if op.Wavetable == nil || op.Wavetable.Name != "sin" {
		t.Fatalf("expected sin wavetable, got %v", op.Wavetable)
	}
	up := p.Events[0].OpUpdates[0]
	if up.AmpUpdate == nil || up.AmpUpdate.V0 != 0.5 {
		t.Fatalf("expected amp v0=0.5, got %v", up.AmpUpdate)
	}
}

func TestBuildNegativeTimeFails(t *testing.T) {
	ev := &ScriptEvent{
		RootOpKey: "v1",
		OpUpdates: []*ScriptOpData{
			{OpKey: "v1", IsNew: true, IsCarrier: true, WaveName: "sin", Freq: &RampSpec{V0: f64(440)}, TimeMs: f64(-1000)},
		},
	}
	_, err := Build([]*ScriptEvent{ev}, DefaultBuildOptions(48000))
	if err == nil {
		t.Fatalf("expected error for negative time")
	}
}

func TestBuildTwoCarriersAmpScaled(t *testing.T) {
	mk := func(key string, freq float64, waitMs float64) *ScriptEvent {
		return &ScriptEvent{
			WaitMs:    waitMs,
			RootOpKey: key,
			OpUpdates: []*ScriptOpData{
				{OpKey: key, IsNew: true, IsCarrier: true, WaveName: "sin",
					Freq: &RampSpec{V0: f64(freq)}, Amp: &RampSpec{V0: f64(1.0)}, TimeMs: f64(500)},
			},
		}
	}
	p, err := Build([]*ScriptEvent{mk("a", 440, 0), mk("b", 550, 0)}, DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.VoiceCount != 2 {
		t.Fatalf("expected 2 voices, got %d", p.VoiceCount)
	}
	for ei := range p.Events {
		for _, up := range p.Events[ei].OpUpdates {
			if up.AmpUpdate == nil {
				continue
			}
			if up.AmpUpdate.V0 != 0.5 {
				t.Fatalf("expected amp scaled to 0.5, got %v", up.AmpUpdate.V0)
			}
		}
	}
}

func TestBuildModulatorGraphOrder(t *testing.T) {
	ev := &ScriptEvent{
		RootOpKey: "car",
		OpUpdates: []*ScriptOpData{
			{OpKey: "mod", IsNew: true, WaveName: "sin", Freq: &RampSpec{V0: f64(220)}, Amp: &RampSpec{V0: f64(0.1)}, TimeMs: f64(1000)},
			{OpKey: "car", IsNew: true, IsCarrier: true, WaveName: "sin",
				Freq: &RampSpec{V0: f64(440)}, Amp: &RampSpec{V0: f64(1)}, TimeMs: f64(1000),
				PMList: []OpKey{"mod"}, ListsSet: true},
		},
	}
	p, err := Build([]*ScriptEvent{ev}, DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := p.Voice(0)
	if len(v.GraphOrder) != 2 {
		t.Fatalf("expected 2 graph entries (carrier + PM mod), got %d", len(v.GraphOrder))
	}
	if v.GraphOrder[0].UseType != UseFM || !v.GraphOrder[0].IsRoot {
		t.Fatalf("expected first entry to be the carrier root")
	}
	if v.GraphOrder[1].UseType != UsePM {
		t.Fatalf("expected second entry to be a PM modulator, got %v", v.GraphOrder[1].UseType)
	}
}
