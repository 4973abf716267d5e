package lang

import "testing"

func TestParseSimpleSineCarrier(t *testing.T) {
	events, err := New("t", "Wsin f440 t1 a0.5").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if len(ev.OpUpdates) != 1 {
		t.Fatalf("expected 1 operator update, got %d", len(ev.OpUpdates))
	}
	root := ev.OpUpdates[0]
	if !root.IsCarrier || root.WaveName != "sin" {
		t.Fatalf("expected a sin carrier, got %+v", root)
	}
	if root.Freq == nil || root.Freq.V0 == nil || *root.Freq.V0 != 440 {
		t.Fatalf("expected freq v0=440, got %+v", root.Freq)
	}
	if root.Amp == nil || root.Amp.V0 == nil || *root.Amp.V0 != 0.5 {
		t.Fatalf("expected amp v0=0.5, got %+v", root.Amp)
	}
	if root.TimeMs == nil || *root.TimeMs != 1000 {
		t.Fatalf("expected time 1000ms, got %+v", root.TimeMs)
	}
}

func TestParseInlineModulator(t *testing.T) {
	events, err := New("t", "Wsin f440 t1 a1 p[Wsin f220 t1 a0.1]").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	ev := events[0]
	if len(ev.OpUpdates) != 2 {
		t.Fatalf("expected carrier + 1 modulator, got %d", len(ev.OpUpdates))
	}
	root := ev.OpUpdates[0]
	if !root.ListsSet || len(root.PMList) != 1 {
		t.Fatalf("expected a 1-element PM list, got %+v", root.PMList)
	}
	mod := ev.OpUpdates[1]
	if mod.IsCarrier {
		t.Fatalf("inline modulator should not be marked a carrier")
	}
	if mod.Freq == nil || mod.Freq.V0 == nil || *mod.Freq.V0 != 220 {
		t.Fatalf("expected modulator freq v0=220, got %+v", mod.Freq)
	}
}

func TestParseDurationGroupBoundary(t *testing.T) {
	events, err := New("t", "Wsin f440 t0.5 | Wsin f550 t0.5").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[1].GroupBreak != true {
		t.Fatalf("expected the second event to start a new duration group")
	}
}

func TestParseCompositiveStep(t *testing.T) {
	events, err := New("t", "Wsin f440 t1 ; f880").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 top-level event, got %d", len(events))
	}
	if len(events[0].Fork) != 1 {
		t.Fatalf("expected 1 forked continuation, got %d", len(events[0].Fork))
	}
	cont := events[0].Fork[0].OpUpdates[0]
	if cont.IsNew {
		t.Fatalf("a continuation should reuse the parent operator, not introduce a new one")
	}
	if cont.Freq == nil || cont.Freq.V0 == nil || *cont.Freq.V0 != 880 {
		t.Fatalf("expected continuation freq v0=880, got %+v", cont.Freq)
	}
	if cont.OpKey != events[0].RootOpKey {
		t.Fatalf("continuation OpKey should match the parent's")
	}
}

func TestParseNamedReference(t *testing.T) {
	events, err := New("t", "'m Wsin f220 t1 a0.2 ; Wsin f440 t1 a1 p[@m]").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 top-level events, got %d", len(events))
	}
	second := events[1].OpUpdates[0]
	if !second.ListsSet || len(second.PMList) != 1 {
		t.Fatalf("expected a 1-element PM list referencing 'm, got %+v", second.PMList)
	}
	if second.PMList[0] != events[0].OpUpdates[0].OpKey {
		t.Fatalf("expected @m to resolve to the first event's operator key")
	}
}

func TestParseNegativeTimeIsAccepted(t *testing.T) {
	// Negative time values are a build-time error (spec.md scenario 6),
	// not a parse-time one: the scanner's expression grammar allows a
	// leading sign, so the parser must let it through for Build to reject.
	events, err := New("t", "Wsin f440 t-1").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	root := events[0].OpUpdates[0]
	if root.TimeMs == nil || *root.TimeMs != -1000 {
		t.Fatalf("expected time -1000ms, got %+v", root.TimeMs)
	}
}

func TestParseQuitStopsParsing(t *testing.T) {
	events, err := New("t", "Wsin f440 t1 Q Wsin f550 t1").Parse()
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected parsing to stop at Q, got %d events", len(events))
	}
}
