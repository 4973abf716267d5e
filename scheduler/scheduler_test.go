package scheduler

import (
	"math"
	"testing"

	"sonicc/program"
)

func f64(v float64) *float64 { return &v }

func sineVoiceEvent(freq, amp, durMs float64) *program.ScriptEvent {
	return &program.ScriptEvent{
		RootOpKey: "v",
		OpUpdates: []*program.ScriptOpData{
			{
				OpKey:     "v",
				IsNew:     true,
				IsCarrier: true,
				WaveName:  "sin",
				Freq:      &program.RampSpec{V0: f64(freq)},
				Amp:       &program.RampSpec{V0: f64(amp)},
				TimeMs:    f64(durMs),
			},
		},
	}
}

func TestRenderEmptyProgramIsImmediatelyDone(t *testing.T) {
	prog, err := program.Build(nil, program.DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	s := New(prog, false)
	if !s.Done() {
		t.Fatalf("expected an empty program to be done immediately")
	}
	out := make([]int16, 20)
	n, done := s.Render(out, 10)
	if n != 0 || !done {
		t.Fatalf("expected 0 frames and done=true, got n=%d done=%v", n, done)
	}
}

// TestRenderSineProducesExpectedFrameCountAndRMS exercises end-to-end
// scenario 2: a 1-second 440Hz sine at amplitude 0.5, mono, 48kHz.
func TestRenderSineProducesExpectedFrameCountAndRMS(t *testing.T) {
	prog, err := program.Build([]*program.ScriptEvent{sineVoiceEvent(440, 0.5, 1000)}, program.DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	s := New(prog, true)
	var frames []int16
	buf := make([]int16, 512)
	for {
		n, done := s.Render(buf, 512)
		frames = append(frames, buf[:n]...)
		if done {
			break
		}
	}
	if len(frames) != 48000 {
		t.Fatalf("expected 48000 frames, got %d", len(frames))
	}

	var sumSq float64
	for _, v := range frames {
		sumSq += float64(v) * float64(v)
	}
	rms := math.Sqrt(sumSq / float64(len(frames)))
	expected := 0.5 / math.Sqrt2 * 32767.0
	if math.Abs(rms-expected)/expected > 0.01 {
		t.Fatalf("rms %v not within 1%% of expected %v", rms, expected)
	}
}

// TestRenderTwiceIsBitIdentical checks the graph-evaluation invariant:
// two independent renderers over the same compiled Program produce
// identical output.
func TestRenderTwiceIsBitIdentical(t *testing.T) {
	prog, err := program.Build([]*program.ScriptEvent{sineVoiceEvent(440, 0.5, 50)}, program.DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	render := func() []int16 {
		s := New(prog, true)
		var frames []int16
		buf := make([]int16, 256)
		for {
			n, done := s.Render(buf, 256)
			frames = append(frames, buf[:n]...)
			if done {
				break
			}
		}
		return frames
	}

	a := render()
	b := render()
	if len(a) != len(b) {
		t.Fatalf("frame count mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sample %d differs: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestRenderTwoCarriersInSequence(t *testing.T) {
	ev1 := sineVoiceEvent(440, 1, 500)
	ev1.RootOpKey = "a"
	ev1.OpUpdates[0].OpKey = "a"
	ev2 := sineVoiceEvent(550, 1, 500)
	ev2.RootOpKey = "b"
	ev2.OpUpdates[0].OpKey = "b"
	ev2.GroupBreak = true

	prog, err := program.Build([]*program.ScriptEvent{ev1, ev2}, program.DefaultBuildOptions(48000))
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	if prog.VoiceCount != 2 {
		t.Fatalf("expected 2 voices, got %d", prog.VoiceCount)
	}

	s := New(prog, true)
	var frames []int16
	buf := make([]int16, 1024)
	for {
		n, done := s.Render(buf, 1024)
		frames = append(frames, buf[:n]...)
		if done {
			break
		}
	}
	if len(frames) < 47000 || len(frames) > 49000 {
		t.Fatalf("expected roughly 48000 frames for a 1s total program, got %d", len(frames))
	}
}
