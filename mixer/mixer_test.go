package mixer

import "testing"

func TestPanGainsCenter(t *testing.T) {
	l, r := PanGains(0)
	if l != 0.5 || r != 0.5 {
		t.Fatalf("expected center pan 0.5/0.5, got %v/%v", l, r)
	}
}

func TestPanGainsHardLeft(t *testing.T) {
	l, r := PanGains(-1)
	if l != 1 || r != 0 {
		t.Fatalf("expected hard left 1/0, got %v/%v", l, r)
	}
}

func TestPanGainsHardRight(t *testing.T) {
	l, r := PanGains(1)
	if l != 0 || r != 1 {
		t.Fatalf("expected hard right 0/1, got %v/%v", l, r)
	}
}

func TestSaturateClips(t *testing.T) {
	bus := NewBus(1, false)
	bus.AddVoiceConstPan([]float64{100000}, 0, 1)
	out := make([]int16, 2)
	bus.InterleaveInto(out, 1)
	if out[0] != 32767 || out[1] != 32767 {
		t.Fatalf("expected clipped to int16 max, got %v", out)
	}
}

func TestMonoHalvesStereoSum(t *testing.T) {
	bus := NewBus(1, true)
	bus.AddVoiceConstPan([]float64{1000}, -1, 1) // all left: L=1000 R=0
	out := make([]int16, 1)
	bus.InterleaveInto(out, 1)
	if out[0] != 500 {
		t.Fatalf("expected mono halved sum 500, got %v", out[0])
	}
}
