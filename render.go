package sonicc

import (
	"sonicc/program"
	"sonicc/scheduler"
)

// RendererOption configures NewRenderer via the functional-option pattern.
type RendererOption func(*rendererConfig)

type rendererConfig struct {
	mono bool
}

func defaultRendererConfig() rendererConfig {
	return rendererConfig{}
}

// WithMono selects the mono output mix.
func WithMono(enabled bool) RendererOption {
	return func(c *rendererConfig) { c.mono = enabled }
}

// Renderer drives one compiled Program's scheduler and exposes it both
// as a pull-based frame source (Render) and as an internal/audio.
// SampleSource/FinishingSource for the device player.
type Renderer struct {
	sched *scheduler.Scheduler
	mono  bool
}

// NewRenderer allocates the per-render operator/voice state for prog
// (see program.NewOperatorState) and wraps it in a Scheduler.
func NewRenderer(prog *program.Program, opts ...RendererOption) *Renderer {
	cfg := defaultRendererConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Renderer{
		sched: scheduler.New(prog, cfg.mono),
		mono:  cfg.mono,
	}
}

// Render fills out (interleaved int16, channel count matching the mono
// option) with up to frames frames and reports how many it produced and
// whether the program has finished - the sample-sink contract's
// "engine" side.
func (r *Renderer) Render(out []int16, frames int) (int, bool) {
	return r.sched.Render(out, frames)
}

// Done reports whether the program has finished: no active voices and
// no future events.
func (r *Renderer) Done() bool {
	return r.sched.Done()
}

// Write implements internal/audio.SampleSource, which always wants
// interleaved stereo regardless of the renderer's own mono setting; a
// mono renderer duplicates its single channel across both output
// channels here rather than inside the scheduler, keeping mixer.Bus
// free of device-specific channel duplication.
func (r *Renderer) Write(dst []int16) (int, error) {
	frames := len(dst) / 2
	if !r.mono {
		n, _ := r.sched.Render(dst[:frames*2], frames)
		return n, nil
	}
	mono := make([]int16, frames)
	n, _ := r.sched.Render(mono, frames)
	for i := 0; i < n; i++ {
		dst[2*i] = mono[i]
		dst[2*i+1] = mono[i]
	}
	return n, nil
}

// Finished implements internal/audio.FinishingSource.
func (r *Renderer) Finished() bool {
	return r.sched.Done()
}
