// Package audio adapts the renderer's native int16 interleaved frames to
// the ebitengine/oto PCM backend, which only accepts float32 stereo. It
// is the "audio device" collaborator: the
// renderer knows only the sample-sink contract (write int16 frames,
// retry on short writes, stop on non-positive progress); this package is
// the one concrete sink that satisfies it over real hardware.
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	ebitaudio "github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleSource produces interleaved int16 stereo frames on demand. A
// mono renderer still implements this by duplicating its single channel
// across both output channels (see sonicc's Renderer.Write; in mono mode
// mixer.Bus.InterleaveInto itself emits one sample per frame).
type SampleSource interface {
	// Write fills dst (a whole number of interleaved stereo frames) and
	// returns the number of frames actually produced. Returning 0 or a
	// negative number signals end of stream.
	Write(dst []int16) (frames int, err error)
}

// FinishingSource lets a source report completion explicitly, separate
// from a short read, so the stream can emit a final partial block before
// signaling io.EOF.
type FinishingSource interface {
	SampleSource
	Finished() bool
}

// StreamReader implements io.Reader over a SampleSource by converting its
// int16 frames to the float32 little-endian stereo stream oto expects.
type StreamReader struct {
	mu     sync.Mutex
	source SampleSource
	i16buf []int16
}

func NewStreamReader(source SampleSource) *StreamReader {
	return &StreamReader{source: source}
}

func (r *StreamReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	frames := len(p) / 8 // 2 channels * 4 bytes (float32) per frame
	if frames == 0 {
		return 0, nil
	}
	need := frames * 2
	if cap(r.i16buf) < need {
		r.i16buf = make([]int16, need)
	}
	r.i16buf = r.i16buf[:need]

	n, err := r.source.Write(r.i16buf)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, io.EOF
	}
	sampleN := n * 2
	for i := 0; i < sampleN; i++ {
		f := float32(r.i16buf[i]) / 32768.0
		binary.LittleEndian.PutUint32(p[i*4:], math.Float32bits(f))
	}

	written := sampleN * 4
	if fs, ok := r.source.(FinishingSource); ok && fs.Finished() && n < frames {
		return written, io.EOF
	}
	return written, nil
}

func (r *StreamReader) Close() error { return nil }

type Player struct {
	player *ebitaudio.Player
	reader io.ReadCloser
}

var (
	audioContextOnce sync.Once
	audioContext     *ebitaudio.Context
	audioContextErr  error
	audioSampleRate  int
)

func sharedAudioContext(sampleRate int) (*ebitaudio.Context, error) {
	audioContextOnce.Do(func() {
		audioSampleRate = sampleRate
		audioContext = ebitaudio.NewContext(sampleRate)
	})
	if audioContextErr != nil {
		return nil, audioContextErr
	}
	if audioSampleRate != sampleRate {
		return nil, fmt.Errorf("audio context already initialized at %d Hz (requested %d Hz)", audioSampleRate, sampleRate)
	}
	return audioContext, nil
}

// NewPlayer opens the shared device context at sampleRate and wraps
// source in a Player. Only one sample rate can be live per process,
// an oto/v3 constraint.
func NewPlayer(sampleRate int, source SampleSource) (*Player, error) {
	ctx, err := sharedAudioContext(sampleRate)
	if err != nil {
		return nil, err
	}
	reader := NewStreamReader(source)
	pl, err := ctx.NewPlayerF32(reader)
	if err != nil {
		return nil, err
	}
	return &Player{
		player: pl,
		reader: reader,
	}, nil
}

func (p *Player) Play()  { p.player.Play() }
func (p *Player) Pause() { p.player.Pause() }
func (p *Player) IsPlaying() bool {
	return p.player.IsPlaying()
}

// Position returns the current playback position (what the listener actually hears).
func (p *Player) Position() time.Duration {
	return p.player.Position()
}

func (p *Player) Stop() error {
	p.player.Pause()
	p.player.Close()
	return p.reader.Close()
}
