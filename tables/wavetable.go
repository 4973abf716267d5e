// Package tables holds the process-lifetime wavetables, the Line/Ramp
// shape-fill functions, and the noise generator used by the graph
// evaluator.
package tables

import "math"

// Size is the wavetable length W: a power of two, one cycle of a named
// waveform.
const Size = 2048

const sizeMask = Size - 1

// Wavetable is one cycle of a named waveform, peak value 1.0.
type Wavetable struct {
	Name string
	Data [Size]float32
}

// Sample interpolates between table[i] and table[i+1] using the low bits
// of phase as a fractional weight (linear interpolation).
func (w *Wavetable) Sample(phase uint32) float32 {
	const indexBits = 11 // log2(Size)
	const fracBits = 32 - indexBits
	idx := int(phase >> fracBits)
	frac := float32(phase&((1<<fracBits)-1)) / float32(uint32(1)<<fracBits)
	a := w.Data[idx&sizeMask]
	b := w.Data[(idx+1)&sizeMask]
	return a + (b-a)*frac
}

// builtin tables, initialized once at package load.
var builtin = map[string]*Wavetable{}

func register(name string, fill func(i int) float32) *Wavetable {
	wt := &Wavetable{Name: name}
	for i := 0; i < Size; i++ {
		wt.Data[i] = fill(i)
	}
	builtin[name] = wt
	return wt
}

// Lookup returns a named builtin wavetable, or nil if unknown.
func Lookup(name string) *Wavetable {
	return builtin[name]
}

func init() {
	register("sin", func(i int) float32 {
		return float32(math.Sin(2 * math.Pi * float64(i) / Size))
	})
	register("sqr", func(i int) float32 {
		if i < Size/2 {
			return 1
		}
		return -1
	})
	register("tri", func(i int) float32 {
		x := float64(i) / Size
		// triangle: rises 0..1 over first quarter-ish shape, symmetric
		v := 4*math.Abs(x-math.Floor(x+0.75)+0.25) - 1
		return float32(v)
	})
	register("saw", func(i int) float32 {
		x := float64(i) / Size
		return float32(2*(x-math.Floor(x+0.5)) * -1)
	})
	// half-wave variants: one half a waveform, other half silent.
	register("hsin", func(i int) float32 {
		if i >= Size/2 {
			return 0
		}
		return float32(math.Sin(2 * math.Pi * float64(i) / Size))
	})
	register("hsqr", func(i int) float32 {
		if i < Size/4 {
			return 1
		}
		return 0
	})
	// skewed (asymmetric pulse) variant of square, duty cycle 25%.
	register("ssqr", func(i int) float32 {
		if i < Size/4 {
			return 1
		}
		return -1
	})
	// skewed triangle: ramps up over 3/4, down over 1/4 (resembles a
	// slow-attack, fast-decay shape used as an alternate saw/tri blend).
	register("stri", func(i int) float32 {
		x := float64(i) / Size
		if x < 0.75 {
			return float32(2*(x/0.75) - 1)
		}
		return float32(1 - 2*((x-0.75)/0.25))
	})
}
