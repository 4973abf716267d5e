package tables

// Noise is a white-noise source driven by a 32-bit counter hash: both
// Next (stateful, advances one sample) and At (stateless, for a given
// counter) are pure functions of the counter, so recycled operators that
// reset the counter reproduce the same sequence.
type Noise struct {
	counter uint32
	seed    uint32
}

// NewNoise seeds a noise source; a zero seed still produces a usable
// (if fixed) sequence.
func NewNoise(seed uint32) *Noise {
	return &Noise{seed: seed}
}

// hash32 is a cheap integer hash (from Bob Jenkins' one-at-a-time
// family) mapping a counter value to a well-distributed 32-bit word.
func hash32(x uint32) uint32 {
	x += x << 10
	x ^= x >> 6
	x += x << 3
	x ^= x >> 11
	x += x << 15
	return x
}

// At returns the noise value for an arbitrary counter position, mapped
// into [-1, 1].
func (n *Noise) At(pos uint32) float64 {
	h := hash32(pos ^ n.seed)
	return float64(int32(h))/float64(1<<31)
}

// Next advances the counter by one and returns the next sample.
func (n *Noise) Next() float64 {
	n.counter++
	return n.At(n.counter)
}

// Reset rewinds the counter to 0 (used when an operator/voice recycles).
func (n *Noise) Reset() {
	n.counter = 0
}
