package program

import "math"

// resolveGroupTiming implements step 5 for one duration group: operators
// within [start,end) of the flattened event list that never received an
// explicit time inherit the group's longest explicit operator time (or
// the build's default duration if none in the group set one). It returns
// the group's nominal longest operator duration (before cycle trimming)
// and the actual longest carrier duration after trimming, so the caller
// can advance the next group's base time by the former and carry the
// residual between the two forward as a delay offset.
func (b *builder) resolveGroupTiming(start, end int, flat []flatEvent) (nominalSmp, trimmedSmp int64) {
	var longest int64
	var opsInGroup []int
	for i := start; i < end; i++ {
		for _, sod := range flat[i].ev.OpUpdates {
			id, ok := b.opID(sod.OpKey)
			if !ok {
				continue
			}
			opsInGroup = append(opsInGroup, id)
			if d := b.ops[id].DurationSmp; d > longest {
				longest = d
			}
		}
	}
	if longest == 0 {
		longest = int64(b.opt.DefaultDurationMs * b.opt.SampleRate / 1000.0)
	}
	for _, id := range opsInGroup {
		if b.ops[id].DurationSmp == 0 {
			b.ops[id].DurationSmp = longest
		}
	}

	var longestTrimmed int64
	for _, id := range opsInGroup {
		op := b.ops[id]
		if op.IsCarrier && op.Wavetable != nil && !op.IsNoise {
			op.DurationSmp = trimToCycleEnd(b.freqHint[id], b.opt.SampleRate, op.DurationSmp)
		}
		if op.IsCarrier && op.DurationSmp > longestTrimmed {
			longestTrimmed = op.DurationSmp
		}
	}
	if longestTrimmed == 0 {
		longestTrimmed = longest
	}
	return longest, longestTrimmed
}

// trimToCycleEnd shortens duration to the nearest whole-cycle boundary
// for a carrier oscillating at freqHz, so playback ends with the
// oscillator phase at (or within a rounding error of) zero rather than
// mid-cycle — this is what suppresses an edge click at the wavetable seam.
// |result-duration| < srate/freqHz.
func trimToCycleEnd(freqHz, srate float64, duration int64) int64 {
	if freqHz <= 0 || duration <= 0 {
		return duration
	}
	periodSamples := srate / freqHz
	cycles := math.Round(float64(duration) / periodSamples)
	if cycles < 1 {
		cycles = 1
	}
	trimmed := int64(math.Round(cycles * periodSamples))
	if trimmed < 1 {
		trimmed = 1
	}
	return trimmed
}
