// Package fx implements the Transition FX Processor (C4): a handful of
// time-domain effects applied in place over a channel's sample slice.
// Every operation rejects non-finite or negative parameters by
// returning the input buffer untouched, so a misconfigured plan never
// corrupts audio (spec §4.4, §7 kind 4).
package fx

import (
	"math"
	"math/rand/v2"
)

func validRange(samples []float32, start, duration int) bool {
	if start < 0 || duration <= 0 {
		return false
	}
	if start+duration > len(samples) {
		return false
	}
	return true
}

func finite(values ...float64) bool {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// NoiseSweep adds uniform noise in [-0.3, 0.3] over [start, start+duration),
// scaled linearly by progress. rng must be an explicitly seeded source
// (spec §9: no ambient RNG) so renders stay reproducible.
func NoiseSweep(samples []float32, start, duration int, rng *rand.Rand) []float32 {
	if rng == nil || !validRange(samples, start, duration) {
		return samples
	}
	for i := 0; i < duration; i++ {
		progress := float64(i) / float64(duration)
		noise := (rng.Float64()*2 - 1) * 0.3
		samples[start+i] += float32(noise * progress)
	}
	return samples
}

// ReverseReverb reads the segment in reverse and blends it back in
// with a linearly decaying gain, per spec §4.4.
func ReverseReverb(samples []float32, start, duration int) []float32 {
	if !validRange(samples, start, duration) {
		return samples
	}
	out := append([]float32(nil), samples...)
	for i := 0; i < duration; i++ {
		srcIdx := start + duration - i
		if srcIdx < 0 || srcIdx >= len(samples) {
			continue
		}
		src := float64(samples[srcIdx])
		gain := (1 - float64(i)/float64(duration)) * 0.4
		out[start+i] += float32(src * gain)
	}
	copy(samples, out)
	return samples
}

// TapeStop resamples [stop-duration, stop) with a quadratic slowdown
// curve and an amplitude fade, zero-filling beyond stop.
func TapeStop(samples []float32, stop, duration int) []float32 {
	start := stop - duration
	if !validRange(samples, start, duration) {
		return samples
	}

	out := append([]float32(nil), samples...)
	for i := 0; i < duration; i++ {
		delta := float64(i)
		progress := delta / float64(duration)
		slowdown := 1 - progress*progress
		readPos := float64(start) + delta*slowdown
		amp := 1 - 0.5*progress

		idx := int(readPos)
		if idx < 0 || idx >= len(samples) {
			out[start+i] = 0
			continue
		}
		out[start+i] = float32(float64(samples[idx]) * amp)
	}
	for i := stop; i < len(out); i++ {
		out[i] = 0
	}
	copy(samples, out)
	return samples
}

// Stutter partitions [start, start+bars*4*60/bpm) into `division`
// equal slices and replays the first slice's samples into every slot.
// bpm must be > 0, else the buffer is returned unchanged.
func Stutter(samples []float32, start int, bars, division int, bpm float64, sampleRate int) []float32 {
	if bpm <= 0 || !finite(bpm) || division <= 0 || bars <= 0 || sampleRate <= 0 {
		return samples
	}

	totalSeconds := float64(bars) * 4 * 60 / bpm
	totalSamples := int(totalSeconds * float64(sampleRate))
	if totalSamples <= 0 || !validRange(samples, start, totalSamples) {
		return samples
	}

	sliceLen := totalSamples / division
	if sliceLen <= 0 {
		return samples
	}

	first := append([]float32(nil), samples[start:start+sliceLen]...)
	for slot := 0; slot < division; slot++ {
		dst := start + slot*sliceLen
		n := sliceLen
		if dst+n > len(samples) {
			n = len(samples) - dst
		}
		if n <= 0 {
			break
		}
		copy(samples[dst:dst+n], first[:n])
	}
	return samples
}

// EQMorph blends channel A down and channel B up across the overlap
// window, in place, as an amplitude-only crossover approximation.
func EQMorph(a, b []float32, duration int) ([]float32, []float32) {
	if duration <= 0 || duration > len(a) || duration > len(b) {
		return a, b
	}
	for i := 0; i < duration; i++ {
		progress := 0.0
		if duration > 1 {
			progress = float64(i) / float64(duration-1)
		}
		a[i] = float32(float64(a[i]) * (1 - 0.7*progress))
		b[i] = float32(float64(b[i]) * (0.3 + 0.7*progress))
	}
	return a, b
}
