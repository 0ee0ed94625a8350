package analyzer

import (
	"math"

	"github.com/cartomix/stitchcore/internal/dsp"
)

const (
	frameSize = 2048
	hopSize   = 512
	peakRadius = 3
)

// detectBeats implements spec §4.2's spectral-flux onset detector:
// flux_t = sqrt(sum(max(0, mag_t[k]-mag_{t-1}[k])^2)) over 2048-sample
// frames hopped by 512, peak-picked against a ±1s adaptive threshold.
func detectBeats(mono []float64, sampleRate int) []float64 {
	if len(mono) < frameSize || sampleRate <= 0 {
		return nil
	}

	win := dsp.HannWindow(frameSize)
	numFrames := (len(mono)-frameSize)/hopSize + 1
	if numFrames < 2 {
		return nil
	}

	flux := make([]float64, numFrames)
	var prevMag []float64
	frame := make([]float64, frameSize)
	for f := 0; f < numFrames; f++ {
		start := f * hopSize
		copy(frame, mono[start:start+frameSize])
		windowed := append([]float64(nil), frame...)
		dsp.ApplyWindow(windowed, win)
		mag := dsp.MagnitudeSpectrum(windowed)

		if prevMag != nil {
			var sumSq float64
			for k := 0; k < len(mag) && k < len(prevMag); k++ {
				d := mag[k] - prevMag[k]
				if d > 0 {
					sumSq += d * d
				}
			}
			flux[f] = math.Sqrt(sumSq)
		}
		prevMag = mag
	}

	radiusFrames := sampleRate / hopSize
	if radiusFrames < 1 {
		radiusFrames = 1
	}

	var beatTimes []float64
	for i := 0; i < numFrames; i++ {
		lo := i - radiusFrames
		if lo < 0 {
			lo = 0
		}
		hi := i + radiusFrames
		if hi >= numFrames {
			hi = numFrames - 1
		}
		var sum float64
		count := 0
		for j := lo; j <= hi; j++ {
			sum += flux[j]
			count++
		}
		if count == 0 {
			continue
		}
		mu := sum / float64(count)
		if flux[i] > 1.5*mu && dsp.IsLocalPeak(flux, i, peakRadius) {
			t := float64(i*hopSize) / float64(sampleRate)
			beatTimes = append(beatTimes, t)
		}
	}

	return beatTimes
}

// estimateTempo derives bpm, bpm_alt, and bpm_confidence from
// inter-beat intervals per spec §4.2.
func estimateTempo(beatTimes []float64) (bpm, bpmAlt, confidence float64) {
	if len(beatTimes) < 2 {
		return 120, 60, 0
	}

	histogram := make(map[int]int)
	total := 0
	for i := 1; i < len(beatTimes); i++ {
		delta := beatTimes[i] - beatTimes[i-1]
		if !(delta > 0) || math.IsInf(delta, 0) {
			continue
		}
		candidate := int(math.Round(60 / delta))
		if candidate < 1 {
			candidate = 1
		}
		if candidate > 299 {
			candidate = 299
		}
		histogram[candidate]++
		total++
	}

	if total == 0 {
		return 120, 60, 0
	}

	dominantBPM, dominantCount := 0, 0
	for b, c := range histogram {
		if c > dominantCount || (c == dominantCount && b < dominantBPM) {
			dominantBPM, dominantCount = b, c
		}
	}

	bpm = float64(dominantBPM)
	if bpm < 60 {
		bpm = 60
	} else if bpm > 200 {
		bpm = 200
	}

	if bpm > 100 {
		bpmAlt = bpm / 2
	} else {
		bpmAlt = bpm * 2
	}

	confidence = float64(dominantCount) / float64(total)

	return bpm, bpmAlt, confidence
}

// detectDownbeats assumes 4/4 time and walks the beat grid looking for
// bar-start alignment, resynchronizing the bar index whenever a beat
// drifts more than half a beat duration from the expected grid
// position (spec §4.2, §9 open question: index 0 is always a
// downbeat).
func detectDownbeats(beatTimes []float64, bpm float64) []int {
	if len(beatTimes) == 0 {
		return nil
	}
	if bpm <= 0 || math.IsNaN(bpm) || math.IsInf(bpm, 0) {
		bpm = 120
	}

	beatDur := 60 / bpm
	barDur := 4 * beatDur
	downbeats := []int{0}
	nextExpected := barDur

	for i := 1; i < len(beatTimes); i++ {
		t := beatTimes[i]
		switch {
		case math.Abs(t-nextExpected) <= 0.5*beatDur:
			downbeats = append(downbeats, i)
			nextExpected += barDur
		case t > nextExpected+0.5*beatDur:
			k := math.Floor(t / barDur)
			downbeats = append(downbeats, i)
			nextExpected = (k + 1) * barDur
		}
	}

	return downbeats
}
