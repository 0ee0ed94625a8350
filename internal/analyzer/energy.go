package analyzer

import (
	"math"

	"github.com/cartomix/stitchcore/internal/dsp"
)

const (
	energyWindowMS   = 20
	energySmoothing  = 5
	vocalFrameSize   = 4096
	vocalBandLowHz   = 2000.0
	vocalBandHighHz  = 5000.0
)

// energyCurve computes an RMS envelope over 20ms windows, smoothed by a
// ±5-frame moving average. An empty/degenerate buffer yields the
// single-value fallback curve spec §4.2 mandates.
func energyCurve(mono []float64, sampleRate int) []float64 {
	if len(mono) == 0 || sampleRate <= 0 {
		return []float64{0.5}
	}

	windowLen := sampleRate * energyWindowMS / 1000
	if windowLen < 1 {
		windowLen = 1
	}

	numWindows := len(mono) / windowLen
	if numWindows == 0 {
		return []float64{0.5}
	}

	raw := make([]float64, numWindows)
	for w := 0; w < numWindows; w++ {
		start := w * windowLen
		end := start + windowLen
		var sumSq float64
		for i := start; i < end; i++ {
			sumSq += mono[i] * mono[i]
		}
		raw[w] = math.Sqrt(sumSq / float64(windowLen))
	}

	smoothed := make([]float64, numWindows)
	for w := 0; w < numWindows; w++ {
		lo := w - energySmoothing
		if lo < 0 {
			lo = 0
		}
		hi := w + energySmoothing
		if hi >= numWindows {
			hi = numWindows - 1
		}
		var sum float64
		count := 0
		for j := lo; j <= hi; j++ {
			sum += raw[j]
			count++
		}
		smoothed[w] = sum / float64(count)
	}

	return smoothed
}

// vocalLikelihood estimates per-frame vocal presence as the fraction of
// spectral energy in the 2-5kHz formant band, hopped every 4096
// samples, clamped to [0, 1].
func vocalLikelihood(mono []float64, sampleRate int) []float64 {
	if len(mono) < vocalFrameSize || sampleRate <= 0 {
		return []float64{0}
	}

	win := dsp.HannWindow(vocalFrameSize)
	frame := make([]float64, vocalFrameSize)
	var out []float64

	for start := 0; start+vocalFrameSize <= len(mono); start += vocalFrameSize {
		copy(frame, mono[start:start+vocalFrameSize])
		windowed := append([]float64(nil), frame...)
		dsp.ApplyWindow(windowed, win)
		mag := dsp.MagnitudeSpectrum(windowed)

		var bandMag, totalMag float64
		for k := 1; k < len(mag)/2; k++ {
			freq := dsp.BinFrequency(k, vocalFrameSize, sampleRate)
			totalMag += mag[k]
			if freq >= vocalBandLowHz && freq <= vocalBandHighHz {
				bandMag += mag[k]
			}
		}

		ratio := 0.0
		if totalMag > 0 {
			ratio = 2 * bandMag / totalMag
		}
		if ratio < 0 {
			ratio = 0
		}
		if ratio > 1 {
			ratio = 1
		}
		out = append(out, ratio)
	}

	if len(out) == 0 {
		return []float64{0}
	}
	return out
}
