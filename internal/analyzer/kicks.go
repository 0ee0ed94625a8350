package analyzer

import "github.com/cartomix/stitchcore/internal/dsp"

const (
	kickScanMS    = 50
	kickSubframe  = 512
	kickLowBandBins = 20
)

// detectKicks refines each coarse beat time to the start of the
// 512-sample subframe, scanned in 64-sample steps within ±50ms, with
// the greatest low-band magnitude (spec §4.2). The refined times are
// reported as KickTimes; beat_times itself is left untouched.
func detectKicks(mono []float64, sampleRate int, beatTimes []float64) []float64 {
	if sampleRate <= 0 || len(mono) < kickSubframe {
		return nil
	}

	scanSamples := sampleRate * kickScanMS / 1000
	win := dsp.HannWindow(kickSubframe)
	kicks := make([]float64, 0, len(beatTimes))

	for _, t := range beatTimes {
		center := int(t * float64(sampleRate))
		lo := center - scanSamples
		if lo < 0 {
			lo = 0
		}
		hi := center + scanSamples
		if hi > len(mono)-kickSubframe {
			hi = len(mono) - kickSubframe
		}
		if hi < lo {
			kicks = append(kicks, t)
			continue
		}

		bestEnergy := -1.0
		bestSample := center
		frame := make([]float64, kickSubframe)
		for start := lo; start <= hi; start += 64 {
			copy(frame, mono[start:start+kickSubframe])
			windowed := append([]float64(nil), frame...)
			dsp.ApplyWindow(windowed, win)
			mag := dsp.MagnitudeSpectrum(windowed)

			var energy float64
			for k := 0; k < kickLowBandBins && k < len(mag); k++ {
				energy += mag[k]
			}
			if energy > bestEnergy {
				bestEnergy = energy
				bestSample = start
			}
		}

		kicks = append(kicks, float64(bestSample)/float64(sampleRate))
	}

	return kicks
}
