package analyzer

import (
	"math"

	"github.com/cartomix/stitchcore/internal/dsp"
)

const (
	keyFrameSize = 4096
	keyHopSize   = 4096
	minKeyFreqHz = 80.0
	maxKeyFreqHz = 5000.0
)

// camelotTable is the fixed 24-entry table the dominant pitch class is
// mapped through: entries 0-11 are the major Camelot codes indexed by
// root pitch class (0=C, 1=C#, ... 11=B), entries 12-23 are the minor
// codes for the same roots.
var camelotTable = [24]string{
	"8B", "3B", "10B", "5B", "12B", "7B", "2B", "9B", "4B", "11B", "6B", "1B",
	"5A", "12A", "7A", "2A", "9A", "4A", "11A", "6A", "1A", "8A", "3A", "10A",
}

// detectKey accumulates a 12-bin chromagram over 4096-sample hops
// restricted to the 80-5000Hz band and takes the dominant pitch class
// as the tonic. Major vs minor is decided by comparing the tonic's
// major third (root+4) against its minor third (root+3) in the same
// chromagram. The root and mode index the fixed 24-entry Camelot
// table; confidence is the dominant bin's share of total chroma
// energy.
func detectKey(mono []float64, sampleRate int) (camelot string, keySemitone int, confidence float64) {
	if len(mono) < keyFrameSize || sampleRate <= 0 {
		return "1A", 0, 0
	}

	chroma := buildChroma(mono, sampleRate)
	total := chromaEnergy(chroma)
	if total == 0 {
		return "1A", 0, 0
	}

	root := 0
	for pc := 1; pc < 12; pc++ {
		if chroma[pc] > chroma[root] {
			root = pc
		}
	}

	tableIndex := root
	if chroma[(root+3)%12] > chroma[(root+4)%12] {
		tableIndex += 12
	}

	camelot = camelotTable[tableIndex]
	keySemitone = root
	confidence = chroma[root] / total
	return camelot, keySemitone, confidence
}

func buildChroma(mono []float64, sampleRate int) [12]float64 {
	var chroma [12]float64
	win := dsp.HannWindow(keyFrameSize)
	frame := make([]float64, keyFrameSize)

	for start := 0; start+keyFrameSize <= len(mono); start += keyHopSize {
		copy(frame, mono[start:start+keyFrameSize])
		windowed := append([]float64(nil), frame...)
		dsp.ApplyWindow(windowed, win)
		mag := dsp.MagnitudeSpectrum(windowed)

		for k := 1; k < len(mag)/2; k++ {
			freq := dsp.BinFrequency(k, keyFrameSize, sampleRate)
			if freq < minKeyFreqHz || freq > maxKeyFreqHz {
				continue
			}
			midi := 69 + 12*math.Log2(freq/440.0)
			pitchClass := int(math.Round(midi)) % 12
			if pitchClass < 0 {
				pitchClass += 12
			}
			chroma[pitchClass] += mag[k]
		}
	}
	return chroma
}

func chromaEnergy(chroma [12]float64) float64 {
	var sum float64
	for _, v := range chroma {
		sum += v
	}
	return sum
}
