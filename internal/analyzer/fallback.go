package analyzer

import "github.com/cartomix/stitchcore/internal/domain"

// fallbackBeatGrid is the synthetic grid spec §3 mandates when beat
// detection finds nothing usable: four beats at 120 BPM starting at 0.
var fallbackBeatGrid = []float64{0.0, 0.5, 1.0, 1.5}

// Fallback returns the degenerate-input summary spec §3/§7 require:
// bpm=120, camelot="1A", a small synthetic beat grid, and otherwise
// total/finite fields so downstream stages never special-case it.
func Fallback(buf *domain.PCMBuffer) domain.AnalysisSummary {
	sr := 48000
	dur := 0.0
	if buf != nil && buf.SampleRate > 0 {
		sr = buf.SampleRate
		dur = buf.Duration()
	}
	return domain.AnalysisSummary{
		BPM:             120,
		BPMAlt:          60,
		BPMConfidence:   0,
		Camelot:         "1A",
		KeySemitone:     0,
		KeyConfidence:   0,
		BeatTimes:       append([]float64(nil), fallbackBeatGrid...),
		DownbeatIndices: []int{0},
		PhraseSpans:     nil,
		EnergyCurve:     []float64{0.5},
		VocalLikelihood: []float64{0},
		KickTimes:       nil,
		SampleRate:      sr,
		Duration:        dur,
		Fallback:        true,
	}
}
