package analyzer

import (
	"math"
	"testing"
)

func TestDetectKeySilence(t *testing.T) {
	mono := make([]float64, keyFrameSize*2)
	camelot, semitone, confidence := detectKey(mono, 48000)
	if camelot != "1A" || semitone != 0 || confidence != 0 {
		t.Errorf("expected degenerate key result for silence, got camelot=%s semitone=%d conf=%v", camelot, semitone, confidence)
	}
}

func TestDetectKeyTooShort(t *testing.T) {
	camelot, semitone, confidence := detectKey(make([]float64, 10), 48000)
	if camelot != "1A" || semitone != 0 || confidence != 0 {
		t.Errorf("expected degenerate key result for too-short input, got camelot=%s semitone=%d conf=%v", camelot, semitone, confidence)
	}
}

func TestDetectKeyDominantTone(t *testing.T) {
	sr := 48000
	n := keyFrameSize * 4
	mono := make([]float64, n)
	// A loud C4 tone (261.63Hz) plus two quiet non-root tones — the
	// dominant pitch class must land on C's bin (pitch class 0).
	for i := 0; i < n; i++ {
		t := float64(i) / float64(sr)
		mono[i] = math.Sin(2*math.Pi*261.63*t) + 0.05*math.Sin(2*math.Pi*329.63*t) + 0.05*math.Sin(2*math.Pi*392.0*t)
	}

	camelot, semitone, confidence := detectKey(mono, sr)
	if semitone != 0 {
		t.Errorf("expected dominant pitch class 0 (C) for a C-dominant signal, got %d (camelot=%s)", semitone, camelot)
	}
	if confidence <= 0 || confidence > 1 {
		t.Errorf("expected confidence in (0, 1], got %v", confidence)
	}
}

func TestDetectKeyConfidenceIsDominantBinShareOfTotal(t *testing.T) {
	sr := 48000
	n := keyFrameSize * 2
	mono := make([]float64, n)
	for i := 0; i < n; i++ {
		mono[i] = math.Sin(2 * math.Pi * 261.63 * float64(i) / float64(sr))
	}

	chroma := buildChroma(mono, sr)
	total := chromaEnergy(chroma)
	root := 0
	for pc := 1; pc < 12; pc++ {
		if chroma[pc] > chroma[root] {
			root = pc
		}
	}
	want := chroma[root] / total

	_, _, confidence := detectKey(mono, sr)
	if math.Abs(confidence-want) > 1e-9 {
		t.Errorf("expected confidence %v (dominant_bin/sum), got %v", want, confidence)
	}
}

func TestCamelotTableHasNoDuplicates(t *testing.T) {
	seen := make(map[string]bool)
	for _, code := range camelotTable {
		if seen[code] {
			t.Errorf("duplicate camelot code %s in table", code)
		}
		seen[code] = true
	}
	if len(camelotTable) != 24 {
		t.Errorf("expected a 24-entry camelot table, got %d entries", len(camelotTable))
	}
}
