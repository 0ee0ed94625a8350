package analyzer

import (
	"math"
	"testing"
)

func TestEnergyCurveEmpty(t *testing.T) {
	if got := energyCurve(nil, 48000); len(got) != 1 || got[0] != 0.5 {
		t.Errorf("expected fallback curve [0.5], got %v", got)
	}
}

func TestEnergyCurveConstantAmplitude(t *testing.T) {
	sr := 48000
	mono := make([]float64, sr) // 1 second
	for i := range mono {
		mono[i] = 0.5
	}
	curve := energyCurve(mono, sr)
	if len(curve) == 0 {
		t.Fatal("expected non-empty curve")
	}
	for i, v := range curve {
		if math.Abs(v-0.5) > 1e-9 {
			t.Errorf("window %d: expected rms 0.5 for constant amplitude, got %v", i, v)
		}
	}
}

func TestVocalLikelihoodTooShort(t *testing.T) {
	if got := vocalLikelihood(make([]float64, 10), 48000); len(got) != 1 || got[0] != 0 {
		t.Errorf("expected fallback [0] for too-short input, got %v", got)
	}
}

func TestVocalLikelihoodBandDominant(t *testing.T) {
	sr := 48000
	n := vocalFrameSize * 2
	mono := make([]float64, n)
	for i := range mono {
		mono[i] = math.Sin(2 * math.Pi * 3000 * float64(i) / float64(sr))
	}
	out := vocalLikelihood(mono, sr)
	for i, v := range out {
		if v < 0.8 {
			t.Errorf("frame %d: expected high vocal-band ratio for a 3kHz tone, got %v", i, v)
		}
	}
}

func TestVocalLikelihoodOutOfBand(t *testing.T) {
	sr := 48000
	n := vocalFrameSize * 2
	mono := make([]float64, n)
	for i := range mono {
		mono[i] = math.Sin(2 * math.Pi * 100 * float64(i) / float64(sr))
	}
	out := vocalLikelihood(mono, sr)
	for i, v := range out {
		if v > 0.2 {
			t.Errorf("frame %d: expected low vocal-band ratio for a 100Hz tone, got %v", i, v)
		}
	}
}

func TestDetectKicksTooShort(t *testing.T) {
	if got := detectKicks(make([]float64, 10), 48000, []float64{0}); got != nil {
		t.Errorf("expected nil kick times for too-short input, got %v", got)
	}
}

func TestDetectKicksOneEntryPerBeat(t *testing.T) {
	sr := 48000
	n := sr * 2
	mono := make([]float64, n)
	for i := range mono {
		mono[i] = math.Sin(2 * math.Pi * 60 * float64(i) / float64(sr))
	}
	beats := []float64{0.2, 0.8, 1.4}
	kicks := detectKicks(mono, sr, beats)
	if len(kicks) != len(beats) {
		t.Fatalf("expected one refined kick time per beat, got %d for %d beats", len(kicks), len(beats))
	}
	for i, k := range kicks {
		if math.Abs(k-beats[i]) > float64(kickScanMS)/1000+0.01 {
			t.Errorf("kick %d: refined time %v strayed outside the scan window around %v", i, k, beats[i])
		}
	}
}
