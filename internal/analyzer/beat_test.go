package analyzer

import (
	"math"
	"testing"
)

func TestEstimateTempoRegularGrid(t *testing.T) {
	// 128 BPM -> beat every 60/128 = 0.46875s
	delta := 60.0 / 128.0
	beats := make([]float64, 20)
	for i := range beats {
		beats[i] = float64(i) * delta
	}

	bpm, bpmAlt, confidence := estimateTempo(beats)
	if math.Abs(bpm-128) > 1 {
		t.Errorf("expected bpm near 128, got %v", bpm)
	}
	if math.Abs(bpmAlt-64) > 1 {
		t.Errorf("expected bpm_alt near 64, got %v", bpmAlt)
	}
	if confidence < 0.9 {
		t.Errorf("expected high confidence for a regular grid, got %v", confidence)
	}
}

func TestEstimateTempoTooFewBeats(t *testing.T) {
	bpm, bpmAlt, confidence := estimateTempo([]float64{0.0})
	if bpm != 120 || bpmAlt != 60 || confidence != 0 {
		t.Errorf("expected fallback tempo values for <2 beats, got bpm=%v alt=%v conf=%v", bpm, bpmAlt, confidence)
	}
}

func TestEstimateTempoClampsRange(t *testing.T) {
	// Extremely fast clicks should clamp the dominant bin at 200.
	delta := 60.0 / 400.0
	beats := make([]float64, 10)
	for i := range beats {
		beats[i] = float64(i) * delta
	}
	bpm, _, _ := estimateTempo(beats)
	if bpm != 200 {
		t.Errorf("expected bpm clamp at 200, got %v", bpm)
	}
}

func TestDetectDownbeatsRegularGrid(t *testing.T) {
	bpm := 120.0
	beatDur := 60.0 / bpm
	beats := make([]float64, 16)
	for i := range beats {
		beats[i] = float64(i) * beatDur
	}

	downbeats := detectDownbeats(beats, bpm)
	if len(downbeats) != 4 {
		t.Fatalf("expected 4 downbeats in a 16-beat grid, got %d: %v", len(downbeats), downbeats)
	}
	for i, idx := range downbeats {
		if idx != i*4 {
			t.Errorf("downbeat %d: expected index %d, got %d", i, i*4, idx)
		}
	}
}

func TestDetectDownbeatsEmpty(t *testing.T) {
	if got := detectDownbeats(nil, 120); got != nil {
		t.Errorf("expected nil downbeats for empty beat grid, got %v", got)
	}
}

func TestGroupPhrasesRunsOfFour(t *testing.T) {
	downbeats := []int{0, 4, 8, 12, 16, 20, 24, 28}
	spans := groupPhrases(downbeats)
	if len(spans) != 2 {
		t.Fatalf("expected 2 phrase spans from 8 downbeats, got %d", len(spans))
	}
	if spans[0].DownbeatIndex != 0 || spans[0].LengthBeats != 16 {
		t.Errorf("unexpected first span: %+v", spans[0])
	}
	if spans[1].DownbeatIndex != 16 || spans[1].LengthBeats != 16 {
		t.Errorf("unexpected second span: %+v", spans[1])
	}
}

func TestGroupPhrasesPartialRunDropped(t *testing.T) {
	downbeats := []int{0, 4, 8}
	if spans := groupPhrases(downbeats); spans != nil {
		t.Errorf("a partial run of downbeats should not form a phrase span, got %v", spans)
	}
}
