package fx

import (
	"math/rand/v2"
	"testing"
)

func TestNoiseSweepRejectsInvalidRange(t *testing.T) {
	samples := make([]float32, 10)
	rng := rand.New(rand.NewPCG(1, 2))
	got := NoiseSweep(samples, -1, 4, rng)
	for _, v := range got {
		if v != 0 {
			t.Fatalf("expected untouched buffer for invalid start, got %v", got)
		}
	}
}

func TestNoiseSweepNilRNGNoOp(t *testing.T) {
	samples := make([]float32, 10)
	got := NoiseSweep(samples, 0, 4, nil)
	for _, v := range got {
		if v != 0 {
			t.Fatalf("expected untouched buffer for nil rng, got %v", got)
		}
	}
}

func TestNoiseSweepDeterministicWithSeed(t *testing.T) {
	s1 := make([]float32, 20)
	s2 := make([]float32, 20)
	r1 := rand.New(rand.NewPCG(42, 7))
	r2 := rand.New(rand.NewPCG(42, 7))

	NoiseSweep(s1, 2, 10, r1)
	NoiseSweep(s2, 2, 10, r2)

	for i := range s1 {
		if s1[i] != s2[i] {
			t.Fatalf("identical seeds should produce identical noise at %d: %v vs %v", i, s1[i], s2[i])
		}
	}
}

func TestNoiseSweepBounded(t *testing.T) {
	samples := make([]float32, 100)
	rng := rand.New(rand.NewPCG(1, 1))
	NoiseSweep(samples, 0, 100, rng)
	for i, v := range samples {
		if v < -0.3 || v > 0.3 {
			t.Errorf("sample %d out of bounds: %v", i, v)
		}
	}
}

func TestReverseReverbRejectsInvalidRange(t *testing.T) {
	samples := []float32{1, 2, 3}
	got := ReverseReverb(samples, 0, 10)
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected untouched buffer for out-of-range duration, got %v", got)
	}
}

func TestReverseReverbAddsTailEnergy(t *testing.T) {
	samples := make([]float32, 20)
	samples[10] = 1.0
	ReverseReverb(samples, 0, 10)
	var sum float32
	for _, v := range samples[:10] {
		sum += v
	}
	if sum == 0 {
		t.Error("expected reverse reverb to inject some energy into the target window")
	}
}

func TestTapeStopZerosAfterStop(t *testing.T) {
	samples := make([]float32, 20)
	for i := range samples {
		samples[i] = 1
	}
	TapeStop(samples, 15, 10)
	for i := 15; i < 20; i++ {
		if samples[i] != 0 {
			t.Errorf("expected zero-fill beyond stop at %d, got %v", i, samples[i])
		}
	}
}

func TestTapeStopRejectsInvalidRange(t *testing.T) {
	samples := []float32{1, 2, 3}
	got := TapeStop(samples, 1, 10)
	if got[0] != 1 || got[1] != 2 || got[2] != 3 {
		t.Fatalf("expected untouched buffer, got %v", got)
	}
}

func TestStutterNoOpOnZeroBPM(t *testing.T) {
	samples := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	got := Stutter(samples, 0, 1, 4, 0, 48000)
	want := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected no-op for bpm<=0, got %v", got)
		}
	}
}

func TestStutterRepeatsFirstSlice(t *testing.T) {
	sr := 8
	bpm := 480.0 // 60/480 = 0.125s/beat -> 1 bar = 4 beats = 0.5s = 4 samples @ sr=8
	samples := make([]float32, 16)
	for i := range samples {
		samples[i] = float32(i)
	}
	Stutter(samples, 0, 1, 2, bpm, sr)
	// total samples = 4, division=2 -> sliceLen=2; first slice = samples[0:2] = {0,1}
	if samples[0] != 0 || samples[1] != 1 {
		t.Fatalf("expected first slice unchanged, got %v", samples[:2])
	}
	if samples[2] != 0 || samples[3] != 1 {
		t.Fatalf("expected second slice to replay the first, got %v", samples[2:4])
	}
}

func TestEQMorphBlendsAmplitudes(t *testing.T) {
	a := make([]float32, 10)
	b := make([]float32, 10)
	for i := range a {
		a[i] = 1
		b[i] = 1
	}
	EQMorph(a, b, 10)
	if a[0] != 1 || a[9] >= a[0] {
		t.Errorf("expected A to attenuate over the window, got %v", a)
	}
	if b[9] != 1 || b[0] >= b[9] {
		t.Errorf("expected B to rise over the window, got %v", b)
	}
}

func TestEQMorphRejectsOversizedDuration(t *testing.T) {
	a := []float32{1, 2}
	b := []float32{1, 2, 3}
	gotA, gotB := EQMorph(a, b, 10)
	if gotA[0] != 1 || gotA[1] != 2 || gotB[0] != 1 {
		t.Fatalf("expected untouched buffers for an oversized duration")
	}
}
