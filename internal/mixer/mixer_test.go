package mixer

import (
	"context"
	"math"
	"testing"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/wavio"
)

func sine(sr, channels, seconds int, freq float64, amp float32) *domain.PCMBuffer {
	n := sr * seconds
	buf := domain.NewPCMBuffer(sr, channels, n)
	for c := range buf.Channels {
		for i := 0; i < n; i++ {
			buf.Channels[c][i] = amp * float32(math.Sin(2*math.Pi*freq*float64(i)/float64(sr)))
		}
	}
	return buf
}

func silence(sr, channels, seconds int) *domain.PCMBuffer {
	return domain.NewPCMBuffer(sr, channels, sr*seconds)
}

func newTestRenderer() *Renderer {
	r := NewRenderer(analyzer.NewLocal(nil), nil)
	r.Seed = 12345
	return r
}

func TestMergeRejectsEmptyInput(t *testing.T) {
	r := newTestRenderer()
	buf := sine(48000, 2, 1, 220, 0.3)
	if _, _, err := r.Merge(context.Background(), nil, buf, 2, domain.ModeNeutral, nil); err == nil {
		t.Error("expected an error for a nil track A")
	}
	empty := domain.NewPCMBuffer(48000, 2, 0)
	if _, _, err := r.Merge(context.Background(), empty, buf, 2, domain.ModeNeutral, nil); err == nil {
		t.Error("expected an error for an empty track A")
	}
}

func TestMergeSilenceXSilence(t *testing.T) {
	r := newTestRenderer()
	a := silence(48000, 2, 2)
	b := silence(48000, 2, 2)

	result, encoded, err := r.Merge(context.Background(), a, b, 2, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(encoded) == 0 {
		t.Fatal("expected non-empty encoded output")
	}
	peak := wavio.PeakAmplitude(result.Output)
	const lsb = 1.0 / (1 << 15)
	if peak > 2*lsb {
		t.Errorf("expected output within ~1 LSB of silence, got peak %v", peak)
	}
}

func TestMergeSameTrackTwiceIsEQMorph(t *testing.T) {
	r := newTestRenderer()
	a := sine(44100, 2, 10, 220, 0.3)
	b := sine(44100, 2, 10, 220, 0.3)

	result, _, err := r.Merge(context.Background(), a, b, 2, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Plan.Style != domain.StyleEQMorph {
		t.Errorf("expected eq_morph for identical tracks, got %s", result.Plan.Style)
	}
	if len(result.Plan.PitchOps) != 0 || len(result.Plan.TempoOps) != 0 {
		t.Errorf("expected no pitch/tempo ops for identical tracks, got %+v / %+v", result.Plan.PitchOps, result.Plan.TempoOps)
	}
}

func TestMergeOneChannelAndTwoChannelProducesMaxChannels(t *testing.T) {
	r := newTestRenderer()
	a := sine(48000, 1, 3, 220, 0.3)
	b := sine(48000, 2, 3, 330, 0.3)

	result, _, err := r.Merge(context.Background(), a, b, 1, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output.NumChannels() != 2 {
		t.Errorf("expected max(channels)=2 in the output, got %d", result.Output.NumChannels())
	}
}

func TestMergeLimiterGuaranteesBound(t *testing.T) {
	r := newTestRenderer()
	a := sine(48000, 2, 5, 220, 0.99)
	b := sine(48000, 2, 5, 440, 0.99)

	result, _, err := r.Merge(context.Background(), a, b, 3, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if peak := wavio.PeakAmplitude(result.Output); peak >= 0.95 {
		t.Errorf("expected limiter to bound output below 0.95, got %v", peak)
	}
}

func TestMergeIsDeterministicWithFixedSeed(t *testing.T) {
	a := sine(48000, 2, 3, 120, 0.5)
	b := sine(48000, 2, 3, 240, 0.5)

	r1 := newTestRenderer()
	r2 := newTestRenderer()

	_, enc1, err := r1.Merge(context.Background(), a.Clone(), b.Clone(), 2, domain.ModeFestival, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, enc2, err := r2.Merge(context.Background(), a.Clone(), b.Clone(), 2, domain.ModeFestival, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(enc1) != len(enc2) {
		t.Fatalf("expected identical output length, got %d vs %d", len(enc1), len(enc2))
	}
	for i := range enc1 {
		if enc1[i] != enc2[i] {
			t.Fatalf("expected byte-identical output at offset %d with a fixed seed", i)
		}
	}
}

func TestMergeLengthLaw(t *testing.T) {
	r := newTestRenderer()
	a := sine(48000, 2, 5, 220, 0.3)
	b := sine(48000, 2, 4, 330, 0.3)

	result, _, err := r.Merge(context.Background(), a, b, 2, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	barsInA := len(result.AnalysisA.DownbeatIndices)
	startBarA := result.Plan.StartBarA
	beatDurA := 60 / result.AnalysisA.BPM
	overlapStart := int(float64(startBarA) * 4 * beatDurA * float64(result.AnalysisA.SampleRate))
	want := overlapStart + b.Length()
	if got := result.Output.Length(); abs(got-want) > result.AnalysisA.SampleRate/10 {
		t.Errorf("length law violated: got %d want ~%d (bars_in_a=%d)", got, want, barsInA)
	}
}

func TestMergeCrossfadeClampsToAvailableSamples(t *testing.T) {
	r := newTestRenderer()
	a := sine(48000, 2, 1, 220, 0.3)
	b := sine(48000, 2, 1, 330, 0.3)

	result, _, err := r.Merge(context.Background(), a, b, 100, domain.ModeNeutral, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Output.Length() > a.Length()+b.Length() {
		t.Errorf("crossfade should never exceed available samples, got output length %d", result.Output.Length())
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
