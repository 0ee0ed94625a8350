package mixer

import (
	"math"
	"testing"

	"github.com/cartomix/stitchcore/internal/domain"
)

func TestGainCurveHardDownbeatSumsToOne(t *testing.T) {
	for _, x := range []float64{0, 0.5, 1} {
		ga, gb := gainCurve(domain.StyleHardDownbeat, x)
		if math.Abs(ga+gb-1) > 1e-9 {
			t.Errorf("x=%v: expected gain_a+gain_b=1, got %v+%v=%v", x, ga, gb, ga+gb)
		}
	}
}

func TestGainCurveEqualPowerPreservesEnergy(t *testing.T) {
	for x := 0.0; x <= 1; x += 0.1 {
		ga, gb := gainCurve(domain.StyleBassSwap, x)
		sum := ga*ga + gb*gb
		if math.Abs(sum-1) > 1e-9 {
			t.Errorf("x=%v: expected gain_a^2+gain_b^2=1, got %v", x, sum)
		}
	}
}

func TestGainCurveVocalAwareIsLinear(t *testing.T) {
	ga, gb := gainCurve(domain.StyleVocalAware, 0.3)
	if math.Abs(ga-0.7) > 1e-9 || math.Abs(gb-0.3) > 1e-9 {
		t.Errorf("expected linear crossfade at x=0.3, got ga=%v gb=%v", ga, gb)
	}
}

func TestBuildOutputLengthMatchesOverlapPlusB(t *testing.T) {
	a := domain.NewPCMBuffer(48000, 2, 1000)
	b := domain.NewPCMBuffer(48000, 2, 800)
	out := buildOutput(a, b, 600, 200, domain.StyleHardDownbeat)
	want := 600 + 800
	if out.Length() != want {
		t.Errorf("expected output length %d, got %d", want, out.Length())
	}
}

func TestBuildOutputMonoAPullsSameChannel(t *testing.T) {
	a := domain.NewPCMBuffer(48000, 1, 100)
	for i := range a.Channels[0] {
		a.Channels[0][i] = 0.5
	}
	b := domain.NewPCMBuffer(48000, 2, 100)
	out := buildOutput(a, b, 50, 0, domain.StyleHardDownbeat)
	if out.NumChannels() != 2 {
		t.Fatalf("expected 2 output channels, got %d", out.NumChannels())
	}
	if out.Channels[0][10] != 0.5 || out.Channels[1][10] != 0.5 {
		t.Errorf("expected both output channels to pull from A's single channel, got %v %v", out.Channels[0][10], out.Channels[1][10])
	}
}
