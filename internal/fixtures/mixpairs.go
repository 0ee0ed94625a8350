package fixtures

import (
	"math"
	"math/rand/v2"

	"github.com/cartomix/stitchcore/internal/domain"
)

// MixScenario is a pair of synthetic in-memory tracks covering one of
// spec.md §8's literal end-to-end mixing scenarios, ready to feed
// straight into mixer.Renderer.Merge without touching disk.
type MixScenario struct {
	Name string
	A, B *domain.PCMBuffer
	Mode domain.MixMode
}

// BuildMixScenarios returns one scenario per row of spec.md §8's
// scenario table, plus the channel-count-mismatch and silence edge
// cases called out in §4.6/§8.
func BuildMixScenarios(sampleRate int) []MixScenario {
	return []MixScenario{
		{
			Name: "silence_x_silence",
			A:    silentTrack(sampleRate, 1, 8.0),
			B:    silentTrack(sampleRate, 1, 8.0),
			Mode: domain.ModeNeutral,
		},
		func() MixScenario {
			t := toneTrack(sampleRate, 1, 120, "8A", 16.0, false)
			return MixScenario{Name: "same_track_twice", A: t, B: t.Clone(), Mode: domain.ModeNeutral}
		}(),
		{
			Name: "120_vs_128_compatible_keys",
			A:    toneTrack(sampleRate, 2, 120, "8A", 16.0, false),
			B:    toneTrack(sampleRate, 2, 128, "9A", 16.0, false),
			Mode: domain.ModeNeutral,
		},
		{
			Name: "120_vs_140_incompatible_keys",
			A:    toneTrack(sampleRate, 2, 120, "8A", 16.0, false),
			B:    toneTrack(sampleRate, 2, 140, "2B", 16.0, false),
			Mode: domain.ModeNeutral,
		},
		// toneTrack renders every track at the same level, so A and B
		// here differ in tempo and key but not in loudness.
		{
			Name: "festival_124_vs_126_incompatible_energy_mismatch",
			A:    toneTrack(sampleRate, 2, 124, "5A", 16.0, false),
			B:    toneTrack(sampleRate, 2, 126, "11B", 16.0, false),
			Mode: domain.ModeFestival,
		},
		{
			Name: "both_vocal",
			A:    toneTrack(sampleRate, 2, 122, "8A", 16.0, true),
			B:    toneTrack(sampleRate, 2, 123, "9A", 16.0, true),
			Mode: domain.ModeClubSmooth,
		},
		{
			Name: "mono_a_stereo_b",
			A:    toneTrack(sampleRate, 1, 120, "8A", 12.0, false),
			B:    toneTrack(sampleRate, 2, 120, "8A", 12.0, false),
			Mode: domain.ModeNeutral,
		},
	}
}

func silentTrack(sampleRate, channels int, seconds float64) *domain.PCMBuffer {
	length := int(seconds * float64(sampleRate))
	return domain.NewPCMBuffer(sampleRate, channels, length)
}

// toneTrack renders a click-driven tonal bed at the given BPM and
// Camelot key, optionally adding a band-limited "vocal" noise layer in
// the 2-5kHz range so the analyzer's vocal-likelihood heuristic fires.
func toneTrack(sampleRate, channels int, bpm float64, camelot string, seconds float64, vocal bool) *domain.PCMBuffer {
	length := int(seconds * float64(sampleRate))
	buf := domain.NewPCMBuffer(sampleRate, channels, length)

	freqs := camelotFrequencies(camelot)
	secondsPerBeat := 60.0 / bpm
	clickLen := int(0.01 * float64(sampleRate))

	rng := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < length; i++ {
		t := float64(i) / float64(sampleRate)
		var sample float64
		for _, f := range freqs {
			sample += 0.15 * math.Sin(2*math.Pi*f*t)
		}

		if vocal {
			// A crude band-limited noise proxy: sum of a few sines in
			// the 2-5kHz band, amplitude modulated by a slow envelope.
			env := 0.5 + 0.5*math.Sin(2*math.Pi*0.3*t)
			sample += 0.05 * env * math.Sin(2*math.Pi*3000*t+rng.Float64())
			sample += 0.03 * env * math.Sin(2*math.Pi*4200*t+rng.Float64())
		}

		beatPhase := math.Mod(t, secondsPerBeat)
		if beatPhase < float64(clickLen)/float64(sampleRate) {
			decay := math.Exp(-4 * beatPhase * float64(sampleRate) / float64(clickLen))
			sample += 0.3 * decay
		}

		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}

		for c := 0; c < channels; c++ {
			buf.Channels[c][i] = float32(sample)
		}
	}

	return buf
}
