package mixer

import (
	"log/slog"
	"math/rand/v2"

	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/fx"
)

// applyFX dispatches one scheduled FXOp per the renderer's assignment
// convention (spec §4.6 step 4): sweep/reverseVerb/tapeStop target
// buffer A at fxTime seconds; stutter targets buffer B starting at
// sample 0, using B's bpm for its internal slice rhythm.
func applyFX(a, b *domain.PCMBuffer, op domain.FXOp, fxTime float64, sampleRate int, bpmB float64, rng *rand.Rand, logger *slog.Logger) {
	startSample := int(fxTime * float64(sampleRate))

	switch op.Type {
	case domain.FXNoiseSweep:
		durationSamples := int(op.Params["duration"] * float64(sampleRate))
		for _, ch := range a.Channels {
			fx.NoiseSweep(ch, startSample, durationSamples, rng)
		}
	case domain.FXReverseReverb:
		durationSamples := int(op.Params["duration"] * float64(sampleRate))
		for _, ch := range a.Channels {
			fx.ReverseReverb(ch, startSample, durationSamples)
		}
	case domain.FXTapeStop:
		durationSamples := int(op.Params["duration"] * float64(sampleRate))
		for _, ch := range a.Channels {
			fx.TapeStop(ch, startSample, durationSamples)
		}
	case domain.FXStutter:
		division := int(op.Params["division"])
		bars := int(op.Params["bars"])
		for _, ch := range b.Channels {
			fx.Stutter(ch, 0, bars, division, bpmB, sampleRate)
		}
	default:
		logger.Warn("mixer: unknown fx type skipped", "type", op.Type)
	}
}
