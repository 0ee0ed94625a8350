package mixer

import (
	"math"

	"github.com/cartomix/stitchcore/internal/domain"
)

// gainCurve returns (gainA, gainB) at progress x in [0,1] for the
// given transition style, per spec §4.6 step 7.
func gainCurve(style domain.Style, x float64) (float64, float64) {
	switch style {
	case domain.StyleHardDownbeat:
		s := x * x * (3 - 2*x)
		return 1 - s, s
	case domain.StyleVocalAware:
		return 1 - x, x
	default:
		return math.Cos(math.Pi / 2 * x), math.Sin(math.Pi / 2 * x)
	}
}

// buildOutput allocates A[0:overlapStart] ++ crossfade ++ B per spec
// §4.6 step 6, pulling from the highest available channel index on
// either side when channel counts differ (scenario 6).
func buildOutput(a, b *domain.PCMBuffer, overlapStart, crossfadeSamples int, style domain.Style) *domain.PCMBuffer {
	numChannels := a.NumChannels()
	if b.NumChannels() > numChannels {
		numChannels = b.NumChannels()
	}

	totalLen := overlapStart + b.Length()
	out := domain.NewPCMBuffer(a.SampleRate, numChannels, totalLen)

	for c := 0; c < numChannels; c++ {
		cA := c
		if cA >= a.NumChannels() {
			cA = a.NumChannels() - 1
		}
		cB := c
		if cB >= b.NumChannels() {
			cB = b.NumChannels() - 1
		}

		for i := 0; i < overlapStart; i++ {
			if cA >= 0 {
				out.Channels[c][i] = a.Channels[cA][i]
			}
		}

		for i := 0; i < crossfadeSamples; i++ {
			x := 0.0
			if crossfadeSamples > 1 {
				x = float64(i) / float64(crossfadeSamples-1)
			}
			gainA, gainB := gainCurve(style, x)
			var sa, sb float32
			if cA >= 0 && overlapStart+i < a.Length() {
				sa = a.Channels[cA][overlapStart+i]
			}
			if cB >= 0 && i < b.Length() {
				sb = b.Channels[cB][i]
			}
			out.Channels[c][overlapStart+i] = float32(gainA)*sa + float32(gainB)*sb
		}

		for i := crossfadeSamples; i < b.Length(); i++ {
			if cB >= 0 {
				out.Channels[c][overlapStart+i] = b.Channels[cB][i]
			}
		}
	}

	return out
}
