// Package mastering implements the Mastering Processor (C5): loudness
// normalization, a true-peak limiter, glue compression, bass
// mono-ization, and a phase-correlation trigger metric (spec §4.5).
// Every stage operates in place over a PCMBuffer's channels and guards
// its own denominators so numeric pathologies never panic (spec §7).
package mastering

import (
	"math"

	"github.com/cartomix/stitchcore/internal/domain"
)

const silentLUFS = -60.0

// LUFS returns the simplified loudness estimate spec §4.5 defines:
// -0.691 + 10*log10(mean_square), with a silent/empty buffer treated
// as -60 LUFS.
func LUFS(buf *domain.PCMBuffer) float64 {
	var sumSq float64
	var n int
	for _, ch := range buf.Channels {
		for _, s := range ch {
			sumSq += float64(s) * float64(s)
			n++
		}
	}
	if n == 0 || sumSq == 0 {
		return silentLUFS
	}
	meanSquare := sumSq / float64(n)
	if meanSquare <= 0 {
		return silentLUFS
	}
	return -0.691 + 10*math.Log10(meanSquare)
}

// LoudnessNormalize applies a linear gain, in place, so the buffer's
// LUFS matches targetLUFS (default -14 when targetLUFS is 0).
func LoudnessNormalize(buf *domain.PCMBuffer, targetLUFS float64) {
	if targetLUFS == 0 {
		targetLUFS = -14.0
	}
	current := LUFS(buf)
	gain := math.Pow(10, (targetLUFS-current)/20)
	if math.IsNaN(gain) || math.IsInf(gain, 0) {
		return
	}
	for _, ch := range buf.Channels {
		for i := range ch {
			ch[i] = float32(float64(ch[i]) * gain)
		}
	}
}

const lookaheadSamples = 10

// TruePeakLimiter applies a 10-sample lookahead ceiling followed by an
// unconditional soft clip, in place. ceilingDB defaults to -1.0 dBTP
// when 0.
func TruePeakLimiter(buf *domain.PCMBuffer, ceilingDB float64) {
	if ceilingDB == 0 {
		ceilingDB = -1.0
	}
	ceilingLinear := math.Pow(10, ceilingDB/20)

	for _, ch := range buf.Channels {
		n := len(ch)
		for i := 0; i < n; i++ {
			lookMax := 0.0
			hi := i + lookaheadSamples
			if hi > n {
				hi = n
			}
			for j := i; j < hi; j++ {
				v := math.Abs(float64(ch[j]))
				if v > lookMax {
					lookMax = v
				}
			}

			x := float64(ch[i])
			if lookMax > ceilingLinear && lookMax > 0 {
				x *= ceilingLinear / lookMax
			}
			ch[i] = float32(0.95 * math.Tanh(1.5*x))
		}
	}
}

// GlueCompression applies a one-pole envelope-follower compressor, in
// place. thresholdDB and ratio default to -12 dBFS / 2:1 when 0.
func GlueCompression(buf *domain.PCMBuffer, thresholdDB, ratio float64) {
	if thresholdDB == 0 {
		thresholdDB = -12.0
	}
	if ratio == 0 {
		ratio = 2.0
	}
	thresholdLinear := math.Pow(10, thresholdDB/20)

	const attackMS = 10.0
	const releaseMS = 80.0

	for _, ch := range buf.Channels {
		if buf.SampleRate <= 0 {
			continue
		}
		attackCoeff := math.Exp(-1.0 / (attackMS / 1000 * float64(buf.SampleRate)))
		releaseCoeff := math.Exp(-1.0 / (releaseMS / 1000 * float64(buf.SampleRate)))

		var env float64
		for i, s := range ch {
			input := math.Abs(float64(s))
			if input > env {
				env = attackCoeff*env + (1-attackCoeff)*input
			} else {
				env = releaseCoeff*env + (1-releaseCoeff)*input
			}

			gain := 1.0
			if env > thresholdLinear && thresholdLinear > 0 {
				gain = math.Pow(env/thresholdLinear, 1/ratio-1)
			}
			ch[i] = float32(float64(s) * gain)
		}
	}
}

// BassMono collapses low-frequency content to mono across all
// channels (≥2 required), emitting mono_low + (x_i - avg_i) per
// channel using a windowed mean over ±sr/(2*cutoff) samples.
// cutoffHz defaults to 120 when 0.
func BassMono(buf *domain.PCMBuffer, cutoffHz float64) {
	if buf.NumChannels() < 2 || buf.SampleRate <= 0 {
		return
	}
	if cutoffHz == 0 {
		cutoffHz = 120.0
	}
	radius := int(float64(buf.SampleRate) / (2 * cutoffHz))
	if radius < 1 {
		radius = 1
	}

	n := buf.Length()
	channels := buf.NumChannels()
	monoLow := make([]float64, n)
	avg := make([][]float64, channels)
	for c := range avg {
		avg[c] = make([]float64, n)
	}

	for i := 0; i < n; i++ {
		lo := i - radius
		if lo < 0 {
			lo = 0
		}
		hi := i + radius
		if hi >= n {
			hi = n - 1
		}
		count := hi - lo + 1

		var allSum float64
		for c := 0; c < channels; c++ {
			var sum float64
			ch := buf.Channels[c]
			for j := lo; j <= hi; j++ {
				sum += float64(ch[j])
			}
			mean := sum / float64(count)
			avg[c][i] = mean
			allSum += mean
		}
		monoLow[i] = allSum / float64(channels)
	}

	for c := 0; c < channels; c++ {
		ch := buf.Channels[c]
		for i := 0; i < n; i++ {
			ch[i] = float32(monoLow[i] + (float64(ch[i]) - avg[c][i]))
		}
	}
}

// PhaseCorrelation computes mean(mid*side) over the first overlap
// samples of two 2-channel buffers (spec §4.5); it is a trigger
// metric, not an output, so callers decide what to do with the sign.
func PhaseCorrelation(a, b *domain.PCMBuffer, overlap int) float64 {
	if a.NumChannels() < 2 || b.NumChannels() < 2 || overlap <= 0 {
		return 0
	}
	if overlap > a.Length() {
		overlap = a.Length()
	}
	if overlap > b.Length() {
		overlap = b.Length()
	}
	if overlap <= 0 {
		return 0
	}

	var sum float64
	for i := 0; i < overlap; i++ {
		la, ra := float64(a.Channels[0][i]), float64(a.Channels[1][i])
		lb, rb := float64(b.Channels[0][i]), float64(b.Channels[1][i])
		mid := 0.25 * (la + ra + lb + rb)
		side := 0.25 * (la - ra + lb - rb)
		sum += mid * side
	}
	return sum / float64(overlap)
}
