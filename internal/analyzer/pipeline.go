package analyzer

import (
	"log/slog"

	"github.com/cartomix/stitchcore/internal/domain"
)

// analyzeBuffer runs the full C2 pipeline over a structurally valid
// buffer: onset/tempo/downbeat/phrase detection, chromagram key
// detection, energy envelope, vocal likelihood, and kick refinement.
func analyzeBuffer(buf *domain.PCMBuffer, logger *slog.Logger) domain.AnalysisSummary {
	mono := downmix(buf)
	sr := buf.SampleRate

	beatTimes := detectBeats(mono, sr)
	if len(beatTimes) == 0 {
		logger.Debug("analyzer: no onsets detected, using synthetic beat grid")
		beatTimes = append([]float64(nil), fallbackBeatGrid...)
	}

	bpm, bpmAlt, bpmConfidence := estimateTempo(beatTimes)
	downbeats := detectDownbeats(beatTimes, bpm)
	phrases := groupPhrases(downbeats)

	camelot, keySemitone, keyConfidence := detectKey(mono, sr)

	energy := energyCurve(mono, sr)
	vocal := vocalLikelihood(mono, sr)
	kicks := detectKicks(mono, sr, beatTimes)

	return domain.AnalysisSummary{
		BPM:             bpm,
		BPMAlt:          bpmAlt,
		BPMConfidence:   bpmConfidence,
		Camelot:         camelot,
		KeySemitone:     keySemitone,
		KeyConfidence:   keyConfidence,
		BeatTimes:       beatTimes,
		DownbeatIndices: downbeats,
		PhraseSpans:     phrases,
		EnergyCurve:     energy,
		VocalLikelihood: vocal,
		KickTimes:       kicks,
		SampleRate:      sr,
		Duration:        buf.Duration(),
		Fallback:        false,
	}
}

// downmix averages all channels into a single mono series for the
// analysis stages, which operate on overall spectral/energy content
// rather than per-channel detail.
func downmix(buf *domain.PCMBuffer) []float64 {
	n := buf.Length()
	numChannels := buf.NumChannels()
	mono := make([]float64, n)
	if numChannels == 0 {
		return mono
	}

	for _, ch := range buf.Channels {
		for i, s := range ch {
			mono[i] += float64(s)
		}
	}
	inv := 1.0 / float64(numChannels)
	for i := range mono {
		mono[i] *= inv
	}
	return mono
}
