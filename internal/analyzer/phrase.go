package analyzer

import "github.com/cartomix/stitchcore/internal/domain"

// groupPhrases folds runs of four downbeats into 16-beat phrase spans,
// anchored by downbeat index rather than time (spec §9: phrase
// boundaries are defined in beats, so they survive tempo changes
// applied later in the pipeline).
func groupPhrases(downbeatIndices []int) []domain.PhraseSpan {
	var spans []domain.PhraseSpan
	for i := 0; i+4 <= len(downbeatIndices); i += 4 {
		spans = append(spans, domain.PhraseSpan{
			DownbeatIndex: downbeatIndices[i],
			LengthBeats:   16,
		})
	}
	return spans
}
