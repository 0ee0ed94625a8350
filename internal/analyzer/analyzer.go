// Package analyzer implements the Track Analyzer (C2): it turns a
// decoded PCM buffer into a domain.AnalysisSummary covering tempo,
// key, beat grid, energy, vocal likelihood, and kick alignment. The
// analyzer is total — every input, however degenerate, yields a
// finite, in-range summary rather than an error.
package analyzer

import (
	"context"
	"log/slog"

	"github.com/cartomix/stitchcore/internal/domain"
)

// Analyzer abstracts the analysis backend. The production path is
// Local (pure Go DSP); a caller that wants to short-circuit analysis
// of known-degenerate input can use Fallback directly.
type Analyzer interface {
	Analyze(ctx context.Context, buf *domain.PCMBuffer) (domain.AnalysisSummary, error)
}

// Local is the default Analyzer: the full C2 pipeline in this
// package (beat.go for onsets, tempo and downbeats; phrase.go; key.go;
// energy.go; kicks.go).
type Local struct {
	logger *slog.Logger
}

// NewLocal constructs a Local analyzer. logger may be nil, in which
// case slog.Default() is used.
func NewLocal(logger *slog.Logger) *Local {
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{logger: logger}
}

// Analyze runs the full C2 pipeline. Its only error is ctx.Err() when
// ctx is already done; nil or degenerate input resolves to
// a fallback summary per spec §7 policy #2.
func (l *Local) Analyze(ctx context.Context, buf *domain.PCMBuffer) (domain.AnalysisSummary, error) {
	select {
	case <-ctx.Done():
		return domain.AnalysisSummary{}, ctx.Err()
	default:
	}

	if buf == nil || buf.SampleRate <= 0 || buf.Length() == 0 {
		sr := 0
		if buf != nil {
			sr = buf.SampleRate
		}
		l.logger.Warn("analyzer: degenerate input, returning fallback summary", "sample_rate", sr)
		return Fallback(buf), nil
	}

	return analyzeBuffer(buf, l.logger), nil
}
