package analyzer

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/cartomix/stitchcore/internal/domain"
)

// AnalyzePair runs Analyze on both tracks concurrently (spec §5: the
// two analyses share no state and are independent CPU-bound work).
// If one analysis fails, the other is still allowed to finish before
// the error is returned, since neither side can corrupt the other.
func AnalyzePair(ctx context.Context, a Analyzer, bufA, bufB *domain.PCMBuffer) (domain.AnalysisSummary, domain.AnalysisSummary, error) {
	var summaryA, summaryB domain.AnalysisSummary

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := a.Analyze(gctx, bufA)
		if err != nil {
			return err
		}
		summaryA = s
		return nil
	})
	g.Go(func() error {
		s, err := a.Analyze(gctx, bufB)
		if err != nil {
			return err
		}
		summaryB = s
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.AnalysisSummary{}, domain.AnalysisSummary{}, err
	}
	return summaryA, summaryB, nil
}
