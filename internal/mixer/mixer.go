// Package mixer implements the Mix Renderer (C6): the ten-step
// pipeline that turns two decoded buffers into a mastered, WAV-encoded
// merge. It is the only component that sequences the others (dsp,
// analyzer, transition, fx, mastering, wavio), and it is the only one
// that can fail, per spec §7's propagation policy.
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/fx"
	"github.com/cartomix/stitchcore/internal/mastering"
	"github.com/cartomix/stitchcore/internal/transition"
	"github.com/cartomix/stitchcore/internal/wavio"
)

// Renderer sequences the full merge pipeline.
type Renderer struct {
	Analyzer analyzer.Analyzer
	Logger   *slog.Logger
	Mastering domain.MasteringOptions
	// Seed drives the noise-sweep PRNG; zero means "derive one from the
	// two analyzed BPMs", so inputs with equal BPMs share a seed.
	// Callers that need bit-exact reproducibility across runs
	// should set it explicitly (spec §8: "fixed noise seed").
	Seed uint64
}

// NewRenderer constructs a Renderer with the given analyzer and
// logger, using default mastering options.
func NewRenderer(a analyzer.Analyzer, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{Analyzer: a, Logger: logger, Mastering: domain.DefaultMasteringOptions()}
}

// Merge runs the full C6 pipeline: decode is assumed done by the
// caller (bufA/bufB are already PCM); crossfadeSeconds is advisory.
// override, if non-nil, replaces computed plan fields field-wise.
func (r *Renderer) Merge(ctx context.Context, bufA, bufB *domain.PCMBuffer, crossfadeSeconds float64, mode domain.MixMode, override *domain.PlanOverride) (*domain.MergedResult, []byte, error) {
	if bufA == nil || bufA.Length() == 0 || bufA.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("mixer: track A is empty or has no sample rate")
	}
	if bufB == nil || bufB.Length() == 0 || bufB.SampleRate <= 0 {
		return nil, nil, fmt.Errorf("mixer: track B is empty or has no sample rate")
	}

	summaryA, summaryB, err := analyzer.AnalyzePair(ctx, r.Analyzer, bufA, bufB)
	if err != nil {
		return nil, nil, fmt.Errorf("mixer: analysis failed: %w", err)
	}
	if !finite(summaryA.BPM) || summaryA.BPM <= 0 || !finite(summaryB.BPM) || summaryB.BPM <= 0 {
		return nil, nil, fmt.Errorf("mixer: analyzer produced a non-finite/non-positive bpm (a=%v b=%v)", summaryA.BPM, summaryB.BPM)
	}

	plan := computePlan(summaryA, summaryB, mode)
	barsInA := len(summaryA.DownbeatIndices)
	if plan.StartBarA < 0 {
		plan.StartBarA = 0
	}
	if barsInA > 0 && plan.StartBarA >= barsInA {
		plan.StartBarA = barsInA - 1
	}
	plan = override.Apply(plan)

	a := bufA.Clone()
	b := bufB.Clone()

	rng := r.rng(summaryA, summaryB)
	beatDurA := 60 / summaryA.BPM
	for i := range plan.FX {
		op := &plan.FX[i]
		fxTime := float64(plan.StartBarA)*4*beatDurA + op.AtBeat*beatDurA
		if !finite(fxTime) || fxTime < 0 {
			op.Applies = false
			continue
		}
		applyFX(a, b, *op, fxTime, summaryA.SampleRate, summaryB.BPM, rng, r.Logger)
		op.Applies = true
	}

	if plan.Style == domain.StyleEQMorph {
		overlapLen := int(float64(plan.LengthBars) * 4 * beatDurA * float64(summaryA.SampleRate))
		fx.EQMorph(a.Channels[0], b.Channels[0], clampLen(overlapLen, len(a.Channels[0]), len(b.Channels[0])))
		for c := 1; c < a.NumChannels() && c < b.NumChannels(); c++ {
			fx.EQMorph(a.Channels[c], b.Channels[c], clampLen(overlapLen, len(a.Channels[c]), len(b.Channels[c])))
		}
	}

	overlapStart := clampInt(int(float64(plan.StartBarA)*4*beatDurA*float64(summaryA.SampleRate)), 0, a.Length())
	crossfadeSamples := int(crossfadeSeconds * float64(summaryA.SampleRate))
	if maxAvail := a.Length() - overlapStart; crossfadeSamples > maxAvail {
		crossfadeSamples = maxAvail
	}
	if crossfadeSamples > b.Length() {
		crossfadeSamples = b.Length()
	}
	if crossfadeSamples < 0 {
		crossfadeSamples = 0
	}

	output := buildOutput(a, b, overlapStart, crossfadeSamples, plan.Style)

	correlation := mastering.PhaseCorrelation(a, b, crossfadeSamples)
	if plan.Style == domain.StyleBassSwap || correlation < -0.3 {
		mastering.BassMono(output, r.Mastering.BassCutoffHz)
	}

	mastering.GlueCompression(output, r.Mastering.CompThresholdDB, r.Mastering.CompRatio)
	mastering.LoudnessNormalize(output, r.Mastering.TargetLoudnessLUFS)
	mastering.TruePeakLimiter(output, r.Mastering.TruePeakCeilingDB)

	encoded, err := wavio.Encode(output)
	if err != nil {
		return nil, nil, fmt.Errorf("mixer: wav encoding failed: %w", err)
	}

	return &domain.MergedResult{
		Output:    output,
		Plan:      plan,
		AnalysisA: summaryA,
		AnalysisB: summaryB,
	}, encoded, nil
}

func (r *Renderer) rng(a, b domain.AnalysisSummary) *rand.Rand {
	seed := r.Seed
	if seed == 0 {
		seed = uint64(math.Float64bits(a.BPM)) ^ uint64(math.Float64bits(b.BPM))
	}
	return rand.New(rand.NewPCG(seed, seed^0x9E3779B97F4A7C15))
}

func computePlan(a, b domain.AnalysisSummary, mode domain.MixMode) domain.TransitionPlan {
	return transition.Plan(a, b, mode)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampLen(requested, a, b int) int {
	if requested < 0 {
		return 0
	}
	if requested > a {
		requested = a
	}
	if requested > b {
		requested = b
	}
	return requested
}
