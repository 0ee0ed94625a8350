package exporter

import (
	"path/filepath"
	"testing"

	"github.com/cartomix/stitchcore/internal/domain"
)

func TestWriteMergeRoundTripsChecksums(t *testing.T) {
	dir := t.TempDir()
	result := &domain.MergedResult{
		Plan: domain.TransitionPlan{
			Style:      domain.StyleEQMorph,
			StartBarA:  12,
			StartBarB:  0,
			LengthBars: 8,
			TempoOps:   []domain.TempoOp{{Track: "b", StretchPercent: 1.6}},
			FX: []domain.FXOp{
				{Type: domain.FXEQMorph, AtBeat: -4, Applies: true, Params: map[string]float64{"lowpass_hz": 4000}},
			},
		},
		AnalysisA: domain.AnalysisSummary{BPM: 124, Camelot: "8A"},
		AnalysisB: domain.AnalysisSummary{BPM: 126, Camelot: "9A"},
	}

	res, err := WriteMerge(dir, "demo", []byte("RIFF....WAVEfmt "), result)
	if err != nil {
		t.Fatalf("WriteMerge: %v", err)
	}

	if err := VerifyChecksums(res.ChecksumsPath, dir); err != nil {
		t.Fatalf("expected checksums to verify, got %v", err)
	}

	if _, err := FileSHA256(res.BundlePath); err != nil {
		t.Fatalf("bundle not readable: %v", err)
	}
	if filepath.Base(res.WAVPath) != "demo.wav" {
		t.Fatalf("unexpected wav path %s", res.WAVPath)
	}
}

func TestWriteMergeRejectsEmptyWAV(t *testing.T) {
	if _, err := WriteMerge(t.TempDir(), "demo", nil, &domain.MergedResult{}); err == nil {
		t.Fatalf("expected error for empty WAV payload")
	}
}
