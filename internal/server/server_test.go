package server

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/cartomix/stitchcore/internal/analyzer"
	"github.com/cartomix/stitchcore/internal/config"
	"github.com/cartomix/stitchcore/internal/domain"
	"github.com/cartomix/stitchcore/internal/fixtures"
	"github.com/cartomix/stitchcore/internal/storage"
	"github.com/cartomix/stitchcore/internal/wavio"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func testEngineServer(t *testing.T) *EngineServer {
	t.Helper()
	db, err := storage.Open(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := &config.Config{DataDir: t.TempDir(), TargetLoudnessLUFS: -14, TruePeakCeilingDB: -1}
	return NewEngineServer(cfg, nil, db, analyzer.NewLocal(nil))
}

func findScenario(t *testing.T, name string) fixtures.MixScenario {
	t.Helper()
	for _, sc := range fixtures.BuildMixScenarios(8000) {
		if sc.Name == name {
			return sc
		}
	}
	t.Fatalf("scenario %s not found", name)
	return fixtures.MixScenario{}
}

func TestAnalyzeTrackRPC(t *testing.T) {
	s := testEngineServer(t)
	scenario := findScenario(t, "120_vs_128_compatible_keys")
	encoded, err := wavio.Encode(scenario.A)
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{"wav": base64.StdEncoding.EncodeToString(encoded)})
	require.NoError(t, err)

	resp, err := s.AnalyzeTrack(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, resp.GetFields(), "analysis")
	require.Contains(t, resp.Fields["analysis"].GetStringValue(), "bpm")
}

func TestAnalyzeTrackRPCUsesAnalysisCache(t *testing.T) {
	s := testEngineServer(t)
	scenario := findScenario(t, "120_vs_128_compatible_keys")
	encoded, err := wavio.Encode(scenario.A)
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{"wav": base64.StdEncoding.EncodeToString(encoded)})
	require.NoError(t, err)

	first, err := s.AnalyzeTrack(context.Background(), req)
	require.NoError(t, err)
	require.NotContains(t, first.GetFields(), "cached")

	hash := contentHash(encoded)
	cached, err := s.db.GetAnalysis(hash)
	require.NoError(t, err)
	require.NotNil(t, cached, "expected analysis to be cached by content hash")

	second, err := s.AnalyzeTrack(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Fields["cached"].GetBoolValue())
	require.Equal(t, first.Fields["analysis"].GetStringValue(), second.Fields["analysis"].GetStringValue())
}

func TestAnalyzeTrackRPCRejectsMissingField(t *testing.T) {
	s := testEngineServer(t)
	req, _ := structpb.NewStruct(map[string]any{})
	_, err := s.AnalyzeTrack(context.Background(), req)
	require.Error(t, err)
}

func TestScanLibraryRPCEnqueuesAnalysisJobs(t *testing.T) {
	s := testEngineServer(t)

	root := t.TempDir()
	scenario := findScenario(t, "120_vs_128_compatible_keys")
	encoded, err := wavio.Encode(scenario.A)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "track.wav"), encoded, 0o644))

	req, err := structpb.NewStruct(map[string]any{
		"roots": []any{root},
	})
	require.NoError(t, err)

	resp, err := s.ScanLibrary(context.Background(), req)
	require.NoError(t, err)
	require.Equal(t, float64(1), resp.Fields["tracks_new"].GetNumberValue())

	count, err := s.db.GetPendingJobCount(storage.JobTypeAnalyze)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestScanLibraryRPCRejectsMissingRoots(t *testing.T) {
	s := testEngineServer(t)
	req, _ := structpb.NewStruct(map[string]any{})
	_, err := s.ScanLibrary(context.Background(), req)
	require.Error(t, err)
}

func TestPlanSetRPCOrdersByCachedAnalysis(t *testing.T) {
	s := testEngineServer(t)

	hashA, hashB := "hash-a", "hash-b"
	require.NoError(t, s.db.PutAnalysis(hashA, domain.AnalysisSummary{BPM: 120, Camelot: "8A"}))
	require.NoError(t, s.db.PutAnalysis(hashB, domain.AnalysisSummary{BPM: 121, Camelot: "8A"}))

	req, err := structpb.NewStruct(map[string]any{
		"content_hashes": []any{hashA, hashB},
		"mode":           "open_format",
	})
	require.NoError(t, err)

	resp, err := s.PlanSet(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, resp.Fields["order"].GetStringValue(), hashA)
	require.Contains(t, resp.Fields["order"].GetStringValue(), hashB)
	require.NotEmpty(t, resp.Fields["explanations"].GetStringValue())
}

func TestPlanSetRPCRejectsUncachedHash(t *testing.T) {
	s := testEngineServer(t)
	req, err := structpb.NewStruct(map[string]any{
		"content_hashes": []any{"never-analyzed"},
	})
	require.NoError(t, err)

	_, err = s.PlanSet(context.Background(), req)
	require.Error(t, err)
}

func TestMergeRPCEndToEnd(t *testing.T) {
	s := testEngineServer(t)
	scenario := findScenario(t, "festival_124_vs_126_incompatible_energy_mismatch")

	encA, err := wavio.Encode(scenario.A)
	require.NoError(t, err)
	encB, err := wavio.Encode(scenario.B)
	require.NoError(t, err)

	req, err := structpb.NewStruct(map[string]any{
		"wav_a":             base64.StdEncoding.EncodeToString(encA),
		"wav_b":             base64.StdEncoding.EncodeToString(encB),
		"crossfade_seconds": 2.0,
		"mix_mode":          "festival",
	})
	require.NoError(t, err)

	resp, err := s.Merge(context.Background(), req)
	require.NoError(t, err)
	require.Contains(t, resp.GetFields(), "wav")
	require.Contains(t, resp.GetFields(), "plan")
	require.NotEmpty(t, resp.Fields["wav"].GetStringValue())
}
