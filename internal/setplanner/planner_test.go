package planner

import (
	"testing"

	"github.com/cartomix/stitchcore/internal/domain"
)

func TestPlanWarmupPrefersEnergyClimb(t *testing.T) {
	tracks := []Track{
		buildTrack("a", 124, 5, "7A"),
		buildTrack("b", 126, 6, "8A"),
		buildTrack("c", 128, 7, "9A"),
	}

	order, edges, err := Plan(tracks, Options{Mode: SetModeWarmUp})
	if err != nil {
		t.Fatalf("plan failed: %v", err)
	}

	if len(order) != 3 {
		t.Fatalf("expected 3 tracks, got %d", len(order))
	}
	if order[0] != "a" {
		t.Errorf("warm-up should start low energy, got %s", order[0])
	}
	if len(edges) != 2 {
		t.Fatalf("expected 2 edges, got %d", len(edges))
	}
	if edges[0].Score <= 0 {
		t.Errorf("expected positive edge score, got %v", edges[0].Score)
	}
}

func TestKeyCompatibilityRespectsJumps(t *testing.T) {
	_, relation := keyCompatibility("8A", "9A", false)
	if relation != "+1 Camelot" {
		t.Fatalf("unexpected relation: %s", relation)
	}

	score, relation := keyCompatibility("8A", "11B", false)
	if score >= 0 {
		t.Fatalf("expected penalty for distant key, got %f (%s)", score, relation)
	}

	score, _ = keyCompatibility("8A", "11B", true)
	if score <= -3 {
		t.Fatalf("allowing jumps should soften penalty, got %f", score)
	}
}

func TestKeyCompatibilityRelativeMinor(t *testing.T) {
	score, relation := keyCompatibility("8A", "8B", false)
	if score <= 0 {
		t.Fatalf("expected a bonus for the relative major/minor pair, got %f", score)
	}
	if relation != "relative major/minor" {
		t.Errorf("unexpected relation: %s", relation)
	}
}

func TestMaxBPMStepPenalty(t *testing.T) {
	from := buildTrack("x", 124, 6, "8A")
	to := buildTrack("y", 140, 7, "9A")

	score, _ := scoreEdge(from, to, Options{MaxBPMStep: 4})
	if score >= 0 {
		t.Fatalf("expected penalty for bpm jump, got %f", score)
	}
}

func TestPlanRejectsEmptyPool(t *testing.T) {
	if _, _, err := Plan(nil, Options{}); err == nil {
		t.Error("expected an error for an empty track pool")
	}
}

func TestPlanEnforcesMustPlay(t *testing.T) {
	tracks := []Track{buildTrack("a", 120, 5, "8A")}
	_, _, err := Plan(tracks, Options{MustPlayHashes: map[string]bool{"missing": true}})
	if err == nil {
		t.Error("expected an error when a must-play hash is absent from the pool")
	}
}

func buildTrack(hash string, bpm float64, energy int, key string) Track {
	return Track{
		ContentHash: hash,
		Summary: domain.AnalysisSummary{
			BPM:     bpm,
			Camelot: key,
		},
		EnergyGlobal: energy,
		Tags:         []string{"intro", "outro"},
	}
}
