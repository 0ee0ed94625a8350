package fixtures

import "testing"

func TestBuildMixScenariosCoversAllNamedCases(t *testing.T) {
	want := []string{
		"silence_x_silence",
		"same_track_twice",
		"120_vs_128_compatible_keys",
		"120_vs_140_incompatible_keys",
		"festival_124_vs_126_incompatible_energy_mismatch",
		"both_vocal",
		"mono_a_stereo_b",
	}

	scenarios := BuildMixScenarios(8000)
	if len(scenarios) != len(want) {
		t.Fatalf("expected %d scenarios, got %d", len(want), len(scenarios))
	}

	for i, name := range want {
		sc := scenarios[i]
		if sc.Name != name {
			t.Fatalf("scenario %d: expected name %q, got %q", i, name, sc.Name)
		}
		if sc.A == nil || sc.B == nil {
			t.Fatalf("scenario %s: nil track", sc.Name)
		}
		if len(sc.A.Channels) == 0 || len(sc.B.Channels) == 0 {
			t.Fatalf("scenario %s: empty channel data", sc.Name)
		}
	}
}

func TestMonoStereoScenarioHasMismatchedChannelCounts(t *testing.T) {
	for _, sc := range BuildMixScenarios(8000) {
		if sc.Name != "mono_a_stereo_b" {
			continue
		}
		if len(sc.A.Channels) != 1 || len(sc.B.Channels) != 2 {
			t.Fatalf("expected mono A / stereo B, got %d/%d channels", len(sc.A.Channels), len(sc.B.Channels))
		}
		return
	}
	t.Fatal("mono_a_stereo_b scenario not found")
}
