package fixtures

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateWritesExpectedFixtures(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		OutputDir:          dir,
		SampleRate:          8000,
		Seed:                7,
		BPMLadder:           []float64{120, 128},
		IncludeSwing:        true,
		SwingRatio:          0.6,
		IncludeRamp:         true,
		RampStartBPM:        120,
		RampEndBPM:          140,
		IncludeChord:        true,
		ChordKey:            "8A",
		IncludePhrase:       true,
		PhraseBPM:           128,
		IncludeHarmonicSet:  true,
		HarmonicSetKeys:     []string{"8A", "9A"},
		IncludeClubNoise:    true,
	}

	manifest, err := Generate(cfg)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if len(manifest.Fixtures) == 0 {
		t.Fatalf("expected generated fixtures, got none")
	}

	for _, fx := range manifest.Fixtures {
		path := filepath.Join(dir, fx.File)
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("fixture %s not written: %v", fx.File, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "manifest.json")); err != nil {
		t.Fatalf("manifest.json not written: %v", err)
	}
}
