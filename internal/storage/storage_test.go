package storage

import (
	"testing"

	"github.com/cartomix/stitchcore/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestUpsertAndGetTrack(t *testing.T) {
	db := openTestDB(t)

	id, err := db.UpsertTrack(&Track{ContentHash: "abc123", Path: "/music/a.wav", Title: "A"})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if id == 0 {
		t.Fatal("expected a non-zero track id")
	}

	got, err := db.GetTrackByHash("abc123")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got.Path != "/music/a.wav" || got.Title != "A" {
		t.Errorf("unexpected track: %+v", got)
	}
}

func TestUpsertTrackIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	id1, err := db.UpsertTrack(&Track{ContentHash: "same", Path: "/a.wav"})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	id2, err := db.UpsertTrack(&Track{ContentHash: "same", Path: "/b.wav"})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if id1 != id2 {
		t.Errorf("expected the same track id across upserts by content hash, got %d vs %d", id1, id2)
	}

	got, _ := db.GetTrackByHash("same")
	if got.Path != "/b.wav" {
		t.Errorf("expected the path to be updated, got %s", got.Path)
	}
}

func TestAnalysisCacheRoundTrip(t *testing.T) {
	db := openTestDB(t)
	summary := domain.AnalysisSummary{
		BPM:     128,
		Camelot: "8A",
		BeatTimes: []float64{0, 0.5, 1},
	}

	if err := db.PutAnalysis("hash1", summary); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := db.GetAnalysis("hash1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected a cache hit")
	}
	if got.BPM != 128 || got.Camelot != "8A" || len(got.BeatTimes) != 3 {
		t.Errorf("unexpected cached summary: %+v", got)
	}
}

func TestAnalysisCacheMiss(t *testing.T) {
	db := openTestDB(t)
	got, err := db.GetAnalysis("nonexistent")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Errorf("expected a cache miss, got %+v", got)
	}
}

func TestBlobRoundTrip(t *testing.T) {
	db := openTestDB(t)
	trackID, _ := db.UpsertTrack(&Track{ContentHash: "t1", Path: "/t1.wav"})

	hash, err := db.PutBlob(BlobTypeRenderedMix, 0, trackID, []byte("fake wav bytes"))
	if err != nil {
		t.Fatalf("put blob failed: %v", err)
	}

	got, err := db.GetBlob(hash)
	if err != nil {
		t.Fatalf("get blob failed: %v", err)
	}
	if string(got.Data) != "fake wav bytes" {
		t.Errorf("unexpected blob data: %s", got.Data)
	}
}
