package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cartomix/stitchcore/internal/domain"
)

// GetAnalysis returns the cached analysis for a content hash, or
// (nil, nil) if no cache entry exists.
func (d *DB) GetAnalysis(contentHash string) (*domain.AnalysisSummary, error) {
	var summaryJSON string
	row := d.db.QueryRow(`SELECT summary_json FROM analysis_cache WHERE content_hash = ?`, contentHash)
	if err := row.Scan(&summaryJSON); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	var summary domain.AnalysisSummary
	if err := json.Unmarshal([]byte(summaryJSON), &summary); err != nil {
		return nil, fmt.Errorf("storage: corrupt analysis cache entry for %s: %w", contentHash, err)
	}
	return &summary, nil
}

// PutAnalysis caches an analysis summary by content hash, overwriting
// any existing entry.
func (d *DB) PutAnalysis(contentHash string, summary domain.AnalysisSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("storage: failed to marshal analysis summary: %w", err)
	}

	_, err = d.db.Exec(`
		INSERT INTO analysis_cache (content_hash, bpm, bpm_alt, bpm_confidence, camelot, key_semitone, key_confidence, sample_rate, duration, is_fallback, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(content_hash) DO UPDATE SET
			bpm = excluded.bpm,
			bpm_alt = excluded.bpm_alt,
			bpm_confidence = excluded.bpm_confidence,
			camelot = excluded.camelot,
			key_semitone = excluded.key_semitone,
			key_confidence = excluded.key_confidence,
			sample_rate = excluded.sample_rate,
			duration = excluded.duration,
			is_fallback = excluded.is_fallback,
			summary_json = excluded.summary_json
	`, contentHash, summary.BPM, summary.BPMAlt, summary.BPMConfidence, summary.Camelot, summary.KeySemitone, summary.KeyConfidence, summary.SampleRate, summary.Duration, boolToInt(summary.Fallback), string(payload))
	return err
}

// DeleteAnalysis removes a cached analysis, used when a track's audio
// content has been re-scanned and the cache is stale.
func (d *DB) DeleteAnalysis(contentHash string) error {
	_, err := d.db.Exec(`DELETE FROM analysis_cache WHERE content_hash = ?`, contentHash)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
