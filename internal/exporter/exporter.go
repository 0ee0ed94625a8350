// Package exporter bundles a merge's output artifacts — the rendered
// WAV, both input analyses, and a human-readable transition report —
// into a shareable tar.gz with a checksum manifest, the same bundling
// shape the catalog's playlist exporter used.
package exporter

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cartomix/stitchcore/internal/domain"
)

// Result contains paths to the generated export artifacts.
type Result struct {
	WAVPath       string
	AnalysisPath  string
	PlanPath      string
	ChecksumsPath string
	BundlePath    string
}

// WriteMerge writes a named export bundle for one merge result: the
// encoded WAV, a JSON dump of both input analyses, and a CSV report of
// the transition plan's FX/tempo/pitch operations, then wraps those
// three files plus a checksum manifest into a single tar.gz.
func WriteMerge(outputDir, name string, wav []byte, result *domain.MergedResult) (*Result, error) {
	if len(wav) == 0 {
		return nil, fmt.Errorf("exporter: no WAV bytes to export")
	}
	if name == "" {
		name = "mix"
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}

	res := &Result{
		WAVPath:       filepath.Join(outputDir, name+".wav"),
		AnalysisPath:  filepath.Join(outputDir, name+"-analysis.json"),
		PlanPath:      filepath.Join(outputDir, name+"-plan.csv"),
		ChecksumsPath: filepath.Join(outputDir, name+"-checksums.txt"),
		BundlePath:    filepath.Join(outputDir, name+"-bundle.tar.gz"),
	}

	if err := os.WriteFile(res.WAVPath, wav, 0o644); err != nil {
		return nil, err
	}
	if err := writeAnalysisJSON(res.AnalysisPath, result); err != nil {
		return nil, err
	}
	if err := writePlanCSV(res.PlanPath, result.Plan); err != nil {
		return nil, err
	}
	if err := writeChecksums(res.ChecksumsPath, res.WAVPath, res.AnalysisPath, res.PlanPath); err != nil {
		return nil, err
	}
	if err := writeBundle(res.BundlePath, res.WAVPath, res.AnalysisPath, res.PlanPath, res.ChecksumsPath); err != nil {
		return nil, err
	}

	return res, nil
}

func writeAnalysisJSON(path string, result *domain.MergedResult) error {
	payload := struct {
		A domain.AnalysisSummary `json:"track_a"`
		B domain.AnalysisSummary `json:"track_b"`
	}{A: result.AnalysisA, B: result.AnalysisB}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writePlanCSV(path string, plan domain.TransitionPlan) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	if err := w.Write([]string{"kind", "detail", "at_beat_or_track", "params"}); err != nil {
		return err
	}

	if err := w.Write([]string{"style", string(plan.Style), "", ""}); err != nil {
		return err
	}
	if err := w.Write([]string{"window", fmt.Sprintf("start_bar_a=%d start_bar_b=%d length_bars=%d",
		plan.StartBarA, plan.StartBarB, plan.LengthBars), "", ""}); err != nil {
		return err
	}
	for _, t := range plan.TempoOps {
		if err := w.Write([]string{"tempo_op", t.Track, strconv.FormatFloat(t.StretchPercent, 'f', 3, 64), ""}); err != nil {
			return err
		}
	}
	for _, p := range plan.PitchOps {
		if err := w.Write([]string{"pitch_op", p.Track, strconv.Itoa(p.Semitones), fmt.Sprintf("formant_preserve=%v", p.FormantPreserve)}); err != nil {
			return err
		}
	}
	for _, fx := range plan.FX {
		if !fx.Applies {
			continue
		}
		var params []string
		for k, v := range fx.Params {
			params = append(params, fmt.Sprintf("%s=%.4f", k, v))
		}
		if err := w.Write([]string{"fx", string(fx.Type), strconv.FormatFloat(fx.AtBeat, 'f', 2, 64), strings.Join(params, ";")}); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeChecksums(path string, files ...string) error {
	var b strings.Builder
	for _, fp := range files {
		sum, err := FileSHA256(fp)
		if err != nil {
			return err
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", sum, filepath.Base(fp)))
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// FileSHA256 returns the hex-encoded SHA256 digest of a file's contents.
func FileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func writeBundle(bundlePath string, files ...string) error {
	f, err := os.Create(bundlePath)
	if err != nil {
		return err
	}
	defer f.Close()

	gw := gzip.NewWriter(f)
	defer gw.Close()

	tw := tar.NewWriter(gw)
	defer tw.Close()

	for _, fp := range files {
		info, err := os.Stat(fp)
		if err != nil {
			return err
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = filepath.Base(fp)

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}

		data, err := os.ReadFile(fp)
		if err != nil {
			return err
		}
		if _, err := tw.Write(data); err != nil {
			return err
		}
	}

	return nil
}
