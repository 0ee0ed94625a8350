// Package setplanner orders a pool of tracks into a full DJ set: a
// nearest-neighbor walk over transition scores, with an explanation
// attached to every edge. Where the mixer (C6) only ever merges a
// pair, this package answers "what order should N tracks play in" —
// a natural extension of the same BPM/key/energy reasoning.
package planner

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cartomix/stitchcore/internal/domain"
)

// SetMode biases track ordering toward a set shape.
type SetMode int

const (
	SetModeOpenFormat SetMode = iota
	SetModeWarmUp
	SetModePeakTime
)

// Track is one pool entry: its stable identity, its analysis, and a
// DJ-assigned global energy rating (1-10) independent of the
// per-frame energy curve C2 measures.
type Track struct {
	ContentHash  string
	Summary      domain.AnalysisSummary
	EnergyGlobal int
	Tags         []string // transition-window tags, e.g. "intro", "breakdown"
}

// Options controls how set planning scores transitions.
type Options struct {
	Mode           SetMode
	AllowKeyJumps  bool
	MaxBPMStep     float64
	MustPlayHashes map[string]bool
	BanHashes      map[string]bool
}

// EdgeExplanation documents why Plan chose to follow From with To.
type EdgeExplanation struct {
	From          string
	To            string
	Score         float64
	TempoDelta    float64
	EnergyDelta   int
	KeyRelation   string
	WindowOverlap string
	Reason        string
}

// Plan orders tracks via greedy nearest-neighbor edge scoring,
// returning the chosen order (by content hash) and a per-edge
// explanation trail.
func Plan(tracks []Track, opts Options) ([]string, []EdgeExplanation, error) {
	if len(tracks) == 0 {
		return nil, nil, fmt.Errorf("setplanner: no tracks provided")
	}

	filtered := make([]Track, 0, len(tracks))
	for _, t := range tracks {
		if t.ContentHash == "" {
			continue
		}
		if opts.BanHashes != nil && opts.BanHashes[t.ContentHash] {
			continue
		}
		filtered = append(filtered, t)
	}
	if len(filtered) == 0 {
		return nil, nil, fmt.Errorf("setplanner: all tracks were filtered out")
	}

	for hash := range opts.MustPlayHashes {
		found := false
		for _, t := range filtered {
			if t.ContentHash == hash {
				found = true
				break
			}
		}
		if !found {
			return nil, nil, fmt.Errorf("setplanner: must-play track %s missing from the pool", hash)
		}
	}

	start := chooseStart(filtered, opts.Mode)
	order := []Track{start}
	remaining := make(map[string]Track, len(filtered))
	for _, t := range filtered {
		if t.ContentHash == start.ContentHash {
			continue
		}
		remaining[t.ContentHash] = t
	}

	var explanations []EdgeExplanation
	current := start

	for len(remaining) > 0 {
		next, explanation, ok := bestNext(current, remaining, opts)
		if !ok {
			for _, leftover := range remaining {
				order = append(order, leftover)
			}
			break
		}
		order = append(order, next)
		explanations = append(explanations, explanation)
		delete(remaining, next.ContentHash)
		current = next
	}

	hashes := make([]string, 0, len(order))
	for _, t := range order {
		hashes = append(hashes, t.ContentHash)
	}
	return hashes, explanations, nil
}

func chooseStart(tracks []Track, mode SetMode) Track {
	clone := make([]Track, len(tracks))
	copy(clone, tracks)

	switch mode {
	case SetModeWarmUp:
		sort.Slice(clone, func(i, j int) bool { return clone[i].EnergyGlobal < clone[j].EnergyGlobal })
	case SetModePeakTime:
		sort.Slice(clone, func(i, j int) bool { return clone[i].EnergyGlobal > clone[j].EnergyGlobal })
	default:
		sort.Slice(clone, func(i, j int) bool { return clone[i].Summary.BPM < clone[j].Summary.BPM })
	}
	return clone[0]
}

func bestNext(current Track, remaining map[string]Track, opts Options) (Track, EdgeExplanation, bool) {
	var (
		best      Track
		bestScore = math.Inf(-1)
		bestEdge  EdgeExplanation
		found     bool
	)

	for _, cand := range remaining {
		score, edge := scoreEdge(current, cand, opts)
		if score > bestScore {
			bestScore, best, bestEdge, found = score, cand, edge, true
		}
	}
	return best, bestEdge, found
}

func scoreEdge(from, to Track, opts Options) (float64, EdgeExplanation) {
	bpmDelta := to.Summary.BPM - from.Summary.BPM

	tempoScore := 4.0 - math.Abs(bpmDelta)/2
	if opts.MaxBPMStep > 0 && math.Abs(bpmDelta) > opts.MaxBPMStep {
		tempoScore -= 4
	}

	keyScore, relation := keyCompatibility(from.Summary.Camelot, to.Summary.Camelot, opts.AllowKeyJumps)

	energyDelta := to.EnergyGlobal - from.EnergyGlobal
	energyScore := 2.0 - math.Abs(float64(energyDelta))*0.5

	switch opts.Mode {
	case SetModeWarmUp:
		if energyDelta > 0 {
			energyScore++
		}
	case SetModePeakTime:
		if to.EnergyGlobal >= from.EnergyGlobal {
			energyScore++
		}
	}

	window := windowOverlap(from, to)
	windowScore := 0.0
	if window != "" {
		windowScore = 1.0
	}

	total := keyScore + tempoScore + energyScore + windowScore

	edge := EdgeExplanation{
		From:          from.ContentHash,
		To:            to.ContentHash,
		Score:         total,
		TempoDelta:    bpmDelta,
		EnergyDelta:   energyDelta,
		KeyRelation:   relation,
		WindowOverlap: window,
		Reason:        fmt.Sprintf("%s; Δ%.1f BPM; Δenergy %d", relation, bpmDelta, energyDelta),
	}
	return total, edge
}

func keyCompatibility(from, to string, allowJumps bool) (float64, string) {
	if from == "" || to == "" {
		return -1, "unknown key"
	}

	fromNum, fromMode, okFrom := parseCamelot(from)
	toNum, toMode, okTo := parseCamelot(to)
	if !okFrom || !okTo {
		if allowJumps {
			return 0, "unverified key jump"
		}
		return -3, "key mismatch"
	}

	if fromNum == toNum && fromMode == toMode {
		return 4, "same key"
	}
	if fromMode == toMode && int(math.Abs(float64(fromNum-toNum))) == 1 {
		dir := "+"
		if toNum < fromNum {
			dir = "-"
		}
		return 3, fmt.Sprintf("%s1 Camelot", dir)
	}
	if fromNum == toNum && fromMode != toMode {
		return 3, "relative major/minor"
	}
	if allowJumps {
		return 1, "permitted key jump"
	}
	return -2, "distant key"
}

func parseCamelot(value string) (int, string, bool) {
	value = strings.TrimSpace(strings.ToUpper(value))
	if value == "" {
		return 0, "", false
	}
	mode := value[len(value)-1:]
	numPart := value[:len(value)-1]
	num, err := strconv.Atoi(numPart)
	if err != nil || num < 1 || num > 12 {
		return 0, "", false
	}
	if mode != "A" && mode != "B" {
		return 0, "", false
	}
	return num, mode, true
}

func windowOverlap(from, to Track) string {
	if len(from.Tags) == 0 || len(to.Tags) == 0 {
		return ""
	}
	return fmt.Sprintf("%s → %s", from.Tags[0], to.Tags[0])
}
