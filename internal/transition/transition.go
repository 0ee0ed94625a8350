// Package transition implements the Transition Planner (C3): a pure
// function from two track analyses and a mix mode to a TransitionPlan.
// Nothing here touches a clock, a file, or an RNG, so the same inputs
// always produce a byte-identical plan (spec §8).
package transition

import (
	"math"
	"regexp"
	"strconv"

	mapset "github.com/deckarep/golang-set/v2"

	"github.com/cartomix/stitchcore/internal/domain"
)

var camelotPattern = regexp.MustCompile(`^(1[0-2]|[1-9])([AB])$`)

// parseCamelot splits a Camelot code like "8A" into its wheel number
// (1-12) and mode letter. ok is false for anything that doesn't match
// the grammar spec §8 requires of every camelot value.
func parseCamelot(code string) (number int, letter string, ok bool) {
	m := camelotPattern.FindStringSubmatch(code)
	if m == nil {
		return 0, "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, "", false
	}
	return n, m[2], true
}

// neighborSet returns the Camelot codes harmonically compatible with
// code: itself, ±1 on the wheel (same mode), and the relative
// major/minor pair (same number, other mode).
func neighborSet(code string) mapset.Set[string] {
	set := mapset.NewSet[string]()
	n, letter, ok := parseCamelot(code)
	if !ok {
		return set
	}

	wrap := func(x int) int {
		x = ((x - 1) % 12)
		if x < 0 {
			x += 12
		}
		return x + 1
	}
	other := "A"
	if letter == "A" {
		other = "B"
	}

	set.Add(code)
	set.Add(strconv.Itoa(wrap(n-1)) + letter)
	set.Add(strconv.Itoa(wrap(n+1)) + letter)
	set.Add(strconv.Itoa(n) + other)
	return set
}

// wheelDistance returns the shorter arc distance in wheel steps
// between two Camelot codes sharing the same mode letter; if the
// letters differ or either code is malformed, it returns a large
// sentinel so callers treat it as incompatible.
func wheelDistance(a, b string) int {
	na, la, okA := parseCamelot(a)
	nb, lb, okB := parseCamelot(b)
	if !okA || !okB || la != lb {
		return 99
	}
	d := int(math.Abs(float64(na - nb)))
	if d > 6 {
		d = 12 - d
	}
	return d
}

// semitoneDelta returns the shortest signed pitch-class distance that
// would move b's root onto a's, in [-6, 6] semitones.
func semitoneDelta(a, b int) int {
	d := (a - b) % 12
	if d < 0 {
		d += 12
	}
	if d > 6 {
		d -= 12
	}
	return d
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Plan computes the transition decision described in spec §4.3.
func Plan(a, b domain.AnalysisSummary, mode domain.MixMode) domain.TransitionPlan {
	tempoDelta := 0.0
	if a.BPM != 0 {
		tempoDelta = math.Abs(a.BPM-b.BPM) / a.BPM
	}

	keysCompatible := neighborSet(a.Camelot).Contains(b.Camelot)

	avgVocalA := mean(a.VocalLikelihood)
	avgVocalB := mean(b.VocalLikelihood)
	bothVocal := math.Min(avgVocalA, avgVocalB) > 0.3

	energyMismatch := false
	bLouder := false
	if len(a.EnergyCurve) > 0 && len(b.EnergyCurve) > 0 {
		lastA := a.EnergyCurve[len(a.EnergyCurve)-1]
		firstB := b.EnergyCurve[0]
		energyMismatch = math.Abs(lastA-firstB) > 0.3
		bLouder = firstB > lastA
	}

	barsInA := len(a.DownbeatIndices)
	startBarA := int(math.Floor(0.75 * float64(barsInA)))
	startBarB := 0

	plan := domain.TransitionPlan{
		StartBarA: startBarA,
		StartBarB: startBarB,
	}

	switch {
	case bothVocal:
		plan.Style = domain.StyleVocalAware
		plan.LengthBars = 4
	case !keysCompatible && tempoDelta > 0.06:
		plan.Style = domain.StyleHardDownbeat
		plan.LengthBars = 4
	case keysCompatible && tempoDelta < 0.02:
		plan.Style = domain.StyleEQMorph
		if mode == domain.ModeClubSmooth {
			plan.LengthBars = 16
		} else {
			plan.LengthBars = 8
		}
	case tempoDelta < 0.06:
		plan.Style = domain.StyleBassSwap
		plan.LengthBars = 8
	default:
		if mode == domain.ModeFestival {
			plan.Style = domain.StyleStutterEntry
			plan.FX = append(plan.FX, domain.FXOp{
				Type:   domain.FXStutter,
				AtBeat: -4,
				Params: map[string]float64{"division": 8, "bars": 1},
			})
		} else {
			plan.Style = domain.StyleHardDownbeat
		}
		plan.LengthBars = 4
	}

	if plan.Style == domain.StyleHardDownbeat {
		plan.FX = append(plan.FX, domain.FXOp{Type: domain.FXNoiseSweep, AtBeat: -2, Params: map[string]float64{"duration": 1}})
	}

	if energyMismatch && bLouder && mode == domain.ModeFestival {
		plan.FX = append(plan.FX, domain.FXOp{
			Type:   domain.FXReverseReverb,
			AtBeat: -4,
			Params: map[string]float64{"duration": 2},
		})
	}

	if tempoDelta > 0.02 && tempoDelta <= 0.06 {
		meanBPM := (a.BPM + b.BPM) / 2
		if a.BPM != 0 {
			plan.TempoOps = append(plan.TempoOps, domain.TempoOp{Track: "a", StretchPercent: (meanBPM - a.BPM) / a.BPM * 100})
		}
		if b.BPM != 0 {
			plan.TempoOps = append(plan.TempoOps, domain.TempoOp{Track: "b", StretchPercent: (meanBPM - b.BPM) / b.BPM * 100})
		}
	}

	if !keysCompatible {
		if dist := wheelDistance(a.Camelot, b.Camelot); dist <= 1 {
			delta := semitoneDelta(a.KeySemitone, b.KeySemitone)
			if delta != 0 {
				plan.PitchOps = append(plan.PitchOps, domain.PitchOp{
					Track:           "b",
					Semitones:       delta,
					FormantPreserve: true,
				})
			}
		}
	}

	return plan
}
