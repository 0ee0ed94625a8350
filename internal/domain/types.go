// Package domain holds the plain data types shared across the mixing
// engine's pipeline stages. None of these types carry behavior beyond
// small accessors; the component packages (analyzer, transition, fx,
// mastering, mixer) own the algorithms that produce and consume them.
package domain

// PCMBuffer is an owned, multi-channel float32 sample buffer sharing a
// common sample rate. Samples are normalized to roughly [-1, 1] but may
// transiently exceed that range until the mastering limiter runs.
type PCMBuffer struct {
	SampleRate int
	Channels   [][]float32
}

// NumChannels returns the channel count.
func (b *PCMBuffer) NumChannels() int {
	if b == nil {
		return 0
	}
	return len(b.Channels)
}

// Length returns the frame count of the first channel, or 0 if empty.
func (b *PCMBuffer) Length() int {
	if b == nil || len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

// Duration returns the buffer's length in seconds.
func (b *PCMBuffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(b.Length()) / float64(b.SampleRate)
}

// NewPCMBuffer allocates a buffer with the given channel count and frame
// length, all samples zeroed.
func NewPCMBuffer(sampleRate, channels, length int) *PCMBuffer {
	chans := make([][]float32, channels)
	for i := range chans {
		chans[i] = make([]float32, length)
	}
	return &PCMBuffer{SampleRate: sampleRate, Channels: chans}
}

// Clone returns a deep copy so effect passes can mutate without
// disturbing a caller's reference.
func (b *PCMBuffer) Clone() *PCMBuffer {
	if b == nil {
		return nil
	}
	out := &PCMBuffer{SampleRate: b.SampleRate, Channels: make([][]float32, len(b.Channels))}
	for i, c := range b.Channels {
		out.Channels[i] = append([]float32(nil), c...)
	}
	return out
}

// TempoMapNode advertises a BPM that applies starting at BeatIndex.
type TempoMapNode struct {
	BeatIndex int
	BPM       float64
}

// PhraseSpan is a contiguous musical span quantized to 16 beats,
// anchored to the downbeat index (not a time) that starts it.
type PhraseSpan struct {
	DownbeatIndex int
	LengthBeats   int
}

// AnalysisSummary is the per-track feature report produced by C2.
type AnalysisSummary struct {
	BPM             float64
	BPMAlt          float64
	BPMConfidence   float64
	Camelot         string
	KeySemitone     int
	KeyConfidence   float64
	BeatTimes       []float64
	DownbeatIndices []int
	PhraseSpans     []PhraseSpan
	EnergyCurve     []float64
	VocalLikelihood []float64
	KickTimes       []float64

	// SampleRate and Duration are carried for downstream stages that
	// need to convert beats to samples without re-reading the buffer.
	SampleRate int
	Duration   float64
	// Fallback is true when the summary is a synthetic degenerate-input
	// stand-in rather than a measured analysis.
	Fallback bool
}

// FXType enumerates the effect kinds the FX processor understands.
type FXType string

const (
	FXNoiseSweep    FXType = "sweep"
	FXReverseReverb FXType = "reverseVerb"
	FXTapeStop      FXType = "tapeStop"
	FXStutter       FXType = "stutter"
	FXEQMorph       FXType = "eqMorph"
)

// FXOp is one scheduled effect application relative to the transition
// start. AtBeat may be negative (pre-roll).
type FXOp struct {
	Type    FXType
	AtBeat  float64
	Params  map[string]float64
	Applies bool // set by the renderer: true once applied, false when skipped
}

// TempoOp is an advisory stretch request on one track.
type TempoOp struct {
	Track         string // "a" or "b"
	StretchPercent float64
}

// PitchOp is an advisory pitch-shift request on one track.
type PitchOp struct {
	Track           string
	Semitones       int
	FormantPreserve bool
}

// Style enumerates the transition styles C3 can select.
type Style string

const (
	StyleHardDownbeat Style = "hard_downbeat"
	StyleEQMorph      Style = "eq_morph"
	StyleBassSwap     Style = "bass_swap"
	StyleVocalAware   Style = "vocal_aware"
	StyleStutterEntry Style = "stutter_entry"
)

// MixMode selects the overall mixing posture.
type MixMode string

const (
	ModeFestival    MixMode = "festival"
	ModeClubSmooth  MixMode = "club_smooth"
	ModeNeutral     MixMode = "neutral"
)

// TransitionPlan is the decision C3 hands to the renderer.
type TransitionPlan struct {
	Style      Style
	StartBarA  int
	StartBarB  int
	LengthBars int
	TempoOps   []TempoOp
	PitchOps   []PitchOp
	FX         []FXOp
}

// PlanOverride is a partial plan whose non-zero/non-nil fields replace
// the computed plan's fields, field-wise.
type PlanOverride struct {
	Style      *Style
	StartBarA  *int
	StartBarB  *int
	LengthBars *int
	TempoOps   []TempoOp
	PitchOps   []PitchOp
	FX         []FXOp
}

// Apply overlays non-nil/non-empty override fields onto plan, returning
// a new plan (the input is not mutated).
func (o *PlanOverride) Apply(plan TransitionPlan) TransitionPlan {
	if o == nil {
		return plan
	}
	out := plan
	if o.Style != nil {
		out.Style = *o.Style
	}
	if o.StartBarA != nil {
		out.StartBarA = *o.StartBarA
	}
	if o.StartBarB != nil {
		out.StartBarB = *o.StartBarB
	}
	if o.LengthBars != nil {
		out.LengthBars = *o.LengthBars
	}
	if o.TempoOps != nil {
		out.TempoOps = o.TempoOps
	}
	if o.PitchOps != nil {
		out.PitchOps = o.PitchOps
	}
	if o.FX != nil {
		out.FX = o.FX
	}
	return out
}

// MergedResult is the final product of a render: the mastered buffer,
// the plan that was actually executed, and both source summaries.
type MergedResult struct {
	Output      *PCMBuffer
	Plan        TransitionPlan
	AnalysisA   AnalysisSummary
	AnalysisB   AnalysisSummary
}

// MasteringOptions configures the C5 chain; zero values mean "use
// defaults" at the call site.
type MasteringOptions struct {
	TargetLoudnessLUFS float64
	TruePeakCeilingDB   float64
	CompThresholdDB     float64
	CompRatio           float64
	BassCutoffHz        float64
}

// DefaultMasteringOptions returns the spec's documented defaults.
func DefaultMasteringOptions() MasteringOptions {
	return MasteringOptions{
		TargetLoudnessLUFS: -14.0,
		TruePeakCeilingDB:  -1.0,
		CompThresholdDB:    -12.0,
		CompRatio:          2.0,
		BassCutoffHz:       120.0,
	}
}
