// Package finalize implements the Finalizer (spec §4.10): segment
// selection over the accumulated user stream, a refined unbanded DTW pass
// on the selected window, loudness-deviation measurement, and aggregated
// pitch/harmonic/cadence summaries with letter grades.
package finalize

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/huntmasteracademy/gamecalls-engine/internal/dsp"
	"github.com/huntmasteracademy/gamecalls-engine/internal/dtw"
)

// Config tunes the Finalizer's segment search and DTW grading.
type Config struct {
	ToleranceLow  float64 // lower segment-length bound as a fraction of master length
	ToleranceHigh float64 // upper segment-length bound as a fraction of master length
	MinUserFrames int     // frames required before finalize is even attempted
	DTW           dtw.Config
}

// DefaultConfig returns the spec's stated tolerances (±20%) and minimum
// frame count (25).
func DefaultConfig() Config {
	return Config{
		ToleranceLow:  0.8,
		ToleranceHigh: 1.2,
		MinUserFrames: 25,
		DTW:           dtw.DefaultConfig(),
	}
}

// MasterContext is the reference signal data the Finalizer compares
// against, extracted once when the master call was loaded.
type MasterContext struct {
	Features   [][]float64
	LoudnessRMS float64
	PitchTrail []float64
}

// UserContext is the accumulated per-frame signal data for the user
// stream, extracted across every processChunk call in the session.
type UserContext struct {
	Features        [][]float64
	PitchHz         []float64
	PitchConfidence []float64
	HarmonicRatio   []float64
	RMS             []float64
	OnsetEnvelope   []float64
	HopSize         int
	SampleRate      int
}

// PitchSummary, HarmonicSummary, CadenceSummary, and FinalizeDetail
// together make up spec's EnhancedSummary.
type PitchSummary struct {
	PitchHz    float64
	Confidence float64
	Grade      string
}

type HarmonicSummary struct {
	Fundamental float64
	Confidence  float64
	Grade       string
}

type CadenceSummary struct {
	TempoBPM   float64
	Confidence float64
	Grade      string
}

type FinalizeDetail struct {
	SimilarityAtFinalize float64
	NormalizationScalar  float64
	LoudnessDeviationDB  float64
	SegmentStartMs       int64
	SegmentDurationMs    int64
}

// Summary is the engine's EnhancedSummary result.
type Summary struct {
	Pitch     PitchSummary
	Harmonic  HarmonicSummary
	Cadence   CadenceSummary
	Finalize  FinalizeDetail
	Valid     bool
	Finalized bool
}

// ErrInsufficientData is returned when fewer than cfg.MinUserFrames user
// frames have accumulated.
type ErrInsufficientData struct{}

func (ErrInsufficientData) Error() string { return "insufficient data to finalize" }

// Finalizer runs the one-shot segment-selection-and-grading pass.
type Finalizer struct {
	cfg Config
}

// New creates a Finalizer with the given configuration.
func New(cfg Config) *Finalizer {
	return &Finalizer{cfg: cfg}
}

// Finalize selects the best-matching contiguous user segment, reruns DTW
// on it, and produces the graded summary.
func (f *Finalizer) Finalize(master MasterContext, user UserContext) (Summary, error) {
	if len(user.Features) < f.cfg.MinUserFrames {
		return Summary{}, ErrInsufficientData{}
	}

	start, length, found := f.selectSegment(master.Features, user.Features)
	if !found {
		return Summary{Valid: false, Finalized: true}, nil
	}

	window := user.Features[start : start+length]
	alignment := dtw.FullCost(f.cfg.DTW, master.Features, window)
	normCost := alignment.NormalizedCost()
	similarity := clamp01(math.Exp(-f.cfg.DTW.Alpha * normCost))

	userRMS := meanRange(user.RMS, start, start+length)
	loudnessDevDB := dsp.DBFS(userRMS) - dsp.DBFS(master.LoudnessRMS)
	normalizationScalar := 1.0
	if userRMS > 0 {
		normalizationScalar = master.LoudnessRMS / userRMS
	}

	pitchSummary := f.pitchSummary(master.PitchTrail, user.PitchHz, user.PitchConfidence, start, length)
	harmonicSummary := f.harmonicSummary(user.PitchHz, user.HarmonicRatio, start, length)
	cadenceSummary := f.cadenceSummary(user.OnsetEnvelope, user.HopSize, user.SampleRate, start, length)

	segmentStartMs := int64(start) * int64(user.HopSize) * 1000 / int64(user.SampleRate)
	segmentDurationMs := int64(length) * int64(user.HopSize) * 1000 / int64(user.SampleRate)

	return Summary{
		Pitch:    pitchSummary,
		Harmonic: harmonicSummary,
		Cadence:  cadenceSummary,
		Finalize: FinalizeDetail{
			SimilarityAtFinalize: similarity,
			NormalizationScalar:  normalizationScalar,
			LoudnessDeviationDB:  loudnessDevDB,
			SegmentStartMs:       segmentStartMs,
			SegmentDurationMs:    segmentDurationMs,
		},
		Valid:     true,
		Finalized: true,
	}, nil
}

// candidate is one (start, length) window evaluated during the sweep.
type candidate struct {
	start, length int
	normCost      float64
}

// selectSegment scans contiguous user-frame windows of length within
// ±tolerance of the master length and returns the window with the lowest
// normalized DTW cost. Each candidate's cost is independent, so the sweep
// fans out across goroutines via errgroup the way the teacher's analysis
// worker pool fans out per-track jobs, but reduced to a single
// lowest-cost winner instead of N independent results.
func (f *Finalizer) selectSegment(master, user [][]float64) (start, length int, ok bool) {
	m := len(master)
	u := len(user)
	if m == 0 || u == 0 {
		return 0, 0, false
	}

	minLen := int(float64(m) * f.cfg.ToleranceLow)
	maxLen := int(float64(m) * f.cfg.ToleranceHigh)
	if minLen < 1 {
		minLen = 1
	}
	if maxLen > u {
		maxLen = u
	}
	if minLen > u {
		// The user stream is shorter than the master's lower tolerance.
		return 0, 0, false
	}
	if maxLen < minLen {
		maxLen = minLen
	}

	lengths := candidateLengths(minLen, maxLen, m)

	var mu sync.Mutex
	var candidates []candidate

	g, _ := errgroup.WithContext(context.Background())
	for _, length := range lengths {
		length := length
		stride := length / 20
		if stride < 1 {
			stride = 1
		}
		for start := 0; start+length <= u; start += stride {
			start := start
			g.Go(func() error {
				window := user[start : start+length]
				alignment := dtw.FullCost(f.cfg.DTW, master, window)
				mu.Lock()
				candidates = append(candidates, candidate{start: start, length: length, normCost: alignment.NormalizedCost()})
				mu.Unlock()
				return nil
			})
		}
	}
	_ = g.Wait()

	if len(candidates) == 0 {
		return 0, 0, false
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.normCost < best.normCost {
			best = c
		}
	}
	return best.start, best.length, true
}

// candidateLengths returns a small set of window lengths spanning
// [minLen,maxLen], always including the master length itself when it
// falls in range.
func candidateLengths(minLen, maxLen, masterLen int) []int {
	ratios := []float64{0.8, 0.9, 1.0, 1.1, 1.2}
	seen := map[int]bool{}
	var lengths []int
	for _, r := range ratios {
		l := int(float64(masterLen) * r)
		if l < minLen {
			l = minLen
		}
		if l > maxLen {
			l = maxLen
		}
		if l < 1 || seen[l] {
			continue
		}
		seen[l] = true
		lengths = append(lengths, l)
	}
	if len(lengths) == 0 {
		lengths = []int{minLen}
	}
	return lengths
}

func (f *Finalizer) pitchSummary(masterPitch, userPitch, userConfidence []float64, start, length int) PitchSummary {
	window := sliceRange(userPitch, start, start+length)
	confWindow := sliceRange(userConfidence, start, start+length)

	medianF0 := medianNonZero(window)
	meanConf := mean(confWindow)

	n := length
	if n > len(masterPitch) {
		n = len(masterPitch)
	}
	score := dsp.NormalizedCrossCorrelation(masterPitch[:n], window[:n])

	return PitchSummary{PitchHz: medianF0, Confidence: meanConf, Grade: grade(score)}
}

func (f *Finalizer) harmonicSummary(userPitch, userHarmonicRatio []float64, start, length int) HarmonicSummary {
	pitchWindow := sliceRange(userPitch, start, start+length)
	ratioWindow := sliceRange(userHarmonicRatio, start, start+length)

	fundamental := meanNonZero(pitchWindow)
	confidence := mean(ratioWindow)

	return HarmonicSummary{Fundamental: fundamental, Confidence: confidence, Grade: grade(confidence)}
}

func (f *Finalizer) cadenceSummary(onsets []float64, hopSize, sampleRate, start, length int) CadenceSummary {
	window := sliceRange(onsets, start, start+length)
	tempo := dsp.EstimateTempoFromOnsets(window, hopSize, sampleRate)
	return CadenceSummary{TempoBPM: tempo.BPM, Confidence: tempo.RhythmStrength, Grade: grade(tempo.RhythmStrength)}
}

func sliceRange(s []float64, start, end int) []float64 {
	if start < 0 {
		start = 0
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return nil
	}
	return s[start:end]
}

func meanRange(s []float64, start, end int) float64 {
	return mean(sliceRange(s, start, end))
}

func mean(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	var sum float64
	for _, v := range s {
		sum += v
	}
	return sum / float64(len(s))
}

func meanNonZero(s []float64) float64 {
	var sum float64
	var n int
	for _, v := range s {
		if v > 0 {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func medianNonZero(s []float64) float64 {
	var vals []float64
	for _, v := range s {
		if v > 0 {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid]
	}
	return (vals[mid-1] + vals[mid]) / 2
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
