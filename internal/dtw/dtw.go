// Package dtw implements the incremental dynamic-time-warping scorer that
// is the central algorithm of the analysis engine (spec §4.9): a banded,
// column-incremental cost grid between a fixed master MFCC matrix and a
// growing user MFCC matrix, exposing a running normalized similarity plus
// volume/timing/pitch sub-scores and a readiness gate.
package dtw

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// debugAsserts gates internal invariant checks on the cost-grid geometry
// (spec §7: "internal invariant violations ... should abort in debug
// builds"). Flip to true when chasing a grid-dimension bug in
// AddUserFrame; leave false in production builds.
const debugAsserts = false

const (
	// normExponent fixes the DTW path-length normalization to sqrt, per
	// spec §9's explicit, non-negotiable marker: any change to linear or
	// quadratic normalization is a breaking change to every similarity
	// threshold and grade boundary downstream.
	normExponent = 0.5

	bandFraction   = 0.10
	bandFloor      = 8
	readinessMinFrames  = 25
	stabilityWindow     = 10
	stabilityRelChange  = 0.01
)

// Config tunes the scorer's distance-to-similarity mapping. Defaults are
// chosen so a perfect alignment returns overall≈1 and a typical mismatch
// returns overall≈0.2, as spec §4.9 requires.
type Config struct {
	Alpha       float64 // overall = exp(-Alpha*normCost)
	Beta        float64 // volume = exp(-Beta*|deltaDB|)
	DropCoeff0  bool    // drop MFCC coefficient 0 (overall energy) from the DTW distance
}

// DefaultConfig returns the scorer's default tuning.
func DefaultConfig() Config {
	return Config{Alpha: 2.0, Beta: 0.05, DropCoeff0: true}
}

// Score is a snapshot of the running scorer output (spec's RealtimeScore,
// minus samplesAnalyzed, which the session layer counts, and isMatch,
// which pkg/engine derives from Overall).
type Score struct {
	Overall     float64
	MFCC        float64
	Volume      float64
	Timing      float64
	Pitch       float64
	Confidence  float64
	IsReliable  bool
}

// Scorer holds the incremental DTW working set for one session.
type Scorer struct {
	cfg    Config
	master [][]float64 // m x d, immutable once set

	masterLoudnessDB float64
	hasMasterLoudness bool

	prevColumn []float64 // D[:, j-1], length len(master)
	userCount  int       // number of user frames folded in so far (= u)

	bestCostTrail []float64 // recent best-of-column costs, for the stability check
	everVoiced    bool

	lastOverall float64
	lastVolume  float64
	lastTiming  float64
	lastPitch   float64
}

// NewScorer creates a scorer against a fixed master feature matrix.
func NewScorer(cfg Config, master [][]float64, masterLoudnessDB float64) *Scorer {
	return &Scorer{
		cfg:               cfg,
		master:            master,
		masterLoudnessDB:  masterLoudnessDB,
		hasMasterLoudness: true,
	}
}

// MasterLen returns the number of frames in the master feature matrix.
func (s *Scorer) MasterLen() int {
	return len(s.master)
}

// UserFrames returns how many user frames have been folded into the
// running score so far.
func (s *Scorer) UserFrames() int {
	return s.userCount
}

func (s *Scorer) vector(row []float64) []float64 {
	if s.cfg.DropCoeff0 && len(row) > 1 {
		return row[1:]
	}
	return row
}

func (s *Scorer) distance(a, b []float64) float64 {
	return floats.Distance(s.vector(a), s.vector(b), 2)
}

// bandWidth returns the Sakoe-Chiba band half-width for a grid whose
// larger dimension is n.
func bandWidth(n int) int {
	w := int(float64(n) * bandFraction)
	if w < bandFloor {
		w = bandFloor
	}
	return w
}

// AddUserFrame folds one new user MFCC row into the incremental cost
// grid and returns the updated running score. voicedSoFar should be the
// session's current VAD "ever voiced" flag.
func (s *Scorer) AddUserFrame(userRow []float64, userLoudnessDB float64, voicedSoFar bool) Score {
	m := len(s.master)
	j := s.userCount

	band := bandWidth(maxInt(m, j+1))
	lo := j - band
	hi := j + band
	if lo < 0 {
		lo = 0
	}
	if hi > m-1 {
		hi = m - 1
	}

	curColumn := make([]float64, m)
	for i := range curColumn {
		curColumn[i] = math.Inf(1)
	}

	if debugAsserts && len(curColumn) != m {
		panic(fmt.Sprintf("dtw: cost column length invariant violated: len(curColumn)=%d master rows=%d", len(curColumn), m))
	}
	if debugAsserts && s.prevColumn != nil && len(s.prevColumn) != m {
		panic(fmt.Sprintf("dtw: prevColumn length invariant violated: len(prevColumn)=%d master rows=%d", len(s.prevColumn), m))
	}

	for i := lo; i <= hi; i++ {
		cost := s.distance(s.master[i], userRow)

		best := math.Inf(1)
		// D[i-1, j] (above, same column, already computed this pass)
		if i > 0 && curColumn[i-1] < best {
			best = curColumn[i-1]
		}
		// D[i, j-1] (left, previous column)
		if s.prevColumn != nil && i < len(s.prevColumn) && s.prevColumn[i] < best {
			best = s.prevColumn[i]
		}
		// D[i-1, j-1] (diagonal)
		if i > 0 && s.prevColumn != nil && i-1 < len(s.prevColumn) && s.prevColumn[i-1] < best {
			best = s.prevColumn[i-1]
		}
		if i == 0 && j == 0 {
			curColumn[i] = cost
			continue
		}
		if math.IsInf(best, 1) {
			// No reachable predecessor inside the band: still reachable
			// only via a straight vertical run from (0,0) when this is
			// column 0.
			if j == 0 && i > 0 {
				best = curColumn[i-1]
			}
		}
		curColumn[i] = cost + best
	}

	bestCost, bestI := math.Inf(1), lo
	for i := lo; i <= hi; i++ {
		if curColumn[i] < bestCost {
			bestCost = curColumn[i]
			bestI = i
		}
	}

	s.prevColumn = curColumn
	s.userCount++
	if voicedSoFar {
		s.everVoiced = true
	}

	pathLength := float64(bestI+j+2) / 2
	norm := math.Pow(pathLength, normExponent)
	var normCost float64
	if norm > 0 && !math.IsInf(bestCost, 1) {
		normCost = bestCost / norm
	} else {
		normCost = 10 // large but finite, collapses overall toward 0
	}

	overall := math.Exp(-s.cfg.Alpha * normCost)
	s.lastOverall = overall

	s.lastVolume = s.volumeScore(userLoudnessDB)
	s.lastTiming = s.timingScore(bestI, j)
	s.lastPitch = s.lastOverall // coarse proxy pre-finalize, refined in Finalizer

	s.pushStability(bestCost)

	return Score{
		Overall:    overall,
		MFCC:       overall,
		Volume:     s.lastVolume,
		Timing:     s.lastTiming,
		Pitch:      s.lastPitch,
		Confidence: s.confidence(),
		IsReliable: s.Ready(),
	}
}

func (s *Scorer) volumeScore(userLoudnessDB float64) float64 {
	if !s.hasMasterLoudness {
		return 1
	}
	delta := math.Abs(userLoudnessDB - s.masterLoudnessDB)
	return math.Exp(-s.cfg.Beta * delta)
}

func (s *Scorer) timingScore(bestI, j int) float64 {
	if j == 0 {
		return 1
	}
	slope := float64(bestI+1) / float64(j+1)
	dev := math.Abs(slope - 1)
	return clamp01(1 - dev)
}

func (s *Scorer) pushStability(bestCost float64) {
	s.bestCostTrail = append(s.bestCostTrail, bestCost)
	if len(s.bestCostTrail) > stabilityWindow+1 {
		s.bestCostTrail = s.bestCostTrail[len(s.bestCostTrail)-(stabilityWindow+1):]
	}
}

// stabilized reports whether the running minimum DTW cost has changed by
// less than 1% over the last 10 frames (part of the readiness gate).
func (s *Scorer) stabilized() bool {
	n := len(s.bestCostTrail)
	if n < stabilityWindow+1 {
		return false
	}
	first := s.bestCostTrail[n-stabilityWindow-1]
	last := s.bestCostTrail[n-1]
	if first == 0 {
		return last == 0
	}
	relChange := math.Abs(last-first) / math.Abs(first)
	return relChange < stabilityRelChange
}

// Ready reports the three-part readiness gate from spec §4.9.
func (s *Scorer) Ready() bool {
	return s.userCount >= readinessMinFrames && s.everVoiced && s.stabilized()
}

// confidence is a ramp on frames elapsed: u divided by 2x the readiness
// floor, strictly monotone in u until it saturates at 1. It depends on
// the frame count only; the individual sub-scores do not enter into it.
func (s *Scorer) confidence() float64 {
	return clamp01(float64(s.userCount) / float64(2*readinessMinFrames))
}

// LatestScore returns the most recently computed sub-scores without
// advancing the grid (used by getRealtimeFeedback between chunks).
func (s *Scorer) LatestScore() Score {
	return Score{
		Overall:    s.lastOverall,
		MFCC:       s.lastOverall,
		Volume:     s.lastVolume,
		Timing:     s.lastTiming,
		Pitch:      s.lastPitch,
		Confidence: s.confidence(),
		IsReliable: s.Ready(),
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
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
