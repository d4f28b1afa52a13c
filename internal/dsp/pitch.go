package dsp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

const (
	pitchMinHz       = 50
	pitchMaxHz       = 1500
	medianWindowSize = 5
)

// PitchFrame is the per-frame pitch-tracker output.
type PitchFrame struct {
	PitchHz    float64
	Confidence float64
}

// PitchTracker estimates the fundamental frequency of each frame by
// autocorrelation over the lag range implied by [50Hz, 1500Hz], then
// median-smooths the raw estimate over a small trailing window to reject
// single-frame outliers before aggregation (spec §4.6).
type PitchTracker struct {
	sampleRate int
	history    []float64 // raw (unsmoothed) pitch trail, most recent last
}

// NewPitchTracker creates a tracker for the given sample rate.
func NewPitchTracker(sampleRate int) *PitchTracker {
	return &PitchTracker{sampleRate: sampleRate}
}

// Process estimates pitch for one time-domain frame. Unvoiced frames
// (autocorrelation peak below a normalized-confidence floor) report
// pitchHz=0, confidence=0.
func (p *PitchTracker) Process(frame []float64) PitchFrame {
	minLag := p.sampleRate / pitchMaxHz
	maxLag := p.sampleRate / pitchMinHz
	if maxLag >= len(frame) {
		maxLag = len(frame) - 1
	}
	if minLag < 1 {
		minLag = 1
	}
	if maxLag <= minLag {
		p.history = append(p.history, 0)
		return PitchFrame{}
	}

	var zeroLagEnergy float64
	for _, s := range frame {
		zeroLagEnergy += s * s
	}

	bestLag := 0
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i < len(frame)-lag; i++ {
			corr += frame[i] * frame[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	var confidence, pitchHz float64
	if bestLag > 0 && zeroLagEnergy > 0 {
		confidence = clamp01(bestCorr / zeroLagEnergy)
		pitchHz = float64(p.sampleRate) / float64(bestLag)
	}

	// Treat a weak autocorrelation peak as unvoiced.
	if confidence < 0.25 {
		pitchHz, confidence = 0, 0
	}

	p.history = append(p.history, pitchHz)
	if pitchHz == 0 {
		return PitchFrame{}
	}
	smoothed := p.medianSmooth()

	return PitchFrame{PitchHz: smoothed, Confidence: confidence}
}

// medianSmooth returns the median of the last medianWindowSize raw pitch
// estimates, using gonum/stat's empirical quantile over the sorted
// trailing window (0 values from unvoiced frames are included, so a
// mostly-unvoiced window correctly smooths toward 0).
func (p *PitchTracker) medianSmooth() float64 {
	n := len(p.history)
	start := n - medianWindowSize
	if start < 0 {
		start = 0
	}
	window := append([]float64(nil), p.history[start:]...)
	sort.Float64s(window)
	return stat.Quantile(0.5, stat.Empirical, window, nil)
}

// NormalizedCrossCorrelation compares two median-smoothed F0 trajectories
// of equal length, returning a value in [0,1] used for the pitch
// sub-score during finalize (spec §4.9).
func NormalizedCrossCorrelation(a, b []float64) float64 {
	n := len(a)
	if n == 0 || n != len(b) {
		return 0
	}

	var meanA, meanB float64
	for i := range a {
		meanA += a[i]
		meanB += b[i]
	}
	meanA /= float64(n)
	meanB /= float64(n)

	var num, denA, denB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}

	if denA <= 0 || denB <= 0 {
		return 0
	}
	corr := num / math.Sqrt(denA*denB)
	return clamp01((corr + 1) / 2)
}
