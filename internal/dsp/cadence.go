package dsp

import "math"

const (
	minTempoBPM = 40
	maxTempoBPM = 240
)

// CadenceAnalyzer tracks a half-wave-rectified spectral-flux onset
// envelope and estimates tempo by autocorrelating it over the lag range
// implied by [40,240] BPM (spec §4.8).
type CadenceAnalyzer struct {
	sampleRate int
	hopSize    int

	prevSpectrum []float64
	onsets       []float64
}

// NewCadenceAnalyzer creates an analyzer for the given sample rate and
// hop size (samples).
func NewCadenceAnalyzer(sampleRate, hopSize int) *CadenceAnalyzer {
	return &CadenceAnalyzer{sampleRate: sampleRate, hopSize: hopSize}
}

// Process computes the onset-envelope value for one frame's magnitude
// spectrum and appends it to the running trail.
func (c *CadenceAnalyzer) Process(spectrum []float64) float64 {
	var flux float64
	for i := 0; i < len(spectrum) && i < len(c.prevSpectrum); i++ {
		diff := spectrum[i] - c.prevSpectrum[i]
		if diff > 0 {
			flux += diff * diff
		}
	}
	flux = math.Sqrt(flux)

	if c.prevSpectrum == nil {
		c.prevSpectrum = make([]float64, len(spectrum))
	}
	copy(c.prevSpectrum, spectrum)

	c.onsets = append(c.onsets, flux)
	return flux
}

// Tempo estimate and normalized rhythm strength.
type Tempo struct {
	BPM            float64
	RhythmStrength float64
}

// EstimateTempo autocorrelates the running onset envelope over [40,240]
// BPM and returns the dominant lag converted to BPM, plus the normalized
// peak autocorrelation as rhythm strength.
func (c *CadenceAnalyzer) EstimateTempo() Tempo {
	return EstimateTempoFromOnsets(c.onsets, c.hopSize, c.sampleRate)
}

// OnsetEnvelope returns the full trail of onset-envelope values computed
// so far.
func (c *CadenceAnalyzer) OnsetEnvelope() []float64 {
	return c.onsets
}

// EstimateTempoFromOnsets autocorrelates an arbitrary onset-envelope slice
// over [40,240] BPM. It is shared by the live CadenceAnalyzer and the
// Finalizer, which re-runs it over just the selected segment's onset
// values.
func EstimateTempoFromOnsets(onsets []float64, hopSize, sampleRate int) Tempo {
	if len(onsets) < 10 {
		return Tempo{BPM: 120}
	}

	hopDuration := float64(hopSize) / float64(sampleRate)
	minLag := int(60.0 / maxTempoBPM / hopDuration)
	maxLag := int(60.0 / minTempoBPM / hopDuration)
	if minLag < 1 {
		minLag = 1
	}
	if maxLag >= len(onsets) {
		maxLag = len(onsets) - 1
	}
	if maxLag <= minLag {
		return Tempo{BPM: 120}
	}

	var zeroLagEnergy float64
	for _, v := range onsets {
		zeroLagEnergy += v * v
	}

	bestLag := minLag
	bestCorr := 0.0
	for lag := minLag; lag <= maxLag; lag++ {
		var corr float64
		for i := 0; i < len(onsets)-lag; i++ {
			corr += onsets[i] * onsets[i+lag]
		}
		if corr > bestCorr {
			bestCorr = corr
			bestLag = lag
		}
	}

	bpm := 60.0 / (float64(bestLag) * hopDuration)
	if bpm < minTempoBPM {
		bpm = minTempoBPM
	}
	if bpm > maxTempoBPM {
		bpm = maxTempoBPM
	}

	var strength float64
	if zeroLagEnergy > 0 {
		strength = clamp01(bestCorr / zeroLagEnergy)
	}

	return Tempo{BPM: bpm, RhythmStrength: strength}
}
