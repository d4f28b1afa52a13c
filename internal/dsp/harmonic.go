package dsp

import "math"

const rolloffPercent = 0.85

// HarmonicFrame is the per-frame harmonic-analysis output.
type HarmonicFrame struct {
	Centroid      float64 // Hz, magnitude-weighted mean frequency
	Rolloff       float64 // Hz, 85% energy threshold
	Flatness      float64 // geometric/arithmetic mean ratio, in [0,1]
	HarmonicRatio float64 // energy at integer multiples of F0 / total energy
}

// HarmonicAnalyzer computes spectral descriptors from the magnitude
// spectrum and maintains running means for the session summary.
//
// Per spec §9's open question, Centroid is always the true
// magnitude-weighted mean frequency: it is never backfilled with the
// harmonic-confidence value.
type HarmonicAnalyzer struct {
	sampleRate int
	frameSize  int

	centroidSum float64
	rolloffSum  float64
	flatnessSum float64
	harmonicSum float64
	count       int
}

// NewHarmonicAnalyzer creates an analyzer for the given engine parameters.
func NewHarmonicAnalyzer(sampleRate, frameSize int) *HarmonicAnalyzer {
	return &HarmonicAnalyzer{sampleRate: sampleRate, frameSize: frameSize}
}

// Process computes the harmonic descriptors for one frame's magnitude
// spectrum, given the frame's tracked fundamental (0 if unvoiced).
func (h *HarmonicAnalyzer) Process(spectrum []float64, fundamentalHz float64) HarmonicFrame {
	freqPerBin := float64(h.sampleRate) / float64(h.frameSize)

	centroid := h.centroid(spectrum, freqPerBin)
	rolloff := h.rolloff(spectrum, freqPerBin)
	flatness := h.flatness(spectrum)
	harmonicRatio := h.harmonicRatio(spectrum, freqPerBin, fundamentalHz)

	h.centroidSum += centroid
	h.rolloffSum += rolloff
	h.flatnessSum += flatness
	h.harmonicSum += harmonicRatio
	h.count++

	return HarmonicFrame{
		Centroid:      centroid,
		Rolloff:       rolloff,
		Flatness:      flatness,
		HarmonicRatio: harmonicRatio,
	}
}

func (h *HarmonicAnalyzer) centroid(spectrum []float64, freqPerBin float64) float64 {
	var weighted, sum float64
	for i, mag := range spectrum {
		freq := float64(i) * freqPerBin
		weighted += freq * mag
		sum += mag
	}
	if sum == 0 {
		return 0
	}
	return weighted / sum
}

func (h *HarmonicAnalyzer) rolloff(spectrum []float64, freqPerBin float64) float64 {
	var total float64
	for _, mag := range spectrum {
		total += mag * mag
	}
	threshold := total * rolloffPercent

	var cum float64
	for i, mag := range spectrum {
		cum += mag * mag
		if cum >= threshold {
			return float64(i) * freqPerBin
		}
	}
	return float64(len(spectrum)) * freqPerBin
}

// flatness is the ratio of the geometric mean to the arithmetic mean of
// the spectral magnitudes: near 1 for noise-like spectra, near 0 for
// tonal ones.
func (h *HarmonicAnalyzer) flatness(spectrum []float64) float64 {
	if len(spectrum) == 0 {
		return 0
	}

	var logSum, arithSum float64
	var n int
	for _, mag := range spectrum {
		if mag <= 0 {
			continue
		}
		logSum += math.Log(mag)
		arithSum += mag
		n++
	}
	if n == 0 || arithSum == 0 {
		return 0
	}

	geoMean := math.Exp(logSum / float64(n))
	arithMean := arithSum / float64(n)
	return clamp01(geoMean / arithMean)
}

// harmonicRatio sums energy at integer multiples of the estimated F0 and
// divides by total spectral energy. Returns 0 for unvoiced frames
// (fundamentalHz <= 0).
func (h *HarmonicAnalyzer) harmonicRatio(spectrum []float64, freqPerBin, fundamentalHz float64) float64 {
	if fundamentalHz <= 0 {
		return 0
	}

	var total, harmonicEnergy float64
	for _, mag := range spectrum {
		total += mag * mag
	}
	if total == 0 {
		return 0
	}

	for k := 1; k*int(fundamentalHz/freqPerBin) < len(spectrum) && k <= 20; k++ {
		bin := int(math.Round(float64(k) * fundamentalHz / freqPerBin))
		// Sum energy in a small window around the harmonic bin to tolerate
		// quantization of the fundamental estimate.
		for b := bin - 1; b <= bin+1; b++ {
			if b >= 0 && b < len(spectrum) {
				harmonicEnergy += spectrum[b] * spectrum[b]
			}
		}
	}

	return clamp01(harmonicEnergy / total)
}

// Means returns the running means accumulated so far.
func (h *HarmonicAnalyzer) Means() HarmonicFrame {
	if h.count == 0 {
		return HarmonicFrame{}
	}
	n := float64(h.count)
	return HarmonicFrame{
		Centroid:      h.centroidSum / n,
		Rolloff:       h.rolloffSum / n,
		Flatness:      h.flatnessSum / n,
		HarmonicRatio: h.harmonicSum / n,
	}
}
