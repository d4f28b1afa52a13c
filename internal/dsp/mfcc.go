package dsp

import "math"

// logFloor avoids log(0) = -Inf when a mel band carries no energy.
const logFloor = 1e-10

// MFCCExtractor turns a magnitude spectrum into a vector of mel-frequency
// cepstral coefficients: power spectrum -> mel filterbank -> log -> DCT-II.
// The filterbank is precomputed once per engine (spec §4.4).
type MFCCExtractor struct {
	bank       *melFilterbank
	numFilters int
	numCoeffs  int
}

// NewMFCCExtractor builds an extractor for the given engine parameters.
func NewMFCCExtractor(frameSize, sampleRate, melBands, mfccCoeffs int, minFreq, maxFreq float64) *MFCCExtractor {
	return &MFCCExtractor{
		bank:       newMelFilterbank(melBands, frameSize, sampleRate, minFreq, maxFreq),
		numFilters: melBands,
		numCoeffs:  mfccCoeffs,
	}
}

// Compute returns the MFCC vector for one frame's magnitude spectrum.
// Coefficient 0 carries the overall log-energy term and is retained for
// loudness coupling; downstream DTW may mean-normalize it per session.
func (e *MFCCExtractor) Compute(spectrum []float64) []float64 {
	melEnergies := make([]float64, e.numFilters)
	for i := 0; i < e.numFilters; i++ {
		filter := e.bank.filters[i]
		var energy float64
		for j := 0; j < len(spectrum) && j < len(filter); j++ {
			energy += spectrum[j] * spectrum[j] * filter[j]
		}
		if energy < logFloor {
			energy = logFloor
		}
		melEnergies[i] = math.Log(energy)
	}

	mfcc := make([]float64, e.numCoeffs)
	for i := 0; i < e.numCoeffs; i++ {
		var sum float64
		for j := 0; j < e.numFilters; j++ {
			sum += melEnergies[j] * math.Cos(math.Pi*float64(i)*(float64(j)+0.5)/float64(e.numFilters))
		}
		mfcc[i] = sum
	}
	return mfcc
}

// NumCoeffs returns the configured MFCC vector length.
func (e *MFCCExtractor) NumCoeffs() int {
	return e.numCoeffs
}
