package dsp

import "math"

// melFilterbank holds triangular mel-scale filters over the FFT bin axis.
// It depends only on sample rate, band count, frequency bounds, and frame
// size, so it is built once per engine and shared read-only across all
// sessions (spec §4.4 invariant).
type melFilterbank struct {
	filters [][]float64 // [band][bin]
}

func hzToMel(hz float64) float64 {
	return 2595 * math.Log10(1+hz/700)
}

func melToHz(mel float64) float64 {
	return 700 * (math.Pow(10, mel/2595) - 1)
}

// newMelFilterbank builds numFilters triangular filters spanning
// [minFreq, maxFreq] (Hz) on the mel scale, expressed over the
// frameSize/2+1 magnitude-spectrum bin axis at the given sample rate.
func newMelFilterbank(numFilters, frameSize, sampleRate int, minFreq, maxFreq float64) *melFilterbank {
	if maxFreq <= 0 || maxFreq > float64(sampleRate)/2 {
		maxFreq = float64(sampleRate) / 2
	}
	if minFreq < 0 {
		minFreq = 0
	}

	lowMel := hzToMel(minFreq)
	highMel := hzToMel(maxFreq)

	melPoints := make([]float64, numFilters+2)
	for i := range melPoints {
		melPoints[i] = lowMel + float64(i)*(highMel-lowMel)/float64(numFilters+1)
	}

	hzPoints := make([]float64, numFilters+2)
	for i, m := range melPoints {
		hzPoints[i] = melToHz(m)
	}

	binPoints := make([]int, numFilters+2)
	for i, hz := range hzPoints {
		binPoints[i] = int(math.Floor(hz * float64(frameSize) / float64(sampleRate)))
	}

	specLen := frameSize/2 + 1
	filters := make([][]float64, numFilters)
	for i := 0; i < numFilters; i++ {
		filters[i] = make([]float64, specLen)

		for j := binPoints[i]; j < binPoints[i+1] && j < specLen; j++ {
			if binPoints[i+1] != binPoints[i] {
				filters[i][j] = float64(j-binPoints[i]) / float64(binPoints[i+1]-binPoints[i])
			}
		}
		for j := binPoints[i+1]; j < binPoints[i+2] && j < specLen; j++ {
			if binPoints[i+2] != binPoints[i+1] {
				filters[i][j] = float64(binPoints[i+2]-j) / float64(binPoints[i+2]-binPoints[i+1])
			}
		}
	}

	return &melFilterbank{filters: filters}
}
