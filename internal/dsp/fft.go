package dsp

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// Analyzer applies a precomputed Hann window and a real-input FFT to each
// frame, producing a magnitude spectrum of length frameSize/2+1. The
// window and FFT plan are built once per engine instance and are
// read-only thereafter, so a single Analyzer is safe to share across
// sessions as long as callers only invoke Magnitude (no mutable state is
// touched per call beyond locally-allocated buffers).
type Analyzer struct {
	fft       *fourier.FFT
	hannWindow []float64
	frameSize int
}

// NewAnalyzer builds an Analyzer for the given frame size (samples).
func NewAnalyzer(frameSize int) *Analyzer {
	coeffs := make([]float64, frameSize)
	for i := range coeffs {
		coeffs[i] = 1
	}
	coeffs = window.Hann(coeffs)

	return &Analyzer{
		fft:        fourier.NewFFT(frameSize),
		hannWindow: coeffs,
		frameSize:  frameSize,
	}
}

// Magnitude returns the magnitude spectrum of a single frame. The input
// must have length frameSize; same input bytes always yield bit-stable
// output on the same platform since the window and FFT plan never change.
func (a *Analyzer) Magnitude(frame []float64) []float64 {
	windowed := make([]float64, a.frameSize)
	for i := 0; i < a.frameSize && i < len(frame); i++ {
		windowed[i] = frame[i] * a.hannWindow[i]
	}

	coeffs := a.fft.Coefficients(nil, windowed)
	spectrum := make([]float64, len(coeffs))
	for i, c := range coeffs {
		re, im := real(c), imag(c)
		spectrum[i] = math.Sqrt(re*re + im*im)
	}
	return spectrum
}

// FrameSize returns the configured frame size in samples.
func (a *Analyzer) FrameSize() int {
	return a.frameSize
}
