package dsp

import "testing"

func TestHarmonicAnalyzerCentroidWithinSpectrumRange(t *testing.T) {
	analyzer := NewAnalyzer(512)
	h := NewHarmonicAnalyzer(44100, 512)

	spectrum := analyzer.Magnitude(sineFrame(440, 44100, 512, 0.5))
	frame := h.Process(spectrum, 440)

	if frame.Centroid <= 0 || frame.Centroid > 44100/2 {
		t.Errorf("expected centroid within Nyquist range, got %v", frame.Centroid)
	}
	if frame.Rolloff < frame.Centroid {
		t.Errorf("expected rolloff (%v) to be at or above centroid (%v) for a tonal spectrum", frame.Rolloff, frame.Centroid)
	}
}

func TestHarmonicAnalyzerRatioZeroWhenUnvoiced(t *testing.T) {
	analyzer := NewAnalyzer(512)
	h := NewHarmonicAnalyzer(44100, 512)

	spectrum := analyzer.Magnitude(sineFrame(440, 44100, 512, 0.5))
	frame := h.Process(spectrum, 0)

	if frame.HarmonicRatio != 0 {
		t.Errorf("expected zero harmonic ratio for an unvoiced (fundamentalHz<=0) frame, got %v", frame.HarmonicRatio)
	}
}

func TestHarmonicAnalyzerMeansAccumulate(t *testing.T) {
	analyzer := NewAnalyzer(512)
	h := NewHarmonicAnalyzer(44100, 512)

	for i := 0; i < 5; i++ {
		h.Process(analyzer.Magnitude(sineFrame(440, 44100, 512, 0.5)), 440)
	}

	means := h.Means()
	if means.Centroid <= 0 {
		t.Errorf("expected non-zero mean centroid after 5 frames, got %v", means.Centroid)
	}
}

func TestHarmonicAnalyzerMeansZeroWhenEmpty(t *testing.T) {
	h := NewHarmonicAnalyzer(44100, 512)
	if means := h.Means(); means != (HarmonicFrame{}) {
		t.Errorf("expected zero-value means before any frame processed, got %+v", means)
	}
}
