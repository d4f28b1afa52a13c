package dsp

import "testing"

func TestPitchTrackerTracksSine(t *testing.T) {
	tracker := NewPitchTracker(44100)

	var last PitchFrame
	for i := 0; i < 8; i++ {
		last = tracker.Process(sineFrame(440, 44100, 1024, 0.5))
	}

	if last.PitchHz < 400 || last.PitchHz > 480 {
		t.Errorf("expected pitch near 440Hz, got %v", last.PitchHz)
	}
	if last.Confidence <= 0 {
		t.Errorf("expected positive confidence for a clean tone, got %v", last.Confidence)
	}
}

func TestPitchTrackerSilenceIsUnvoiced(t *testing.T) {
	tracker := NewPitchTracker(44100)
	silence := make([]float64, 1024)

	pf := tracker.Process(silence)
	if pf.PitchHz != 0 || pf.Confidence != 0 {
		t.Errorf("expected unvoiced silence, got %+v", pf)
	}
}

func TestNormalizedCrossCorrelationIdentical(t *testing.T) {
	trail := []float64{440, 441, 439, 440, 442}
	score := NormalizedCrossCorrelation(trail, trail)
	if score < 0.99 {
		t.Errorf("expected near-perfect correlation for identical trails, got %v", score)
	}
}

func TestNormalizedCrossCorrelationMismatchedLength(t *testing.T) {
	if score := NormalizedCrossCorrelation([]float64{1, 2}, []float64{1, 2, 3}); score != 0 {
		t.Errorf("expected 0 for mismatched lengths, got %v", score)
	}
}
