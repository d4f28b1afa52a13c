package dsp

import "testing"

func TestFrameStreamEmitsAtHopBoundaries(t *testing.T) {
	fs := NewFrameStream(4, 2)

	frames := fs.Submit([]float64{1, 2, 3, 4, 5})
	if len(frames) != 1 {
		t.Fatalf("expected 1 frame, got %d", len(frames))
	}
	if got := frames[0]; got[0] != 1 || got[3] != 4 {
		t.Errorf("unexpected first frame: %v", got)
	}

	frames = fs.Submit([]float64{6, 7})
	if len(frames) != 1 {
		t.Fatalf("expected 1 more frame, got %d", len(frames))
	}
	if got := frames[0]; got[0] != 3 || got[3] != 6 {
		t.Errorf("unexpected second frame: %v", got)
	}

	if fs.FramesEmitted() != 2 {
		t.Errorf("expected 2 frames emitted, got %d", fs.FramesEmitted())
	}
}

func TestFrameStreamSplitInvariance(t *testing.T) {
	stream := make([]float64, 2000)
	for i := range stream {
		stream[i] = float64(i % 17)
	}

	whole := NewFrameStream(512, 256)
	wholeFrames := whole.Submit(stream)

	split := NewFrameStream(512, 256)
	var splitFrames [][]float64
	for offset := 0; offset < len(stream); offset += 97 {
		end := offset + 97
		if end > len(stream) {
			end = len(stream)
		}
		splitFrames = append(splitFrames, split.Submit(stream[offset:end])...)
	}

	if len(wholeFrames) != len(splitFrames) {
		t.Fatalf("frame count mismatch: whole=%d split=%d", len(wholeFrames), len(splitFrames))
	}
	for i := range wholeFrames {
		for j := range wholeFrames[i] {
			if wholeFrames[i][j] != splitFrames[i][j] {
				t.Fatalf("frame %d sample %d mismatch: %v != %v", i, j, wholeFrames[i][j], splitFrames[i][j])
			}
		}
	}
}

func TestFrameStreamEmptySubmitIsNoOp(t *testing.T) {
	fs := NewFrameStream(4, 2)
	if frames := fs.Submit(nil); frames != nil {
		t.Errorf("expected nil frames for empty submit, got %v", frames)
	}
}
