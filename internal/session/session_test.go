package session

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/huntmasteracademy/gamecalls-engine/internal/dsp"
	"github.com/huntmasteracademy/gamecalls-engine/internal/dtw"
	"github.com/huntmasteracademy/gamecalls-engine/internal/finalize"
)

const testSampleRate = 44100

func testShared() *Shared {
	return &Shared{
		FrameSize:    512,
		HopSize:      256,
		MFCCCoeffs:   13,
		MelBands:     26,
		MinFrequency: 0,
		MaxFrequency: 0,
		VAD:          dsp.DefaultVADConfig(),
		DTW:          dtw.DefaultConfig(),
		Finalize:     finalize.DefaultConfig(),
		FFT:          dsp.NewAnalyzer(512),
		MFCC:         dsp.NewMFCCExtractor(512, testSampleRate, 26, 13, 0, 0),
	}
}

func toneSamples(freq float64, sampleRate, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return s
}

func writeTestWAV(t *testing.T, samples []float64, sampleRate int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "master.wav")

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create wav: %v", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	ints := make([]int, len(samples))
	for i, s := range samples {
		ints[i] = int(s * 32767)
	}
	buf := &audio.IntBuffer{Data: ints, Format: &audio.Format{NumChannels: 1, SampleRate: sampleRate}}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write wav: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close wav: %v", err)
	}
	return path
}

func TestSessionProcessChunkRejectsBeforeMasterLoaded(t *testing.T) {
	s := New(1, testSampleRate, testShared())
	_, err := s.ProcessChunk(toneSamples(440, testSampleRate, 1024))
	if err != ErrMasterNotLoaded {
		t.Fatalf("expected ErrMasterNotLoaded, got %v", err)
	}
}

func TestSessionLoadMasterThenProcessChunk(t *testing.T) {
	path := writeTestWAV(t, toneSamples(440, testSampleRate, 8192), testSampleRate)

	s := New(1, testSampleRate, testShared())
	if err := s.LoadMaster(path); err != nil {
		t.Fatalf("LoadMaster: %v", err)
	}

	n, err := s.ProcessChunk(toneSamples(440, testSampleRate, 4096))
	if err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}
	if n == 0 {
		t.Errorf("expected at least one completed frame")
	}
	if s.UserFrameCount() != n {
		t.Errorf("expected UserFrameCount %d to match returned frame count %d", s.UserFrameCount(), n)
	}
}

func TestSessionFinalizeIsIdempotent(t *testing.T) {
	path := writeTestWAV(t, toneSamples(440, testSampleRate, 16384), testSampleRate)

	s := New(1, testSampleRate, testShared())
	if err := s.LoadMaster(path); err != nil {
		t.Fatalf("LoadMaster: %v", err)
	}
	if _, err := s.ProcessChunk(toneSamples(440, testSampleRate, 16384)); err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}

	first, err := s.Finalize()
	if err != nil {
		t.Fatalf("first Finalize: %v", err)
	}
	if !s.Finalized() {
		t.Fatalf("expected Finalized() true after Finalize")
	}

	second, err := s.Finalize()
	if err != ErrAlreadyFinalized {
		t.Fatalf("expected ErrAlreadyFinalized on second call, got %v", err)
	}
	if second != first {
		t.Errorf("expected cached summary returned unchanged, got %+v vs %+v", second, first)
	}
}

func TestSessionProcessChunkRejectedAfterFinalize(t *testing.T) {
	path := writeTestWAV(t, toneSamples(440, testSampleRate, 16384), testSampleRate)

	s := New(1, testSampleRate, testShared())
	if err := s.LoadMaster(path); err != nil {
		t.Fatalf("LoadMaster: %v", err)
	}
	if _, err := s.ProcessChunk(toneSamples(440, testSampleRate, 16384)); err != nil {
		t.Fatalf("ProcessChunk: %v", err)
	}
	if _, err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	if _, err := s.ProcessChunk(toneSamples(440, testSampleRate, 1024)); err != ErrFinalized {
		t.Fatalf("expected ErrFinalized after finalize, got %v", err)
	}
}

func TestSessionRealtimeScoreBeforeMasterIsZeroValue(t *testing.T) {
	s := New(1, testSampleRate, testShared())
	score, analyzed := s.RealtimeScore()
	if score != (dtw.Score{}) || analyzed != 0 {
		t.Errorf("expected zero-value score before any processing, got %+v analyzed=%d", score, analyzed)
	}
}
