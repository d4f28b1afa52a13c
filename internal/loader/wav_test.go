package loader

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

func writeTestWAV(t *testing.T, path string, sampleRate, numChans int, samples []float64) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, numChans, 1)

	ints := make([]int, len(samples)*numChans)
	for i, s := range samples {
		v := int(s * 32767)
		for c := 0; c < numChans; c++ {
			ints[i*numChans+c] = v
		}
	}

	buf := &audio.IntBuffer{
		Data:   ints,
		Format: &audio.Format{NumChannels: numChans, SampleRate: sampleRate},
	}
	if err := enc.Write(buf); err != nil {
		t.Fatalf("write PCM: %v", err)
	}
	if err := enc.Close(); err != nil {
		t.Fatalf("close encoder: %v", err)
	}
}

func toneSamples(freq float64, sampleRate, n int) []float64 {
	s := make([]float64, n)
	for i := range s {
		s[i] = 0.5 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return s
}

func TestLoadMonoWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeTestWAV(t, path, 44100, 1, toneSamples(440, 44100, 2048))

	master, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if master.SampleRate != 44100 {
		t.Errorf("expected sample rate 44100, got %d", master.SampleRate)
	}
	if len(master.Samples) != 2048 {
		t.Errorf("expected 2048 samples, got %d", len(master.Samples))
	}
}

func TestLoadStereoMixesToMono(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stereo.wav")
	writeTestWAV(t, path, 44100, 2, toneSamples(440, 44100, 1024))

	master, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(master.Samples) != 1024 {
		t.Errorf("expected 1024 mono frames from a 2-channel file, got %d", len(master.Samples))
	}
}

func TestLoadAndValidateSampleRateMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate.wav")
	writeTestWAV(t, path, 44100, 1, toneSamples(440, 44100, 512))

	_, err := LoadAndValidate(path, 16000)
	if err == nil {
		t.Fatal("expected a sample-rate mismatch error")
	}
}

func TestLoadAndValidateMatchingSampleRate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rate_ok.wav")
	writeTestWAV(t, path, 16000, 1, toneSamples(440, 16000, 512))

	master, err := LoadAndValidate(path, 16000)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if master.SampleRate != 16000 {
		t.Errorf("expected 16000, got %d", master.SampleRate)
	}
}

func TestResolveDirectPath(t *testing.T) {
	if got := Resolve("/calls", "/tmp/foo.wav"); got != "/tmp/foo.wav" {
		t.Errorf("expected absolute path passed through, got %q", got)
	}
	if got := Resolve("/calls", "relative.wav"); got != "relative.wav" {
		t.Errorf("expected .wav-suffixed relative path passed through, got %q", got)
	}
}

func TestResolveBareCallId(t *testing.T) {
	got := Resolve("/calls", "elk-bugle-01")
	want := filepath.Join("/calls", "elk-bugle-01.wav")
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "does-not-exist.wav")); err == nil {
		t.Fatal("expected an error loading a nonexistent file")
	}
}
