// Package loader resolves and decodes the master-call reference WAV file
// (spec §4.2 loadMaster) into mono float64 samples.
package loader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// ErrSampleRateMismatch is returned when the decoded master's sample rate
// does not match the session's committed rate.
var ErrSampleRateMismatch = errors.New("loader: master sample rate does not match session sample rate")

// Master is a decoded, mono-mixed reference recording.
type Master struct {
	Samples    []float64
	SampleRate int
}

// Resolve turns a callId or direct path into the WAV file path to load.
// An absolute path, or any path with a .wav extension, is used directly;
// anything else is treated as a bare callId and joined under
// masterCallsPath as "<callId>.wav". Whether the file exists is not
// checked here.
func Resolve(masterCallsPath, callIdOrPath string) string {
	if filepath.IsAbs(callIdOrPath) || filepath.Ext(callIdOrPath) == ".wav" {
		return callIdOrPath
	}
	return filepath.Join(masterCallsPath, callIdOrPath+".wav")
}

// Load decodes a RIFF/WAVE PCM file (16/24/32-bit, any channel count) into
// mono float64 samples in [-1,1], mixing multichannel input by averaging
// all channels per frame.
func Load(path string) (Master, error) {
	f, err := os.Open(path)
	if err != nil {
		return Master{}, fmt.Errorf("loader: open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Master{}, fmt.Errorf("loader: %s is not a valid WAV file", path)
	}
	if err := dec.FwdToPCM(); err != nil {
		return Master{}, fmt.Errorf("loader: seek to PCM data in %s: %w", path, err)
	}

	sampleRate := int(dec.SampleRate)
	numChans := int(dec.NumChans)
	bitDepth := int(dec.BitDepth)
	maxVal := float64(audio.IntMaxSignedValue(bitDepth))

	const chunkFrames = 4096
	intBuf := &audio.IntBuffer{
		Data: make([]int, chunkFrames*numChans),
		Format: &audio.Format{
			NumChannels: numChans,
			SampleRate:  sampleRate,
		},
	}

	var mono []float64
	for {
		n, err := dec.PCMBuffer(intBuf)
		if err != nil && err != io.EOF {
			return Master{}, fmt.Errorf("loader: decode PCM in %s: %w", path, err)
		}
		if n == 0 {
			break
		}

		frames := n / numChans
		for i := 0; i < frames; i++ {
			var sum float64
			for c := 0; c < numChans; c++ {
				sum += float64(intBuf.Data[i*numChans+c]) / maxVal
			}
			mono = append(mono, sum/float64(numChans))
		}

		if err == io.EOF {
			break
		}
	}

	if len(mono) == 0 {
		return Master{}, fmt.Errorf("loader: %s decoded to zero samples", path)
	}

	return Master{Samples: mono, SampleRate: sampleRate}, nil
}

// LoadAndValidate loads the master and checks its sample rate against the
// session's committed rate.
func LoadAndValidate(path string, sessionSampleRate int) (Master, error) {
	m, err := Load(path)
	if err != nil {
		return Master{}, err
	}
	if m.SampleRate != sessionSampleRate {
		return Master{}, fmt.Errorf("%w: master=%d session=%d", ErrSampleRateMismatch, m.SampleRate, sessionSampleRate)
	}
	return m, nil
}
