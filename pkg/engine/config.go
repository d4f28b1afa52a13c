package engine

import (
	"github.com/huntmasteracademy/gamecalls-engine/internal/dsp"
	"github.com/huntmasteracademy/gamecalls-engine/internal/dtw"
	"github.com/huntmasteracademy/gamecalls-engine/internal/finalize"
)

// Config is the engine's immutable-per-instance configuration (spec §3
// EngineConfig), following the teacher's internal/config.Config shape: a
// plain JSON-tagged struct with a DefaultConfig constructor, for callers
// who want to persist or template it even though the engine itself never
// reads or writes it from disk.
type Config struct {
	MasterCallsPath string `json:"masterCallsPath"`

	DefaultSampleRate int     `json:"defaultSampleRate"`
	FrameSize         int     `json:"frameSize"`
	HopSize           int     `json:"hopSize"`
	MFCCCoeffs        int     `json:"mfccCoeffs"`
	MelBands          int     `json:"melBands"`
	MinFrequency      float64 `json:"minFrequency"`
	MaxFrequency      float64 `json:"maxFrequency"`

	EnhancedAnalysisDefault bool `json:"enhancedAnalysisDefault"`

	VAD      dsp.VADConfig    `json:"vad"`
	DTW      dtw.Config       `json:"dtw"`
	Finalize finalize.Config  `json:"finalize"`
}

// DefaultConfig returns the spec §3-stated defaults.
func DefaultConfig() Config {
	return Config{
		MasterCallsPath:         "./master-calls",
		DefaultSampleRate:       44100,
		FrameSize:               512,
		HopSize:                 256,
		MFCCCoeffs:              13,
		MelBands:                26,
		MinFrequency:            0,
		MaxFrequency:            0, // 0 means Nyquist, resolved per sample rate by the mel filterbank
		EnhancedAnalysisDefault: true,
		VAD:                     dsp.DefaultVADConfig(),
		DTW:                     dtw.DefaultConfig(),
		Finalize:                finalize.DefaultConfig(),
	}
}

// Option mutates a Config at construction time (functional-options
// pattern; spec §9 notes the engine is never a singleton, so each
// instance takes its own options rather than reading process globals).
type Option func(*Config)

// WithMasterCallsPath overrides the master-call search root.
func WithMasterCallsPath(path string) Option {
	return func(c *Config) { c.MasterCallsPath = path }
}

// WithFrameHop overrides the frame size and hop size in samples.
func WithFrameHop(frameSize, hopSize int) Option {
	return func(c *Config) {
		c.FrameSize = frameSize
		c.HopSize = hopSize
	}
}

// WithMFCC overrides the MFCC coefficient count and mel band count.
func WithMFCC(coeffs, melBands int) Option {
	return func(c *Config) {
		c.MFCCCoeffs = coeffs
		c.MelBands = melBands
	}
}

// WithFrequencyBounds overrides the mel filterbank's frequency bounds.
func WithFrequencyBounds(minFreq, maxFreq float64) Option {
	return func(c *Config) {
		c.MinFrequency = minFreq
		c.MaxFrequency = maxFreq
	}
}

// WithVAD overrides the voice-activity-detector thresholds.
func WithVAD(cfg dsp.VADConfig) Option {
	return func(c *Config) { c.VAD = cfg }
}

// WithDTW overrides the DTW scorer tuning.
func WithDTW(cfg dtw.Config) Option {
	return func(c *Config) { c.DTW = cfg }
}

// WithFinalize overrides the Finalizer tuning.
func WithFinalize(cfg finalize.Config) Option {
	return func(c *Config) { c.Finalize = cfg }
}
