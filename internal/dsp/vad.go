package dsp

import "math"

// VADConfig exposes the thresholds spec §9 leaves unspecified ("exact
// thresholds are ambiguous") as tunable engine configuration, with the
// defaults stated in spec §4.5.
type VADConfig struct {
	EnergyThreshold   float64 // RMS above which a frame looks like speech
	CentroidThreshold float64 // Hz; low centroid + low energy counts as non-speech
	MinVoicedFrames   int     // hysteresis: frames before a VOICED run is accepted
	MinSilenceFrames  int     // hysteresis: frames before an UNVOICED run is accepted
}

// DefaultVADConfig returns the spec's stated defaults.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		EnergyThreshold:   0.01,
		CentroidThreshold: 200,
		MinVoicedFrames:   3,
		MinSilenceFrames:  5,
	}
}

// VAD performs binary speech/non-speech decisions per frame from a
// smoothed speech score over energy, spectral centroid, and a
// zero-crossing-rate proxy, with minimum-duration hysteresis so a single
// loud or quiet frame doesn't flip the decision.
type VAD struct {
	cfg VADConfig

	smoothedScore float64
	voiced        bool
	runLength     int
	everVoiced    bool
}

// NewVAD creates a VAD with the given configuration.
func NewVAD(cfg VADConfig) *VAD {
	return &VAD{cfg: cfg}
}

// zcr computes the zero-crossing rate of a time-domain frame.
func zcr(frame []float64) float64 {
	if len(frame) < 2 {
		return 0
	}
	var crossings int
	for i := 1; i < len(frame); i++ {
		if (frame[i] >= 0) != (frame[i-1] >= 0) {
			crossings++
		}
	}
	return float64(crossings) / float64(len(frame))
}

// Decision is the per-frame VAD output.
type Decision struct {
	Voiced bool
	Score  float64 // smoothed speech score in [0,1]
}

// Process consumes one frame's time-domain samples, RMS, and spectral
// centroid, and returns the hysteresis-gated voiced/unvoiced decision.
func (v *VAD) Process(frame []float64, rms, centroid float64) Decision {
	energyScore := clamp01(rms / v.cfg.EnergyThreshold)
	centroidScore := clamp01(centroid / v.cfg.CentroidThreshold)
	zcrScore := 1 - clamp01(math.Abs(zcr(frame)-0.1)/0.4) // mid ZCR reads as voiced

	raw := (energyScore + centroidScore + zcrScore) / 3
	v.smoothedScore = 0.6*v.smoothedScore + 0.4*raw

	candidate := v.smoothedScore > 0.5
	if candidate != v.voiced {
		v.runLength++
	} else {
		v.runLength = 0
	}

	threshold := v.cfg.MinSilenceFrames
	if candidate {
		threshold = v.cfg.MinVoicedFrames
	}
	if candidate != v.voiced && v.runLength >= threshold {
		v.voiced = candidate
		v.runLength = 0
	}

	if v.voiced {
		v.everVoiced = true
	}

	return Decision{Voiced: v.voiced, Score: v.smoothedScore}
}

// EverVoiced reports whether at least one voiced region has been seen,
// part of the readiness gate in spec §4.9.
func (v *VAD) EverVoiced() bool {
	return v.everVoiced
}

func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
