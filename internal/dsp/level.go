package dsp

import "math"

// clipThreshold is the peak-absolute level above which a frame is
// considered clipped (spec §4.5).
const clipThreshold = 0.99

// dbFloor keeps DBFS finite for near-silent input.
const dbFloor = 1e-9

// DBFS converts a linear RMS/amplitude value to decibels full-scale.
func DBFS(x float64) float64 {
	return 20 * math.Log10(x+dbFloor)
}

// LevelFrame is the per-frame output of the Level Detector.
type LevelFrame struct {
	RMS       float64
	Peak      float64
	Loudness  float64 // EMA-smoothed integrated loudness proxy
	Clipping  bool
}

// LevelDetector computes per-frame RMS, peak, and a simplified EMA
// "integrated loudness" proxy (not full ITU BS.1770), tracking consecutive
// near-clip frames so callers can flag clipping runs.
type LevelDetector struct {
	emaAlpha      float64
	loudness      float64
	clipRun       int
	initialized   bool
}

// NewLevelDetector creates a detector with the given EMA smoothing factor
// (0,1]; smaller values smooth more aggressively.
func NewLevelDetector(emaAlpha float64) *LevelDetector {
	if emaAlpha <= 0 || emaAlpha > 1 {
		emaAlpha = 0.1
	}
	return &LevelDetector{emaAlpha: emaAlpha}
}

// Process computes the level signals for one frame.
func (d *LevelDetector) Process(frame []float64) LevelFrame {
	var sumSq, peak float64
	for _, s := range frame {
		sumSq += s * s
		abs := math.Abs(s)
		if abs > peak {
			peak = abs
		}
	}
	rms := math.Sqrt(sumSq / float64(len(frame)))

	if !d.initialized {
		d.loudness = rms
		d.initialized = true
	} else {
		d.loudness = d.emaAlpha*rms + (1-d.emaAlpha)*d.loudness
	}

	clipping := peak >= clipThreshold
	if clipping {
		d.clipRun++
	} else {
		d.clipRun = 0
	}

	return LevelFrame{
		RMS:      rms,
		Peak:     peak,
		Loudness: d.loudness,
		Clipping: d.clipRun >= 2,
	}
}
