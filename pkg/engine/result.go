package engine

// RealtimeScore is the running per-session score (spec §6): the overall
// similarity plus its sub-scores, a reliability gate, an "isMatch"
// convenience threshold, and the number of samples folded in so far.
type RealtimeScore struct {
	Overall    float64 `json:"overall"`
	MFCC       float64 `json:"mfcc"`
	Volume     float64 `json:"volume"`
	Timing     float64 `json:"timing"`
	Pitch      float64 `json:"pitch"`
	Confidence float64 `json:"confidence"`

	IsReliable      bool   `json:"isReliable"`
	IsMatch         bool   `json:"isMatch"`
	SamplesAnalyzed uint64 `json:"samplesAnalyzed"`
}

// isMatchThreshold is the fixed cutoff spec §6 defines IsMatch by.
const isMatchThreshold = 0.7

// PitchSummary is the finalized pitch sub-report.
type PitchSummary struct {
	PitchHz    float64 `json:"pitchHz"`
	Confidence float64 `json:"confidence"`
	Grade      string  `json:"grade"`
}

// HarmonicSummary is the finalized harmonic sub-report.
type HarmonicSummary struct {
	Fundamental float64 `json:"fundamental"`
	Confidence  float64 `json:"confidence"`
	Grade       string  `json:"grade"`
}

// CadenceSummary is the finalized cadence sub-report.
type CadenceSummary struct {
	TempoBPM   float64 `json:"tempoBpm"`
	Confidence float64 `json:"confidence"`
	Grade      string  `json:"grade"`
}

// FinalizeDetail carries the segment-selection and refined-alignment
// output of the Finalizer.
type FinalizeDetail struct {
	SimilarityAtFinalize float64 `json:"similarityAtFinalize"`
	NormalizationScalar  float64 `json:"normalizationScalar"`
	LoudnessDeviationDB  float64 `json:"loudnessDeviationDb"`
	SegmentStartMs       int64   `json:"segmentStartMs"`
	SegmentDurationMs    int64   `json:"segmentDurationMs"`
}

// EnhancedSummary is the engine's full per-session analysis result (spec
// §6). It is partial (zero-valued, Finalized=false) until
// FinalizeSessionAnalysis has completed at least once.
type EnhancedSummary struct {
	Pitch     PitchSummary    `json:"pitch"`
	Harmonic  HarmonicSummary `json:"harmonic"`
	Cadence   CadenceSummary  `json:"cadence"`
	Finalize  FinalizeDetail  `json:"finalize"`
	Valid     bool            `json:"valid"`
	Finalized bool            `json:"finalized"`
}
