package engine

import (
	"errors"

	"github.com/huntmasteracademy/gamecalls-engine/internal/finalize"
)

func toEnhancedSummary(s finalize.Summary) EnhancedSummary {
	return EnhancedSummary{
		Pitch: PitchSummary{
			PitchHz:    s.Pitch.PitchHz,
			Confidence: s.Pitch.Confidence,
			Grade:      s.Pitch.Grade,
		},
		Harmonic: HarmonicSummary{
			Fundamental: s.Harmonic.Fundamental,
			Confidence:  s.Harmonic.Confidence,
			Grade:       s.Harmonic.Grade,
		},
		Cadence: CadenceSummary{
			TempoBPM:   s.Cadence.TempoBPM,
			Confidence: s.Cadence.Confidence,
			Grade:      s.Cadence.Grade,
		},
		Finalize: FinalizeDetail{
			SimilarityAtFinalize: s.Finalize.SimilarityAtFinalize,
			NormalizationScalar:  s.Finalize.NormalizationScalar,
			LoudnessDeviationDB:  s.Finalize.LoudnessDeviationDB,
			SegmentStartMs:       s.Finalize.SegmentStartMs,
			SegmentDurationMs:    s.Finalize.SegmentDurationMs,
		},
		Valid:     s.Valid,
		Finalized: s.Finalized,
	}
}

func isInsufficientData(err error) bool {
	var insufficient finalize.ErrInsufficientData
	return errors.As(err, &insufficient)
}
