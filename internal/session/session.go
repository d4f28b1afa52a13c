// Package session implements SessionState (spec §3): the per-session
// pipeline wiring of every internal/dsp stage plus the incremental DTW
// scorer and the Finalizer, guarded by one coarse lock per session.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/huntmasteracademy/gamecalls-engine/internal/dsp"
	"github.com/huntmasteracademy/gamecalls-engine/internal/dtw"
	"github.com/huntmasteracademy/gamecalls-engine/internal/finalize"
	"github.com/huntmasteracademy/gamecalls-engine/internal/loader"
)

// ID is the opaque, engine-unique session identifier (spec §3: "opaque
// 32-bit unsigned identifier").
type ID uint32

// Shared engine parameters and lock-free, read-only components every
// session is built from (spec §5: "Shared resources... engine-level,
// read-only after construction").
type Shared struct {
	FrameSize    int
	HopSize      int
	MFCCCoeffs   int
	MelBands     int
	MinFrequency float64
	MaxFrequency float64

	MasterCallsPath string

	VAD      dsp.VADConfig
	DTW      dtw.Config
	Finalize finalize.Config

	FFT  *dsp.Analyzer
	MFCC *dsp.MFCCExtractor
}

const loudnessEMAAlpha = 0.3

// debugAsserts gates internal invariant checks that should never fire in
// a correct build (spec §7: "internal invariant violations ... should
// abort in debug builds"). Flip to true when chasing a row-count
// mismatch between userFeatures and the DTW scorer's own frame count;
// leave false in production builds, where the cost of a wrong panic
// outweighs catching a bug that unit tests should already have caught.
const debugAsserts = false

var (
	// ErrMasterNotLoaded is returned by operations that require a loaded
	// master call before the session has one.
	ErrMasterNotLoaded = errors.New("session: master call not loaded")
	// ErrFinalized is returned by processChunk once the session has been
	// finalized (spec §3 invariant: "Once finalized=true, further audio
	// chunks are rejected").
	ErrFinalized = errors.New("session: already finalized, no further chunks accepted")
	// ErrAlreadyFinalized signals the idempotent second-finalize path; the
	// caller (pkg/engine) maps this to status ALREADY_FINALIZED and
	// returns the cached summary rather than an error to the caller.
	ErrAlreadyFinalized = errors.New("session: finalize already completed")
)

// Session is one self-contained analysis run: one master, one growing
// user stream, one set of running scores. All mutable state is guarded
// by mu; per-session operations never call into the registry while
// holding it (spec §5).
type Session struct {
	id        ID
	shared    *Shared
	createdAt time.Time

	mu sync.Mutex

	sampleRate int

	masterLoaded      bool
	masterFeatures    [][]float64
	masterLoudnessRMS float64
	masterPitchTrail  []float64

	frames    *dsp.FrameStream
	level     *dsp.LevelDetector
	vad       *dsp.VAD
	pitch     *dsp.PitchTracker
	harmonic  *dsp.HarmonicAnalyzer
	cadence   *dsp.CadenceAnalyzer
	scorer    *dtw.Scorer

	userFeatures    [][]float64
	pitchHzTrail    []float64
	pitchConfTrail  []float64
	harmonicRatio   []float64
	rmsTrail        []float64

	samplesAnalyzed uint64

	finalized bool
	summary   finalize.Summary
}

// New creates a session for the given sample rate, wired from the
// engine's shared read-only components. The caller (registry) validates
// the sample rate bound before calling New.
func New(id ID, sampleRate int, shared *Shared) *Session {
	return &Session{
		id:         id,
		shared:     shared,
		createdAt:  time.Now(),
		sampleRate: sampleRate,
		frames:     dsp.NewFrameStream(shared.FrameSize, shared.HopSize),
		level:      dsp.NewLevelDetector(loudnessEMAAlpha),
		vad:        dsp.NewVAD(shared.VAD),
		pitch:      dsp.NewPitchTracker(sampleRate),
		harmonic:   dsp.NewHarmonicAnalyzer(sampleRate, shared.FrameSize),
		cadence:    dsp.NewCadenceAnalyzer(sampleRate, shared.HopSize),
	}
}

// ID returns the session's identifier.
func (s *Session) ID() ID { return s.id }

// CreatedAt returns the session's creation time.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// LoadMaster decodes the master-call WAV at path, extracts its MFCC
// feature matrix and loudness reference, and installs an incremental DTW
// scorer against it. It performs file I/O before acquiring the session
// lock, per spec §5 ("master-call loading is performed before the lock is
// acquired for installation into the session").
func (s *Session) LoadMaster(path string) error {
	master, err := loader.LoadAndValidate(path, s.sampleRate)
	if err != nil {
		return fmt.Errorf("session: load master: %w", err)
	}

	features, loudnessRMS, pitchTrail := s.extractMaster(master.Samples)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.masterFeatures = features
	s.masterLoudnessRMS = loudnessRMS
	s.masterPitchTrail = pitchTrail
	s.masterLoaded = true
	s.scorer = dtw.NewScorer(s.shared.DTW, features, dsp.DBFS(loudnessRMS))

	return nil
}

// extractMaster runs the master samples through a throwaway copy of the
// frame/FFT/MFCC/level/pitch pipeline. It uses its own FrameStream and
// detector instances (not the session's) since the master is processed
// once, in full, independent of the session's streaming user-chunk state.
func (s *Session) extractMaster(samples []float64) (features [][]float64, loudnessRMS float64, pitchTrail []float64) {
	frames := dsp.NewFrameStream(s.shared.FrameSize, s.shared.HopSize)
	level := dsp.NewLevelDetector(loudnessEMAAlpha)
	pitchTracker := dsp.NewPitchTracker(s.sampleRate)

	allFrames := frames.Submit(samples)

	var rmsSum float64
	for _, frame := range allFrames {
		spectrum := s.shared.FFT.Magnitude(frame)
		features = append(features, s.shared.MFCC.Compute(spectrum))

		lvl := level.Process(frame)
		rmsSum += lvl.RMS

		pf := pitchTracker.Process(frame)
		pitchTrail = append(pitchTrail, pf.PitchHz)
	}

	if len(allFrames) > 0 {
		loudnessRMS = rmsSum / float64(len(allFrames))
	}
	return features, loudnessRMS, pitchTrail
}

// ProcessChunk feeds new PCM samples through the per-frame pipeline,
// extending userFeatures and every per-frame trail, and folds each new
// MFCC row into the running DTW score. It returns the number of newly
// complete frames.
func (s *Session) ProcessChunk(samples []float64) (newFrames int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return 0, ErrFinalized
	}
	if !s.masterLoaded {
		return 0, ErrMasterNotLoaded
	}

	frames := s.frames.Submit(samples)
	for _, frame := range frames {
		spectrum := s.shared.FFT.Magnitude(frame)
		mfcc := s.shared.MFCC.Compute(spectrum)
		s.userFeatures = append(s.userFeatures, mfcc)

		lvl := s.level.Process(frame)
		s.rmsTrail = append(s.rmsTrail, lvl.RMS)

		pf := s.pitch.Process(frame)
		s.pitchHzTrail = append(s.pitchHzTrail, pf.PitchHz)
		s.pitchConfTrail = append(s.pitchConfTrail, pf.Confidence)

		hf := s.harmonic.Process(spectrum, pf.PitchHz)
		s.harmonicRatio = append(s.harmonicRatio, hf.HarmonicRatio)

		s.vad.Process(frame, lvl.RMS, hf.Centroid)
		s.cadence.Process(spectrum)

		s.scorer.AddUserFrame(mfcc, dsp.DBFS(lvl.RMS), s.vad.EverVoiced())

		if debugAsserts && len(s.userFeatures) != s.scorer.UserFrames() {
			panic(fmt.Sprintf("session: userFeatures/scorer row-count invariant violated: len(userFeatures)=%d scorer.UserFrames()=%d", len(s.userFeatures), s.scorer.UserFrames()))
		}
	}

	s.samplesAnalyzed += uint64(len(samples))
	return len(frames), nil
}

// RealtimeScore returns the latest running DTW score (including the
// scorer's reliability gate) without advancing the grid, plus the
// session-owned count of samples analyzed.
func (s *Session) RealtimeScore() (dtw.Score, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scorer == nil {
		return dtw.Score{}, s.samplesAnalyzed
	}
	return s.scorer.LatestScore(), s.samplesAnalyzed
}

// Finalize runs the Finalizer over the accumulated user signals. A
// second call returns ErrAlreadyFinalized with the cached summary
// unchanged (spec §4.10 step 5: idempotent).
func (s *Session) Finalize() (finalize.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finalized {
		return s.summary, ErrAlreadyFinalized
	}
	if !s.masterLoaded {
		return finalize.Summary{}, ErrMasterNotLoaded
	}

	f := finalize.New(s.shared.Finalize)
	master := finalize.MasterContext{
		Features:    s.masterFeatures,
		LoudnessRMS: s.masterLoudnessRMS,
		PitchTrail:  s.masterPitchTrail,
	}
	user := finalize.UserContext{
		Features:        s.userFeatures,
		PitchHz:         s.pitchHzTrail,
		PitchConfidence: s.pitchConfTrail,
		HarmonicRatio:   s.harmonicRatio,
		RMS:             s.rmsTrail,
		OnsetEnvelope:   s.cadence.OnsetEnvelope(),
		HopSize:         s.shared.HopSize,
		SampleRate:      s.sampleRate,
	}

	summary, err := f.Finalize(master, user)
	if err != nil {
		return finalize.Summary{}, err
	}

	s.summary = summary
	s.finalized = true
	return summary, nil
}

// EnhancedSummary returns the latest summary, which is partial (Valid and
// Finalized both false, zero values otherwise) until Finalize has run.
func (s *Session) EnhancedSummary() finalize.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.summary
}

// Finalized reports whether Finalize has completed for this session.
func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// UserFrameCount returns the number of user MFCC rows accumulated so far.
func (s *Session) UserFrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.userFeatures)
}
