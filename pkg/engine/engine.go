// Package engine is the public surface of the Unified Audio Analysis
// Engine: a multi-session, streaming DSP pipeline that scores live
// microphone audio against a reference animal-call recording.
//
// The engine itself is not a singleton (spec §9): construct as many
// instances as a host needs, one per tenant, CPU shard, or test case.
package engine

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/huntmasteracademy/gamecalls-engine/internal/dsp"
	"github.com/huntmasteracademy/gamecalls-engine/internal/loader"
	"github.com/huntmasteracademy/gamecalls-engine/internal/metrics"
	"github.com/huntmasteracademy/gamecalls-engine/internal/session"
)

// SessionID re-exports the internal session identifier type so callers
// never need to import internal/session directly.
type SessionID = session.ID

// EngineMetrics re-exports the internal metrics readback type so callers
// never need to import internal/metrics directly.
type EngineMetrics = metrics.LiveCounts

// Engine owns a pool of independent sessions and the engine-level,
// read-only DSP components (Hann window, FFT plan, mel filterbank) they
// share (spec §5).
type Engine struct {
	cfg      Config
	registry *session.Registry
	metrics  *metrics.Metrics
}

// New constructs an Engine from DefaultConfig with the given overrides
// applied.
func New(opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.FrameSize <= 0 || cfg.HopSize <= 0 {
		return nil, fmt.Errorf("engine: invalid frame/hop size: %w", errInitFailed)
	}

	met := metrics.NewDefault()

	shared := &session.Shared{
		FrameSize:       cfg.FrameSize,
		HopSize:         cfg.HopSize,
		MFCCCoeffs:      cfg.MFCCCoeffs,
		MelBands:        cfg.MelBands,
		MinFrequency:    cfg.MinFrequency,
		MaxFrequency:    cfg.MaxFrequency,
		MasterCallsPath: cfg.MasterCallsPath,
		VAD:             cfg.VAD,
		DTW:             cfg.DTW,
		Finalize:        cfg.Finalize,
		FFT:             dsp.NewAnalyzer(cfg.FrameSize),
		MFCC:            dsp.NewMFCCExtractor(cfg.FrameSize, cfg.DefaultSampleRate, cfg.MelBands, cfg.MFCCCoeffs, cfg.MinFrequency, cfg.MaxFrequency),
	}

	return &Engine{
		cfg:      cfg,
		registry: session.NewRegistry(shared),
		metrics:  met,
	}, nil
}

// NewWithMeterProvider is like New but wires the engine's metrics into
// the given OpenTelemetry MeterProvider instead of the engine's private
// in-memory provider, for hosts that want gamecalls.* metrics exported.
func NewWithMeterProvider(mp metric.MeterProvider, opts ...Option) (*Engine, error) {
	e, err := New(opts...)
	if err != nil {
		return nil, err
	}
	met, err := metrics.New(mp)
	if err != nil {
		return nil, fmt.Errorf("engine: init metrics: %w", err)
	}
	e.metrics = met
	return e, nil
}

var errInitFailed = fmt.Errorf("init failed")

// CreateSession allocates a new session for sampleRate (spec §4.11).
func (e *Engine) CreateSession(sampleRate int) (SessionID, Status, error) {
	id, err := e.registry.Create(sampleRate)
	if err != nil {
		return 0, StatusInitFailed, fmt.Errorf("engine: create session: %w", err)
	}
	e.metrics.ActiveSessions.Add(context.Background(), 1)
	e.metrics.SessionsCreated.Add(context.Background(), 1)
	log.Printf("[ENGINE] session %d created (sampleRate=%d)", id, sampleRate)
	return id, StatusOK, nil
}

// LoadMaster loads and decodes the master-call recording for a session
// (spec §4.11). callIDOrPath is resolved against Config.MasterCallsPath
// unless it is already a direct path (spec §6).
func (e *Engine) LoadMaster(id SessionID, callIDOrPath string) (Status, error) {
	s, err := e.registry.Get(id)
	if err != nil {
		return StatusSessionNotFound, fmt.Errorf("engine: load master: %w", err)
	}

	path := loader.Resolve(e.cfg.MasterCallsPath, callIDOrPath)
	if err := s.LoadMaster(path); err != nil {
		return StatusProcessingError, fmt.Errorf("engine: load master: %w", err)
	}

	log.Printf("[ENGINE] session %d loaded master %q", id, path)
	return StatusOK, nil
}

// ProcessChunk feeds new PCM samples (in [-1,1]) into a session's
// pipeline (spec §4.11), returning the number of newly complete frames.
func (e *Engine) ProcessChunk(id SessionID, samples []float64) (newFrames int, status Status, err error) {
	start := time.Now()
	defer func() {
		e.metrics.ProcessChunkDur.Record(context.Background(), time.Since(start).Seconds())
	}()

	s, err := e.registry.Get(id)
	if err != nil {
		e.metrics.RecordChunkError(context.Background(), string(StatusSessionNotFound))
		return 0, StatusSessionNotFound, fmt.Errorf("engine: process chunk: %w", err)
	}

	if len(samples) == 0 {
		e.metrics.RecordChunkError(context.Background(), string(StatusInvalidParams))
		return 0, StatusInvalidParams, fmt.Errorf("engine: process chunk: empty sample buffer")
	}

	n, err := s.ProcessChunk(samples)
	if err != nil {
		st := StatusProcessingError
		if err == session.ErrMasterNotLoaded {
			st = StatusInvalidParams
		}
		e.metrics.RecordChunkError(context.Background(), string(st))
		return 0, st, fmt.Errorf("engine: process chunk: %w", err)
	}

	e.metrics.ChunksProcessed.Add(context.Background(), 1)
	return n, StatusOK, nil
}

// GetRealtimeFeedback returns the session's current running score (spec
// §4.11).
func (e *Engine) GetRealtimeFeedback(id SessionID) (RealtimeScore, Status, error) {
	s, err := e.registry.Get(id)
	if err != nil {
		return RealtimeScore{}, StatusSessionNotFound, fmt.Errorf("engine: get realtime feedback: %w", err)
	}

	score, samplesAnalyzed := s.RealtimeScore()
	return RealtimeScore{
		Overall:         score.Overall,
		MFCC:            score.MFCC,
		Volume:          score.Volume,
		Timing:          score.Timing,
		Pitch:           score.Pitch,
		Confidence:      score.Confidence,
		IsReliable:      score.IsReliable,
		IsMatch:         score.Overall > isMatchThreshold,
		SamplesAnalyzed: samplesAnalyzed,
	}, StatusOK, nil
}

// GetEnhancedAnalysisSummary returns the session's latest summary, which
// is partial until FinalizeSessionAnalysis has run (spec §4.11).
func (e *Engine) GetEnhancedAnalysisSummary(id SessionID) (EnhancedSummary, Status, error) {
	s, err := e.registry.Get(id)
	if err != nil {
		return EnhancedSummary{}, StatusSessionNotFound, fmt.Errorf("engine: get enhanced summary: %w", err)
	}
	return toEnhancedSummary(s.EnhancedSummary()), StatusOK, nil
}

// FinalizeSessionAnalysis runs the Finalizer once and returns the graded
// summary (spec §4.11). A second call is idempotent: it returns the same
// summary with status ALREADY_FINALIZED rather than an error.
func (e *Engine) FinalizeSessionAnalysis(id SessionID) (EnhancedSummary, Status, error) {
	s, err := e.registry.Get(id)
	if err != nil {
		return EnhancedSummary{}, StatusSessionNotFound, fmt.Errorf("engine: finalize: %w", err)
	}

	summary, err := s.Finalize()
	switch {
	case err == session.ErrAlreadyFinalized:
		return toEnhancedSummary(summary), StatusAlreadyFinalized, nil
	case err == session.ErrMasterNotLoaded:
		return EnhancedSummary{}, StatusProcessingError, fmt.Errorf("engine: finalize: %w", err)
	case isInsufficientData(err):
		return EnhancedSummary{}, StatusInsufficientData, fmt.Errorf("engine: finalize: %w", err)
	case err != nil:
		return EnhancedSummary{}, StatusProcessingError, fmt.Errorf("engine: finalize: %w", err)
	}

	e.metrics.SessionsFinalized.Add(context.Background(), 1)
	log.Printf("[ENGINE] session %d finalized (valid=%v)", id, summary.Valid)
	return toEnhancedSummary(summary), StatusOK, nil
}

// DestroySession removes a session and releases its buffers (spec
// §4.11).
func (e *Engine) DestroySession(id SessionID) (Status, error) {
	if err := e.registry.Destroy(id); err != nil {
		return StatusSessionNotFound, fmt.Errorf("engine: destroy session: %w", err)
	}
	e.metrics.ActiveSessions.Add(context.Background(), -1)
	e.metrics.SessionsDestroyed.Add(context.Background(), 1)
	log.Printf("[ENGINE] session %d destroyed", id)
	return StatusOK, nil
}

// GetActiveSessions returns a snapshot of every currently registered
// session id (spec §4.11).
func (e *Engine) GetActiveSessions() []SessionID {
	return e.registry.ActiveSessions()
}

// Metrics returns a point-in-time readback of the engine's live counts:
// active sessions, total chunks processed, and total sessions
// created/destroyed/finalized. When the engine was built with
// NewWithMeterProvider against a caller-supplied MeterProvider, the
// readback has no in-process reader to collect through and the zero
// value is returned instead — callers exporting metrics externally read
// them from their own pipeline.
func (e *Engine) Metrics() EngineMetrics {
	return e.metrics.LiveCounts()
}
