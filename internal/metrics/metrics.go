// Package metrics provides OpenTelemetry instrumentation for the engine:
// a chunk counter, a processChunk latency histogram, and session-lifecycle
// counters. No exporter is wired here — callers that want metrics shipped
// off-process configure their own metric.MeterProvider and pass it to New.
// NewDefault instead builds its own in-memory sdk/metric MeterProvider
// backed by a ManualReader, so the engine can read its own counts back
// (LiveCounts) without standing up an export pipeline.
package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// meterName is the instrumentation scope name for all engine metrics.
const meterName = "github.com/huntmasteracademy/gamecalls-engine"

// latencyBuckets defines histogram bucket boundaries (seconds) sized for
// sub-frame processChunk calls.
var latencyBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

const (
	nameChunksProcessed   = "gamecalls.chunks_processed"
	nameChunkErrors       = "gamecalls.chunk_errors"
	nameProcessChunkDur   = "gamecalls.process_chunk.duration"
	nameActiveSessions    = "gamecalls.active_sessions"
	nameSessionsCreated   = "gamecalls.sessions_created"
	nameSessionsDestroyed = "gamecalls.sessions_destroyed"
	nameSessionsFinalized = "gamecalls.sessions_finalized"
)

// Metrics holds the engine's OpenTelemetry instruments. All fields are
// safe for concurrent use.
type Metrics struct {
	ChunksProcessed   metric.Int64Counter
	ChunkErrors       metric.Int64Counter
	ProcessChunkDur   metric.Float64Histogram
	ActiveSessions    metric.Int64UpDownCounter
	SessionsCreated   metric.Int64Counter
	SessionsDestroyed metric.Int64Counter
	SessionsFinalized metric.Int64Counter

	// reader is non-nil only when NewDefault built its own in-memory SDK
	// provider; Metrics built via New(mp) against a caller-supplied
	// provider have no way to read their own instruments back, so
	// LiveCounts reports the zero value for them.
	reader *sdkmetric.ManualReader
}

// New creates a fully initialized Metrics using the given MeterProvider.
func New(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ChunksProcessed, err = m.Int64Counter(nameChunksProcessed,
		metric.WithDescription("Total audio chunks accepted by processChunk."),
	); err != nil {
		return nil, err
	}
	if met.ChunkErrors, err = m.Int64Counter(nameChunkErrors,
		metric.WithDescription("Total processChunk calls that returned a non-OK status, by status."),
	); err != nil {
		return nil, err
	}
	if met.ProcessChunkDur, err = m.Float64Histogram(nameProcessChunkDur,
		metric.WithDescription("Latency of a single processChunk call."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter(nameActiveSessions,
		metric.WithDescription("Number of live sessions held by the registry."),
	); err != nil {
		return nil, err
	}
	if met.SessionsCreated, err = m.Int64Counter(nameSessionsCreated,
		metric.WithDescription("Total sessions ever created."),
	); err != nil {
		return nil, err
	}
	if met.SessionsDestroyed, err = m.Int64Counter(nameSessionsDestroyed,
		metric.WithDescription("Total sessions ever destroyed."),
	); err != nil {
		return nil, err
	}
	if met.SessionsFinalized, err = m.Int64Counter(nameSessionsFinalized,
		metric.WithDescription("Total sessions that completed finalizeSessionAnalysis."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// NewDefault creates a Metrics backed by a private sdk/metric
// MeterProvider reading through a ManualReader, so LiveCounts can report
// back without any exporter or collection interval.
func NewDefault() *Metrics {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	met, err := New(provider)
	if err != nil {
		// A freshly constructed SDK provider never fails instrument creation.
		panic("metrics: failed to create default instruments: " + err.Error())
	}
	met.reader = reader
	return met
}

// RecordChunkError records a processChunk call that returned a non-OK
// status, tagged by that status's name.
func (m *Metrics) RecordChunkError(ctx context.Context, status string) {
	m.ChunkErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

// LiveCounts is a point-in-time readback of the engine's session-lifecycle
// counters (spec's "Metrics accessor ... exposing live counts").
type LiveCounts struct {
	ActiveSessions    int64
	ChunksProcessed   int64
	SessionsCreated   int64
	SessionsDestroyed int64
	SessionsFinalized int64
}

// LiveCounts collects the current value of every session-lifecycle
// instrument via the ManualReader. It returns the zero value when m was
// built against a caller-supplied MeterProvider (New, not NewDefault),
// since there is then no reader to collect through.
func (m *Metrics) LiveCounts() LiveCounts {
	if m.reader == nil {
		return LiveCounts{}
	}

	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(context.Background(), &rm); err != nil {
		return LiveCounts{}
	}

	var counts LiveCounts
	for _, sm := range rm.ScopeMetrics {
		for _, dp := range sm.Metrics {
			switch dp.Name {
			case nameActiveSessions:
				counts.ActiveSessions = sumInt64(dp.Data)
			case nameChunksProcessed:
				counts.ChunksProcessed = sumInt64(dp.Data)
			case nameSessionsCreated:
				counts.SessionsCreated = sumInt64(dp.Data)
			case nameSessionsDestroyed:
				counts.SessionsDestroyed = sumInt64(dp.Data)
			case nameSessionsFinalized:
				counts.SessionsFinalized = sumInt64(dp.Data)
			}
		}
	}
	return counts
}

// sumInt64 extracts the latest cumulative value of an Int64 sum-typed
// instrument (Counter or UpDownCounter), summing across data points in
// the unlikely case attribute sets fragmented the series.
func sumInt64(data metricdata.Aggregation) int64 {
	sum, ok := data.(metricdata.Sum[int64])
	if !ok {
		return 0
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}
