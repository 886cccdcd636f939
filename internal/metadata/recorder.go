package metadata

import (
	"log/slog"
	"time"
)

/*
Metadata Collected
- Fetch timestamps
- HTTP status codes
- Extraction strategies used per vendor
- Artifact paths

Logging Goals
- Debuggable run behavior
- Post-run auditability
- Failure diagnostics

Structured logging is preferred.

Allowed:
- Primitive values
- Timestamps
- URLs (as values, not objects with behavior)
- Hashes
- Status codes
- Durations
- Identifiers (vendor slug, run ID)

Determinism guarantees:
 - Metadata does not affect control flow
 - Errors do not reorder the vendor list
 - Jitter is seed-controlled
 - Output is stable given identical inputs

Metadata is write-only.
No component may read metadata to influence run decisions.
*/

/*
Recorder captures structured run events and emits them through slog.
It must not:
- perform I/O decisions
- affect control flow
Ordering guarantees:
- Events are recorded synchronously in the order they are received.
- Ordering is provided for debuggability, not causality.
*/
type Recorder struct {
	runId  string
	logger *slog.Logger
}

func NewRecorder(runId string, logger *slog.Logger) Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return Recorder{
		runId:  runId,
		logger: logger,
	}
}

func (r *Recorder) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {
	logAttrs := []any{
		slog.String("run_id", r.runId),
		slog.String("package", packageName),
		slog.String("action", action),
		slog.Int("cause", int(cause)),
		slog.String("error", errorString),
		slog.Time("observed_at", observedAt),
	}
	for _, a := range attrs {
		logAttrs = append(logAttrs, slog.String(string(a.Key), a.Value))
	}
	r.logger.Error("pipeline error", logAttrs...)
}

func (r *Recorder) RecordFetch(
	sourceUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	strategy string,
) {
	r.logger.Info("fetch",
		slog.String("run_id", r.runId),
		slog.String("url", sourceUrl),
		slog.Int("http_status", httpStatus),
		slog.Duration("duration", duration),
		slog.String("content_type", contentType),
		slog.Int("retry_count", retryCount),
		slog.String("strategy", strategy),
	)
}

func (r *Recorder) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {
	logAttrs := []any{
		slog.String("run_id", r.runId),
		slog.String("kind", string(kind)),
		slog.String("path", path),
	}
	for _, a := range attrs {
		logAttrs = append(logAttrs, slog.String(string(a.Key), a.Value))
	}
	r.logger.Info("artifact", logAttrs...)
}

/*
RecordFinalRunStats records a terminal, derived summary of a completed run.

Contract:
  - MUST be called exactly once per run.
  - MUST be called only after the run finishes
    (all vendors processed or the command aborted).
  - MUST NOT be called during active collection.
  - The provided stats MUST be derived from command-layer state,
    not accumulated incrementally via the recorder.
  - Recorded stats MUST NOT influence control flow.
*/
func (r *Recorder) RecordFinalRunStats(
	totalVendors int,
	totalErrors int,
	totalIncidents int,
	duration time.Duration,
) {
	stats := runStats{
		totalVendors:   totalVendors,
		totalErrors:    totalErrors,
		totalIncidents: totalIncidents,
		durationMs:     duration.Milliseconds(),
	}

	r.logger.Info("run complete",
		slog.String("run_id", r.runId),
		slog.Int("total_vendors", stats.totalVendors),
		slog.Int("total_errors", stats.totalErrors),
		slog.Int("total_incidents", stats.totalIncidents),
		slog.Int64("duration_ms", stats.durationMs),
	)
}

type MetadataSink interface {
	RecordError(
		observedAt time.Time,
		packageName string,
		action string,
		cause ErrorCause,
		details string,
		attrs []Attribute,
	)

	RecordFetch(
		sourceUrl string,
		httpStatus int,
		duration time.Duration,
		contentType string,
		retryCount int,
		strategy string,
	)
	RecordArtifact(kind ArtifactKind, path string, attrs []Attribute)
}

type RunFinalizer interface {
	RecordFinalRunStats(
		totalVendors int,
		totalErrors int,
		totalIncidents int,
		duration time.Duration,
	)
}

// NoopSink, struct that implements metadata.MetadataSink but does nothing
// Commands (or Test) can decide whether to inject Recorder or NoopSink
// Purpose is to make metadata orthogonal

type NoopSink struct{}

func (n *NoopSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause ErrorCause,
	errorString string,
	attrs []Attribute,
) {

}

func (n *NoopSink) RecordFetch(
	sourceUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
	strategy string,
) {
}

func (n *NoopSink) RecordArtifact(kind ArtifactKind, path string, attrs []Attribute) {}
