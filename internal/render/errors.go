package render

import (
	"fmt"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

type RenderErrorCause string

const (
	ErrCauseTemplateRead      = "failed to read template"
	ErrCauseConversionFailure = "markup conversion failed"
)

type RenderError struct {
	Message   string
	Retryable bool
	Cause     RenderErrorCause
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render error: %s", e.Cause)
}

func (e *RenderError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *RenderError) IsRetryable() bool {
	return e.Retryable
}

// mapRenderErrorToMetadataCause maps render-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapRenderErrorToMetadataCause(err *RenderError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseTemplateRead:
		return metadata.CauseStorageFailure
	case ErrCauseConversionFailure:
		return metadata.CauseContentInvalid
	default:
		return metadata.CauseUnknown
	}
}
