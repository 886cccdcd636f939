package capture

import (
	"fmt"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

type CaptureErrorCause string

const (
	ErrCauseOpenFile  = "failed to open capture file"
	ErrCauseWriteFile = "failed to write capture entry"
	ErrCauseEnsureDir = "failed to create capture directory"
)

type CaptureError struct {
	Message   string
	Retryable bool
	Cause     CaptureErrorCause
}

func (e *CaptureError) Error() string {
	return fmt.Sprintf("capture error: %s", e.Cause)
}

func (e *CaptureError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *CaptureError) IsRetryable() bool {
	return e.Retryable
}

// mapCaptureErrorToMetadataCause maps capture-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapCaptureErrorToMetadataCause(err *CaptureError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseOpenFile, ErrCauseWriteFile, ErrCauseEnsureDir:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
