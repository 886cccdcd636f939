package extract

import (
	"fmt"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

type ExtractionErrorCause string

const (
	ErrCauseNotHTML      ExtractionErrorCause = "not html"
	ErrCauseNoContent    ExtractionErrorCause = "no content"
	ErrCauseArrayMissing ExtractionErrorCause = "array missing"
	ErrCauseBadJSON      ExtractionErrorCause = "bad json"
	ErrCauseHTTPFailure  ExtractionErrorCause = "http failure"
)

type ExtractionError struct {
	Message   string
	Retryable bool
	Cause     ExtractionErrorCause
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extraction error: %s", e.Cause)
}

func (e *ExtractionError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// mapExtractionErrorToMetadataCause maps extractor-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapExtractionErrorToMetadataCause(err *ExtractionError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNotHTML, ErrCauseNoContent:
		return metadata.CauseContentInvalid
	case ErrCauseArrayMissing, ErrCauseBadJSON:
		return metadata.CauseParseFailure
	case ErrCauseHTTPFailure:
		return metadata.CauseNetworkFailure
	default:
		return metadata.CauseUnknown
	}
}
