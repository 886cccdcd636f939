package notify

import (
	"fmt"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

type NotifyErrorCause string

const (
	ErrCauseMissingCredential = "missing channel credential"
	ErrCauseTelegramAPI       = "telegram api rejected the message"
	ErrCauseTeamsWebhook      = "teams webhook rejected the message"
	ErrCauseNetworkFailure    = "network issues"
	ErrCausePreviewWrite      = "failed to write preview artifact"
)

type NotifyError struct {
	Message   string
	Retryable bool
	Cause     NotifyErrorCause
}

func (e *NotifyError) Error() string {
	return fmt.Sprintf("notify error: %s", e.Cause)
}

func (e *NotifyError) Severity() failure.Severity {
	if e.Retryable {
		return failure.SeverityRecoverable
	}
	return failure.SeverityFatal
}

// IsRetryable returns whether this error is retryable
func (e *NotifyError) IsRetryable() bool {
	return e.Retryable
}

// mapNotifyErrorToMetadataCause maps notify-local error semantics
// to the canonical metadata.ErrorCause table.
//
// This mapping is observational only and MUST NOT be used
// to derive control-flow decisions.
func mapNotifyErrorToMetadataCause(err *NotifyError) metadata.ErrorCause {
	switch err.Cause {
	case ErrCauseNetworkFailure:
		return metadata.CauseNetworkFailure
	case ErrCauseTelegramAPI, ErrCauseTeamsWebhook, ErrCauseMissingCredential:
		return metadata.CauseDeliveryFailure
	case ErrCausePreviewWrite:
		return metadata.CauseStorageFailure
	default:
		return metadata.CauseUnknown
	}
}
