package metadata

import (
	"time"
)

type FetchEvent struct {
	sourceUrl   string
	httpStatus  int
	duration    time.Duration
	contentType string
	retryCount  int
	strategy    string
}

/*
runStats
  - Represents a terminal, derived summary of a completed aggregation run
  - Contains only aggregate counts and durations
  - Is computed by the command layer after the run finishes
  - Is recorded exactly once
  - Must not influence extraction, normalization, or delivery
  - Must be constructed without reading metadata
*/
type runStats struct {
	totalVendors   int
	totalErrors    int
	totalIncidents int
	durationMs     int64
}

type ArtifactKind string

const (
	ArtifactSnapshot   ArtifactKind = "snapshot"
	ArtifactDigestText ArtifactKind = "digest_text"
	ArtifactDigestHTML ArtifactKind = "digest_html"
	ArtifactPreview    ArtifactKind = "preview"
	ArtifactCapture    ArtifactKind = "capture"
)

/*
	ErrorCause is a closed, canonical classification used exclusively for
	observability (logging, metrics, reporting).

	Rules:
	 - ErrorCause is for observability only.
	 - It must never be used to derive retry, continuation, or abort decisions.
	 - Any use of metadata.ErrorCause outside logging, metrics, or reporting is a design violation.
	 - ErrorCause MUST NOT influence control flow.
	 - ErrorCause values MUST have stable, package-agnostic semantics.
	 - Pipeline packages MAY map their local errors to ErrorCause,
	   but MUST NOT invent new meanings.
	Non-goals:
	 - ErrorCause does not encode severity.
	 - ErrorCause does not imply retryability.
	 - ErrorCause does not imply run termination.
	 - ErrorCause does not imply correctness of downstream behavior.

If a failure does not clearly match a defined cause, CauseUnknown MUST be used.
*/
type ErrorCause int

/*
Canonical ErrorCause Table

# CauseUnknown

Meaning:
  - The failure does not map cleanly to any known category.
  - Used as a safe fallback.

Examples:
  - Unexpected internal errors
  - Unclassified third-party library failures

# CauseNetworkFailure

Meaning:
  - Failure caused by network transport or remote availability.

Examples:
  - TCP timeouts
  - DNS resolution failures
  - Connection resets
  - Status page returning 5xx

# CauseContentInvalid

Meaning:
  - Content was fetched but could not be processed meaningfully.

Examples:
  - Non-HTML responses from a DOM-scraped source
  - Empty or unextractable page bodies
  - Embedded JSON payload missing from the page source

# CauseParseFailure

Meaning:
  - A fragment was located but its structure could not be decoded.

Examples:
  - Malformed embedded JSON even after repair
  - Timestamps in an unrecognized format
  - Status API responses missing expected fields

# CauseStorageFailure

Meaning:
  - Failure while persisting run artifacts.

Examples:
  - Disk full
  - Write permission errors
  - Filesystem I/O failures

# CauseDeliveryFailure

Meaning:
  - A rendered digest could not be handed to a delivery channel.

Examples:
  - Telegram API rejecting the payload
  - Webhook endpoint unreachable
  - Channel credentials missing or invalid

# CauseInvariantViolation

Meaning:
  - A system-level invariant was violated.

Examples:
  - A vendor record with negative counts
  - A no-incident record carrying incident lines
  - Internal consistency checks failing
*/
const (
	CauseUnknown ErrorCause = iota
	CauseNetworkFailure
	CauseContentInvalid
	CauseParseFailure
	CauseStorageFailure
	CauseDeliveryFailure
	CauseInvariantViolation
)

type ErrorRecord struct {
	packageName string
	action      string
	cause       ErrorCause
	errorString string
	observedAt  time.Time
	attrs       []Attribute
}

type Attribute struct {
	Key   AttributeKey
	Value string
}

func NewAttr(key AttributeKey, val string) Attribute {
	return Attribute{
		Key:   key,
		Value: val,
	}
}

type AttributeKey string

const (
	AttrTime       AttributeKey = "time"
	AttrURL        AttributeKey = "url"
	AttrVendor     AttributeKey = "vendor"
	AttrChannel    AttributeKey = "channel"
	AttrStrategy   AttributeKey = "strategy"
	AttrField      AttributeKey = "field"
	AttrHTTPStatus AttributeKey = "http_status"
	AttrWritePath  AttributeKey = "write_path"
)
