package extract

import (
	"time"

	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

// RawVendorFacts is the producer-specific extraction outcome, discarded
// right after normalization. The contract is "whatever the extractor
// understood": lines are human-readable but not yet deduplicated or
// classified.
type RawVendorFacts struct {
	Name           string
	Banner         string
	ComponentLines []string
	IncidentLines  []string
	// OverallOk is nil when extraction could not judge vendor health.
	OverallOk *bool
}

// Source is one vendor's extraction strategy. Implementations are the
// tagged variants of the strategy set: DOM scrape, history scrape, portal
// scrape, embedded JSON, Statuspage API.
//
// Extract never aborts a run: a broken page degrades to empty facts plus a
// classified error the caller records and moves past.
type Source interface {
	Strategy() string
	Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError)
}

// todayHeaderStrings renders today's UTC date the way Statuspage day
// headers do, with and without a leading zero on the day.
func todayHeaderStrings(now time.Time) []string {
	withZero := now.UTC().Format("Jan 02, 2006")
	noZero := now.UTC().Format("Jan 2, 2006")
	if withZero == noZero {
		return []string{withZero}
	}
	return []string{withZero, noZero}
}

func boolPtr(v bool) *bool {
	return &v
}
