package record

import (
	"time"
)

// NoIncidentLine is the literal singleton meaning "zero incidents today".
// An incident-lines slice containing exactly this string is the canonical
// way to report an incident-free day; an empty slice is also valid and
// means "nothing to report".
const NoIncidentLine = "No incidents reported today."

// AllOperationalLine is the component-status counterpart of NoIncidentLine.
const AllOperationalLine = "All components Operational"

// MaxIncidentLines bounds stored incident lines per vendor so a runaway
// source feed cannot grow a snapshot without limit.
const MaxIncidentLines = 200

// OverallState is a three-valued health verdict for one vendor.
type OverallState string

const (
	OverallOk      OverallState = "ok"
	OverallDown    OverallState = "down"
	OverallUnknown OverallState = "unknown"
)

/*
CanonicalVendorRecord is the stable unit flowing through the system: one
vendor's status for one run, normalized from whatever the extractor
understood.

Invariants:
  - IncidentLines never contains duplicate normalized
    (whitespace-collapsed, case-insensitive) entries.
  - If Overall == OverallOk then IncidentLines is the no-incident singleton
    and ComponentLines is empty or the all-operational singleton.
  - Timestamp is always UTC; display-timezone conversion is the renderer's
    problem.

A record is superseded wholesale on the next run, never updated in place.
*/
type CanonicalVendorRecord struct {
	Vendor         string       `json:"vendor"`
	Timestamp      time.Time    `json:"timestamp"`
	Banner         string       `json:"banner,omitempty"`
	ComponentLines []string     `json:"component_lines"`
	IncidentLines  []string     `json:"incident_lines"`
	Overall        OverallState `json:"overall"`
	Sources        []string     `json:"sources"`
	TextBlock      string       `json:"text_block,omitempty"`
	CollectError   string       `json:"collect_error,omitempty"`
	Counts         Counts       `json:"counts"`
}

// Counts holds the per-vendor incident tallies the aggregator sums.
// Each field is computed locally by the normalizer; the aggregator never
// re-classifies text.
type Counts struct {
	NewToday         int `json:"new_today"`
	Active           int `json:"active"`
	ResolvedToday    int `json:"resolved_today"`
	MaintenanceToday int `json:"maintenance_today"`
}

// Skeleton returns the empty fallback record for a vendor whose every data
// source failed: unknown health, static sources only.
func Skeleton(vendor string, timestamp time.Time, sources []string) CanonicalVendorRecord {
	return CanonicalVendorRecord{
		Vendor:         vendor,
		Timestamp:      timestamp,
		ComponentLines: []string{},
		IncidentLines:  []string{},
		Overall:        OverallUnknown,
		Sources:        append([]string{}, sources...),
	}
}

// HasIncidents reports whether the record carries real incident lines,
// treating the no-incident singleton as zero incidents.
func (r CanonicalVendorRecord) HasIncidents() bool {
	if len(r.IncidentLines) == 0 {
		return false
	}
	if len(r.IncidentLines) == 1 && r.IncidentLines[0] == NoIncidentLine {
		return false
	}
	return true
}
