package normalizer

import (
	"strings"
	"time"

	"github.com/rohmanhakim/status-digest/internal/classify"
	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
)

/*
Responsibilities

- Reduce whatever a vendor run produced to one CanonicalVendorRecord
- Apply the source-of-truth precedence: capture transcript, native
  export, legacy collector shape, empty skeleton
- Dedup, cap and reclassify lines; compute per-vendor counts

Normalization is pure: it never fetches, never writes, and signals
"nothing usable" with the unknown-health skeleton instead of an error.
*/

// Input carries every data source one vendor run may have produced.
// The first non-empty source in precedence order wins.
type Input struct {
	// CaptureText is the preferred-channel capture transcript, already
	// joined by capture.PreferredText. Empty when no capture exists.
	CaptureText string

	// Native is a vendor export that already matches the canonical
	// schema. Only missing fields are defaulted.
	Native *record.CanonicalVendorRecord

	// Legacy is the collector-shaped output of an extractor.
	Legacy *extract.RawVendorFacts

	// CollectError, when set, is surfaced verbatim on the record so the
	// digest can render the failure instead of omitting the vendor.
	CollectError string
}

// Normalize builds the canonical record for one vendor from the highest-
// precedence available source.
func Normalize(rc runctx.RunContext, v vendors.Vendor, in Input) record.CanonicalVendorRecord {
	var out record.CanonicalVendorRecord
	switch {
	case strings.TrimSpace(in.CaptureText) != "":
		out = fromCapture(rc, v, in.CaptureText)
	case in.Native != nil:
		out = fromNative(rc, v, *in.Native)
	case in.Legacy != nil:
		out = fromLegacy(rc, v, *in.Legacy)
	default:
		out = record.Skeleton(v.Slug, rc.Now, v.Sources)
	}

	out.CollectError = in.CollectError
	return finalize(out)
}

// fromCapture treats a prior chat transmission as the source of truth:
// HTML-clean it, dedup repeated blocks and lines, then recover the
// component and incident sections from the message structure.
func fromCapture(rc runctx.RunContext, v vendors.Vendor, captureText string) record.CanonicalVendorRecord {
	clean := textnorm.HTMLToText(captureText)
	clean = textnorm.DedupBlocks(clean)
	lines := textnorm.DedupLines(strings.Split(clean, "\n"))

	banner, comp, inc := splitSections(lines)

	return record.CanonicalVendorRecord{
		Vendor:         v.Slug,
		Timestamp:      rc.Now,
		Banner:         banner,
		ComponentLines: comp,
		IncidentLines:  inc,
		Overall:        deriveOverall(banner, comp, inc),
		Sources:        append([]string{}, v.Sources...),
		TextBlock:      strings.Join(lines, "\n"),
	}
}

// fromNative passes an already-canonical export through, defaulting only
// what is missing.
func fromNative(rc runctx.RunContext, v vendors.Vendor, native record.CanonicalVendorRecord) record.CanonicalVendorRecord {
	out := native
	if out.Vendor == "" {
		out.Vendor = v.Slug
	}
	if out.Timestamp.IsZero() {
		out.Timestamp = rc.Now
	}
	if out.ComponentLines == nil {
		out.ComponentLines = []string{}
	}
	if out.IncidentLines == nil {
		out.IncidentLines = []string{}
	}
	if len(out.Sources) == 0 {
		out.Sources = append([]string{}, v.Sources...)
	}
	if out.Overall == "" {
		out.Overall = deriveOverall(out.Banner, out.ComponentLines, out.IncidentLines)
	}
	return out
}

// fromLegacy reclassifies a collector-shaped result through the status
// classifier after dedup.
func fromLegacy(rc runctx.RunContext, v vendors.Vendor, facts extract.RawVendorFacts) record.CanonicalVendorRecord {
	comp := textnorm.DedupLines(cleanLines(facts.ComponentLines))
	inc := textnorm.DedupLines(cleanLines(facts.IncidentLines))

	overall := record.OverallUnknown
	if facts.OverallOk != nil {
		if *facts.OverallOk {
			overall = record.OverallOk
		} else {
			overall = record.OverallDown
		}
	} else {
		overall = deriveOverall(facts.Banner, comp, inc)
	}

	return record.CanonicalVendorRecord{
		Vendor:         v.Slug,
		Timestamp:      rc.Now,
		Banner:         strings.TrimSpace(textnorm.HTMLToText(facts.Banner)),
		ComponentLines: comp,
		IncidentLines:  inc,
		Overall:        overall,
		Sources:        append([]string{}, v.Sources...),
	}
}

// finalize applies the invariants every record must satisfy regardless of
// which source produced it.
func finalize(out record.CanonicalVendorRecord) record.CanonicalVendorRecord {
	if out.ComponentLines == nil {
		out.ComponentLines = []string{}
	}
	if out.IncidentLines == nil {
		out.IncidentLines = []string{}
	}

	if len(out.IncidentLines) > record.MaxIncidentLines {
		out.IncidentLines = out.IncidentLines[:record.MaxIncidentLines]
	}

	// An ok vendor always carries the no-incident singleton, never a
	// pile of boilerplate variants.
	if out.Overall == record.OverallOk {
		out.IncidentLines = []string{record.NoIncidentLine}
		if len(out.ComponentLines) > 1 {
			out.ComponentLines = []string{record.AllOperationalLine}
		}
	}

	out.Counts = computeCounts(out.IncidentLines, out.Timestamp)
	return out
}

// computeCounts tallies the per-vendor metrics the aggregator sums.
// "Inicio:"/"Fin:" date markers come from history-style entries; plain
// resolved lines only count as resolved-today when today's date appears
// in the line. The block-level no-incident override comes from the
// classifier: boilerplate plus loose status words never counts as an
// incident.
func computeCounts(incidentLines []string, now time.Time) record.Counts {
	today := now.UTC().Format("2006-01-02")
	block := classify.CountBlock(incidentLines)

	var counts record.Counts
	for _, line := range incidentLines {
		if classify.IsNoIncidentLine(line) {
			continue
		}
		lower := strings.ToLower(line)
		hasToday := strings.Contains(line, today)

		if classify.IsActive(line) && !classify.IsResolved(line) {
			counts.Active++
		}
		if strings.Contains(lower, "inicio:") && hasToday && !classify.IsResolved(line) {
			counts.NewToday++
		}
		if (strings.Contains(lower, "fin:") && hasToday) ||
			(classify.IsResolved(line) && hasToday) {
			counts.ResolvedToday++
		}
		if classify.IsMaintenance(line) && hasToday {
			counts.MaintenanceToday++
		}
	}

	if block.NoIncident && block.Active == 0 {
		counts.Active = 0
		counts.ResolvedToday = 0
		counts.NewToday = 0
	}
	return counts
}

var sectionHeaders = []string{
	"component status",
	"incidents today",
	"incidentes activos",
	"incidentes últimos",
	"histórico",
}

func isSectionHeader(line string) (string, bool) {
	lower := strings.ToLower(strings.TrimSpace(line))
	for _, h := range sectionHeaders {
		if strings.HasPrefix(lower, h) {
			return h, true
		}
	}
	return "", false
}

// splitSections recovers the banner, component and incident sections from
// a rendered vendor message. Everything under a component header belongs
// to components; everything under any incident-flavored header belongs to
// incidents; a "System status:" line anywhere is the banner.
func splitSections(lines []string) (banner string, comp []string, inc []string) {
	const (
		stateNone = iota
		stateComp
		stateInc
	)
	state := stateNone

	comp = []string{}
	inc = []string{}
	for _, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "System status:") && banner == "" {
			banner = line
			continue
		}
		if header, ok := isSectionHeader(line); ok {
			if header == "component status" {
				state = stateComp
			} else {
				state = stateInc
			}
			continue
		}
		switch state {
		case stateComp:
			comp = append(comp, strings.TrimPrefix(line, "- "))
		case stateInc:
			inc = append(inc, strings.TrimPrefix(line, "- "))
		}
	}
	return banner, comp, inc
}

// deriveOverall infers the three-valued health verdict when no source
// stated one explicitly.
func deriveOverall(banner string, comp []string, inc []string) record.OverallState {
	for _, line := range inc {
		if classify.IsActive(line) {
			return record.OverallDown
		}
	}

	incidentFree := len(inc) == 0
	if !incidentFree {
		incidentFree = true
		for _, line := range inc {
			if !classify.IsNoIncidentLine(line) {
				incidentFree = false
				break
			}
		}
	}
	if !incidentFree {
		return record.OverallUnknown
	}

	if classify.IsNoIncidentLine(banner) {
		return record.OverallOk
	}
	for _, line := range comp {
		if strings.EqualFold(line, record.AllOperationalLine) ||
			classify.IsNoIncidentLine(line) {
			return record.OverallOk
		}
	}
	if len(comp) == 0 && len(inc) > 0 {
		// Nothing but no-incident boilerplate: treat as healthy.
		return record.OverallOk
	}
	return record.OverallUnknown
}

func cleanLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned := strings.TrimSpace(textnorm.HTMLToText(line))
		if cleaned != "" {
			out = append(out, cleaned)
		} else if line == "" && len(out) > 0 {
			// Keep interior blank lines as section separators.
			out = append(out, "")
		}
	}
	return out
}
