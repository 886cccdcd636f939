package classify

import (
	"regexp"
	"strings"
)

/*
Responsibilities
- Classify a free-text line as active / resolved / maintenance / none
- Detect "no incidents" boilerplate in English and Spanish
- Count statuses across a block with the no-incident override rule

All functions are pure and case-insensitive.
*/

// Classification labels one line. Resolved and maintenance are independent
// boolean matches at the line level; Classify reports the dominant label
// with active taking precedence.
type Classification string

const (
	Active      Classification = "active"
	Resolved    Classification = "resolved"
	Maintenance Classification = "maintenance"
	None        Classification = "none"
)

var (
	noIncidentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)no incidents? reported( today)?`),
		regexp.MustCompile(`(?i)all systems? operational`),
		regexp.MustCompile(`(?i)no hay incidentes`),
		regexp.MustCompile(`(?i)no se han registrado incidentes`),
		regexp.MustCompile(`(?i)sin incidentes`),
		regexp.MustCompile(`(?i)incidents? today\s*[—–-]\s*0\b`),
	}

	activePattern = regexp.MustCompile(
		`(?i)\b(investigating|identified|degraded|partial outage|service disruption|outage|major incident)\b`)

	resolvedPattern = regexp.MustCompile(`(?i)\b(resolved|completed|restored|mitigated)\b`)

	maintenancePattern = regexp.MustCompile(`(?i)\b(maintenance|mantenimiento|scheduled)\b`)
)

// IsNoIncidentLine reports whether a line is "zero incidents" boilerplate,
// in either English or Spanish phrasing.
func IsNoIncidentLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	for _, p := range noIncidentPatterns {
		if p.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// IsActive reports whether a line contains an active-incident token.
func IsActive(line string) bool {
	return activePattern.MatchString(line)
}

// IsResolved reports whether a line reads as a resolved entry. A line can
// be both resolved and maintenance ("maintenance ... completed").
func IsResolved(line string) bool {
	return resolvedPattern.MatchString(line)
}

// IsMaintenance reports whether a line reads as a maintenance entry.
func IsMaintenance(line string) bool {
	return maintenancePattern.MatchString(line)
}

// Classify returns the dominant label for one line. Active wins over
// resolved, resolved over maintenance.
func Classify(line string) Classification {
	switch {
	case IsNoIncidentLine(line):
		return None
	case IsActive(line):
		return Active
	case IsResolved(line):
		return Resolved
	case IsMaintenance(line):
		return Maintenance
	default:
		return None
	}
}

// BlockCounts holds the per-block status tallies. NoIncident reports
// whether any line in the block matched the no-incident boilerplate.
type BlockCounts struct {
	Active      int
	Resolved    int
	Maintenance int
	NoIncident  bool
}

// CountBlock tallies statuses across the lines of one block.
//
// Override rule: when the block as a whole matches a no-incident pattern
// AND contains no active token anywhere, active and resolved are forced to
// zero even if individual lines matched loosely. This keeps boilerplate
// like "Incidents today — 0" from counting as an incident just because the
// surrounding text mentions a status word.
func CountBlock(lines []string) BlockCounts {
	var counts BlockCounts
	blockHasActive := false

	for _, line := range lines {
		if IsNoIncidentLine(line) {
			counts.NoIncident = true
			continue
		}
		if IsActive(line) {
			blockHasActive = true
			counts.Active++
		} else if IsResolved(line) {
			counts.Resolved++
		}
		if IsMaintenance(line) {
			counts.Maintenance++
		}
	}

	if counts.NoIncident && !blockHasActive {
		counts.Active = 0
		counts.Resolved = 0
	}
	return counts
}
