package datetime

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

/*
Responsibilities
- Parse loosely-formatted status-page date text into UTC instants
- Parse "start - end" ranges where the end may omit its month/day
- Resolve a missing year from month-year section headers

All functions are pure. Unparseable input yields "no result", never an
error: callers tolerate missing dates and fall back to "still open" or
"no date" states.
*/

// tzOffsetMinutes maps timezone abbreviations to UTC offsets in minutes.
// The table is deliberately closed: an abbreviation outside it fails the
// parse rather than guessing. Some abbreviations are ambiguous across
// regions (CST is also China Standard Time); the mapping here pins the
// interpretation the source pages actually use.
var tzOffsetMinutes = map[string]int{
	"PDT":  -420,
	"PST":  -480,
	"EDT":  -240,
	"EST":  -300,
	"CDT":  -300,
	"CST":  -360,
	"MDT":  -360,
	"MST":  -420,
	"CEST": 120,
	"CET":  60,
	"BST":  60,
	"UTC":  0,
	"GMT":  0,
}

var monthsByPrefix = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

var (
	instantPattern = regexp.MustCompile(
		`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:,\s*(\d{4}))?,?(?:\s+(\d{1,2}):(\d{2}))?`)
	timeOnlyPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	tzSuffixPattern = regexp.MustCompile(`\b([A-Z]{2,4})\s*\.?\s*$`)
	rangeSeparator  = regexp.MustCompile(`\s+[-–—]\s+`)
	headerPattern   = regexp.MustCompile(
		`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+(\d{4})\b`)
)

// ParseInstant parses a single loosely-formatted date expression such as
// "Aug 13, 2025 02:40 PDT" or "Jun 13, 09:18" into a UTC instant.
//
// yearHint supplies the year when the text omits it; pass the value from
// ResolveYear. The boolean is false when no instant could be parsed.
func ParseInstant(text string, yearHint int) (time.Time, bool) {
	offset, tzOk := offsetFromSuffix(text)
	if !tzOk {
		return time.Time{}, false
	}
	return parseInstantWithOffset(text, yearHint, offset)
}

// ParseRange parses "start - end" date text such as
// "Jun 13, 09:18 - Jun 14, 11:18 PDT" or "Jun 2, 05:19 - 05:44 PDT".
// When the end omits its month and day it inherits the start's. Both
// returned instants are UTC; the boolean is false when either side fails.
func ParseRange(text string, yearHint int) (time.Time, time.Time, bool) {
	offset, tzOk := offsetFromSuffix(text)
	if !tzOk {
		return time.Time{}, time.Time{}, false
	}
	stripped := strings.TrimSpace(tzSuffixPattern.ReplaceAllString(strings.TrimSpace(text), ""))

	parts := rangeSeparator.Split(stripped, 2)
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, false
	}

	start, ok := parseInstantWithOffset(parts[0], yearHint, offset)
	if !ok {
		return time.Time{}, time.Time{}, false
	}

	endText := strings.TrimSpace(parts[1])
	if m := timeOnlyPattern.FindStringSubmatch(endText); m != nil {
		// End inherits the start's month and day.
		hour, _ := strconv.Atoi(m[1])
		minute, _ := strconv.Atoi(m[2])
		startLocal := start.Add(time.Duration(offset) * time.Minute)
		end := time.Date(startLocal.Year(), startLocal.Month(), startLocal.Day(),
			hour, minute, 0, 0, time.UTC).Add(-time.Duration(offset) * time.Minute)
		return start, end, true
	}

	end, ok := parseInstantWithOffset(endText, yearHint, offset)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// ResolveYear scans lines preceding index idx (exclusive) backwards for a
// month-year section header such as "August 2025" and returns its year.
// With no header in sight it falls back to the current UTC year.
func ResolveYear(lines []string, idx int) int {
	if idx > len(lines) {
		idx = len(lines)
	}
	for i := idx - 1; i >= 0; i-- {
		if year, ok := YearFromHeader(lines[i]); ok {
			return year
		}
	}
	return time.Now().UTC().Year()
}

// YearFromHeader extracts the year from a month-year header line.
func YearFromHeader(line string) (int, bool) {
	m := headerPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return 0, false
	}
	return year, true
}

// offsetFromSuffix reads a trailing timezone abbreviation. Absent
// abbreviation means UTC; an unknown abbreviation fails the parse.
func offsetFromSuffix(text string) (int, bool) {
	m := tzSuffixPattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return 0, true
	}
	abbr := strings.ToUpper(m[1])
	if offset, ok := tzOffsetMinutes[abbr]; ok {
		return offset, true
	}
	// A trailing all-caps token that is not a known zone is probably not a
	// zone at all (status words, product acronyms). Only fail when the text
	// otherwise looks like it ends in a zone: letters-only token following
	// a time expression.
	if strings.Contains(text, ":") && m[1] == strings.ToUpper(m[1]) && isAlpha(m[1]) {
		return 0, false
	}
	return 0, true
}

func isAlpha(s string) bool {
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return len(s) > 0
}

func parseInstantWithOffset(text string, yearHint int, offsetMinutes int) (time.Time, bool) {
	m := instantPattern.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}

	month, ok := monthsByPrefix[strings.ToLower(m[1])]
	if !ok {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}

	year := yearHint
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	if year == 0 {
		year = time.Now().UTC().Year()
	}

	hour, minute := 0, 0
	if m[4] != "" {
		hour, _ = strconv.Atoi(m[4])
		minute, _ = strconv.Atoi(m[5])
		if hour > 23 || minute > 59 {
			return time.Time{}, false
		}
	}

	local := time.Date(year, month, day, hour, minute, 0, 0, time.UTC)
	return local.Add(-time.Duration(offsetMinutes) * time.Minute), true
}
