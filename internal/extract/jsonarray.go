package extract

import (
	"encoding/json"
	"fmt"
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

/*
Embedded-array parsing helpers.

Status pages that render incident data client-side ship it as a JS array
assignment inside a <script> tag. The array is found by key, sliced out by
bracket-depth matching (a regex to end-of-line breaks on nested objects),
then JSON-decoded with a lenient trailing-comma repair fallback.
*/

// statusWords maps the embedded integer status codes to status words.
// Codes outside the table render as "Update".
var statusWords = map[int]string{
	770060000: "Resolved",
	770060001: "Monitoring",
	770060002: "Investigating",
	770060003: "Identified",
	770060004: "Update",
	770060005: "Mitigated",
}

var (
	trailingCommaObj = regexp.MustCompile(`,\s*}`)
	trailingCommaArr = regexp.MustCompile(`,\s*]`)
)

// ExtractJSONArray locates `key : [` or `key = [` in script text and
// returns the full bracketed array, tracking bracket depth so nested
// objects and arrays do not truncate the slice. The boolean is false when
// the key or a balanced closing bracket is missing.
func ExtractJSONArray(scriptText, key string) (string, bool) {
	pattern := regexp.MustCompile(regexp.QuoteMeta(key) + `\s*[:=]\s*\[`)
	loc := pattern.FindStringIndex(scriptText)
	if loc == nil {
		return "", false
	}
	start := loc[1] - 1

	depth := 0
	for i := start; i < len(scriptText); i++ {
		switch scriptText[i] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return scriptText[start : i+1], true
			}
		}
	}
	return "", false
}

// RepairJSON strips trailing commas before closing braces and brackets,
// the one malformation the source arrays actually exhibit.
func RepairJSON(raw string) string {
	cleaned := trailingCommaObj.ReplaceAllString(raw, "}")
	cleaned = trailingCommaArr.ReplaceAllString(cleaned, "]")
	return cleaned
}

// DecodeLenientArray parses a JSON array strictly first, then once more
// after repair. Both failing, the array is skipped (nil, false) rather
// than failing the vendor.
func DecodeLenientArray(raw string) ([]map[string]any, bool) {
	var items []map[string]any
	if err := json.Unmarshal([]byte(raw), &items); err == nil {
		return items, true
	}
	if err := json.Unmarshal([]byte(RepairJSON(raw)), &items); err == nil {
		return items, true
	}
	return nil, false
}

// embeddedRecord is one decoded incident update from an embedded array.
type embeddedRecord struct {
	id         string
	product    string
	statusWord string
	subject    string
	impact     string
	updatedAt  time.Time
}

// decodeEmbeddedRecords filters array items down to one product's records,
// tolerating the key aliases the arrays use across revisions.
func decodeEmbeddedRecords(items []map[string]any, product string) []embeddedRecord {
	records := make([]embeddedRecord, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(stringField(item, "productEnName")) != product {
			continue
		}

		id := firstStringField(item, "id", "incidentId", "caseId")
		if id == "" {
			continue
		}

		word := "Update"
		if code, ok := intField(item, "status"); ok {
			if w, known := statusWords[code]; known {
				word = w
			}
		}

		subject := unquoteURL(firstStringField(item, "subject", "title"))
		if subject == "" {
			subject = "Incident"
		}
		impact := unquoteURL(firstStringField(item, "otherImpact", "impact"))

		rawDate := firstStringField(item, "hisDate", "dateTime", "createdDate")
		updatedAt, ok := parseEmbeddedTimestamp(rawDate)
		if !ok {
			continue
		}

		records = append(records, embeddedRecord{
			id:         id,
			product:    product,
			statusWord: word,
			subject:    subject,
			impact:     impact,
			updatedAt:  updatedAt,
		})
	}
	return records
}

// parseEmbeddedTimestamp accepts the timestamp spellings the arrays use.
// A timestamp without a zone is taken as UTC.
func parseEmbeddedTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func stringField(item map[string]any, key string) string {
	v, ok := item[key]
	if !ok || v == nil {
		return ""
	}
	switch tv := v.(type) {
	case string:
		return tv
	case float64:
		return strconv.FormatFloat(tv, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", tv)
	}
}

func firstStringField(item map[string]any, keys ...string) string {
	for _, key := range keys {
		if s := strings.TrimSpace(stringField(item, key)); s != "" {
			return s
		}
	}
	return ""
}

func intField(item map[string]any, key string) (int, bool) {
	v, ok := item[key]
	if !ok {
		return 0, false
	}
	switch tv := v.(type) {
	case float64:
		return int(tv), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(tv))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// unescapeHTMLEntities undoes entity escaping applied to script bodies
// when pages are served pre-rendered.
func unescapeHTMLEntities(s string) string {
	return html.UnescapeString(s)
}

// unquoteURL undoes percent-encoding the arrays apply to free text.
// PathUnescape keeps "+" literal, matching how the pages encode.
func unquoteURL(s string) string {
	decoded, err := url.PathUnescape(s)
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(decoded)
}
