package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

var noIncidentsTodayPattern = regexp.MustCompile(`(?i)No incidents reported today`)

/*
EmbeddedJSONSource extracts one site's incidents from arrays embedded in
<script> tags, filtered to the site's product.

Grouping rule: records are grouped by incident id, kept only when their
update falls on today's UTC calendar date, and the most recent update per
id becomes that incident's current line. A first-token-in-text guess at
the current status is deliberately not used; the latest timestamped update
wins.
*/
type EmbeddedJSONSource struct {
	ArrayKey string
	Site     vendors.Site
}

func NewEmbeddedJSONSource(arrayKey string, site vendors.Site) EmbeddedJSONSource {
	return EmbeddedJSONSource{
		ArrayKey: arrayKey,
		Site:     site,
	}
}

func (s EmbeddedJSONSource) Strategy() string { return string(vendors.StrategyEmbeddedJSON) }

func (s EmbeddedJSONSource) Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageSource))
	if err != nil {
		return RawVendorFacts{}, s.recordError(rc, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse page: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		})
	}

	var records []embeddedRecord
	foundArray := false
	doc.Find("script").Each(func(_ int, sel *goquery.Selection) {
		text := sel.Text()
		if !strings.Contains(text, s.ArrayKey) {
			return
		}
		arrayText, ok := ExtractJSONArray(unescapeHTMLEntities(text), s.ArrayKey)
		if !ok {
			return
		}
		foundArray = true
		items, ok := DecodeLenientArray(arrayText)
		if !ok {
			// One broken array skips itself, not the vendor.
			return
		}
		records = append(records, decodeEmbeddedRecords(items, s.Site.Product)...)
	})

	lines, count := s.sectionLines(doc, records, rc.Now)
	facts := RawVendorFacts{
		Name:           s.Site.Name,
		ComponentLines: []string{},
		IncidentLines:  lines,
		OverallOk:      boolPtr(count == 0),
	}

	if !foundArray && !noIncidentsTodayPattern.MatchString(doc.Text()) {
		return facts, s.recordError(rc, &ExtractionError{
			Message:   fmt.Sprintf("no %s array in page for %s", s.ArrayKey, s.Site.Name),
			Retryable: false,
			Cause:     ErrCauseArrayMissing,
		})
	}
	return facts, nil
}

// sectionLines renders one site's section: a bracketed site header, then
// either today's incident lines or the page's own no-incident literal.
func (s EmbeddedJSONSource) sectionLines(doc *goquery.Document, records []embeddedRecord, now time.Time) ([]string, int) {
	items := summarizeToday(records, now)

	lines := []string{fmt.Sprintf("[%s]", s.Site.Name)}
	if len(items) > 0 {
		lines = append(lines, fmt.Sprintf("Incidents today — %d incident(s)", len(items)))
		lines = append(lines, items...)
		return lines, len(items)
	}

	noMsg := "No incidents reported today."
	if m := noIncidentsTodayPattern.FindString(textnorm.CollapseWhitespace(doc.Text())); m != "" {
		noMsg = m
	}
	lines = append(lines, "Incidents today", "- "+noMsg)
	return lines, 0
}

// summarizeToday groups records by incident id, keeps today's updates and
// takes the most recent per id.
func summarizeToday(records []embeddedRecord, now time.Time) []string {
	byId := make(map[string][]embeddedRecord)
	var order []string
	for _, r := range records {
		if !timeutil.SameUTCDay(r.updatedAt, now) {
			continue
		}
		if _, seen := byId[r.id]; !seen {
			order = append(order, r.id)
		}
		byId[r.id] = append(byId[r.id], r)
	}

	lines := make([]string, 0, len(order))
	for _, id := range order {
		updates := byId[id]
		sort.Slice(updates, func(i, j int) bool {
			return updates[i].updatedAt.After(updates[j].updatedAt)
		})
		last := updates[0]
		lines = append(lines, fmt.Sprintf("• %s — %s (%s UTC)",
			last.statusWord, last.subject, last.updatedAt.Format("15:04")))
	}

	// Descending lexicographic order puts the latest hour first.
	sort.Sort(sort.Reverse(sort.StringSlice(lines)))
	return lines
}

// MergeFacts folds per-site facts into one vendor-level result: sections
// become blank-line-separated incident blocks, health is the conjunction.
func MergeFacts(name string, parts ...RawVendorFacts) RawVendorFacts {
	merged := RawVendorFacts{
		Name:           name,
		ComponentLines: []string{},
		IncidentLines:  []string{},
	}
	allKnown := true
	allOk := true
	for i, part := range parts {
		if i > 0 && len(merged.IncidentLines) > 0 && len(part.IncidentLines) > 0 {
			merged.IncidentLines = append(merged.IncidentLines, "")
		}
		merged.IncidentLines = append(merged.IncidentLines, part.IncidentLines...)
		merged.ComponentLines = append(merged.ComponentLines, part.ComponentLines...)
		if part.Banner != "" && merged.Banner == "" {
			merged.Banner = part.Banner
		}
		if part.OverallOk == nil {
			allKnown = false
		} else if !*part.OverallOk {
			allOk = false
		}
	}
	if allKnown && len(parts) > 0 {
		merged.OverallOk = boolPtr(allOk)
	}
	return merged
}

func (s EmbeddedJSONSource) recordError(rc runctx.RunContext, err *ExtractionError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"extract",
		"EmbeddedJSONSource.Extract",
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, s.Site.URL),
		},
	)
	return err
}
