package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

/*
Responsibilities
- Read Statuspage-style markup: component cards, incident day blocks,
  optional overall-status banner
- Report only non-operational components
- Keep only today's incident block, matched by the rendered UTC date
  header (and its no-leading-zero variant)

A page that fails to parse degrades to empty facts with a classified
error; partial DOM parses with whatever is present.
*/

var (
	issueStatusPattern = regexp.MustCompile(
		`(?i)(Degraded Performance|Partial Outage|Major Outage|Under Maintenance)`)
	operationalPattern = regexp.MustCompile(`(?i)\bOperational\b`)
	allOkPattern       = regexp.MustCompile(`(?i)All Systems Operational`)
)

type DOMScrapeSource struct {
	Vendor vendors.Vendor
}

func NewDOMScrapeSource(vendor vendors.Vendor) DOMScrapeSource {
	return DOMScrapeSource{Vendor: vendor}
}

func (s DOMScrapeSource) Strategy() string { return string(vendors.StrategyDOMScrape) }

func (s DOMScrapeSource) Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageSource))
	if err != nil {
		return RawVendorFacts{}, s.recordError(rc, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse page: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		})
	}

	banner := ""
	if s.Vendor.HasBanner {
		banner = parseBanner(doc)
	}

	componentLines, componentsSeen := parseComponentCards(doc)
	incidentLines, incidentCount, incidentsSeen := parseIncidentsToday(doc, rc.Now)

	// A healthy verdict needs affirmative evidence: a problem-free
	// component section, today's day block, the no-incident literal or an
	// all-ok banner. A page with none of the expected markup (a JS shell,
	// an interstitial) stays verdict-free so the Statuspage fallback can
	// take over.
	var overallOk *bool
	switch {
	case incidentCount > 0 || len(componentLines) > 0:
		overallOk = boolPtr(false)
	case s.Vendor.HasBanner && banner != "":
		overallOk = boolPtr(allOkPattern.MatchString(banner))
	case componentsSeen || incidentsSeen:
		overallOk = boolPtr(true)
	}

	// Banner vendors report health via the banner; repeating it as a
	// component line would duplicate the same fact.
	if s.Vendor.HasBanner {
		componentLines = []string{}
	}

	return RawVendorFacts{
		Name:           s.Vendor.Name,
		Banner:         bannerLine(banner),
		ComponentLines: componentLines,
		IncidentLines:  incidentLines,
		OverallOk:      overallOk,
	}, nil
}

func bannerLine(banner string) string {
	if banner == "" {
		return ""
	}
	return "System status: " + banner
}

// parseBanner reads the overall-status banner text.
func parseBanner(doc *goquery.Document) string {
	sel := doc.Find(".page-status .status").First()
	if sel.Length() == 0 {
		sel = doc.Find(".page-status").First()
	}
	return textnorm.CollapseWhitespace(sel.Text())
}

// parseComponentCards returns "name status" lines for non-operational
// components only, first-seen order, deduplicated. seen reports whether
// the page carried a component section at all, so an all-operational
// section is distinguishable from missing markup.
func parseComponentCards(doc *goquery.Document) (lines []string, seen bool) {
	type comp struct{ name, status string }
	var found []comp

	cards := doc.Find(".components-section .component-inner-container")
	seen = cards.Length() > 0
	if cards.Length() > 0 {
		cards.Each(func(_ int, sel *goquery.Selection) {
			statusAttr := strings.ToLower(strings.TrimSpace(
				sel.AttrOr("data-component-status", "")))

			name := textnorm.CollapseWhitespace(
				sel.Find(".name, .component-name, [data-component-name]").First().Text())
			if name == "" {
				name = strings.TrimSpace(sel.AttrOr("data-component-name", ""))
			}
			if name == "" {
				name = "Component"
			}

			statusText := textnorm.CollapseWhitespace(
				sel.Find(".component-status, .status").First().Text())
			if statusText == "" {
				if statusAttr != "" {
					statusText = statusAttr
				} else {
					statusText = "Unknown"
				}
			}

			if statusAttr == "operational" {
				return
			}
			if statusAttr == "" && operationalPattern.MatchString(statusText) {
				return
			}
			if !operationalPattern.MatchString(statusText) {
				found = append(found, comp{name: name, status: statusText})
			}
		})
	} else {
		// Generic fallback: any element whose text carries a problem
		// status word.
		doc.Find("*").Each(func(_ int, sel *goquery.Selection) {
			if sel.Children().Length() > 0 {
				return
			}
			txt := textnorm.CollapseWhitespace(sel.Text())
			m := issueStatusPattern.FindString(txt)
			if m == "" {
				return
			}
			pos := strings.Index(strings.ToLower(txt), strings.ToLower(m))
			name := "Component"
			if pos > 0 {
				name = textnorm.CollapseWhitespace(txt[:pos])
			}
			found = append(found, comp{name: name, status: m})
		})
	}

	dedup := map[string]struct{}{}
	lines = make([]string, 0, len(found))
	for _, c := range found {
		key := strings.ToLower(c.name) + "\x00" + strings.ToLower(c.status)
		if _, ok := dedup[key]; ok {
			continue
		}
		dedup[key] = struct{}{}
		lines = append(lines, c.name+" "+c.status)
	}
	return lines, seen
}

// parseIncidentsToday finds today's day block in the incident list and
// renders each incident as "Status — Title (timestamp)" from its newest
// update. The returned count excludes the no-incident literal; seen
// reports whether a day block or the literal was present at all.
func parseIncidentsToday(doc *goquery.Document, now time.Time) (lines []string, count int, seen bool) {
	day := findTodayDayBlock(doc, now)
	if day == nil {
		// Some pages render the literal without a day block at all.
		full := textnorm.CollapseWhitespace(doc.Text())
		if m := noIncidentsTodayPattern.FindString(full); m != "" {
			return []string{record.NoIncidentLine}, 0, true
		}
		return []string{}, 0, false
	}

	if day.HasClass("no-incidents") {
		msg := record.NoIncidentLine
		if m := noIncidentsTodayPattern.FindString(textnorm.CollapseWhitespace(day.Text())); m != "" {
			msg = m + "."
		}
		return []string{msg}, 0, true
	}

	var items []string
	day.Find(".incident-container, .unresolved-incident").Each(func(_ int, inc *goquery.Selection) {
		title := textnorm.CollapseWhitespace(
			inc.Find(".incident-title a, .incident-title").First().Text())
		if title == "" {
			title = "Incident"
		}

		latest := inc.Find(".updates-container .update, .incident-update").First()
		statusWord := textnorm.CollapseWhitespace(
			latest.Find("strong, .update-status, .update-title").First().Text())
		timeText := textnorm.CollapseWhitespace(
			latest.Find("small, time, .update-time").First().Text())

		switch {
		case statusWord != "" && timeText != "":
			items = append(items, fmt.Sprintf("%s — %s (%s)", statusWord, title, timeText))
		case statusWord != "":
			items = append(items, fmt.Sprintf("%s — %s", statusWord, title))
		default:
			items = append(items, title)
		}
	})

	if len(items) == 0 {
		return []string{record.NoIncidentLine}, 0, true
	}
	return items, len(items), true
}

// findTodayDayBlock matches a day block against today's rendered UTC
// date, falling back to a block classed "today".
func findTodayDayBlock(doc *goquery.Document, now time.Time) *goquery.Selection {
	days := doc.Find(".incidents-list .status-day")
	if days.Length() == 0 {
		return nil
	}

	candidates := todayHeaderStrings(now)
	var match *goquery.Selection
	days.EachWithBreak(func(_ int, day *goquery.Selection) bool {
		dateStr := textnorm.CollapseWhitespace(day.Find(".date, h3, h4").First().Text())
		for _, c := range candidates {
			if dateStr == c {
				match = day
				return false
			}
		}
		return true
	})
	if match != nil {
		return match
	}

	days.EachWithBreak(func(_ int, day *goquery.Selection) bool {
		if day.HasClass("today") {
			match = day
			return false
		}
		return true
	})
	return match
}

func (s DOMScrapeSource) recordError(rc runctx.RunContext, err *ExtractionError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"extract",
		"DOMScrapeSource.Extract",
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, s.Vendor.PageURL),
		},
	)
	return err
}
