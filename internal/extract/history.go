package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/status-digest/internal/datetime"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

const monthsShort = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec`

var (
	dateRangePattern = regexp.MustCompile(
		`(?i)\b(` + monthsShort + `)\s+\d{1,2}\s*,\s*\d{1,2}:\d{2}\s*[-–]\s*(?:(` + monthsShort + `)\s+\d{1,2}\s*,\s*)?\d{1,2}:\d{2}\s*(UTC|GMT|[A-Z]{2,4})\b`)
	boilerplateAnchorPattern = regexp.MustCompile(
		`(?i)Subscribe To Updates|Support|Filter Components|Login|Log in|Terms|Privacy|Guest`)
	resolvedPhrasePattern = regexp.MustCompile(
		`(?i)has been resolved|has been mitigated|has been completed`)
	historyResolvedPattern = regexp.MustCompile(`(?i)has been resolved|\bresolved\b`)
)

/*
HistoryScrapeSource reads a Statuspage history view: months of past
incidents, each card carrying a title anchor and a date range with a
timezone abbreviation.

Rules:
  - [Scheduled] and "scheduled maintenance" entries are skipped.
  - The year comes from the nearest preceding month-year header.
  - All times convert to UTC for display.
*/
type HistoryScrapeSource struct {
	Vendor vendors.Vendor
}

func NewHistoryScrapeSource(vendor vendors.Vendor) HistoryScrapeSource {
	return HistoryScrapeSource{Vendor: vendor}
}

func (s HistoryScrapeSource) Strategy() string { return string(vendors.StrategyHistoryScrape) }

type historyItem struct {
	title     string
	status    string
	url       string
	startedAt time.Time
	endedAt   time.Time
	hasStart  bool
	hasEnd    bool
}

func (s HistoryScrapeSource) Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageSource))
	if err != nil {
		return RawVendorFacts{}, s.recordError(rc, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse page: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		})
	}

	items := s.extractItems(doc)

	return RawVendorFacts{
		Name:           s.Vendor.Name,
		ComponentLines: []string{},
		IncidentLines:  formatHistoryLines(items),
		OverallOk:      boolPtr(len(items) == 0),
	}, nil
}

// extractItems finds incident cards: divs whose normalized text contains
// exactly one date range and whose nearby ancestors do not (those are
// month containers, not cards).
func (s HistoryScrapeSource) extractItems(doc *goquery.Document) []historyItem {
	bodyLines := strings.Split(textnorm.HTMLToText(docHTML(doc)), "\n")

	var items []historyItem
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		txt := textnorm.CollapseWhitespace(div.Text())
		matches := dateRangePattern.FindAllString(txt, -1)
		if len(matches) != 1 {
			return
		}
		if isScheduledEntry(txt) {
			return
		}
		if ancestorHoldsSingleRange(div) {
			return
		}

		dateStr := matches[0]
		title, href := historyTitle(div, txt, dateStr, s.Vendor.Name)
		if title == "" {
			return
		}

		item := historyItem{
			title:  title,
			status: historyStatus(txt),
			url:    absoluteHistoryURL(href, s.Vendor.PageURL),
		}

		year := yearForRange(bodyLines, dateStr)
		if start, end, ok := datetime.ParseRange(dateStr, year); ok {
			item.startedAt, item.hasStart = start, true
			item.endedAt, item.hasEnd = end, true
		}

		items = append(items, item)
	})

	sort.SliceStable(items, func(i, j int) bool {
		return historySortKey(items[i]).After(historySortKey(items[j]))
	})
	return items
}

func historySortKey(item historyItem) time.Time {
	if item.hasEnd {
		return item.endedAt
	}
	if item.hasStart {
		return item.startedAt
	}
	return time.Time{}
}

func isScheduledEntry(text string) bool {
	low := strings.ToLower(text)
	return strings.Contains(low, "[scheduled]") || strings.Contains(low, "scheduled maintenance")
}

// ancestorHoldsSingleRange walks up to six div ancestors; one that itself
// contains exactly one date range marks the current div as a container
// wrapper rather than the card.
func ancestorHoldsSingleRange(div *goquery.Selection) bool {
	anc := div.Parent()
	for i := 0; i < 6; i++ {
		if anc.Length() == 0 || goquery.NodeName(anc) != "div" {
			return false
		}
		txt := textnorm.CollapseWhitespace(anc.Text())
		if len(dateRangePattern.FindAllString(txt, -1)) == 1 {
			return true
		}
		anc = anc.Parent()
	}
	return false
}

// historyTitle picks the longest anchor whose text precedes the date
// range, skipping site-chrome anchors. With no anchor it falls back to the
// first content line before the date.
func historyTitle(div *goquery.Selection, txt, dateStr, vendorName string) (string, string) {
	posDate := strings.Index(txt, dateStr)

	bestLen := 0
	var bestTitle, bestHref string
	div.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		t := textnorm.CollapseWhitespace(a.Text())
		if t == "" || boilerplateAnchorPattern.MatchString(t) || strings.EqualFold(t, vendorName) {
			return
		}
		posTitle := strings.Index(txt, t)
		if posDate != -1 && posTitle != -1 && posTitle < posDate && len(t) > bestLen {
			bestTitle = t
			bestHref = a.AttrOr("href", "")
			bestLen = len(t)
		}
	})
	if bestTitle != "" {
		return bestTitle, bestHref
	}

	for _, line := range strings.Split(textnorm.HTMLToText(selectionHTML(div)), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if dateRangePattern.MatchString(textnorm.CollapseWhitespace(line)) {
			break
		}
		if isScheduledEntry(line) || resolvedPhrasePattern.MatchString(line) {
			continue
		}
		return textnorm.CollapseWhitespace(line), ""
	}
	return "", ""
}

func historyStatus(text string) string {
	low := strings.ToLower(text)
	switch {
	case historyResolvedPattern.MatchString(low):
		return "Resolved"
	case strings.Contains(low, "mitigated"):
		return "Mitigated"
	case strings.Contains(low, "service disruption") || strings.Contains(low, "degraded") || strings.Contains(low, "impact"):
		return "Incident"
	default:
		return "Update"
	}
}

// yearForRange resolves the year for a date range from the nearest month
// header above the range in the page's text flow.
func yearForRange(bodyLines []string, dateStr string) int {
	needle := textnorm.CollapseWhitespace(dateStr)
	for i, line := range bodyLines {
		if strings.Contains(textnorm.CollapseWhitespace(line), needle) {
			return datetime.ResolveYear(bodyLines, i)
		}
	}
	return datetime.ResolveYear(bodyLines, len(bodyLines))
}

func absoluteHistoryURL(href, pageURL string) string {
	if href == "" || strings.HasPrefix(href, "http") {
		return href
	}
	if strings.HasPrefix(href, "/") {
		if idx := strings.Index(pageURL, "://"); idx != -1 {
			if slash := strings.Index(pageURL[idx+3:], "/"); slash != -1 {
				return pageURL[:idx+3+slash] + href
			}
		}
		return strings.TrimSuffix(pageURL, "/") + href
	}
	return href
}

// formatHistoryLines renders the digest section for history items.
func formatHistoryLines(items []historyItem) []string {
	lines := []string{"Histórico (meses visibles en la página)"}
	if len(items) == 0 {
		lines = append(lines, "- No hay incidencias no programadas en los meses mostrados.")
		return lines
	}
	for idx, item := range items {
		titleLine := fmt.Sprintf("%d. %s", idx+1, item.title)
		if item.url != "" {
			titleLine = fmt.Sprintf("%d. %s (%s)", idx+1, item.title, item.url)
		}
		startStr, endStr := "N/D", "N/D"
		if item.hasStart {
			startStr = item.startedAt.Format("2006-01-02 15:04 UTC")
		}
		if item.hasEnd {
			endStr = item.endedAt.Format("2006-01-02 15:04 UTC")
		}
		lines = append(lines,
			titleLine,
			fmt.Sprintf("   Estado: %s · Inicio: %s · Fin: %s", item.status, startStr, endStr))
	}
	return lines
}

func docHTML(doc *goquery.Document) string {
	htmlStr, err := doc.Html()
	if err != nil {
		return ""
	}
	return htmlStr
}

func selectionHTML(sel *goquery.Selection) string {
	htmlStr, err := goquery.OuterHtml(sel)
	if err != nil {
		return ""
	}
	return htmlStr
}

func (s HistoryScrapeSource) recordError(rc runctx.RunContext, err *ExtractionError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"extract",
		"HistoryScrapeSource.Extract",
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, s.Vendor.PageURL),
		},
	)
	return err
}
