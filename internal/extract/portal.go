package extract

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

var (
	noCurrentIncidentsPattern = regexp.MustCompile(
		`(?i)\bNo current identified incidents\b|\bNo hay incidentes\b`)
	incidentIdPattern  = regexp.MustCompile(`(?i)\bIncident\s+\d+\b`)
	portalStatusTokens = []string{
		"Resolved", "Mitigated", "Monitoring", "Identified", "Investigating", "Degraded",
	}
)

/*
PortalScrapeSource reads custom incident portals (Salesforce communities,
trust portals): pages with incident anchors or "Incident NNNN" labels
instead of Statuspage markup.

Card identification: anchors whose href contains "/incidents", plus any
anchor whose text matches "Incident NNNN". The status word is the first
status token found in the card's surrounding text; these portals publish
the newest event at the top of the card.
*/
type PortalScrapeSource struct {
	Vendor vendors.Vendor
}

func NewPortalScrapeSource(vendor vendors.Vendor) PortalScrapeSource {
	return PortalScrapeSource{Vendor: vendor}
}

func (s PortalScrapeSource) Strategy() string { return string(vendors.StrategyPortalScrape) }

type portalIncident struct {
	title  string
	status string
	url    string
}

func (s PortalScrapeSource) Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageSource))
	if err != nil {
		return RawVendorFacts{}, s.recordError(rc, &ExtractionError{
			Message:   fmt.Sprintf("failed to parse page: %v", err),
			Retryable: false,
			Cause:     ErrCauseNotHTML,
		})
	}

	fullText := textnorm.CollapseWhitespace(doc.Text())

	var banner string
	var incidents []portalIncident
	if noCurrentIncidentsPattern.MatchString(fullText) {
		banner = "No current identified incidents"
	} else {
		incidents = s.parseIncidents(doc)
		if len(incidents) == 0 {
			banner = "No current identified incidents"
		}
	}

	lines := []string{"Incidentes activos"}
	if len(incidents) == 0 {
		lines = append(lines, "- No hay incidentes activos reportados.")
	} else {
		for idx, inc := range incidents {
			main := fmt.Sprintf("%d. %s", idx+1, inc.title)
			if inc.url != "" {
				main = fmt.Sprintf("%d. %s (%s)", idx+1, inc.title, inc.url)
			}
			lines = append(lines, main)
			if inc.status != "" && inc.status != "Update" {
				lines = append(lines, fmt.Sprintf("   Estado: %s", inc.status))
			}
		}
	}

	return RawVendorFacts{
		Name:           s.Vendor.Name,
		Banner:         banner,
		ComponentLines: []string{},
		IncidentLines:  lines,
		OverallOk:      boolPtr(len(incidents) == 0),
	}, nil
}

func (s PortalScrapeSource) parseIncidents(doc *goquery.Document) []portalIncident {
	var found []portalIncident
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := a.AttrOr("href", "")
		text := textnorm.CollapseWhitespace(a.Text())

		isIncidentLink := strings.Contains(href, "/incidents")
		isIncidentLabel := incidentIdPattern.MatchString(text)
		if !isIncidentLink && !isIncidentLabel {
			return
		}
		if text == "" {
			text = "Incident"
		}

		found = append(found, portalIncident{
			title:  text,
			status: portalStatus(containerText(a)),
			url:    absoluteHistoryURL(href, s.Vendor.PageURL),
		})
	})

	// Dedup by title+url, first seen wins.
	seen := map[string]struct{}{}
	out := make([]portalIncident, 0, len(found))
	for _, inc := range found {
		key := strings.ToLower(inc.title) + "\x00" + inc.url
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, inc)
	}
	return out
}

// containerText walks up to six ancestors looking for the card block that
// holds the incident's status text.
func containerText(a *goquery.Selection) string {
	cur := a.Parent()
	for i := 0; i < 6; i++ {
		if cur.Length() == 0 {
			break
		}
		txt := textnorm.CollapseWhitespace(cur.Text())
		low := strings.ToLower(txt)
		for _, tok := range portalStatusTokens {
			if strings.Contains(low, strings.ToLower(tok)) {
				return txt
			}
		}
		cur = cur.Parent()
	}
	return textnorm.CollapseWhitespace(a.Text())
}

func portalStatus(text string) string {
	low := strings.ToLower(text)
	for _, tok := range portalStatusTokens {
		if strings.Contains(low, strings.ToLower(tok)) {
			return tok
		}
	}
	return "Update"
}

func (s PortalScrapeSource) recordError(rc runctx.RunContext, err *ExtractionError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"extract",
		"PortalScrapeSource.Extract",
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, s.Vendor.PageURL),
		},
	)
	return err
}
