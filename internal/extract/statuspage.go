package extract

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

/*
StatuspageAPISource queries the Statuspage REST summary endpoint instead
of scraping markup. It serves two roles: the primary strategy for API-only
vendors, and the fallback when a DOM scrape of a Statuspage-backed vendor
yields nothing.

Component rendering prefers the grouped view when groups exist: an
all-operational group collapses to "Group Operational", otherwise only
the non-operational children are listed under the group name.
*/
type StatuspageAPISource struct {
	Name    string
	BaseURL string
	client  *resty.Client
}

func NewStatuspageAPISource(name, baseURL string, client *resty.Client) StatuspageAPISource {
	if client == nil {
		client = resty.New().
			SetHeader("user-agent", "status-digest/1.0").
			SetTimeout(20 * time.Second)
	}
	return StatuspageAPISource{
		Name:    name,
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

func (s StatuspageAPISource) Strategy() string { return string(vendors.StrategyStatuspageAPI) }

type summaryComponent struct {
	Id         string   `json:"id"`
	Name       string   `json:"name"`
	Status     string   `json:"status"`
	Group      bool     `json:"group"`
	Components []string `json:"components"`
}

type summaryIncidentUpdate struct {
	UpdatedAt string `json:"updated_at"`
	CreatedAt string `json:"created_at"`
}

type summaryIncident struct {
	Name      string                  `json:"name"`
	Status    string                  `json:"status"`
	UpdatedAt string                  `json:"updated_at"`
	CreatedAt string                  `json:"created_at"`
	Updates   []summaryIncidentUpdate `json:"incident_updates"`
}

type summaryPayload struct {
	Components []summaryComponent `json:"components"`
	Incidents  []summaryIncident  `json:"incidents"`
}

// Extract ignores pageSource: this strategy talks to the API itself.
func (s StatuspageAPISource) Extract(rc runctx.RunContext, _ string) (RawVendorFacts, failure.ClassifiedError) {
	summaryURL := s.BaseURL + "/api/v2/summary.json"

	started := time.Now()
	res, err := s.client.R().Get(summaryURL)
	if err != nil {
		return RawVendorFacts{}, s.recordError(rc, summaryURL, &ExtractionError{
			Message:   fmt.Sprintf("summary fetch failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseHTTPFailure,
		})
	}
	rc.Sink.RecordFetch(
		summaryURL,
		res.StatusCode(),
		time.Since(started),
		res.Header().Get("Content-Type"),
		0,
		s.Strategy(),
	)
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		return RawVendorFacts{}, s.recordError(rc, summaryURL, &ExtractionError{
			Message:   fmt.Sprintf("summary fetch returned HTTP %d", res.StatusCode()),
			Retryable: res.StatusCode() >= 500,
			Cause:     ErrCauseHTTPFailure,
		})
	}

	var payload summaryPayload
	if err := json.Unmarshal(res.Body(), &payload); err != nil {
		return RawVendorFacts{}, s.recordError(rc, summaryURL, &ExtractionError{
			Message:   fmt.Sprintf("summary payload did not decode: %v", err),
			Retryable: false,
			Cause:     ErrCauseBadJSON,
		})
	}

	componentLines := summaryComponentLines(payload.Components)
	incidentLines := summaryIncidentLines(payload.Incidents, rc.Now)

	noIncidents := len(incidentLines) == 1 && incidentLines[0] == record.NoIncidentLine
	allComponentsOk := true
	for _, line := range componentLines {
		if !strings.Contains(line, "Operational") {
			allComponentsOk = false
			break
		}
	}

	return RawVendorFacts{
		Name:           s.Name,
		ComponentLines: componentLines,
		IncidentLines:  incidentLines,
		OverallOk:      boolPtr(noIncidents && allComponentsOk),
	}, nil
}

// summaryComponentLines walks the component tree: grouped view when groups
// exist, flat non-operational list otherwise. Duplicates compact away in
// first-seen order.
func summaryComponentLines(comps []summaryComponent) []string {
	byId := make(map[string]summaryComponent, len(comps))
	var groups []summaryComponent
	for _, c := range comps {
		byId[c.Id] = c
		if c.Group {
			groups = append(groups, c)
		}
	}

	var lines []string
	if len(groups) > 0 {
		for _, g := range groups {
			var children []summaryComponent
			for _, id := range g.Components {
				if child, ok := byId[id]; ok {
					children = append(children, child)
				}
			}
			if len(children) == 0 {
				if g.Status != "" && g.Status != "operational" {
					lines = append(lines, g.Name+" "+titleizeStatus(g.Status))
				}
				continue
			}
			var nonOk []summaryComponent
			for _, child := range children {
				if child.Status != "operational" {
					nonOk = append(nonOk, child)
				}
			}
			if len(nonOk) == 0 {
				lines = append(lines, g.Name+" Operational")
				continue
			}
			lines = append(lines, g.Name)
			for _, child := range nonOk {
				lines = append(lines, "- "+child.Name+" "+titleizeStatus(child.Status))
			}
		}
	} else {
		for _, c := range comps {
			if !c.Group && c.Status != "operational" {
				lines = append(lines, c.Name+" "+titleizeStatus(c.Status))
			}
		}
	}

	seen := map[string]struct{}{}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if _, ok := seen[line]; ok {
			continue
		}
		seen[line] = struct{}{}
		out = append(out, line)
	}
	return out
}

// summaryIncidentLines keeps incidents whose latest update falls on
// today's UTC calendar date.
func summaryIncidentLines(incidents []summaryIncident, now time.Time) []string {
	if len(incidents) == 0 {
		return []string{record.NoIncidentLine}
	}

	var lines []string
	for _, inc := range incidents {
		name := inc.Name
		if name == "" {
			name = "Incident"
		}

		ts := latestIncidentTimestamp(inc)
		if ts == "" {
			continue
		}
		updated, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			continue
		}
		updated = updated.UTC()
		if !timeutil.SameUTCDay(updated, now) {
			continue
		}

		lines = append(lines, fmt.Sprintf("%s — %s (last update %s)",
			name, titleizeStatus(inc.Status), timeutil.FormatDisplay(updated)))
	}

	if len(lines) == 0 {
		return []string{record.NoIncidentLine}
	}
	return lines
}

// latestIncidentTimestamp picks the newest update timestamp, falling back
// to the incident's own updated/created stamps.
func latestIncidentTimestamp(inc summaryIncident) string {
	best := ""
	for _, u := range inc.Updates {
		candidate := u.UpdatedAt
		if candidate == "" {
			candidate = u.CreatedAt
		}
		if candidate > best {
			best = candidate
		}
	}
	if best != "" {
		return best
	}
	if inc.UpdatedAt != "" {
		return inc.UpdatedAt
	}
	return inc.CreatedAt
}

// titleizeStatus turns "degraded_performance" into "Degraded Performance".
func titleizeStatus(status string) string {
	if status == "" {
		return "Unknown"
	}
	words := strings.Split(strings.ReplaceAll(status, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}

func (s StatuspageAPISource) recordError(rc runctx.RunContext, summaryURL string, err *ExtractionError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"extract",
		"StatuspageAPISource.Extract",
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrURL, summaryURL),
		},
	)
	return err
}
