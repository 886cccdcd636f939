package extract_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRunContext(t *testing.T) runctx.RunContext {
	t.Helper()
	return runctx.New(t.TempDir(), false, &metadata.NoopSink{})
}

func statuspageMarkup(dayHeader string, dayClass string, incidents string) string {
	return fmt.Sprintf(`<html><body>
<div class="components-section">
  <div class="component-inner-container" data-component-status="operational">
    <span class="name">API</span><span class="component-status">Operational</span>
  </div>
  <div class="component-inner-container" data-component-status="degraded_performance">
    <span class="name">Dashboard</span><span class="component-status">Degraded Performance</span>
  </div>
</div>
<div class="incidents-list">
  <div class="status-day %s">
    <h3 class="date">%s</h3>
    %s
  </div>
</div>
</body></html>`, dayClass, dayHeader, incidents)
}

func TestDOMScrape_NonOperationalComponentAndTodayIncident(t *testing.T) {
	rc := testRunContext(t)
	header := rc.Now.UTC().Format("Jan 2, 2006")
	incident := `<div class="incident-container">
  <div class="incident-title"><a href="/incidents/abc">Elevated error rates</a></div>
  <div class="updates-container">
    <div class="update"><strong>Investigating</strong> <small>Aug 13, 02:40 UTC</small></div>
    <div class="update"><strong>Identified</strong> <small>Aug 13, 01:10 UTC</small></div>
  </div>
</div>`

	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Imperva", Strategy: vendors.StrategyDOMScrape})
	facts, err := source.Extract(rc, statuspageMarkup(header, "", incident))

	require.Nil(t, err)
	assert.Equal(t, "Imperva", facts.Name)
	assert.Equal(t, []string{"Dashboard Degraded Performance"}, facts.ComponentLines)
	require.Len(t, facts.IncidentLines, 1)
	assert.Equal(t, "Investigating — Elevated error rates (Aug 13, 02:40 UTC)", facts.IncidentLines[0])
	require.NotNil(t, facts.OverallOk)
	assert.False(t, *facts.OverallOk)
}

func TestDOMScrape_NoIncidentDayBlock(t *testing.T) {
	rc := testRunContext(t)
	header := rc.Now.UTC().Format("Jan 2, 2006")

	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Aruba Central"})
	facts, err := source.Extract(rc, statuspageMarkup(header, "no-incidents",
		`<p>No incidents reported today.</p>`))

	require.Nil(t, err)
	assert.Equal(t, []string{record.NoIncidentLine}, facts.IncidentLines)
}

func TestDOMScrape_AllOperationalYieldsOkRecord(t *testing.T) {
	rc := testRunContext(t)
	header := rc.Now.UTC().Format("Jan 2, 2006")
	page := fmt.Sprintf(`<html><body>
<div class="components-section">
  <div class="component-inner-container" data-component-status="operational">
    <span class="name">API</span><span class="component-status">Operational</span>
  </div>
</div>
<div class="incidents-list">
  <div class="status-day no-incidents"><h3 class="date">%s</h3>
  <p>No incidents reported today.</p></div>
</div>
</body></html>`, header)

	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Aruba Central"})
	facts, err := source.Extract(rc, page)

	require.Nil(t, err)
	assert.Empty(t, facts.ComponentLines)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
}

func TestDOMScrape_UnrecognizedMarkupCarriesNoVerdict(t *testing.T) {
	rc := testRunContext(t)

	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Aruba Central"})
	facts, err := source.Extract(rc, `<html><body><div id="app">Loading...</div></body></html>`)

	require.Nil(t, err)
	assert.Empty(t, facts.ComponentLines)
	assert.Empty(t, facts.IncidentLines)
	assert.Nil(t, facts.OverallOk)
}

func TestDOMScrape_YesterdayBlockIsIgnored(t *testing.T) {
	rc := testRunContext(t)
	yesterday := rc.Now.UTC().AddDate(0, 0, -1).Format("Jan 2, 2006")
	incident := `<div class="incident-container">
  <div class="incident-title">Old incident</div>
</div>`

	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Imperva"})
	facts, err := source.Extract(rc, statuspageMarkup(yesterday, "", incident))

	require.Nil(t, err)
	assert.NotContains(t, facts.IncidentLines, "Old incident")
}

func TestDOMScrape_BannerVendor(t *testing.T) {
	rc := testRunContext(t)
	header := rc.Now.UTC().Format("Jan 2, 2006")
	page := fmt.Sprintf(`<html><body>
<div class="page-status"><span class="status">All Systems Operational</span></div>
<div class="incidents-list">
  <div class="status-day no-incidents"><h3 class="date">%s</h3>
  <p>No incidents reported today.</p></div>
</div>
</body></html>`, header)

	source := extract.NewDOMScrapeSource(vendors.Vendor{
		Name:      "CyberArk Privilege Cloud",
		HasBanner: true,
	})
	facts, err := source.Extract(rc, page)

	require.Nil(t, err)
	assert.Equal(t, "System status: All Systems Operational", facts.Banner)
	assert.Empty(t, facts.ComponentLines)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
}

func TestTodayHeaderMatchingHandlesLeadingZero(t *testing.T) {
	now := time.Date(2025, 8, 7, 10, 0, 0, 0, time.UTC)
	rc := testRunContext(t)
	rc.Now = now

	page := statuspageMarkup("Aug 7, 2025", "no-incidents", `<p>No incidents reported today.</p>`)
	source := extract.NewDOMScrapeSource(vendors.Vendor{Name: "Imperva"})
	facts, err := source.Extract(rc, page)

	require.Nil(t, err)
	assert.Equal(t, []string{record.NoIncidentLine}, facts.IncidentLines)
}
