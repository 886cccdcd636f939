package extract_test

import (
	"testing"

	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qualysVendor() vendors.Vendor {
	return vendors.Vendor{
		Name:     "Qualys",
		Slug:     "qualys",
		PageURL:  "https://status.qualys.com/history?filter=8f7fjwhmd4n0",
		Strategy: vendors.StrategyHistoryScrape,
	}
}

func historyPage(cards string) string {
	return `<html><body>
<div class="months">
  <h4>August 2025</h4>
  <div class="month">` + cards + `</div>
</div>
</body></html>`
}

func TestHistoryScrape_ResolvedIncidentCard(t *testing.T) {
	rc := testRunContext(t)
	cards := `
<div class="incident-card">
  <a href="/incidents/xyz">Scanner delays in US platform</a>
  <div class="range">Aug 20, 08:15 - Aug 20, 11:45 UTC</div>
  <div class="body">This incident has been resolved.</div>
</div>
<div class="incident-card">
  <a href="/incidents/sched">[Scheduled] Platform maintenance window</a>
  <div class="range">Aug 22, 02:00 - Aug 22, 04:00 UTC</div>
</div>`

	source := extract.NewHistoryScrapeSource(qualysVendor())
	facts, err := source.Extract(rc, historyPage(cards))

	require.Nil(t, err)
	assert.Equal(t, "Qualys", facts.Name)
	require.NotNil(t, facts.OverallOk)
	assert.False(t, *facts.OverallOk)

	require.Len(t, facts.IncidentLines, 3)
	assert.Equal(t, "Histórico (meses visibles en la página)", facts.IncidentLines[0])
	assert.Equal(t, "1. Scanner delays in US platform (https://status.qualys.com/incidents/xyz)", facts.IncidentLines[1])
	assert.Equal(t, "   Estado: Resolved · Inicio: 2025-08-20 08:15 UTC · Fin: 2025-08-20 11:45 UTC", facts.IncidentLines[2])

	for _, line := range facts.IncidentLines {
		assert.NotContains(t, line, "maintenance window")
	}
}

func TestHistoryScrape_NewestIncidentFirst(t *testing.T) {
	rc := testRunContext(t)
	cards := `
<div class="incident-card">
  <a href="/incidents/old">Older portal outage</a>
  <div class="range">Aug 10, 03:00 - Aug 10, 04:30 UTC</div>
  <div class="body">This incident has been resolved.</div>
</div>
<div class="incident-card">
  <a href="/incidents/new">Newer API disruption</a>
  <div class="range">Aug 21, 09:00 - Aug 21, 10:15 UTC</div>
  <div class="body">This incident has been resolved.</div>
</div>`

	source := extract.NewHistoryScrapeSource(qualysVendor())
	facts, err := source.Extract(rc, historyPage(cards))

	require.Nil(t, err)
	require.Len(t, facts.IncidentLines, 5)
	assert.Contains(t, facts.IncidentLines[1], "Newer API disruption")
	assert.Contains(t, facts.IncidentLines[3], "Older portal outage")
}

func TestHistoryScrape_EmptyHistoryIsHealthy(t *testing.T) {
	rc := testRunContext(t)

	source := extract.NewHistoryScrapeSource(qualysVendor())
	facts, err := source.Extract(rc, historyPage(""))

	require.Nil(t, err)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
	assert.Equal(t, []string{
		"Histórico (meses visibles en la página)",
		"- No hay incidencias no programadas en los meses mostrados.",
	}, facts.IncidentLines)
}
