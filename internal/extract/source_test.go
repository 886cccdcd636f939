package extract_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-resty/resty/v2"

	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func countingSummaryServer(t *testing.T, payload string) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/summary.json" {
			http.NotFound(w, r)
			return
		}
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, payload)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestForVendor_UnrecognizedPageFallsBackToSummary(t *testing.T) {
	rc := testRunContext(t)
	server, hits := countingSummaryServer(t, `{
	  "components": [
	    {"id": "c1", "name": "WAF", "status": "major_outage"}
	  ],
	  "incidents": []
	}`)

	v := vendors.Vendor{
		Name:           "Aruba Central",
		Strategy:       vendors.StrategyDOMScrape,
		StatuspageBase: server.URL,
	}
	source := extract.ForVendor(v, resty.New())
	facts, err := source.Extract(rc, `<html><body><div id="app">Loading...</div></body></html>`)

	require.Nil(t, err)
	assert.Equal(t, int64(1), hits.Load())
	assert.Equal(t, []string{"WAF Major Outage"}, facts.ComponentLines)
	require.NotNil(t, facts.OverallOk)
	assert.False(t, *facts.OverallOk)
}

func TestForVendor_HealthyPageSkipsFallback(t *testing.T) {
	rc := testRunContext(t)
	server, hits := countingSummaryServer(t, `{"components": [], "incidents": []}`)
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

	v := vendors.Vendor{
		Name:           "Aruba Central",
		Strategy:       vendors.StrategyDOMScrape,
		StatuspageBase: server.URL,
	}
	source := extract.ForVendor(v, resty.New())
	facts, err := source.Extract(rc, page)

	require.Nil(t, err)
	assert.Equal(t, int64(0), hits.Load())
	assert.Equal(t, []string{record.NoIncidentLine}, facts.IncidentLines)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
}

func TestForVendor_VerdictOnlyPageSkipsFallback(t *testing.T) {
	rc := testRunContext(t)
	server, hits := countingSummaryServer(t, `{"components": [], "incidents": []}`)

	// A component section with every card operational yields no lines but
	// still carries a healthy verdict.
	page := `<html><body>
<div class="components-section">
  <div class="component-inner-container" data-component-status="operational">
    <span class="name">API</span><span class="component-status">Operational</span>
  </div>
</div>
</body></html>`

	v := vendors.Vendor{
		Name:           "Guardicore Centra",
		Strategy:       vendors.StrategyDOMScrape,
		StatuspageBase: server.URL,
	}
	source := extract.ForVendor(v, resty.New())
	facts, err := source.Extract(rc, page)

	require.Nil(t, err)
	assert.Equal(t, int64(0), hits.Load())
	assert.Empty(t, facts.ComponentLines)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
}
