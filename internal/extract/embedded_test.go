package extract_test

import (
	"fmt"
	"testing"

	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cloudOneSite = vendors.Site{
	Name:    "Trend Cloud One",
	URL:     "https://status.trendmicro.com/en-US/trend-cloud-one/",
	Product: "Trend Cloud One",
}

func embeddedPage(arrayJSON string) string {
	return fmt.Sprintf(`<html><body>
<script>var sspDataInfo = %s;</script>
<p>Past incidents below.</p>
</body></html>`, arrayJSON)
}

func TestEmbeddedJSON_GroupsByIdAndTakesLatestToday(t *testing.T) {
	rc := testRunContext(t)
	today := rc.Now.UTC().Format("2006-01-02")
	arr := fmt.Sprintf(`[
	  {"id":"inc-1","productEnName":"Trend Cloud One","status":770060002,
	   "subject":"Console%%20errors","hisDate":"%sT08:00:00Z"},
	  {"id":"inc-1","productEnName":"Trend Cloud One","status":770060000,
	   "subject":"Console%%20errors","hisDate":"%sT10:30:00Z"},
	  {"id":"inc-2","productEnName":"Trend Vision One","status":770060002,
	   "subject":"Other product","hisDate":"%sT09:00:00Z"}
	]`, today, today, today)

	source := extract.NewEmbeddedJSONSource("sspDataInfo", cloudOneSite)
	facts, err := source.Extract(rc, embeddedPage(arr))

	require.Nil(t, err)
	require.NotNil(t, facts.OverallOk)
	assert.False(t, *facts.OverallOk)

	joined := fmt.Sprint(facts.IncidentLines)
	assert.Contains(t, joined, "[Trend Cloud One]")
	assert.Contains(t, joined, "Resolved — Console errors (10:30 UTC)")
	assert.NotContains(t, joined, "Investigating")
	assert.NotContains(t, joined, "Other product")
}

func TestEmbeddedJSON_TrailingCommaArrayStillParses(t *testing.T) {
	rc := testRunContext(t)
	today := rc.Now.UTC().Format("2006-01-02")
	arr := fmt.Sprintf(`[
	  {"id":"inc-9","productEnName":"Trend Cloud One","status":770060005,
	   "subject":"Login delays","hisDate":"%sT07:45:00Z",},
	]`, today)

	source := extract.NewEmbeddedJSONSource("sspDataInfo", cloudOneSite)
	facts, err := source.Extract(rc, embeddedPage(arr))

	require.Nil(t, err)
	joined := fmt.Sprint(facts.IncidentLines)
	assert.Contains(t, joined, "Mitigated — Login delays (07:45 UTC)")
}

func TestEmbeddedJSON_YesterdayUpdatesYieldNoIncidents(t *testing.T) {
	rc := testRunContext(t)
	yesterday := rc.Now.UTC().AddDate(0, 0, -1).Format("2006-01-02")
	arr := fmt.Sprintf(`[
	  {"id":"inc-1","productEnName":"Trend Cloud One","status":770060000,
	   "subject":"Done yesterday","hisDate":"%sT10:00:00Z"}
	]`, yesterday)

	source := extract.NewEmbeddedJSONSource("sspDataInfo", cloudOneSite)
	facts, err := source.Extract(rc, embeddedPage(arr))

	require.Nil(t, err)
	require.NotNil(t, facts.OverallOk)
	assert.True(t, *facts.OverallOk)
	joined := fmt.Sprint(facts.IncidentLines)
	assert.Contains(t, joined, "No incidents reported today")
}

func TestEmbeddedJSON_MissingArrayIsAnError(t *testing.T) {
	rc := testRunContext(t)

	source := extract.NewEmbeddedJSONSource("sspDataInfo", cloudOneSite)
	_, err := source.Extract(rc, "<html><body><p>Something else entirely</p></body></html>")

	require.NotNil(t, err)
}

func TestMergeFacts_CombinesSectionsAndHealth(t *testing.T) {
	ok := true
	notOk := false
	a := extract.RawVendorFacts{
		Name:          "Trend Cloud One",
		IncidentLines: []string{"[Trend Cloud One]", "Incidents today", "- No incidents reported today."},
		OverallOk:     &ok,
	}
	b := extract.RawVendorFacts{
		Name:          "Trend Vision One",
		IncidentLines: []string{"[Trend Vision One]", "Incidents today — 1 incident(s)", "• Investigating — X (09:00 UTC)"},
		OverallOk:     &notOk,
	}

	merged := extract.MergeFacts("Trend Micro", a, b)

	assert.Equal(t, "Trend Micro", merged.Name)
	require.NotNil(t, merged.OverallOk)
	assert.False(t, *merged.OverallOk)
	assert.Contains(t, merged.IncidentLines, "")
	assert.Equal(t, "[Trend Cloud One]", merged.IncidentLines[0])
}

func TestMergeFacts_UnknownPartMakesHealthUnknown(t *testing.T) {
	ok := true
	merged := extract.MergeFacts("Trend Micro",
		extract.RawVendorFacts{OverallOk: &ok},
		extract.RawVendorFacts{OverallOk: nil},
	)

	assert.Nil(t, merged.OverallOk)
}
