package extract

import (
	"github.com/go-resty/resty/v2"

	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/failure"
)

// ForVendor builds the extraction source for a registry entry: the
// vendor's primary strategy, wrapped with the Statuspage REST fallback
// when the vendor has a configured base URL.
//
// Multi-site vendors are handled per site by the caller through
// ForSite and MergeFacts; ForVendor covers single-page vendors.
func ForVendor(v vendors.Vendor, client *resty.Client) Source {
	var primary Source
	switch v.Strategy {
	case vendors.StrategyHistoryScrape:
		primary = NewHistoryScrapeSource(v)
	case vendors.StrategyPortalScrape:
		primary = NewPortalScrapeSource(v)
	case vendors.StrategyStatuspageAPI:
		return NewStatuspageAPISource(v.Name, v.StatuspageBase, client)
	default:
		primary = NewDOMScrapeSource(v)
	}

	if v.StatuspageBase == "" {
		return primary
	}
	return fallbackSource{
		primary:  primary,
		fallback: NewStatuspageAPISource(v.Name, v.StatuspageBase, client),
	}
}

// ForSite builds the per-site source of a multi-site embedded-JSON vendor.
func ForSite(v vendors.Vendor, site vendors.Site) Source {
	return NewEmbeddedJSONSource(v.EmbeddedArrayKey, site)
}

// fallbackSource runs the primary strategy and degrades to the REST
// summary when the primary errors or comes back empty-handed.
type fallbackSource struct {
	primary  Source
	fallback Source
}

func (f fallbackSource) Strategy() string { return f.primary.Strategy() }

func (f fallbackSource) Extract(rc runctx.RunContext, pageSource string) (RawVendorFacts, failure.ClassifiedError) {
	facts, err := f.primary.Extract(rc, pageSource)
	if err == nil && !factsEmpty(facts) {
		return facts, nil
	}
	return f.fallback.Extract(rc, pageSource)
}

// factsEmpty reports a result with nothing usable in it. A verdict-only
// result (healthy component section, no lines worth reporting) still
// counts as data and must not trigger the fallback.
func factsEmpty(facts RawVendorFacts) bool {
	return facts.OverallOk == nil &&
		len(facts.ComponentLines) == 0 &&
		len(facts.IncidentLines) == 0 &&
		facts.Banner == ""
}
