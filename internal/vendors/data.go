package vendors

// StrategyKind names the extraction strategy a vendor's page needs.
type StrategyKind string

const (
	// StrategyDOMScrape reads Statuspage-style markup: component cards plus
	// an incident list sectioned by date headers.
	StrategyDOMScrape StrategyKind = "dom_scrape"
	// StrategyHistoryScrape reads a Statuspage history view: month headers,
	// date-range lines, scheduled entries filtered out.
	StrategyHistoryScrape StrategyKind = "history_scrape"
	// StrategyPortalScrape reads a custom incident-portal page: incident
	// anchors with status tokens in the surrounding text.
	StrategyPortalScrape StrategyKind = "portal_scrape"
	// StrategyEmbeddedJSON reads incident arrays embedded in <script> tags.
	StrategyEmbeddedJSON StrategyKind = "embedded_json"
	// StrategyStatuspageAPI queries the Statuspage REST summary endpoint.
	StrategyStatuspageAPI StrategyKind = "statuspage_api"
)

// Site is one page of a multi-site vendor, filtered by product name inside
// the embedded data.
type Site struct {
	Name    string
	URL     string
	Product string
}

// Vendor is the static registry entry for one configured vendor.
type Vendor struct {
	Slug string
	// Name is the unique display name used in the canonical record.
	Name string
	// MessageTitle heads the per-vendor channel message.
	MessageTitle string
	// PageURL is the page the primary strategy reads.
	PageURL string
	// StatuspageBase, when set, enables the REST summary fallback after a
	// failed or empty primary extraction.
	StatuspageBase string
	// Strategy selects the primary extraction strategy.
	Strategy StrategyKind
	// HasBanner marks vendors whose page carries an overall-status banner.
	HasBanner bool
	// EmbeddedArrayKey names the script variable holding the incident
	// array for the embedded-JSON strategy.
	EmbeddedArrayKey string
	// Sites lists the pages of a multi-site vendor; empty for single-page
	// vendors.
	Sites []Site
	// Sources are the provenance links published in the digest.
	Sources []string
}
