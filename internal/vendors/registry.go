package vendors

import (
	"fmt"
	"sort"
	"strings"
)

/*
Responsibilities
- Hold the static per-vendor metadata: slug, display name, page URLs,
  extraction strategy, provenance links
- Resolve slugs for the command layer

The registry is the single place a new vendor is declared. Declaration
order here is the processing and rendering order of the digest.
*/

var registry = []Vendor{
	{
		Slug:           "aruba",
		Name:           "Aruba Central",
		MessageTitle:   "Aruba Central - Status",
		PageURL:        "https://centralstatus.arubanetworking.hpe.com/",
		StatuspageBase: "https://centralstatus.arubanetworking.hpe.com",
		Strategy:       StrategyDOMScrape,
		Sources:        []string{"https://centralstatus.arubanetworking.hpe.com/"},
	},
	{
		Slug:           "cyberark",
		Name:           "CyberArk Privilege Cloud",
		MessageTitle:   "CyberArk Privilege Cloud - Status",
		PageURL:        "https://privilegecloud-service-status.cyberark.com/",
		StatuspageBase: "https://privilegecloud-service-status.cyberark.com",
		Strategy:       StrategyDOMScrape,
		HasBanner:      true,
		Sources:        []string{"https://privilegecloud-service-status.cyberark.com/"},
	},
	{
		Slug:           "guardicore",
		Name:           "Akamai (Guardicore)",
		MessageTitle:   "Akamai (Guardicore) - Status",
		PageURL:        "https://www.akamaistatus.com/",
		StatuspageBase: "https://www.akamaistatus.com",
		Strategy:       StrategyDOMScrape,
		Sources:        []string{"https://www.akamaistatus.com/"},
	},
	{
		Slug:           "imperva",
		Name:           "Imperva",
		MessageTitle:   "Imperva - Status",
		PageURL:        "https://status.imperva.com/",
		StatuspageBase: "https://status.imperva.com",
		Strategy:       StrategyDOMScrape,
		Sources:        []string{"https://status.imperva.com/"},
	},
	{
		Slug:         "netskope",
		Name:         "Netskope",
		MessageTitle: "Netskope - Estado de Incidentes",
		PageURL:      "https://trustportal.netskope.com/incidents",
		Strategy:     StrategyPortalScrape,
		Sources:      []string{"https://trustportal.netskope.com/incidents"},
	},
	{
		Slug:         "proofpoint",
		Name:         "Proofpoint",
		MessageTitle: "Proofpoint - Estado de Incidentes",
		PageURL:      "https://proofpoint.my.site.com/community/s/proofpoint-current-incidents",
		Strategy:     StrategyPortalScrape,
		Sources:      []string{"https://proofpoint.my.site.com/community/s/proofpoint-current-incidents"},
	},
	{
		Slug:         "qualys",
		Name:         "Qualys",
		MessageTitle: "Qualys - Estado de Incidentes",
		PageURL:      "https://status.qualys.com/history?filter=8f7fjwhmd4n0",
		Strategy:     StrategyHistoryScrape,
		Sources:      []string{"https://status.qualys.com/history?filter=8f7fjwhmd4n0"},
	},
	{
		Slug:             "trendmicro",
		Name:             "Trend Micro",
		MessageTitle:     "Trend Micro - Status",
		Strategy:         StrategyEmbeddedJSON,
		EmbeddedArrayKey: "sspDataInfo",
		Sites: []Site{
			{
				Name:    "Trend Cloud One",
				URL:     "https://status.trendmicro.com/en-US/trend-cloud-one/",
				Product: "Trend Cloud One",
			},
			{
				Name:    "Trend Vision One",
				URL:     "https://status.trendmicro.com/en-US/trend-vision-one/",
				Product: "Trend Vision One",
			},
		},
		Sources: []string{
			"https://status.trendmicro.com/en-US/trend-cloud-one/",
			"https://status.trendmicro.com/en-US/trend-vision-one/",
		},
	},
}

// All returns the configured vendors in declaration order.
func All() []Vendor {
	out := make([]Vendor, len(registry))
	copy(out, registry)
	return out
}

// BySlug resolves a vendor slug, case-insensitively.
func BySlug(slug string) (Vendor, error) {
	needle := strings.ToLower(strings.TrimSpace(slug))
	for _, v := range registry {
		if v.Slug == needle {
			return v, nil
		}
	}
	return Vendor{}, fmt.Errorf("unknown vendor %q (known: %s)", slug, strings.Join(Slugs(), ", "))
}

// Slugs returns all registered slugs, sorted.
func Slugs() []string {
	slugs := make([]string, 0, len(registry))
	for _, v := range registry {
		slugs = append(slugs, v.Slug)
	}
	sort.Strings(slugs)
	return slugs
}
