package digest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rohmanhakim/status-digest/internal/record"
	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/urlutil"
)

/*
Responsibilities

- Fold canonical vendor records into one DigestAggregate
- Sum per-vendor counts without re-classifying any text
- Render the fixed per-vendor text blocks
- Derive the key observation sentence
- Build deduplicated source lists (HTML and plain)

Vendor order in VendorBlocksText follows the order of the input records,
which the command layer derives from the registry declaration order.
*/

// criticalKeywords escalate the key observation when they appear in any
// vendor's rendered block while incidents are active.
var criticalKeywords = []string{
	"critical", "major", "sev-1", "sev1", "outage", "breach", "ddos",
}

// Aggregate is the digest-level reduction of one run across all vendors.
type Aggregate struct {
	Counts           record.Counts
	VendorBlocksText string
	KeyObservation   string
	SourcesHTML      string
	SourcesText      string
	VendorCount      int
}

// Build folds the records into an aggregate. Records are rendered in the
// order given; every record yields a block, failed vendors included.
func Build(records []record.CanonicalVendorRecord) Aggregate {
	var agg Aggregate
	agg.VendorCount = len(records)

	blocks := make([]string, 0, len(records))
	for _, r := range records {
		agg.Counts.NewToday += r.Counts.NewToday
		agg.Counts.Active += r.Counts.Active
		agg.Counts.ResolvedToday += r.Counts.ResolvedToday
		agg.Counts.MaintenanceToday += r.Counts.MaintenanceToday
		blocks = append(blocks, VendorBlock(r))
	}
	agg.VendorBlocksText = strings.Join(blocks, "\n\n")
	agg.KeyObservation = keyObservation(records, agg.Counts)
	agg.SourcesHTML, agg.SourcesText = sourceLists(records)
	return agg
}

// VendorBlock renders one record into the fixed client-facing block.
// Empty sections fall back to literal defaults; a vendor is never
// silently blank.
func VendorBlock(r record.CanonicalVendorRecord) string {
	title := r.Vendor + " - Status"
	if v, err := vendors.BySlug(r.Vendor); err == nil {
		title = v.MessageTitle
	}

	lines := []string{
		fmt.Sprintf("=== %s ===", strings.ToUpper(r.Vendor)),
		title,
		blockTimestamp(r.Timestamp) + " UTC",
		"",
	}

	if banner := strings.TrimSpace(r.Banner); banner != "" {
		lines = append(lines, banner, "")
	}

	lines = append(lines, "Component status")
	comp := textnorm.DedupLines(r.ComponentLines)
	if len(comp) == 0 {
		lines = append(lines, "- "+record.AllOperationalLine)
	} else {
		for _, s := range comp {
			lines = append(lines, bullet(s))
		}
	}

	lines = append(lines, "", "Incidents today")
	switch {
	case r.CollectError != "":
		lines = append(lines, fmt.Sprintf("- (error collecting: %s)", r.CollectError))
	case !r.HasIncidents():
		lines = append(lines, "- "+record.NoIncidentLine)
	default:
		for _, s := range textnorm.DedupLines(r.IncidentLines) {
			lines = append(lines, bullet(s))
		}
	}

	return strings.Join(lines, "\n")
}

// Message renders the per-vendor channel message: the vendor block
// without the digest delimiter line.
func Message(r record.CanonicalVendorRecord) string {
	block := VendorBlock(r)
	if i := strings.Index(block, "\n"); i >= 0 {
		return block[i+1:]
	}
	return block
}

func bullet(s string) string {
	if strings.HasPrefix(s, "- ") || s == "" {
		return s
	}
	return "- " + s
}

func blockTimestamp(ts time.Time) string {
	if ts.IsZero() {
		return "N/D"
	}
	return ts.UTC().Format("2006-01-02 15:04")
}

// keyObservation derives the one-sentence summary. Calm when nothing is
// active; escalated when active incidents coincide with critical
// keywords anywhere in a vendor's text.
func keyObservation(records []record.CanonicalVendorRecord, counts record.Counts) string {
	if len(records) == 0 {
		return "No hay datos de fabricantes para este periodo."
	}

	if counts.Active == 0 {
		if counts.MaintenanceToday > 0 {
			return fmt.Sprintf(
				"Sin incidentes abiertos; se registran %d mantenimientos hoy.",
				counts.MaintenanceToday)
		}
		return "Todos los fabricantes reportan estado operacional sin incidentes abiertos hoy."
	}

	var critical []string
	affected := 0
	for _, r := range records {
		if r.Counts.Active == 0 {
			continue
		}
		affected++
		text := strings.ToLower(strings.Join(r.IncidentLines, "\n") + "\n" + r.TextBlock)
		for _, kw := range criticalKeywords {
			if strings.Contains(text, kw) {
				critical = append(critical, vendorDisplayName(r.Vendor))
				break
			}
		}
	}

	if len(critical) > 0 {
		named := critical
		extra := ""
		if len(named) > 3 {
			extra = fmt.Sprintf(" (+%d más)", len(named)-3)
			named = named[:3]
		}
		return fmt.Sprintf(
			"Atención: incidencias relevantes en %s%s; se recomienda seguimiento.",
			strings.Join(named, ", "), extra)
	}

	return fmt.Sprintf(
		"Se observan %d incidentes activos en %d de %d fabricantes.",
		counts.Active, affected, len(records))
}

func vendorDisplayName(slug string) string {
	if v, err := vendors.BySlug(slug); err == nil {
		return v.Name
	}
	return slug
}

// sourceLists builds the provenance lists, deduplicated by canonical URL
// in first-seen order across all records.
func sourceLists(records []record.CanonicalVendorRecord) (htmlList string, textList string) {
	seen := map[string]bool{}
	var htmlItems, textItems []string
	for _, r := range records {
		for _, src := range r.Sources {
			key := urlutil.CanonicalString(src)
			if seen[key] {
				continue
			}
			seen[key] = true
			label := sourceLabel(r.Vendor, src)
			htmlItems = append(htmlItems,
				fmt.Sprintf(`<li><a href="%s">%s</a></li>`, src, html.EscapeString(label)))
			textItems = append(textItems, fmt.Sprintf("- %s: %s", label, src))
		}
	}
	return strings.Join(htmlItems, "\n"), strings.Join(textItems, "\n")
}

// sourceLabel names one source link: the site name for multi-site
// vendors, the vendor display name otherwise.
func sourceLabel(slug string, src string) string {
	v, err := vendors.BySlug(slug)
	if err != nil {
		return slug
	}
	canonical := urlutil.CanonicalString(src)
	for _, site := range v.Sites {
		if urlutil.CanonicalString(site.URL) == canonical {
			return fmt.Sprintf("%s — %s", v.Name, site.Name)
		}
	}
	return fmt.Sprintf("%s — Status", v.Name)
}

// PlaceholderMap renders the aggregate into the keys the templates
// consume. Values the caller should fill by policy (customer impact,
// suggested action) default to empty strings so the renderer leaves the
// template readable.
func (a Aggregate) PlaceholderMap(now time.Time) map[string]string {
	return map[string]string{
		"NUM_PROVEEDORES":            fmt.Sprintf("%d", a.VendorCount),
		"INC_NUEVOS_HOY":             fmt.Sprintf("%d", a.Counts.NewToday),
		"INC_ACTIVOS":                fmt.Sprintf("%d", a.Counts.Active),
		"INC_RESUELTOS_HOY":          fmt.Sprintf("%d", a.Counts.ResolvedToday),
		"MANTENIMIENTOS_HOY":         fmt.Sprintf("%d", a.Counts.MaintenanceToday),
		"OBS_CLAVE":                  a.KeyObservation,
		"DETALLES_POR_VENDOR_TEXTO":  a.VendorBlocksText,
		"LISTA_FUENTES_CON_ENLACES":  a.SourcesHTML,
		"FUENTES_TEXTO":              a.SourcesText,
		"FECHA_SIGUIENTE_REPORTE":    now.UTC().AddDate(0, 0, 1).Format("2006-01-02"),
		"IMPACTO_CLIENTE_SI_NO":      "",
		"ACCION_SUGERIDA":            "",
	}
}
