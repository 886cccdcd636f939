package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/rohmanhakim/status-digest/pkg/hashutil"
)

/*
Responsibilities
- Convert HTML fragments to readable plain text
- Preserve anchor targets as "text (url)"
- Deduplicate repeated lines, blocks and table rows

All functions are pure. Malformed HTML never raises: worst case the
tag-stripping pass leaves residual angle brackets, which is acceptable
degraded output, not an error.
*/

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
	spaceRunPattern   = regexp.MustCompile(`[ \t]+`)
	trailingWSPattern = regexp.MustCompile(`[ \t]+\n`)
)

// HTMLToText converts an HTML fragment to plain text.
//
// Rules:
//   - <a href="U">T</a> becomes "T (U)"
//   - <li> items become "- " prefixed lines
//   - <br>, block-level closings become newlines
//   - runs of 3+ blank lines collapse to exactly one blank line
//   - entities are unescaped
//
// Input that is not HTML at all passes through, minus whitespace cleanup.
func HTMLToText(htmlOrText string) string {
	if !strings.ContainsRune(htmlOrText, '<') {
		return tidyText(html.UnescapeString(htmlOrText))
	}

	node, err := html.Parse(strings.NewReader(htmlOrText))
	if err != nil {
		// Degrade to regex tag stripping.
		stripped := tagPattern.ReplaceAllString(htmlOrText, " ")
		return tidyText(html.UnescapeString(stripped))
	}

	var b strings.Builder
	renderText(&b, node)
	return tidyText(b.String())
}

func renderText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript":
			return
		case "a":
			renderAnchor(b, n)
			return
		case "li":
			b.WriteString("\n- ")
		case "br":
			b.WriteString("\n")
		case "p", "div", "section", "tr", "ul", "ol", "table",
			"h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		case "td", "th":
			b.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(b, c)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "section", "tr", "ul", "ol", "table", "li",
			"h1", "h2", "h3", "h4", "h5", "h6":
			b.WriteString("\n")
		}
	}
}

// renderAnchor emits the anchor's inner text followed by its target as
// "text (url)". Anchors without an href, or whose href equals their text,
// emit the text alone.
func renderAnchor(b *strings.Builder, n *html.Node) {
	var inner strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(&inner, c)
	}
	text := strings.TrimSpace(inner.String())

	var href string
	for _, attr := range n.Attr {
		if attr.Key == "href" {
			href = strings.TrimSpace(attr.Val)
			break
		}
	}

	switch {
	case text == "" && href == "":
		return
	case href == "" || href == text || strings.HasPrefix(href, "#"):
		b.WriteString(text)
	case text == "":
		b.WriteString(href)
	default:
		b.WriteString(text)
		b.WriteString(" (")
		b.WriteString(href)
		b.WriteString(")")
	}
}

// tidyText normalizes whitespace after tag removal: trims trailing spaces,
// collapses horizontal runs and squeezes blank-line runs down to one.
func tidyText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = spaceRunPattern.ReplaceAllString(s, " ")
	s = trailingWSPattern.ReplaceAllString(s, "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankRunPattern.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims the string and squeezes internal whitespace runs
// to single spaces. Used to build comparison keys, not display text.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// normalizeKey builds the case-insensitive dedup key for a fragment.
func normalizeKey(s string) string {
	return hashutil.DedupKey(strings.ToLower(CollapseWhitespace(s)))
}

// DedupLines drops lines whose normalized form was already seen, preserving
// first-seen order. Blank lines are kept as-is: they are structure, not
// content.
func DedupLines(lines []string) []string {
	seen := make(map[string]struct{}, len(lines))
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			out = append(out, line)
			continue
		}
		key := normalizeKey(line)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
	}
	return out
}

// DedupBlocks splits text on blank-line-delimited paragraphs and drops
// exact normalized repeats, preserving first-seen order.
func DedupBlocks(text string) string {
	blocks := SplitBlocks(text)
	seen := make(map[string]struct{}, len(blocks))
	out := make([]string, 0, len(blocks))
	for _, block := range blocks {
		key := normalizeKey(block)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, block)
	}
	return strings.Join(out, "\n\n")
}

// SplitBlocks splits text into blank-line-delimited paragraphs, trimming
// each and dropping empties.
func SplitBlocks(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n")
	blocks := make([]string, 0, len(raw))
	for _, b := range raw {
		trimmed := strings.TrimSpace(b)
		if trimmed == "" {
			continue
		}
		blocks = append(blocks, trimmed)
	}
	return blocks
}

// DedupTableRows splits an HTML fragment on </tr> boundaries and drops rows
// whose normalized inner text was already seen. The surviving rows keep
// their original markup.
func DedupTableRows(rowsHtml string) string {
	parts := splitKeepingSep(rowsHtml, "</tr>")
	seen := make(map[string]struct{}, len(parts))
	var b strings.Builder
	for _, part := range parts {
		inner := tagPattern.ReplaceAllString(part, " ")
		inner = html.UnescapeString(inner)
		key := normalizeKey(inner)
		if strings.TrimSpace(inner) == "" {
			b.WriteString(part)
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		b.WriteString(part)
	}
	return b.String()
}

// splitKeepingSep splits s after each occurrence of sep (case-insensitive),
// keeping the separator attached to the preceding chunk.
func splitKeepingSep(s, sep string) []string {
	var parts []string
	lower := strings.ToLower(s)
	lowerSep := strings.ToLower(sep)
	for {
		idx := strings.Index(lower, lowerSep)
		if idx < 0 {
			if s != "" {
				parts = append(parts, s)
			}
			return parts
		}
		cut := idx + len(sep)
		parts = append(parts, s[:cut])
		s = s[cut:]
		lower = lower[cut:]
	}
}
