package textnorm_test

import (
	"strings"
	"testing"

	"github.com/rohmanhakim/status-digest/internal/textnorm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTMLToText_AnchorBecomesTextWithTarget(t *testing.T) {
	in := `<p>See <a href="https://status.okta.com">Okta Status</a> for details.</p>`

	out := textnorm.HTMLToText(in)

	assert.Contains(t, out, "Okta Status (https://status.okta.com)")
	assert.NotContains(t, out, "<")
	assert.NotContains(t, out, ">")
}

func TestHTMLToText_ListItemsBecomeDashLines(t *testing.T) {
	in := `<ul><li>API degraded</li><li>Dashboard operational</li></ul>`

	out := textnorm.HTMLToText(in)

	assert.Contains(t, out, "- API degraded")
	assert.Contains(t, out, "- Dashboard operational")
}

func TestHTMLToText_CollapsesBlankLineRuns(t *testing.T) {
	in := "first<br><br><br><br>second"

	out := textnorm.HTMLToText(in)

	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
}

func TestHTMLToText_UnescapesEntities(t *testing.T) {
	out := textnorm.HTMLToText("<p>Maintenance &amp; upgrades &mdash; done</p>")

	assert.Contains(t, out, "Maintenance & upgrades")
}

func TestHTMLToText_PlainTextPassesThrough(t *testing.T) {
	out := textnorm.HTMLToText("Just   a  plain   sentence.")

	assert.Equal(t, "Just a plain sentence.", out)
}

func TestHTMLToText_SelfLinkedAnchorEmitsTextOnce(t *testing.T) {
	in := `<a href="https://trust.okta.com">https://trust.okta.com</a>`

	out := textnorm.HTMLToText(in)

	assert.Equal(t, "https://trust.okta.com", out)
}

func TestDedupLines_DropsNormalizedRepeats(t *testing.T) {
	in := []string{
		"Investigating - API latency",
		"  investigating -   API latency ",
		"Resolved - API latency",
	}

	out := textnorm.DedupLines(in)

	require.Len(t, out, 2)
	assert.Equal(t, "Investigating - API latency", out[0])
	assert.Equal(t, "Resolved - API latency", out[1])
}

func TestDedupLines_PreservesFirstSeenOrder(t *testing.T) {
	in := []string{"c", "a", "b", "a", "c"}

	out := textnorm.DedupLines(in)

	assert.Equal(t, []string{"c", "a", "b"}, out)
}

func TestDedupLines_Idempotent(t *testing.T) {
	in := []string{"one", "two", "ONE", "two", "three"}

	once := textnorm.DedupLines(in)
	twice := textnorm.DedupLines(once)

	assert.Equal(t, once, twice)
}

func TestDedupBlocks_DropsRepeatedParagraphs(t *testing.T) {
	block := "Okta Status\n- All systems operational"
	in := block + "\n\n" + block + "\n\nSomething else"

	out := textnorm.DedupBlocks(in)

	assert.Equal(t, 1, strings.Count(out, "Okta Status"))
	assert.Contains(t, out, "Something else")
}

func TestDedupBlocks_Idempotent(t *testing.T) {
	in := "para one\n\npara two\n\npara one"

	once := textnorm.DedupBlocks(in)
	twice := textnorm.DedupBlocks(once)

	assert.Equal(t, once, twice)
}

func TestDedupTableRows_DropsRowsWithSameInnerText(t *testing.T) {
	in := `<tr><td>API</td><td>Operational</td></tr>` +
		`<tr><td>API</td><td> Operational </td></tr>` +
		`<tr><td>CDN</td><td>Degraded</td></tr>`

	out := textnorm.DedupTableRows(in)

	assert.Equal(t, 2, strings.Count(out, "<tr>"))
	assert.Contains(t, out, "CDN")
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", textnorm.CollapseWhitespace("  a \t b\n c  "))
}

func TestSplitBlocks_DropsEmptyParagraphs(t *testing.T) {
	blocks := textnorm.SplitBlocks("one\n\n\n\ntwo\n\n   \n\nthree")

	assert.Equal(t, []string{"one", "two", "three"}, blocks)
}
