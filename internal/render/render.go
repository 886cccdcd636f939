package render

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/gomarkdown/markdown"
	mdhtml "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/rohmanhakim/status-digest/pkg/failure"
)

/*
Responsibilities

- Load text and HTML templates, extracting the subject line
- Substitute {{KEY}} placeholders from a string map
- Chunk long payloads for message-size-limited channels
- Wrap payloads in chat code blocks
- Convert between markdown and HTML for channel-specific payloads

Placeholder contract: unresolved keys stay in the output verbatim. A
template author debugging a digest must be able to see exactly which key
never received a value.
*/

// DefaultSubject is used when neither template declares one.
const DefaultSubject = "DORA Daily Digest"

// ChunkLimit is the per-message character bound for chat sends, kept
// under Telegram's 4096 hard limit.
const ChunkLimit = 3900

var (
	subjectPattern     = regexp.MustCompile(`(?i)^\s*Asunto\s*:\s*(.+?)\s*$`)
	titlePattern       = regexp.MustCompile(`(?is)<title>(.*?)</title>`)
	placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)
)

// Template is one loaded template: an optional subject plus its body.
type Template struct {
	Subject string
	Body    string
}

// LoadTextTemplate reads a text template. An "Asunto:" line anywhere in
// the file becomes the subject; the body starts after it, skipping blank
// lines. A file without a subject line is all body.
func LoadTextTemplate(path string) (Template, failure.ClassifiedError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Template{}, &RenderError{
			Message:   fmt.Sprintf("cannot read %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseTemplateRead,
		}
	}

	lines := strings.Split(string(raw), "\n")
	subject := ""
	bodyStart := 0
	for i, line := range lines {
		if m := subjectPattern.FindStringSubmatch(line); m != nil {
			subject = m[1]
			bodyStart = i + 1
			break
		}
	}
	for bodyStart < len(lines) && strings.TrimSpace(lines[bodyStart]) == "" {
		bodyStart++
	}
	body := ""
	if bodyStart < len(lines) {
		body = strings.Join(lines[bodyStart:], "\n")
	}
	return Template{Subject: subject, Body: body}, nil
}

// LoadHTMLTemplate reads an HTML template; the <title> text becomes the
// subject. The body is the whole file, title included.
func LoadHTMLTemplate(path string) (Template, failure.ClassifiedError) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Template{}, &RenderError{
			Message:   fmt.Sprintf("cannot read %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseTemplateRead,
		}
	}

	subject := ""
	if m := titlePattern.FindStringSubmatch(string(raw)); m != nil {
		subject = strings.TrimSpace(m[1])
	}
	return Template{Subject: subject, Body: string(raw)}, nil
}

// Placeholders substitutes {{KEY}} tokens from data. Unknown keys pass
// through untouched.
func Placeholders(template string, data map[string]string) string {
	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := placeholderPattern.FindStringSubmatch(token)[1]
		if value, ok := data[key]; ok {
			return value
		}
		return token
	})
}

// InjectDefaults merges run-time placeholder values under the digest
// data: sampling date, time and window. Digest-provided values always
// win.
func InjectDefaults(data map[string]string, now time.Time) map[string]string {
	now = now.UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	out := map[string]string{
		"FECHA_UTC":         now.Format("2006-01-02"),
		"HORA_MUESTREO_UTC": now.Format("15:04"),
		"VENTANA_UTC": fmt.Sprintf("%s–%s",
			midnight.Format("2006-01-02 15:04"), now.Format("2006-01-02 15:04")),
	}
	for k, v := range data {
		out[k] = v
	}
	return out
}

// Subject picks the effective subject: explicit data value, then the
// text template's, then the HTML template's, then the default.
func Subject(data map[string]string, textSubject string, htmlSubject string) string {
	if s := data["SUBJECT"]; s != "" {
		return s
	}
	if textSubject != "" {
		return textSubject
	}
	if htmlSubject != "" {
		return htmlSubject
	}
	return DefaultSubject
}

// WrapCodeBlock fences content for markdown chats. Embedded fences are
// broken with a zero-width space so they cannot close the block early.
func WrapCodeBlock(lang string, content string) string {
	safe := strings.ReplaceAll(content, "```", "``​`")
	return fmt.Sprintf("```%s\n%s\n```", lang, safe)
}

// ChunkText splits text into pieces no longer than limit, cutting at the
// last newline before the boundary when one exists.
func ChunkText(text string, limit int) []string {
	if limit <= 0 || len(text) <= limit {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(text) {
		end := start + limit
		if end > len(text) {
			end = len(text)
		}
		cut := strings.LastIndex(text[start:end], "\n")
		if cut <= 0 || end == len(text) {
			cut = end - start
		}
		chunks = append(chunks, text[start:start+cut])
		start += cut
		if start < len(text) && text[start] == '\n' {
			start++
		}
	}
	return chunks
}

// MarkdownToHTML renders a markdown digest body into HTML, used for the
// preview artifact.
func MarkdownToHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	doc := p.Parse([]byte(md))
	renderer := mdhtml.NewRenderer(mdhtml.RendererOptions{Flags: mdhtml.CommonFlags})
	return string(markdown.Render(doc, renderer))
}

// HTMLToMarkdown converts a rendered HTML digest body into markdown for
// channels that take markdown payloads.
func HTMLToMarkdown(htmlBody string) (string, failure.ClassifiedError) {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	md, err := conv.ConvertString(htmlBody)
	if err != nil {
		return "", &RenderError{
			Message:   err.Error(),
			Retryable: false,
			Cause:     ErrCauseConversionFailure,
		}
	}
	return md, nil
}
