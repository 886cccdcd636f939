package capture

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/fileutil"
)

/*
Responsibilities

- Append sent channel payloads to {OUT_DIR}/{vendor}.capture.txt
- Parse a capture file back into per-channel entries
- Pick the preferred channel transcript for normalization

Capture files are append-only within a run. Each entry is framed as

	[2025-08-24T06:10:00Z] <telegram>
	...payload...

and entries from later runs simply accumulate; the parser keeps them all
and lets the caller decide which to use.
*/

const (
	ChannelTelegram = "telegram"
	ChannelTeams    = "teams"
)

// channelPreference orders channels for PreferredText. Telegram payloads
// are plain text while Teams payloads carry markdown, so telegram wins.
var channelPreference = []string{ChannelTelegram, ChannelTeams}

var entryHeaderPattern = regexp.MustCompile(`^\[(\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}Z)\] <([a-z]+)>$`)

type Entry struct {
	Timestamp time.Time
	Channel   string
	Text      string
}

// FilePath returns the capture file location for one vendor.
func FilePath(outDir string, vendor string) string {
	return filepath.Join(outDir, vendor+".capture.txt")
}

// Append records one sent payload. It is a no-op unless the run has
// capture mode enabled.
func Append(rc runctx.RunContext, channel string, text string) failure.ClassifiedError {
	if !rc.CaptureMode {
		return nil
	}

	if err := fileutil.EnsureDir(rc.OutDir); err != nil {
		return recordError(rc, &CaptureError{
			Message:   fmt.Sprintf("cannot create %s: %v", rc.OutDir, err),
			Retryable: false,
			Cause:     ErrCauseEnsureDir,
		})
	}

	path := FilePath(rc.OutDir, rc.Vendor)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return recordError(rc, &CaptureError{
			Message:   fmt.Sprintf("cannot open %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseOpenFile,
		})
	}
	defer f.Close()

	ts := time.Now().UTC().Format("2006-01-02T15:04:05Z")
	entry := fmt.Sprintf("\n[%s] <%s>\n%s\n", ts, channel, text)
	if _, err := f.WriteString(entry); err != nil {
		return recordError(rc, &CaptureError{
			Message:   fmt.Sprintf("cannot write to %s: %v", path, err),
			Retryable: false,
			Cause:     ErrCauseWriteFile,
		})
	}
	return nil
}

// ReadFile loads and parses a vendor's capture file. A missing file is
// not an error; it returns no entries.
func ReadFile(outDir string, vendor string) []Entry {
	data, err := os.ReadFile(FilePath(outDir, vendor))
	if err != nil {
		return nil
	}
	return Parse(string(data))
}

// Parse splits capture content into entries. Lines before the first
// header are ignored. Entry text keeps interior blank lines but is
// trimmed at both ends.
func Parse(content string) []Entry {
	var entries []Entry
	var current *Entry
	var buf []string

	flush := func() {
		if current == nil {
			return
		}
		current.Text = strings.TrimSpace(strings.Join(buf, "\n"))
		entries = append(entries, *current)
		current = nil
		buf = nil
	}

	for _, line := range strings.Split(content, "\n") {
		m := entryHeaderPattern.FindStringSubmatch(strings.TrimRight(line, "\r"))
		if m != nil {
			flush()
			ts, err := time.Parse("2006-01-02T15:04:05Z", m[1])
			if err != nil {
				ts = time.Time{}
			}
			current = &Entry{Timestamp: ts, Channel: m[2]}
			continue
		}
		if current != nil {
			buf = append(buf, line)
		}
	}
	flush()
	return entries
}

// PreferredText joins the entries of the most preferred channel that has
// any, in file order, separated by blank lines. It returns "" when no
// channel matched.
func PreferredText(entries []Entry) string {
	for _, channel := range channelPreference {
		var parts []string
		for _, e := range entries {
			if e.Channel == channel && e.Text != "" {
				parts = append(parts, e.Text)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n\n")
		}
	}
	// Unknown channels still beat nothing.
	for _, e := range entries {
		if e.Text != "" {
			return e.Text
		}
	}
	return ""
}

func recordError(rc runctx.RunContext, err *CaptureError) failure.ClassifiedError {
	rc.Sink.RecordError(
		time.Now(),
		"capture",
		"capture.Append",
		mapCaptureErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrWritePath, FilePath(rc.OutDir, rc.Vendor)),
		},
	)
	return err
}
