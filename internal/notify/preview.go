package notify

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/fileutil"
)

// Preview is the set of rendered artifacts a dry run writes instead of
// sending.
type Preview struct {
	Subject       string
	HTMLBlock     string
	TextBody      string
	TeamsMarkdown string
	HTMLPreview   string
}

// WritePreview materializes the preview into dir: subject.txt,
// html_block.md and, when present, text_body.txt, teams_payload.md and
// html_preview.html.
func WritePreview(rc runctx.RunContext, dir string, p Preview) failure.ClassifiedError {
	if err := fileutil.EnsureDir(dir); err != nil {
		return previewError(rc, dir, err)
	}

	files := map[string]string{
		"subject.txt":   p.Subject,
		"html_block.md": p.HTMLBlock,
	}
	if strings.TrimSpace(p.TextBody) != "" {
		files["text_body.txt"] = p.TextBody
	}
	if strings.TrimSpace(p.TeamsMarkdown) != "" {
		files["teams_payload.md"] = p.TeamsMarkdown
	}
	if strings.TrimSpace(p.HTMLPreview) != "" {
		files["html_preview.html"] = p.HTMLPreview
	}

	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := fileutil.WriteFileAtomic(path, []byte(content)); err != nil {
			return previewError(rc, path, err)
		}
		rc.Sink.RecordArtifact(metadata.ArtifactPreview, path, nil)
	}
	return nil
}

func previewError(rc runctx.RunContext, path string, cause failure.ClassifiedError) failure.ClassifiedError {
	err := &NotifyError{
		Message:   fmt.Sprintf("preview at %s: %v", path, cause),
		Retryable: false,
		Cause:     ErrCausePreviewWrite,
	}
	rc.Sink.RecordError(
		time.Now(),
		"notify",
		"notify.WritePreview",
		mapNotifyErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, path),
		},
	)
	return err
}
