package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rohmanhakim/status-digest/internal/config"
	"github.com/rohmanhakim/status-digest/internal/notify"
	"github.com/rohmanhakim/status-digest/internal/render"
	"github.com/rohmanhakim/status-digest/internal/runctx"
)

var (
	sendChannels string
	dataPath     string
	textTemplate string
	htmlTemplate string
	alsoText     bool
	previewOut   string
	strict       bool
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Render the digest templates and deliver them.",
	Long: `send loads the digest data, renders the text and HTML templates,
and delivers the result to the selected channels. Telegram receives the
HTML body as a fenced code block so it can be pasted into a mail
client; Teams receives it converted to card markdown.

--preview-out writes the rendered artifacts to a directory instead of
sending. Delivery failures exit non-zero only with --strict.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg := InitConfig()
		return RunSend(cmd.Context(), cfg, SendOptions{
			Channels:     parseChannels(sendChannels),
			DataPath:     dataPath,
			TextTemplate: textTemplate,
			HTMLTemplate: htmlTemplate,
			AlsoText:     alsoText,
			PreviewOut:   previewOut,
			Strict:       strict,
		})
	},
}

func init() {
	sendCmd.Flags().StringVar(&sendChannels, "channels", "telegram,teams", "channels: telegram,teams,both,none")
	sendCmd.Flags().StringVar(&dataPath, "data", "", "digest data JSON produced by aggregate")
	sendCmd.Flags().StringVar(&textTemplate, "text-template", "", "plain-text template path")
	sendCmd.Flags().StringVar(&htmlTemplate, "html-template", "", "HTML template path")
	sendCmd.Flags().BoolVar(&alsoText, "also-text", false, "additionally send the rendered plain-text body")
	sendCmd.Flags().StringVar(&previewOut, "preview-out", "", "write rendered artifacts here instead of sending")
	sendCmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any channel delivery fails")
	rootCmd.AddCommand(sendCmd)
}

// SendOptions carries the resolved send flags.
type SendOptions struct {
	Channels     []string
	DataPath     string
	TextTemplate string
	HTMLTemplate string
	AlsoText     bool
	PreviewOut   string
	Strict       bool
}

// RunSend renders and delivers the digest. Template or data problems
// are configuration errors and always exit non-zero; channel failures
// only do so under Strict.
func RunSend(ctx context.Context, cfg config.Config, opts SendOptions) error {
	recorder := newRecorder()
	rc := runctx.New(cfg.OutputDir(), cfg.CaptureMode(), &recorder).SetVendor("digest")

	data, err := loadDigestData(opts.DataPath)
	if err != nil {
		return err
	}
	data = render.InjectDefaults(data, rc.Now)

	textPath := opts.TextTemplate
	if textPath == "" {
		textPath = cfg.TextTemplatePath()
	}
	htmlPath := opts.HTMLTemplate
	if htmlPath == "" {
		htmlPath = cfg.HTMLTemplatePath()
	}

	textTpl, terr := render.LoadTextTemplate(textPath)
	if terr != nil {
		return fmt.Errorf("loading text template: %w", terr)
	}
	htmlTpl, herr := render.LoadHTMLTemplate(htmlPath)
	if herr != nil {
		return fmt.Errorf("loading HTML template: %w", herr)
	}

	textBody := render.Placeholders(textTpl.Body, data)
	htmlBody := render.Placeholders(htmlTpl.Body, data)
	subject := render.Placeholders(render.Subject(data, textTpl.Subject, htmlTpl.Subject), data)
	htmlBlock := render.WrapCodeBlock("html", htmlBody)

	// The Teams card renders markdown, not raw HTML; convert the digest
	// body and fall back to the fenced block if conversion chokes.
	teamsBody, merr := render.HTMLToMarkdown(htmlBody)
	if merr != nil || strings.TrimSpace(teamsBody) == "" {
		teamsBody = htmlBlock
	}

	if opts.PreviewOut != "" {
		previewText := ""
		if opts.AlsoText {
			previewText = subject + "\n\n" + textBody
		}
		if perr := notify.WritePreview(rc, opts.PreviewOut, notify.Preview{
			Subject:       subject,
			HTMLBlock:     htmlBlock,
			TextBody:      previewText,
			TeamsMarkdown: teamsBody,
			HTMLPreview:   render.MarkdownToHTML(teamsBody),
		}); perr != nil {
			return fmt.Errorf("writing preview: %w", perr)
		}
		return nil
	}

	var failures []string
	for _, ch := range opts.Channels {
		switch ch {
		case config.ChannelTelegram:
			n := notify.NewTelegramNotifier(cfg.TelegramToken(), cfg.TelegramChatID(), nil)
			if serr := n.Send(ctx, rc, subject+"\n\n"+htmlBlock, subject); serr != nil {
				failures = append(failures, "telegram: "+serr.Error())
				continue
			}
			if opts.AlsoText && strings.TrimSpace(textBody) != "" {
				if serr := n.Send(ctx, rc, subject+"\n\n"+textBody, subject); serr != nil {
					failures = append(failures, "telegram: "+serr.Error())
				}
			}
		case config.ChannelTeams:
			n := notify.NewTeamsNotifier(cfg.TeamsWebhookURL(), nil)
			if serr := n.Send(ctx, rc, teamsBody, subject); serr != nil {
				failures = append(failures, "teams: "+serr.Error())
				continue
			}
			if opts.AlsoText && strings.TrimSpace(textBody) != "" {
				if serr := n.Send(ctx, rc, render.WrapCodeBlock("", textBody), subject+" (texto plano)"); serr != nil {
					failures = append(failures, "teams: "+serr.Error())
				}
			}
		}
	}

	if opts.Strict && len(failures) > 0 {
		return fmt.Errorf("delivery failed: %s", strings.Join(failures, " | "))
	}
	return nil
}

// loadDigestData reads the aggregate output. An empty path means
// render with defaults only.
func loadDigestData(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading digest data: %w", err)
	}
	data := map[string]string{}
	if err := json.Unmarshal(content, &data); err != nil {
		return nil, fmt.Errorf("parsing digest data: %w", err)
	}
	return data, nil
}
