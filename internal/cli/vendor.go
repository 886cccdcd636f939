package cmd

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"

	"github.com/rohmanhakim/status-digest/internal/capture"
	"github.com/rohmanhakim/status-digest/internal/config"
	"github.com/rohmanhakim/status-digest/internal/digest"
	"github.com/rohmanhakim/status-digest/internal/extract"
	"github.com/rohmanhakim/status-digest/internal/fetch"
	"github.com/rohmanhakim/status-digest/internal/normalizer"
	"github.com/rohmanhakim/status-digest/internal/notify"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/internal/storage"
	"github.com/rohmanhakim/status-digest/internal/vendors"
	"github.com/rohmanhakim/status-digest/pkg/retry"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

var (
	vendorSlug     string
	exportJSON     string
	vendorChannels string
	headless       bool
)

// browserUserAgent mirrors what the status pages see from a real
// browser; several of them serve reduced markup to generic clients.
const browserUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

var vendorCmd = &cobra.Command{
	Use:   "vendor",
	Short: "Collect one vendor's status page into a snapshot.",
	Long: `vendor fetches a single vendor's status page, extracts its component
and incident information, sends the per-vendor message through the
selected channels, and writes the canonical JSON snapshot.

Collection is best-effort: page or extraction failures degrade to a
record carrying an "(error collecting: ...)" line. The only non-zero
exit is an unknown vendor slug.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		cfg := InitConfig()
		return RunVendor(cmd.Context(), cfg, vendorSlug, exportJSON, parseChannels(vendorChannels), headless)
	},
}

func init() {
	vendorCmd.Flags().StringVar(&vendorSlug, "vendor", "", "vendor slug to collect (required)")
	vendorCmd.Flags().StringVar(&exportJSON, "export-json", "", "also write the canonical record to this path")
	vendorCmd.Flags().StringVar(&vendorChannels, "channels", "none", "channels for the per-vendor message: telegram,teams,both,none")
	vendorCmd.Flags().BoolVar(&headless, "headless", true, "present a browser user agent (disable to use the configured one)")
	vendorCmd.MarkFlagRequired("vendor")
	rootCmd.AddCommand(vendorCmd)
}

// RunVendor collects one vendor end to end. The returned error is
// non-nil only for an unknown slug; every other failure is folded into
// the record and the exit stays zero.
func RunVendor(
	ctx context.Context,
	cfg config.Config,
	slug string,
	exportPath string,
	channels []string,
	browserUA bool,
) error {
	v, err := vendors.BySlug(slug)
	if err != nil {
		return err
	}

	recorder := newRecorder()
	rc := runctx.New(cfg.OutputDir(), cfg.CaptureMode(), &recorder).SetVendor(v.Slug)
	started := time.Now()

	ua := cfg.UserAgent()
	if browserUA {
		ua = browserUserAgent
	}
	client := resty.New().SetTimeout(cfg.Timeout())
	fetcher := fetch.NewHTMLFetcher(client)
	retryParam := retryParamFromConfig(cfg)

	facts, collectErr, errCount := collectVendor(ctx, rc, v, fetcher, client, ua, retryParam)

	rec := normalizer.Normalize(rc, v, normalizer.Input{
		Legacy:       &facts,
		CollectError: collectErr,
	})

	message := digest.Message(rec)
	notifiers := vendorNotifiers(channels, cfg, rc.CaptureMode)
	for _, n := range notifiers {
		if serr := n.Send(ctx, rc, message, v.MessageTitle); serr != nil {
			errCount++
		}
	}

	sink := storage.NewLocalSink(&recorder)
	if _, werr := sink.WriteSnapshot(rc, rec); werr != nil {
		errCount++
	}
	if exportPath != "" && exportPath != storage.SnapshotPath(cfg.OutputDir(), v.Slug) {
		if _, werr := sink.Export(exportPath, rec); werr != nil {
			errCount++
		}
	}

	recorder.RecordFinalRunStats(1, errCount, rec.Counts.Active, time.Since(started))
	return nil
}

// collectVendor runs fetch plus extraction for one vendor and reports
// how many steps failed. Multi-site vendors merge per-site facts; a
// fetch failure still reaches Extract with an empty page so a vendor
// with a Statuspage fallback can recover through the REST summary.
func collectVendor(
	ctx context.Context,
	rc runctx.RunContext,
	v vendors.Vendor,
	fetcher fetch.HTMLFetcher,
	client *resty.Client,
	ua string,
	retryParam retry.RetryParam,
) (extract.RawVendorFacts, string, int) {
	var collectErr string
	errCount := 0

	if len(v.Sites) > 0 {
		var parts []extract.RawVendorFacts
		for _, site := range v.Sites {
			param := fetch.NewFetchParam(site.URL, ua, string(v.Strategy))
			page, ferr := fetcher.Fetch(ctx, rc, param, retryParam)
			if ferr != nil {
				errCount++
				if collectErr == "" {
					collectErr = ferr.Error()
				}
				continue
			}
			siteFacts, xerr := extract.ForSite(v, site).Extract(rc, page.Source())
			if xerr != nil {
				errCount++
				if collectErr == "" {
					collectErr = xerr.Error()
				}
				continue
			}
			parts = append(parts, siteFacts)
		}
		merged := extract.MergeFacts(v.Name, parts...)
		if len(parts) > 0 {
			// Partial data beats an error block in the digest.
			collectErr = ""
		}
		return merged, collectErr, errCount
	}

	source := extract.ForVendor(v, client)
	pageSource := ""
	fetchErrMsg := ""
	if v.PageURL != "" && v.Strategy != vendors.StrategyStatuspageAPI {
		param := fetch.NewFetchParam(v.PageURL, ua, string(v.Strategy))
		page, ferr := fetcher.Fetch(ctx, rc, param, retryParam)
		if ferr != nil {
			errCount++
			fetchErrMsg = ferr.Error()
		} else {
			pageSource = page.Source()
		}
	}

	facts, xerr := source.Extract(rc, pageSource)
	if xerr != nil {
		errCount++
		collectErr = xerr.Error()
		if fetchErrMsg != "" {
			collectErr = fetchErrMsg
		}
	} else if fetchErrMsg != "" && factsAreEmpty(facts) {
		collectErr = fetchErrMsg
	}
	return facts, collectErr, errCount
}

func factsAreEmpty(facts extract.RawVendorFacts) bool {
	return len(facts.ComponentLines) == 0 &&
		len(facts.IncidentLines) == 0 &&
		facts.Banner == ""
}

// vendorNotifiers builds the delivery set for a vendor run. With no
// channel selected but capture mode on, a capture-only sink keeps the
// transcript that the aggregate step prefers.
func vendorNotifiers(channels []string, cfg config.Config, captureOn bool) []notify.Notifier {
	var out []notify.Notifier
	for _, ch := range channels {
		switch ch {
		case config.ChannelTelegram:
			out = append(out, notify.NewTelegramNotifier(cfg.TelegramToken(), cfg.TelegramChatID(), nil))
		case config.ChannelTeams:
			out = append(out, notify.NewTeamsNotifier(cfg.TeamsWebhookURL(), nil))
		}
	}
	if len(out) == 0 && captureOn {
		out = append(out, &notify.CaptureOnlyNotifier{Channel: capture.ChannelTelegram})
	}
	return out
}

func retryParamFromConfig(cfg config.Config) retry.RetryParam {
	return retry.NewRetryParam(
		cfg.BaseDelay(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		timeutil.NewBackoffParam(
			cfg.BackoffInitialDuration(),
			cfg.BackoffMultiplier(),
			cfg.BackoffMaxDuration(),
		),
	)
}
