package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rohmanhakim/status-digest/internal/capture"
	"github.com/rohmanhakim/status-digest/internal/metadata"
	"github.com/rohmanhakim/status-digest/internal/render"
	"github.com/rohmanhakim/status-digest/internal/runctx"
	"github.com/rohmanhakim/status-digest/pkg/failure"
	"github.com/rohmanhakim/status-digest/pkg/retry"
	"github.com/rohmanhakim/status-digest/pkg/timeutil"
)

/*
Responsibilities

- Deliver rendered payloads to Telegram and Teams
- Record every sent payload in the capture file when capture mode is on
- Retry transient delivery failures with bounded backoff

Delivery never decides run outcome by itself: a failed send surfaces as
a classified error and the command layer decides whether it is fatal
(--strict) or merely logged.

The capture write happens before the network call, exactly once per
logical payload, so a later aggregate run can rebuild the digest even
when the channel itself was down.
*/

const telegramAPIFormat = "https://api.telegram.org/bot%s/sendMessage"

// Notifier is one delivery channel.
type Notifier interface {
	// Name is the channel tag used in capture entries and logs.
	Name() string
	// Send delivers one payload, chunking internally when the channel
	// has a size limit.
	Send(ctx context.Context, rc runctx.RunContext, text string, title string) failure.ClassifiedError
}

func defaultClient() *resty.Client {
	return resty.New().SetTimeout(30 * time.Second)
}

// sendRetryParam bounds delivery retries: three attempts, short fixed
// backoff with a little jitter.
func sendRetryParam() retry.RetryParam {
	return retry.NewRetryParam(
		2*time.Second,
		500*time.Millisecond,
		time.Now().UnixNano(),
		3,
		timeutil.NewBackoffParam(2*time.Second, 2.0, 10*time.Second),
	)
}

// TelegramNotifier posts plain text through the Bot API.
type TelegramNotifier struct {
	Token   string
	ChatID  string
	BaseURL string
	Retry   retry.RetryParam
	client  *resty.Client
}

func NewTelegramNotifier(token string, chatID string, client *resty.Client) *TelegramNotifier {
	if client == nil {
		client = defaultClient()
	}
	return &TelegramNotifier{Token: token, ChatID: chatID, Retry: sendRetryParam(), client: client}
}

func (n *TelegramNotifier) Name() string { return capture.ChannelTelegram }

func (n *TelegramNotifier) Send(ctx context.Context, rc runctx.RunContext, text string, title string) failure.ClassifiedError {
	if err := capture.Append(rc, n.Name(), text); err != nil {
		return err
	}
	if n.Token == "" || n.ChatID == "" {
		// Mirror of the no-secret path: the capture already happened,
		// nothing to deliver.
		return recordSendError(rc, n.Name(), &NotifyError{
			Message:   "telegram token or chat id not configured",
			Retryable: false,
			Cause:     ErrCauseMissingCredential,
		})
	}

	endpoint := n.BaseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf(telegramAPIFormat, n.Token)
	}

	for _, chunk := range render.ChunkText(text, render.ChunkLimit) {
		payload := map[string]string{"chat_id": n.ChatID, "text": chunk}
		_, err := retry.Retry(n.Retry, func() (struct{}, failure.ClassifiedError) {
			return struct{}{}, postJSON(ctx, n.client, endpoint, payload, ErrCauseTelegramAPI)
		})
		if err != nil {
			return recordSendError(rc, n.Name(), err)
		}
	}
	return nil
}

// TeamsNotifier posts a MessageCard to an incoming webhook.
type TeamsNotifier struct {
	WebhookURL string
	Retry      retry.RetryParam
	client     *resty.Client
}

func NewTeamsNotifier(webhookURL string, client *resty.Client) *TeamsNotifier {
	if client == nil {
		client = defaultClient()
	}
	return &TeamsNotifier{WebhookURL: webhookURL, Retry: sendRetryParam(), client: client}
}

func (n *TeamsNotifier) Name() string { return capture.ChannelTeams }

func (n *TeamsNotifier) Send(ctx context.Context, rc runctx.RunContext, markdown string, title string) failure.ClassifiedError {
	captured := markdown
	if title != "" {
		captured = fmt.Sprintf("**%s**\n\n%s", title, markdown)
	}
	if err := capture.Append(rc, n.Name(), captured); err != nil {
		return err
	}
	if n.WebhookURL == "" {
		return recordSendError(rc, n.Name(), &NotifyError{
			Message:   "teams webhook not configured",
			Retryable: false,
			Cause:     ErrCauseMissingCredential,
		})
	}

	if title == "" {
		title = render.DefaultSubject
	}
	card := map[string]string{
		"@type":      "MessageCard",
		"@context":   "https://schema.org/extensions",
		"summary":    title,
		"themeColor": "2B579A",
		"title":      title,
		"text":       markdown,
	}
	_, err := retry.Retry(n.Retry, func() (struct{}, failure.ClassifiedError) {
		return struct{}{}, postJSON(ctx, n.client, n.WebhookURL, card, ErrCauseTeamsWebhook)
	})
	if err != nil {
		return recordSendError(rc, n.Name(), err)
	}
	return nil
}

// CaptureOnlyNotifier records payloads without delivering anywhere. It
// backs the per-vendor runs when no channel is configured and capture
// mode is on.
type CaptureOnlyNotifier struct {
	Channel string
}

func (n *CaptureOnlyNotifier) Name() string { return n.Channel }

func (n *CaptureOnlyNotifier) Send(_ context.Context, rc runctx.RunContext, text string, title string) failure.ClassifiedError {
	if title != "" && n.Channel == capture.ChannelTeams {
		text = fmt.Sprintf("**%s**\n\n%s", title, text)
	}
	return capture.Append(rc, n.Channel, text)
}

func postJSON(ctx context.Context, client *resty.Client, url string, body any, rejectCause NotifyErrorCause) failure.ClassifiedError {
	resp, err := client.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(body).
		Post(url)
	if err != nil {
		return &NotifyError{
			Message:   fmt.Sprintf("post failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
		}
	}
	if resp.StatusCode() >= 300 {
		detail := resp.String()
		if len(detail) > 600 {
			detail = detail[:600] + "...(truncated)"
		}
		return &NotifyError{
			Message:   fmt.Sprintf("status %d: %s", resp.StatusCode(), detail),
			Retryable: resp.StatusCode() >= 500 || resp.StatusCode() == 429,
			Cause:     rejectCause,
		}
	}
	return nil
}

func recordSendError(rc runctx.RunContext, channel string, err failure.ClassifiedError) failure.ClassifiedError {
	cause := metadata.CauseDeliveryFailure
	var notifyErr *NotifyError
	if errors.As(err, &notifyErr) {
		cause = mapNotifyErrorToMetadataCause(notifyErr)
	}
	rc.Sink.RecordError(
		time.Now(),
		"notify",
		"Notifier.Send",
		cause,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrVendor, rc.Vendor),
			metadata.NewAttr(metadata.AttrChannel, channel),
		},
	)
	return err
}
