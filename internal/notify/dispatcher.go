package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
)

// WebhookSource provides the configured webhooks and records their use.
// local.WebhookRepo implements it.
type WebhookSource interface {
	Get(ctx context.Context, name string) (*model.Webhook, error)
	ListEnabled(ctx context.Context) ([]*model.Webhook, error)
	UpdateLastUsed(ctx context.Context, name string, lastErr error) error
}

// Recorder observes every webhook delivery attempt.
type Recorder interface {
	ObserveDispatch(webhook string, took time.Duration, err error)
}

// Dispatcher sends notifications to webhooks.
type Dispatcher struct {
	webhooks WebhookSource
	client   *HTTPClient
	recorder Recorder
}

// NewDispatcher creates a dispatcher over webhooks. A nil client uses
// DefaultClientOptions.
func NewDispatcher(webhooks WebhookSource, client *HTTPClient) *Dispatcher {
	if client == nil {
		client = NewHTTPClient(DefaultClientOptions())
	}
	return &Dispatcher{webhooks: webhooks, client: client}
}

// SetRecorder installs a delivery observer.
func (d *Dispatcher) SetRecorder(r Recorder) {
	d.recorder = r
}

// DispatchResult contains the result of dispatching to a single webhook.
type DispatchResult struct {
	WebhookName string
	Success     bool
	StatusCode  int
	Attempts    int
	Duration    time.Duration
	Error       error
}

// Send delivers n to every enabled webhook concurrently. It returns no
// results when none are enabled.
func (d *Dispatcher) Send(ctx context.Context, n *model.Notification) ([]DispatchResult, error) {
	webhooks, err := d.webhooks.ListEnabled(ctx)
	if err != nil {
		return nil, err
	}
	if len(webhooks) == 0 {
		return nil, nil
	}

	var wg sync.WaitGroup
	results := make([]DispatchResult, len(webhooks))
	for i, wh := range webhooks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = d.sendToWebhook(ctx, n, wh)
		}()
	}
	wg.Wait()
	return results, nil
}

// SendTo delivers n to one webhook by name, enabled or not.
func (d *Dispatcher) SendTo(ctx context.Context, n *model.Notification, name string) DispatchResult {
	wh, err := d.webhooks.Get(ctx, name)
	if err != nil {
		return DispatchResult{WebhookName: name, Error: err}
	}
	return d.sendToWebhook(ctx, n, wh)
}

// Test sends a test notification to one webhook.
func (d *Dispatcher) Test(ctx context.Context, name string) DispatchResult {
	n := model.NewNotification(
		model.NotifyTest,
		"Birthdays Test",
		"This is a test notification from Birthdays. If you see this, your webhook is configured correctly!",
	).WithField("Webhook", name).WithField("Time", time.Now().Format("3:04 PM"))
	return d.SendTo(ctx, n, name)
}

// CountEnabled returns the number of enabled webhooks.
func (d *Dispatcher) CountEnabled(ctx context.Context) (int, error) {
	webhooks, err := d.webhooks.ListEnabled(ctx)
	if err != nil {
		return 0, err
	}
	return len(webhooks), nil
}

func (d *Dispatcher) sendToWebhook(ctx context.Context, n *model.Notification, wh *model.Webhook) DispatchResult {
	result := DispatchResult{WebhookName: wh.Name}
	formatter := FormatterFor(wh)

	payload, err := formatter.Format(n)
	if err != nil {
		result.Error = fmt.Errorf("format notification: %w", err)
	} else {
		sent := d.client.Send(ctx, wh.URL, formatter.ContentType(), payload)
		result.StatusCode = sent.StatusCode
		result.Attempts = sent.Attempts
		result.Duration = sent.Duration
		result.Error = sent.Error
	}
	result.Success = result.Error == nil

	if err := d.webhooks.UpdateLastUsed(ctx, wh.Name, result.Error); err != nil {
		logging.WarnContext(ctx, "webhook status not saved", logging.KeyWebhook, wh.Name, logging.KeyError, err)
	}
	if d.recorder != nil {
		d.recorder.ObserveDispatch(wh.Name, result.Duration, result.Error)
	}

	if result.Error != nil {
		logging.WarnContext(ctx, "webhook delivery failed",
			logging.KeyWebhook, wh.Name, logging.KeyURL, wh.MaskedURL(), logging.KeyError, result.Error)
	} else {
		logging.DebugContext(ctx, "webhook delivered",
			logging.KeyWebhook, wh.Name, logging.KeyStatus, result.StatusCode)
	}
	return result
}
