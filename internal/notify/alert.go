package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/scheduler"
)

// AlertDeliverer sends firing birthday alerts to every enabled webhook.
// With no webhooks enabled it hands the alert to Fallback.
type AlertDeliverer struct {
	Dispatcher *Dispatcher
	Fallback   scheduler.Deliverer
}

var _ scheduler.Deliverer = (*AlertDeliverer)(nil)

// AlertNotification builds the webhook notification for an alert.
func AlertNotification(alert scheduler.Alert) *model.Notification {
	n := model.NewNotification(model.NotifyBirthday, alert.Title, alert.Body).
		WithColor(model.ColorBirthday).
		WithField("Date", fmt.Sprintf("%s %d", alert.Trigger.Month, alert.Trigger.Day))
	if alert.Name != "" {
		n.WithField("Name", alert.Name)
	}
	return n
}

// Deliver sends the alert. It fails when listing webhooks fails or when
// any webhook rejects the notification.
func (d *AlertDeliverer) Deliver(ctx context.Context, alert scheduler.Alert) error {
	results, err := d.Dispatcher.Send(ctx, AlertNotification(alert))
	if err != nil {
		return err
	}
	if len(results) == 0 {
		if d.Fallback == nil {
			return nil
		}
		return d.Fallback.Deliver(ctx, alert)
	}

	var errs []error
	for _, r := range results {
		if r.Error != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.WebhookName, r.Error))
		}
	}
	return errors.Join(errs...)
}
