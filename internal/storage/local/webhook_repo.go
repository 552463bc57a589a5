package local

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
)

// WebhookRepo provides operations for Webhook settings.
type WebhookRepo struct {
	db *gorm.DB
}

// NewWebhookRepo creates a new webhook repository.
func NewWebhookRepo(db *gorm.DB) *WebhookRepo {
	return &WebhookRepo{db: db}
}

// Create creates a new webhook.
func (r *WebhookRepo) Create(ctx context.Context, webhook *model.Webhook) error {
	if webhook.CreatedAt.IsZero() {
		webhook.CreatedAt = time.Now()
	}
	if err := r.db.WithContext(ctx).Create(webhook).Error; err != nil {
		return apperrors.NewPersistenceError("create webhook", err)
	}
	return nil
}

// Get retrieves a webhook by name.
func (r *WebhookRepo) Get(ctx context.Context, name string) (*model.Webhook, error) {
	var webhook model.Webhook
	if err := r.db.WithContext(ctx).First(&webhook, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFoundError("webhook", name)
		}
		return nil, apperrors.NewPersistenceError("get webhook", err)
	}
	return &webhook, nil
}

// List retrieves all webhooks ordered by name.
func (r *WebhookRepo) List(ctx context.Context) ([]*model.Webhook, error) {
	var webhooks []*model.Webhook
	if err := r.db.WithContext(ctx).Order("name").Find(&webhooks).Error; err != nil {
		return nil, apperrors.NewPersistenceError("list webhooks", err)
	}
	return webhooks, nil
}

// ListEnabled retrieves all enabled webhooks.
func (r *WebhookRepo) ListEnabled(ctx context.Context) ([]*model.Webhook, error) {
	var webhooks []*model.Webhook
	if err := r.db.WithContext(ctx).Where("enabled = ?", true).Order("name").Find(&webhooks).Error; err != nil {
		return nil, apperrors.NewPersistenceError("list webhooks", err)
	}
	return webhooks, nil
}

// Delete removes a webhook by name.
func (r *WebhookRepo) Delete(ctx context.Context, name string) error {
	res := r.db.WithContext(ctx).Delete(&model.Webhook{}, "name = ?", name)
	if res.Error != nil {
		return apperrors.NewPersistenceError("delete webhook", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("webhook", name)
	}
	return nil
}

// Enable enables a webhook.
func (r *WebhookRepo) Enable(ctx context.Context, name string) error {
	return r.setEnabled(ctx, name, true)
}

// Disable disables a webhook.
func (r *WebhookRepo) Disable(ctx context.Context, name string) error {
	return r.setEnabled(ctx, name, false)
}

func (r *WebhookRepo) setEnabled(ctx context.Context, name string, enabled bool) error {
	res := r.db.WithContext(ctx).Model(&model.Webhook{}).Where("name = ?", name).Update("enabled", enabled)
	if res.Error != nil {
		return apperrors.NewPersistenceError("update webhook", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("webhook", name)
	}
	return nil
}

// UpdateLastUsed updates the last used timestamp and the last error.
// A nil lastErr clears the stored error.
func (r *WebhookRepo) UpdateLastUsed(ctx context.Context, name string, lastErr error) error {
	msg := ""
	if lastErr != nil {
		msg = lastErr.Error()
	}
	res := r.db.WithContext(ctx).Model(&model.Webhook{}).Where("name = ?", name).
		Updates(map[string]any{"last_used": time.Now(), "last_error": msg})
	if res.Error != nil {
		return apperrors.NewPersistenceError("update webhook", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.NewNotFoundError("webhook", name)
	}
	return nil
}

// Exists checks if a webhook with the given name exists.
func (r *WebhookRepo) Exists(ctx context.Context, name string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&model.Webhook{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, apperrors.NewPersistenceError("check webhook", err)
	}
	return count > 0, nil
}
