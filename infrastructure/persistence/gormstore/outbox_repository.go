package gormstore

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"edusync/domain/shared"
	"edusync/infrastructure/persistence"
	"edusync/infrastructure/persistence/gormstore/po"

	"gorm.io/gorm"
)

// OutboxRepository GORM implementation of the undelivered-event ledger
type OutboxRepository struct {
	db *gorm.DB
}

// NewOutboxRepository Create outbox repository
func NewOutboxRepository(db *gorm.DB) *OutboxRepository {
	return &OutboxRepository{db: db}
}

// getDB returns the transaction from context if available, otherwise the default db
func (r *OutboxRepository) getDB(ctx context.Context) *gorm.DB {
	if tx := persistence.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.db.WithContext(ctx)
}

// SaveEvent Save domain event to outbox table
func (r *OutboxRepository) SaveEvent(ctx context.Context, event shared.DomainEvent) error {
	if err := shared.ValidateEvent(event); err != nil {
		return fmt.Errorf("invalid domain event: %w", err)
	}

	outboxPO, err := po.FromDomainEvent(event)
	if err != nil {
		return fmt.Errorf("failed to convert domain event: %w", err)
	}

	if err := r.getDB(ctx).Create(outboxPO).Error; err != nil {
		return fmt.Errorf("failed to save event to outbox: %w", err)
	}
	return nil
}

// claimable matches PENDING rows and PROCESSING rows whose claim is older
// than staleBefore; a worker that died mid-delivery leaves the latter.
func claimable(db *gorm.DB, staleBefore time.Time) *gorm.DB {
	return db.Where("(status = ? OR (status = ? AND updated_at < ?))",
		string(po.EventStatusPending), string(po.EventStatusProcessing), staleBefore)
}

// GetPendingEvents returns claimable events, oldest first.
func (r *OutboxRepository) GetPendingEvents(ctx context.Context, limit int, staleBefore time.Time) ([]*po.OutboxEventPO, error) {
	var events []*po.OutboxEventPO

	err := claimable(r.getDB(ctx), staleBefore).
		Order("created_at ASC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get pending events: %w", err)
	}

	return events, nil
}

// MarkEventProcessing claims an event; a second claimer sees zero rows.
func (r *OutboxRepository) MarkEventProcessing(ctx context.Context, eventID string, staleBefore time.Time) error {
	result := claimable(r.getDB(ctx).Model(&po.OutboxEventPO{}).Where("id = ?", eventID), staleBefore).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusProcessing),
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found or already being processed: %s", eventID)
	}

	return nil
}

// MarkEventPublished Mark event as successfully published
func (r *OutboxRepository) MarkEventPublished(ctx context.Context, eventID string) error {
	result := r.getDB(ctx).Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":     string(po.EventStatusPublished),
			"last_error": "",
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("event not found: %s", eventID)
	}

	return nil
}

// MarkEventFailed increments the retry count; the event goes back to PENDING
// until maxRetries is reached and then stays FAILED.
func (r *OutboxRepository) MarkEventFailed(ctx context.Context, eventID string, maxRetries int, cause error) error {
	db := r.getDB(ctx)

	var event po.OutboxEventPO
	if err := db.First(&event, "id = ?", eventID).Error; err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	newRetryCount := event.RetryCount + 1
	newStatus := string(po.EventStatusFailed)
	if newRetryCount < maxRetries {
		newStatus = string(po.EventStatusPending) // Retry later
	}

	lastErr := ""
	if cause != nil {
		lastErr = truncateUTF8(cause.Error(), maxLastErrorBytes)
	}

	return db.Model(&po.OutboxEventPO{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"status":      newStatus,
			"retry_count": newRetryCount,
			"last_error":  lastErr,
			"updated_at":  time.Now().UTC(),
		}).Error
}

// maxLastErrorBytes matches the last_error column size.
const maxLastErrorBytes = 1024

// truncateUTF8 cuts s to at most n bytes without splitting a rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// Compile-time interface implementation check
var _ shared.OutboxRepository = (*OutboxRepository)(nil)
