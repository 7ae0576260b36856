package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
)

// ErrAlreadySent reports a mark-sent attempt that lost the race: another
// publisher attempt durably flipped the flag first.
var ErrAlreadySent = errors.New("outbox record already marked sent")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a record inside the caller's transaction. The record commits
// or rolls back together with the domain mutation that produced it.
func (r *Repository) Insert(tx *gorm.DB, event *models.OutboxEvent) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(event).Error
}

// FetchUnsent returns pending records in creation order.
func (r *Repository) FetchUnsent(ctx context.Context, limit int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	err := r.db.WithContext(ctx).
		Where("sent = ?", false).
		Order("created_at ASC").
		Order("id ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// MarkSent flips the sent flag exactly once. The guard on sent=false makes the
// flip monotonic: a record is never marked sent twice.
func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	now := time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"sent":    true,
			"sent_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrAlreadySent
	}
	return nil
}

// MarkFailed records a dispatch failure; the record stays eligible for retry.
func (r *Repository) MarkFailed(ctx context.Context, id uuid.UUID, cause error) error {
	return r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("id = ? AND sent = ?", id, false).
		Updates(map[string]any{
			"last_error":    cause.Error(),
			"attempt_count": gorm.Expr("attempt_count + 1"),
		}).Error
}

// CountUnsent returns the pending backlog size.
func (r *Repository) CountUnsent(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.OutboxEvent{}).
		Where("sent = ?", false).
		Count(&count).Error
	return count, err
}

// DeleteSentBefore prunes dispatched records older than the cutoff.
func (r *Repository) DeleteSentBefore(ctx context.Context, tx *gorm.DB, cutoff time.Time) (int64, error) {
	if tx == nil {
		return 0, errors.New("transaction required")
	}
	result := tx.WithContext(ctx).
		Where("sent = ? AND sent_at < ?", true, cutoff).
		Delete(&models.OutboxEvent{})
	return result.RowsAffected, result.Error
}
