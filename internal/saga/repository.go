package saga

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	apperrors "github.com/blocodev/wallet-hub/pkg/errors"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the instance for the correlation id.
func (r *Repository) Load(ctx context.Context, correlationID string) (*models.SagaInstance, error) {
	var instance models.SagaInstance
	err := r.db.WithContext(ctx).
		First(&instance, "correlation_id = ?", correlationID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.CodeNotFound, "saga instance not found")
		}
		return nil, err
	}
	return &instance, nil
}

// LoadOrCreate returns the existing instance or creates one in INITIAL. A
// concurrent create of the same correlation id is resolved by re-reading.
func (r *Repository) LoadOrCreate(ctx context.Context, correlationID string) (*models.SagaInstance, error) {
	instance, err := r.Load(ctx, correlationID)
	if err == nil {
		return instance, nil
	}
	if apperrors.As(err) == nil || apperrors.As(err).Code() != apperrors.CodeNotFound {
		return nil, err
	}

	fresh := models.SagaInstance{
		CorrelationID: correlationID,
		State:         enums.SagaStateInitial,
	}
	if createErr := r.db.WithContext(ctx).Create(&fresh).Error; createErr != nil {
		if db.IsUniqueViolation(createErr, "") {
			return r.Load(ctx, correlationID)
		}
		return nil, createErr
	}
	return &fresh, nil
}

// Transition moves the instance from one state to another with a guarded
// update and records the audit row in the same transaction. The WHERE clause
// on the current state is the durable serialization point: of two racing
// workers, exactly one matches zero rows and gets ErrConcurrentUpdate.
func (r *Repository) Transition(ctx context.Context, correlationID string, trigger enums.SagaTrigger, from, to enums.SagaState, recordHistory bool) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&models.SagaInstance{}).
			Where("correlation_id = ? AND state = ?", correlationID, from).
			Update("state", to)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrConcurrentUpdate
		}
		if !recordHistory {
			return nil
		}
		return tx.Create(&models.SagaTransition{
			ID:            uuid.New(),
			CorrelationID: correlationID,
			Trigger:       trigger,
			FromState:     from,
			ToState:       to,
		}).Error
	})
}

// History returns the applied transitions for the correlation id in order.
func (r *Repository) History(ctx context.Context, correlationID string) ([]models.SagaTransition, error) {
	var rows []models.SagaTransition
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("occurred_at ASC").
		Find(&rows).Error
	return rows, err
}
