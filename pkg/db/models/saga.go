package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blocodev/wallet-hub/pkg/enums"
)

// SagaInstance tracks one business process keyed by its correlation id.
// Exactly one state exists per instance at any time.
type SagaInstance struct {
	CorrelationID string          `gorm:"column:correlation_id;primaryKey"`
	State         enums.SagaState `gorm:"column:state;type:text;not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (SagaInstance) TableName() string { return "saga_instances" }

// SagaTransition is an audit row recording one applied state change.
type SagaTransition struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CorrelationID string            `gorm:"column:correlation_id;not null;index:saga_transitions_correlation_idx"`
	Trigger       enums.SagaTrigger `gorm:"column:trigger;type:text;not null"`
	FromState     enums.SagaState   `gorm:"column:from_state;type:text;not null"`
	ToState       enums.SagaState   `gorm:"column:to_state;type:text;not null"`
	OccurredAt    time.Time         `gorm:"column:occurred_at;autoCreateTime"`
}

func (SagaTransition) TableName() string { return "saga_transitions" }
