package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/blocodev/wallet-hub/pkg/enums"
)

// OutboxEvent is a pending or dispatched notification record. It is inserted in
// the same transaction as the domain mutation it documents and never mutated
// again once sent.
type OutboxEvent struct {
	ID            uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType     enums.OutboxEventType `gorm:"column:event_type;type:text;not null"`
	Payload       json.RawMessage       `gorm:"column:payload;type:jsonb;not null"`
	CorrelationID *string               `gorm:"column:correlation_id"`
	Sent          bool                  `gorm:"column:sent;not null;default:false"`
	CreatedAt     time.Time             `gorm:"column:created_at;autoCreateTime"`
	SentAt        *time.Time            `gorm:"column:sent_at"`
	AttemptCount  int                   `gorm:"column:attempt_count;not null;default:0"`
	LastError     *string               `gorm:"column:last_error"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
