package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	"github.com/blocodev/wallet-hub/pkg/logger"
)

// Service is the outbox writer. Append must run inside the same transaction as
// the aggregate mutation it documents; if that transaction rolls back, the
// record does not persist.
type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Append serializes the event payload and inserts the outbox record inside tx.
// Storage errors propagate so the caller aborts the whole unit of work.
func (s *Service) Append(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, payload any, correlationID string) (*models.OutboxEvent, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	if !eventType.IsValid() {
		return nil, fmt.Errorf("invalid event type %q", eventType)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("serialize event payload: %w", err)
	}

	row := models.OutboxEvent{
		ID:        uuid.New(),
		EventType: eventType,
		Payload:   json.RawMessage(body),
	}
	if correlationID != "" {
		row.CorrelationID = &correlationID
	}
	if err := s.repo.Insert(tx, &row); err != nil {
		return nil, err
	}

	if s.logg != nil {
		fields := map[string]any{
			"event_type": eventType,
		}
		if correlationID != "" {
			fields["correlation_id"] = correlationID
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "outbox event queued")
	}
	return &row, nil
}
