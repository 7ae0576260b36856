package outbox

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	"github.com/blocodev/wallet-hub/pkg/outbox/payloads"
)

func TestService_AppendPersistsInCallerTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)
	ctx := context.Background()

	correlationID := uuid.NewString()
	payload := payloads.WalletCreated{
		WalletID:      uuid.New(),
		UserID:        uuid.New(),
		CorrelationID: correlationID,
	}

	var row *models.OutboxEvent
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		row, err = service.Append(ctx, tx, enums.EventWalletCreated, payload, correlationID)
		return err
	})
	require.NoError(t, err)
	require.NotNil(t, row)

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "event_type = ?", enums.EventWalletCreated).Error)
	assert.False(t, stored.Sent)
	require.NotNil(t, stored.CorrelationID)
	assert.Equal(t, correlationID, *stored.CorrelationID)

	var decoded payloads.WalletCreated
	require.NoError(t, json.Unmarshal(stored.Payload, &decoded))
	assert.Equal(t, payload.WalletID, decoded.WalletID)
	assert.Equal(t, correlationID, decoded.CorrelationID)
}

func TestService_AppendRollsBackWithTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)
	ctx := context.Background()

	sentinel := assert.AnError
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := service.Append(ctx, tx, enums.EventFundsAdded, payloads.Correlated{CorrelationID: "corr"}, "corr")
		require.NoError(t, err)
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestService_AppendRejectsMissingTransaction(t *testing.T) {
	service := NewService(NewRepository(setupOutboxTestDB(t)), nil)
	_, err := service.Append(context.Background(), nil, enums.EventWalletCreated, payloads.Correlated{}, "")
	require.Error(t, err)
}

func TestService_AppendRejectsUnknownEventType(t *testing.T) {
	db := setupOutboxTestDB(t)
	service := NewService(NewRepository(db), nil)
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := service.Append(context.Background(), tx, enums.OutboxEventType("bogus"), payloads.Correlated{}, "")
		return err
	})
	require.Error(t, err)
}
