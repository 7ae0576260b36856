package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Transaction is the audit row written alongside each fund movement.
type Transaction struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	FromWalletID  *uuid.UUID              `gorm:"column:from_wallet_id;type:uuid;index:transactions_from_wallet_idx"`
	ToWalletID    *uuid.UUID              `gorm:"column:to_wallet_id;type:uuid;index:transactions_to_wallet_idx"`
	Amount        decimal.Decimal         `gorm:"column:amount;type:numeric(38,18);not null"`
	Type          enums.TransactionType   `gorm:"column:type;type:text;not null"`
	Status        enums.TransactionStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	CorrelationID *string                 `gorm:"column:correlation_id"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string { return "transactions" }
