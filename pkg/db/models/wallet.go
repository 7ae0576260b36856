package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Wallet is the fund-holding aggregate owned by a user.
type Wallet struct {
	ID        uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index:wallets_user_id_idx"`
	Name      string             `gorm:"column:name;not null;default:''"`
	Balance   decimal.Decimal    `gorm:"column:balance;type:numeric(38,18);not null;default:0"`
	Status    enums.WalletStatus `gorm:"column:status;type:text;not null;default:'active'"`
	CreatedAt time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (Wallet) TableName() string { return "wallets" }
