package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Address is an on-chain address attached to a wallet on one network.
type Address struct {
	ID        uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID  uuid.UUID           `gorm:"column:wallet_id;type:uuid;not null;index:addresses_wallet_id_idx;uniqueIndex:addresses_wallet_network_value_key"`
	NetworkID uuid.UUID           `gorm:"column:network_id;type:uuid;not null;uniqueIndex:addresses_wallet_network_value_key"`
	Value     string              `gorm:"column:value;not null;uniqueIndex:addresses_wallet_network_value_key"`
	Status    enums.AddressStatus `gorm:"column:status;type:text;not null;default:'active'"`
	Imported  bool                `gorm:"column:imported;not null;default:false"`
	CreatedAt time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (Address) TableName() string { return "addresses" }
