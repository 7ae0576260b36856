package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/blocodev/wallet-hub/pkg/db/types"
)

// Token is an entry in the supported-token catalog.
type Token struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Symbol          string            `gorm:"column:symbol;not null;uniqueIndex"`
	Name            string            `gorm:"column:name;not null"`
	Decimals        int               `gorm:"column:decimals;not null;default:18"`
	ContractAddress *string           `gorm:"column:contract_address"`
	NetworkIDs      dbtypes.UUIDArray `gorm:"type:uuid[];column:network_ids;not null"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (Token) TableName() string { return "tokens" }

// WalletToken links a wallet to a token it holds.
type WalletToken struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	WalletID  uuid.UUID       `gorm:"column:wallet_id;type:uuid;not null;index:wallet_tokens_wallet_id_idx;uniqueIndex:wallet_tokens_wallet_token_key"`
	TokenID   uuid.UUID       `gorm:"column:token_id;type:uuid;not null;uniqueIndex:wallet_tokens_wallet_token_key"`
	Balance   decimal.Decimal `gorm:"column:balance;type:numeric(38,18);not null;default:0"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (WalletToken) TableName() string { return "wallet_tokens" }
