package models

import (
	"time"

	"github.com/google/uuid"
)

// Network is a blockchain network a wallet can hold addresses on.
type Network struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name      string    `gorm:"column:name;not null"`
	ChainID   int64     `gorm:"column:chain_id;not null;uniqueIndex"`
	Currency  string    `gorm:"column:currency;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Network) TableName() string { return "networks" }
