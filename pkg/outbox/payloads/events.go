// Package payloads holds the serialized bodies of wallet lifecycle events. A
// payload is what the outbox stores and the broker carries; every payload
// echoes the correlation id so a consumer can rebuild saga context from the
// body alone when the envelope extension is missing.
package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WalletCreated struct {
	WalletID      uuid.UUID `json:"walletId"`
	UserID        uuid.UUID `json:"userId"`
	CorrelationID string    `json:"correlationId"`
}

type FundsAdded struct {
	WalletID      uuid.UUID       `json:"walletId"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}

type FundsWithdrawn struct {
	WalletID      uuid.UUID       `json:"walletId"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}

type FundsTransferred struct {
	FromWalletID  uuid.UUID       `json:"fromWalletId"`
	ToWalletID    uuid.UUID       `json:"toWalletId"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}

type SagaCompleted struct {
	CorrelationID string `json:"correlationId"`
}

type SagaFailed struct {
	CorrelationID string `json:"correlationId"`
	Reason        string `json:"reason,omitempty"`
}

// Correlated is the minimal view a consumer decodes to recover the saga
// correlation id from any payload.
type Correlated struct {
	CorrelationID string `json:"correlationId"`
}
