package wallets

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateWalletInput starts a new wallet and its saga.
type CreateWalletInput struct {
	UserID        uuid.UUID `json:"userId" validate:"required"`
	Name          string    `json:"name" validate:"max=120"`
	CorrelationID string    `json:"correlationId"`
}

// AddFundsInput credits a wallet.
type AddFundsInput struct {
	WalletID      uuid.UUID       `json:"walletId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}

// WithdrawFundsInput debits a wallet.
type WithdrawFundsInput struct {
	WalletID      uuid.UUID       `json:"walletId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}

// TransferFundsInput moves funds between two wallets atomically.
type TransferFundsInput struct {
	FromWalletID  uuid.UUID       `json:"fromWalletId" validate:"required"`
	ToWalletID    uuid.UUID       `json:"toWalletId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	CorrelationID string          `json:"correlationId"`
}
