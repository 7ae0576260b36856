package wallets

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/internal/transactions"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/logger"
	"github.com/blocodev/wallet-hub/pkg/outbox"
	"github.com/blocodev/wallet-hub/pkg/outbox/payloads"
	"github.com/blocodev/wallet-hub/pkg/validate"
)

// ServiceParams groups dependencies for the wallet service.
type ServiceParams struct {
	DB              *gorm.DB
	WalletRepo      *Repository
	TransactionRepo *transactions.Repository
	Outbox          *outbox.Service
	Logg            *logger.Logger
}

// Service exposes the wallet lifecycle. Every mutating operation writes its
// outbox record in the same transaction as the domain change.
type Service interface {
	Create(ctx context.Context, input CreateWalletInput) (*models.Wallet, error)
	AddFunds(ctx context.Context, input AddFundsInput) (*models.Transaction, error)
	WithdrawFunds(ctx context.Context, input WithdrawFundsInput) (*models.Transaction, error)
	TransferFunds(ctx context.Context, input TransferFundsInput) (*models.Transaction, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Wallet, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Activate(ctx context.Context, id uuid.UUID) error
}

type service struct {
	db              *gorm.DB
	walletRepo      *Repository
	transactionRepo *transactions.Repository
	outbox          *outbox.Service
	logg            *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "db handle is required")
	}
	if params.WalletRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	if params.TransactionRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction repo is required")
	}
	if params.Outbox == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "outbox service is required")
	}
	return &service{
		db:              params.DB,
		walletRepo:      params.WalletRepo,
		transactionRepo: params.TransactionRepo,
		outbox:          params.Outbox,
		logg:            params.Logg,
	}, nil
}

// Create opens a wallet and queues the wallet_created event. The wallet and
// its event commit atomically; if either write fails, neither persists.
func (s *service) Create(ctx context.Context, input CreateWalletInput) (*models.Wallet, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	correlationID := ensureCorrelationID(input.CorrelationID)

	wallet := models.Wallet{
		ID:     uuid.New(),
		UserID: input.UserID,
		Name:   input.Name,
		Status: enums.WalletStatusActive,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.walletRepo.Create(ctx, tx, &wallet); err != nil {
			return err
		}
		_, err := s.outbox.Append(ctx, tx, enums.EventWalletCreated, payloads.WalletCreated{
			WalletID:      wallet.ID,
			UserID:        wallet.UserID,
			CorrelationID: correlationID,
		}, correlationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logOp(ctx, correlationID, wallet.ID, "wallet created")
	return &wallet, nil
}

// AddFunds credits an active wallet, records the deposit, and queues the
// funds_added event.
func (s *service) AddFunds(ctx context.Context, input AddFundsInput) (*models.Transaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}
	correlationID := ensureCorrelationID(input.CorrelationID)

	row := models.Transaction{
		ID:            uuid.New(),
		ToWalletID:    &input.WalletID,
		Amount:        input.Amount,
		Type:          enums.TransactionTypeDeposit,
		Status:        enums.TransactionStatusPending,
		CorrelationID: &correlationID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.walletRepo.Credit(ctx, tx, input.WalletID, input.Amount.String())
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.walletUnavailable(ctx, tx, input.WalletID)
		}
		if err := s.transactionRepo.Create(ctx, tx, &row); err != nil {
			return err
		}
		_, err = s.outbox.Append(ctx, tx, enums.EventFundsAdded, payloads.FundsAdded{
			WalletID:      input.WalletID,
			Amount:        input.Amount,
			CorrelationID: correlationID,
		}, correlationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logOp(ctx, correlationID, input.WalletID, "funds added")
	return &row, nil
}

// WithdrawFunds debits an active wallet when the balance covers the amount,
// records the withdrawal, and queues the funds_withdrawn event.
func (s *service) WithdrawFunds(ctx context.Context, input WithdrawFundsInput) (*models.Transaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}
	correlationID := ensureCorrelationID(input.CorrelationID)

	row := models.Transaction{
		ID:            uuid.New(),
		FromWalletID:  &input.WalletID,
		Amount:        input.Amount,
		Type:          enums.TransactionTypeWithdrawal,
		Status:        enums.TransactionStatusPending,
		CorrelationID: &correlationID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		affected, err := s.walletRepo.Debit(ctx, tx, input.WalletID, input.Amount.String())
		if err != nil {
			return err
		}
		if affected == 0 {
			return s.debitRefused(ctx, tx, input.WalletID)
		}
		if err := s.transactionRepo.Create(ctx, tx, &row); err != nil {
			return err
		}
		_, err = s.outbox.Append(ctx, tx, enums.EventFundsWithdrawn, payloads.FundsWithdrawn{
			WalletID:      input.WalletID,
			Amount:        input.Amount,
			CorrelationID: correlationID,
		}, correlationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logOp(ctx, correlationID, input.WalletID, "funds withdrawn")
	return &row, nil
}

// TransferFunds moves funds between two wallets in one transaction and queues
// the funds_transferred event.
func (s *service) TransferFunds(ctx context.Context, input TransferFundsInput) (*models.Transaction, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if err := requirePositive(input.Amount); err != nil {
		return nil, err
	}
	if input.FromWalletID == input.ToWalletID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transfer requires two distinct wallets")
	}
	correlationID := ensureCorrelationID(input.CorrelationID)

	row := models.Transaction{
		ID:            uuid.New(),
		FromWalletID:  &input.FromWalletID,
		ToWalletID:    &input.ToWalletID,
		Amount:        input.Amount,
		Type:          enums.TransactionTypeTransfer,
		Status:        enums.TransactionStatusPending,
		CorrelationID: &correlationID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debited, err := s.walletRepo.Debit(ctx, tx, input.FromWalletID, input.Amount.String())
		if err != nil {
			return err
		}
		if debited == 0 {
			return s.debitRefused(ctx, tx, input.FromWalletID)
		}
		credited, err := s.walletRepo.Credit(ctx, tx, input.ToWalletID, input.Amount.String())
		if err != nil {
			return err
		}
		if credited == 0 {
			return s.walletUnavailable(ctx, tx, input.ToWalletID)
		}
		if err := s.transactionRepo.Create(ctx, tx, &row); err != nil {
			return err
		}
		_, err = s.outbox.Append(ctx, tx, enums.EventFundsTransferred, payloads.FundsTransferred{
			FromWalletID:  input.FromWalletID,
			ToWalletID:    input.ToWalletID,
			Amount:        input.Amount,
			CorrelationID: correlationID,
		}, correlationID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logOp(ctx, correlationID, input.FromWalletID, "funds transferred")
	return &row, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Wallet, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	wallet, err := s.walletRepo.FindByID(ctx, nil, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
		}
		return nil, err
	}
	return wallet, nil
}

func (s *service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.walletRepo.ListByUser(ctx, userID)
}

// Deactivate freezes a wallet: no credits or debits succeed until reactivation.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.flipStatus(ctx, id, enums.WalletStatusActive, enums.WalletStatusInactive)
}

// Activate re-enables a frozen wallet.
func (s *service) Activate(ctx context.Context, id uuid.UUID) error {
	return s.flipStatus(ctx, id, enums.WalletStatusInactive, enums.WalletStatusActive)
}

func (s *service) flipStatus(ctx context.Context, id uuid.UUID, from, to enums.WalletStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	affected, err := s.walletRepo.UpdateStatus(ctx, id, from, to)
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, findErr := s.walletRepo.FindByID(ctx, nil, id); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is not "+string(from))
	}
	return nil
}

// walletUnavailable resolves why a credit matched no rows. The lookup rides
// the open transaction so the held write lock cannot block it.
func (s *service) walletUnavailable(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	if _, err := s.walletRepo.FindByID(ctx, tx, id); errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is not active")
}

// debitRefused resolves why a debit matched no rows, inside the caller's
// transaction for the same reason as walletUnavailable.
func (s *service) debitRefused(ctx context.Context, tx *gorm.DB, id uuid.UUID) error {
	wallet, err := s.walletRepo.FindByID(ctx, tx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "wallet not found")
	}
	if err != nil {
		return err
	}
	if wallet.Status != enums.WalletStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "wallet is not active")
	}
	return pkgerrors.New(pkgerrors.CodeConflict, "insufficient funds")
}

func (s *service) logOp(ctx context.Context, correlationID string, walletID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	logCtx := s.logg.WithCorrelationID(ctx, correlationID)
	logCtx = s.logg.WithWalletID(logCtx, walletID.String())
	s.logg.Info(logCtx, msg)
}

func ensureCorrelationID(value string) string {
	if value != "" {
		return value
	}
	return uuid.NewString()
}

func requirePositive(amount decimal.Decimal) error {
	if amount.Sign() <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	return nil
}
