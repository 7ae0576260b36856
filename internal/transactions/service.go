package transactions

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/logger"
)

// ServiceParams groups dependencies for the transactions service.
type ServiceParams struct {
	Repo *Repository
	Logg *logger.Logger
}

// Service exposes the transaction-log operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID) ([]models.Transaction, error)
	ListByCorrelation(ctx context.Context, correlationID string) ([]models.Transaction, error)
	Confirm(ctx context.Context, id uuid.UUID) error
	Fail(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transactions repo is required")
	}
	return &service{repo: params.Repo, logg: params.Logg}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "transaction not found")
		}
		return nil, err
	}
	return row, nil
}

func (s *service) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]models.Transaction, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	return s.repo.ListByWallet(ctx, walletID)
}

func (s *service) ListByCorrelation(ctx context.Context, correlationID string) ([]models.Transaction, error) {
	if correlationID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "correlation id is required")
	}
	return s.repo.ListByCorrelation(ctx, correlationID)
}

func (s *service) Confirm(ctx context.Context, id uuid.UUID) error {
	return s.settle(ctx, id, enums.TransactionStatusConfirmed)
}

func (s *service) Fail(ctx context.Context, id uuid.UUID) error {
	return s.settle(ctx, id, enums.TransactionStatusFailed)
}

func (s *service) settle(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "transaction is not pending")
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithField(ctx, "transaction_id", id.String()), "transaction settled as "+string(to))
	}
	return nil
}
