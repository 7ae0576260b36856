package networks

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/validate"
)

// RegisterNetworkInput adds a chain to the catalog.
type RegisterNetworkInput struct {
	Name     string `json:"name" validate:"required,max=120"`
	ChainID  int64  `json:"chainId" validate:"required,gt=0"`
	Currency string `json:"currency" validate:"required,max=20"`
}

// ServiceParams groups dependencies for the network service.
type ServiceParams struct {
	Repo *Repository
}

// Service manages the network catalog wallets attach addresses to.
type Service interface {
	Register(ctx context.Context, input RegisterNetworkInput) (*models.Network, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Network, error)
	GetByChainID(ctx context.Context, chainID int64) (*models.Network, error)
	List(ctx context.Context) ([]models.Network, error)
}

type service struct {
	repo *Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "network repo is required")
	}
	return &service{repo: params.Repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterNetworkInput) (*models.Network, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	network := models.Network{
		ID:       uuid.New(),
		Name:     input.Name,
		ChainID:  input.ChainID,
		Currency: input.Currency,
	}
	if err := s.repo.Create(ctx, &network); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "chain id already registered")
		}
		return nil, err
	}
	return &network, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Network, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "network id is required")
	}
	network, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
		}
		return nil, err
	}
	return network, nil
}

func (s *service) GetByChainID(ctx context.Context, chainID int64) (*models.Network, error) {
	network, err := s.repo.FindByChainID(ctx, chainID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
		}
		return nil, err
	}
	return network, nil
}

func (s *service) List(ctx context.Context) ([]models.Network, error) {
	return s.repo.List(ctx)
}
