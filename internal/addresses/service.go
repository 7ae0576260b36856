package addresses

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/internal/networks"
	"github.com/blocodev/wallet-hub/internal/wallets"
	"github.com/blocodev/wallet-hub/pkg/db"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/validate"
)

// AttachAddressInput binds an on-chain address to a wallet on one network.
type AttachAddressInput struct {
	WalletID  uuid.UUID `json:"walletId" validate:"required"`
	NetworkID uuid.UUID `json:"networkId" validate:"required"`
	Value     string    `json:"value" validate:"required,max=128"`
	// Imported marks addresses brought in from an external keystore.
	Imported bool `json:"imported"`
}

// ServiceParams groups dependencies for the address service.
type ServiceParams struct {
	Repo        *Repository
	WalletRepo  *wallets.Repository
	NetworkRepo *networks.Repository
}

// Service manages the addresses attached to wallets.
type Service interface {
	Attach(ctx context.Context, input AttachAddressInput) (*models.Address, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Address, error)
	ListByWallet(ctx context.Context, walletID uuid.UUID, status *enums.AddressStatus) ([]models.Address, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, to enums.AddressStatus) error
	Archive(ctx context.Context, id uuid.UUID) error
	Validate(ctx context.Context, value string, networkID *uuid.UUID) (*ValidationResult, error)
}

// ValidationResult reports whether an address value parses as a known
// encoding and whether that encoding fits the given network.
type ValidationResult struct {
	Valid             bool          `json:"valid"`
	Value             string        `json:"value"`
	Format            AddressFormat `json:"format"`
	Network           string        `json:"network,omitempty"`
	NetworkCompatible bool          `json:"networkCompatible"`
}

type service struct {
	repo        *Repository
	walletRepo  *wallets.Repository
	networkRepo *networks.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address repo is required")
	}
	if params.WalletRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet repo is required")
	}
	if params.NetworkRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "network repo is required")
	}
	return &service{
		repo:        params.Repo,
		walletRepo:  params.WalletRepo,
		networkRepo: params.NetworkRepo,
	}, nil
}

// Attach validates the wallet and network exist, then stores the address.
// The same value can exist once per wallet and network.
func (s *service) Attach(ctx context.Context, input AttachAddressInput) (*models.Address, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.walletRepo.FindByID(ctx, nil, input.WalletID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
		}
		return nil, err
	}
	if _, err := s.networkRepo.FindByID(ctx, input.NetworkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
		}
		return nil, err
	}

	address := models.Address{
		ID:        uuid.New(),
		WalletID:  input.WalletID,
		NetworkID: input.NetworkID,
		Value:     input.Value,
		Status:    enums.AddressStatusActive,
		Imported:  input.Imported,
	}
	if err := s.repo.Create(ctx, &address); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "address already attached")
		}
		return nil, err
	}
	return &address, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	address, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "address not found")
		}
		return nil, err
	}
	return address, nil
}

func (s *service) ListByWallet(ctx context.Context, walletID uuid.UUID, status *enums.AddressStatus) ([]models.Address, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	return s.repo.ListByWallet(ctx, walletID, status)
}

// UpdateStatus moves the address to the given lifecycle state. Setting the
// state it already has is rejected so callers notice lost updates.
func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.AddressStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "address id is required")
	}
	if !to.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown address status")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, to)
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, findErr := s.repo.FindByID(ctx, id); errors.Is(findErr, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("address already %s", to))
	}
	return nil
}

// Archive retires the address. Archived addresses stay listed for audit.
func (s *service) Archive(ctx context.Context, id uuid.UUID) error {
	return s.UpdateStatus(ctx, id, enums.AddressStatusArchived)
}

// Validate classifies an address value and, when a network is given, checks
// the encoding against it. It never mutates state.
func (s *service) Validate(ctx context.Context, value string, networkID *uuid.UUID) (*ValidationResult, error) {
	if value == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "address value is required")
	}

	format := DetectFormat(value)
	result := ValidationResult{
		Valid:  format != FormatUnknown,
		Value:  value,
		Format: format,
	}

	if networkID == nil {
		result.NetworkCompatible = result.Valid
		return &result, nil
	}

	network, err := s.networkRepo.FindByID(ctx, *networkID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
		}
		return nil, err
	}
	result.Network = network.Name
	result.NetworkCompatible = result.Valid && compatibleWithNetwork(format, network.Name)
	return &result, nil
}
