package tokens

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/internal/networks"
	"github.com/blocodev/wallet-hub/internal/wallets"
	"github.com/blocodev/wallet-hub/pkg/db"
	"github.com/blocodev/wallet-hub/pkg/db/models"
	dbtypes "github.com/blocodev/wallet-hub/pkg/db/types"
	pkgerrors "github.com/blocodev/wallet-hub/pkg/errors"
	"github.com/blocodev/wallet-hub/pkg/validate"
)

// RegisterTokenInput adds a token to the supported catalog.
type RegisterTokenInput struct {
	Symbol          string      `json:"symbol" validate:"required,max=20"`
	Name            string      `json:"name" validate:"required,max=120"`
	Decimals        int         `json:"decimals" validate:"min=0,max=36"`
	ContractAddress *string     `json:"contractAddress"`
	NetworkIDs      []uuid.UUID `json:"networkIds"`
}

// LinkTokenInput attaches a token holding to a wallet on a given network.
type LinkTokenInput struct {
	WalletID  uuid.UUID `json:"walletId" validate:"required"`
	TokenID   uuid.UUID `json:"tokenId" validate:"required"`
	NetworkID uuid.UUID `json:"networkId" validate:"required"`
}

// ServiceParams groups dependencies for the token service.
type ServiceParams struct {
	Repo        *Repository
	WalletRepo  *wallets.Repository
	NetworkRepo *networks.Repository
}

// Service manages the token catalog and per-wallet holdings.
type Service interface {
	Register(ctx context.Context, input RegisterTokenInput) (*models.Token, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Token, error)
	List(ctx context.Context) ([]models.Token, error)
	EnableOnNetwork(ctx context.Context, tokenID, networkID uuid.UUID) (*models.Token, error)
	Link(ctx context.Context, input LinkTokenInput) (*models.WalletToken, error)
	Unlink(ctx context.Context, walletID, tokenID uuid.UUID) error
	ListHoldings(ctx context.Context, walletID uuid.UUID) ([]models.WalletToken, error)
}

type service struct {
	repo        *Repository
	walletRepo  *wallets.Repository
	networkRepo *networks.Repository
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token repo is required")
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

func (s *service) Register(ctx context.Context, input RegisterTokenInput) (*models.Token, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	for _, networkID := range input.NetworkIDs {
		if _, err := s.networkRepo.FindByID(ctx, networkID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
			}
			return nil, err
		}
	}

	token := models.Token{
		ID:              uuid.New(),
		Symbol:          input.Symbol,
		Name:            input.Name,
		Decimals:        input.Decimals,
		ContractAddress: input.ContractAddress,
		NetworkIDs:      dbtypes.UUIDArray(input.NetworkIDs),
	}
	if token.Decimals == 0 {
		token.Decimals = 18
	}
	if err := s.repo.Create(ctx, &token); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "token symbol already registered")
		}
		return nil, err
	}
	return &token, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Token, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token id is required")
	}
	token, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "token not found")
		}
		return nil, err
	}
	return token, nil
}

func (s *service) List(ctx context.Context) ([]models.Token, error) {
	return s.repo.List(ctx)
}

// EnableOnNetwork adds the network to the token's supported list. Enabling an
// already supported network is a no-op.
func (s *service) EnableOnNetwork(ctx context.Context, tokenID, networkID uuid.UUID) (*models.Token, error) {
	token, err := s.Get(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	if _, err := s.networkRepo.FindByID(ctx, networkID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "network not found")
		}
		return nil, err
	}
	if token.NetworkIDs.Contains(networkID) {
		return token, nil
	}
	token.NetworkIDs = append(token.NetworkIDs, networkID)
	if err := s.repo.SaveNetworks(ctx, token); err != nil {
		return nil, err
	}
	return token, nil
}

// Link creates a zero-balance holding after checking the token is supported on
// the requested network.
func (s *service) Link(ctx context.Context, input LinkTokenInput) (*models.WalletToken, error) {
	if err := validate.Struct(input); err != nil {
		return nil, err
	}
	if _, err := s.walletRepo.FindByID(ctx, nil, input.WalletID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "wallet not found")
		}
		return nil, err
	}
	token, err := s.Get(ctx, input.TokenID)
	if err != nil {
		return nil, err
	}
	if !token.NetworkIDs.Contains(input.NetworkID) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "token is not supported on this network")
	}

	holding := models.WalletToken{
		ID:       uuid.New(),
		WalletID: input.WalletID,
		TokenID:  input.TokenID,
	}
	if err := s.repo.CreateHolding(ctx, &holding); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "token already linked to wallet")
		}
		return nil, err
	}
	return &holding, nil
}

// Unlink removes the holding. The token itself stays in the catalog.
func (s *service) Unlink(ctx context.Context, walletID, tokenID uuid.UUID) error {
	if walletID == uuid.Nil || tokenID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "wallet id and token id are required")
	}
	affected, err := s.repo.DeleteHolding(ctx, walletID, tokenID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "token is not linked to wallet")
	}
	return nil
}

func (s *service) ListHoldings(ctx context.Context, walletID uuid.UUID) ([]models.WalletToken, error) {
	if walletID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "wallet id is required")
	}
	return s.repo.ListHoldings(ctx, walletID)
}
