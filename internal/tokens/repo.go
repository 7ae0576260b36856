package tokens

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
)

// Repository encapsulates token catalog and holding persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, token *models.Token) error {
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).First(&token, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) FindBySymbol(ctx context.Context, symbol string) (*models.Token, error) {
	var token models.Token
	err := r.db.WithContext(ctx).First(&token, "symbol = ?", symbol).Error
	if err != nil {
		return nil, err
	}
	return &token, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Token, error) {
	var rows []models.Token
	err := r.db.WithContext(ctx).Order("symbol ASC").Find(&rows).Error
	return rows, err
}

// SaveNetworks persists the updated network list for a token.
func (r *Repository) SaveNetworks(ctx context.Context, token *models.Token) error {
	return r.db.WithContext(ctx).
		Model(&models.Token{}).
		Where("id = ?", token.ID).
		Update("network_ids", token.NetworkIDs).Error
}

// CreateHolding links a wallet to a token.
func (r *Repository) CreateHolding(ctx context.Context, holding *models.WalletToken) error {
	return r.db.WithContext(ctx).Create(holding).Error
}

// DeleteHolding removes a wallet-token link and reports the rows removed.
func (r *Repository) DeleteHolding(ctx context.Context, walletID, tokenID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("wallet_id = ? AND token_id = ?", walletID, tokenID).
		Delete(&models.WalletToken{})
	return result.RowsAffected, result.Error
}

// ListHoldings returns the tokens held by a wallet.
func (r *Repository) ListHoldings(ctx context.Context, walletID uuid.UUID) ([]models.WalletToken, error) {
	var rows []models.WalletToken
	err := r.db.WithContext(ctx).
		Where("wallet_id = ?", walletID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
