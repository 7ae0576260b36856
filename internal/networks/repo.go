package networks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
)

// Repository encapsulates network catalog persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, network *models.Network) error {
	return r.db.WithContext(ctx).Create(network).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Network, error) {
	var network models.Network
	err := r.db.WithContext(ctx).First(&network, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &network, nil
}

func (r *Repository) FindByChainID(ctx context.Context, chainID int64) (*models.Network, error) {
	var network models.Network
	err := r.db.WithContext(ctx).First(&network, "chain_id = ?", chainID).Error
	if err != nil {
		return nil, err
	}
	return &network, nil
}

func (r *Repository) List(ctx context.Context) ([]models.Network, error) {
	var rows []models.Network
	err := r.db.WithContext(ctx).Order("chain_id ASC").Find(&rows).Error
	return rows, err
}
