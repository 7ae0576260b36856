package addresses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Repository encapsulates address persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, address *models.Address) error {
	return r.db.WithContext(ctx).Create(address).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Address, error) {
	var address models.Address
	err := r.db.WithContext(ctx).First(&address, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &address, nil
}

// ListByWallet returns addresses for a wallet, optionally filtered by status.
func (r *Repository) ListByWallet(ctx context.Context, walletID uuid.UUID, status *enums.AddressStatus) ([]models.Address, error) {
	query := r.db.WithContext(ctx).Where("wallet_id = ?", walletID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.Address
	err := query.Order("created_at ASC").Find(&rows).Error
	return rows, err
}

// UpdateStatus flips the address status. Zero rows means the address is
// missing or already in the target status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.AddressStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("id = ? AND status <> ?", id, to).
		Update("status", to)
	return result.RowsAffected, result.Error
}
