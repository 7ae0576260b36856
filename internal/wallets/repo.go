package wallets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Repository encapsulates wallet persistence.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

// Create inserts the wallet inside the caller's transaction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, wallet *models.Wallet) error {
	return r.conn(tx).WithContext(ctx).Create(wallet).Error
}

// FindByID loads one wallet.
func (r *Repository) FindByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*models.Wallet, error) {
	var wallet models.Wallet
	err := r.conn(tx).WithContext(ctx).First(&wallet, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ListByUser returns the user's wallets newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Wallet, error) {
	var rows []models.Wallet
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// Credit adds amount to an active wallet's balance. Returns the number of rows
// matched so the caller can distinguish a missing or inactive wallet.
func (r *Repository) Credit(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount string) (int64, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND status = ?", id, enums.WalletStatusActive).
		Update("balance", gorm.Expr("balance + ?", amount))
	return result.RowsAffected, result.Error
}

// Debit subtracts amount from an active wallet when the balance covers it.
// Zero rows means the wallet is missing, inactive, or underfunded.
func (r *Repository) Debit(ctx context.Context, tx *gorm.DB, id uuid.UUID, amount string) (int64, error) {
	result := r.conn(tx).WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND status = ? AND balance >= ?", id, enums.WalletStatusActive, amount).
		Update("balance", gorm.Expr("balance - ?", amount))
	return result.RowsAffected, result.Error
}

// UpdateStatus flips the wallet status when the expected current status holds.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.WalletStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Wallet{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}
