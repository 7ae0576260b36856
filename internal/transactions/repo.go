package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/blocodev/wallet-hub/pkg/db/models"
	"github.com/blocodev/wallet-hub/pkg/enums"
)

// Repository encapsulates transaction-log persistence.
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

// Create appends an audit row inside the caller's transaction.
func (r *Repository) Create(ctx context.Context, tx *gorm.DB, row *models.Transaction) error {
	return r.conn(tx).WithContext(ctx).Create(row).Error
}

// FindByID loads one transaction.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var row models.Transaction
	err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListByWallet returns rows where the wallet is sender or receiver, newest first.
func (r *Repository) ListByWallet(ctx context.Context, walletID uuid.UUID) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("from_wallet_id = ? OR to_wallet_id = ?", walletID, walletID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// ListByCorrelation returns all rows written under one saga.
func (r *Repository) ListByCorrelation(ctx context.Context, correlationID string) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := r.db.WithContext(ctx).
		Where("correlation_id = ?", correlationID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// UpdateStatus settles a pending transaction. Zero rows means the row is
// missing or already settled.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, to enums.TransactionStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status = ?", id, enums.TransactionStatusPending).
		Update("status", to)
	return result.RowsAffected, result.Error
}
