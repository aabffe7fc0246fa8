package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"huduma/internal/models"
)

// LedgerRepository reads the append-only journal. Writes happen only through
// WalletRepository.ApplyMutation so an entry and its balance update always
// commit together.
type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// ByReference returns the entry with the given reference, or nil when none
// exists.
func (r *LedgerRepository) ByReference(ctx context.Context, reference string) (*models.LedgerEntry, error) {
	var e models.LedgerEntry
	err := r.db.WithContext(ctx).Where("reference = ?", reference).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.LedgerEntry
	err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// SumByCategory aggregates an account's entries for the summary display.
func (r *LedgerRepository) SumByCategory(ctx context.Context, accountID uint) ([]models.CategorySum, error) {
	var sums []models.CategorySum
	err := r.db.WithContext(ctx).
		Model(&models.LedgerEntry{}).
		Select("category, direction, SUM(amount_cents) AS total_cents, COUNT(*) AS count").
		Where("account_id = ?", accountID).
		Group("category, direction").
		Order("category").
		Scan(&sums).Error
	return sums, err
}
