package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"huduma/internal/models"
)

type PayoutProfileRepository struct {
	db *gorm.DB
}

func NewPayoutProfileRepository(db *gorm.DB) *PayoutProfileRepository {
	return &PayoutProfileRepository{db: db}
}

// ByAccount returns the payout profile for an account, or nil when the
// account has never been registered with the payout provider.
func (r *PayoutProfileRepository) ByAccount(ctx context.Context, accountID uint) (*models.PayoutProfile, error) {
	var p models.PayoutProfile
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPayoutsEnabledByProviderRef flips the eligibility flag for the profile
// the provider account ref points at. Returns whether a profile matched.
func (r *PayoutProfileRepository) SetPayoutsEnabledByProviderRef(ctx context.Context, providerRef string, enabled bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PayoutProfile{}).
		Where("provider_account_ref = ?", providerRef).
		Update("payouts_enabled", enabled)
	return res.RowsAffected > 0, res.Error
}
