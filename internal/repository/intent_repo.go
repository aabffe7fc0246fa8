package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"huduma/internal/domain"
	"huduma/internal/models"
)

// ErrAliasTaken indicates a correlation key already points at a different
// intent.
var ErrAliasTaken = errors.New("correlation key already bound to another intent")

type IntentRepository struct {
	db *gorm.DB
}

func NewIntentRepository(db *gorm.DB) *IntentRepository {
	return &IntentRepository{db: db}
}

// Create inserts the intent and its initial correlation aliases in one
// transaction.
func (r *IntentRepository) Create(ctx context.Context, intent *models.PaymentIntent, aliases []string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(intent).Error; err != nil {
			return err
		}
		for _, a := range aliases {
			if a == "" {
				continue
			}
			if err := tx.Create(&models.IntentAlias{Alias: a, IntentID: intent.ID}).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *IntentRepository) ByID(ctx context.Context, id uint) (*models.PaymentIntent, error) {
	var p models.PaymentIntent
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// IntentIDsByAliases returns the distinct intent ids the given keys point at.
func (r *IntentRepository) IntentIDsByAliases(ctx context.Context, keys []string) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&models.IntentAlias{}).
		Distinct("intent_id").
		Where("alias IN ?", keys).
		Pluck("intent_id", &ids).Error
	return ids, err
}

// AddAliases registers extra correlation keys for an intent. Re-adding a key
// the intent already owns is a no-op; a key owned by another intent fails.
func (r *IntentRepository) AddAliases(ctx context.Context, intentID uint, keys []string) error {
	for _, k := range keys {
		if k == "" {
			continue
		}
		err := r.db.WithContext(ctx).Create(&models.IntentAlias{Alias: k, IntentID: intentID}).Error
		if err == nil {
			continue
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.IntentAlias
			if ferr := r.db.WithContext(ctx).Where("alias = ?", k).First(&existing).Error; ferr != nil {
				return ferr
			}
			if existing.IntentID != intentID {
				return fmt.Errorf("%w: %s", ErrAliasTaken, k)
			}
			continue
		}
		return err
	}
	return nil
}

// Transition moves the intent from one of the allowed statuses to the target
// status as a single conditional update. Returns whether a row changed; a
// false result with nil error means the guard did not match (already moved).
func (r *IntentRepository) Transition(ctx context.Context, id uint, from []string, to, reason string) (bool, error) {
	updates := map[string]interface{}{"status": to}
	if reason != "" {
		updates["fail_reason"] = reason
	}
	if to == domain.IntentSuccessful || to == domain.IntentFailed {
		now := time.Now()
		updates["completed_at"] = &now
	}
	res := r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(updates)
	return res.RowsAffected > 0, res.Error
}

// SetMetadata stores the latest raw provider payload for the intent.
func (r *IntentRepository) SetMetadata(ctx context.Context, id uint, metadata string) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Update("metadata", metadata).Error
}
