package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"huduma/internal/domain"
	"huduma/internal/models"
)

var (
	ErrInsufficientFunds = errors.New("insufficient wallet balance")
	ErrWalletInactive    = errors.New("wallet is not active")
)

// LedgerMutation describes one balance change to apply atomically.
type LedgerMutation struct {
	AccountID   uint
	Direction   string // domain.DirectionCredit or domain.DirectionDebit
	AmountCents int64
	Category    string
	Reference   string
	Metadata    string
}

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetOrCreate returns the wallet for an account, creating it lazily on first
// reference. Safe to call concurrently; the unique index on account_id makes
// creation idempotent.
func (r *WalletRepository) GetOrCreate(ctx context.Context, accountID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.Wallet{AccountID: accountID, Currency: "KES", IsActive: true}
	if err := r.db.WithContext(ctx).Create(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if ferr := r.db.WithContext(ctx).Where("account_id = ?", accountID).First(&w).Error; ferr == nil {
				return &w, nil
			}
		}
		return nil, err
	}
	return &w, nil
}

// ApplyMutation performs the read-balance -> compute -> write-balance sequence
// and the ledger append as one transaction, with the wallet row locked FOR
// UPDATE so mutations against the same account serialize. Returns the written
// entry, or the prior entry with replayed=true when the reference was already
// applied. No partial state survives an error.
func (r *WalletRepository) ApplyMutation(ctx context.Context, m LedgerMutation) (*models.LedgerEntry, bool, error) {
	var (
		entry    *models.LedgerEntry
		replayed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		w, err := lockOrCreateWallet(tx, m.AccountID)
		if err != nil {
			return err
		}
		if !w.IsActive {
			return ErrWalletInactive
		}

		var prior models.LedgerEntry
		err = tx.Where("reference = ?", m.Reference).First(&prior).Error
		if err == nil {
			entry = &prior
			replayed = true
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		prev := w.BalanceCents
		curr := prev + m.AmountCents
		if m.Direction == domain.DirectionDebit {
			curr = prev - m.AmountCents
			if curr < 0 {
				return ErrInsufficientFunds
			}
		}

		e := models.LedgerEntry{
			AccountID:        m.AccountID,
			Direction:        m.Direction,
			AmountCents:      m.AmountCents,
			PrevBalanceCents: prev,
			CurrBalanceCents: curr,
			Category:         m.Category,
			Reference:        m.Reference,
			Confirmed:        true,
			Metadata:         m.Metadata,
		}
		if err := tx.Create(&e).Error; err != nil {
			// The unique index on reference is the authoritative duplicate
			// guard; a concurrent writer may have claimed it first.
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if ferr := tx.Where("reference = ?", m.Reference).First(&prior).Error; ferr == nil {
					entry = &prior
					replayed = true
					return nil
				}
			}
			return err
		}
		if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).
			Update("balance_cents", curr).Error; err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return entry, replayed, nil
}

func lockOrCreateWallet(tx *gorm.DB, accountID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("account_id = ?", accountID).First(&w).Error
	if err == nil {
		return &w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = models.Wallet{AccountID: accountID, Currency: "KES", IsActive: true}
	if err := tx.Create(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			if ferr := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("account_id = ?", accountID).First(&w).Error; ferr == nil {
				return &w, nil
			}
		}
		return nil, err
	}
	return &w, nil
}
