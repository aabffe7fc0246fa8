package service

import (
	"context"
	"log"

	"huduma/internal/domain"
	"huduma/internal/models"
	"huduma/internal/repository"
)

// WalletStore persists wallets and applies balance mutations atomically.
// Implementations must serialize mutations per account and commit the ledger
// entry with the balance update as one unit.
type WalletStore interface {
	GetOrCreate(ctx context.Context, accountID uint) (*models.Wallet, error)
	ApplyMutation(ctx context.Context, m repository.LedgerMutation) (*models.LedgerEntry, bool, error)
}

// LedgerStore reads the append-only journal.
type LedgerStore interface {
	ByReference(ctx context.Context, reference string) (*models.LedgerEntry, error)
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error)
	SumByCategory(ctx context.Context, accountID uint) ([]models.CategorySum, error)
}

// BalanceMutator is the credit/debit surface the transfer engine, withdrawal
// gate, and webhook reconciler build on.
type BalanceMutator interface {
	Credit(ctx context.Context, accountID uint, amountCents int64, category, reference, metadata string) (*models.LedgerEntry, error)
	Debit(ctx context.Context, accountID uint, amountCents int64, category, reference, metadata string) (*models.LedgerEntry, error)
}

// WalletService is the balance mutation engine. Every mutation is guarded by
// the platform-wide reference: replaying a reference returns the original
// entry and writes nothing.
type WalletService struct {
	wallets WalletStore
	ledger  LedgerStore
}

func NewWalletService(wallets WalletStore, ledger LedgerStore) *WalletService {
	return &WalletService{wallets: wallets, ledger: ledger}
}

var _ BalanceMutator = (*WalletService)(nil)

func (s *WalletService) Credit(ctx context.Context, accountID uint, amountCents int64, category, reference, metadata string) (*models.LedgerEntry, error) {
	return s.apply(ctx, domain.DirectionCredit, accountID, amountCents, category, reference, metadata)
}

// Debit additionally requires the resulting balance to stay non-negative;
// on violation it returns ErrInsufficientFunds and writes nothing.
func (s *WalletService) Debit(ctx context.Context, accountID uint, amountCents int64, category, reference, metadata string) (*models.LedgerEntry, error) {
	return s.apply(ctx, domain.DirectionDebit, accountID, amountCents, category, reference, metadata)
}

func (s *WalletService) apply(ctx context.Context, direction string, accountID uint, amountCents int64, category, reference, metadata string) (*models.LedgerEntry, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if !domain.ValidCategory(category) {
		return nil, ErrInvalidCategory
	}
	if reference == "" {
		return nil, ErrEmptyReference
	}
	entry, replayed, err := s.wallets.ApplyMutation(ctx, repository.LedgerMutation{
		AccountID:   accountID,
		Direction:   direction,
		AmountCents: amountCents,
		Category:    category,
		Reference:   reference,
		Metadata:    metadata,
	})
	if err != nil {
		return nil, err
	}
	if replayed {
		log.Printf("[Wallet] replayed reference=%s account=%d, returning prior entry", reference, accountID)
	}
	return entry, nil
}

// Balance returns the wallet for an account, creating it lazily.
func (s *WalletService) Balance(ctx context.Context, accountID uint) (*models.Wallet, error) {
	return s.wallets.GetOrCreate(ctx, accountID)
}

func (s *WalletService) Transactions(ctx context.Context, accountID uint, limit int) ([]models.LedgerEntry, error) {
	return s.ledger.ListByAccount(ctx, accountID, limit)
}

// Summary aggregates the account's ledger per category for dashboard display.
func (s *WalletService) Summary(ctx context.Context, accountID uint) ([]models.CategorySum, error) {
	return s.ledger.SumByCategory(ctx, accountID)
}
