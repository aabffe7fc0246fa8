package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"huduma/internal/domain"
	"huduma/internal/models"
	"huduma/pkg/payout"
)

// OTPStore holds the single outstanding withdrawal code per account.
type OTPStore interface {
	Put(ctx context.Context, rec *models.WithdrawalOTP, ttl time.Duration) error
	Peek(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error)
	Consume(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error)
}

// WithdrawalStore persists withdrawal records.
type WithdrawalStore interface {
	Create(ctx context.Context, w *models.Withdrawal) error
	Update(ctx context.Context, w *models.Withdrawal) error
	ByOrderID(ctx context.Context, orderID string) (*models.Withdrawal, error)
	ListByAccount(ctx context.Context, accountID uint, limit int) ([]models.Withdrawal, error)
}

// Notifier delivers one-time codes out of band.
type Notifier interface {
	SendWithdrawalCode(ctx context.Context, accountID uint, destination models.PayoutDestination, code string, expiresAt time.Time) error
}

// PayoutDispatcher sends money out over an external rail.
type PayoutDispatcher interface {
	Dispatch(ctx context.Context, req payout.Request) (*payout.Response, error)
}

// WalletEngine is the wallet surface the withdrawal gate needs.
type WalletEngine interface {
	BalanceMutator
	Balance(ctx context.Context, accountID uint) (*models.Wallet, error)
}

// WithdrawalService gates withdrawals behind a one-time code, then debits
// and dispatches. Only the latest issued code for an account is valid.
type WithdrawalService struct {
	wallet      WalletEngine
	withdrawals WithdrawalStore
	otps        OTPStore
	profiles    PayoutProfileStore
	dispatcher  PayoutDispatcher
	notifier    Notifier
	audit       AuditStore

	ttl time.Duration
	now func() time.Time
}

func NewWithdrawalService(wallet WalletEngine, withdrawals WithdrawalStore, otps OTPStore, profiles PayoutProfileStore, dispatcher PayoutDispatcher, notifier Notifier, audit AuditStore, ttl time.Duration) *WithdrawalService {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &WithdrawalService{
		wallet:      wallet,
		withdrawals: withdrawals,
		otps:        otps,
		profiles:    profiles,
		dispatcher:  dispatcher,
		notifier:    notifier,
		audit:       audit,
		ttl:         ttl,
		now:         time.Now,
	}
}

// Request issues a one-time code for a withdrawal. Issuing a new code
// replaces any outstanding one, so the older code stops working even while
// still inside its window.
func (s *WithdrawalService) Request(ctx context.Context, accountID uint, amountCents int64, dest models.PayoutDestination) (*models.WithdrawalOTP, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if dest.Address == "" || (dest.Channel != domain.PayoutChannelMpesa && dest.Channel != domain.PayoutChannelBank) {
		return nil, ErrInvalidDestination
	}
	profile, err := s.profiles.ByAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if profile != nil && !profile.PayoutsEnabled {
		return nil, ErrPayoutsDisabled
	}
	// Advisory only. The debit at confirm time is the real guard.
	wallet, err := s.wallet.Balance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if wallet.BalanceCents < amountCents {
		return nil, ErrInsufficientFunds
	}

	code, err := randomCode(6)
	if err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := s.now()
	rec := &models.WithdrawalOTP{
		AccountID:   accountID,
		CodeHash:    string(hash),
		AmountCents: amountCents,
		Destination: dest,
		IssuedAt:    now,
		ExpiresAt:   now.Add(s.ttl),
	}
	// Redis TTL runs past the validity window so confirm can tell an
	// expired code apart from a missing one.
	if err := s.otps.Put(ctx, rec, 2*s.ttl); err != nil {
		return nil, err
	}
	if err := s.notifier.SendWithdrawalCode(ctx, accountID, dest, code, rec.ExpiresAt); err != nil {
		log.Printf("[Withdrawal] code delivery failed for account %d: %v", accountID, err)
		return nil, err
	}
	log.Printf("[Withdrawal] code issued for account %d, amount=%d, expires %s", accountID, amountCents, rec.ExpiresAt.Format(time.RFC3339))
	return rec, nil
}

// Confirm validates the code, debits the wallet, and dispatches the payout.
// The code is consumed whether or not the payout goes out; a fresh one must
// be requested after any failure past validation.
func (s *WithdrawalService) Confirm(ctx context.Context, accountID uint, code string) (*models.Withdrawal, error) {
	rec, err := s.otps.Peek(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrInvalidOTP
	}
	if rec.Expired(s.now()) {
		s.otps.Consume(ctx, accountID)
		return nil, ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(rec.CodeHash), []byte(code)) != nil {
		// Wrong guess. The record stays so the right code still works.
		return nil, ErrInvalidOTP
	}
	// Claim the record atomically; a concurrent confirm gets nothing.
	claimed, err := s.otps.Consume(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if claimed == nil {
		return nil, ErrInvalidOTP
	}
	// A concurrent request may have replaced the record between the check
	// and the claim. The code must match the record actually claimed, or a
	// superseded code could execute the newer withdrawal.
	if bcrypt.CompareHashAndPassword([]byte(claimed.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidOTP
	}

	orderID := "wd-" + uuid.NewString()
	meta := fmt.Sprintf(`{"channel":%q,"destination":%q}`, claimed.Destination.Channel, claimed.Destination.Address)
	if _, err := s.wallet.Debit(ctx, accountID, claimed.AmountCents, domain.CategoryWithdrawal, orderID, meta); err != nil {
		return nil, err
	}

	w := &models.Withdrawal{
		AccountID:   accountID,
		OrderID:     orderID,
		AmountCents: claimed.AmountCents,
		Channel:     claimed.Destination.Channel,
		Destination: claimed.Destination.Address,
		Status:      domain.WithdrawalPending,
	}
	if err := s.withdrawals.Create(ctx, w); err != nil {
		return nil, err
	}

	resp, err := s.dispatcher.Dispatch(ctx, payout.Request{
		OrderID:     orderID,
		AmountCents: claimed.AmountCents,
		Currency:    "KES",
		Channel:     claimed.Destination.Channel,
		Destination: claimed.Destination.Address,
		AccountName: claimed.Destination.Name,
		Narrative:   "Wallet withdrawal",
	})
	if err != nil {
		// The debit stands. Reversing here could double-pay if the rail
		// actually sent the money; an operator resolves it instead.
		w.Status = domain.WithdrawalNeedsReconciliation
		w.FailReason = err.Error()
		if uerr := s.withdrawals.Update(ctx, w); uerr != nil {
			log.Printf("[Withdrawal] failed to park %s for reconciliation: %v", orderID, uerr)
		}
		s.auditRecord(ctx, accountID, "withdrawal_dispatch_unknown", orderID, err.Error())
		log.Printf("[Withdrawal] dispatch outcome unknown for %s: %v", orderID, err)
		return w, fmt.Errorf("%w: %v", ErrPayoutDispatchUnknown, err)
	}
	w.ProviderRef = resp.DispatchID
	if err := s.withdrawals.Update(ctx, w); err != nil {
		log.Printf("[Withdrawal] failed to record dispatch id for %s: %v", orderID, err)
	}
	log.Printf("[Withdrawal] %s dispatched via %s, provider ref %s", orderID, w.Channel, resp.DispatchID)
	return w, nil
}

// ResolvePayout applies the rail's asynchronous outcome for a dispatched
// withdrawal. Failed payouts refund the debit; an outcome for a withdrawal
// already resolved is ignored.
func (s *WithdrawalService) ResolvePayout(ctx context.Context, orderID string, succeeded bool, providerRef, reason string) error {
	w, err := s.withdrawals.ByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if w == nil {
		log.Printf("[Withdrawal] payout result for unknown order %s, dropping", orderID)
		s.auditRecord(ctx, 0, "payout_result_unmatched", orderID, reason)
		return nil
	}
	if w.Status == domain.WithdrawalCompleted || w.Status == domain.WithdrawalFailed {
		log.Printf("[Withdrawal] %s already %s, ignoring payout result", orderID, w.Status)
		return nil
	}
	if providerRef != "" {
		w.ProviderRef = providerRef
	}
	if succeeded {
		now := s.now()
		w.Status = domain.WithdrawalCompleted
		w.CompletedAt = &now
		log.Printf("[Withdrawal] %s completed", orderID)
		return s.withdrawals.Update(ctx, w)
	}
	w.Status = domain.WithdrawalFailed
	w.FailReason = reason
	if err := s.withdrawals.Update(ctx, w); err != nil {
		return err
	}
	// Refund the held debit under a derived reference so retried results
	// cannot refund twice.
	if _, err := s.wallet.Credit(ctx, w.AccountID, w.AmountCents, domain.CategoryRefund, orderID+"-refund", ""); err != nil {
		s.auditRecord(ctx, w.AccountID, "withdrawal_refund_failed", orderID, err.Error())
		return fmt.Errorf("refund withdrawal %s: %w", orderID, err)
	}
	log.Printf("[Withdrawal] %s failed (%s), refunded %d cents", orderID, reason, w.AmountCents)
	return nil
}

func (s *WithdrawalService) List(ctx context.Context, accountID uint, limit int) ([]models.Withdrawal, error) {
	return s.withdrawals.ListByAccount(ctx, accountID, limit)
}

func (s *WithdrawalService) auditRecord(ctx context.Context, accountID uint, action, orderID, detail string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:     action,
		Resource:   "withdrawal",
		ResourceID: orderID,
		Detail:     detail,
	}
	if accountID != 0 {
		entry.AccountID = &accountID
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("[Withdrawal] audit write failed: %v", err)
	}
}

// randomCode returns n decimal digits from crypto/rand. Bytes of 250 and
// above are rejected so every digit is equally likely.
func randomCode(n int) (string, error) {
	code := make([]byte, 0, n)
	buf := make([]byte, n)
	for len(code) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= 250 {
				continue
			}
			code = append(code, '0'+b%10)
			if len(code) == n {
				break
			}
		}
	}
	return string(code), nil
}
