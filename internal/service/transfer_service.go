package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"huduma/internal/domain"
	"huduma/internal/models"
)

// TransferResult carries both legs of a completed transfer. CreditEntry is
// nil when the credit leg is still outstanding after retries.
type TransferResult struct {
	Reference   string              `json:"reference"`
	DebitEntry  *models.LedgerEntry `json:"debit_entry"`
	CreditEntry *models.LedgerEntry `json:"credit_entry"`
}

// TransferService moves funds between two wallets as a debit on the sender
// followed by a credit on the receiver. The two legs are separate atomic
// mutations so no two account locks are ever held at once; the credit leg's
// idempotent reference makes retrying it safe.
type TransferService struct {
	wallet BalanceMutator
	audit  AuditStore

	retries int
	backoff time.Duration
}

func NewTransferService(wallet BalanceMutator, audit AuditStore) *TransferService {
	return &TransferService{
		wallet:  wallet,
		audit:   audit,
		retries: 3,
		backoff: 50 * time.Millisecond,
	}
}

func (s *TransferService) Transfer(ctx context.Context, senderID, receiverID uint, amountCents int64) (*TransferResult, error) {
	if senderID == receiverID {
		return nil, ErrSameAccount
	}
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}

	ref := "tr-" + uuid.NewString()
	meta := fmt.Sprintf(`{"sender":%d,"receiver":%d}`, senderID, receiverID)

	debit, err := s.wallet.Debit(ctx, senderID, amountCents, domain.CategoryTransfer, ref+"-debit", meta)
	if err != nil {
		return nil, err
	}

	var credit *models.LedgerEntry
	for attempt := 0; attempt < s.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				err = ctx.Err()
			case <-time.After(s.backoff):
			}
			if ctx.Err() != nil {
				break
			}
		}
		credit, err = s.wallet.Credit(ctx, receiverID, amountCents, domain.CategoryTransfer, ref+"-credit", meta)
		if err == nil {
			break
		}
		log.Printf("[Transfer] credit leg of %s failed (attempt %d): %v", ref, attempt+1, err)
	}
	if err != nil {
		// The debit stands; the credit leg is retryable under its fixed
		// reference. Flag it rather than inventing a reversal.
		s.auditPending(ctx, senderID, receiverID, ref, err)
		return &TransferResult{Reference: ref, DebitEntry: debit},
			fmt.Errorf("transfer %s: credit leg pending: %w", ref, err)
	}
	log.Printf("[Transfer] %s moved %d cents from %d to %d", ref, amountCents, senderID, receiverID)
	return &TransferResult{Reference: ref, DebitEntry: debit, CreditEntry: credit}, nil
}

func (s *TransferService) auditPending(ctx context.Context, senderID, receiverID uint, ref string, cause error) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		AccountID:  &senderID,
		Action:     "transfer_credit_pending",
		Resource:   "transfer",
		ResourceID: ref,
		Detail:     fmt.Sprintf("receiver=%d: %v", receiverID, cause),
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		log.Printf("[Transfer] audit write failed: %v", err)
	}
}
