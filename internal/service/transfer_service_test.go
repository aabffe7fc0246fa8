package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"huduma/internal/domain"
)

func newTestTransferService() (*TransferService, *fakeStore, *fakeAudit) {
	store := newFakeStore()
	audit := &fakeAudit{}
	svc := NewTransferService(NewWalletService(store, store), audit)
	svc.backoff = 0
	return svc, store, audit
}

func fund(t *testing.T, store *fakeStore, accountID uint, cents int64) {
	t.Helper()
	wallet := NewWalletService(store, store)
	if _, err := wallet.Credit(context.Background(), accountID, cents, domain.CategoryDeposit, "seed-"+string(rune('0'+accountID)), ""); err != nil {
		t.Fatalf("seed account %d: %v", accountID, err)
	}
}

func TestTransferMovesBothLegs(t *testing.T) {
	svc, store, _ := newTestTransferService()
	fund(t, store, 1, 10_000)

	res, err := svc.Transfer(context.Background(), 1, 2, 4_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.DebitEntry == nil || res.CreditEntry == nil {
		t.Fatal("expected both ledger entries")
	}
	if res.DebitEntry.Reference != res.Reference+"-debit" {
		t.Errorf("debit reference = %s", res.DebitEntry.Reference)
	}
	if got := store.balance(1); got != 6_000 {
		t.Errorf("sender balance = %d, want 6000", got)
	}
	if got := store.balance(2); got != 4_000 {
		t.Errorf("receiver balance = %d, want 4000", got)
	}
}

func TestTransferRejectsSameAccount(t *testing.T) {
	svc, store, _ := newTestTransferService()
	fund(t, store, 1, 10_000)

	if _, err := svc.Transfer(context.Background(), 1, 1, 1_000); !errors.Is(err, ErrSameAccount) {
		t.Fatalf("err = %v, want ErrSameAccount", err)
	}
	if got := store.balance(1); got != 10_000 {
		t.Errorf("balance = %d, want 10000", got)
	}
}

func TestTransferInsufficientFundsLeavesReceiverUntouched(t *testing.T) {
	svc, store, _ := newTestTransferService()
	fund(t, store, 1, 1_000)

	if _, err := svc.Transfer(context.Background(), 1, 2, 5_000); !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("err = %v, want ErrInsufficientFunds", err)
	}
	if got := store.balance(2); got != 0 {
		t.Errorf("receiver balance = %d, want 0", got)
	}
}

func TestTransferRetriesCreditLeg(t *testing.T) {
	svc, store, _ := newTestTransferService()
	fund(t, store, 1, 10_000)
	store.failCredits = 2 // first two credit attempts fail, third lands

	res, err := svc.Transfer(context.Background(), 1, 2, 4_000)
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if res.CreditEntry == nil {
		t.Fatal("expected credit entry after retries")
	}
	if got := store.balance(2); got != 4_000 {
		t.Errorf("receiver balance = %d, want 4000", got)
	}
}

func TestTransferExhaustedRetriesKeepsDebitAndAudits(t *testing.T) {
	svc, store, audit := newTestTransferService()
	fund(t, store, 1, 10_000)
	store.failCredits = 10 // outlasts every retry

	res, err := svc.Transfer(context.Background(), 1, 2, 4_000)
	if err == nil {
		t.Fatal("expected error when credit leg never lands")
	}
	if res == nil || res.DebitEntry == nil {
		t.Fatal("debit leg must be reported even when credit is pending")
	}
	if got := store.balance(1); got != 6_000 {
		t.Errorf("sender balance = %d, want 6000 (debit stands)", got)
	}
	if got := store.balance(2); got != 0 {
		t.Errorf("receiver balance = %d, want 0", got)
	}
	found := false
	for _, a := range audit.actions() {
		if a == "transfer_credit_pending" {
			found = true
		}
	}
	if !found {
		t.Error("expected transfer_credit_pending audit record")
	}
}

func TestConcurrentSpendsRespectBalance(t *testing.T) {
	svc, store, _ := newTestTransferService()
	wallet := NewWalletService(store, store)
	fund(t, store, 1, 5_000)

	// A transfer and a direct debit race for a balance that covers only one.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = svc.Transfer(context.Background(), 1, 2, 4_000)
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = wallet.Debit(context.Background(), 1, 4_000, domain.CategoryWithdrawal, "race-wd", "")
	}()
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			if !errors.Is(err, ErrInsufficientFunds) {
				t.Errorf("unexpected error: %v", err)
			}
			failures++
		}
	}
	if failures != 1 {
		t.Errorf("failures = %d, want exactly 1", failures)
	}
	if got := store.balance(1); got != 1_000 {
		t.Errorf("sender balance = %d, want 1000", got)
	}
}
