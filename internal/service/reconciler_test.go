package service

import (
	"context"
	"testing"

	"huduma/internal/domain"
	"huduma/internal/models"
)

type reconcilerFixture struct {
	store      *fakeStore
	intents    *fakeIntentStore
	intentSvc  *IntentService
	settlement *fakeSettlement
	profiles   *fakeProfiles
	audit      *fakeAudit
	reconciler *Reconciler
}

func newReconcilerFixture() *reconcilerFixture {
	store := newFakeStore()
	intents := newFakeIntentStore()
	intentSvc := NewIntentService(intents)
	settlement := &fakeSettlement{}
	profiles := newFakeProfiles()
	audit := &fakeAudit{}
	return &reconcilerFixture{
		store:      store,
		intents:    intents,
		intentSvc:  intentSvc,
		settlement: settlement,
		profiles:   profiles,
		audit:      audit,
		reconciler: NewReconciler(intentSvc, NewWalletService(store, store), settlement, profiles, audit),
	}
}

func (f *reconcilerFixture) initiate(t *testing.T, accountID uint, cents int64, purpose string) *models.PaymentIntent {
	t.Helper()
	intent, err := f.intentSvc.Initiate(context.Background(), accountID, cents, "KES", purpose)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	return intent
}

func TestFundingSucceededCreditsOnce(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 15_000, domain.PurposeWalletFunding)

	evt := Event{
		Type:        domain.EventFundingSucceeded,
		Keys:        []string{intent.Reference},
		AmountCents: 15_000,
	}
	if err := f.reconciler.Handle(ctx, evt); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	// Same event delivered again.
	if err := f.reconciler.Handle(ctx, evt); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	if got := f.store.balance(7); got != 15_000 {
		t.Errorf("balance = %d, want 15000 (single credit)", got)
	}
	if n := f.store.entryCount(7); n != 1 {
		t.Errorf("ledger entries = %d, want 1", n)
	}
	if got := f.intents.status(intent.ID); got != domain.IntentSuccessful {
		t.Errorf("intent status = %s, want SUCCESSFUL", got)
	}
}

func TestRedeliveryCompletesFailedCredit(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 15_000, domain.PurposeWalletFunding)

	// Storage rejects the credit on the first delivery; the handler signals
	// failure so the provider redelivers.
	f.store.failCredits = 1
	evt := Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}
	if err := f.reconciler.Handle(ctx, evt); err == nil {
		t.Fatal("expected error while storage is down")
	}
	if got := f.intents.status(intent.ID); got != domain.IntentSuccessful {
		t.Fatalf("intent status = %s, want SUCCESSFUL", got)
	}

	// The redelivered event must complete the credit despite the intent
	// already being terminal.
	if err := f.reconciler.Handle(ctx, evt); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if got := f.store.balance(7); got != 15_000 {
		t.Errorf("balance after redelivery = %d, want 15000", got)
	}
	if n := f.store.entryCount(7); n != 1 {
		t.Errorf("ledger entries = %d, want 1", n)
	}
}

func TestRedeliveryCompletesFailedSettlement(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 20_000, domain.PurposeServicePayment)

	f.settlement.err = errStorageDown
	evt := Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}
	if err := f.reconciler.Handle(ctx, evt); err == nil {
		t.Fatal("expected error while the booking service is down")
	}

	f.settlement.err = nil
	if err := f.reconciler.Handle(ctx, evt); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(f.settlement.calls) != 1 {
		t.Fatalf("settlement calls = %d, want 1", len(f.settlement.calls))
	}
}

func TestFailedAfterSucceededKeepsCredit(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 15_000, domain.PurposeWalletFunding)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}); err != nil {
		t.Fatalf("succeeded: %v", err)
	}
	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingFailed, Keys: []string{intent.Reference}, FailReason: "timeout"}); err != nil {
		t.Fatalf("late failure: %v", err)
	}

	if got := f.store.balance(7); got != 15_000 {
		t.Errorf("balance = %d, want 15000 (no clawback)", got)
	}
	if got := f.intents.status(intent.ID); got != domain.IntentSuccessful {
		t.Errorf("intent status = %s, want SUCCESSFUL", got)
	}
}

func TestSucceededAfterFailedStaysFailed(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 15_000, domain.PurposeWalletFunding)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingFailed, Keys: []string{intent.Reference}, FailReason: "declined"}); err != nil {
		t.Fatalf("failed: %v", err)
	}
	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}); err != nil {
		t.Fatalf("late success: %v", err)
	}

	if got := f.store.balance(7); got != 0 {
		t.Errorf("balance = %d, want 0 (terminal failure wins)", got)
	}
	if got := f.intents.status(intent.ID); got != domain.IntentFailed {
		t.Errorf("intent status = %s, want FAILED", got)
	}
}

func TestRequiresActionNeverCredits(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 15_000, domain.PurposeWalletFunding)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingRequiresAction, Keys: []string{intent.Reference}, Details: `{"action":"pin"}`}); err != nil {
		t.Fatalf("requires action: %v", err)
	}
	if got := f.store.balance(7); got != 0 {
		t.Errorf("balance = %d, want 0", got)
	}
	if got := f.intents.status(intent.ID); got != domain.IntentPendingAction {
		t.Errorf("intent status = %s, want PENDING_ACTION", got)
	}
}

func TestUnresolvableEventDroppedAndAudited(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{"no-such-key"}}); err != nil {
		t.Fatalf("expected acknowledged drop, got %v", err)
	}
	actions := f.audit.actions()
	if len(actions) != 1 || actions[0] != "webhook_dropped" {
		t.Errorf("audit actions = %v, want [webhook_dropped]", actions)
	}
}

func TestAmbiguousKeysDroppedWithoutCredit(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	a := f.initiate(t, 1, 1_000, domain.PurposeWalletFunding)
	b := f.initiate(t, 2, 2_000, domain.PurposeWalletFunding)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{a.Reference, b.Reference}}); err != nil {
		t.Fatalf("expected acknowledged drop, got %v", err)
	}
	if f.store.balance(1) != 0 || f.store.balance(2) != 0 {
		t.Error("ambiguous event must not credit anyone")
	}
	if f.intents.status(a.ID) != domain.IntentInitiated || f.intents.status(b.ID) != domain.IntentInitiated {
		t.Error("ambiguous event must not move either intent")
	}
}

func TestServicePaymentSettlesInsteadOfCrediting(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	intent := f.initiate(t, 7, 20_000, domain.PurposeServicePayment)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}); err != nil {
		t.Fatalf("succeeded: %v", err)
	}
	if got := f.store.balance(7); got != 0 {
		t.Errorf("balance = %d, want 0 (money settles at the booking)", got)
	}
	if len(f.settlement.calls) != 1 {
		t.Fatalf("settlement calls = %d, want 1", len(f.settlement.calls))
	}
	call := f.settlement.calls[0]
	if call.accountID != 7 || call.reference != intent.Reference || call.amountCents != 20_000 {
		t.Errorf("settlement call = %+v", call)
	}
}

func TestSettlementFailureSignalsRedelivery(t *testing.T) {
	f := newReconcilerFixture()
	f.settlement.err = errStorageDown
	ctx := context.Background()
	intent := f.initiate(t, 7, 20_000, domain.PurposeServicePayment)

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventFundingSucceeded, Keys: []string{intent.Reference}}); err == nil {
		t.Fatal("expected error so the provider redelivers")
	}
}

func TestPayoutAccountUpdateFlipsEligibility(t *testing.T) {
	f := newReconcilerFixture()
	ctx := context.Background()
	f.profiles.byAccount[7] = &models.PayoutProfile{AccountID: 7, ProviderAccountRef: "acct_123", PayoutsEnabled: true}

	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventPayoutAccountUpdated, ProviderAccountRef: "acct_123", PayoutsEnabled: false}); err != nil {
		t.Fatalf("account update: %v", err)
	}
	p, _ := f.profiles.ByAccount(ctx, 7)
	if p.PayoutsEnabled {
		t.Error("payouts should be disabled after update")
	}

	// Unknown ref is dropped, not an error.
	if err := f.reconciler.Handle(ctx, Event{Type: domain.EventPayoutAccountUpdated, ProviderAccountRef: "acct_unknown", PayoutsEnabled: true}); err != nil {
		t.Fatalf("unknown ref: %v", err)
	}
}
