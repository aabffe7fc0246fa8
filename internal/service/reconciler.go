package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"huduma/internal/domain"
	"huduma/internal/models"
)

// Event is a provider webhook after ingress normalization. Keys carries every
// correlation identifier found in the payload, in the order the handler
// extracted them.
type Event struct {
	Type               string
	Keys               []string
	AmountCents        int64
	Currency           string
	ProviderAccountRef string
	PayoutsEnabled     bool
	FailReason         string
	Details            string
}

// SettlementCollaborator marks a service request as paid once its funding
// intent succeeds. Money for service payments moves at the collaborator, not
// in the wallet.
type SettlementCollaborator interface {
	SettlePayment(ctx context.Context, accountID uint, intentReference string, amountCents int64) error
}

// PayoutProfileStore reads and flips per-account payout eligibility.
type PayoutProfileStore interface {
	ByAccount(ctx context.Context, accountID uint) (*models.PayoutProfile, error)
	SetPayoutsEnabledByProviderRef(ctx context.Context, providerRef string, enabled bool) (bool, error)
}

// AuditStore records dropped or irregular events for operator review.
type AuditStore interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// Reconciler applies normalized provider events to intents and wallets.
// Handle is idempotent: any event may be delivered twice or out of order and
// funds are credited at most once per intent.
type Reconciler struct {
	intents    *IntentService
	wallet     BalanceMutator
	settlement SettlementCollaborator
	profiles   PayoutProfileStore
	audit      AuditStore
}

func NewReconciler(intents *IntentService, wallet BalanceMutator, settlement SettlementCollaborator, profiles PayoutProfileStore, audit AuditStore) *Reconciler {
	return &Reconciler{
		intents:    intents,
		wallet:     wallet,
		settlement: settlement,
		profiles:   profiles,
		audit:      audit,
	}
}

// Handle processes one event. A nil return acknowledges the delivery; an
// error tells the caller to signal failure so the provider redelivers.
func (r *Reconciler) Handle(ctx context.Context, evt Event) error {
	switch evt.Type {
	case domain.EventFundingSucceeded:
		return r.fundingSucceeded(ctx, evt)
	case domain.EventFundingFailed:
		return r.fundingFailed(ctx, evt)
	case domain.EventFundingRequiresAction:
		return r.fundingRequiresAction(ctx, evt)
	case domain.EventPayoutAccountUpdated:
		return r.payoutAccountUpdated(ctx, evt)
	default:
		log.Printf("[Reconciler] unhandled event type=%s, dropping", evt.Type)
		r.drop(ctx, evt, "unhandled event type")
		return nil
	}
}

func (r *Reconciler) fundingSucceeded(ctx context.Context, evt Event) error {
	intent, err := r.resolve(ctx, evt)
	if err != nil || intent == nil {
		return err
	}
	if intent.Status == domain.IntentFailed {
		log.Printf("[Reconciler] intent %s already FAILED, ignoring succeeded event", intent.Reference)
		return nil
	}
	if !intent.Terminal() {
		if evt.AmountCents != 0 && evt.AmountCents != intent.AmountCents {
			// Provider amount disagrees with what we recorded. The recorded
			// amount wins; flag it for review.
			log.Printf("[Reconciler] amount mismatch on %s: provider=%d recorded=%d", intent.Reference, evt.AmountCents, intent.AmountCents)
			r.drop(ctx, evt, fmt.Sprintf("amount mismatch on %s: provider=%d recorded=%d", intent.Reference, evt.AmountCents, intent.AmountCents))
		}
		applied, err := r.intents.MarkSuccessful(ctx, intent)
		if err != nil {
			return err
		}
		if applied && evt.Details != "" {
			if err := r.intents.SetMetadata(ctx, intent.ID, evt.Details); err != nil {
				log.Printf("[Reconciler] failed to store payload for %s: %v", intent.Reference, err)
			}
		}
	} else {
		log.Printf("[Reconciler] intent %s already SUCCESSFUL, replaying fulfilment", intent.Reference)
	}

	// Fulfilment runs on every delivery of a succeeded event, never just the
	// one that won the transition: the derived credit reference and the
	// settlement endpoint both dedupe, and a delivery after a failed
	// fulfilment attempt is the retry that completes it.
	switch intent.Purpose {
	case domain.PurposeWalletFunding:
		ref := fmt.Sprintf("intent-%d", intent.ID)
		meta := fmt.Sprintf(`{"intent_reference":%q}`, intent.Reference)
		if _, err := r.wallet.Credit(ctx, intent.AccountID, intent.AmountCents, domain.CategoryDeposit, ref, meta); err != nil {
			r.drop(ctx, evt, fmt.Sprintf("credit failed for %s: %v", intent.Reference, err))
			return fmt.Errorf("credit intent %s: %w", intent.Reference, err)
		}
		log.Printf("[Reconciler] credited %d cents to account %d for intent %s", intent.AmountCents, intent.AccountID, intent.Reference)
	case domain.PurposeServicePayment:
		if err := r.settlement.SettlePayment(ctx, intent.AccountID, intent.Reference, intent.AmountCents); err != nil {
			r.drop(ctx, evt, fmt.Sprintf("settlement failed for %s: %v", intent.Reference, err))
			return fmt.Errorf("settle intent %s: %w", intent.Reference, err)
		}
		log.Printf("[Reconciler] settled service payment for intent %s", intent.Reference)
	default:
		log.Printf("[Reconciler] intent %s succeeded with unknown purpose %s", intent.Reference, intent.Purpose)
	}
	return nil
}

func (r *Reconciler) fundingFailed(ctx context.Context, evt Event) error {
	intent, err := r.resolve(ctx, evt)
	if err != nil || intent == nil {
		return err
	}
	if intent.Terminal() {
		// A failure arriving after success never claws funds back.
		log.Printf("[Reconciler] intent %s already %s, ignoring failed event", intent.Reference, intent.Status)
		return nil
	}
	reason := evt.FailReason
	if reason == "" {
		reason = "payment failed"
	}
	if _, err := r.intents.MarkFailed(ctx, intent, reason); err != nil {
		return err
	}
	log.Printf("[Reconciler] intent %s failed: %s", intent.Reference, reason)
	return nil
}

func (r *Reconciler) fundingRequiresAction(ctx context.Context, evt Event) error {
	intent, err := r.resolve(ctx, evt)
	if err != nil || intent == nil {
		return err
	}
	if intent.Terminal() {
		return nil
	}
	return r.intents.MarkPendingAction(ctx, intent, evt.Details)
}

func (r *Reconciler) payoutAccountUpdated(ctx context.Context, evt Event) error {
	if evt.ProviderAccountRef == "" {
		r.drop(ctx, evt, "account update without provider ref")
		return nil
	}
	applied, err := r.profiles.SetPayoutsEnabledByProviderRef(ctx, evt.ProviderAccountRef, evt.PayoutsEnabled)
	if err != nil {
		return err
	}
	if !applied {
		log.Printf("[Reconciler] account update for unknown provider ref %s, dropping", evt.ProviderAccountRef)
		r.drop(ctx, evt, "unknown provider account ref "+evt.ProviderAccountRef)
		return nil
	}
	log.Printf("[Reconciler] payouts_enabled=%t for provider ref %s", evt.PayoutsEnabled, evt.ProviderAccountRef)
	return nil
}

// resolve maps the event's keys to an intent. Unmatched and ambiguous events
// are logged, audited, and acknowledged (nil, nil): redelivery will not help,
// and failing closed beats guessing.
func (r *Reconciler) resolve(ctx context.Context, evt Event) (*models.PaymentIntent, error) {
	intent, err := r.intents.ResolveByAnyKey(ctx, evt.Keys)
	if err == nil {
		return intent, nil
	}
	switch {
	case errors.Is(err, ErrNoCorrelationKey), errors.Is(err, ErrIntentNotFound):
		log.Printf("[Reconciler] no intent matches keys %v, dropping event", evt.Keys)
		r.drop(ctx, evt, fmt.Sprintf("no intent matches keys %v", evt.Keys))
		return nil, nil
	case errors.Is(err, ErrAmbiguousCorrelation):
		log.Printf("[Reconciler] keys %v resolve ambiguously, dropping event: %v", evt.Keys, err)
		r.drop(ctx, evt, fmt.Sprintf("ambiguous keys %v", evt.Keys))
		return nil, nil
	default:
		return nil, err
	}
}

func (r *Reconciler) drop(ctx context.Context, evt Event, detail string) {
	if r.audit == nil {
		return
	}
	entry := &models.AuditLog{
		Action:   "webhook_dropped",
		Resource: "payment_event",
		Detail:   fmt.Sprintf("type=%s: %s", evt.Type, detail),
	}
	if err := r.audit.Record(ctx, entry); err != nil {
		log.Printf("[Reconciler] audit write failed: %v", err)
	}
}
