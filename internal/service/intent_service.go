package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"huduma/internal/domain"
	"huduma/internal/models"
)

// IntentStore persists payment intents and their correlation aliases.
// Transition must be a single conditional update (status guard and write in
// one statement) so terminal states can never be left twice.
type IntentStore interface {
	Create(ctx context.Context, intent *models.PaymentIntent, aliases []string) error
	ByID(ctx context.Context, id uint) (*models.PaymentIntent, error)
	IntentIDsByAliases(ctx context.Context, keys []string) ([]uint, error)
	AddAliases(ctx context.Context, intentID uint, keys []string) error
	Transition(ctx context.Context, id uint, from []string, to, reason string) (bool, error)
	SetMetadata(ctx context.Context, id uint, metadata string) error
}

// IntentService tracks externally-initiated funding attempts.
type IntentService struct {
	intents IntentStore
}

func NewIntentService(intents IntentStore) *IntentService {
	return &IntentService{intents: intents}
}

// Initiate creates an intent in INITIATED state. The caller-visible
// reference doubles as the first correlation alias; provider-issued keys are
// attached after the external step via AttachKeys.
func (s *IntentService) Initiate(ctx context.Context, accountID uint, amountCents int64, currency, purpose string) (*models.PaymentIntent, error) {
	if amountCents <= 0 {
		return nil, ErrInvalidAmount
	}
	if purpose != domain.PurposeWalletFunding && purpose != domain.PurposeServicePayment {
		return nil, ErrInvalidPurpose
	}
	if currency == "" {
		currency = "KES"
	}
	intent := &models.PaymentIntent{
		AccountID:   accountID,
		AmountCents: amountCents,
		Currency:    currency,
		Status:      domain.IntentInitiated,
		Purpose:     purpose,
		Reference:   "pi-" + uuid.NewString(),
	}
	if err := s.intents.Create(ctx, intent, []string{intent.Reference}); err != nil {
		return nil, err
	}
	return intent, nil
}

// AttachKeys indexes additional provider correlation keys against the
// intent. Empty keys are skipped.
func (s *IntentService) AttachKeys(ctx context.Context, intentID uint, keys ...string) error {
	filtered := nonEmpty(keys)
	if len(filtered) == 0 {
		return nil
	}
	return s.intents.AddAliases(ctx, intentID, filtered)
}

// ResolveByAnyKey finds the intent any of the keys points at. When distinct
// keys resolve to different intents the lookup fails closed as ambiguous.
func (s *IntentService) ResolveByAnyKey(ctx context.Context, keys []string) (*models.PaymentIntent, error) {
	filtered := nonEmpty(keys)
	if len(filtered) == 0 {
		return nil, ErrNoCorrelationKey
	}
	ids, err := s.intents.IntentIDsByAliases(ctx, filtered)
	if err != nil {
		return nil, err
	}
	switch len(ids) {
	case 0:
		return nil, ErrIntentNotFound
	case 1:
		return s.intents.ByID(ctx, ids[0])
	default:
		return nil, fmt.Errorf("%w: %d intents", ErrAmbiguousCorrelation, len(ids))
	}
}

// MarkSuccessful transitions the intent into its terminal success state.
// Returns whether this call performed the transition; calling on an intent
// that is already terminal is a safe no-op.
func (s *IntentService) MarkSuccessful(ctx context.Context, intent *models.PaymentIntent) (bool, error) {
	applied, err := s.intents.Transition(ctx, intent.ID,
		[]string{domain.IntentInitiated, domain.IntentPendingAction},
		domain.IntentSuccessful, "")
	if err != nil {
		return false, err
	}
	if applied {
		intent.Status = domain.IntentSuccessful
	}
	return applied, nil
}

// MarkFailed transitions the intent into its terminal failure state, with
// the same already-terminal no-op guarantee as MarkSuccessful.
func (s *IntentService) MarkFailed(ctx context.Context, intent *models.PaymentIntent, reason string) (bool, error) {
	applied, err := s.intents.Transition(ctx, intent.ID,
		[]string{domain.IntentInitiated, domain.IntentPendingAction},
		domain.IntentFailed, reason)
	if err != nil {
		return false, err
	}
	if applied {
		intent.Status = domain.IntentFailed
		intent.FailReason = reason
	}
	return applied, nil
}

// MarkPendingAction records a challenge flow (step-up authentication and the
// like). Non-terminal; never credits funds. No-op when the intent already
// reached a terminal state.
func (s *IntentService) MarkPendingAction(ctx context.Context, intent *models.PaymentIntent, details string) error {
	applied, err := s.intents.Transition(ctx, intent.ID,
		[]string{domain.IntentInitiated, domain.IntentPendingAction},
		domain.IntentPendingAction, "")
	if err != nil {
		return err
	}
	if !applied {
		return nil
	}
	intent.Status = domain.IntentPendingAction
	if details != "" {
		return s.intents.SetMetadata(ctx, intent.ID, details)
	}
	return nil
}

// SetMetadata stores the latest raw provider payload.
func (s *IntentService) SetMetadata(ctx context.Context, intentID uint, metadata string) error {
	return s.intents.SetMetadata(ctx, intentID, metadata)
}

func nonEmpty(keys []string) []string {
	out := keys[:0:0]
	for _, k := range keys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}
