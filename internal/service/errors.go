package service

import (
	"errors"

	"huduma/internal/repository"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidCategory  = errors.New("unknown ledger category")
	ErrEmptyReference   = errors.New("reference is required")
	ErrSameAccount      = errors.New("cannot transfer to the same account")
	ErrInvalidPurpose   = errors.New("unknown payment purpose")
	ErrNoCorrelationKey = errors.New("event carries no correlation keys")

	// Shared with the storage layer so callers can errors.Is either way.
	ErrInsufficientFunds = repository.ErrInsufficientFunds
	ErrWalletInactive    = repository.ErrWalletInactive

	ErrIntentNotFound       = errors.New("no payment intent matches the correlation keys")
	ErrAmbiguousCorrelation = errors.New("correlation keys resolve to multiple intents")

	ErrInvalidOTP         = errors.New("invalid withdrawal code")
	ErrOTPExpired         = errors.New("withdrawal code expired")
	ErrInvalidDestination = errors.New("invalid payout destination")
	ErrPayoutsDisabled    = errors.New("payouts are disabled for this account")

	// ErrPayoutDispatchUnknown means the debit committed but the payout
	// rail's outcome is unknown. The withdrawal is parked for reconciliation;
	// it is never silently reversed.
	ErrPayoutDispatchUnknown = errors.New("payout dispatch outcome unknown")
)
