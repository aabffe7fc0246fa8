// Package payment starts externally-processed funding attempts. Each
// provider adapter returns whatever correlation keys the processor issues so
// the caller can index the intent under all of them.
package payment

import (
	"context"
	"time"
)

type Request struct {
	AccountID   uint
	AmountCents int64
	Currency    string
	OrderID     string // caller-supplied reference echoed back in callbacks
	Description string
	ExpiresIn   time.Duration
	// M-Pesa STK fields
	CustomerPhone     string
	CustomerFirstName string
	CustomerLastName  string
	CustomerEmail     string
	CallbackURL       string
}

type Response struct {
	Reference         string // provider transaction reference
	CheckoutRequestID string // STK checkout request id, echoed in callbacks
	Status            string
	CheckoutURL       string
	ExpiresAt         time.Time
}

type Provider interface {
	InitiatePayment(ctx context.Context, req Request) (*Response, error)
}
