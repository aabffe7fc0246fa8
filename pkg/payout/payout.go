// Package payout moves money out to external destinations via per-provider
// rail adapters.
package payout

import (
	"context"
	"errors"
	"fmt"
)

// Request describes one payout. OrderID is the caller-generated idempotency
// reference; rails must not double-send for the same OrderID.
type Request struct {
	OrderID     string
	AmountCents int64
	Currency    string
	Channel     string // MPESA, BANK
	Destination string // phone number or bank account
	AccountName string
	Narrative   string
	CallbackURL string
}

type Response struct {
	DispatchID string
	Status     string
}

// Dispatcher is one payout rail.
type Dispatcher interface {
	Dispatch(ctx context.Context, req Request) (*Response, error)
}

var ErrUnknownChannel = errors.New("no payout rail registered for channel")

// Registry selects the rail for a request's channel. Rails are registered
// once at construction; nothing is resolved dynamically per call.
type Registry struct {
	rails map[string]Dispatcher
}

func NewRegistry() *Registry {
	return &Registry{rails: make(map[string]Dispatcher)}
}

func (r *Registry) Register(channel string, d Dispatcher) {
	r.rails[channel] = d
}

func (r *Registry) Dispatch(ctx context.Context, req Request) (*Response, error) {
	rail, ok := r.rails[req.Channel]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, req.Channel)
	}
	return rail.Dispatch(ctx, req)
}
