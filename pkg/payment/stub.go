package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development.
type StubProvider struct{}

func (s *StubProvider) InitiatePayment(ctx context.Context, req Request) (*Response, error) {
	ref := fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), req.AccountID)
	return &Response{
		Reference:         ref,
		CheckoutRequestID: ref + "-checkout",
		Status:            "PENDING",
		ExpiresAt:         time.Now().Add(req.ExpiresIn),
	}, nil
}
