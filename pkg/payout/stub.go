package payout

import (
	"context"
	"fmt"
	"time"
)

// StubRail is a no-op rail for development.
type StubRail struct{}

func (s *StubRail) Dispatch(ctx context.Context, req Request) (*Response, error) {
	return &Response{
		DispatchID: fmt.Sprintf("stub_%s_%d", req.OrderID, time.Now().UnixNano()),
		Status:     "PENDING",
	}, nil
}
