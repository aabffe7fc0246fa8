package service

import (
	"context"
	"log"
	"time"

	"huduma/internal/models"
)

// LogNotifier writes codes to the server log. Stand-in until the SMS gateway
// integration lands; deployments behind a gateway swap in their own Notifier.
type LogNotifier struct{}

func (LogNotifier) SendWithdrawalCode(ctx context.Context, accountID uint, dest models.PayoutDestination, code string, expiresAt time.Time) error {
	log.Printf("[Notify] withdrawal code for account %d (%s %s): %s, valid until %s",
		accountID, dest.Channel, dest.Address, code, expiresAt.Format(time.RFC3339))
	return nil
}
