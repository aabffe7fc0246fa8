package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"huduma/internal/models"
)

func newTestOTPRepo(t *testing.T) (*OTPRepository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewOTPRepository(client), mr
}

func testOTP(accountID uint, amountCents int64) *models.WithdrawalOTP {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.WithdrawalOTP{
		AccountID:   accountID,
		CodeHash:    "$2a$10$fakehash",
		AmountCents: amountCents,
		Destination: models.PayoutDestination{Channel: "MPESA", Address: "254712345678"},
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
}

func TestOTPPutAndPeek(t *testing.T) {
	repo, _ := newTestOTPRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, testOTP(7, 10_000), 2*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Peek(ctx, 7)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got == nil || got.AmountCents != 10_000 || got.Destination.Address != "254712345678" {
		t.Errorf("peek = %+v", got)
	}
	// Peek does not consume.
	if again, _ := repo.Peek(ctx, 7); again == nil {
		t.Error("record gone after peek")
	}
}

func TestOTPPeekMissingAccount(t *testing.T) {
	repo, _ := newTestOTPRepo(t)
	got, err := repo.Peek(context.Background(), 99)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got != nil {
		t.Errorf("peek = %+v, want nil", got)
	}
}

func TestOTPPutOverwritesOutstandingRecord(t *testing.T) {
	repo, _ := newTestOTPRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, testOTP(7, 10_000), 2*time.Hour); err != nil {
		t.Fatalf("first put: %v", err)
	}
	if err := repo.Put(ctx, testOTP(7, 5_000), 2*time.Hour); err != nil {
		t.Fatalf("second put: %v", err)
	}
	got, err := repo.Peek(ctx, 7)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got.AmountCents != 5_000 {
		t.Errorf("amount = %d, want the replacement's 5000", got.AmountCents)
	}
}

func TestOTPConsumeRemovesRecord(t *testing.T) {
	repo, _ := newTestOTPRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, testOTP(7, 10_000), 2*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := repo.Consume(ctx, 7)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if got == nil || got.AmountCents != 10_000 {
		t.Errorf("consume = %+v", got)
	}
	second, err := repo.Consume(ctx, 7)
	if err != nil {
		t.Fatalf("second consume: %v", err)
	}
	if second != nil {
		t.Errorf("second consume = %+v, want nil", second)
	}
}

func TestOTPEvictedAfterTTL(t *testing.T) {
	repo, mr := newTestOTPRepo(t)
	ctx := context.Background()

	if err := repo.Put(ctx, testOTP(7, 10_000), 2*time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}
	mr.FastForward(2*time.Hour + time.Minute)
	got, err := repo.Peek(ctx, 7)
	if err != nil {
		t.Fatalf("peek: %v", err)
	}
	if got != nil {
		t.Errorf("peek after ttl = %+v, want nil", got)
	}
}
