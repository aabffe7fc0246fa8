package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"huduma/internal/models"
)

const otpKeyPrefix = "wd:otp:"

// OTPRepository keeps the single outstanding withdrawal code per account in
// Redis. One key per account means issuing a new code overwrites the old one,
// which is exactly the supersession invariant the withdrawal gate needs. The
// Redis TTL is set past the code's validity window so an expired code is
// still distinguishable from a missing one at confirm time.
type OTPRepository struct {
	client *redis.Client
}

func NewOTPRepository(client *redis.Client) *OTPRepository {
	return &OTPRepository{client: client}
}

func otpKey(accountID uint) string {
	return fmt.Sprintf("%s%d", otpKeyPrefix, accountID)
}

func (r *OTPRepository) Put(ctx context.Context, rec *models.WithdrawalOTP, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, otpKey(rec.AccountID), raw, ttl).Err()
}

// Peek returns the outstanding record without consuming it, or nil when the
// account has none.
func (r *OTPRepository) Peek(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error) {
	raw, err := r.client.Get(ctx, otpKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.WithdrawalOTP
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Consume atomically claims and removes the outstanding record. Concurrent
// confirms race on GETDEL, so at most one caller receives it.
func (r *OTPRepository) Consume(ctx context.Context, accountID uint) (*models.WithdrawalOTP, error) {
	raw, err := r.client.GetDel(ctx, otpKey(accountID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var rec models.WithdrawalOTP
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
