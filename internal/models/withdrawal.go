package models

import (
	"time"

	"gorm.io/gorm"
)

type Withdrawal struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AccountID   uint           `gorm:"not null;index" json:"account_id"`
	OrderID     string         `gorm:"size:64;uniqueIndex;not null" json:"order_id"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Channel     string         `gorm:"size:20;not null" json:"channel"` // MPESA, BANK
	Destination string         `gorm:"size:128;not null" json:"destination"`
	Status      string         `gorm:"size:30;not null;index" json:"status"` // PENDING, COMPLETED, FAILED, NEEDS_RECONCILIATION
	ProviderRef string         `gorm:"size:128" json:"provider_ref"`
	FailReason  string         `gorm:"size:255" json:"fail_reason"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	CompletedAt *time.Time     `json:"completed_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Withdrawal) TableName() string {
	return "withdrawals"
}

// PayoutDestination is the target of a withdrawal, serialized into the OTP
// record between request and confirm.
type PayoutDestination struct {
	Channel string `json:"channel"` // MPESA, BANK
	Address string `json:"address"` // phone number or bank account
	Name    string `json:"name"`
}

// WithdrawalOTP is the serialized withdrawal intent held while a one-time
// code is outstanding. Stored in Redis under one key per account, so issuing
// a new code replaces (invalidates) any prior one.
type WithdrawalOTP struct {
	AccountID   uint              `json:"account_id"`
	CodeHash    string            `json:"code_hash"`
	AmountCents int64             `json:"amount_cents"`
	Destination PayoutDestination `json:"destination"`
	IssuedAt    time.Time         `json:"issued_at"`
	ExpiresAt   time.Time         `json:"expires_at"`
}

// Expired reports whether the code is past its validity window at t.
func (o *WithdrawalOTP) Expired(t time.Time) bool {
	return t.After(o.ExpiresAt)
}
