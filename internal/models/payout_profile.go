package models

import (
	"time"

	"gorm.io/gorm"
)

// PayoutProfile holds an account's payout eligibility as reported by the
// payout provider, plus default destination details. Updated out-of-band by
// provider account webhooks, independent of the ledger.
type PayoutProfile struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AccountID          uint           `gorm:"uniqueIndex;not null" json:"account_id"`
	ProviderAccountRef string         `gorm:"size:128;uniqueIndex" json:"provider_account_ref"`
	PayoutsEnabled     bool           `gorm:"not null;default:true" json:"payouts_enabled"`
	DefaultChannel     string         `gorm:"size:20" json:"default_channel"`
	DefaultDestination string         `gorm:"size:128" json:"default_destination"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PayoutProfile) TableName() string {
	return "payout_profiles"
}
