package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentIntent tracks one externally-initiated funding attempt. Status moves
// INITIATED -> PENDING_ACTION -> SUCCESSFUL | FAILED; terminal states never
// transition again.
type PaymentIntent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	AccountID   uint           `gorm:"not null;index" json:"account_id"`
	AmountCents int64          `gorm:"not null" json:"amount_cents"`
	Currency    string         `gorm:"size:3;default:'KES'" json:"currency"`
	Status      string         `gorm:"size:20;not null;index" json:"status"`
	Purpose     string         `gorm:"size:30;not null" json:"purpose"` // WALLET_FUNDING, SERVICE_REQUEST_PAYMENT
	Reference   string         `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	FailReason  string         `gorm:"size:255" json:"fail_reason"`
	Metadata    string         `gorm:"type:text" json:"metadata"` // raw provider JSON
	CompletedAt *time.Time     `json:"completed_at"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// Terminal reports whether the intent has reached a final state.
func (p *PaymentIntent) Terminal() bool {
	return p.Status == "SUCCESSFUL" || p.Status == "FAILED"
}

// IntentAlias maps one provider correlation key (client secret, provider
// payment id, caller reference) to its canonical intent. Providers name the
// same transaction differently across payloads; every alias resolves to one
// record.
type IntentAlias struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Alias     string    `gorm:"size:191;uniqueIndex;not null" json:"alias"`
	IntentID  uint      `gorm:"not null;index" json:"intent_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (IntentAlias) TableName() string {
	return "payment_intent_aliases"
}
