package models

import "time"

// LedgerEntry is the immutable audit record of one balance mutation. Rows are
// only ever inserted; replaying an account's entries in creation order must
// reproduce its current wallet balance.
type LedgerEntry struct {
	ID               uint      `gorm:"primaryKey" json:"id"`
	AccountID        uint      `gorm:"not null;index" json:"account_id"`
	Direction        string    `gorm:"size:10;not null" json:"direction"` // CREDIT, DEBIT
	AmountCents      int64     `gorm:"not null" json:"amount_cents"`
	PrevBalanceCents int64     `gorm:"not null" json:"prev_balance_cents"`
	CurrBalanceCents int64     `gorm:"not null" json:"curr_balance_cents"`
	Category         string    `gorm:"size:30;not null;index" json:"category"`
	Reference        string    `gorm:"size:128;uniqueIndex;not null" json:"reference"`
	Confirmed        bool      `gorm:"not null;default:true" json:"confirmed"`
	Metadata         string    `gorm:"type:text" json:"metadata"` // JSON
	CreatedAt        time.Time `json:"created_at"`
}

func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// SignedCents returns the entry amount with the sign its direction implies.
func (e *LedgerEntry) SignedCents() int64 {
	if e.Direction == "DEBIT" {
		return -e.AmountCents
	}
	return e.AmountCents
}

// CategorySum is one row of the per-category ledger aggregation.
type CategorySum struct {
	Category   string `json:"category"`
	Direction  string `json:"direction"`
	TotalCents int64  `json:"total_cents"`
	Count      int64  `json:"count"`
}
