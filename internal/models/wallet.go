package models

import (
	"time"

	"gorm.io/gorm"
)

type Wallet struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	AccountID          uint           `gorm:"uniqueIndex;not null" json:"account_id"`
	BalanceCents       int64          `gorm:"not null;default:0" json:"balance_cents"`
	LedgerBalanceCents int64          `gorm:"not null;default:0" json:"ledger_balance_cents"` // earmarked/held funds
	Currency           string         `gorm:"size:3;default:'KES'" json:"currency"`
	IsActive           bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Wallet) TableName() string {
	return "wallets"
}
