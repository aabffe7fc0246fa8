package models

import "time"

// AuditLog records operational events that need a paper trail: dropped
// webhooks, payouts with unknown outcomes, transfers awaiting compensation.
type AuditLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	AccountID  *uint     `gorm:"index" json:"account_id"`
	Action     string    `gorm:"size:60;not null;index" json:"action"`
	Resource   string    `gorm:"size:60;not null" json:"resource"`
	ResourceID string    `gorm:"size:128" json:"resource_id"`
	Detail     string    `gorm:"type:text" json:"detail"`
	CreatedAt  time.Time `json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
