package repository

import (
	"context"

	"gorm.io/gorm"

	"huduma/internal/models"
)

type AuditLogRepository struct {
	db *gorm.DB
}

func NewAuditLogRepository(db *gorm.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

func (r *AuditLogRepository) Record(ctx context.Context, e *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(e).Error
}
