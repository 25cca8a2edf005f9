package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// RequestLogRepository stores HTTP access records.
type RequestLogRepository interface {
	Create(ctx context.Context, log *models.RequestLog) error
}

type requestLogRepository struct {
	db *gorm.DB
}

// NewRequestLogRepository constructs a request log repository.
func NewRequestLogRepository(db *gorm.DB) RequestLogRepository {
	return &requestLogRepository{db: db}
}

func (r *requestLogRepository) Create(ctx context.Context, log *models.RequestLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
