package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// SubmissionLogRepository appends workflow audit records.
type SubmissionLogRepository interface {
	Create(ctx context.Context, log *models.SubmissionLog) error
}

type submissionLogRepository struct {
	db *gorm.DB
}

// NewSubmissionLogRepository constructs a submission log repository.
func NewSubmissionLogRepository(db *gorm.DB) SubmissionLogRepository {
	return &submissionLogRepository{db: db}
}

func (r *submissionLogRepository) Create(ctx context.Context, log *models.SubmissionLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}
