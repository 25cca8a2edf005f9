package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// MediaRepository stores uploaded media references.
type MediaRepository interface {
	Create(ctx context.Context, media *models.SubmissionMedia) error
}

type mediaRepository struct {
	db *gorm.DB
}

// NewMediaRepository constructs a media repository.
func NewMediaRepository(db *gorm.DB) MediaRepository {
	return &mediaRepository{db: db}
}

func (r *mediaRepository) Create(ctx context.Context, media *models.SubmissionMedia) error {
	return r.db.WithContext(ctx).Create(media).Error
}
