package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// AnalysisRepository stores evaluation results and their highlights.
type AnalysisRepository interface {
	Create(ctx context.Context, analysis *models.SubmissionAnalysis) error
}

type analysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository constructs an analysis repository.
func NewAnalysisRepository(db *gorm.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

// Create inserts the analysis together with its highlight rows.
func (r *analysisRepository) Create(ctx context.Context, analysis *models.SubmissionAnalysis) error {
	for i := range analysis.Highlights {
		analysis.Highlights[i].Position = i
	}
	return r.db.WithContext(ctx).Create(analysis).Error
}
