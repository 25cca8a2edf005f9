package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// RevisionRepository persists the append-only revision audit trail.
type RevisionRepository interface {
	Create(ctx context.Context, revision *models.Revision) error
	GetByID(ctx context.Context, id uint) (models.Revision, error)
	List(ctx context.Context, page PageQuery) ([]models.Revision, int64, error)
	ListBySubmission(ctx context.Context, submissionID uint) ([]models.Revision, error)
}

type revisionRepository struct {
	db *gorm.DB
}

// NewRevisionRepository constructs a revision repository.
func NewRevisionRepository(db *gorm.DB) RevisionRepository {
	return &revisionRepository{db: db}
}

func (r *revisionRepository) Create(ctx context.Context, revision *models.Revision) error {
	return r.db.WithContext(ctx).Create(revision).Error
}

func (r *revisionRepository) GetByID(ctx context.Context, id uint) (models.Revision, error) {
	var revision models.Revision
	if err := r.db.WithContext(ctx).First(&revision, id).Error; err != nil {
		return models.Revision{}, err
	}

	return revision, nil
}

func (r *revisionRepository) List(ctx context.Context, page PageQuery) ([]models.Revision, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Revision{})

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var revisions []models.Revision
	if err := page.apply(query, "").Find(&revisions).Error; err != nil {
		return nil, 0, err
	}

	return revisions, total, nil
}

func (r *revisionRepository) ListBySubmission(ctx context.Context, submissionID uint) ([]models.Revision, error) {
	var revisions []models.Revision
	if err := r.db.WithContext(ctx).
		Where("submission_id = ?", submissionID).
		Order("id ASC").
		Find(&revisions).Error; err != nil {
		return nil, err
	}

	return revisions, nil
}
