package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// SubmissionFilter allows narrowing submission listings.
type SubmissionFilter struct {
	Status      *string
	StudentID   *uint
	StudentName string
}

// StatusCounts aggregates submissions by outcome.
type StatusCounts struct {
	Total     int64
	Completed int64
	Failed    int64
}

// SubmissionRepository defines data operations for submissions.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByIDForUpdate(ctx context.Context, id uint) (models.Submission, error)
	GetDetail(ctx context.Context, id uint) (models.Submission, error)
	FindByStudentAndComponentType(ctx context.Context, studentID uint, componentType string) (models.Submission, error)
	List(ctx context.Context, filter SubmissionFilter, page PageQuery) ([]models.Submission, int64, error)
	Create(ctx context.Context, submission *models.Submission) error
	UpdateStatus(ctx context.Context, id uint, status string) error
	TransitionToProcessing(ctx context.Context, id uint) (bool, error)
	ClaimForRetry(ctx context.Context, id uint, from string, staleBefore *time.Time) (bool, error)
	FindRetryable(ctx context.Context, staleBefore *time.Time) ([]models.Submission, error)
	CountByStatus(ctx context.Context) (StatusCounts, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).Preload("Student").First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetByIDForUpdate(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) GetDetail(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	err := r.db.WithContext(ctx).
		Preload("Student").
		Preload("Media", func(db *gorm.DB) *gorm.DB {
			return db.Order("id ASC")
		}).
		Preload("Analyses", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC").Order("id DESC")
		}).
		Preload("Analyses.Highlights", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&submission, id).Error
	if err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) FindByStudentAndComponentType(ctx context.Context, studentID uint, componentType string) (models.Submission, error) {
	var submission models.Submission
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Where("component_type = ?", componentType).
		Order("created_at DESC").
		First(&submission).Error; err != nil {
		return models.Submission{}, err
	}

	return submission, nil
}

func (r *submissionRepository) List(ctx context.Context, filter SubmissionFilter, page PageQuery) ([]models.Submission, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})

	if filter.Status != nil {
		query = query.Where("submissions.status = ?", *filter.Status)
	}

	if filter.StudentID != nil {
		query = query.Where("submissions.student_id = ?", *filter.StudentID)
	}

	if name := strings.TrimSpace(filter.StudentName); name != "" {
		query = query.
			Joins("JOIN students ON students.id = submissions.student_id").
			Where("LOWER(students.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	countQuery := query.Session(&gorm.Session{})
	var total int64
	if err := countQuery.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var submissions []models.Submission
	if err := page.apply(query.Preload("Student"), "submissions").
		Find(&submissions).Error; err != nil {
		return nil, 0, err
	}

	return submissions, total, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(submission).Error
}

func (r *submissionRepository) UpdateStatus(ctx context.Context, id uint, status string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	return nil
}

// TransitionToProcessing moves the submission to PROCESSING unless it is already there.
// It reports false when no row changed.
func (r *submissionRepository) TransitionToProcessing(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Where("status <> ?", models.SubmissionStatusProcessing).
		Update("status", models.SubmissionStatusProcessing)
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

// ClaimForRetry moves a submission observed in status from into PROCESSING.
// When from is PROCESSING the row must also be older than staleBefore.
func (r *submissionRepository) ClaimForRetry(ctx context.Context, id uint, from string, staleBefore *time.Time) (bool, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", id).
		Where("status = ?", from)

	if from == models.SubmissionStatusProcessing {
		if staleBefore == nil {
			return false, nil
		}
		query = query.Where("updated_at < ?", *staleBefore)
	}

	result := query.Updates(map[string]interface{}{
		"status":     models.SubmissionStatusProcessing,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected == 1, nil
}

func (r *submissionRepository) FindRetryable(ctx context.Context, staleBefore *time.Time) ([]models.Submission, error) {
	query := r.db.WithContext(ctx).Model(&models.Submission{})
	if staleBefore != nil {
		query = query.Where(
			r.db.Where("status = ?", models.SubmissionStatusFailed).
				Or("status = ? AND updated_at < ?", models.SubmissionStatusProcessing, *staleBefore),
		)
	} else {
		query = query.Where("status = ?", models.SubmissionStatusFailed)
	}

	var submissions []models.Submission
	if err := query.Order("id ASC").Find(&submissions).Error; err != nil {
		return nil, err
	}

	return submissions, nil
}

func (r *submissionRepository) CountByStatus(ctx context.Context) (StatusCounts, error) {
	type row struct {
		Status string
		Count  int64
	}

	var rows []row
	if err := r.db.WithContext(ctx).
		Model(&models.Submission{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return StatusCounts{}, err
	}

	var counts StatusCounts
	for _, item := range rows {
		counts.Total += item.Count
		switch item.Status {
		case models.SubmissionStatusCompleted:
			counts.Completed = item.Count
		case models.SubmissionStatusFailed:
			counts.Failed = item.Count
		}
	}

	return counts, nil
}
