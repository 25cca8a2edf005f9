package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// StatsRepository writes immutable statistics snapshots.
type StatsRepository interface {
	CreateDaily(ctx context.Context, snapshot *models.StatsDaily) error
	CreateWeekly(ctx context.Context, snapshot *models.StatsWeekly) error
	CreateMonthly(ctx context.Context, snapshot *models.StatsMonthly) error
}

type statsRepository struct {
	db *gorm.DB
}

// NewStatsRepository constructs a stats repository.
func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) CreateDaily(ctx context.Context, snapshot *models.StatsDaily) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *statsRepository) CreateWeekly(ctx context.Context, snapshot *models.StatsWeekly) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *statsRepository) CreateMonthly(ctx context.Context, snapshot *models.StatsMonthly) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}
