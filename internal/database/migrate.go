package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// AutoMigrate creates or updates every table owned by the service.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Student{},
		&models.SubmissionComponentType{},
		&models.Submission{},
		&models.Revision{},
		&models.SubmissionAnalysis{},
		&models.AnalysisHighlight{},
		&models.SubmissionMedia{},
		&models.SubmissionLog{},
		&models.RequestLog{},
		&models.StatsDaily{},
		&models.StatsWeekly{},
		&models.StatsMonthly{},
	); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	return nil
}
