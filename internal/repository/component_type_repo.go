package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// ComponentTypeRepository reads the registered assignment categories.
type ComponentTypeRepository interface {
	GetByName(ctx context.Context, name string) (models.SubmissionComponentType, error)
}

type componentTypeRepository struct {
	db *gorm.DB
}

// NewComponentTypeRepository constructs a component type repository.
func NewComponentTypeRepository(db *gorm.DB) ComponentTypeRepository {
	return &componentTypeRepository{db: db}
}

func (r *componentTypeRepository) GetByName(ctx context.Context, name string) (models.SubmissionComponentType, error) {
	var componentType models.SubmissionComponentType
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&componentType).Error; err != nil {
		return models.SubmissionComponentType{}, err
	}

	return componentType, nil
}
