package dto

import (
	"time"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// CreateRevisionRequest asks for a submission to be evaluated again.
type CreateRevisionRequest struct {
	SubmissionID uint `json:"submissionId" validate:"required,gt=0"`
}

// RevisionListQuery captures paging and sorting for listing revisions.
type RevisionListQuery struct {
	Page int    `query:"page" validate:"omitempty,min=1"`
	Size int    `query:"size" validate:"omitempty,min=1,max=100"`
	Sort string `query:"sort"`
}

// RevisionResponse serializes one revision attempt.
type RevisionResponse struct {
	ID           uint      `json:"id"`
	SubmissionID uint      `json:"submissionId"`
	IsSuccess    *bool     `json:"isSuccess"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RevisionListResponse bundles a page of revisions with its pagination.
type RevisionListResponse struct {
	Items      []RevisionResponse `json:"items"`
	Pagination Pagination         `json:"pagination"`
}

// NewRevisionResponse converts a Revision model into a DTO.
func NewRevisionResponse(model models.Revision) RevisionResponse {
	return RevisionResponse{
		ID:           model.ID,
		SubmissionID: model.SubmissionID,
		IsSuccess:    model.IsSuccess,
		CreatedAt:    model.CreatedAt,
	}
}

// NewRevisionResponseSlice converts revision models into DTOs.
func NewRevisionResponseSlice(items []models.Revision) []RevisionResponse {
	responses := make([]RevisionResponse, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewRevisionResponse(item))
	}
	return responses
}
