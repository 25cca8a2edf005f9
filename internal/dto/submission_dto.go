package dto

import (
	"time"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

// SubmissionRequest describes the multipart intake payload.
type SubmissionRequest struct {
	StudentID     uint   `form:"studentId" json:"studentId" validate:"required,gt=0"`
	StudentName   string `form:"studentName" json:"studentName" validate:"required,max=255"`
	ComponentType string `form:"componentType" json:"componentType" validate:"required,max=64"`
	SubmitText    string `form:"submitText" json:"submitText" validate:"required"`
}

// MediaURLs lists the uploaded artifacts of a video submission.
type MediaURLs struct {
	Video *string `json:"video"`
	Audio *string `json:"audio"`
}

// SubmissionResultResponse is returned after a submission has been evaluated.
type SubmissionResultResponse struct {
	Result              string    `json:"result"`
	SubmissionID        uint      `json:"submissionId"`
	StudentID           uint      `json:"studentId"`
	StudentName         string    `json:"studentName"`
	Score               int       `json:"score"`
	Feedback            string    `json:"feedback"`
	Highlights          []string  `json:"highlights"`
	SubmitText          string    `json:"submitText"`
	HighlightSubmitText string    `json:"highlightSubmitText"`
	MediaURL            MediaURLs `json:"mediaUrl"`
	APILatencyMs        int64     `json:"apiLatency"`
	TraceID             string    `json:"traceId"`
}

// SubmissionListQuery captures paging, sorting and filters for listing submissions.
type SubmissionListQuery struct {
	Page        int     `query:"page" validate:"omitempty,min=1"`
	Size        int     `query:"size" validate:"omitempty,min=1,max=100"`
	Sort        string  `query:"sort"`
	Status      *string `query:"status" validate:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED"`
	StudentID   *uint   `query:"studentId" validate:"omitempty,gt=0"`
	StudentName string  `query:"studentName" validate:"omitempty,max=255"`
}

// Pagination is returned as response metadata for paged listings.
type Pagination struct {
	Page  int   `json:"page"`
	Size  int   `json:"size"`
	Total int64 `json:"total"`
}

// SubmissionSummary is a row in the submission listing.
type SubmissionSummary struct {
	ID            uint      `json:"id"`
	StudentID     uint      `json:"studentId"`
	StudentName   string    `json:"studentName"`
	ComponentType string    `json:"componentType"`
	SubmitText    string    `json:"submitText"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// SubmissionListResponse bundles a page of submissions with its pagination.
type SubmissionListResponse struct {
	Items      []SubmissionSummary `json:"items"`
	Pagination Pagination          `json:"pagination"`
}

// AnalysisResponse serializes the latest evaluation of a submission.
type AnalysisResponse struct {
	ID                  uint      `json:"id"`
	Score               int       `json:"score"`
	Feedback            string    `json:"feedback"`
	HighlightSubmitText string    `json:"highlightSubmitText"`
	Highlights          []string  `json:"highlights"`
	CreatedAt           time.Time `json:"createdAt"`
}

// MediaResponse serializes an uploaded artifact.
type MediaResponse struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

// SubmissionDetailResponse is the full view of one submission.
type SubmissionDetailResponse struct {
	SubmissionSummary
	Analysis *AnalysisResponse `json:"analysis"`
	Media    []MediaResponse   `json:"media"`
}

// NewSubmissionSummary converts a Submission model into a list row.
func NewSubmissionSummary(model models.Submission) SubmissionSummary {
	return SubmissionSummary{
		ID:            model.ID,
		StudentID:     model.StudentID,
		StudentName:   model.Student.Name,
		ComponentType: model.ComponentType,
		SubmitText:    model.SubmitText,
		Status:        model.Status,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
	}
}

// NewSubmissionSummarySlice converts submission models into list rows.
func NewSubmissionSummarySlice(items []models.Submission) []SubmissionSummary {
	responses := make([]SubmissionSummary, 0, len(items))
	for _, item := range items {
		responses = append(responses, NewSubmissionSummary(item))
	}
	return responses
}

// NewSubmissionDetailResponse builds the detail view using the newest analysis.
func NewSubmissionDetailResponse(model models.Submission) SubmissionDetailResponse {
	response := SubmissionDetailResponse{
		SubmissionSummary: NewSubmissionSummary(model),
		Media:             make([]MediaResponse, 0, len(model.Media)),
	}

	if latest := model.LatestAnalysis(); latest != nil {
		response.Analysis = &AnalysisResponse{
			ID:                  latest.ID,
			Score:               latest.Score,
			Feedback:            latest.Feedback,
			HighlightSubmitText: latest.HighlightSubmitText,
			Highlights:          latest.HighlightTexts(),
			CreatedAt:           latest.CreatedAt,
		}
	}

	for _, media := range model.Media {
		response.Media = append(response.Media, MediaResponse{Type: media.Type, URL: media.URL})
	}

	return response
}
