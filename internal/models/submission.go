package models

import (
	"time"

	"gorm.io/gorm"
)

// Submission is a single assignment attempt awaiting or holding an AI evaluation.
type Submission struct {
	ID            uint                 `gorm:"primaryKey" json:"id"`
	StudentID     uint                 `gorm:"not null;index:idx_submission_student_component" json:"student_id"`
	ComponentType string               `gorm:"size:64;not null;index:idx_submission_student_component" json:"component_type"`
	SubmitText    string               `gorm:"type:text;not null" json:"submit_text"`
	Status        string               `gorm:"size:16;not null;index" json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	DeletedAt     gorm.DeletedAt       `gorm:"index" json:"-"`
	Student       Student              `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"student"`
	Analyses      []SubmissionAnalysis `json:"analyses,omitempty"`
	Media         []SubmissionMedia    `json:"media,omitempty"`
}

const (
	// SubmissionStatusPending marks a submission that has not been evaluated yet.
	SubmissionStatusPending = "PENDING"
	// SubmissionStatusProcessing marks a submission with an evaluation in flight.
	SubmissionStatusProcessing = "PROCESSING"
	// SubmissionStatusCompleted marks a submission whose latest evaluation succeeded.
	SubmissionStatusCompleted = "COMPLETED"
	// SubmissionStatusFailed marks a submission whose latest evaluation failed.
	SubmissionStatusFailed = "FAILED"
)

// SubmissionStatuses lists every valid status value.
var SubmissionStatuses = []string{
	SubmissionStatusPending,
	SubmissionStatusProcessing,
	SubmissionStatusCompleted,
	SubmissionStatusFailed,
}

// IsProcessing reports whether an evaluation is currently running for the submission.
func (s Submission) IsProcessing() bool {
	return s.Status == SubmissionStatusProcessing
}

// LatestAnalysis returns the most recent analysis, if any was loaded.
func (s Submission) LatestAnalysis() *SubmissionAnalysis {
	var latest *SubmissionAnalysis
	for i := range s.Analyses {
		candidate := &s.Analyses[i]
		if latest == nil ||
			candidate.CreatedAt.After(latest.CreatedAt) ||
			(candidate.CreatedAt.Equal(latest.CreatedAt) && candidate.ID > latest.ID) {
			latest = candidate
		}
	}
	return latest
}

// SubmissionComponentType is a registered assignment category such as essay or homework.
type SubmissionComponentType struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:64;uniqueIndex;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
