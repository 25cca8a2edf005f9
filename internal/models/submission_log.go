package models

import "time"

// Submission log actions.
const (
	SubmissionLogActionValidation  = "validation"
	SubmissionLogActionOpenAI      = "openAI"
	SubmissionLogActionVideoUpload = "videoUpload"
	SubmissionLogActionEvaluate    = "evaluate"
)

// SubmissionLog is an append-only audit record of one workflow step.
type SubmissionLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	TraceID      string    `gorm:"size:64;not null;index" json:"trace_id"`
	StudentID    uint      `gorm:"not null;index" json:"student_id"`
	SubmissionID *uint     `gorm:"index" json:"submission_id"`
	Action       string    `gorm:"size:32;not null" json:"action"`
	LatencyMs    int64     `gorm:"not null" json:"latency_ms"`
	IsSuccess    *bool     `json:"is_success"`
	ErrorMessage *string   `gorm:"type:text" json:"error_message"`
	CreatedAt    time.Time `json:"created_at"`
}
