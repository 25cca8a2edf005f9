package models

import "time"

// Revision is an append-only audit row for one evaluation attempt.
// IsSuccess is nil while the attempt is in flight.
type Revision struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	IsSuccess    *bool     `json:"is_success"`
	CreatedAt    time.Time `json:"created_at"`
}
