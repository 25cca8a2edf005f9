package models

import "time"

const (
	// MediaTypeVideo is the cropped, muted video artifact.
	MediaTypeVideo = "video"
	// MediaTypeAudio is the extracted audio track.
	MediaTypeAudio = "audio"
)

// SubmissionMedia references an uploaded artifact derived from a submission video.
type SubmissionMedia struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubmissionID uint      `gorm:"not null;index" json:"submission_id"`
	Type         string    `gorm:"size:16;not null" json:"type"`
	URL          string    `gorm:"size:1024;not null" json:"url"`
	CreatedAt    time.Time `json:"created_at"`
}
