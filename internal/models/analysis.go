package models

import (
	"sort"
	"time"
)

// SubmissionAnalysis stores one parsed AI evaluation of a submission.
type SubmissionAnalysis struct {
	ID                  uint                `gorm:"primaryKey" json:"id"`
	SubmissionID        uint                `gorm:"not null;index" json:"submission_id"`
	Score               int                 `gorm:"not null" json:"score"`
	Feedback            string              `gorm:"type:text" json:"feedback"`
	HighlightSubmitText string              `gorm:"type:text" json:"highlight_submit_text"`
	CreatedAt           time.Time           `json:"created_at"`
	Highlights          []AnalysisHighlight `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"highlights"`
}

// AnalysisHighlight is a highlighted fragment, ordered by Position.
type AnalysisHighlight struct {
	ID                   uint   `gorm:"primaryKey" json:"id"`
	SubmissionAnalysisID uint   `gorm:"not null;index" json:"submission_analysis_id"`
	Text                 string `gorm:"type:text;not null" json:"text"`
	Position             int    `gorm:"not null" json:"position"`
}

// HighlightTexts returns the highlight strings in their original order.
func (a SubmissionAnalysis) HighlightTexts() []string {
	ordered := append([]AnalysisHighlight(nil), a.Highlights...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Position < ordered[j].Position
	})

	texts := make([]string, len(ordered))
	for i, h := range ordered {
		texts[i] = h.Text
	}
	return texts
}
