package service

import (
	"time"

	"github.com/google/uuid"
)

// TraceContext correlates every audit row written for one workflow run.
type TraceContext struct {
	TraceID      string
	StudentID    uint
	SubmissionID *uint
	Start        time.Time
}

// NewTraceContext starts a trace for the given student.
func NewTraceContext(studentID uint, now time.Time) TraceContext {
	return TraceContext{
		TraceID:   uuid.NewString(),
		StudentID: studentID,
		Start:     now,
	}
}

// WithSubmission returns a copy bound to the submission id.
func (t TraceContext) WithSubmission(id uint) TraceContext {
	t.SubmissionID = &id
	return t
}

// Elapsed is the latency since the trace started, in milliseconds.
func (t TraceContext) Elapsed(now time.Time) int64 {
	return now.Sub(t.Start).Milliseconds()
}
