package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies expected domain failures.
type ErrorKind string

// Domain error kinds. An error without a kind is an unexpected fault.
const (
	KindNotFound   ErrorKind = "not_found"
	KindConflict   ErrorKind = "conflict"
	KindValidation ErrorKind = "validation"
	KindUpstream   ErrorKind = "upstream"
	KindFormat     ErrorKind = "format"
)

// DomainError is an expected failure callers are meant to branch on.
type DomainError struct {
	Kind    ErrorKind
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func newDomainError(kind ErrorKind, message string) *DomainError {
	return &DomainError{Kind: kind, Message: message}
}

var (
	// ErrSubmissionNotFound indicates a submission could not be found.
	ErrSubmissionNotFound = newDomainError(KindNotFound, "submission not found")
	// ErrRevisionNotFound indicates a revision could not be found.
	ErrRevisionNotFound = newDomainError(KindNotFound, "revision not found")
	// ErrSubmissionProcessing is returned when an evaluation is already in flight.
	ErrSubmissionProcessing = newDomainError(KindConflict, "submission is already being processed")
	// ErrInvalidComponentType is returned for unregistered component types.
	ErrInvalidComponentType = newDomainError(KindValidation, "invalid component type")
	// ErrNotEligibleForComponent is returned when the student has no slot for the component type.
	ErrNotEligibleForComponent = newDomainError(KindValidation, "student is not eligible for this component type")
	// ErrInvalidSortField is returned for sort fields outside the allow-list.
	ErrInvalidSortField = newDomainError(KindValidation, "invalid sort field")
	// ErrInvalidMedia is returned when the attachment is not a video.
	ErrInvalidMedia = newDomainError(KindValidation, "attachment must be a video")
	// ErrAIAdapterFailure wraps errors from the chat backend.
	ErrAIAdapterFailure = newDomainError(KindUpstream, "ai feedback request failed")
	// ErrMediaProcessing wraps errors from the media pipeline or upload.
	ErrMediaProcessing = newDomainError(KindUpstream, "media processing failed")
	// ErrInvalidFeedbackFormat is returned when the AI reply does not follow the grammar.
	ErrInvalidFeedbackFormat = newDomainError(KindFormat, "invalid ai feedback format")
)

// KindOf returns the domain kind carried by err, or "" for unexpected faults.
func KindOf(err error) ErrorKind {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Kind
	}
	return ""
}

func wrapDomain(sentinel *DomainError, cause error) error {
	if cause == nil {
		return sentinel
	}
	return fmt.Errorf("%w: %v", sentinel, cause)
}

// SubmissionFailure carries the trace id of a failed intake so clients can report it.
type SubmissionFailure struct {
	TraceID string
	Err     error
}

func (e *SubmissionFailure) Error() string {
	return e.Err.Error()
}

func (e *SubmissionFailure) Unwrap() error {
	return e.Err
}
