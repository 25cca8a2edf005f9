package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
)

// Submission event types.
const (
	EventSubmissionCompleted = "submission.completed"
	EventSubmissionFailed    = "submission.failed"
)

// SubmissionEvent is broadcast after a submission reaches a terminal status.
type SubmissionEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Source       string    `json:"source"`
	SubmissionID uint      `json:"submission_id"`
	StudentID    uint      `json:"student_id"`
	Status       string    `json:"status"`
	TraceID      string    `json:"trace_id"`
	Score        *int      `json:"score,omitempty"`
	SentAt       time.Time `json:"sent_at"`
}

// EventPublisher announces submission outcomes to other services.
type EventPublisher interface {
	PublishSubmission(ctx context.Context, event SubmissionEvent)
}

// SubmissionEventPublisher fans events out over Redis pub/sub and NATS.
// Either transport may be nil.
type SubmissionEventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
}

// NewSubmissionEventPublisher derives channel names from channelBase.
func NewSubmissionEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) *SubmissionEventPublisher {
	channel := ""
	subject := ""
	if channelBase != "" {
		channel = channelBase + ":submissions"
		subject = strings.ReplaceAll(channelBase, ":", ".") + ".submissions"
	}

	return &SubmissionEventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsSubject:  subject,
		logger:       logger.With().Str("component", "submission_events").Logger(),
	}
}

// PublishSubmission never fails the caller; broker errors are logged and counted.
func (p *SubmissionEventPublisher) PublishSubmission(ctx context.Context, event SubmissionEvent) {
	if p == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.SentAt.IsZero() {
		event.SentAt = time.Now().UTC()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		p.logger.Error().Err(err).Msg("failed to encode submission event")
		return
	}

	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("redis publish failed")
			observability.SubmissionEventsPublished().WithLabelValues("redis", "error").Inc()
		} else {
			observability.SubmissionEventsPublished().WithLabelValues("redis", "ok").Inc()
		}
	}

	if p.nats != nil && p.natsSubject != "" {
		if err := p.nats.Publish(p.natsSubject, payload); err != nil {
			p.logger.Warn().Err(err).Uint("submission_id", event.SubmissionID).Msg("nats publish failed")
			observability.SubmissionEventsPublished().WithLabelValues("nats", "error").Inc()
		} else {
			observability.SubmissionEventsPublished().WithLabelValues("nats", "ok").Inc()
		}
	}
}

func newSubmissionEvent(source string, submissionID, studentID uint, status, traceID string, score *int) SubmissionEvent {
	eventType := EventSubmissionFailed
	if status == models.SubmissionStatusCompleted {
		eventType = EventSubmissionCompleted
	}
	return SubmissionEvent{
		Type:         eventType,
		Source:       source,
		SubmissionID: submissionID,
		StudentID:    studentID,
		Status:       status,
		TraceID:      traceID,
		Score:        score,
	}
}
