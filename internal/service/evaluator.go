package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
	"github.com/noah-isme/ai-feedback-api/pkg/ai"
)

// Evaluation sources used for metrics and events.
const (
	SourceIntake    = "intake"
	SourceRevision  = "revision"
	SourceAutoRetry = "auto_retry"
)

const evaluationSystemPrompt = `You grade student assignments.
Reply in exactly this format and nothing else:
Score: <integer from 0 to 100>
Feedback: <one paragraph of feedback>
Then one line per phrase quoted verbatim from the submission that the student should revisit.`

// EvaluationResult is the stored outcome of one evaluation.
type EvaluationResult struct {
	AnalysisID          uint
	Feedback            Feedback
	HighlightSubmitText string
	Latency             time.Duration
}

// Evaluator runs one AI evaluation of a submission and stores the analysis.
// It never changes the submission status.
type Evaluator interface {
	Evaluate(ctx context.Context, submission models.Submission, trace TraceContext) (EvaluationResult, error)
}

type evaluationEngine struct {
	uow     repository.UnitOfWork
	chatter ai.Chatter
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewEvaluator builds the evaluator shared by intake, revisions and the retry sweep.
func NewEvaluator(uow repository.UnitOfWork, chatter ai.Chatter, logger zerolog.Logger) Evaluator {
	return &evaluationEngine{
		uow:     uow,
		chatter: chatter,
		logger:  logger.With().Str("component", "evaluator").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/ai-feedback-api/internal/service/evaluator"),
		now:     time.Now,
	}
}

func (e *evaluationEngine) Evaluate(ctx context.Context, submission models.Submission, tc TraceContext) (EvaluationResult, error) {
	ctx, span := e.tracer.Start(ctx, "submission.evaluate", trace.WithAttributes(
		attribute.Int("submission.id", int(submission.ID)),
		attribute.String("submission.component_type", submission.ComponentType),
		attribute.String("trace.id", tc.TraceID),
	))
	defer span.End()

	tc = tc.WithSubmission(submission.ID)
	if tc.StudentID == 0 {
		tc.StudentID = submission.StudentID
	}

	if _, err := e.uow.ComponentTypes().GetByName(ctx, submission.ComponentType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return EvaluationResult{}, ErrInvalidComponentType
		}
		return EvaluationResult{}, err
	}

	start := e.now()

	chatStart := e.now()
	reply, err := e.chatter.Chat(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: evaluationSystemPrompt},
		{Role: ai.RoleUser, Content: evaluationRequest(submission)},
	})
	e.appendLog(ctx, tc, models.SubmissionLogActionOpenAI, chatStart, err)
	if err != nil {
		return EvaluationResult{}, e.fail(ctx, span, tc, start, wrapDomain(ErrAIAdapterFailure, err))
	}

	feedback, err := ParseFeedback(reply)
	if err != nil {
		return EvaluationResult{}, e.fail(ctx, span, tc, start, err)
	}

	highlighted := HighlightText(submission.SubmitText, feedback.Highlights)

	analysis := models.SubmissionAnalysis{
		SubmissionID:        submission.ID,
		Score:               feedback.Score,
		Feedback:            feedback.Feedback,
		HighlightSubmitText: highlighted,
		Highlights:          make([]models.AnalysisHighlight, 0, len(feedback.Highlights)),
	}
	for _, text := range feedback.Highlights {
		analysis.Highlights = append(analysis.Highlights, models.AnalysisHighlight{Text: text})
	}

	err = e.uow.Do(ctx, func(tx repository.Store) error {
		if err := tx.Analyses().Create(ctx, &analysis); err != nil {
			return fmt.Errorf("store analysis: %w", err)
		}
		return tx.SubmissionLogs().Create(ctx, e.newLog(tc, models.SubmissionLogActionEvaluate, start, nil))
	})
	if err != nil {
		return EvaluationResult{}, e.fail(ctx, span, tc, start, err)
	}

	latency := e.now().Sub(start)
	observability.Logger(ctx, e.logger).Info().
		Str("trace_id", tc.TraceID).
		Uint("submission_id", submission.ID).
		Int("score", feedback.Score).
		Dur("latency", latency).
		Msg("submission evaluated")

	return EvaluationResult{
		AnalysisID:          analysis.ID,
		Feedback:            feedback,
		HighlightSubmitText: highlighted,
		Latency:             latency,
	}, nil
}

func (e *evaluationEngine) fail(ctx context.Context, span trace.Span, tc TraceContext, start time.Time, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	e.appendLog(ctx, tc, models.SubmissionLogActionEvaluate, start, err)
	observability.Logger(ctx, e.logger).Warn().Err(err).Str("trace_id", tc.TraceID).Msg("submission evaluation failed")
	return err
}

// appendLog writes an audit row outside of any transaction; write errors are only logged.
func (e *evaluationEngine) appendLog(ctx context.Context, tc TraceContext, action string, start time.Time, cause error) {
	if err := e.uow.SubmissionLogs().Create(context.WithoutCancel(ctx), e.newLog(tc, action, start, cause)); err != nil {
		observability.Logger(ctx, e.logger).Error().Err(err).Str("trace_id", tc.TraceID).Str("action", action).Msg("failed to write submission log")
	}
}

func (e *evaluationEngine) newLog(tc TraceContext, action string, start time.Time, cause error) *models.SubmissionLog {
	return newSubmissionLog(tc, action, e.now().Sub(start), cause)
}

func newSubmissionLog(tc TraceContext, action string, latency time.Duration, cause error) *models.SubmissionLog {
	success := cause == nil
	entry := &models.SubmissionLog{
		TraceID:      tc.TraceID,
		StudentID:    tc.StudentID,
		SubmissionID: tc.SubmissionID,
		Action:       action,
		LatencyMs:    latency.Milliseconds(),
		IsSuccess:    &success,
	}
	if cause != nil {
		message := cause.Error()
		entry.ErrorMessage = &message
	}
	return entry
}

func evaluationRequest(submission models.Submission) string {
	return fmt.Sprintf("Student %d's %s assignment evaluation request. %s",
		submission.StudentID, submission.ComponentType, submission.SubmitText)
}

func recordEvaluation(source string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	observability.Evaluations().WithLabelValues(source, outcome).Inc()
	observability.EvaluationLatency().WithLabelValues(source).Observe(time.Since(start).Seconds())
}
