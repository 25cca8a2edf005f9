package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/datatypes"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
)

// SchedulerService implements the periodic statistics and retry jobs.
type SchedulerService interface {
	HandleDailyStats(ctx context.Context) error
	HandleWeeklyStats(ctx context.Context) error
	HandleMonthlyStats(ctx context.Context) error
	HandleAutoRetry(ctx context.Context) (RetrySummary, error)
}

// SchedulerServiceConfig tunes the periodic jobs.
type SchedulerServiceConfig struct {
	Location *time.Location
	// StaleProcessingAfter makes PROCESSING rows older than this eligible for retry. Zero disables it.
	StaleProcessingAfter time.Duration
}

// RetrySummary reports what one auto-retry sweep did.
type RetrySummary struct {
	TraceID    string `json:"trace_id"`
	Candidates int    `json:"candidates"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
	Skipped    int    `json:"skipped"`
}

type schedulerService struct {
	uow       repository.UnitOfWork
	evaluator Evaluator
	events    EventPublisher
	cfg       SchedulerServiceConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewSchedulerService constructs a SchedulerService.
func NewSchedulerService(uow repository.UnitOfWork, evaluator Evaluator, events EventPublisher, cfg SchedulerServiceConfig, logger zerolog.Logger) SchedulerService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	return &schedulerService{
		uow:       uow,
		evaluator: evaluator,
		events:    events,
		cfg:       cfg,
		logger:    logger.With().Str("component", "scheduler_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/ai-feedback-api/internal/service/scheduler"),
		now:       time.Now,
	}
}

func (s *schedulerService) HandleDailyStats(ctx context.Context) error {
	counts, now, err := s.count(ctx)
	if err != nil {
		return err
	}

	snapshot := models.StatsDaily{
		Name:       models.StatsNameSubmissions,
		Date:       datatypes.Date(startOfDay(now)),
		TotalCnt:   counts.Total,
		SuccessCnt: counts.Completed,
		FailureCnt: counts.Failed,
	}
	if err := s.uow.Stats().CreateDaily(ctx, &snapshot); err != nil {
		return err
	}

	s.logStats("daily", counts)
	return nil
}

// HandleWeeklyStats snapshots the current Sunday-to-Saturday week.
func (s *schedulerService) HandleWeeklyStats(ctx context.Context) error {
	counts, now, err := s.count(ctx)
	if err != nil {
		return err
	}

	start, end := weekBounds(now)
	snapshot := models.StatsWeekly{
		Name:       models.StatsNameSubmissions,
		StartDate:  start,
		EndDate:    end,
		TotalCnt:   counts.Total,
		SuccessCnt: counts.Completed,
		FailureCnt: counts.Failed,
	}
	if err := s.uow.Stats().CreateWeekly(ctx, &snapshot); err != nil {
		return err
	}

	s.logStats("weekly", counts)
	return nil
}

func (s *schedulerService) HandleMonthlyStats(ctx context.Context) error {
	counts, now, err := s.count(ctx)
	if err != nil {
		return err
	}

	snapshot := models.StatsMonthly{
		Name:       models.StatsNameSubmissions,
		Date:       datatypes.Date(startOfMonth(now)),
		TotalCnt:   counts.Total,
		SuccessCnt: counts.Completed,
		FailureCnt: counts.Failed,
	}
	if err := s.uow.Stats().CreateMonthly(ctx, &snapshot); err != nil {
		return err
	}

	s.logStats("monthly", counts)
	return nil
}

// HandleAutoRetry re-evaluates failed and stuck submissions one at a time.
// A failure on one submission is recorded and the sweep moves on.
func (s *schedulerService) HandleAutoRetry(ctx context.Context) (RetrySummary, error) {
	summary := RetrySummary{TraceID: uuid.NewString()}

	ctx, span := s.tracer.Start(ctx, "scheduler.auto_retry", trace.WithAttributes(
		attribute.String("trace.id", summary.TraceID),
	))
	defer span.End()

	staleBefore := s.staleBefore()
	candidates, err := s.uow.Submissions().FindRetryable(ctx, staleBefore)
	if err != nil {
		span.RecordError(err)
		return summary, err
	}
	summary.Candidates = len(candidates)

	for _, candidate := range candidates {
		if ctx.Err() != nil {
			summary.Skipped++
			continue
		}

		switch s.retry(ctx, candidate, summary.TraceID, staleBefore) {
		case retrySucceeded:
			summary.Succeeded++
		case retryFailed:
			summary.Failed++
		default:
			summary.Skipped++
		}
	}

	span.SetAttributes(
		attribute.Int("retry.candidates", summary.Candidates),
		attribute.Int("retry.succeeded", summary.Succeeded),
		attribute.Int("retry.failed", summary.Failed),
		attribute.Int("retry.skipped", summary.Skipped),
	)
	observability.Logger(ctx, s.logger).Info().
		Str("trace_id", summary.TraceID).
		Int("candidates", summary.Candidates).
		Int("succeeded", summary.Succeeded).
		Int("failed", summary.Failed).
		Int("skipped", summary.Skipped).
		Msg("auto retry sweep finished")

	return summary, nil
}

type retryOutcome int

const (
	retrySkipped retryOutcome = iota
	retrySucceeded
	retryFailed
)

func (s *schedulerService) retry(ctx context.Context, candidate models.Submission, traceID string, staleBefore *time.Time) retryOutcome {
	logger := observability.Logger(ctx, s.logger).With().Str("trace_id", traceID).Uint("submission_id", candidate.ID).Logger()

	claimed, err := s.uow.Submissions().ClaimForRetry(ctx, candidate.ID, candidate.Status, staleBefore)
	if err != nil {
		logger.Error().Err(err).Msg("failed to claim submission for retry")
		return retrySkipped
	}
	if !claimed {
		logger.Debug().Msg("submission claimed elsewhere, skipping")
		return retrySkipped
	}

	start := s.now()
	tc := TraceContext{TraceID: traceID, StudentID: candidate.StudentID, Start: start}.WithSubmission(candidate.ID)
	result, evalErr := s.evaluator.Evaluate(ctx, candidate, tc)
	recordEvaluation(SourceAutoRetry, start, evalErr)

	success := evalErr == nil
	status := models.SubmissionStatusCompleted
	var score *int
	if success {
		score = &result.Feedback.Score
	} else {
		status = models.SubmissionStatusFailed
		logger.Warn().Err(evalErr).Msg("auto retry evaluation failed")
	}

	writeCtx := context.WithoutCancel(ctx)
	err = s.uow.Do(writeCtx, func(tx repository.Store) error {
		if err := tx.Submissions().UpdateStatus(writeCtx, candidate.ID, status); err != nil {
			return err
		}
		return tx.Revisions().Create(writeCtx, &models.Revision{SubmissionID: candidate.ID, IsSuccess: &success})
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to record auto retry outcome")
		return retryFailed
	}

	if s.events != nil {
		s.events.PublishSubmission(writeCtx, newSubmissionEvent(SourceAutoRetry, candidate.ID, candidate.StudentID, status, traceID, score))
	}

	if !success {
		return retryFailed
	}
	return retrySucceeded
}

func (s *schedulerService) staleBefore() *time.Time {
	if s.cfg.StaleProcessingAfter <= 0 {
		return nil
	}
	cutoff := s.now().Add(-s.cfg.StaleProcessingAfter)
	return &cutoff
}

func (s *schedulerService) count(ctx context.Context) (repository.StatusCounts, time.Time, error) {
	counts, err := s.uow.Submissions().CountByStatus(ctx)
	if err != nil {
		return repository.StatusCounts{}, time.Time{}, err
	}
	return counts, s.now().In(s.cfg.Location), nil
}

func (s *schedulerService) logStats(period string, counts repository.StatusCounts) {
	s.logger.Info().
		Str("period", period).
		Int64("total", counts.Total).
		Int64("success", counts.Completed).
		Int64("failure", counts.Failed).
		Msg("stats snapshot stored")
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

// weekBounds returns Sunday 00:00 and the last nanosecond of the following Saturday.
func weekBounds(t time.Time) (time.Time, time.Time) {
	start := startOfDay(t).AddDate(0, 0, -int(t.Weekday()))
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}

func startOfMonth(t time.Time) time.Time {
	year, month, _ := t.Date()
	return time.Date(year, month, 1, 0, 0, 0, 0, t.Location())
}
