package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/dto"
	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
)

// RevisionService re-runs evaluations on request and exposes the revision trail.
type RevisionService interface {
	CreateRevision(ctx context.Context, payload dto.CreateRevisionRequest) error
	FindAllRevisions(ctx context.Context, query dto.RevisionListQuery) (dto.RevisionListResponse, error)
	FindRevisionByID(ctx context.Context, id uint) (dto.RevisionResponse, error)
	// Wait blocks until every evaluation started by CreateRevision has finished.
	Wait()
}

type revisionService struct {
	uow       repository.UnitOfWork
	evaluator Evaluator
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
	inflight  sync.WaitGroup
	now       func() time.Time
}

// NewRevisionService constructs a RevisionService.
func NewRevisionService(uow repository.UnitOfWork, evaluator Evaluator, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) RevisionService {
	return &revisionService{
		uow:       uow,
		evaluator: evaluator,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "revision_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/ai-feedback-api/internal/service/revision"),
		now:       time.Now,
	}
}

// CreateRevision claims the submission and records a pending revision in one
// transaction, then evaluates in the background.
func (s *revisionService) CreateRevision(ctx context.Context, payload dto.CreateRevisionRequest) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	ctx, span := s.tracer.Start(ctx, "revision.create", trace.WithAttributes(
		attribute.Int("submission.id", int(payload.SubmissionID)),
	))
	defer span.End()

	var submission models.Submission
	err := s.uow.Do(ctx, func(tx repository.Store) error {
		locked, err := tx.Submissions().GetByIDForUpdate(ctx, payload.SubmissionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubmissionNotFound
			}
			return err
		}

		if locked.IsProcessing() {
			return ErrSubmissionProcessing
		}

		moved, err := tx.Submissions().TransitionToProcessing(ctx, locked.ID)
		if err != nil {
			return err
		}
		if !moved {
			return ErrSubmissionProcessing
		}

		if err := tx.Revisions().Create(ctx, &models.Revision{SubmissionID: locked.ID}); err != nil {
			return err
		}

		submission = locked
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return err
	}

	tc := NewTraceContext(submission.StudentID, s.now()).WithSubmission(submission.ID)
	observability.Logger(ctx, s.logger).Info().
		Str("trace_id", tc.TraceID).
		Uint("submission_id", submission.ID).
		Msg("revision requested")

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		s.evaluate(context.WithoutCancel(ctx), submission, tc)
	}()

	return nil
}

func (s *revisionService) evaluate(ctx context.Context, submission models.Submission, tc TraceContext) {
	start := s.now()
	result, err := s.evaluator.Evaluate(ctx, submission, tc)
	recordEvaluation(SourceRevision, start, err)

	status := models.SubmissionStatusCompleted
	var score *int
	if err != nil {
		status = models.SubmissionStatusFailed
		observability.Logger(ctx, s.logger).Warn().Err(err).Str("trace_id", tc.TraceID).Uint("submission_id", submission.ID).Msg("revision evaluation failed")
	} else {
		score = &result.Feedback.Score
	}

	if err := s.uow.Submissions().UpdateStatus(ctx, submission.ID, status); err != nil {
		observability.Logger(ctx, s.logger).Error().Err(err).Str("trace_id", tc.TraceID).Uint("submission_id", submission.ID).Msg("failed to record revision outcome")
		return
	}

	if s.events != nil {
		s.events.PublishSubmission(ctx, newSubmissionEvent(SourceRevision, submission.ID, submission.StudentID, status, tc.TraceID, score))
	}
}

func (s *revisionService) Wait() {
	s.inflight.Wait()
}

func (s *revisionService) FindAllRevisions(ctx context.Context, query dto.RevisionListQuery) (dto.RevisionListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.RevisionListResponse{}, err
	}

	page, err := pageQuery(query.Page, query.Size, query.Sort, revisionSortColumns)
	if err != nil {
		return dto.RevisionListResponse{}, err
	}

	items, total, err := s.uow.Revisions().List(ctx, page)
	if err != nil {
		return dto.RevisionListResponse{}, err
	}

	return dto.RevisionListResponse{
		Items:      dto.NewRevisionResponseSlice(items),
		Pagination: dto.Pagination{Page: page.Page, Size: page.Size, Total: total},
	}, nil
}

func (s *revisionService) FindRevisionByID(ctx context.Context, id uint) (dto.RevisionResponse, error) {
	revision, err := s.uow.Revisions().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.RevisionResponse{}, ErrRevisionNotFound
		}
		return dto.RevisionResponse{}, err
	}

	return dto.NewRevisionResponse(revision), nil
}
