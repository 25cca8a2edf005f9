package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/dto"
	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
	"github.com/noah-isme/ai-feedback-api/pkg/media"
)

// SubmissionService orchestrates submission intake, evaluation and reads.
type SubmissionService interface {
	HandleSubmission(ctx context.Context, payload dto.SubmissionRequest, video *multipart.FileHeader) (dto.SubmissionResultResponse, error)
	EvaluateSubmission(ctx context.Context, submissionID uint, trace TraceContext) error
	ListSubmissions(ctx context.Context, query dto.SubmissionListQuery) (dto.SubmissionListResponse, error)
	GetSubmissionDetail(ctx context.Context, id uint) (dto.SubmissionDetailResponse, error)
}

type submissionService struct {
	uow       repository.UnitOfWork
	evaluator Evaluator
	processor media.Processor
	uploader  FileUploader
	events    EventPublisher
	validator *validator.Validate
	logger    zerolog.Logger
	now       func() time.Time
}

// NewSubmissionService constructs a SubmissionService instance.
// processor, uploader and events may be nil; a video upload then fails with ErrMediaProcessing.
func NewSubmissionService(uow repository.UnitOfWork, evaluator Evaluator, processor media.Processor, uploader FileUploader, events EventPublisher, validate *validator.Validate, logger zerolog.Logger) SubmissionService {
	return &submissionService{
		uow:       uow,
		evaluator: evaluator,
		processor: processor,
		uploader:  uploader,
		events:    events,
		validator: validate,
		logger:    logger.With().Str("component", "submission_service").Logger(),
		now:       time.Now,
	}
}

func (s *submissionService) HandleSubmission(ctx context.Context, payload dto.SubmissionRequest, video *multipart.FileHeader) (dto.SubmissionResultResponse, error) {
	start := s.now()
	tc := NewTraceContext(payload.StudentID, start)
	payload.StudentName = strings.TrimSpace(payload.StudentName)
	payload.ComponentType = strings.TrimSpace(payload.ComponentType)

	if err := s.validateSubmission(ctx, payload, video); err != nil {
		s.appendLog(ctx, tc, models.SubmissionLogActionValidation, start, err)
		return dto.SubmissionResultResponse{}, &SubmissionFailure{TraceID: tc.TraceID, Err: err}
	}

	submission := models.Submission{
		StudentID:     payload.StudentID,
		ComponentType: payload.ComponentType,
		SubmitText:    payload.SubmitText,
		Status:        models.SubmissionStatusProcessing,
	}
	if err := s.uow.Submissions().Create(ctx, &submission); err != nil {
		return dto.SubmissionResultResponse{}, &SubmissionFailure{TraceID: tc.TraceID, Err: fmt.Errorf("create submission: %w", err)}
	}
	tc = tc.WithSubmission(submission.ID)

	var mediaURLs dto.MediaURLs
	var result EvaluationResult
	var err error
	if video != nil {
		mediaURLs, err = s.processMedia(ctx, tc, video)
	}
	if err == nil {
		result, err = s.evaluator.Evaluate(ctx, submission, tc)
	}
	recordEvaluation(SourceIntake, start, err)
	s.finish(ctx, submission, tc, result, err)

	if err != nil {
		return dto.SubmissionResultResponse{}, &SubmissionFailure{TraceID: tc.TraceID, Err: err}
	}

	highlights := result.Feedback.Highlights
	if highlights == nil {
		highlights = []string{}
	}

	return dto.SubmissionResultResponse{
		Result:              "ok",
		SubmissionID:        submission.ID,
		StudentID:           payload.StudentID,
		StudentName:         payload.StudentName,
		Score:               result.Feedback.Score,
		Feedback:            result.Feedback.Feedback,
		Highlights:          highlights,
		SubmitText:          submission.SubmitText,
		HighlightSubmitText: result.HighlightSubmitText,
		MediaURL:            mediaURLs,
		APILatencyMs:        tc.Elapsed(s.now()),
		TraceID:             tc.TraceID,
	}, nil
}

func (s *submissionService) EvaluateSubmission(ctx context.Context, submissionID uint, tc TraceContext) error {
	submission, err := s.uow.Submissions().GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrSubmissionNotFound
		}
		return err
	}

	_, err = s.evaluator.Evaluate(ctx, submission, tc)
	return err
}

func (s *submissionService) ListSubmissions(ctx context.Context, query dto.SubmissionListQuery) (dto.SubmissionListResponse, error) {
	if err := s.validator.Struct(query); err != nil {
		return dto.SubmissionListResponse{}, err
	}

	page, err := pageQuery(query.Page, query.Size, query.Sort, submissionSortColumns)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	filter := repository.SubmissionFilter{
		Status:      query.Status,
		StudentID:   query.StudentID,
		StudentName: query.StudentName,
	}

	items, total, err := s.uow.Submissions().List(ctx, filter, page)
	if err != nil {
		return dto.SubmissionListResponse{}, err
	}

	return dto.SubmissionListResponse{
		Items:      dto.NewSubmissionSummarySlice(items),
		Pagination: dto.Pagination{Page: page.Page, Size: page.Size, Total: total},
	}, nil
}

func (s *submissionService) GetSubmissionDetail(ctx context.Context, id uint) (dto.SubmissionDetailResponse, error) {
	submission, err := s.uow.Submissions().GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionDetailResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionDetailResponse{}, err
	}

	return dto.NewSubmissionDetailResponse(submission), nil
}

// validateSubmission runs every check that must pass before anything is written.
func (s *submissionService) validateSubmission(ctx context.Context, payload dto.SubmissionRequest, video *multipart.FileHeader) error {
	if err := s.validator.Struct(payload); err != nil {
		return err
	}

	if _, err := s.uow.ComponentTypes().GetByName(ctx, payload.ComponentType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidComponentType
		}
		return err
	}

	if _, err := s.uow.Submissions().FindByStudentAndComponentType(ctx, payload.StudentID, payload.ComponentType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotEligibleForComponent
		}
		return err
	}

	if video != nil {
		return validateVideo(video)
	}

	return nil
}

func validateVideo(file *multipart.FileHeader) error {
	reader, err := file.Open()
	if err != nil {
		return wrapDomain(ErrInvalidMedia, err)
	}
	defer reader.Close()

	detected, err := mimetype.DetectReader(reader)
	if err != nil {
		return wrapDomain(ErrInvalidMedia, err)
	}

	if !strings.HasPrefix(detected.String(), "video/") {
		return wrapDomain(ErrInvalidMedia, fmt.Errorf("detected %s", detected.String()))
	}

	return nil
}

// processMedia derives the artifacts, uploads both and stores their references.
func (s *submissionService) processMedia(ctx context.Context, tc TraceContext, video *multipart.FileHeader) (dto.MediaURLs, error) {
	start := s.now()
	urls, err := s.uploadMedia(ctx, tc, video)
	if err != nil {
		err = wrapDomain(ErrMediaProcessing, err)
		s.appendLog(ctx, tc, models.SubmissionLogActionVideoUpload, start, err)
		return dto.MediaURLs{}, err
	}
	return urls, nil
}

func (s *submissionService) uploadMedia(ctx context.Context, tc TraceContext, video *multipart.FileHeader) (dto.MediaURLs, error) {
	if s.processor == nil || s.uploader == nil {
		return dto.MediaURLs{}, errors.New("media pipeline is not configured")
	}

	start := s.now()
	reader, err := video.Open()
	if err != nil {
		return dto.MediaURLs{}, fmt.Errorf("open video: %w", err)
	}
	defer reader.Close()

	artifacts, err := s.processor.Process(ctx, media.Input{Filename: video.Filename, Reader: reader})
	if err != nil {
		return dto.MediaURLs{}, err
	}
	if artifacts.Cleanup != nil {
		defer artifacts.Cleanup()
	}

	var videoURL, audioURL string
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		url, err := s.uploadFile(groupCtx, artifacts.VideoPath)
		videoURL = url
		return err
	})
	group.Go(func() error {
		url, err := s.uploadFile(groupCtx, artifacts.AudioPath)
		audioURL = url
		return err
	})
	if err := group.Wait(); err != nil {
		return dto.MediaURLs{}, err
	}

	err = s.uow.Do(ctx, func(tx repository.Store) error {
		for _, item := range []models.SubmissionMedia{
			{SubmissionID: *tc.SubmissionID, Type: models.MediaTypeVideo, URL: videoURL},
			{SubmissionID: *tc.SubmissionID, Type: models.MediaTypeAudio, URL: audioURL},
		} {
			if err := tx.Media().Create(ctx, &item); err != nil {
				return fmt.Errorf("store media: %w", err)
			}
		}
		return tx.SubmissionLogs().Create(ctx, newSubmissionLog(tc, models.SubmissionLogActionVideoUpload, s.now().Sub(start), nil))
	})
	if err != nil {
		return dto.MediaURLs{}, err
	}

	return dto.MediaURLs{Video: &videoURL, Audio: &audioURL}, nil
}

func (s *submissionService) uploadFile(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer file.Close()

	return s.uploader.Upload(ctx, filepath.Base(path), file)
}

// finish records the terminal status even when the request was cancelled.
func (s *submissionService) finish(ctx context.Context, submission models.Submission, tc TraceContext, result EvaluationResult, evalErr error) {
	ctx = context.WithoutCancel(ctx)

	status := models.SubmissionStatusCompleted
	var score *int
	if evalErr != nil {
		status = models.SubmissionStatusFailed
	} else {
		score = &result.Feedback.Score
	}

	if err := s.uow.Submissions().UpdateStatus(ctx, submission.ID, status); err != nil {
		observability.Logger(ctx, s.logger).Error().Err(err).
			Str("trace_id", tc.TraceID).
			Uint("submission_id", submission.ID).
			Str("status", status).
			Msg("failed to record submission status")
		return
	}

	if s.events != nil {
		s.events.PublishSubmission(ctx, newSubmissionEvent(SourceIntake, submission.ID, submission.StudentID, status, tc.TraceID, score))
	}
}

func (s *submissionService) appendLog(ctx context.Context, tc TraceContext, action string, start time.Time, cause error) {
	entry := newSubmissionLog(tc, action, s.now().Sub(start), cause)
	if err := s.uow.SubmissionLogs().Create(context.WithoutCancel(ctx), entry); err != nil {
		observability.Logger(ctx, s.logger).Error().Err(err).Str("trace_id", tc.TraceID).Str("action", action).Msg("failed to write submission log")
	}
}
