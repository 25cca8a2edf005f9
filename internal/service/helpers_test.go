package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/database"
	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
	"github.com/noah-isme/ai-feedback-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func testValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func setupServiceDB(t *testing.T) (*gorm.DB, repository.UnitOfWork) {
	t.Helper()
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	require.NoError(t, db.Create(&models.SubmissionComponentType{Name: "essay"}).Error)
	return db, repository.NewUnitOfWork(db)
}

// seedSubmission creates a student and one submission in the given status.
func seedSubmission(t *testing.T, db *gorm.DB, name, status string) models.Submission {
	t.Helper()
	student := models.Student{Name: name}
	require.NoError(t, db.Create(&student).Error)
	submission := models.Submission{
		StudentID:     student.ID,
		ComponentType: "essay",
		SubmitText:    "I like pizza and school.",
		Status:        status,
	}
	require.NoError(t, db.Create(&submission).Error)
	submission.Student = student
	return submission
}

func reloadSubmission(t *testing.T, db *gorm.DB, id uint) models.Submission {
	t.Helper()
	var submission models.Submission
	require.NoError(t, db.First(&submission, id).Error)
	return submission
}

func revisionsFor(t *testing.T, db *gorm.DB, submissionID uint) []models.Revision {
	t.Helper()
	var revisions []models.Revision
	require.NoError(t, db.Where("submission_id = ?", submissionID).Order("id ASC").Find(&revisions).Error)
	return revisions
}

func logsFor(t *testing.T, db *gorm.DB, traceID string) []models.SubmissionLog {
	t.Helper()
	var logs []models.SubmissionLog
	require.NoError(t, db.Where("trace_id = ?", traceID).Order("id ASC").Find(&logs).Error)
	return logs
}

type stubChatter struct {
	mu       sync.Mutex
	reply    string
	err      error
	messages [][]ai.Message
}

func (s *stubChatter) Chat(ctx context.Context, messages []ai.Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, messages)
	return s.reply, s.err
}

type stubEvaluator struct {
	mu     sync.Mutex
	gate   chan struct{}
	failOn map[uint]bool
	err    error
	calls  []uint
}

func (s *stubEvaluator) Evaluate(ctx context.Context, submission models.Submission, trace TraceContext) (EvaluationResult, error) {
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, submission.ID)
	if s.err != nil || s.failOn[submission.ID] {
		err := s.err
		if err == nil {
			err = wrapDomain(ErrAIAdapterFailure, fmt.Errorf("stub failure"))
		}
		return EvaluationResult{}, err
	}
	return EvaluationResult{Feedback: Feedback{Score: 90, Feedback: "fine"}}, nil
}

func (s *stubEvaluator) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []SubmissionEvent
}

func (p *recordingPublisher) PublishSubmission(ctx context.Context, event SubmissionEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) published() []SubmissionEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]SubmissionEvent(nil), p.events...)
}
