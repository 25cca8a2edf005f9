package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Student{},
		&models.SubmissionComponentType{},
		&models.Submission{},
		&models.Revision{},
		&models.SubmissionAnalysis{},
		&models.AnalysisHighlight{},
		&models.SubmissionMedia{},
		&models.SubmissionLog{},
		&models.StatsDaily{},
		&models.StatsWeekly{},
		&models.StatsMonthly{},
	))
	return db
}

func seedSubmission(t *testing.T, db *gorm.DB, studentName, status string) models.Submission {
	t.Helper()
	student := models.Student{Name: studentName}
	require.NoError(t, db.Create(&student).Error)
	submission := models.Submission{StudentID: student.ID, ComponentType: "essay", SubmitText: "text", Status: status}
	require.NoError(t, db.Create(&submission).Error)
	return submission
}

func TestSubmissionRepositoryListFiltersAndPaginates(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	alice := seedSubmission(t, db, "Alice Kim", models.SubmissionStatusCompleted)
	seedSubmission(t, db, "Bob Lee", models.SubmissionStatusFailed)
	seedSubmission(t, db, "Alicia Park", models.SubmissionStatusFailed)

	items, total, err := repo.List(ctx, SubmissionFilter{StudentName: "ali"}, PageQuery{Page: 1, Size: 10, SortColumn: "id"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	require.Equal(t, alice.ID, items[0].ID)
	require.Equal(t, "Alice Kim", items[0].Student.Name)

	failed := models.SubmissionStatusFailed
	items, total, err = repo.List(ctx, SubmissionFilter{Status: &failed}, PageQuery{Page: 2, Size: 1, SortColumn: "id"})
	require.NoError(t, err)
	require.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	require.Equal(t, "Alicia Park", items[0].Student.Name)

	items, _, err = repo.List(ctx, SubmissionFilter{}, PageQuery{})
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, "Alicia Park", items[0].Student.Name, "expected newest record first")
}

func TestSubmissionRepositoryTransitionToProcessingIsConditional(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := seedSubmission(t, db, "Jane", models.SubmissionStatusFailed)

	changed, err := repo.TransitionToProcessing(ctx, submission.ID)
	require.NoError(t, err)
	require.True(t, changed)

	changed, err = repo.TransitionToProcessing(ctx, submission.ID)
	require.NoError(t, err)
	require.False(t, changed)

	stored, err := repo.GetByID(ctx, submission.ID)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusProcessing, stored.Status)
}

func TestSubmissionRepositoryClaimForRetry(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	failed := seedSubmission(t, db, "Failed", models.SubmissionStatusFailed)
	stuck := seedSubmission(t, db, "Stuck", models.SubmissionStatusProcessing)
	fresh := seedSubmission(t, db, "Fresh", models.SubmissionStatusProcessing)
	seedSubmission(t, db, "Done", models.SubmissionStatusCompleted)

	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", stuck.ID).UpdateColumn("updated_at", old).Error)

	staleBefore := time.Now().Add(-30 * time.Minute)
	candidates, err := repo.FindRetryable(ctx, &staleBefore)
	require.NoError(t, err)
	require.Len(t, candidates, 2)
	require.Equal(t, failed.ID, candidates[0].ID)
	require.Equal(t, stuck.ID, candidates[1].ID)

	onlyFailed, err := repo.FindRetryable(ctx, nil)
	require.NoError(t, err)
	require.Len(t, onlyFailed, 1)

	claimed, err := repo.ClaimForRetry(ctx, failed.ID, models.SubmissionStatusFailed, &staleBefore)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = repo.ClaimForRetry(ctx, failed.ID, models.SubmissionStatusFailed, &staleBefore)
	require.NoError(t, err)
	require.False(t, claimed, "second claim must lose")

	claimed, err = repo.ClaimForRetry(ctx, stuck.ID, models.SubmissionStatusProcessing, &staleBefore)
	require.NoError(t, err)
	require.True(t, claimed)

	claimed, err = repo.ClaimForRetry(ctx, fresh.ID, models.SubmissionStatusProcessing, &staleBefore)
	require.NoError(t, err)
	require.False(t, claimed)
}

func TestSubmissionRepositoryExcludesSoftDeleted(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)
	ctx := context.Background()

	submission := seedSubmission(t, db, "Gone", models.SubmissionStatusFailed)
	require.NoError(t, db.Delete(&models.Submission{}, submission.ID).Error)

	_, err := repo.GetDetail(ctx, submission.ID)
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	candidates, err := repo.FindRetryable(ctx, nil)
	require.NoError(t, err)
	require.Empty(t, candidates)
}

func TestSubmissionRepositoryCountByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSubmissionRepository(db)

	for i := 0; i < 3; i++ {
		seedSubmission(t, db, fmt.Sprintf("c%d", i), models.SubmissionStatusCompleted)
	}
	seedSubmission(t, db, "f", models.SubmissionStatusFailed)
	seedSubmission(t, db, "p", models.SubmissionStatusPending)

	counts, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	require.Equal(t, StatusCounts{Total: 5, Completed: 3, Failed: 1}, counts)
}

func TestSubmissionRepositoryDetailReturnsNewestAnalysisFirst(t *testing.T) {
	db := setupTestDB(t)
	store := NewUnitOfWork(db)
	ctx := context.Background()

	submission := seedSubmission(t, db, "Jane", models.SubmissionStatusCompleted)

	first := models.SubmissionAnalysis{SubmissionID: submission.ID, Score: 40, Feedback: "first",
		Highlights: []models.AnalysisHighlight{{Text: "b"}, {Text: "a"}}}
	require.NoError(t, store.Analyses().Create(ctx, &first))
	second := models.SubmissionAnalysis{SubmissionID: submission.ID, Score: 90, Feedback: "second",
		Highlights: []models.AnalysisHighlight{{Text: "z"}, {Text: "y"}}}
	require.NoError(t, store.Analyses().Create(ctx, &second))
	require.NoError(t, store.Media().Create(ctx, &models.SubmissionMedia{SubmissionID: submission.ID, Type: models.MediaTypeVideo, URL: "v"}))

	detail, err := store.Submissions().GetDetail(ctx, submission.ID)
	require.NoError(t, err)
	require.Len(t, detail.Analyses, 2)
	require.Len(t, detail.Media, 1)

	latest := detail.LatestAnalysis()
	require.NotNil(t, latest)
	require.Equal(t, 90, latest.Score)
	require.Equal(t, []string{"z", "y"}, latest.HighlightTexts())
}
