package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ai-feedback-api/internal/models"
	"github.com/noah-isme/ai-feedback-api/pkg/ai"
)

func TestEvaluatorStoresAnalysisAndLogs(t *testing.T) {
	db, uow := setupServiceDB(t)
	submission := seedSubmission(t, db, "Mina", models.SubmissionStatusProcessing)
	chatter := &stubChatter{reply: "Score: 85\nFeedback: Good job: keep going.\nschool\npizza"}
	evaluator := NewEvaluator(uow, chatter, testLogger())

	tc := NewTraceContext(submission.StudentID, time.Now())
	result, err := evaluator.Evaluate(context.Background(), submission, tc)
	require.NoError(t, err)
	require.Equal(t, 85, result.Feedback.Score)
	require.Equal(t, "Good job: keep going.", result.Feedback.Feedback)
	require.Equal(t, "I like <b>pizza</b> and <b>school</b>.", result.HighlightSubmitText)

	require.Len(t, chatter.messages, 1)
	require.Equal(t, ai.RoleSystem, chatter.messages[0][0].Role)
	require.Contains(t, chatter.messages[0][1].Content, "essay assignment evaluation request. I like pizza and school.")

	var analysis models.SubmissionAnalysis
	require.NoError(t, db.Preload("Highlights").First(&analysis, result.AnalysisID).Error)
	require.Equal(t, submission.ID, analysis.SubmissionID)
	require.Equal(t, []string{"school", "pizza"}, analysis.HighlightTexts())

	logs := logsFor(t, db, tc.TraceID)
	require.Len(t, logs, 2)
	require.Equal(t, models.SubmissionLogActionOpenAI, logs[0].Action)
	require.Equal(t, models.SubmissionLogActionEvaluate, logs[1].Action)
	for _, entry := range logs {
		require.NotNil(t, entry.IsSuccess)
		require.True(t, *entry.IsSuccess)
		require.NotNil(t, entry.SubmissionID)
		require.Equal(t, submission.ID, *entry.SubmissionID)
	}

	require.Equal(t, models.SubmissionStatusProcessing, reloadSubmission(t, db, submission.ID).Status)
}

func TestEvaluatorStoresHighlightedTextVerbatim(t *testing.T) {
	db, uow := setupServiceDB(t)
	submission := seedSubmission(t, db, "Mina", models.SubmissionStatusProcessing)
	submission.SubmitText = `I don't like "pizza" & school`
	require.NoError(t, db.Model(&submission).Update("submit_text", submission.SubmitText).Error)

	evaluator := NewEvaluator(uow, &stubChatter{reply: "Score: 70\nFeedback: Fine.\npizza"}, testLogger())
	result, err := evaluator.Evaluate(context.Background(), submission, NewTraceContext(submission.StudentID, time.Now()))
	require.NoError(t, err)

	want := `I don't like "<b>pizza</b>" & school`
	require.Equal(t, want, result.HighlightSubmitText)

	var analysis models.SubmissionAnalysis
	require.NoError(t, db.First(&analysis, result.AnalysisID).Error)
	require.Equal(t, want, analysis.HighlightSubmitText)
}

func TestEvaluatorRecordsChatFailure(t *testing.T) {
	db, uow := setupServiceDB(t)
	submission := seedSubmission(t, db, "Mina", models.SubmissionStatusProcessing)
	evaluator := NewEvaluator(uow, &stubChatter{err: errors.New("rate limited")}, testLogger())

	tc := NewTraceContext(submission.StudentID, time.Now())
	_, err := evaluator.Evaluate(context.Background(), submission, tc)
	require.ErrorIs(t, err, ErrAIAdapterFailure)
	require.Equal(t, KindUpstream, KindOf(err))

	logs := logsFor(t, db, tc.TraceID)
	require.Len(t, logs, 2)
	require.Equal(t, models.SubmissionLogActionOpenAI, logs[0].Action)
	require.False(t, *logs[0].IsSuccess)
	require.Equal(t, models.SubmissionLogActionEvaluate, logs[1].Action)
	require.False(t, *logs[1].IsSuccess)
	require.NotNil(t, logs[1].ErrorMessage)
	require.Contains(t, *logs[1].ErrorMessage, "rate limited")

	var count int64
	require.NoError(t, db.Model(&models.SubmissionAnalysis{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEvaluatorRejectsMalformedReply(t *testing.T) {
	db, uow := setupServiceDB(t)
	submission := seedSubmission(t, db, "Mina", models.SubmissionStatusProcessing)
	evaluator := NewEvaluator(uow, &stubChatter{reply: "I think this is great"}, testLogger())

	tc := NewTraceContext(submission.StudentID, time.Now())
	_, err := evaluator.Evaluate(context.Background(), submission, tc)
	require.ErrorIs(t, err, ErrInvalidFeedbackFormat)

	logs := logsFor(t, db, tc.TraceID)
	require.Len(t, logs, 2)
	require.True(t, *logs[0].IsSuccess, "the chat call itself succeeded")
	require.False(t, *logs[1].IsSuccess)
}

func TestEvaluatorRequiresRegisteredComponentType(t *testing.T) {
	db, uow := setupServiceDB(t)
	submission := seedSubmission(t, db, "Mina", models.SubmissionStatusProcessing)
	submission.ComponentType = "poem"
	chatter := &stubChatter{reply: "Score: 1\nFeedback: x"}
	evaluator := NewEvaluator(uow, chatter, testLogger())

	tc := NewTraceContext(submission.StudentID, time.Now())
	_, err := evaluator.Evaluate(context.Background(), submission, tc)
	require.ErrorIs(t, err, ErrInvalidComponentType)
	require.Empty(t, chatter.messages)
	require.Empty(t, logsFor(t, db, tc.TraceID))
}
