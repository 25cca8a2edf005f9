package scheduler

import (
	"context"

	"github.com/noah-isme/ai-feedback-api/internal/config"
	"github.com/noah-isme/ai-feedback-api/internal/service"
)

// Job names.
const (
	JobDailyStats   = "daily_stats"
	JobWeeklyStats  = "weekly_stats"
	JobMonthlyStats = "monthly_stats"
	JobAutoRetry    = "auto_retry"
)

// FeedbackJobs binds the periodic service operations to their configured specs.
func FeedbackJobs(svc service.SchedulerService, cfg config.SchedulerConfig) []Job {
	return []Job{
		{Name: JobDailyStats, Spec: cfg.DailySpec, Handler: svc.HandleDailyStats},
		{Name: JobWeeklyStats, Spec: cfg.WeeklySpec, Handler: svc.HandleWeeklyStats},
		{Name: JobMonthlyStats, Spec: cfg.MonthlySpec, Handler: svc.HandleMonthlyStats},
		{Name: JobAutoRetry, Spec: cfg.AutoRetrySpec, Handler: func(ctx context.Context) error {
			_, err := svc.HandleAutoRetry(ctx)
			return err
		}},
	}
}
