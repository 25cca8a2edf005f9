package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/ai-feedback-api/internal/observability"
)

var (
	// ErrJobRunning is returned when a job is fired while its previous run is still active.
	ErrJobRunning = errors.New("scheduler: job is already running")
	// ErrLockHeld is returned when another replica holds the job lock.
	ErrLockHeld = errors.New("scheduler: job lock held elsewhere")
	// ErrUnknownJob is returned by RunNow for unregistered job names.
	ErrUnknownJob = errors.New("scheduler: unknown job")
)

// Job is one periodic task.
type Job struct {
	Name    string
	Spec    string
	Handler func(ctx context.Context) error
}

// Config tunes the runner.
type Config struct {
	Location   *time.Location
	JobTimeout time.Duration
	LockTTL    time.Duration
	Logger     zerolog.Logger
}

type entry struct {
	job      Job
	schedule cron.Schedule
	next     time.Time
	running  atomic.Bool
}

// Runner fires jobs on their cron schedules from a single timing loop.
type Runner struct {
	entries []*entry
	locker  Locker
	cfg     Config
	logger  zerolog.Logger
	tracer  trace.Tracer
	wg      sync.WaitGroup
	now     func() time.Time
}

// NewRunner parses every job spec. locker may be nil for single replica deployments.
func NewRunner(cfg Config, locker Locker, jobs ...Job) (*Runner, error) {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 50 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = cfg.JobTimeout + 5*time.Minute
	}

	entries := make([]*entry, 0, len(jobs))
	seen := make(map[string]struct{}, len(jobs))
	for _, job := range jobs {
		if job.Name == "" || job.Handler == nil {
			return nil, fmt.Errorf("scheduler: job needs a name and a handler")
		}
		if _, ok := seen[job.Name]; ok {
			return nil, fmt.Errorf("scheduler: duplicate job %q", job.Name)
		}
		seen[job.Name] = struct{}{}

		schedule, err := cron.ParseStandard(job.Spec)
		if err != nil {
			return nil, fmt.Errorf("scheduler: invalid spec %q for job %s: %w", job.Spec, job.Name, err)
		}
		entries = append(entries, &entry{job: job, schedule: schedule})
	}

	return &Runner{
		entries: entries,
		locker:  locker,
		cfg:     cfg,
		logger:  cfg.Logger.With().Str("component", "scheduler").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/ai-feedback-api/internal/scheduler"),
		now:     time.Now,
	}, nil
}

// Run blocks until ctx is cancelled, then waits for running jobs to return.
func (r *Runner) Run(ctx context.Context) {
	if len(r.entries) == 0 {
		<-ctx.Done()
		return
	}

	now := r.now().In(r.cfg.Location)
	for _, e := range r.entries {
		e.next = e.schedule.Next(now)
		r.logger.Info().Str("job", e.job.Name).Str("spec", e.job.Spec).Time("next_run", e.next).Msg("job scheduled")
	}

	timer := time.NewTimer(r.untilNext())
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info().Msg("scheduler stopping")
			r.wg.Wait()
			return
		case <-timer.C:
			now := r.now().In(r.cfg.Location)
			for _, e := range r.entries {
				if e.next.After(now) {
					continue
				}
				r.dispatch(ctx, e)
				e.next = e.schedule.Next(now)
			}
			timer.Reset(r.untilNext())
		}
	}
}

// RunNow executes the named job synchronously, honouring the overlap guard and lock.
func (r *Runner) RunNow(ctx context.Context, name string) error {
	for _, e := range r.entries {
		if e.job.Name != name {
			continue
		}
		if !e.running.CompareAndSwap(false, true) {
			r.skip(e.job.Name, "running")
			return ErrJobRunning
		}
		defer e.running.Store(false)
		return r.execute(ctx, e.job)
	}
	return ErrUnknownJob
}

func (r *Runner) untilNext() time.Duration {
	var earliest time.Time
	for _, e := range r.entries {
		if earliest.IsZero() || e.next.Before(earliest) {
			earliest = e.next
		}
	}
	wait := earliest.Sub(r.now())
	if wait < 0 {
		return 0
	}
	return wait
}

func (r *Runner) dispatch(ctx context.Context, e *entry) {
	if !e.running.CompareAndSwap(false, true) {
		r.skip(e.job.Name, "running")
		return
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer e.running.Store(false)
		_ = r.execute(ctx, e.job)
	}()
}

func (r *Runner) execute(parent context.Context, job Job) (err error) {
	runID := uuid.NewString()
	logger := r.logger.With().Str("job", job.Name).Str("correlation_id", runID).Logger()

	ctx, cancel := context.WithTimeout(observability.WithCorrelationID(parent, runID), r.cfg.JobTimeout)
	defer cancel()

	ctx, span := r.tracer.Start(ctx, "scheduler."+job.Name, trace.WithAttributes(
		attribute.String("scheduler.job", job.Name),
		attribute.String("scheduler.run_id", runID),
	))
	defer span.End()

	if r.locker != nil {
		release, ok, lockErr := r.locker.Acquire(ctx, job.Name, r.cfg.LockTTL)
		if lockErr != nil {
			observability.SchedulerRuns().WithLabelValues(job.Name, "failure").Inc()
			logger.Error().Err(lockErr).Msg("failed to acquire job lock")
			span.RecordError(lockErr)
			return fmt.Errorf("acquire lock: %w", lockErr)
		}
		if !ok {
			r.skip(job.Name, "locked")
			return ErrLockHeld
		}
		defer release()
	}

	start := time.Now()
	logger.Info().Msg("job started")

	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("scheduler: job panicked: %v", recovered)
		}

		duration := time.Since(start)
		observability.SchedulerDuration().WithLabelValues(job.Name).Observe(duration.Seconds())
		if err != nil {
			observability.SchedulerRuns().WithLabelValues(job.Name, "failure").Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			logger.Error().Err(err).Dur("duration", duration).Msg("job failed")
			return
		}
		observability.SchedulerRuns().WithLabelValues(job.Name, "success").Inc()
		logger.Info().Dur("duration", duration).Msg("job completed")
	}()

	return job.Handler(ctx)
}

func (r *Runner) skip(name, reason string) {
	observability.SchedulerRuns().WithLabelValues(name, "skipped").Inc()
	r.logger.Warn().Str("job", name).Str("reason", reason).Msg("job run skipped")
}
