package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ai-feedback-api/internal/config"
	"github.com/noah-isme/ai-feedback-api/internal/database"
	"github.com/noah-isme/ai-feedback-api/internal/handler"
	"github.com/noah-isme/ai-feedback-api/internal/middleware"
	"github.com/noah-isme/ai-feedback-api/internal/observability"
	"github.com/noah-isme/ai-feedback-api/internal/repository"
	"github.com/noah-isme/ai-feedback-api/internal/router"
	"github.com/noah-isme/ai-feedback-api/internal/scheduler"
	"github.com/noah-isme/ai-feedback-api/internal/service"
	"github.com/noah-isme/ai-feedback-api/pkg/ai"
	cloud "github.com/noah-isme/ai-feedback-api/pkg/cloudinary"
	dockerexec "github.com/noah-isme/ai-feedback-api/pkg/docker"
	"github.com/noah-isme/ai-feedback-api/pkg/media"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()
	if cfg.AppEnv == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	observability.RegisterMetrics()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			log.Fatalf("failed to connect to nats: %v", err)
		}
		defer natsConn.Drain()
	}

	chatter, closeChatter, err := newChatter(cfg, logger)
	if err != nil {
		log.Fatalf("failed to create ai client: %v", err)
	}
	defer closeChatter()

	var uploader service.FileUploader
	if cfg.CloudinaryCloudName != "" {
		cld, err := cloud.New(cloud.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
			Folder:    cfg.CloudinaryUploadFolder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		uploader = cld
	} else {
		logger.Warn().Msg("cloudinary not configured, video submissions will fail")
	}

	var processor media.Processor
	executor, err := dockerexec.NewDockerExecutor(dockerexec.Config{
		Host:          cfg.DockerHost,
		Timeout:       cfg.MediaTimeout,
		MemoryLimitMB: 512,
		Logger:        logger,
	})
	if err != nil {
		logger.Warn().Err(err).Msg("docker unavailable, video submissions will fail")
	} else {
		defer executor.Close()
		processor = media.NewFFmpegProcessor(executor, media.Config{
			Image:   cfg.FFmpegImage,
			Workdir: cfg.MediaWorkdir,
			Timeout: cfg.MediaTimeout,
			Logger:  logger,
		})
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	uow := repository.NewUnitOfWork(db)
	events := service.NewSubmissionEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	evaluator := service.NewEvaluator(uow, chatter, logger)

	submissionService := service.NewSubmissionService(uow, evaluator, processor, uploader, events, validate, logger)
	revisionService := service.NewRevisionService(uow, evaluator, events, validate, logger)
	schedulerService := service.NewSchedulerService(uow, evaluator, events, service.SchedulerServiceConfig{
		Location:             cfg.Scheduler.Location(),
		StaleProcessingAfter: cfg.Scheduler.StaleProcessingAfter,
	}, logger)
	authService := service.NewAuthService(cfg.JWTSecret, cfg.JWTTTL, validate)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    200 * 1024 * 1024,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		RequestLogs: repository.NewRequestLogRepository(db),
		AccessLog:   cfg.AppEnv != "production",
	})
	router.Register(app, cfg, router.Dependencies{
		SubmissionHandler:   handler.NewSubmissionHandler(submissionService, logger),
		RevisionHandler:     handler.NewRevisionHandler(revisionService, logger),
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		JWTMiddleware:       middleware.JWTProtected(cfg.JWTSecret),
		SubmissionRateLimit: middleware.RateLimit("submissions", cfg.SubmissionsPerMinute, time.Minute),
		HealthChecks:        healthChecks(db, redisClient),
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	schedulerDone := make(chan struct{})
	if cfg.Scheduler.Enabled {
		var locker scheduler.Locker
		if redisClient != nil {
			locker = scheduler.NewRedisLocker(redisClient, "feedback:scheduler")
		}

		runner, err := scheduler.NewRunner(scheduler.Config{
			Location:   cfg.Scheduler.Location(),
			JobTimeout: cfg.Scheduler.JobTimeout,
			LockTTL:    cfg.Scheduler.LockTTL,
			Logger:     logger,
		}, locker, scheduler.FeedbackJobs(schedulerService, cfg.Scheduler)...)
		if err != nil {
			log.Fatalf("failed to configure scheduler: %v", err)
		}

		go func() {
			defer close(schedulerDone)
			runner.Run(ctx)
		}()
	} else {
		close(schedulerDone)
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	waitForShutdown(app, logger)
	<-schedulerDone
	revisionService.Wait()
	logger.Info().Msg("server stopped")
}

func healthChecks(db *gorm.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return checks
}

// newChatter selects the AI backend. The returned closer is always safe to call.
func newChatter(cfg config.Config, logger zerolog.Logger) (ai.Chatter, func(), error) {
	noop := func() {}

	switch cfg.AIProvider {
	case "gemini":
		chatter, err := ai.NewGeminiChatter(context.Background(), ai.GeminiConfig{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.AIModel,
			Temperature: cfg.AITemperature,
			Timeout:     cfg.AITimeout,
			Logger:      logger,
		})
		if err != nil {
			return nil, noop, err
		}
		return chatter, closer(chatter, logger), nil
	case "openai", "azure":
		openAICfg := ai.OpenAIConfig{
			APIKey:      cfg.OpenAIAPIKey,
			Model:       cfg.AIModel,
			Temperature: cfg.AITemperature,
			Timeout:     cfg.AITimeout,
			Logger:      logger,
		}
		if cfg.AIProvider == "azure" {
			openAICfg.AzureEndpoint = cfg.AzureEndpoint
			openAICfg.AzureAPIVersion = cfg.AzureAPIVersion
			openAICfg.AzureDeployment = cfg.AzureDeployment
		}
		chatter, err := ai.NewOpenAIChatter(openAICfg)
		if err != nil {
			return nil, noop, err
		}
		return chatter, noop, nil
	default:
		return nil, noop, errors.New("unsupported ai provider " + cfg.AIProvider)
	}
}

func closer(c io.Closer, logger zerolog.Logger) func() {
	return func() {
		if err := c.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close ai client")
		}
	}
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
