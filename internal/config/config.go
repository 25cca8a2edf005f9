package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the feedback service.
type Config struct {
	AppName       string
	AppEnv        string
	AppPort       string
	DatabaseURL   string
	RedisURL      string
	NATSURL       string
	EventsChannel string

	JWTSecret string
	JWTTTL    time.Duration

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string

	DockerHost   string
	FFmpegImage  string
	MediaTimeout time.Duration
	MediaWorkdir string

	AIProvider      string
	AIModel         string
	AITimeout       time.Duration
	AITemperature   float32
	OpenAIAPIKey    string
	AzureEndpoint   string
	AzureAPIVersion string
	AzureDeployment string
	GeminiAPIKey    string

	Scheduler SchedulerConfig

	SubmissionsPerMinute int
}

// SchedulerConfig groups the periodic job settings.
type SchedulerConfig struct {
	Enabled              bool
	Timezone             string
	DailySpec            string
	WeeklySpec           string
	MonthlySpec          string
	AutoRetrySpec        string
	JobTimeout           time.Duration
	LockTTL              time.Duration
	StaleProcessingAfter time.Duration
}

// Location resolves the configured scheduler timezone, falling back to UTC.
func (c SchedulerConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("FEEDBACK")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "AI Feedback API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("events.channel", "feedback")
	v.SetDefault("jwt.ttl", "24h")
	v.SetDefault("cloudinary.folder", "feedback/media")
	v.SetDefault("media.ffmpeg_image", "jrottenberg/ffmpeg:6.1-alpine")
	v.SetDefault("media.timeout", "2m")
	v.SetDefault("media.workdir", "")
	v.SetDefault("ai.provider", "openai")
	v.SetDefault("ai.model", "gpt-35-turbo")
	v.SetDefault("ai.timeout", "60s")
	v.SetDefault("ai.temperature", 0.7)
	v.SetDefault("azure_openai.api_version", "2024-06-01")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.daily", "@daily")
	v.SetDefault("scheduler.weekly", "@weekly")
	v.SetDefault("scheduler.monthly", "@monthly")
	v.SetDefault("scheduler.auto_retry", "@hourly")
	v.SetDefault("scheduler.job_timeout", "50m")
	v.SetDefault("scheduler.lock_ttl", "55m")
	v.SetDefault("scheduler.stale_processing_after", "30m")
	v.SetDefault("rate_limit.submissions_per_minute", 30)

	durations := map[string]time.Duration{}
	for _, key := range []string{
		"jwt.ttl",
		"media.timeout",
		"ai.timeout",
		"scheduler.job_timeout",
		"scheduler.lock_ttl",
		"scheduler.stale_processing_after",
	} {
		parsed, err := time.ParseDuration(v.GetString(key))
		if err != nil {
			return Config{}, fmt.Errorf("invalid duration for %s: %w", key, err)
		}
		durations[key] = parsed
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		EventsChannel:          v.GetString("events.channel"),
		JWTSecret:              v.GetString("jwt.secret"),
		JWTTTL:                 durations["jwt.ttl"],
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		DockerHost:             v.GetString("docker_host"),
		FFmpegImage:            v.GetString("media.ffmpeg_image"),
		MediaTimeout:           durations["media.timeout"],
		MediaWorkdir:           v.GetString("media.workdir"),
		AIProvider:             strings.ToLower(v.GetString("ai.provider")),
		AIModel:                v.GetString("ai.model"),
		AITimeout:              durations["ai.timeout"],
		AITemperature:          float32(v.GetFloat64("ai.temperature")),
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AzureEndpoint:          v.GetString("azure_openai.endpoint"),
		AzureAPIVersion:        v.GetString("azure_openai.api_version"),
		AzureDeployment:        v.GetString("azure_openai.deployment"),
		GeminiAPIKey:           v.GetString("gemini_api_key"),
		Scheduler: SchedulerConfig{
			Enabled:              v.GetBool("scheduler.enabled"),
			Timezone:             v.GetString("scheduler.timezone"),
			DailySpec:            v.GetString("scheduler.daily"),
			WeeklySpec:           v.GetString("scheduler.weekly"),
			MonthlySpec:          v.GetString("scheduler.monthly"),
			AutoRetrySpec:        v.GetString("scheduler.auto_retry"),
			JobTimeout:           durations["scheduler.job_timeout"],
			LockTTL:              durations["scheduler.lock_ttl"],
			StaleProcessingAfter: durations["scheduler.stale_processing_after"],
		},
		SubmissionsPerMinute: v.GetInt("rate_limit.submissions_per_minute"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("database url must be provided")
	}

	switch cfg.AIProvider {
	case "openai", "azure", "gemini":
	default:
		return Config{}, fmt.Errorf("unsupported ai provider %q", cfg.AIProvider)
	}

	if _, err := time.LoadLocation(cfg.Scheduler.Timezone); err != nil {
		return Config{}, fmt.Errorf("invalid scheduler timezone: %w", err)
	}

	if cfg.SubmissionsPerMinute <= 0 {
		cfg.SubmissionsPerMinute = 30
	}

	return cfg, nil
}
