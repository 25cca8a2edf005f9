package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("FEEDBACK_JWT_SECRET", "secret")
	t.Setenv("FEEDBACK_DATABASE_URL", "postgres://localhost/feedback")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8080", cfg.HTTPAddress())
	require.Equal(t, "openai", cfg.AIProvider)
	require.Equal(t, 24*time.Hour, cfg.JWTTTL)
	require.Equal(t, "@hourly", cfg.Scheduler.AutoRetrySpec)
	require.Equal(t, 30*time.Minute, cfg.Scheduler.StaleProcessingAfter)
	require.Equal(t, time.UTC, cfg.Scheduler.Location())
	require.Equal(t, 30, cfg.SubmissionsPerMinute)
	require.InDelta(t, 0.7, cfg.AITemperature, 0.0001)
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("FEEDBACK_APP_PORT", ":9090")
	t.Setenv("FEEDBACK_AI_PROVIDER", "Gemini")
	t.Setenv("FEEDBACK_SCHEDULER_TIMEZONE", "Asia/Seoul")
	t.Setenv("FEEDBACK_SCHEDULER_AUTO_RETRY", "*/5 * * * *")
	t.Setenv("FEEDBACK_RATE_LIMIT_SUBMISSIONS_PER_MINUTE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddress())
	require.Equal(t, "gemini", cfg.AIProvider)
	require.Equal(t, "Asia/Seoul", cfg.Scheduler.Location().String())
	require.Equal(t, "*/5 * * * *", cfg.Scheduler.AutoRetrySpec)
	require.Equal(t, 30, cfg.SubmissionsPerMinute)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret":   {"FEEDBACK_JWT_SECRET": ""},
		"missing database": {"FEEDBACK_DATABASE_URL": ""},
		"bad provider":     {"FEEDBACK_AI_PROVIDER": "anthropic"},
		"bad duration":     {"FEEDBACK_AI_TIMEOUT": "soon"},
		"bad timezone":     {"FEEDBACK_SCHEDULER_TIMEZONE": "Mars/Olympus"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setRequired(t)
			for key, value := range env {
				t.Setenv(key, value)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}
