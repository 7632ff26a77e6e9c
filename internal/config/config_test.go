package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir is a stand-in for t.Chdir, which requires Go 1.24+.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir()) // away from any local config file

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "javi123", cfg.APIKey)
	assert.Equal(t, 10000, cfg.Port)
	assert.Equal(t, "data/products.json", cfg.DataFile)
	assert.Equal(t, 22, cfg.NotifyHour)
	assert.Equal(t, 0, cfg.NotifyMinute)
	assert.Equal(t, "America/Argentina/Buenos_Aires", cfg.Timezone)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("API_KEY", "secret-from-env")
	t.Setenv("PORT", "8081")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("NOTIFY_HOUR", "9")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("SCHEDULER_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "secret-from-env", cfg.APIKey)
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "tok", cfg.TelegramBotToken)
	assert.Equal(t, "42", cfg.TelegramChatID)
	assert.Equal(t, 9, cfg.NotifyHour)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.False(t, cfg.SchedulerEnabled)
}
