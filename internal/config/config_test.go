package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearPlatformEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"BLUESKY_HANDLE", "BLUESKY_APP_PASSWORD",
		"TELEGRAM_TOKEN", "TELEGRAM_CHAT_ID",
		"MASTODON_SERVER", "MASTODON_ACCESS_TOKEN",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadNoPlatformIsFatal(t *testing.T) {
	clearPlatformEnv(t)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadSinglePlatformIsEnough(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("BLUESKY_HANDLE", "bot.example.com")
	t.Setenv("BLUESKY_APP_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.Bluesky.Active())
	assert.False(t, cfg.Telegram.Active())
	assert.False(t, cfg.Mastodon.Active())
}

func TestPartialCredentialsAreInactive(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("TELEGRAM_TOKEN", "token-without-chat")
	t.Setenv("MASTODON_SERVER", "https://mastodon.social")
	t.Setenv("MASTODON_ACCESS_TOKEN", "tok")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Telegram.Active(), "token without chat id must not activate telegram")
	assert.True(t, cfg.Mastodon.Active())
}

func TestLoadDefaults(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("BLUESKY_HANDLE", "bot.example.com")
	t.Setenv("BLUESKY_APP_PASSWORD", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.LedgerCapacity)
	assert.Equal(t, 2, cfg.BatchMin)
	assert.Equal(t, 6, cfg.BatchMax)
	assert.Equal(t, 10, cfg.DelayMinSeconds)
	assert.Equal(t, 20, cfg.DelayMaxSeconds)
	assert.Equal(t, 300, cfg.CharBudget)
	assert.Equal(t, "posted_items.json", cfg.LedgerPath)
}

func TestLoadOverrides(t *testing.T) {
	clearPlatformEnv(t)
	t.Setenv("BLUESKY_HANDLE", "bot.example.com")
	t.Setenv("BLUESKY_APP_PASSWORD", "secret")
	t.Setenv("LEDGER_CAPACITY", "2000")
	t.Setenv("BATCH_MIN", "1")
	t.Setenv("BATCH_MAX", "3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2000, cfg.LedgerCapacity)
	assert.Equal(t, 1, cfg.BatchMin)
	assert.Equal(t, 3, cfg.BatchMax)
}

func TestValidateRejectsBadRanges(t *testing.T) {
	base := func() *Config {
		return &Config{
			LedgerCapacity:  500,
			BatchMin:        2,
			BatchMax:        6,
			DelayMinSeconds: 10,
			DelayMaxSeconds: 20,
			Bluesky:         BlueskyCredentials{Handle: "h", AppPassword: "p"},
		}
	}

	cfg := base()
	require.NoError(t, cfg.Validate())

	cfg = base()
	cfg.BatchMax = 1
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.DelayMaxSeconds = 5
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.LedgerCapacity = 0
	assert.Error(t, cfg.Validate())
}
