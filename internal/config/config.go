package config

import (
	"fmt"
	"os"
	"strconv"
)

// BlueskyCredentials activate the Bluesky adapter when both fields are
// present.
type BlueskyCredentials struct {
	Handle      string
	AppPassword string
}

func (c BlueskyCredentials) Active() bool {
	return c.Handle != "" && c.AppPassword != ""
}

// TelegramCredentials activate the Telegram adapter when both fields
// are present.
type TelegramCredentials struct {
	Token  string
	ChatID string
}

func (c TelegramCredentials) Active() bool {
	return c.Token != "" && c.ChatID != ""
}

// MastodonCredentials activate the Mastodon adapter when both fields
// are present.
type MastodonCredentials struct {
	Server      string
	AccessToken string
}

func (c MastodonCredentials) Active() bool {
	return c.Server != "" && c.AccessToken != ""
}

type Config struct {
	// Feed settings
	FeedsConfigPath string

	// Ledger settings
	LedgerPath     string
	LedgerCapacity int

	// Selection settings
	BatchMin int
	BatchMax int

	// Pacing between posts, in seconds
	DelayMinSeconds int
	DelayMaxSeconds int

	// Rendering
	CharBudget int

	// Platform credentials. A platform is active for the run only
	// when all of its variables are set; there is no degraded mode.
	Bluesky  BlueskyCredentials
	Telegram TelegramCredentials
	Mastodon MastodonCredentials
}

// Load reads configuration from the environment with defaults.
func Load() (*Config, error) {
	cfg := &Config{
		FeedsConfigPath: getEnvOrDefault("FEEDS_CONFIG_PATH", "configs/feeds.yaml"),
		LedgerPath:      getEnvOrDefault("LEDGER_PATH", "posted_items.json"),
		LedgerCapacity:  getEnvIntOrDefault("LEDGER_CAPACITY", 500),
		BatchMin:        getEnvIntOrDefault("BATCH_MIN", 2),
		BatchMax:        getEnvIntOrDefault("BATCH_MAX", 6),
		DelayMinSeconds: getEnvIntOrDefault("DELAY_MIN_SECONDS", 10),
		DelayMaxSeconds: getEnvIntOrDefault("DELAY_MAX_SECONDS", 20),
		CharBudget:      getEnvIntOrDefault("CHAR_BUDGET", 300),
	}

	cfg.Bluesky.Handle = os.Getenv("BLUESKY_HANDLE")
	cfg.Bluesky.AppPassword = os.Getenv("BLUESKY_APP_PASSWORD")
	cfg.Telegram.Token = os.Getenv("TELEGRAM_TOKEN")
	cfg.Telegram.ChatID = os.Getenv("TELEGRAM_CHAT_ID")
	cfg.Mastodon.Server = os.Getenv("MASTODON_SERVER")
	cfg.Mastodon.AccessToken = os.Getenv("MASTODON_ACCESS_TOKEN")

	return cfg, cfg.Validate()
}

// Validate rejects configurations that would make the run pointless.
// Missing platform credentials are the only fatal case.
func (c *Config) Validate() error {
	if !c.Bluesky.Active() && !c.Telegram.Active() && !c.Mastodon.Active() {
		return fmt.Errorf("no platform configured: set BLUESKY_HANDLE/BLUESKY_APP_PASSWORD, TELEGRAM_TOKEN/TELEGRAM_CHAT_ID or MASTODON_SERVER/MASTODON_ACCESS_TOKEN")
	}
	if c.BatchMin < 1 || c.BatchMax < c.BatchMin {
		return fmt.Errorf("invalid batch range %d-%d", c.BatchMin, c.BatchMax)
	}
	if c.DelayMinSeconds < 0 || c.DelayMaxSeconds < c.DelayMinSeconds {
		return fmt.Errorf("invalid delay range %d-%d", c.DelayMinSeconds, c.DelayMaxSeconds)
	}
	if c.LedgerCapacity < 1 {
		return fmt.Errorf("LEDGER_CAPACITY must be positive")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
