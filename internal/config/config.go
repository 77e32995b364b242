package config

import (
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the configuration for the application.
type Config struct {
	DatabasePath  string `env:"DATABASE_PATH" env-default:"data/menu-planner.db"`
	LocalStoreDir string `env:"LOCAL_STORE_DIR" env-default:"data/localstore"`
	UserID        string `env:"USER_ID" env-default:"default_user"`

	// Remote catalog API (optional; the local catalog is used when unset)
	CatalogURL      string `env:"CATALOG_API_URL"`
	CatalogKey      string `env:"CATALOG_API_KEY"`
	CatalogAdminKey string `env:"CATALOG_ADMIN_API_KEY"`

	// Telegram Config (optional for CLI, required for the bot)
	TelegramBotToken   string  `env:"TELEGRAM_BOT_TOKEN"`
	TelegramWebhookURL string  `env:"TELEGRAM_WEBHOOK_URL"`
	TelegramAllowIDs   []int64 `env:"TELEGRAM_ALLOW_USER_IDS"`
	TelegramChatID     int64   `env:"TELEGRAM_CHAT_ID"`

	// Retention for locally cached checked-item records
	CheckedMenuRetention int `env:"CHECKED_MENU_RETENTION" env-default:"5"`
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if cfg.CatalogURL != "" && cfg.CatalogKey == "" {
		return nil, fmt.Errorf("CATALOG_API_KEY must be set when CATALOG_API_URL is set")
	}
	if cfg.CheckedMenuRetention < 1 {
		return nil, fmt.Errorf("CHECKED_MENU_RETENTION must be at least 1")
	}
	if cfg.CatalogAdminKey == "" {
		// Fallback to content key if only one is provided
		cfg.CatalogAdminKey = cfg.CatalogKey
	}

	return &cfg, nil
}
