package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the runtime settings of the bot
type Config struct {
	Env      string
	LogLevel string

	TelegramToken string
	AdminUserIDs  map[int64]bool

	DBType      string // sqlite or postgres
	SQLitePath  string
	DatabaseURL string

	ContentDir string

	OpenAIKey             string
	OpenAIURL             string
	OpenAIModel           string
	OpenAITranscribeModel string

	// Number of due items shown in one review session
	ReviewLimit int
	// Reschedule an open review item instead of inserting a duplicate
	ReviewDedup           bool
	LevelTestCooldownDays int

	SchedulerEnabled bool
	ReminderTime     string // HH:MM in UTC

	MetricsAddr string
}

// Load reads .env (when present) and the process environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := &Config{
		Env:                   getEnv("ENV", "development"),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		TelegramToken:         os.Getenv("TELEGRAM_BOT_TOKEN"),
		AdminUserIDs:          parseIDs(os.Getenv("ADMIN_USER_IDS")),
		DBType:                strings.ToLower(getEnv("DB_TYPE", "sqlite")),
		SQLitePath:            getEnv("SQLITE_PATH", "data/espbot.db"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		ContentDir:            getEnv("CONTENT_DIR", "content"),
		OpenAIKey:             os.Getenv("OPENAI_API_KEY"),
		OpenAIURL:             getEnv("OPENAI_API_URL", "https://api.openai.com/v1"),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITranscribeModel: getEnv("OPENAI_TRANSCRIBE_MODEL", "whisper-1"),
		ReminderTime:          getEnv("REMINDER_TIME", "09:00"),
		MetricsAddr:           os.Getenv("METRICS_ADDR"),
	}

	var err error
	if cfg.ReviewLimit, err = getInt("REVIEW_LIMIT", 7); err != nil {
		return nil, err
	}
	if cfg.LevelTestCooldownDays, err = getInt("LEVEL_TEST_COOLDOWN_DAYS", 30); err != nil {
		return nil, err
	}
	if cfg.ReviewDedup, err = getBool("REVIEW_DEDUP", false); err != nil {
		return nil, err
	}
	if cfg.SchedulerEnabled, err = getBool("ENABLE_SCHEDULER", true); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the settings are usable
func (c *Config) Validate() error {
	switch c.DBType {
	case "sqlite":
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH must not be empty")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_TYPE=postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}
	if c.ReviewLimit <= 0 {
		return fmt.Errorf("REVIEW_LIMIT must be positive, got %d", c.ReviewLimit)
	}
	if c.LevelTestCooldownDays < 0 {
		return fmt.Errorf("LEVEL_TEST_COOLDOWN_DAYS must not be negative")
	}
	if _, err := time.Parse("15:04", c.ReminderTime); err != nil {
		return fmt.Errorf("invalid REMINDER_TIME %q: %w", c.ReminderTime, err)
	}
	return nil
}

// DSN returns the driver name and data source for database.Connect
func (c *Config) DSN() (string, string) {
	if c.DBType == "postgres" {
		return "postgres", c.DatabaseURL
	}
	return "sqlite3", c.SQLitePath
}

// LevelTestCooldown is the minimal pause between two placement tests
func (c *Config) LevelTestCooldown() time.Duration {
	return time.Duration(c.LevelTestCooldownDays) * 24 * time.Hour
}

// IsAdmin reports whether the user may run admin commands
func (c *Config) IsAdmin(userID int64) bool {
	return c.AdminUserIDs[userID]
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return n, nil
}

func getBool(key string, fallback bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return b, nil
}

// parseIDs reads a comma separated list of Telegram IDs, skipping junk
func parseIDs(raw string) map[int64]bool {
	ids := make(map[int64]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		ids[id] = true
	}
	return ids
}
