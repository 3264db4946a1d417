package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config contains all runtime settings for the relay service.
type Config struct {
	BindAddr         string
	ShutdownTimeout  time.Duration
	MetricsNamespace string

	DatabaseURL   string
	HistoryWindow int

	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAITimeout    time.Duration
	OpenAIMaxRetries int

	TelegramBotToken string

	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseBucket     string
}

// TelegramEnabled reports whether the messaging-platform features can run.
func (c Config) TelegramEnabled() bool {
	return strings.TrimSpace(c.TelegramBotToken) != ""
}

// MediaEnabled reports whether image uploads can run. Without storage
// credentials the service still serves text chat.
func (c Config) MediaEnabled() bool {
	return strings.TrimSpace(c.SupabaseURL) != "" && strings.TrimSpace(c.SupabaseServiceKey) != ""
}

// Load reads a .env file when present, then environment variables with safe
// defaults. Only the database credential is mandatory.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		BindAddr:         envOrDefault("APP_BIND_ADDR", ":8080"),
		MetricsNamespace: envOrDefault("APP_METRICS_NAMESPACE", "chefbot"),
		ShutdownTimeout:  15 * time.Second,

		DatabaseURL:   trimmedEnv("DATABASE_URL"),
		HistoryWindow: 20,

		OpenAIAPIKey:     trimmedEnv("OPENAI_API_KEY"),
		OpenAIModel:      envOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAITimeout:    30 * time.Second,
		OpenAIMaxRetries: 3,

		TelegramBotToken: trimmedEnv("TELEGRAM_BOT_TOKEN"),

		SupabaseURL:        strings.TrimRight(trimmedEnv("SUPABASE_URL"), "/"),
		SupabaseServiceKey: trimmedEnv("SUPABASE_SERVICE_KEY"),
		SupabaseBucket:     envOrDefault("SUPABASE_BUCKET", "images"),
	}

	var err error
	cfg.ShutdownTimeout, err = durationFromEnv("APP_SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAITimeout, err = durationFromEnv("OPENAI_TIMEOUT", cfg.OpenAITimeout)
	if err != nil {
		return Config{}, err
	}
	cfg.OpenAIMaxRetries, err = intFromEnv("OPENAI_MAX_RETRIES", cfg.OpenAIMaxRetries)
	if err != nil {
		return Config{}, err
	}
	cfg.HistoryWindow, err = intFromEnv("HISTORY_WINDOW", cfg.HistoryWindow)
	if err != nil {
		return Config{}, err
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.HistoryWindow <= 0 {
		return Config{}, fmt.Errorf("HISTORY_WINDOW must be positive")
	}
	if cfg.OpenAIMaxRetries < 0 || cfg.OpenAIMaxRetries > 10 {
		return Config{}, fmt.Errorf("OPENAI_MAX_RETRIES must be 0-10")
	}
	if cfg.OpenAITimeout < time.Second {
		return Config{}, fmt.Errorf("OPENAI_TIMEOUT must be at least 1s")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	return v
}

func trimmedEnv(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func durationFromEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return d, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	v := trimmedEnv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s parse error: %w", key, err)
	}
	return n, nil
}
