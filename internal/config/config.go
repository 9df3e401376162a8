package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database (optional: sample dataset and no transcript persistence when empty)
	DatabaseURL   string
	MigrationsDir string

	// Redis (optional: no answer cache and in-process websocket fan-out when empty)
	RedisURL       string
	AnswerCacheTTL time.Duration

	// Gemini AI (optional fallback for questions the dataset cannot answer)
	GeminiAPIKey         string
	GeminiModel          string
	GeminiConcurrentReqs int

	// Widget
	AllowedOrigin   string
	OrderedReplies  bool
	MarkdownAnswers bool
	SessionIdleTTL  time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:                 getEnvOrDefault("PORT", "8080"),
		Env:                  getEnvOrDefault("ENV", "development"),
		DatabaseURL:          getEnvOrDefault("DATABASE_URL", ""),
		MigrationsDir:        getEnvOrDefault("MIGRATIONS_DIR", "migrations"),
		RedisURL:             getEnvOrDefault("REDIS_URL", ""),
		AnswerCacheTTL:       getEnvAsDurationOrDefault("ANSWER_CACHE_TTL", 10*time.Minute),
		GeminiAPIKey:         getEnvOrDefault("GEMINI_API_KEY", ""),
		GeminiModel:          getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiConcurrentReqs: getEnvAsIntOrDefault("GEMINI_CONCURRENT_REQUESTS", 5),
		AllowedOrigin:        getEnvOrDefault("ALLOWED_ORIGIN", "*"),
		OrderedReplies:       getEnvAsBoolOrDefault("CHAT_ORDERED", false),
		MarkdownAnswers:      getEnvAsBoolOrDefault("MARKDOWN_ANSWERS", true),
		SessionIdleTTL:       getEnvAsDurationOrDefault("SESSION_IDLE_TTL", 30*time.Minute),
	}

	// Production serves the real dataset, never the in-memory sample.
	if cfg.Env == "production" {
		cfg.DatabaseURL = mustGetEnv("DATABASE_URL")
	}

	return cfg
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// ClientConfig configures the terminal chat client.
type ClientConfig struct {
	ServerURL string
	Timeout   time.Duration
	Ordered   bool
}

func LoadClient() *ClientConfig {
	godotenv.Load()

	return &ClientConfig{
		ServerURL: getEnvOrDefault("ASK_SERVER_URL", "http://localhost:8080"),
		Timeout:   getEnvAsDurationOrDefault("ASK_TIMEOUT", 0),
		Ordered:   getEnvAsBoolOrDefault("CHAT_ORDERED", false),
	}
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsBoolOrDefault(key string, defaultVal bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
