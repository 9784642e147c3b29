package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Embedding EmbeddingConfig
	Ai        AIConfig
	Chat      ChatConfig
	Report    ReportConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string // empty disables event publishing
	RedisURL           string // empty keeps caches in process memory
	ContentDir         string // empty uses the built-in pages
}

type DatabaseConfig struct {
	Connection string // empty runs without a remote chat store
}

type EmbeddingConfig struct {
	Provider string // "openai" or "ollama"
	APIKey   string
	BaseURL  string
	Model    string
}

type AIConfig struct {
	LLMProvider   string // "openrouter", "openai" or "ollama"
	LLMAPIKey     string
	LLMBaseURL    string
	LLMModel      string
	OllamaBaseURL string
}

type ChatConfig struct {
	SyncDebounce    time.Duration
	Recommendations bool
}

type ReportConfig struct {
	Retention time.Duration
	Topic     string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3001"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			ContentDir:         getEnv("CONTENT_DIR", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Embedding: EmbeddingConfig{
			Provider: getEnv("EMBEDDING_PROVIDER", "openai"),
			APIKey:   getEnv("EMBEDDING_API_KEY", ""),
			BaseURL:  getEnv("EMBEDDING_BASE_URL", "https://api.openai.com/v1/embeddings"),
			Model:    getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		},
		Ai: AIConfig{
			LLMProvider:   getEnv("LLM_PROVIDER", "openrouter"),
			LLMAPIKey:     getEnv("LLM_API_KEY", ""),
			LLMBaseURL:    getEnv("LLM_BASE_URL", "https://openrouter.ai/api/v1"),
			LLMModel:      getEnv("LLM_MODEL", "openai/gpt-4o-mini"),
			OllamaBaseURL: getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
		},
		Chat: ChatConfig{
			SyncDebounce:    getEnvAsDuration("CHAT_SYNC_DEBOUNCE", 2*time.Second),
			Recommendations: getEnvAsBool("CHAT_RECOMMENDATIONS", true),
		},
		Report: ReportConfig{
			Retention: getEnvAsDuration("REPORT_RETENTION", time.Hour),
			Topic:     getEnv("REPORT_TOPIC", "REPORT_GENERATION"),
		},
	}
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, err := strconv.ParseBool(getEnv(key, "")); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, err := time.ParseDuration(getEnv(key, "")); err == nil && value > 0 {
		return value
	}
	return fallback
}
