package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	SMTP         SMTPConfig
	Keys         APIKeys
	Ai           AIConfig
	Orchestrator OrchestratorConfig
	Storage      StorageConfig
	Notifier     NotifierConfig
	Auth         AuthConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
}

type APIKeys struct {
	GoogleGemini string
	HuggingFace  string
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string // embedding model
	LLMProvider       string // "ollama", "huggingface", "gemini"
	LLMModel          string
	HuggingFaceURL    string
}

type OrchestratorConfig struct {
	RunTimeout         time.Duration
	MaxParallelAgents  int
	AgentMaxSteps      int
	RelevanceThreshold float64
	SimilarityTopK     int
	ChunkSize          int
	ChunkOverlap       int
}

type StorageConfig struct {
	UploadDir       string
	CacheRoot       string
	PrewarmOnUpload bool
	RecordTTL       time.Duration
}

type NotifierConfig struct {
	Backends       []string
	SlackBotToken  string
	SlackChannelID string
	EmailTo        []string
	DefaultUserID  string
}

type AuthConfig struct {
	JWTSecret string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/docqa.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "DocQA"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3.1"),
			HuggingFaceURL:    getEnv("HUGGINGFACE_BASE_URL", ""),
		},
		Orchestrator: OrchestratorConfig{
			RunTimeout:         time.Duration(getEnvAsInt("RUN_TIMEOUT_SECONDS", 120)) * time.Second,
			MaxParallelAgents:  getEnvAsInt("MAX_PARALLEL_AGENTS", 0),
			AgentMaxSteps:      getEnvAsInt("AGENT_MAX_STEPS", 6),
			RelevanceThreshold: getEnvAsFloat("RELEVANCE_THRESHOLD", 0.25),
			SimilarityTopK:     getEnvAsInt("SIMILARITY_TOP_K", 2),
			ChunkSize:          getEnvAsInt("CHUNK_SIZE", 512),
			ChunkOverlap:       getEnvAsInt("CHUNK_OVERLAP", 64),
		},
		Storage: StorageConfig{
			UploadDir:       getEnv("UPLOAD_DIR", "tmp"),
			CacheRoot:       getEnv("CACHE_ROOT", "tmp/cache"),
			PrewarmOnUpload: getEnvAsBool("PREWARM_ON_UPLOAD", true),
			RecordTTL:       time.Duration(getEnvAsInt("RECORD_TTL_HOURS", 24)) * time.Hour,
		},
		Notifier: NotifierConfig{
			Backends:       getEnvAsList("NOTIFIERS", []string{"log"}),
			SlackBotToken:  getEnv("SLACK_BOT_TOKEN", ""),
			SlackChannelID: getEnv("SLACK_CHANNEL_ID", ""),
			EmailTo:        getEnvAsList("NOTIFY_EMAIL_TO", nil),
			DefaultUserID:  getEnv("DEFAULT_USER_ID", "U0807FT9H6V"),
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string, fallback []string) []string {
	strValue, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(strValue, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
