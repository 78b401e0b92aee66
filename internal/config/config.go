package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Services ServicesConfig
	Agent    AgentConfig
	Ingest   IngestConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

// ServicesConfig points at the external services the orchestrator and the
// ingestion pipeline call.
type ServicesConfig struct {
	EmbeddingURL   string
	SearchURL      string
	RerankURL      string
	DocumentAPIURL string
	ChunkAPIURL    string
	TradingAPIURL  string
	MemoryAPIURL   string
}

type AgentConfig struct {
	LLMProvider    string // "ollama" or "gateway"
	LLMModel       string
	LLMBaseURL     string
	EmbeddingModel string
	Collection     string
	RerankEnabled  bool
	ScoreThreshold float64
	MemoryBackend  string // "gorm", "http" or "redis"
}

type IngestConfig struct {
	ChunkSize     int
	ChunkOverlap  int
	UploadBatch   int
	EmbedWorkers  int
	DownloadRetry int
	IngestTopic   string
	JobTTLMinutes int
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Services: ServicesConfig{
			EmbeddingURL:   getEnv("EMBEDDING_API_URL", "http://localhost:8001/api/v1/embedding"),
			SearchURL:      getEnv("SEARCH_API_URL", "http://localhost:8002/api/v1/search"),
			RerankURL:      getEnv("RERANK_API_URL", "http://localhost:8003/api/v1/rerank"),
			DocumentAPIURL: getEnv("DOCUMENT_API_URL", "http://localhost:8004"),
			ChunkAPIURL:    getEnv("CHUNK_API_URL", "http://localhost:8005"),
			TradingAPIURL:  getEnv("TRADING_API_URL", "http://localhost:8006/api/v1/analysis"),
			MemoryAPIURL:   getEnv("MEMORY_API_URL", ""),
		},
		Agent: AgentConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:       getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:     getEnv("LLM_BASE_URL", ""),
			EmbeddingModel: getEnv("EMBEDDING_MODEL", "nomic-embed-text"),
			Collection:     getEnv("VECTOR_COLLECTION", "lumir_documents"),
			RerankEnabled:  getEnvAsBool("RERANK_ENABLED", true),
			ScoreThreshold: getEnvAsFloat("SCORE_THRESHOLD", 0),
			MemoryBackend:  getEnv("MEMORY_BACKEND", "gorm"),
		},
		Ingest: IngestConfig{
			ChunkSize:     getEnvAsInt("CHUNK_SIZE", 500),
			ChunkOverlap:  getEnvAsInt("CHUNK_OVERLAP", 100),
			UploadBatch:   getEnvAsInt("UPLOAD_BATCH_SIZE", 8),
			EmbedWorkers:  getEnvAsInt("EMBED_WORKERS", 4),
			DownloadRetry: getEnvAsInt("DOWNLOAD_MAX_RETRIES", 3),
			IngestTopic:   getEnv("INGEST_TOPIC_NAME", "INGEST_DOCUMENTS"),
			JobTTLMinutes: getEnvAsInt("INGEST_JOB_TTL_MINUTES", 60),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
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
