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
	Keys     APIKeys
	Ai       AIConfig
	Rag      RAGConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type DatabaseConfig struct {
	// VectorDSN points at the Postgres instance holding the pgvector
	// collections.
	VectorDSN string

	// SQLite files holding the tabular ocean data, one per chat type.
	StoredSQLPath     string
	UploadedSQLPath   string
	StoredTabularPath string
}

type APIKeys struct {
	GoogleGemini string
	RebuildTopic string // vector collection rebuild topic
}

type AIConfig struct {
	LLMProvider        string // "gemini" or "ollama"
	LLMModel           string // e.g. "gemini-1.5-flash", "llama3"
	EmbeddingProvider  string // "gemini" or "ollama"
	OllamaBaseURL      string
	OllamaEmbedModel   string // local embedding model, e.g. "all-minilm"
	SQLCooldownMinutes int
	RAGCooldownMinutes int
}

type RAGConfig struct {
	CollectionName string
	TopK           int
	RendererURL    string // visualization renderer endpoint
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:8000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			VectorDSN:         getEnv("VECTOR_DB_DSN", ""),
			StoredSQLPath:     getEnv("SQLDB_PATH", "data/ocean.sqlite"),
			UploadedSQLPath:   getEnv("UPLOADED_SQLDB_PATH", "data/uploaded.sqlite"),
			StoredTabularPath: getEnv("STORED_CSV_XLSX_SQLDB_PATH", "data/csv_xlsx.sqlite"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			RebuildTopic: getEnv("VECTORDB_REBUILD_TOPIC_NAME", "VECTORDB_REBUILD"),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:           getEnv("LLM_MODEL", "gemini-1.5-flash"),
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:   getEnv("OLLAMA_EMBEDDING_MODEL", "all-minilm"),
			SQLCooldownMinutes: getEnvAsInt("SQL_COOLDOWN_MINUTES", 30),
			RAGCooldownMinutes: getEnvAsInt("RAG_COOLDOWN_MINUTES", 60),
		},
		Rag: RAGConfig{
			CollectionName: getEnv("RAG_COLLECTION_NAME", "ocean-data"),
			TopK:           getEnvAsInt("RAG_TOP_K", 5),
			RendererURL:    getEnv("VISUALIZATION_RENDERER_URL", ""),
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
