package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	// App
	AppEnv string
	Port   string

	// Relational store (tracking records, cases, documents, matches)
	PostgresDSN string

	// Document store (per-case aggregates)
	MongoURI string
	DBName   string

	// Redis (task queue + similarity cache)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Generative AI provider
	GeminiAPIKey    string
	GeminiAPIURL    string // legacy REST completion endpoint
	GeminiModels    []string
	EmbeddingsModel string
	MaxOutputTokens int
	Temperature     float64

	// OCR provider
	OCRServiceURL          string
	OCRTimeout             int // seconds
	OCRConfidenceThreshold float64

	// Extraction
	MaxFileSize       int64
	DefaultConfidence float64 // applied when a provider reports no native score

	// Precedent search provider
	PrecedentSearchURL     string
	PrecedentSearchTimeout int // seconds

	// Similarity
	SimilarityCacheTTL   int // minutes
	DefaultMinSimilarity float64

	// Background orchestration
	AnalysisDelay        int // seconds before the first document check
	AnalysisMaxRetry     int
	StuckAnalysisMinutes int
	WorkerConcurrency    int

	// Telemetry
	OTLPEndpoint string // empty disables trace export
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		AppEnv: getEnv("APP_ENV", "debug"),
		Port:   getEnv("PORT", "8080"),

		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/legal_intel?sslmode=disable"),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/legal_intel"),
		DBName:   getEnv("DB_NAME", "legal_intel"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiAPIURL:    getEnv("GEMINI_API_URL", "https://generativelanguage.googleapis.com/v1beta/models/gemini-pro:generateContent"),
		GeminiModels:    strings.Split(getEnv("GEMINI_MODELS", "gemini-2.0-flash,gemini-1.5-pro"), ","),
		EmbeddingsModel: getEnv("EMBEDDINGS_MODEL", "text-embedding-004"),
		MaxOutputTokens: getEnvInt("MAX_OUTPUT_TOKENS", 2048),
		Temperature:     getEnvFloat64("AI_TEMPERATURE", 0.3),

		OCRServiceURL:          getEnv("OCR_SERVICE_URL", "http://localhost:8001"),
		OCRTimeout:             getEnvInt("OCR_TIMEOUT", 300),
		OCRConfidenceThreshold: getEnvFloat64("OCR_CONFIDENCE_THRESHOLD", 0.7),

		MaxFileSize:       getEnvInt64("MAX_FILE_SIZE", 104857600), // 100MB
		DefaultConfidence: getEnvFloat64("DEFAULT_CONFIDENCE", 0.5),

		PrecedentSearchURL:     getEnv("PRECEDENT_SEARCH_URL", "http://localhost:8002"),
		PrecedentSearchTimeout: getEnvInt("PRECEDENT_SEARCH_TIMEOUT", 30),

		SimilarityCacheTTL:   getEnvInt("SIMILARITY_CACHE_TTL_MINUTES", 30),
		DefaultMinSimilarity: getEnvFloat64("DEFAULT_MIN_SIMILARITY", 0.6),

		AnalysisDelay:        getEnvInt("ANALYSIS_DELAY_SECONDS", 30),
		AnalysisMaxRetry:     getEnvInt("ANALYSIS_MAX_RETRY", 5),
		StuckAnalysisMinutes: getEnvInt("STUCK_ANALYSIS_MINUTES", 30),
		WorkerConcurrency:    getEnvInt("WORKER_CONCURRENCY", 10),

		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if len(cfg.GeminiModels) == 0 || cfg.GeminiModels[0] == "" {
		return nil, fmt.Errorf("GEMINI_MODELS must name at least one model")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
