package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env      string
	Server   ServerConfig
	DB       DBConfig
	Embedder EmbedderConfig
	Rerank   RerankConfig
	Search   SearchConfig
	Cache    CacheConfig
	OTel     OTelConfig
}

type ServerConfig struct {
	Port string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	MaxConns int32
	MinConns int32
}

// DSN builds the PostgreSQL connection string.
func (db DBConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		db.User, db.Password, db.Host, db.Port, db.Name)
}

type EmbedderConfig struct {
	URL     string
	Model   string
	Timeout int // seconds
}

type RerankConfig struct {
	Enabled       bool
	URL           string
	Model         string
	Timeout       int // seconds
	TopN          int
	BatchSize     int
	Threshold     float64
	MaxInputRunes int
}

type SearchConfig struct {
	InitialLimit     int
	WeightKeyword    float64
	WeightVector     float64
	RRFK             float64
	Language         string
	ValidateLanguage bool
	ExpandTemporal   bool
	SnippetMaxRunes  int
}

type CacheConfig struct {
	Size int
	TTL  int // minutes, 0 disables caching
}

type OTelConfig struct {
	Enabled bool
}

func Load() *Config {
	return &Config{
		Env: getEnv("ENV", "development"),
		Server: ServerConfig{
			Port: getEnv("PORT", "9020"),
		},
		DB: DBConfig{
			Host:     getEnv("DB_HOST", "search-db"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "search_user"),
			Password: getSecret("DB_PASSWORD", "DB_PASSWORD_FILE", "search_password"),
			Name:     getEnv("DB_NAME", "search_db"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 20)),
			MinConns: int32(getEnvInt("DB_MIN_CONNS", 5)),
		},
		Embedder: EmbedderConfig{
			URL:     getEnv("EMBEDDER_URL", "http://embedder:11434"),
			Model:   getEnv("EMBEDDING_MODEL", "embeddinggemma"),
			Timeout: getEnvInt("EMBEDDER_TIMEOUT_SECONDS", 30),
		},
		Rerank: RerankConfig{
			Enabled:       getEnvBool("RERANK_ENABLED", true),
			URL:           getEnv("RERANK_URL", "http://reranker:8787"),
			Model:         getEnv("RERANK_MODEL", "bge-reranker-v2-m3"),
			Timeout:       getEnvInt("RERANK_TIMEOUT_SECONDS", 30),
			TopN:          getEnvInt("RERANK_TOP_N", 5),
			BatchSize:     getEnvInt("RERANK_BATCH_SIZE", 16),
			Threshold:     getEnvFloat64("RERANK_SCORE_THRESHOLD", 0.0),
			MaxInputRunes: getEnvInt("RERANK_MAX_INPUT_RUNES", 1024),
		},
		Search: SearchConfig{
			InitialLimit:     getEnvInt("SEARCH_INITIAL_LIMIT", 25),
			WeightKeyword:    getEnvFloat64("SEARCH_WEIGHT_KEYWORD", 0.3),
			WeightVector:     getEnvFloat64("SEARCH_WEIGHT_VECTOR", 0.7),
			RRFK:             getEnvFloat64("SEARCH_RRF_K", 60.0),
			Language:         getEnv("CORPUS_LANGUAGE", "ru"),
			ValidateLanguage: getEnvBool("SEARCH_VALIDATE_LANGUAGE", true),
			ExpandTemporal:   getEnvBool("SEARCH_EXPAND_TEMPORAL", true),
			SnippetMaxRunes:  getEnvInt("SEARCH_SNIPPET_MAX_RUNES", 300),
		},
		Cache: CacheConfig{
			Size: getEnvInt("SEARCH_CACHE_SIZE", 100),
			TTL:  getEnvInt("SEARCH_CACHE_TTL_MINUTES", 0),
		},
		OTel: OTelConfig{
			Enabled: getEnvBool("OTEL_ENABLED", false),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getSecret(envKey, fileEnvKey, fallback string) string {
	// 1. Try direct environment variable
	if value, ok := os.LookupEnv(envKey); ok {
		return value
	}

	// 2. Try reading from file specified by fileEnvKey
	if filePath, ok := os.LookupEnv(fileEnvKey); ok {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvFloat64(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
