package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	apperrors "newsgraph/backend/pkg/errors"
)

// Extractor names accepted in EXTRACTOR
const (
	ExtractorRules = "rules"
	ExtractorLLM   = "llm"
)

// Config holds all application configuration
type Config struct {
	// App
	Port            string
	Env             string
	LogLevel        string
	ShutdownTimeout time.Duration

	// Graph store
	GraphStorePath string
	GraphBaseIRI   string

	// Ingestion
	FillDefaults     bool
	DefaultSource    string
	DefaultCategory  string
	DefaultTitle     string
	BatchConcurrency int

	// Extraction
	Extractor  string // rules or llm
	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string

	// POS tagger
	POSModelPath string

	// Neo4j mirror
	Neo4jEnabled  bool
	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file, but don't fail if it doesn't exist
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		Env:              getEnv("ENV", "development"),
		LogLevel:         getEnv("LOG_LEVEL", ""),
		ShutdownTimeout:  getEnvDuration("SHUTDOWN_TIMEOUT", 5*time.Second),
		GraphStorePath:   getEnv("GRAPH_STORE_PATH", "data/news_graph.json"),
		GraphBaseIRI:     getEnv("GRAPH_BASE_IRI", "http://test.org/news_ontology.owl#"),
		FillDefaults:     getEnvBool("INGEST_FILL_DEFAULTS", true),
		DefaultSource:    getEnv("INGEST_DEFAULT_SOURCE", "TestSource"),
		DefaultCategory:  getEnv("INGEST_DEFAULT_CATEGORY", "TestCategory"),
		DefaultTitle:     getEnv("INGEST_DEFAULT_TITLE", "TestTitle"),
		BatchConcurrency: getEnvInt("INGEST_BATCH_CONCURRENCY", 4),
		Extractor:        strings.ToLower(getEnv("EXTRACTOR", ExtractorRules)),
		LLMBaseURL:       getEnv("LLM_BASE_URL", "http://localhost:4000"),
		LLMAPIKey:        getEnv("LLM_API_KEY", ""),
		LLMModel:         getEnv("LLM_MODEL", ""),
		POSModelPath:     getEnv("POS_MODEL_PATH", "data/sinhala_pos_model.json"),
		Neo4jEnabled:     getEnvBool("NEO4J_ENABLED", false),
		Neo4jURI:         getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:        getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:    getEnv("NEO4J_PASSWORD", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.GraphStorePath == "" {
		return apperrors.NewConfigMissingRequired("GRAPH_STORE_PATH")
	}
	if c.BatchConcurrency < 1 {
		return apperrors.NewConfigValidationFailed("INGEST_BATCH_CONCURRENCY", "must be at least 1")
	}
	switch c.Extractor {
	case ExtractorRules:
	case ExtractorLLM:
		if c.LLMModel == "" {
			return apperrors.NewConfigMissingRequired("LLM_MODEL")
		}
	default:
		return apperrors.NewConfigValidationFailed("EXTRACTOR", fmt.Sprintf("unknown extractor %q", c.Extractor))
	}
	if c.Neo4jEnabled {
		if c.Neo4jURI == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_URI")
		}
		if c.Neo4jPassword == "" {
			return apperrors.NewConfigMissingRequired("NEO4J_PASSWORD")
		}
	}
	// Placeholders are only needed when defaults are filled in
	if c.FillDefaults && c.DefaultSource == "" {
		return apperrors.NewConfigMissingRequired("INGEST_DEFAULT_SOURCE")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.ParseBool(value); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
