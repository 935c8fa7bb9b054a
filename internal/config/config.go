// Package config loads songsense settings from defaults, an optional YAML
// file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the full application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Storage   StorageConfig   `koanf:"storage"`
	LLM       LLMConfig       `koanf:"llm"`
	Retrieval RetrievalConfig `koanf:"retrieval"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Breaker   BreakerConfig   `koanf:"breaker"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              int           `koanf:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
	// RateLimit is the number of recommend requests allowed per client IP
	// within RateLimitWindow. Zero disables throttling.
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type StorageConfig struct {
	SQLitePath string `koanf:"sqlite_path" validate:"required"`
	// IndexDriver selects the similarity index backend.
	IndexDriver     string `koanf:"index_driver" validate:"oneof=memory badger mongo"`
	BadgerPath      string `koanf:"badger_path" validate:"required_if=IndexDriver badger"`
	MongoURI        string `koanf:"mongo_uri" validate:"required_if=IndexDriver mongo"`
	MongoDatabase   string `koanf:"mongo_database"`
	MongoCollection string `koanf:"mongo_collection"`
}

type LLMConfig struct {
	// Provider is heuristic, ollama, groq or gemini. heuristic never leaves
	// the process.
	Provider     string        `koanf:"provider" validate:"oneof=heuristic ollama groq gemini"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
	OllamaURL    string        `koanf:"ollama_url"`
	OllamaModel  string        `koanf:"ollama_model"`
	GroqAPIKey   string        `koanf:"groq_api_key" validate:"required_if=Provider groq"`
	GroqBaseURL  string        `koanf:"groq_base_url"`
	GroqModel    string        `koanf:"groq_model"`
	GeminiAPIKey string        `koanf:"gemini_api_key" validate:"required_if=Provider gemini"`
	GeminiModel  string        `koanf:"gemini_model"`
}

type RetrievalConfig struct {
	TopK                int     `koanf:"top_k" validate:"min=1"`
	// SimilarityThreshold of zero means the 0.7 default.
	SimilarityThreshold float64 `koanf:"similarity_threshold" validate:"gte=-1,lt=1"`
	MetadataLimit       int     `koanf:"metadata_limit" validate:"min=1"`
	MaxResults          int     `koanf:"max_results" validate:"min=1"`
}

type IngestConfig struct {
	BatchSize         int           `koanf:"batch_size" validate:"min=1"`
	RowDelay          time.Duration `koanf:"row_delay" validate:"gte=0"`
	BatchDelay        time.Duration `koanf:"batch_delay" validate:"gte=0"`
	MaxAttempts       int           `koanf:"max_attempts" validate:"min=1"`
	RateLimitWait     time.Duration `koanf:"rate_limit_wait" validate:"gte=0"`
	ModelLoadingWait  time.Duration `koanf:"model_loading_wait" validate:"gte=0"`
	EmbedRatePerSec   float64       `koanf:"embed_rate_per_sec" validate:"gte=0"`
	AnalyzePreviews   bool          `koanf:"analyze_previews"`
	WorkerQueueSize   int           `koanf:"worker_queue_size" validate:"min=1"`
	DefaultCatalogCSV string        `koanf:"default_catalog_csv"`
	// CatalogDir is the only directory POST /api/ingest may read from.
	CatalogDir string `koanf:"catalog_dir"`
}

type BreakerConfig struct {
	FailureThreshold uint32        `koanf:"failure_threshold" validate:"min=1"`
	OpenTimeout      time.Duration `koanf:"open_timeout" validate:"gt=0"`
	HalfOpenRequests uint32        `koanf:"half_open_requests" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "",
			Port:              8080,
			ReadHeaderTimeout: 15 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			RateLimit:         60,
			RateLimitWindow:   time.Minute,
		},
		Storage: StorageConfig{
			SQLitePath:      "songsense.db",
			IndexDriver:     "badger",
			BadgerPath:      "data/index",
			MongoDatabase:   "songsense",
			MongoCollection: "song_vectors",
		},
		LLM: LLMConfig{
			Provider:    "heuristic",
			Timeout:     30 * time.Second,
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "llama3",
			GroqBaseURL: "https://api.groq.com/openai/v1",
			GroqModel:   "llama3-8b-8192",
			GeminiModel: "gemini-2.0-flash",
		},
		Retrieval: RetrievalConfig{
			TopK:                5,
			SimilarityThreshold: 0.7,
			MetadataLimit:       15,
			MaxResults:          10,
		},
		Ingest: IngestConfig{
			BatchSize:         3,
			RowDelay:          2 * time.Second,
			BatchDelay:        10 * time.Second,
			MaxAttempts:       5,
			RateLimitWait:     5 * time.Second,
			ModelLoadingWait:  15 * time.Second,
			WorkerQueueSize:   8,
			DefaultCatalogCSV: "data/genres_v2.csv",
			CatalogDir:        "data",
		},
		Breaker: BreakerConfig{
			FailureThreshold: 5,
			OpenTimeout:      30 * time.Second,
			HalfOpenRequests: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// Validate checks struct tags and cross-field rules.
func (c *Config) Validate() error {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			msgs := make([]string, 0, len(fieldErrs))
			for _, fe := range fieldErrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("config: %s", strings.Join(msgs, "; "))
		}
		return fmt.Errorf("config: %w", err)
	}
	if c.Retrieval.MaxResults < c.Retrieval.TopK {
		return fmt.Errorf("config: retrieval.max_results (%d) must be at least retrieval.top_k (%d)", c.Retrieval.MaxResults, c.Retrieval.TopK)
	}
	return nil
}
