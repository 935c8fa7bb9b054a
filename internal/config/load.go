package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/songsense/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// envMappings maps environment variables to koanf paths. Variables not in
// the table are ignored.
var envMappings = map[string]string{
	"http_host":            "server.host",
	"port":                 "server.port",
	"http_port":            "server.port",
	"rate_limit":           "server.rate_limit",
	"rate_limit_window":    "server.rate_limit_window",
	"sqlite_path":          "storage.sqlite_path",
	"database_path":        "storage.sqlite_path",
	"index_driver":         "storage.index_driver",
	"badger_path":          "storage.badger_path",
	"mongodb_uri":          "storage.mongo_uri",
	"mongodb_database":     "storage.mongo_database",
	"mongodb_collection":   "storage.mongo_collection",
	"llm_provider":         "llm.provider",
	"llm_timeout":          "llm.timeout",
	"ollama_host":          "llm.ollama_url",
	"ollama_model":         "llm.ollama_model",
	"groq_api_key":         "llm.groq_api_key",
	"groq_base_url":        "llm.groq_base_url",
	"groq_model":           "llm.groq_model",
	"gemini_api_key":       "llm.gemini_api_key",
	"gemini_model":         "llm.gemini_model",
	"similarity_top_k":     "retrieval.top_k",
	"similarity_threshold": "retrieval.similarity_threshold",
	"metadata_limit":       "retrieval.metadata_limit",
	"max_results":          "retrieval.max_results",
	"ingest_batch_size":    "ingest.batch_size",
	"ingest_row_delay":     "ingest.row_delay",
	"ingest_batch_delay":   "ingest.batch_delay",
	"ingest_max_attempts":  "ingest.max_attempts",
	"embed_rate_per_sec":   "ingest.embed_rate_per_sec",
	"analyze_previews":     "ingest.analyze_previews",
	"catalog_csv":          "ingest.default_catalog_csv",
	"catalog_dir":          "ingest.catalog_dir",
	"log_level":            "logging.level",
	"log_format":           "logging.format",
}

func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}

// Load reads .env (if present), then layers defaults, the config file and
// environment variables, and validates the result.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load .env: %w", err)
	}
	return LoadFrom(findConfigFile())
}

// LoadFrom is Load without .env handling, reading the YAML file at path
// when path is non-empty.
func LoadFrom(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
