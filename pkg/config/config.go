// Package config loads plexusgraph's runtime configuration from
// environment variables.
//
// All variables are prefixed with PLEXUS_. There is no config-file layer
// by design — one source of truth, friendly to containers and 12-factor
// deployments alike.
//
// Configuration is loaded with LoadFromEnv() and should be checked with
// Validate() before use.
//
// Example Usage:
//
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatalf("invalid config: %v", err)
//	}
//
//	fmt.Printf("bolt-style server: %s:%d\n", cfg.Server.Address, cfg.Server.Port)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all plexusgraph configuration loaded from the environment.
//
// Organized into sections:
//   - Storage: badger data directory and in-memory mode
//   - Engine: enrichment loop and normalization tuning
//   - Embedding: similarity-enrichment provider/model settings
//   - Server: listen address settings (loaded and validated only)
//   - Logging: level/format/output for the plexuslog helper
type Config struct {
	Storage   StorageConfig
	Engine    EngineConfig
	Embedding EmbeddingConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

// StorageConfig holds the persistent GraphStore's badger settings.
type StorageConfig struct {
	// DataDir is the badger data directory used by pkg/storage.
	DataDir string
	// InMemory runs badger with no on-disk files (PLEXUS_STORAGE_IN_MEMORY).
	InMemory bool
}

// EngineConfig holds engine/enrichment-loop tuning.
type EngineConfig struct {
	// MaxEnrichmentRounds bounds the enrichment registry's quiescence loop
	// (the safety valve documented on adapter.DefaultMaxRounds).
	MaxEnrichmentRounds int
	// DecayEnabled toggles background decay recalculation.
	DecayEnabled bool
	// DecayInterval is how often decay scores are recalculated.
	DecayInterval time.Duration
	// ArchiveThreshold is the edge strength below which the decay
	// scheduler prunes an edge. Nodes are not archived.
	ArchiveThreshold float64
	// NormalizationStrategy names a normalization strategy ("divisive" or
	// "softmax"). Validate rejects other names; nothing else reads it.
	NormalizationStrategy string
}

// EmbeddingConfig holds settings for the embedding-similarity enrichment.
type EmbeddingConfig struct {
	// Provider names the embedding backend ("ollama" or "openai").
	Provider string
	// Model is the embedding model name, encoded into the enrichment id.
	Model string
	// APIURL is the embedding provider's endpoint.
	APIURL string
	// Dimensions is the vector width the configured model produces.
	Dimensions int
	// SimilarityThreshold is the cosine-similarity floor for emitting a
	// similar_to edge.
	SimilarityThreshold float64
}

// ServerConfig holds listen address settings. They are loaded and
// validated, but cmd/plexusd serve opens no network listener and reads
// none of them.
type ServerConfig struct {
	// Enabled turns on Validate's port check.
	Enabled bool
	// Port to bind to.
	Port int
	// Address to bind to.
	Address string
}

// LoggingConfig holds settings for the plexuslog helper.
type LoggingConfig struct {
	// Level (DEBUG, INFO, WARN, ERROR)
	Level string
	// Format (json, text) — advisory only; plexuslog wraps the standard
	// library's log.Logger, which is always line-oriented text.
	Format string
	// Output path (stdout, stderr, or a file path)
	Output string
}

// LoadFromEnv loads configuration from environment variables, applying
// defaults where a variable is unset.
//
// Example:
//
//	os.Setenv("PLEXUS_STORAGE_DATA_DIR", "/var/lib/plexusgraph")
//	os.Setenv("PLEXUS_EMBEDDING_PROVIDER", "ollama")
//	cfg := config.LoadFromEnv()
//	if err := cfg.Validate(); err != nil {
//		log.Fatal(err)
//	}
func LoadFromEnv() *Config {
	cfg := &Config{}

	cfg.Storage.DataDir = getEnv("PLEXUS_STORAGE_DATA_DIR", "./data")
	cfg.Storage.InMemory = getEnvBool("PLEXUS_STORAGE_IN_MEMORY", false)

	cfg.Engine.MaxEnrichmentRounds = getEnvInt("PLEXUS_ENGINE_MAX_ENRICHMENT_ROUNDS", 10)
	cfg.Engine.DecayEnabled = getEnvBool("PLEXUS_ENGINE_DECAY_ENABLED", true)
	cfg.Engine.DecayInterval = getEnvDuration("PLEXUS_ENGINE_DECAY_INTERVAL", time.Hour)
	cfg.Engine.ArchiveThreshold = getEnvFloat("PLEXUS_ENGINE_ARCHIVE_THRESHOLD", 0.05)
	cfg.Engine.NormalizationStrategy = getEnv("PLEXUS_ENGINE_NORMALIZATION_STRATEGY", "divisive")

	cfg.Embedding.Provider = getEnv("PLEXUS_EMBEDDING_PROVIDER", "ollama")
	cfg.Embedding.Model = getEnv("PLEXUS_EMBEDDING_MODEL", "nomic-embed-text-v1.5")
	cfg.Embedding.APIURL = getEnv("PLEXUS_EMBEDDING_API_URL", "http://localhost:11434")
	cfg.Embedding.Dimensions = getEnvInt("PLEXUS_EMBEDDING_DIMENSIONS", 768)
	cfg.Embedding.SimilarityThreshold = getEnvFloat("PLEXUS_EMBEDDING_SIMILARITY_THRESHOLD", 0.7)

	cfg.Server.Enabled = getEnvBool("PLEXUS_SERVER_ENABLED", true)
	cfg.Server.Port = getEnvInt("PLEXUS_SERVER_PORT", 8080)
	cfg.Server.Address = getEnv("PLEXUS_SERVER_ADDRESS", "0.0.0.0")

	cfg.Logging.Level = getEnv("PLEXUS_LOG_LEVEL", "INFO")
	cfg.Logging.Format = getEnv("PLEXUS_LOG_FORMAT", "text")
	cfg.Logging.Output = getEnv("PLEXUS_LOG_OUTPUT", "stdout")

	return cfg
}

// Validate checks the configuration for invalid values. Call after
// LoadFromEnv() and before using the Config.
func (c *Config) Validate() error {
	if c.Engine.MaxEnrichmentRounds <= 0 {
		return fmt.Errorf("config: max enrichment rounds must be positive, got %d", c.Engine.MaxEnrichmentRounds)
	}
	if c.Engine.ArchiveThreshold < 0 || c.Engine.ArchiveThreshold > 1 {
		return fmt.Errorf("config: archive threshold must be in [0,1], got %f", c.Engine.ArchiveThreshold)
	}
	switch c.Engine.NormalizationStrategy {
	case "divisive", "softmax":
	default:
		return fmt.Errorf("config: unknown normalization strategy %q", c.Engine.NormalizationStrategy)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("config: invalid embedding dimensions: %d", c.Embedding.Dimensions)
	}
	if c.Embedding.SimilarityThreshold < 0 || c.Embedding.SimilarityThreshold > 1 {
		return fmt.Errorf("config: similarity threshold must be in [0,1], got %f", c.Embedding.SimilarityThreshold)
	}
	if c.Server.Enabled && c.Server.Port <= 0 {
		return fmt.Errorf("config: invalid server port: %d", c.Server.Port)
	}
	if !c.Storage.InMemory && c.Storage.DataDir == "" {
		return fmt.Errorf("config: storage data dir must be set unless running in-memory")
	}
	return nil
}

// String returns a string representation safe for logging — no secrets
// live in this config, so nothing is redacted.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, Server: %s:%d, Embedding: %s/%s, MaxEnrichmentRounds: %d}",
		c.Storage.DataDir, c.Server.Address, c.Server.Port,
		c.Embedding.Provider, c.Embedding.Model, c.Engine.MaxEnrichmentRounds,
	)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(val)
		return val == "true" || val == "1" || val == "yes" || val == "on"
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}
