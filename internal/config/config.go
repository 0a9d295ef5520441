package config

import (
	"fmt"
	"time"

	"github.com/graphloom/graphloom/internal/util"
	"github.com/graphloom/graphloom/pkg/common"

	"github.com/go-playground/validator"
)

// Adapter names for the reasoning service backend.
const (
	AdapterOpenAI = "openai"
	AdapterOllama = "ollama"
)

// Config carries everything the pipeline needs from the environment:
// store coordinates, reasoning-service settings, chunking parameters and
// operational limits. Loaded once at startup; missing required values
// fail before any pipeline stage runs.
type Config struct {
	// Store coordinates are only required by commands that dial the
	// database; a dry run never does. See RequireStore.
	StoreURI      string
	StoreUsername string
	StorePassword string

	AIAdapter      string `validate:"required"`
	AIKey          string
	AIURL          string
	AIExtractModel string `validate:"required"`

	ChunkSize    int `validate:"required,min=1"`
	ChunkOverlap int `validate:"min=0"`

	ParallelExtractions int `validate:"min=1"`
	MaxRetries          int `validate:"min=1"`

	ExtractTimeout time.Duration
	StoreTimeout   time.Duration

	IngestDir string

	S3Bucket    string
	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string

	Debug bool
}

// Load reads configuration from the environment (after a best-effort
// .env load) and validates it. Defaults match the chunking parameters
// the extraction prompt was tuned for.
func Load() (*Config, error) {
	util.LoadEnv()

	cfg := &Config{
		StoreURI:      util.GetEnv("NEO4J_URI"),
		StoreUsername: util.GetEnv("NEO4J_USERNAME"),
		StorePassword: util.GetEnv("NEO4J_PASSWORD"),

		AIAdapter:      util.GetEnvString("AI_ADAPTER", AdapterOpenAI),
		AIKey:          util.GetEnv("AI_CHAT_KEY"),
		AIURL:          util.GetEnv("AI_CHAT_URL"),
		AIExtractModel: util.GetEnvString("AI_EXTRACT_MODEL", "gpt-4o-mini"),

		ChunkSize:    util.GetEnvInt("CHUNK_SIZE", 1536),
		ChunkOverlap: util.GetEnvInt("CHUNK_OVERLAP", 250),

		ParallelExtractions: util.GetEnvInt("PARALLEL_EXTRACTIONS", 1),
		MaxRetries:          util.GetEnvInt("MAX_RETRIES", 3),

		ExtractTimeout: time.Duration(util.GetEnvInt("EXTRACT_TIMEOUT_SECONDS", 120)) * time.Second,
		StoreTimeout:   time.Duration(util.GetEnvInt("STORE_TIMEOUT_SECONDS", 30)) * time.Second,

		IngestDir: util.GetEnvString("INGEST_DIR", "downloads"),

		S3Bucket:    util.GetEnv("S3_BUCKET"),
		S3Endpoint:  util.GetEnv("S3_ENDPOINT"),
		S3Region:    util.GetEnv("S3_REGION"),
		S3AccessKey: util.GetEnv("S3_ACCESS_KEY"),
		S3SecretKey: util.GetEnv("S3_SECRET_KEY"),

		Debug: util.GetEnvBool("DEBUG", false),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and the cross-field rules the
// validator tags cannot express. All violations surface as
// ConfigurationError.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &common.ConfigurationError{
				Field:  fe.Field(),
				Reason: fmt.Sprintf("failed %q constraint", fe.Tag()),
			}
		}
		return &common.ConfigurationError{Field: "config", Reason: err.Error()}
	}

	if c.ChunkOverlap >= c.ChunkSize {
		return &common.ConfigurationError{
			Field:  "ChunkOverlap",
			Reason: fmt.Sprintf("overlap %d must be smaller than chunk size %d", c.ChunkOverlap, c.ChunkSize),
		}
	}

	switch c.AIAdapter {
	case AdapterOpenAI:
		if c.AIKey == "" {
			return &common.ConfigurationError{Field: "AIKey", Reason: "AI_CHAT_KEY is required for the openai adapter"}
		}
	case AdapterOllama:
		// Local Ollama needs no key.
	default:
		return &common.ConfigurationError{
			Field:  "AIAdapter",
			Reason: fmt.Sprintf("unknown adapter %q, expected %q or %q", c.AIAdapter, AdapterOpenAI, AdapterOllama),
		}
	}

	return nil
}

// RequireStore checks that the graph store coordinates are set. Called
// before anything dials the database.
func (c *Config) RequireStore() error {
	switch {
	case c.StoreURI == "":
		return &common.ConfigurationError{Field: "StoreURI", Reason: "NEO4J_URI is required"}
	case c.StoreUsername == "":
		return &common.ConfigurationError{Field: "StoreUsername", Reason: "NEO4J_USERNAME is required"}
	case c.StorePassword == "":
		return &common.ConfigurationError{Field: "StorePassword", Reason: "NEO4J_PASSWORD is required"}
	}
	return nil
}
