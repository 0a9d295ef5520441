package config

import (
	"errors"
	"testing"
	"time"

	"github.com/graphloom/graphloom/pkg/common"
)

func validConfig() *Config {
	return &Config{
		StoreURI:            "neo4j://localhost:7687",
		StoreUsername:       "neo4j",
		StorePassword:       "secret",
		AIAdapter:           AdapterOpenAI,
		AIKey:               "sk-test",
		AIExtractModel:      "gpt-4o-mini",
		ChunkSize:           1536,
		ChunkOverlap:        250,
		ParallelExtractions: 1,
		MaxRetries:          3,
		ExtractTimeout:      time.Minute,
		StoreTimeout:        30 * time.Second,
	}
}

func TestValidateAcceptsValidConfig(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}

func TestValidateRejectsInvalidConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "missing openai key",
			mutate: func(c *Config) { c.AIKey = "" },
		},
		{
			name:   "overlap equal to size",
			mutate: func(c *Config) { c.ChunkOverlap = c.ChunkSize },
		},
		{
			name:   "overlap larger than size",
			mutate: func(c *Config) { c.ChunkOverlap = c.ChunkSize + 1 },
		},
		{
			name:   "negative overlap",
			mutate: func(c *Config) { c.ChunkOverlap = -1 },
		},
		{
			name:   "zero chunk size",
			mutate: func(c *Config) { c.ChunkSize = 0 },
		},
		{
			name:   "unknown adapter",
			mutate: func(c *Config) { c.AIAdapter = "bedrock" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() error = nil, want ConfigurationError")
			}
			var confErr *common.ConfigurationError
			if !errors.As(err, &confErr) {
				t.Errorf("Validate() error = %T, want *common.ConfigurationError", err)
			}
		})
	}
}

func TestValidateAllowsMissingStoreCredentials(t *testing.T) {
	// A dry run never dials the store, so Validate must not demand the
	// store coordinates. Commands that connect call RequireStore.
	cfg := validConfig()
	cfg.StoreURI = ""
	cfg.StoreUsername = ""
	cfg.StorePassword = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil without store credentials", err)
	}
}

func TestRequireStore(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:   "all set",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing uri",
			mutate:  func(c *Config) { c.StoreURI = "" },
			wantErr: true,
		},
		{
			name:    "missing username",
			mutate:  func(c *Config) { c.StoreUsername = "" },
			wantErr: true,
		},
		{
			name:    "missing password",
			mutate:  func(c *Config) { c.StorePassword = "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.RequireStore()
			if !tt.wantErr {
				if err != nil {
					t.Fatalf("RequireStore() error = %v, want nil", err)
				}
				return
			}
			var confErr *common.ConfigurationError
			if !errors.As(err, &confErr) {
				t.Fatalf("RequireStore() error = %T, want *common.ConfigurationError", err)
			}
		})
	}
}

func TestValidateAllowsOllamaWithoutKey(t *testing.T) {
	cfg := validConfig()
	cfg.AIAdapter = AdapterOllama
	cfg.AIKey = ""

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v, want nil", err)
	}
}
