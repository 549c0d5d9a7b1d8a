package config

import (
	"errors"
	"testing"
)

// validConfig returns a configuration that passes Validate().
// Individual tests mutate single fields to probe each check.
func validConfig() *Config {
	return &Config{
		DataDir:              "/tmp/corpus-test",
		Collection:           "default",
		Provider:             ProviderGoogleAI,
		EmbedderModel:        DefaultEmbedderModel,
		Dimensions:           DefaultDimensions,
		MinTextChars:         DefaultMinTextChars,
		MaxTextChars:         DefaultMaxTextChars,
		CheckpointInterval:   1,
		EmbedRate:            0,
		TopK:                 5,
		SearchTimeoutSeconds: 30,
	}
}

func TestValidate_Success(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")

	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	var cfg *Config
	if err := cfg.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("expected ErrConfigNil, got %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	if err := validConfig().Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("expected ErrMissingAPIKey, got %v", err)
	}
}

func TestValidate_FieldErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "unsupported provider",
			mutate:  func(c *Config) { c.Provider = "ollama" },
			wantErr: ErrInvalidProvider,
		},
		{
			name:    "empty collection",
			mutate:  func(c *Config) { c.Collection = "" },
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "collection with path separator",
			mutate:  func(c *Config) { c.Collection = "docs/../../etc" },
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "collection dot-dot",
			mutate:  func(c *Config) { c.Collection = ".." },
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "collection with space",
			mutate:  func(c *Config) { c.Collection = "my docs" },
			wantErr: ErrInvalidCollection,
		},
		{
			name:    "empty embedder model",
			mutate:  func(c *Config) { c.EmbedderModel = "" },
			wantErr: ErrInvalidEmbedderModel,
		},
		{
			name:    "zero dimensions",
			mutate:  func(c *Config) { c.Dimensions = 0 },
			wantErr: ErrInvalidDimensions,
		},
		{
			name:    "dimensions above ceiling",
			mutate:  func(c *Config) { c.Dimensions = MaxAllowedDimensions + 1 },
			wantErr: ErrInvalidDimensions,
		},
		{
			name:    "negative min text chars",
			mutate:  func(c *Config) { c.MinTextChars = -1 },
			wantErr: ErrInvalidTextLimits,
		},
		{
			name:    "max below min",
			mutate:  func(c *Config) { c.MinTextChars = 100; c.MaxTextChars = 50 },
			wantErr: ErrInvalidTextLimits,
		},
		{
			name:    "checkpoint interval zero",
			mutate:  func(c *Config) { c.CheckpointInterval = 0 },
			wantErr: ErrInvalidCheckpointInterval,
		},
		{
			name:    "top-k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top-k too large",
			mutate:  func(c *Config) { c.TopK = 101 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "search timeout zero",
			mutate:  func(c *Config) { c.SearchTimeoutSeconds = 0 },
			wantErr: ErrInvalidSearchTimeout,
		},
		{
			name:    "search timeout too long",
			mutate:  func(c *Config) { c.SearchTimeoutSeconds = 301 },
			wantErr: ErrInvalidSearchTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "test-key")

			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateCollectionName_Valid(t *testing.T) {
	for _, name := range []string{"default", "team-docs", "kb_2025", "v1.2"} {
		if err := validateCollectionName(name); err != nil {
			t.Errorf("validateCollectionName(%q) = %v, want nil", name, err)
		}
	}
}
