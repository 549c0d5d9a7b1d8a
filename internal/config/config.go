// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.corpus/config.yaml)
//  3. Default values (sensible defaults for quick start)
//
// Main configuration categories:
//   - Storage: collection data directory and collection name
//   - Embedding: provider, model, vector dimensions
//   - Pipeline: text length thresholds, checkpoint interval, rate limits
//   - Search: default top-K, query timeout
//
// Error Handling:
//   - Uses sentinel errors for Go-idiomatic error checking with errors.Is()
//   - Wrap with context using fmt.Errorf("%w: details", ErrXxx)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidCollection indicates the collection name is invalid.
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidDimensions indicates the vector dimension count is out of range.
	ErrInvalidDimensions = errors.New("invalid dimensions")

	// ErrInvalidProvider indicates the embedding provider is not supported.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidTextLimits indicates the text length thresholds are inconsistent.
	ErrInvalidTextLimits = errors.New("invalid text limits")

	// ErrInvalidTopK indicates the default top-K is out of range.
	ErrInvalidTopK = errors.New("invalid top-k")

	// ErrInvalidSearchTimeout indicates the search timeout is out of range.
	ErrInvalidSearchTimeout = errors.New("invalid search timeout")

	// ErrInvalidCheckpointInterval indicates the checkpoint interval is out of range.
	ErrInvalidCheckpointInterval = errors.New("invalid checkpoint interval")
)

const (
	// DefaultEmbedderModel is the default Gemini embedder model.
	// gemini-embedding-001 supports truncation to 768 dimensions via
	// OutputDimensionality; 768 matches DefaultDimensions below.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultDimensions is the default embedding vector size.
	DefaultDimensions = 768

	// DefaultMinTextChars is the minimum normalized text length worth
	// embedding. Shorter documents are skipped by the pipeline.
	DefaultMinTextChars = 60

	// DefaultMaxTextChars bounds the text passed to the embedder to keep
	// memory and latency predictable. Longer documents are truncated.
	DefaultMaxTextChars = 1_000_000

	// MaxAllowedDimensions is the absolute ceiling to prevent absurd
	// manifest values from allocating huge vectors.
	MaxAllowedDimensions = 8192
)

// Embedding provider identifiers used in Config.Provider.
const (
	ProviderGoogleAI = "googleai"
)

// Config stores application configuration.
type Config struct {
	// Storage configuration
	DataDir    string `mapstructure:"data_dir" json:"data_dir"`       // root for collections and checkpoints
	Collection string `mapstructure:"collection" json:"collection"`   // active collection name

	// Embedding configuration
	Provider      string `mapstructure:"provider" json:"provider"`             // "googleai" (default)
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"` // model identifier
	Dimensions    int    `mapstructure:"dimensions" json:"dimensions"`         // vector size D

	// Pipeline configuration
	MinTextChars       int     `mapstructure:"min_text_chars" json:"min_text_chars"`
	MaxTextChars       int     `mapstructure:"max_text_chars" json:"max_text_chars"`
	CheckpointInterval int     `mapstructure:"checkpoint_interval" json:"checkpoint_interval"` // persist/emit every N items
	EmbedRate          float64 `mapstructure:"embed_rate" json:"embed_rate"`                   // embed calls per second, 0 = unlimited

	// Search configuration
	TopK                 int `mapstructure:"top_k" json:"top_k"`
	SearchTimeoutSeconds int `mapstructure:"search_timeout_seconds" json:"search_timeout_seconds"`
}

// Load loads configuration.
// Priority: Environment variables > Configuration file > Default values
func Load() (*Config, error) {
	// Configuration directory: ~/.corpus/
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".corpus")

	// Ensure directory exists (use 0750 permission for better security)
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	// Configure Viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	// Set default values
	setDefaults(configDir)

	// Bind environment variables
	bindEnvVariables()

	// Read configuration file (if exists)
	if err := viper.ReadInConfig(); err != nil {
		// Configuration file not found is not an error, use default values
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."},
			"config_name", "config.yaml")
	}

	// Use Unmarshal to automatically map to struct (type-safe)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// CRITICAL: Validate immediately (fail-fast)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(configDir string) {
	// Storage defaults
	viper.SetDefault("data_dir", filepath.Join(configDir, "collections"))
	viper.SetDefault("collection", "default")

	// Embedding defaults
	viper.SetDefault("provider", ProviderGoogleAI)
	viper.SetDefault("embedder_model", DefaultEmbedderModel)
	viper.SetDefault("dimensions", DefaultDimensions)

	// Pipeline defaults
	viper.SetDefault("min_text_chars", DefaultMinTextChars)
	viper.SetDefault("max_text_chars", DefaultMaxTextChars)
	viper.SetDefault("checkpoint_interval", 1)
	viper.SetDefault("embed_rate", 0.0)

	// Search defaults
	viper.SetDefault("top_k", 5)
	viper.SetDefault("search_timeout_seconds", 30)
}

// bindEnvVariables binds environment variable overrides explicitly.
//
// NOTE: GEMINI_API_KEY is read directly by Genkit, not via Viper.
// Validation checks its presence based on the selected provider.
func bindEnvVariables() {
	// Helper to panic on unexpected bind errors (hardcoded strings can't fail)
	// If this panics, it's a BUG in our code, not a runtime error
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("data_dir", "CORPUS_DATA_DIR")
	mustBind("collection", "CORPUS_COLLECTION")
	mustBind("provider", "CORPUS_PROVIDER")
	mustBind("embedder_model", "CORPUS_EMBEDDER_MODEL")
	mustBind("dimensions", "CORPUS_DIMENSIONS")
	mustBind("embed_rate", "CORPUS_EMBED_RATE")
}

// CollectionDir returns the on-disk directory for the active collection.
func (c *Config) CollectionDir() string {
	return filepath.Join(c.DataDir, c.Collection)
}

// CheckpointDir returns the directory for pipeline checkpoints.
// Checkpoints live outside the collection directory so that wiping a
// collection never destroys progress bookkeeping by accident, and vice versa.
func (c *Config) CheckpointDir() string {
	return filepath.Join(c.DataDir, "checkpoints")
}
