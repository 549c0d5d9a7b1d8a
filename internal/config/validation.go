package config

import (
	"fmt"
	"os"
	"strings"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	// 0. Check for nil config (defensive programming)
	if c == nil {
		return ErrConfigNil
	}

	// 1. Provider validation
	if c.Provider != ProviderGoogleAI {
		return fmt.Errorf("%w: %q is not supported, must be %q",
			ErrInvalidProvider, c.Provider, ProviderGoogleAI)
	}

	// 2. API key validation (required for the selected provider)
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	// 3. Collection name validation: it becomes a directory name, so reject
	// separators and anything that could escape the data directory.
	if err := validateCollectionName(c.Collection); err != nil {
		return err
	}

	// 4. Embedding configuration validation
	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	if c.Dimensions < 1 || c.Dimensions > MaxAllowedDimensions {
		return fmt.Errorf("%w: must be between 1 and %d, got %d",
			ErrInvalidDimensions, MaxAllowedDimensions, c.Dimensions)
	}

	// 5. Pipeline thresholds: min must stay below max or every document
	// would be skipped.
	if c.MinTextChars < 0 {
		return fmt.Errorf("%w: min_text_chars cannot be negative, got %d",
			ErrInvalidTextLimits, c.MinTextChars)
	}
	if c.MaxTextChars <= c.MinTextChars {
		return fmt.Errorf("%w: max_text_chars (%d) must exceed min_text_chars (%d)",
			ErrInvalidTextLimits, c.MaxTextChars, c.MinTextChars)
	}

	if c.CheckpointInterval < 1 || c.CheckpointInterval > 1000 {
		return fmt.Errorf("%w: must be between 1 and 1000, got %d",
			ErrInvalidCheckpointInterval, c.CheckpointInterval)
	}

	// 6. Search configuration validation
	if c.TopK < 1 || c.TopK > 100 {
		return fmt.Errorf("%w: must be between 1 and 100, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.SearchTimeoutSeconds < 1 || c.SearchTimeoutSeconds > 300 {
		return fmt.Errorf("%w: must be between 1 and 300 seconds, got %d",
			ErrInvalidSearchTimeout, c.SearchTimeoutSeconds)
	}

	return nil
}

// validateCollectionName checks that a collection name is safe to use as a
// directory name under the data directory.
func validateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: cannot be empty", ErrInvalidCollection)
	}
	if len(name) > 128 {
		return fmt.Errorf("%w: %q exceeds 128 characters", ErrInvalidCollection, name)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidCollection, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidCollection, name)
	}
	for _, r := range name {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') && (r < '0' || r > '9') &&
			r != '-' && r != '_' && r != '.' {
			return fmt.Errorf("%w: %q contains unsupported character %q",
				ErrInvalidCollection, name, r)
		}
	}
	return nil
}
