// Package embed defines the embedding provider boundary for the corpus
// pipeline and search engine.
//
// A Provider turns text into a fixed-length, unit-normalized float vector.
// The model behind it is opaque: the pipeline and search engine only rely on
// the contract below, so tests substitute a deterministic provider and
// production wires a Genkit-backed one (see googleai.go).
//
// Lifecycle: Init() acquires model resources and must be called before
// Embed(); a failed Init is fatal for a whole pipeline run. Close() releases
// resources. Both are scoped to one run or one search session, not to the
// process (no package-level model singleton).
package embed

import (
	"context"
	"errors"
	"math"
)

// ErrModelUnavailable indicates the provider failed to initialize its model
// or backing resources. Fatal for the run; checked with errors.Is().
var ErrModelUnavailable = errors.New("embedding model unavailable")

// Provider converts text into embedding vectors.
//
// Implementations must be deterministic for identical input and model
// version, modulo floating-point noise from the model runtime. Returned
// vectors are unit-normalized so cosine similarity reduces to a dot product
// for well-behaved stores; consumers must not rely on that and should still
// compute full cosine similarity.
type Provider interface {
	// Init acquires the model. Returns an error wrapping ErrModelUnavailable
	// if the model or its resources cannot be loaded.
	Init(ctx context.Context) error

	// Embed returns the embedding vector for text. Empty input is valid and
	// returns some vector, not an error.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed vector size D for this provider.
	Dimensions() int

	// Close releases model resources. Safe to call after a failed Init.
	Close() error
}

// NormalizeL2 scales v to unit length in place and returns it.
// A zero vector is returned unchanged: there is no direction to normalize,
// and downstream cosine scoring defines its similarity as 0.
func NormalizeL2(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
	return v
}
