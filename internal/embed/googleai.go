package embed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// GoogleAI is a Provider backed by a Genkit Google AI embedder.
//
// The Genkit instance and embedder are created in Init(), not in the
// constructor, so that a missing API key or unreachable model surfaces as
// ErrModelUnavailable at run start rather than at first Embed call.
type GoogleAI struct {
	model      string
	dimensions int
	logger     *slog.Logger

	embedder ai.Embedder
}

// NewGoogleAI creates a Google AI provider for the given embedder model.
// dimensions is the collection's fixed vector size D; the model output is
// truncated/validated against it.
func NewGoogleAI(model string, dimensions int, logger *slog.Logger) *GoogleAI {
	if logger == nil {
		logger = slog.Default()
	}
	return &GoogleAI{
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Init initializes Genkit with the Google AI plugin and resolves the
// embedder. Returns an error wrapping ErrModelUnavailable on any failure.
func (p *GoogleAI) Init(ctx context.Context) error {
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY is not set", ErrModelUnavailable)
	}

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, p.model)
	if embedder == nil {
		return fmt.Errorf("%w: embedder %q not registered", ErrModelUnavailable, p.model)
	}
	p.embedder = embedder

	p.logger.Debug("embedding provider initialized", "model", p.model, "dimensions", p.dimensions)
	return nil
}

// Embed returns the unit-normalized embedding for text.
func (p *GoogleAI) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.embedder == nil {
		return nil, fmt.Errorf("%w: provider not initialized", ErrModelUnavailable)
	}

	resp, err := p.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			ai.DocumentFromText(text, nil),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed failed: %w", err)
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return nil, fmt.Errorf("no embeddings returned for input of %d chars", len(text))
	}

	vector := resp.Embeddings[0].Embedding
	if len(vector) > p.dimensions {
		// Models supporting Matryoshka truncation keep the leading
		// dimensions meaningful; re-normalize after the cut.
		vector = vector[:p.dimensions]
	}
	if len(vector) != p.dimensions {
		return nil, fmt.Errorf("model returned %d dimensions, collection expects %d",
			len(vector), p.dimensions)
	}

	return NormalizeL2(vector), nil
}

// Dimensions returns the fixed vector size D.
func (p *GoogleAI) Dimensions() int {
	return p.dimensions
}

// Close releases the embedder reference. Genkit manages plugin lifecycles
// internally, so there is nothing else to tear down.
func (p *GoogleAI) Close() error {
	p.embedder = nil
	return nil
}
