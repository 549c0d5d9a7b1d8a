// Package search answers similarity queries over the vector store with an
// exact brute-force scan: embed the query, score every record by cosine
// similarity, return the top K.
//
// Exact scan is deliberate for collections in the thousands of records;
// approximate indexes buy speed the workload does not need at the cost of
// recall guarantees.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/koopa0/corpus/internal/embed"
	"github.com/koopa0/corpus/internal/store"
)

// ErrTimeout indicates the search exceeded its time budget.
var ErrTimeout = errors.New("search timed out")

const (
	// DefaultTopK is the number of results returned when not configured.
	DefaultTopK = 5

	// DefaultTimeout bounds a search when no timeout option is given.
	DefaultTimeout = 30 * time.Second
)

// Reader is the slice of the vector store the engine reads.
type Reader interface {
	All(ctx context.Context) ([]store.Record, error)
}

// Result is one search hit.
type Result struct {
	Text       string
	Score      float64
	SourceName string
	SourcePath string
}

// Options configures a single search.
type Options struct {
	topK    int
	timeout time.Duration
}

// Option modifies search options.
type Option func(*Options)

// WithTopK sets the maximum number of results.
func WithTopK(k int) Option {
	return func(o *Options) {
		if k > 0 {
			o.topK = k
		}
	}
}

// WithTimeout bounds the whole search, embed call included.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// Engine executes similarity searches.
type Engine struct {
	store    Reader
	provider embed.Provider
	logger   *slog.Logger
}

// New creates a search engine over the given store and provider. The caller
// owns the provider lifecycle; Init must have succeeded before Search.
func New(st Reader, provider embed.Provider, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: st, provider: provider, logger: logger}
}

// Search embeds query and returns the top matching records by cosine
// similarity, best first. An empty store yields an empty result set, not an
// error. Ties keep the store's iteration order, so repeated searches over an
// unchanged store return identical rankings.
func (e *Engine) Search(ctx context.Context, query string, opts ...Option) ([]Result, error) {
	o := Options{topK: DefaultTopK, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	start := time.Now()

	queryVec, err := e.provider.Embed(ctx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: embedding query: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	records, err := e.store.All(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: reading store: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("reading store: %w", err)
	}

	results := make([]Result, 0, len(records))
	for _, rec := range records {
		if len(rec.Embedding) != len(queryVec) {
			e.logger.Warn("skipping record with mismatched dimensions",
				"id", rec.ID,
				"record_dims", len(rec.Embedding),
				"query_dims", len(queryVec))
			continue
		}
		results = append(results, Result{
			Text:       rec.Text,
			Score:      cosineSimilarity(queryVec, rec.Embedding),
			SourceName: rec.SourceName,
			SourcePath: rec.SourcePath,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > o.topK {
		results = results[:o.topK]
	}

	e.logger.Debug("search completed",
		"candidates", len(records),
		"returned", len(results),
		"duration", time.Since(start).String())
	return results, nil
}

// cosineSimilarity computes the cosine of the angle between a and b in
// float64 to keep the accumulation stable. Either vector having zero norm
// yields 0: no direction, no similarity.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
