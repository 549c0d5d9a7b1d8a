// Package testutil provides shared test doubles for pipeline and search
// tests: a deterministic embedding provider and a quiet logger.
package testutil

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/koopa0/corpus/internal/embed"
)

// Provider is a deterministic, offline embed.Provider for tests.
//
// Vectors are hashed bags of words: each lowercased token contributes weight
// to a dimension picked by hashing the token, and the result is
// unit-normalized. Texts sharing words therefore score higher under cosine
// similarity than unrelated texts, which is enough structure for ranking
// tests without any model.
//
// Failure injection: set EmbedErr to fail every Embed call, or
// FailOnCallNumber to fail only the nth call (1-based). InitErr makes Init
// fail. Delay adds per-call latency for timeout tests.
type Provider struct {
	Dims             int
	InitErr          error
	EmbedErr         error
	FailOnCallNumber int
	Delay            time.Duration

	mu         sync.Mutex
	initCalls  int
	embedCalls int
	closeCalls int
}

// NewProvider creates a deterministic provider with the given dimensions.
func NewProvider(dims int) *Provider {
	return &Provider{Dims: dims}
}

// Init records the call and returns InitErr.
func (p *Provider) Init(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.initCalls++
	return p.InitErr
}

// Embed returns the deterministic vector for text, honoring the configured
// failure injection and delay.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	p.embedCalls++
	call := p.embedCalls
	p.mu.Unlock()

	if p.Delay > 0 {
		select {
		case <-time.After(p.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if p.EmbedErr != nil {
		return nil, p.EmbedErr
	}
	if p.FailOnCallNumber > 0 && call == p.FailOnCallNumber {
		return nil, context.DeadlineExceeded
	}

	return Vector(text, p.Dims), nil
}

// Dimensions returns the configured vector size.
func (p *Provider) Dimensions() int {
	return p.Dims
}

// Close records the call.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeCalls++
	return nil
}

// EmbedCalls returns how many times Embed was called.
func (p *Provider) EmbedCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.embedCalls
}

// InitCalls returns how many times Init was called.
func (p *Provider) InitCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.initCalls
}

// CloseCalls returns how many times Close was called.
func (p *Provider) CloseCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCalls
}

// Vector computes the deterministic hashed bag-of-words embedding used by
// Provider, exposed so tests can build expected vectors directly.
func Vector(text string, dims int) []float32 {
	v := make([]float32, dims)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		sum := sha256.Sum256([]byte(token))
		idx := binary.BigEndian.Uint32(sum[:4]) % uint32(dims)
		v[idx]++
	}
	return embed.NormalizeL2(v)
}

// Logger returns a logger that discards all output.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
