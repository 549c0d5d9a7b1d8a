// Package pipeline drives the incremental embedding run: enumerate a source,
// normalize and embed each document, persist records, and checkpoint progress
// so an interrupted run resumes where it left off.
//
// One run holds an exclusive per-collection file lock, making the pipeline
// the store's single writer. Item failures are contained: a document that
// fails to normalize, embed, or persist is counted and reported, and the run
// moves on. Only provider initialization, source enumeration, and repeated
// consecutive persist failures abort a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/koopa0/corpus/internal/checkpoint"
	"github.com/koopa0/corpus/internal/embed"
	"github.com/koopa0/corpus/internal/normalize"
	"github.com/koopa0/corpus/internal/source"
	"github.com/koopa0/corpus/internal/store"
)

var (
	// ErrRunInProgress indicates another process holds the collection lock.
	ErrRunInProgress = errors.New("another run is in progress for this collection")

	// ErrPersistFailure indicates the store rejected writes repeatedly and
	// the run aborted rather than burn embed calls it cannot keep.
	ErrPersistFailure = errors.New("persistent store failures")
)

const (
	// DefaultCheckpointInterval is how many processed items pass between
	// checkpoint saves when not configured otherwise.
	DefaultCheckpointInterval = 10

	// persistFailureLimit is the number of consecutive failed Puts, each
	// already retried once, that aborts the run.
	persistFailureLimit = 3
)

// Store is the slice of the vector store the pipeline writes through.
type Store interface {
	Put(rec store.Record) error
	LastModified(id string) (time.Time, error)
	Count() (int, error)
	PutManifest(m store.Manifest) error
	Dir() string
}

// Result summarizes one pipeline run.
type Result struct {
	Total    int // documents the source enumerated
	Embedded int
	Skipped  int // unchanged or below the length gate
	Failed   int
	Duration time.Duration
}

// Runner executes embedding runs for one collection.
type Runner struct {
	source   source.Source
	provider embed.Provider
	store    Store
	tracker  *checkpoint.Tracker
	logger   *slog.Logger

	interval int
	minChars int
	maxChars int
	limiter  *rate.Limiter
	sink     ProgressSink
}

// Option configures a Runner.
type Option func(*Runner)

// WithCheckpointInterval sets how many processed items pass between
// checkpoint saves.
func WithCheckpointInterval(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.interval = n
		}
	}
}

// WithTextLimits sets the normalized-text length gates in characters.
// Documents shorter than min are skipped; longer than max are truncated.
func WithTextLimits(min, max int) Option {
	return func(r *Runner) {
		if min > 0 {
			r.minChars = min
		}
		if max > 0 {
			r.maxChars = max
		}
	}
}

// WithRateLimit caps embed calls at n per second.
func WithRateLimit(n float64) Option {
	return func(r *Runner) {
		if n > 0 {
			r.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// WithSink routes progress events to sink.
func WithSink(sink ProgressSink) Option {
	return func(r *Runner) {
		if sink != nil {
			r.sink = sink
		}
	}
}

// NewRunner creates a runner over the given source, provider, store, and
// checkpoint tracker.
func NewRunner(src source.Source, provider embed.Provider, st Store, tracker *checkpoint.Tracker, logger *slog.Logger, opts ...Option) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		source:   src,
		provider: provider,
		store:    st,
		tracker:  tracker,
		logger:   logger,
		interval: DefaultCheckpointInterval,
		minChars: 1,
		maxChars: 1_000_000,
		sink:     nopSink{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one embedding pass. With resume true, an incomplete
// checkpoint positions the run after the last processed document; otherwise
// the checkpoint is cleared and the full set is re-examined (unchanged
// documents are still skipped cheaply).
//
// Returns ErrRunInProgress without side effects if another run holds the
// collection lock. On context cancellation the current progress is
// checkpointed before returning the context error.
func (r *Runner) Run(ctx context.Context, resume bool) (*Result, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := r.logger.With("run_id", runID)

	lockPath := r.store.Dir() + ".lock"
	if err := os.MkdirAll(filepath.Dir(lockPath), 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	lock := flock.New(lockPath)
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquiring collection lock: %w", err)
	}
	if !locked {
		return nil, ErrRunInProgress
	}
	defer func() {
		_ = lock.Unlock()
	}()

	if err := r.provider.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing embedding provider: %w", err)
	}
	defer func() {
		_ = r.provider.Close()
	}()

	docs, err := r.source.Enumerate(ctx)
	if err != nil {
		return nil, fmt.Errorf("enumerating source: %w", err)
	}

	res := &Result{Total: len(docs)}

	if len(docs) == 0 {
		if err := r.finish(runID, 0, 0, ""); err != nil {
			return nil, err
		}
		r.sink.Publish(Event{Type: EventEmpty})
		res.Duration = time.Since(start)
		logger.Info("source enumerated no documents")
		return res, nil
	}

	startIdx, lastID, err := r.position(resume, docs, logger)
	if err != nil {
		return nil, err
	}

	processed := startIdx
	consecutivePersistFailures := 0

	for i := startIdx; i < len(docs); i++ {
		doc := docs[i]

		if err := ctx.Err(); err != nil {
			r.saveProgress(runID, processed, len(docs), lastID, logger)
			res.Duration = time.Since(start)
			return res, err
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.saveProgress(runID, processed, len(docs), lastID, logger)
				res.Duration = time.Since(start)
				return res, err
			}
		}

		id := store.RecordID(doc.Name)

		switch out, err := r.processDocument(ctx, id, doc); {
		case err != nil && ctx.Err() != nil:
			r.saveProgress(runID, processed, len(docs), lastID, logger)
			res.Duration = time.Since(start)
			return res, ctx.Err()

		case err != nil:
			res.Failed++
			if isPersistFailure(err) {
				consecutivePersistFailures++
			} else {
				consecutivePersistFailures = 0
			}
			logger.Warn("document failed",
				"document", doc.Name,
				"error", err)
			r.sink.Publish(Event{Type: EventError, Processed: processed + 1, Total: len(docs), Document: doc.Name, Err: err})
			if consecutivePersistFailures >= persistFailureLimit {
				r.saveProgress(runID, processed, len(docs), lastID, logger)
				res.Duration = time.Since(start)
				return res, fmt.Errorf("%w: %d consecutive write failures, last: %v",
					ErrPersistFailure, consecutivePersistFailures, err)
			}

		case out == outcomeEmbedded:
			consecutivePersistFailures = 0
			res.Embedded++
			r.sink.Publish(Event{Type: EventProcessing, Processed: processed + 1, Total: len(docs), Document: doc.Name})

		default:
			res.Skipped++
			r.sink.Publish(Event{Type: EventProcessing, Processed: processed + 1, Total: len(docs), Document: doc.Name})
		}

		processed++
		lastID = id
		if processed%r.interval == 0 {
			r.saveProgress(runID, processed, len(docs), lastID, logger)
		}
	}

	if err := r.finish(runID, processed, len(docs), lastID); err != nil {
		return nil, err
	}
	r.sink.Publish(Event{Type: EventCompleted, Processed: processed, Total: len(docs)})

	res.Duration = time.Since(start)
	logger.Info("run completed",
		"total", res.Total,
		"embedded", res.Embedded,
		"skipped", res.Skipped,
		"failed", res.Failed,
		"duration", res.Duration.String())
	return res, nil
}

type outcome int

const (
	outcomeEmbedded outcome = iota
	outcomeSkipped
)

// processDocument handles one item: skip-if-unchanged, normalize, gate,
// embed, persist. Returned errors are per-item unless the context is done.
func (r *Runner) processDocument(ctx context.Context, id string, doc source.Document) (outcome, error) {
	if r.unchanged(id, doc) {
		return outcomeSkipped, nil
	}

	text, err := r.normalizeDocument(doc)
	if err != nil {
		return 0, fmt.Errorf("normalizing: %w", err)
	}
	if utf8.RuneCountInString(text) < r.minChars {
		return outcomeSkipped, nil
	}
	text = truncateRunes(text, r.maxChars)

	vector, err := r.provider.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embedding: %w", err)
	}

	rec := store.Record{
		ID:         id,
		SourceName: doc.Name,
		SourcePath: doc.Path,
		Text:       text,
		Embedding:  vector,
		Dimensions: len(vector),
		EmbeddedAt: time.Now().UTC(),
	}
	if err := r.store.Put(rec); err != nil {
		// One immediate retry covers transient filesystem hiccups.
		if err = r.store.Put(rec); err != nil {
			return 0, fmt.Errorf("%w: %v", errPersist, err)
		}
	}
	return outcomeEmbedded, nil
}

// errPersist tags store write failures so the consecutive-failure counter
// only tracks persistence, not embed or normalize errors.
var errPersist = errors.New("persisting record")

// unchanged reports whether the stored record is at least as fresh as the
// source document, making the expensive embed call unnecessary.
func (r *Runner) unchanged(id string, doc source.Document) bool {
	if doc.LastModified.IsZero() {
		return false
	}
	mod, err := r.store.LastModified(id)
	if err != nil {
		return false
	}
	return !mod.Before(doc.LastModified)
}

func (r *Runner) normalizeDocument(doc source.Document) (string, error) {
	switch doc.Format {
	case source.FormatStorage:
		return normalize.Storage(doc.Raw)
	case source.FormatMarkdown:
		return normalize.Markdown(doc.Raw)
	default:
		return normalize.Clean(doc.Raw), nil
	}
}

// position determines where the run starts within docs. Resume looks for the
// checkpointed last processed id; if the id is no longer in the set (the
// source changed shape), the run starts over.
func (r *Runner) position(resume bool, docs []source.Document, logger *slog.Logger) (int, string, error) {
	if !resume {
		if err := r.tracker.Reset(); err != nil {
			return 0, "", fmt.Errorf("resetting checkpoint: %w", err)
		}
		return 0, "", nil
	}

	cp, err := r.tracker.Load()
	if err != nil {
		return 0, "", fmt.Errorf("loading checkpoint: %w", err)
	}
	if cp == nil || cp.Complete || cp.LastProcessedID == "" {
		return 0, "", nil
	}

	for i, doc := range docs {
		if store.RecordID(doc.Name) == cp.LastProcessedID {
			logger.Info("resuming from checkpoint",
				"already_processed", i+1,
				"total", len(docs))
			return i + 1, cp.LastProcessedID, nil
		}
	}

	logger.Warn("checkpointed document no longer in source, starting over",
		"last_processed_id", cp.LastProcessedID)
	return 0, "", nil
}

// saveProgress persists a mid-run checkpoint. Failures are logged, not
// fatal: a lost checkpoint costs re-embedding, not correctness.
func (r *Runner) saveProgress(runID string, processed, total int, lastID string, logger *slog.Logger) {
	err := r.tracker.Save(checkpoint.Checkpoint{
		RunID:           runID,
		ProcessedCount:  processed,
		TotalCount:      total,
		LastProcessedID: lastID,
	})
	if err != nil {
		logger.Warn("failed to save checkpoint", "error", err)
	}
}

// finish persists the terminal checkpoint and refreshes the manifest.
func (r *Runner) finish(runID string, processed, total int, lastID string) error {
	err := r.tracker.Save(checkpoint.Checkpoint{
		RunID:           runID,
		ProcessedCount:  processed,
		TotalCount:      total,
		LastProcessedID: lastID,
		Complete:        true,
	})
	if err != nil {
		return fmt.Errorf("saving final checkpoint: %w", err)
	}

	count, err := r.store.Count()
	if err != nil {
		return fmt.Errorf("counting records: %w", err)
	}
	err = r.store.PutManifest(store.Manifest{
		Total:      count,
		Dimensions: r.provider.Dimensions(),
	})
	if err != nil {
		return fmt.Errorf("writing manifest: %w", err)
	}
	return nil
}

func isPersistFailure(err error) bool {
	return errors.Is(err, errPersist)
}

func truncateRunes(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}
