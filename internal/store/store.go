// Package store implements the durable on-disk vector store.
//
// One directory per collection:
//
//	<collection>/manifest.json        collection-wide config {total, dimensions}
//	<collection>/records/<id>.json    one EmbeddingRecord per file
//
// Writes are atomic per record (write to a temporary name, then rename), so a
// concurrent reader either sees the whole record or doesn't see it at all. A
// Put for an existing id fully replaces the prior record; there is no partial
// merge. Records that fail to parse or violate the dimension invariant are
// skipped and logged during iteration, never fatal: they are the residue of an
// interrupted earlier run.
//
// The store itself takes no locks. The pipeline is the only writer (enforced
// there with a file lock) and search is a read-only consumer that tolerates
// an eventually consistent view.
package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrNotFound indicates the requested record or manifest does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptRecord indicates a stored record failed schema or dimension
	// validation on read.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrInvalidRecord indicates a record failed validation before write.
	ErrInvalidRecord = errors.New("invalid record")
)

const (
	manifestFile = "manifest.json"
	recordsDir   = "records"
	recordExt    = ".json"
)

// Record is one embedded unit: a page or a file.
type Record struct {
	ID         string    `json:"id"`
	SourceName string    `json:"source_name"`
	SourcePath string    `json:"source_path"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
	EmbeddedAt time.Time `json:"embedded_at"`
}

// Manifest describes collection-wide configuration. It is the single source
// of truth for the collection's vector dimensions.
type Manifest struct {
	Total      int `json:"total"`
	Dimensions int `json:"dimensions"`
}

// Store persists embedding records for one collection.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a store rooted at dir. The directory is created lazily on
// first write, so constructing a store never touches the disk.
func New(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{dir: dir, logger: logger}
}

// Dir returns the collection directory.
func (s *Store) Dir() string {
	return s.dir
}

// RecordID derives a stable record id from the source item's stable name
// (title or file path). Ids are content-derived, never positional, so they
// survive insertions and deletions in the source set.
func RecordID(name string) string {
	sum := sha256.Sum256([]byte(name))
	return "doc_" + hex.EncodeToString(sum[:16])
}

// Put atomically persists one record keyed by its id, fully replacing any
// prior record for that id. Container directories are created on first write.
func (s *Store) Put(rec Record) error {
	if rec.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecord)
	}
	if len(rec.Embedding) != rec.Dimensions {
		return fmt.Errorf("%w: embedding has %d dimensions, record declares %d",
			ErrInvalidRecord, len(rec.Embedding), rec.Dimensions)
	}

	dir := filepath.Join(s.dir, recordsDir)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating records directory: %w", err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record %q: %w", rec.ID, err)
	}

	return atomicWrite(filepath.Join(dir, rec.ID+recordExt), data)
}

// Get loads one record by id. Returns ErrNotFound if absent and
// ErrCorruptRecord if the stored bytes fail validation.
func (s *Store) Get(id string) (Record, error) {
	data, err := os.ReadFile(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Record{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
		}
		return Record{}, fmt.Errorf("reading record %q: %w", id, err)
	}
	return decodeRecord(id, data)
}

// Has reports whether a record exists for id without loading its content.
func (s *Store) Has(id string) bool {
	_, err := os.Stat(s.recordPath(id))
	return err == nil
}

// LastModified returns the time the record for id was last written, without
// loading record content. Returns ErrNotFound if the record does not exist.
// Used by the pipeline for the skip-if-unchanged decision.
func (s *Store) LastModified(id string) (time.Time, error) {
	info, err := os.Stat(s.recordPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return time.Time{}, fmt.Errorf("record %q: %w", id, ErrNotFound)
		}
		return time.Time{}, fmt.Errorf("stat record %q: %w", id, err)
	}
	return info.ModTime(), nil
}

// Manifest loads the collection manifest. Returns ErrNotFound if the
// collection has never completed a pass.
func (s *Store) Manifest() (Manifest, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, manifestFile))
	if err != nil {
		if os.IsNotExist(err) {
			return Manifest{}, fmt.Errorf("manifest: %w", ErrNotFound)
		}
		return Manifest{}, fmt.Errorf("reading manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("decoding manifest: %w", err)
	}
	return m, nil
}

// PutManifest atomically persists the collection manifest.
func (s *Store) PutManifest(m Manifest) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("creating collection directory: %w", err)
	}

	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}
	return atomicWrite(filepath.Join(s.dir, manifestFile), data)
}

// All reads every persisted record from the current on-disk state. Each call
// re-reads the directory, so a fresh call observes records written since the
// last one. Records that fail to parse or violate the dimension invariant are
// skipped and logged, treated as residue of an interrupted run.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, recordsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // never written to: an empty collection
		}
		return nil, fmt.Errorf("listing records: %w", err)
	}

	// Records from before a dimension change are as unusable as corrupt
	// ones; the manifest is the authority when it exists.
	manifestDims := 0
	if m, err := s.Manifest(); err == nil {
		manifestDims = m.Dimensions
	}

	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, recordExt) {
			continue
		}
		id := strings.TrimSuffix(name, recordExt)

		data, err := os.ReadFile(filepath.Join(s.dir, recordsDir, name))
		if err != nil {
			s.logger.Warn("skipping unreadable record", "id", id, "error", err)
			continue
		}

		rec, err := decodeRecord(id, data)
		if err != nil {
			s.logger.Warn("skipping corrupt record", "id", id, "error", err)
			continue
		}
		if manifestDims > 0 && rec.Dimensions != manifestDims {
			s.logger.Warn("skipping record with stale dimensions",
				"id", id,
				"record_dims", rec.Dimensions,
				"manifest_dims", manifestDims)
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of record files currently on disk, including any
// that would fail validation on read.
func (s *Store) Count() (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, recordsDir))
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("listing records: %w", err)
	}

	count := 0
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), recordExt) {
			count++
		}
	}
	return count, nil
}

// Wipe removes all records and the manifest. This is the explicit full
// collection reset; nothing else ever deletes records.
func (s *Store) Wipe() error {
	if err := os.RemoveAll(filepath.Join(s.dir, recordsDir)); err != nil {
		return fmt.Errorf("removing records: %w", err)
	}
	if err := os.Remove(filepath.Join(s.dir, manifestFile)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing manifest: %w", err)
	}
	s.logger.Debug("collection wiped", "dir", s.dir)
	return nil
}

func (s *Store) recordPath(id string) string {
	return filepath.Join(s.dir, recordsDir, id+recordExt)
}

// decodeRecord parses and validates stored record bytes.
func decodeRecord(id string, data []byte) (Record, error) {
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}
	if rec.ID != id {
		return Record{}, fmt.Errorf("%w: file id %q does not match record id %q",
			ErrCorruptRecord, id, rec.ID)
	}
	if len(rec.Embedding) != rec.Dimensions {
		return Record{}, fmt.Errorf("%w: embedding has %d dimensions, record declares %d",
			ErrCorruptRecord, len(rec.Embedding), rec.Dimensions)
	}
	return rec, nil
}

// atomicWrite writes data to a temporary name in the target directory, then
// renames it into place so readers never observe a half-written file.
func atomicWrite(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("renaming %s into place: %w", filepath.Base(path), err)
	}
	return nil
}
