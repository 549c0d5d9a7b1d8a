package checkpoint

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadMissingReturnsNil(t *testing.T) {
	tr := NewTracker(t.TempDir(), "docs", testLogger())

	cp, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp != nil {
		t.Errorf("Load returned %+v for missing checkpoint, want nil", cp)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	tr := NewTracker(t.TempDir(), "docs", testLogger())

	in := Checkpoint{
		RunID:           "run-1",
		ProcessedCount:  17,
		TotalCount:      120,
		LastProcessedID: "doc_abc",
		Complete:        false,
	}
	if err := tr.Save(in); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil {
		t.Fatal("Load returned nil after Save")
	}
	if got.ProcessedCount != in.ProcessedCount || got.LastProcessedID != in.LastProcessedID {
		t.Errorf("Load returned %+v, want progress from %+v", got, in)
	}
	if got.Collection != "docs" {
		t.Errorf("Collection = %q, want %q", got.Collection, "docs")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped on save")
	}
}

func TestSaveReplacesPrevious(t *testing.T) {
	tr := NewTracker(t.TempDir(), "docs", testLogger())

	if err := tr.Save(Checkpoint{ProcessedCount: 10, TotalCount: 100}); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	if err := tr.Save(Checkpoint{ProcessedCount: 100, TotalCount: 100, Complete: true}); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.ProcessedCount != 100 || !got.Complete {
		t.Errorf("Load returned %+v, want the later checkpoint", got)
	}
}

func TestLoadDiscardsCorruptCheckpoint(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir, "docs", testLogger())

	if err := os.WriteFile(filepath.Join(dir, "docs.json"), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt checkpoint: %v", err)
	}

	cp, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed on corrupt checkpoint: %v", err)
	}
	if cp != nil {
		t.Errorf("Load returned %+v for corrupt checkpoint, want nil", cp)
	}
}

func TestReset(t *testing.T) {
	tr := NewTracker(t.TempDir(), "docs", testLogger())

	if err := tr.Save(Checkpoint{ProcessedCount: 5}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := tr.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}

	cp, err := tr.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp != nil {
		t.Errorf("checkpoint survived Reset: %+v", cp)
	}

	// Resetting again is a no-op.
	if err := tr.Reset(); err != nil {
		t.Errorf("second Reset failed: %v", err)
	}
}

func TestSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	tr := NewTracker(dir, "docs", testLogger())

	if err := tr.Save(Checkpoint{ProcessedCount: 1}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading checkpoint dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestTrackersIsolatedPerCollection(t *testing.T) {
	dir := t.TempDir()
	docs := NewTracker(dir, "docs", testLogger())
	wiki := NewTracker(dir, "wiki", testLogger())

	if err := docs.Save(Checkpoint{ProcessedCount: 7}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	cp, err := wiki.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cp != nil {
		t.Errorf("wiki tracker saw docs checkpoint: %+v", cp)
	}
}
