package config

import (
	"path/filepath"
	"testing"
)

func TestCollectionDir(t *testing.T) {
	cfg := &Config{DataDir: "/data/corpus", Collection: "wiki"}

	want := filepath.Join("/data/corpus", "wiki")
	if got := cfg.CollectionDir(); got != want {
		t.Errorf("CollectionDir() = %q, want %q", got, want)
	}
}

func TestCheckpointDir_OutsideCollections(t *testing.T) {
	cfg := &Config{DataDir: "/data/corpus", Collection: "wiki"}

	got := cfg.CheckpointDir()
	if got == cfg.CollectionDir() {
		t.Error("checkpoint dir must not coincide with the collection dir")
	}
	if filepath.Dir(got) != cfg.DataDir {
		t.Errorf("checkpoint dir %q should live directly under data dir %q", got, cfg.DataDir)
	}
}
