package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatchFile_ReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("theme: dark\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := WatchFile(path)
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(path, []byte("theme: nord\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case cfg := <-w.Changes:
		if cfg.Theme != "nord" {
			t.Errorf("reloaded Theme = %q, want 'nord'", cfg.Theme)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}

func TestWatchFile_StopEndsLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	os.WriteFile(path, []byte("theme: dark\n"), 0644)

	w, err := WatchFile(path)
	if err != nil {
		t.Fatalf("WatchFile: %v", err)
	}
	w.Stop() // should not hang or panic
}
