package config

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestDefaultConfig_Values(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, want 'dark'", cfg.Theme)
	}
	if cfg.AtlasSize != 512 {
		t.Errorf("AtlasSize = %d, want 512", cfg.AtlasSize)
	}
	if cfg.FontSize != 14 {
		t.Errorf("FontSize = %v, want 14", cfg.FontSize)
	}
	if cfg.BorderThresholdCells != 0.25 {
		t.Errorf("BorderThresholdCells = %v, want 0.25", cfg.BorderThresholdCells)
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test-config.yaml")

	original := DefaultConfig()
	original.Theme = "dracula"
	original.AtlasSize = 1024
	original.FontPath = "/usr/share/fonts/Hack.ttf"

	if err := writeDefaults(path, original); err != nil {
		t.Fatalf("writeDefaults failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	if loaded.Theme != "dracula" {
		t.Errorf("Loaded Theme = %q, want 'dracula'", loaded.Theme)
	}
	if loaded.AtlasSize != 1024 {
		t.Errorf("Loaded AtlasSize = %d, want 1024", loaded.AtlasSize)
	}
	if loaded.FontPath != "/usr/share/fonts/Hack.ttf" {
		t.Errorf("Loaded FontPath = %q, want the original path", loaded.FontPath)
	}
}

func TestLoadFrom_MissingFileWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	cfg := LoadFrom(path)
	if cfg.Theme != "dark" {
		t.Errorf("Theme = %q, want 'dark'", cfg.Theme)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("expected config file to be written on first load: %v", err)
	}
}

func TestLoadFrom_EmptyPathSkipsFileIO(t *testing.T) {
	cfg := LoadFrom("")
	if cfg != DefaultConfig() {
		t.Errorf("cfg = %+v, want defaults", cfg)
	}
}

func TestClamp_AtlasSizeFloor(t *testing.T) {
	cases := []struct{ input, want int }{
		{0, 64}, {-5, 64}, {64, 64}, {512, 512}, {1024, 1024},
	}
	for _, c := range cases {
		cfg := DefaultConfig()
		cfg.AtlasSize = c.input
		got := clamp(cfg).AtlasSize
		if got != c.want {
			t.Errorf("clamp(AtlasSize=%d) = %d, want %d", c.input, got, c.want)
		}
	}
}

func TestClamp_InvalidThemeFallsBackToDark(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Theme = "monokai"
	if got := clamp(cfg).Theme; got != "dark" {
		t.Errorf("Theme = %q, want 'dark'", got)
	}
}

func TestClamp_ValidThemesPreserved(t *testing.T) {
	for _, theme := range []string{"dark", "light", "dracula", "nord", "solarized"} {
		cfg := DefaultConfig()
		cfg.Theme = theme
		if got := clamp(cfg).Theme; got != theme {
			t.Errorf("Theme %q was overwritten to %q", theme, got)
		}
	}
}

func TestClamp_FontSizeNonPositiveFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.FontSize = -1
	if got := clamp(cfg).FontSize; got != 14 {
		t.Errorf("FontSize = %v, want 14", got)
	}
}

func TestLoadFrom_PartialYAMLKeepsDefaultsForMissingFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	if err := os.WriteFile(path, []byte("theme: nord\n"), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg := LoadFrom(path)
	if cfg.Theme != "nord" {
		t.Errorf("Theme = %q, want 'nord'", cfg.Theme)
	}
	if cfg.AtlasSize != 512 {
		t.Errorf("AtlasSize = %d, want default 512", cfg.AtlasSize)
	}
}
