// Package config loads and provides application configuration.
//
// On first run, a default YAML config is written to ~/.umitermrc.yaml.
// Subsequent runs read and merge that file with built-in defaults.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds all user-configurable settings (spec.md §9).
type Config struct {
	// DefaultShell is the shell spawned for new panes. Empty means the
	// user's login shell.
	DefaultShell string `yaml:"default_shell"`

	// DefaultDir is the working directory for new panes. Empty means
	// the process's own cwd at launch time.
	DefaultDir string `yaml:"default_dir"`

	// AtlasSize is the glyph atlas's W and H in pixels (square).
	AtlasSize int `yaml:"atlas_size"`

	// FontPath is the primary font file used for glyph rasterization.
	FontPath string `yaml:"font_path"`

	// FallbackFontPath is consulted when the primary font lacks a glyph.
	FallbackFontPath string `yaml:"fallback_font_path"`

	// FontSize is the nominal font size in points.
	FontSize float64 `yaml:"font_size"`

	// Theme names a color palette (dark, light, dracula, nord or
	// solarized); loading validates it, but the renderer does not read it
	// and draws with fixed default and ANSI colors.
	Theme string `yaml:"theme"`

	// BorderThresholdCells is how close (in cells) the pointer must be
	// to a pane-layout split before it counts as a border hit.
	BorderThresholdCells float64 `yaml:"border_threshold_cells"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		DefaultShell:         "",
		DefaultDir:           "",
		AtlasSize:            512,
		FontPath:             "",
		FallbackFontPath:     "",
		FontSize:             14,
		Theme:                "dark",
		BorderThresholdCells: 0.25,
	}
}

// Path returns the path to ~/.umitermrc.yaml.
func Path() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".umitermrc.yaml")
}

// Load reads the config file at Path, falling back to defaults for
// missing fields and for a missing file (which it then creates).
func Load() Config {
	return LoadFrom(Path())
}

// LoadFrom reads the config file at path, falling back to defaults for
// missing fields and for a missing file (which it then creates, unless
// path is empty).
func LoadFrom(path string) Config {
	cfg := DefaultConfig()
	if path == "" {
		return cfg
	}

	data, err := os.ReadFile(path)
	if err != nil {
		_ = writeDefaults(path, cfg)
		return cfg
	}

	_ = yaml.Unmarshal(data, &cfg)
	return clamp(cfg)
}

func clamp(cfg Config) Config {
	if cfg.AtlasSize < 64 {
		cfg.AtlasSize = 64
	}
	if cfg.FontSize <= 0 {
		cfg.FontSize = 14
	}
	if cfg.BorderThresholdCells <= 0 {
		cfg.BorderThresholdCells = 0.25
	}
	validThemes := map[string]bool{"dark": true, "light": true, "dracula": true, "nord": true, "solarized": true}
	if !validThemes[cfg.Theme] {
		cfg.Theme = "dark"
	}
	return cfg
}

// writeDefaults persists the default configuration to disk.
func writeDefaults(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	header := []byte("# umiterm configuration\n# Edit this file to customise defaults.\n\n")
	return os.WriteFile(path, append(header, data...), 0644)
}
