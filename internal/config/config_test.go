package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alnah/go-dub/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := config.Default().Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
work_dir: /tmp/dub
target_language: pt
merge_gap_seconds: 0.5
stretch:
  converted:
    min: 0.8
    max: 1.2
`)
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.WorkDir != "/tmp/dub" {
		t.Errorf("expected work_dir override, got %q", cfg.WorkDir)
	}
	if cfg.TargetLanguage != "pt" {
		t.Errorf("expected target_language pt, got %q", cfg.TargetLanguage)
	}
	if cfg.MergeGapSeconds != 0.5 {
		t.Errorf("expected merge gap 0.5, got %v", cfg.MergeGapSeconds)
	}
	// Unset fields keep their defaults.
	if cfg.SourceLanguage != "en" {
		t.Errorf("expected default source_language, got %q", cfg.SourceLanguage)
	}
	if cfg.PadMS != 500 {
		t.Errorf("expected default pad_ms, got %d", cfg.PadMS)
	}
	if cfg.Stretch.Converted.Min != 0.8 || cfg.Stretch.Converted.Max != 1.2 {
		t.Errorf("expected converted bounds override, got %+v", cfg.Stretch.Converted)
	}
	if cfg.Stretch.Raw.Min != 0.5 || cfg.Stretch.Raw.Max != 1.5 {
		t.Errorf("expected default raw bounds, got %+v", cfg.Stretch.Raw)
	}
}

func TestLoad_MissingExplicitPath(t *testing.T) {
	t.Parallel()

	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if !errors.Is(err, config.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoad_MissingDefaultFileFallsBack(t *testing.T) {
	// Changes working directory, cannot run in parallel.
	t.Chdir(t.TempDir())

	cfg, err := config.Load(config.DefaultFile)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WorkDir != config.Default().WorkDir {
		t.Errorf("expected pure defaults, got work_dir %q", cfg.WorkDir)
	}
}

func TestLoad_MalformedYAML(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "work_dir: [unclosed")
	_, err := config.Load(path)
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestValidate_Rejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Root)
	}{
		{"empty work dir", func(c *config.Root) { c.WorkDir = "" }},
		{"missing target language", func(c *config.Root) { c.TargetLanguage = "" }},
		{"unknown source language", func(c *config.Root) { c.SourceLanguage = "xx" }},
		{"negative merge gap", func(c *config.Root) { c.MergeGapSeconds = -1 }},
		{"negative pad", func(c *config.Root) { c.PadMS = -1 }},
		{"negative window", func(c *config.Root) { c.ReferenceWindow = -1 }},
		{"no voices", func(c *config.Root) { c.TTS.Voices = nil }},
		{"zero diffusion steps", func(c *config.Root) { c.SeedVC.DiffusionSteps = 0 }},
		{"inverted bounds", func(c *config.Root) { c.Stretch.Raw = config.Bounds{Min: 2, Max: 1} }},
		{"zero min bound", func(c *config.Root) { c.Stretch.Converted = config.Bounds{Min: 0, Max: 1.25} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, config.ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}
