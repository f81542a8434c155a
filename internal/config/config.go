// Package config loads the YAML pipeline configuration. Everything tunable
// lives here; credentials never do, they come from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alnah/go-dub/internal/lang"
	"github.com/alnah/go-dub/internal/stretch"
	"github.com/alnah/go-dub/internal/translate"
)

// DefaultFile is the config path used when --config is not given.
const DefaultFile = "config.yaml"

// Bounds is a closed stretch-ratio interval.
type Bounds struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

// Stretch holds the ratio bounds for raw and voice-converted audio.
// Converted audio tolerates less stretching before it sounds warped.
type Stretch struct {
	Raw       Bounds `yaml:"raw"`
	Converted Bounds `yaml:"converted"`
}

// TTS holds speech synthesis settings.
type TTS struct {
	Model  string   `yaml:"model"`
	Voices []string `yaml:"voices"`
}

// SeedVC holds voice conversion tool settings.
type SeedVC struct {
	Python         string `yaml:"python"`
	Script         string `yaml:"script"`
	DiffusionSteps int    `yaml:"diffusion_steps"`
}

// Services holds external service endpoints. Only overridden in tests or
// for self-hosted proxies.
type Services struct {
	DeepLURL      string `yaml:"deepl_url"`
	AssemblyAIURL string `yaml:"assemblyai_url"`
}

// Root is the full pipeline configuration.
type Root struct {
	WorkDir         string   `yaml:"work_dir"`
	SourceLanguage  string   `yaml:"source_language"`
	TargetLanguage  string   `yaml:"target_language"`
	MergeGapSeconds float64  `yaml:"merge_gap_seconds"`
	PadMS           int      `yaml:"pad_ms"`
	ReferenceWindow int      `yaml:"reference_window"`
	Stretch         Stretch  `yaml:"stretch"`
	TTS             TTS      `yaml:"tts"`
	SeedVC          SeedVC   `yaml:"seed_vc"`
	Demucs          string   `yaml:"demucs"`
	Services        Services `yaml:"services"`
}

// Default returns the configuration used when a field (or the whole file)
// is absent.
func Default() *Root {
	return &Root{
		WorkDir:         "data/processed",
		SourceLanguage:  "en",
		TargetLanguage:  "es",
		MergeGapSeconds: 1.0,
		PadMS:           500,
		ReferenceWindow: 1,
		Stretch: Stretch{
			Raw:       Bounds{Min: stretch.RawBounds.Min, Max: stretch.RawBounds.Max},
			Converted: Bounds{Min: stretch.ConvertedBounds.Min, Max: stretch.ConvertedBounds.Max},
		},
		TTS: TTS{
			Model:  "tts-1",
			Voices: []string{"alloy", "echo", "nova", "onyx", "shimmer", "fable"},
		},
		SeedVC: SeedVC{
			Python:         "python",
			Script:         "seed-vc/inference.py",
			DiffusionSteps: 125,
		},
		Demucs: "demucs",
		Services: Services{
			DeepLURL:      translate.DefaultBaseURL,
			AssemblyAIURL: "https://api.assemblyai.com/v2",
		},
	}
}

// Load reads path, layers it over the defaults and validates the result.
// A missing file is an error only when the caller asked for a specific
// path; Load(DefaultFile) falls back to pure defaults.
func Load(path string) (*Root, error) {
	cfg := Default()

	data, err := os.ReadFile(path) // #nosec G304 -- path comes from the --config flag
	if err != nil {
		if os.IsNotExist(err) {
			if path == DefaultFile {
				return cfg, nil
			}
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the invariants the pipeline depends on.
func (c *Root) Validate() error {
	switch {
	case c.WorkDir == "":
		return fmt.Errorf("%w: work_dir is empty", ErrInvalid)
	case c.MergeGapSeconds < 0:
		return fmt.Errorf("%w: merge_gap_seconds must be >= 0", ErrInvalid)
	case c.PadMS < 0:
		return fmt.Errorf("%w: pad_ms must be >= 0", ErrInvalid)
	case c.ReferenceWindow < 0:
		return fmt.Errorf("%w: reference_window must be >= 0", ErrInvalid)
	case len(c.TTS.Voices) == 0:
		return fmt.Errorf("%w: tts.voices is empty", ErrInvalid)
	case c.SeedVC.DiffusionSteps <= 0:
		return fmt.Errorf("%w: seed_vc.diffusion_steps must be > 0", ErrInvalid)
	}
	for _, b := range []struct {
		name   string
		bounds Bounds
	}{
		{"stretch.raw", c.Stretch.Raw},
		{"stretch.converted", c.Stretch.Converted},
	} {
		if b.bounds.Min <= 0 || b.bounds.Max < b.bounds.Min {
			return fmt.Errorf("%w: %s bounds must satisfy 0 < min <= max", ErrInvalid, b.name)
		}
	}
	if err := lang.Validate(c.SourceLanguage); err != nil {
		return fmt.Errorf("%w: source_language: %v", ErrInvalid, err)
	}
	if err := lang.Validate(c.TargetLanguage); err != nil {
		return fmt.Errorf("%w: target_language: %v", ErrInvalid, err)
	}
	return nil
}

// RawBounds converts the configured raw-audio bounds.
func (c *Root) RawBounds() stretch.Bounds {
	return stretch.Bounds{Min: c.Stretch.Raw.Min, Max: c.Stretch.Raw.Max}
}

// ConvertedBounds converts the configured converted-audio bounds.
func (c *Root) ConvertedBounds() stretch.Bounds {
	return stretch.Bounds{Min: c.Stretch.Converted.Min, Max: c.Stretch.Converted.Max}
}
