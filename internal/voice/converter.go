// Package voice personalizes synthesized speech. The seed-vc tool rewrites
// a source clip in the timbre of a target speaker reference, which makes a
// stock synthesis voice sound like the original speaker.
package voice

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// seed-vc inference parameters. Higher diffusion steps trade speed for
// conversion quality.
const (
	defaultDiffusionSteps = 125
	defaultLengthAdjust   = 1.0
	defaultCFGRate        = 0.7
)

// Converter rewrites the source clip in the voice of the target reference
// and writes the result to outPath.
type Converter interface {
	Convert(ctx context.Context, sourcePath, targetPath, outPath string) error
}

// runFn is the function type for running the conversion command.
type runFn func(ctx context.Context, name string, args []string) (string, error)

// SeedVC shells out to the seed-vc inference script.
type SeedVC struct {
	python         string
	script         string
	diffusionSteps int
	run            runFn
}

// Compile-time interface check.
var _ Converter = (*SeedVC)(nil)

// Option configures a SeedVC converter.
type Option func(*SeedVC)

// WithDiffusionSteps sets the diffusion step count.
func WithDiffusionSteps(n int) Option {
	return func(s *SeedVC) {
		if n > 0 {
			s.diffusionSteps = n
		}
	}
}

// WithRunner sets a custom command runner (for testing).
func WithRunner(fn runFn) Option {
	return func(s *SeedVC) { s.run = fn }
}

// NewSeedVC creates a converter that runs `python script` per clip.
// python is the interpreter of the seed-vc environment; script is the path
// to its inference entry point.
func NewSeedVC(python, script string, opts ...Option) *SeedVC {
	s := &SeedVC{
		python:         python,
		script:         script,
		diffusionSteps: defaultDiffusionSteps,
		run:            defaultRun,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Convert runs one source clip through seed-vc against the target reference.
// The tool names its output file itself inside the output directory, so the
// conversion runs into a scratch directory and the single WAV it produces is
// moved to outPath.
func (s *SeedVC) Convert(ctx context.Context, sourcePath, targetPath, outPath string) error {
	scratch, err := os.MkdirTemp(filepath.Dir(outPath), "vc-*")
	if err != nil {
		return fmt.Errorf("create scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch)

	args := []string{
		s.script,
		"--source", sourcePath,
		"--target", targetPath,
		"--output", scratch,
		"--diffusion-steps", strconv.Itoa(s.diffusionSteps),
		"--length-adjust", strconv.FormatFloat(defaultLengthAdjust, 'f', 1, 64),
		"--inference-cfg-rate", strconv.FormatFloat(defaultCFGRate, 'f', 1, 64),
	}
	out, err := s.run(ctx, s.python, args)
	if err != nil {
		return fmt.Errorf("%w: convert %s: %v\n%s", ErrExec, sourcePath, err, strings.TrimSpace(out))
	}

	produced, err := findWAV(scratch)
	if err != nil {
		return fmt.Errorf("convert %s: %w", sourcePath, err)
	}
	if err := os.Rename(produced, outPath); err != nil {
		return fmt.Errorf("move converted clip: %w", err)
	}
	return nil
}

// findWAV returns the first .wav file in dir.
func findWAV(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read output dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".wav") {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", ErrNoOutput
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
