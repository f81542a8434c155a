// Package separate splits a soundtrack into a vocal stem and a background
// stem with demucs. The vocal stem feeds recognition and diarization; the
// background stem survives untouched into the final mix.
package separate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
)

// Model is the demucs separation model. The quantized mdx_extra variant is
// a fraction of the download size with near-identical two-stem quality.
const Model = "mdx_extra_q"

// Output stem names inside the work directory.
const (
	VocalsFile     = "vocals.wav"
	BackgroundFile = "no_vocals.wav"
)

// ErrExec indicates demucs exited with a failure.
var ErrExec = errors.New("source separation failed")

// ErrNoVocals indicates demucs finished without producing a vocal stem.
var ErrNoVocals = errors.New("no vocal stem produced")

// runFn is the function type for running the demucs command.
type runFn func(ctx context.Context, name string, args []string) (string, error)

// Separator shells out to the demucs binary.
type Separator struct {
	binary string
	run    runFn
	log    *logrus.Entry
}

// Option configures a Separator.
type Option func(*Separator)

// WithBinary overrides the demucs executable path.
func WithBinary(path string) Option {
	return func(s *Separator) { s.binary = path }
}

// WithRunner sets a custom command runner (for testing).
func WithRunner(fn runFn) Option {
	return func(s *Separator) { s.run = fn }
}

// WithLogger sets the structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(s *Separator) {
		if log != nil {
			s.log = log
		}
	}
}

// NewSeparator creates a demucs-backed separator.
func NewSeparator(opts ...Option) *Separator {
	s := &Separator{
		binary: "demucs",
		run:    defaultRun,
		log:    logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Separate runs two-stem separation on audioPath and leaves vocals.wav and
// no_vocals.wav directly in outDir. Demucs nests its results under
// <outDir>/<model>/<input base>/, so the stems are moved up and the model
// directory is removed. Returns the vocal and background stem paths; the
// background path is empty when demucs produced none.
func (s *Separator) Separate(ctx context.Context, audioPath, outDir string) (string, string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create %s: %w", outDir, err)
	}

	args := []string{
		"-n", Model,
		"--two-stems", "vocals",
		"--out", outDir,
		audioPath,
	}
	out, err := s.run(ctx, s.binary, args)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v\n%s", ErrExec, err, strings.TrimSpace(out))
	}

	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	stemDir := filepath.Join(outDir, Model, base)

	vocals := filepath.Join(outDir, VocalsFile)
	if err := os.Rename(filepath.Join(stemDir, VocalsFile), vocals); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNoVocals, err)
	}

	background := filepath.Join(outDir, BackgroundFile)
	if err := os.Rename(filepath.Join(stemDir, BackgroundFile), background); err != nil {
		s.log.WithField("audio", audioPath).Warn("no background stem produced")
		background = ""
	}

	if err := os.RemoveAll(filepath.Join(outDir, Model)); err != nil {
		s.log.WithField("dir", filepath.Join(outDir, Model)).
			Warn("could not remove temporary separation directory")
	}
	return vocals, background, nil
}

// defaultRun is the production implementation.
func defaultRun(ctx context.Context, name string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
