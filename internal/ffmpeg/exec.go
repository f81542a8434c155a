// Package ffmpeg wraps the ffmpeg binary for the media operations the
// pipeline delegates to it: extracting audio from video, time-stretching
// with the atempo filter, and muxing the dubbed track back into the video.
package ffmpeg

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// runOutputFn is the function type for running a command and capturing its
// stderr output.
type runOutputFn func(ctx context.Context, path string, args []string) (string, error)

// Executor runs FFmpeg commands with injectable dependencies.
type Executor struct {
	path      string
	runOutput runOutputFn
}

// Option configures an Executor.
type Option func(*Executor)

// WithRunOutput sets a custom runOutput function (for testing).
func WithRunOutput(fn runOutputFn) Option {
	return func(e *Executor) { e.runOutput = fn }
}

// NewExecutor creates an Executor for the ffmpeg binary at path.
func NewExecutor(path string, opts ...Option) *Executor {
	e := &Executor{
		path:      path,
		runOutput: defaultRunOutput,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes ffmpeg with the given arguments and fails with the captured
// stderr on a non-zero exit. FFmpeg writes its diagnostics to stderr.
func (e *Executor) Run(ctx context.Context, args ...string) error {
	out, err := e.runOutput(ctx, e.path, args)
	if err != nil {
		return fmt.Errorf("%w: %v\n%s", ErrExec, err, out)
	}
	return nil
}

// defaultRunOutput is the production implementation.
func defaultRunOutput(ctx context.Context, path string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}
