package ffmpeg

import "errors"

// Sentinel errors for FFmpeg interaction.
var (
	// ErrNotFound indicates the ffmpeg binary could not be located.
	ErrNotFound = errors.New("ffmpeg not found")

	// ErrExec indicates ffmpeg ran but exited with a failure.
	ErrExec = errors.New("ffmpeg execution failed")
)
