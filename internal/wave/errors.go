package wave

import "errors"

// Sentinel errors for waveform operations.
var (
	// ErrNotWAV indicates a file that is not a valid WAV container.
	ErrNotWAV = errors.New("not a valid wav file")

	// ErrFormatMismatch indicates two buffers with incompatible sample rates
	// or channel layouts were combined.
	ErrFormatMismatch = errors.New("waveform format mismatch")

	// ErrEmptyInput indicates an operation was given no audio to work with.
	ErrEmptyInput = errors.New("empty audio input")
)
