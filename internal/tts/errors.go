package tts

import "errors"

// ErrNoVoices indicates the synthesizer was configured with an empty voice list.
var ErrNoVoices = errors.New("no voices configured")

// ErrEmptyText indicates synthesis was requested for empty text.
var ErrEmptyText = errors.New("empty text")
