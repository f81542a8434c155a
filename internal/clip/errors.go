package clip

import "errors"

// Sentinel errors for clip operations.
var (
	// ErrNoUtterances indicates a speaker with no utterances was asked for
	// artifacts.
	ErrNoUtterances = errors.New("speaker has no utterances")
)
