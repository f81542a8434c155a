package timeline

import "errors"

// Sentinel errors for timeline operations.
var (
	// ErrInvalidTimeline indicates a timeline violating structural invariants
	// (negative start, end <= start, or out-of-order utterances).
	ErrInvalidTimeline = errors.New("invalid timeline")

	// ErrMissingArtifact indicates a required timeline artifact is absent on
	// disk. This is the fatal error class: the enclosing stage cannot run.
	ErrMissingArtifact = errors.New("missing timeline artifact")
)
