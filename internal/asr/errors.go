package asr

import "errors"

// ErrAPIKeyMissing indicates OPENAI_API_KEY environment variable is not set.
var ErrAPIKeyMissing = errors.New("OPENAI_API_KEY environment variable not set")

// ErrNoSegments indicates the recognition response contained no timed segments.
var ErrNoSegments = errors.New("recognition response contains no segments")
