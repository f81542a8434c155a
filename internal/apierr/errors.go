// Package apierr provides shared error sentinels and retry infrastructure
// for the pipeline's external service boundaries (translation, diarization,
// recognition, synthesis). Each client classifies its provider-specific
// failures into these sentinels at the adapter boundary.
//
// Clients wrap with fmt.Errorf("%s: %w", msg, sentinel); callers check with
// errors.Is(err, apierr.ErrRateLimit) etc.
package apierr

import "errors"

// Sentinel errors for API interaction failures.
var (
	// ErrRateLimit indicates the service rate limit was exceeded
	// (temporary, retryable with backoff).
	ErrRateLimit = errors.New("rate limit exceeded")

	// ErrQuotaExceeded indicates the account quota was exhausted
	// (billing issue, not retryable).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrTimeout indicates a request timed out.
	ErrTimeout = errors.New("request timeout")

	// ErrAuthFailed indicates authentication failed (invalid key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrBadRequest indicates a client error (4xx) not otherwise classified.
	ErrBadRequest = errors.New("bad request")

	// ErrServer indicates a provider-side failure (5xx).
	ErrServer = errors.New("server error")
)
