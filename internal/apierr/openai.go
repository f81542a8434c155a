package apierr

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// ClassifyOpenAI maps OpenAI API errors to sentinel errors. Errors that are
// not OpenAI API errors pass through unchanged, except context deadline
// expiry which becomes ErrTimeout.
func ClassifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.HTTPStatusCode {
		case http.StatusTooManyRequests:
			if apiErr.Type == "insufficient_quota" {
				return fmt.Errorf("openai: %s: %w", apiErr.Message, ErrQuotaExceeded)
			}
			return fmt.Errorf("openai: %s: %w", apiErr.Message, ErrRateLimit)
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("openai: %s: %w", apiErr.Message, ErrAuthFailed)
		}
		if apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("openai: %s: %w", apiErr.Message, ErrServer)
		}
		return fmt.Errorf("openai: %s: %w", apiErr.Message, ErrBadRequest)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("openai: %w", ErrTimeout)
	}
	return err
}

// IsTransient reports whether an error is worth retrying with backoff.
// Quota, auth and bad-request failures require user action and are not
// transient.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimit) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrServer)
}
