// Package asr turns spoken audio into timed text segments using the OpenAI
// Whisper API. The segment timestamps drive alignment against diarization,
// so they are preserved at the API's own granularity (rounded to 10ms).
package asr

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/timeline"
)

// ModelWhisper is the transcription model used for timed segments.
const ModelWhisper = openai.Whisper1

// Default retry configuration for transient API failures.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Recognizer produces timed transcript segments from an audio file.
type Recognizer interface {
	Recognize(ctx context.Context, audioPath, language string) ([]timeline.TextSegment, error)
}

// audioTranscriber is the slice of the OpenAI client we depend on.
// *openai.Client satisfies it; tests substitute a fake.
type audioTranscriber interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Compile-time interface checks.
var (
	_ audioTranscriber = (*openai.Client)(nil)
	_ Recognizer       = (*OpenAIRecognizer)(nil)
)

// OpenAIRecognizer calls the Whisper transcription endpoint.
type OpenAIRecognizer struct {
	client     audioTranscriber
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RecognizerOption configures an OpenAIRecognizer.
type RecognizerOption func(*OpenAIRecognizer)

// WithMaxRetries sets the maximum number of retry attempts.
func WithMaxRetries(n int) RecognizerOption {
	return func(r *OpenAIRecognizer) {
		if n >= 0 {
			r.maxRetries = n
		}
	}
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) RecognizerOption {
	return func(r *OpenAIRecognizer) {
		if base > 0 {
			r.baseDelay = base
		}
		if max > 0 {
			r.maxDelay = max
		}
	}
}

// NewOpenAIRecognizer creates a Whisper-backed recognizer.
func NewOpenAIRecognizer(client *openai.Client, opts ...RecognizerOption) *OpenAIRecognizer {
	return newRecognizer(client, opts...)
}

func newRecognizer(client audioTranscriber, opts ...RecognizerOption) *OpenAIRecognizer {
	r := &OpenAIRecognizer{
		client:     client,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize transcribes the audio file and returns its timed segments in
// order. Segment boundaries are rounded to two decimal places; segments
// whose trimmed text is empty are dropped.
func (r *OpenAIRecognizer) Recognize(ctx context.Context, audioPath, language string) ([]timeline.TextSegment, error) {
	req := openai.AudioRequest{
		Model:    ModelWhisper,
		FilePath: audioPath,
		Format:   openai.AudioResponseFormatVerboseJSON,
		Language: language,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
		},
	}

	cfg := apierr.RetryConfig{
		MaxRetries: r.maxRetries,
		BaseDelay:  r.baseDelay,
		MaxDelay:   r.maxDelay,
	}
	resp, err := apierr.RetryWithBackoff(ctx, cfg,
		func() (openai.AudioResponse, error) {
			resp, err := r.client.CreateTranscription(ctx, req)
			if err != nil {
				return openai.AudioResponse{}, apierr.ClassifyOpenAI(err)
			}
			return resp, nil
		},
		apierr.IsTransient,
	)
	if err != nil {
		return nil, fmt.Errorf("recognize %s: %w", audioPath, err)
	}

	if len(resp.Segments) == 0 {
		return nil, fmt.Errorf("recognize %s: %w", audioPath, ErrNoSegments)
	}

	segments := make([]timeline.TextSegment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segments = append(segments, timeline.TextSegment{
			Start: round2(s.Start),
			End:   round2(s.End),
			Text:  text,
		})
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("recognize %s: %w", audioPath, ErrNoSegments)
	}
	return segments, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
