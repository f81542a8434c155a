// Package tts synthesizes translated utterance text into speech clips using
// the OpenAI speech API. Each detected speaker is pinned to one synthetic
// voice for the whole timeline so a speaker sounds consistent across
// utterances before voice conversion personalizes the result.
package tts

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/timeline"
)

// DefaultModel is the speech synthesis model.
const DefaultModel = openai.TTSModel1

// DefaultVoices is the rotation assigned to speakers in order of first
// appearance. More speakers than voices wraps around.
var DefaultVoices = []openai.SpeechVoice{
	openai.VoiceAlloy,
	openai.VoiceEcho,
	openai.VoiceNova,
	openai.VoiceOnyx,
	openai.VoiceShimmer,
	openai.VoiceFable,
}

// Default retry configuration for transient API failures.
const (
	defaultMaxRetries = 3
	defaultBaseDelay  = 1 * time.Second
	defaultMaxDelay   = 30 * time.Second
)

// Synthesizer renders text to a WAV file on disk.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, voice openai.SpeechVoice, outPath string) error
}

// speechCreator is the slice of the OpenAI client we depend on.
type speechCreator interface {
	CreateSpeech(ctx context.Context, req openai.CreateSpeechRequest) (openai.RawResponse, error)
}

// Compile-time interface checks.
var (
	_ speechCreator = (*openai.Client)(nil)
	_ Synthesizer   = (*OpenAISynthesizer)(nil)
)

// OpenAISynthesizer calls the OpenAI speech endpoint.
type OpenAISynthesizer struct {
	client     speechCreator
	model      openai.SpeechModel
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// SynthesizerOption configures an OpenAISynthesizer.
type SynthesizerOption func(*OpenAISynthesizer)

// WithModel overrides the synthesis model.
func WithModel(m openai.SpeechModel) SynthesizerOption {
	return func(s *OpenAISynthesizer) { s.model = m }
}

// WithRetryDelays sets the base and max delays for exponential backoff.
func WithRetryDelays(base, max time.Duration) SynthesizerOption {
	return func(s *OpenAISynthesizer) {
		if base > 0 {
			s.baseDelay = base
		}
		if max > 0 {
			s.maxDelay = max
		}
	}
}

// NewOpenAISynthesizer creates a speech synthesizer.
func NewOpenAISynthesizer(client *openai.Client, opts ...SynthesizerOption) *OpenAISynthesizer {
	return newSynthesizer(client, opts...)
}

func newSynthesizer(client speechCreator, opts ...SynthesizerOption) *OpenAISynthesizer {
	s := &OpenAISynthesizer{
		client:     client,
		model:      DefaultModel,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
		maxDelay:   defaultMaxDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Synthesize renders text with the given voice and writes the WAV bytes to
// outPath.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string, voice openai.SpeechVoice, outPath string) error {
	if text == "" {
		return fmt.Errorf("synthesize %s: %w", outPath, ErrEmptyText)
	}

	req := openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          voice,
		ResponseFormat: openai.SpeechResponseFormatWav,
	}

	cfg := apierr.RetryConfig{
		MaxRetries: s.maxRetries,
		BaseDelay:  s.baseDelay,
		MaxDelay:   s.maxDelay,
	}
	data, err := apierr.RetryWithBackoff(ctx, cfg,
		func() ([]byte, error) {
			resp, err := s.client.CreateSpeech(ctx, req)
			if err != nil {
				return nil, apierr.ClassifyOpenAI(err)
			}
			defer resp.Close()
			return io.ReadAll(resp)
		},
		apierr.IsTransient,
	)
	if err != nil {
		return fmt.Errorf("synthesize %s: %w", outPath, err)
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outPath, err)
	}
	return nil
}

// VoiceMap assigns a voice to every speaker in order of first appearance,
// wrapping around when there are more speakers than voices.
func VoiceMap(tl timeline.Timeline, voices []openai.SpeechVoice) (map[timeline.SpeakerID]openai.SpeechVoice, error) {
	if len(voices) == 0 {
		return nil, ErrNoVoices
	}
	assignment := make(map[timeline.SpeakerID]openai.SpeechVoice)
	for i, speaker := range tl.Speakers() {
		assignment[speaker] = voices[i%len(voices)]
	}
	return assignment, nil
}
