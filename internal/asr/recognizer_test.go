package asr_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/asr"
	"github.com/alnah/go-dub/internal/timeline"
)

// ---------------------------------------------------------
// Test doubles
// ---------------------------------------------------------

type fakeClient struct {
	calls int
	resps []openai.AudioResponse
	errs  []error
	last  openai.AudioRequest
}

func (f *fakeClient) CreateTranscription(_ context.Context, req openai.AudioRequest) (openai.AudioResponse, error) {
	f.last = req
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return openai.AudioResponse{}, f.errs[i]
	}
	if i < len(f.resps) {
		return f.resps[i], nil
	}
	return openai.AudioResponse{}, errors.New("fakeClient: no more responses")
}

// audioSegment aliases the anonymous segment struct inside
// openai.AudioResponse so tests can build responses without repeating
// the full field list at every call site.
type audioSegment = struct {
	ID               int     `json:"id"`
	Seek             int     `json:"seek"`
	Start            float64 `json:"start"`
	End              float64 `json:"end"`
	Text             string  `json:"text"`
	Tokens           []int   `json:"tokens"`
	Temperature      float64 `json:"temperature"`
	AvgLogprob       float64 `json:"avg_logprob"`
	CompressionRatio float64 `json:"compression_ratio"`
	NoSpeechProb     float64 `json:"no_speech_prob"`
	Transient        bool    `json:"transient"`
}

func segmentResponse(segs ...audioSegment) openai.AudioResponse {
	resp := openai.AudioResponse{}
	resp.Segments = append(resp.Segments, segs...)
	return resp
}

// ---------------------------------------------------------
// Recognize
// ---------------------------------------------------------

func TestRecognize_ReturnsRoundedSegments(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resps: []openai.AudioResponse{segmentResponse(
		audioSegment{Start: 0.123456, End: 2.987654, Text: "  hello there  "},
		audioSegment{Start: 2.987654, End: 5.0, Text: "general"},
	)}}
	r := asr.NewTestRecognizer(client)

	got, err := r.Recognize(context.Background(), "audio.wav", "en")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	want := []timeline.TextSegment{
		{Start: 0.12, End: 2.99, Text: "hello there"},
		{Start: 2.99, End: 5.0, Text: "general"},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestRecognize_RequestShape(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resps: []openai.AudioResponse{segmentResponse(
		audioSegment{Start: 0, End: 1, Text: "x"},
	)}}
	r := asr.NewTestRecognizer(client)

	if _, err := r.Recognize(context.Background(), "in/audio.wav", "pt"); err != nil {
		t.Fatalf("Recognize: %v", err)
	}

	req := client.last
	if req.Model != asr.ModelWhisper {
		t.Errorf("expected model %q, got %q", asr.ModelWhisper, req.Model)
	}
	if req.FilePath != "in/audio.wav" {
		t.Errorf("expected file path %q, got %q", "in/audio.wav", req.FilePath)
	}
	if req.Format != openai.AudioResponseFormatVerboseJSON {
		t.Errorf("expected verbose JSON format, got %q", req.Format)
	}
	if req.Language != "pt" {
		t.Errorf("expected language %q, got %q", "pt", req.Language)
	}
}

func TestRecognize_DropsEmptySegments(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resps: []openai.AudioResponse{segmentResponse(
		audioSegment{Start: 0, End: 1, Text: "   "},
		audioSegment{Start: 1, End: 2, Text: "kept"},
	)}}
	r := asr.NewTestRecognizer(client)

	got, err := r.Recognize(context.Background(), "audio.wav", "en")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(got) != 1 || got[0].Text != "kept" {
		t.Errorf("expected only the non-blank segment, got %+v", got)
	}
}

func TestRecognize_NoSegments(t *testing.T) {
	t.Parallel()

	client := &fakeClient{resps: []openai.AudioResponse{{}}}
	r := asr.NewTestRecognizer(client)

	_, err := r.Recognize(context.Background(), "audio.wav", "en")
	if !errors.Is(err, asr.ErrNoSegments) {
		t.Errorf("expected ErrNoSegments, got %v", err)
	}
}

func TestRecognize_RetriesRateLimit(t *testing.T) {
	t.Parallel()

	rateErr := &openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"}
	client := &fakeClient{
		errs: []error{rateErr},
		resps: []openai.AudioResponse{{}, segmentResponse(
			audioSegment{Start: 0, End: 1, Text: "ok"},
		)},
	}
	r := asr.NewTestRecognizer(client,
		asr.WithRetryDelays(time.Millisecond, 5*time.Millisecond))

	got, err := r.Recognize(context.Background(), "audio.wav", "en")
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if client.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", client.calls)
	}
	if len(got) != 1 || got[0].Text != "ok" {
		t.Errorf("unexpected segments %+v", got)
	}
}

func TestRecognize_AuthErrorNotRetried(t *testing.T) {
	t.Parallel()

	authErr := &openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}
	client := &fakeClient{errs: []error{authErr, authErr, authErr}}
	r := asr.NewTestRecognizer(client,
		asr.WithRetryDelays(time.Millisecond, 5*time.Millisecond))

	_, err := r.Recognize(context.Background(), "audio.wav", "en")
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if client.calls != 1 {
		t.Errorf("auth failure should not be retried, got %d attempts", client.calls)
	}
}

// ---------------------------------------------------------
// Artifact store
// ---------------------------------------------------------

func TestSegmentsRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	segs := []timeline.TextSegment{
		{Start: 0, End: 2.5, Text: "first"},
		{Start: 2.5, End: 4, Text: "second"},
	}
	if err := asr.SaveSegments(dir, segs); err != nil {
		t.Fatalf("SaveSegments: %v", err)
	}

	got, err := asr.LoadSegments(dir)
	if err != nil {
		t.Fatalf("LoadSegments: %v", err)
	}
	if len(got) != len(segs) {
		t.Fatalf("expected %d segments, got %d", len(segs), len(got))
	}
	for i := range segs {
		if got[i] != segs[i] {
			t.Errorf("segment %d: expected %+v, got %+v", i, segs[i], got[i])
		}
	}
}

func TestLoadSegments_Missing(t *testing.T) {
	t.Parallel()

	_, err := asr.LoadSegments(t.TempDir())
	if !errors.Is(err, timeline.ErrMissingArtifact) {
		t.Errorf("expected ErrMissingArtifact, got %v", err)
	}
}
