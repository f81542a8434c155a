// Package diarize identifies who speaks when. It drives the AssemblyAI
// speech-to-text API with speaker labels enabled and reduces the response
// to plain speaker turns in seconds, which the alignment step consumes.
package diarize

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-dub/internal/apierr"
	"github.com/alnah/go-dub/internal/timeline"
)

// DefaultBaseURL is the AssemblyAI API endpoint.
const DefaultBaseURL = "https://api.assemblyai.com/v2"

const (
	defaultPollInterval = 3 * time.Second
	defaultTimeout      = 5 * time.Minute
)

// Diarizer segments an audio file into speaker turns.
type Diarizer interface {
	Diarize(ctx context.Context, audioPath, language string) ([]timeline.SpeakerSegment, error)
}

// httpDoer abstracts *http.Client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// AssemblyAI runs speaker diarization through the AssemblyAI REST API.
// The flow is upload, create transcript job, poll until terminal state.
type AssemblyAI struct {
	apiKey       string
	baseURL      string
	client       httpDoer
	pollInterval time.Duration
	log          *logrus.Entry
}

// Compile-time interface check.
var _ Diarizer = (*AssemblyAI)(nil)

// Option configures an AssemblyAI client.
type Option func(*AssemblyAI)

// WithBaseURL overrides the API endpoint (test servers).
func WithBaseURL(url string) Option {
	return func(a *AssemblyAI) { a.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c httpDoer) Option {
	return func(a *AssemblyAI) { a.client = c }
}

// WithPollInterval sets the delay between job status checks.
func WithPollInterval(d time.Duration) Option {
	return func(a *AssemblyAI) {
		if d > 0 {
			a.pollInterval = d
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(log *logrus.Entry) Option {
	return func(a *AssemblyAI) {
		if log != nil {
			a.log = log
		}
	}
}

// NewAssemblyAI creates a diarization client with the given API key.
func NewAssemblyAI(apiKey string, opts ...Option) (*AssemblyAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("assemblyai: %w", ErrAPIKeyMissing)
	}
	a := &AssemblyAI{
		apiKey:       apiKey,
		baseURL:      DefaultBaseURL,
		client:       &http.Client{Timeout: defaultTimeout},
		pollInterval: defaultPollInterval,
		log:          logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

type uploadResponse struct {
	UploadURL string `json:"upload_url"`
}

type transcriptRequest struct {
	AudioURL      string `json:"audio_url"`
	SpeakerLabels bool   `json:"speaker_labels"`
	LanguageCode  string `json:"language_code,omitempty"`
}

type transcriptResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	Error      string `json:"error"`
	Utterances []struct {
		Speaker string `json:"speaker"`
		Start   int    `json:"start"`
		End     int    `json:"end"`
	} `json:"utterances"`
}

// Diarize uploads the audio, starts a speaker-labeled transcription job and
// polls until it completes. Utterance boundaries arrive in milliseconds and
// are converted to seconds with millisecond precision.
func (a *AssemblyAI) Diarize(ctx context.Context, audioPath, language string) ([]timeline.SpeakerSegment, error) {
	audioURL, err := a.upload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	a.log.WithField("file", audioPath).Debug("audio uploaded for diarization")

	jobID, err := a.createJob(ctx, audioURL, language)
	if err != nil {
		return nil, err
	}
	a.log.WithField("job", jobID).Debug("diarization job created")

	resp, err := a.poll(ctx, jobID)
	if err != nil {
		return nil, err
	}

	if len(resp.Utterances) == 0 {
		return nil, fmt.Errorf("assemblyai: job %s: %w", jobID, ErrNoUtterances)
	}
	turns := make([]timeline.SpeakerSegment, 0, len(resp.Utterances))
	for _, u := range resp.Utterances {
		turns = append(turns, timeline.SpeakerSegment{
			Speaker: timeline.SpeakerID(u.Speaker),
			Start:   msToSec(u.Start),
			End:     msToSec(u.End),
		})
	}
	return turns, nil
}

func (a *AssemblyAI) upload(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath) // #nosec G304 -- path comes from pipeline work dir
	if err != nil {
		return "", fmt.Errorf("assemblyai: open audio: %w", err)
	}
	defer f.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/upload", f)
	if err != nil {
		return "", fmt.Errorf("assemblyai: create upload request: %w", err)
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/octet-stream")

	var out uploadResponse
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("assemblyai: upload: %w", err)
	}
	if out.UploadURL == "" {
		return "", fmt.Errorf("assemblyai: upload: %w: empty upload_url", apierr.ErrServer)
	}
	return out.UploadURL, nil
}

func (a *AssemblyAI) createJob(ctx context.Context, audioURL, language string) (string, error) {
	payload, err := json.Marshal(transcriptRequest{
		AudioURL:      audioURL,
		SpeakerLabels: true,
		LanguageCode:  language,
	})
	if err != nil {
		return "", fmt.Errorf("assemblyai: marshal job request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		a.baseURL+"/transcript", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("assemblyai: create job request: %w", err)
	}
	req.Header.Set("Authorization", a.apiKey)
	req.Header.Set("Content-Type", "application/json")

	var out transcriptResponse
	if err := a.do(req, &out); err != nil {
		return "", fmt.Errorf("assemblyai: create job: %w", err)
	}
	if out.ID == "" {
		return "", fmt.Errorf("assemblyai: create job: %w: empty job id", apierr.ErrServer)
	}
	return out.ID, nil
}

func (a *AssemblyAI) poll(ctx context.Context, jobID string) (*transcriptResponse, error) {
	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			a.baseURL+"/transcript/"+jobID, nil)
		if err != nil {
			return nil, fmt.Errorf("assemblyai: create poll request: %w", err)
		}
		req.Header.Set("Authorization", a.apiKey)

		var out transcriptResponse
		if err := a.do(req, &out); err != nil {
			return nil, fmt.Errorf("assemblyai: poll job %s: %w", jobID, err)
		}

		switch out.Status {
		case "completed":
			return &out, nil
		case "error":
			return nil, fmt.Errorf("assemblyai: job %s: %s: %w", jobID, out.Error, ErrJobFailed)
		}

		timer := time.NewTimer(a.pollInterval)
		select {
		case <-ctx.Done():
			if !timer.Stop() {
				<-timer.C
			}
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// do executes the request, classifies non-2xx statuses into apierr
// sentinels and decodes the body into out.
func (a *AssemblyAI) do(req *http.Request, out any) error {
	resp, err := a.client.Do(req)
	if err != nil {
		if req.Context().Err() != nil {
			return fmt.Errorf("%w: %v", apierr.ErrTimeout, err)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return classifyStatus(resp.StatusCode, body)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func classifyStatus(code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("status %d: %s: %w", code, snippet, apierr.ErrRateLimit)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("status %d: %s: %w", code, snippet, apierr.ErrAuthFailed)
	case code >= 500:
		return fmt.Errorf("status %d: %s: %w", code, snippet, apierr.ErrServer)
	default:
		return fmt.Errorf("status %d: %s: %w", code, snippet, apierr.ErrBadRequest)
	}
}

// msToSec converts milliseconds to seconds with millisecond precision.
func msToSec(ms int) float64 {
	return float64(ms) / 1000
}
