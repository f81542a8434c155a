package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/alnah/go-dub/internal/apierr"
)

// DefaultBaseURL is the DeepL API endpoint for free-tier keys.
const DefaultBaseURL = "https://api-free.deepl.com/v2"

const defaultTimeout = 30 * time.Second

// httpDoer abstracts *http.Client for testing.
type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeepL translates text through the DeepL REST API.
type DeepL struct {
	apiKey  string
	baseURL string
	client  httpDoer
}

// Compile-time interface check.
var _ Translator = (*DeepL)(nil)

// DeepLOption configures a DeepL client.
type DeepLOption func(*DeepL)

// WithBaseURL overrides the API endpoint (pro-tier keys, test servers).
func WithBaseURL(url string) DeepLOption {
	return func(d *DeepL) { d.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(c httpDoer) DeepLOption {
	return func(d *DeepL) { d.client = c }
}

// NewDeepL creates a DeepL client with the given API key.
func NewDeepL(apiKey string, opts ...DeepLOption) (*DeepL, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepl: %w: missing API key", apierr.ErrAuthFailed)
	}
	d := &DeepL{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type deeplRequest struct {
	Text       []string `json:"text"`
	SourceLang string   `json:"source_lang,omitempty"`
	TargetLang string   `json:"target_lang"`
}

type deeplResponse struct {
	Translations []struct {
		Text string `json:"text"`
	} `json:"translations"`
}

// Translate sends a single text to DeepL and returns the translation.
// Language codes are uppercased on the wire ("en" and "EN" both work).
func (d *DeepL) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	payload, err := json.Marshal(deeplRequest{
		Text:       []string{text},
		SourceLang: strings.ToUpper(sourceLang),
		TargetLang: strings.ToUpper(targetLang),
	})
	if err != nil {
		return "", fmt.Errorf("deepl: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/translate", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("deepl: create request: %w", err)
	}
	req.Header.Set("Authorization", "DeepL-Auth-Key "+d.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("deepl: %w: %v", apierr.ErrTimeout, err)
		}
		return "", fmt.Errorf("deepl: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("deepl: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", classifyStatus(resp.StatusCode, body)
	}

	var out deeplResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("deepl: decode response: %w", err)
	}
	if len(out.Translations) == 0 {
		return "", fmt.Errorf("deepl: %w: empty translations array", apierr.ErrServer)
	}
	return out.Translations[0].Text, nil
}

// classifyStatus maps DeepL HTTP status codes to apierr sentinels.
// 456 is DeepL's own "quota exceeded" status.
func classifyStatus(code int, body []byte) error {
	snippet := strings.TrimSpace(string(body))
	if len(snippet) > 200 {
		snippet = snippet[:200]
	}
	switch {
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("deepl: status %d: %s: %w", code, snippet, apierr.ErrRateLimit)
	case code == 456:
		return fmt.Errorf("deepl: status %d: %s: %w", code, snippet, apierr.ErrQuotaExceeded)
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return fmt.Errorf("deepl: status %d: %s: %w", code, snippet, apierr.ErrAuthFailed)
	case code >= 500:
		return fmt.Errorf("deepl: status %d: %s: %w", code, snippet, apierr.ErrServer)
	default:
		return fmt.Errorf("deepl: status %d: %s: %w", code, snippet, apierr.ErrBadRequest)
	}
}
