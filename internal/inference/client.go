// Package inference provides the HTTP client for the external voice-cloning
// model. The provider is treated as an opaque remote endpoint speaking the
// predictions API: the client validates inputs, submits the request, and
// extracts the generated audio URL from the response.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/text"
)

// API endpoints and headers.
const (
	apiPredictions    = "/v1/predictions"
	headerContentType = "Content-Type"
	headerAuth        = "Authorization"
	headerPrefer      = "Prefer"
	contentTypeJSON   = "application/json"
	preferWait        = "wait"
	bearerPrefix      = "Bearer "
)

// Input constraints.
const (
	MaxTextLength  = 1000
	defaultTimeout = 60 * time.Second
)

// supportedLanguages is the closed set accepted by the provider. The provider
// is authoritative: codes outside this list are refused before any network
// call is made.
var supportedLanguages = []string{
	"en", "es", "fr", "de", "it", "pt", "pl", "tr", "ru",
	"nl", "cs", "ar", "zh", "hu", "ko", "hi", "ja",
}

// predictionRequest is the JSON payload sent to the provider.
type predictionRequest struct {
	Version string          `json:"version,omitempty"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	Speaker  string `json:"speaker"`
	Text     string `json:"text"`
	Language string `json:"language"`
}

// predictionResponse is the subset of the provider response the client reads.
type predictionResponse struct {
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  string          `json:"error"`
}

// Client calls the voice-cloning provider. It implements core.SpeechGenerator.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiToken     string
	modelVersion string
	languages    map[string]struct{}
}

// NewClient creates a provider client. The baseURL should include the scheme
// and host; the token is sent as a bearer credential on every call.
func NewClient(baseURL, apiToken, modelVersion string) *Client {
	languages := make(map[string]struct{}, len(supportedLanguages))
	for _, code := range supportedLanguages {
		languages[code] = struct{}{}
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		baseURL:      strings.TrimRight(baseURL, "/"),
		apiToken:     apiToken,
		modelVersion: modelVersion,
		languages:    languages,
	}
}

// SupportedLanguages returns the language codes the provider accepts.
func (c *Client) SupportedLanguages() []string {
	out := make([]string, len(supportedLanguages))
	copy(out, supportedLanguages)

	return out
}

// Generate validates req, submits the synthesis call, and returns the URL of
// the generated audio. Validation failures never reach the network.
func (c *Client) Generate(ctx context.Context, req core.GenerateRequest) (string, error) {
	normalized, err := c.validate(req)
	if err != nil {
		return "", err
	}

	payload := predictionRequest{
		Version: c.modelVersion,
		Input: predictionInput{
			Speaker:  req.SpeakerWavURL,
			Text:     normalized,
			Language: req.Language,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal prediction request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+apiPredictions,
		bytes.NewReader(body),
	)
	if err != nil {
		return "", fmt.Errorf("failed to create prediction request: %w", err)
	}

	httpReq.Header.Set(headerContentType, contentTypeJSON)
	httpReq.Header.Set(headerAuth, bearerPrefix+c.apiToken)
	httpReq.Header.Set(headerPrefer, preferWait)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrUpstreamUnavailable, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	return c.parseResponse(resp)
}

// validate enforces the text and language constraints and returns the
// normalized text to send.
func (c *Client) validate(req core.GenerateRequest) (string, error) {
	normalized := text.Normalize(req.Text)

	length := utf8.RuneCountInString(normalized)
	if length == 0 {
		return "", fmt.Errorf("%w: text cannot be empty", core.ErrInvalidInput)
	}

	if length > MaxTextLength {
		return "", fmt.Errorf("%w: text length %d exceeds maximum %d",
			core.ErrInvalidInput, length, MaxTextLength)
	}

	if req.SpeakerWavURL == "" {
		return "", fmt.Errorf("%w: speaker_wav_url cannot be empty", core.ErrInvalidInput)
	}

	if _, ok := c.languages[req.Language]; !ok {
		return "", fmt.Errorf("%w: unsupported language %q", core.ErrInvalidInput, req.Language)
	}

	return normalized, nil
}

// parseResponse maps the provider response to an audio URL or an error kind.
func (c *Client) parseResponse(resp *http.Response) (string, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read provider response: %w",
			core.ErrUpstreamUnavailable, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: provider returned %s: %s",
			core.ErrUpstreamRejected, resp.Status, strings.TrimSpace(string(body)))
	}

	var prediction predictionResponse

	err = json.Unmarshal(body, &prediction)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable provider response: %w",
			core.ErrUpstreamMalformed, err)
	}

	if prediction.Error != "" {
		return "", fmt.Errorf("%w: %s", core.ErrUpstreamRejected, prediction.Error)
	}

	audioURL := extractAudioURL(prediction.Output)
	if audioURL == "" {
		return "", fmt.Errorf("%w: response carries no audio url", core.ErrUpstreamMalformed)
	}

	return audioURL, nil
}

// extractAudioURL handles the output shapes the provider is known to emit: a
// bare URL string, a list of URLs, or an object with an audio field.
func extractAudioURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var asString string
	if json.Unmarshal(raw, &asString) == nil {
		return asString
	}

	var asList []string
	if json.Unmarshal(raw, &asList) == nil && len(asList) > 0 {
		return asList[0]
	}

	var asObject map[string]string
	if json.Unmarshal(raw, &asObject) == nil {
		if url, ok := asObject["audio_url"]; ok {
			return url
		}

		if url, ok := asObject["audio"]; ok {
			return url
		}
	}

	return ""
}
