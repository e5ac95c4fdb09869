// Package elevenlabs is a small client for the ElevenLabs text-to-speech
// HTTP API: voices, synthesis, history, history audio and account quota.
package elevenlabs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
	"github.com/winedarkmoon/elevengui/internal/textutil"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the public API endpoint.
const DefaultBaseURL = "https://api.elevenlabs.io/v1"

// maxAudioSize bounds how much audio a single response may carry.
const maxAudioSize = 50 * 1024 * 1024

// Client issues authenticated requests against the API. It is safe for
// concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// ClientConfig configures a Client.
type ClientConfig struct {
	APIKey string

	// BaseURL defaults to DefaultBaseURL.
	BaseURL string

	// Timeout per request; zero means 30s.
	Timeout time.Duration

	// RequestsPerMinute throttles outgoing calls; zero disables throttling.
	RequestsPerMinute int

	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// NewClient creates a Client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: hc,
		limiter:    limiter,
	}, nil
}

// ListVoices returns every voice on the account. Entries without an id or
// name are dropped.
func (c *Client) ListVoices(ctx context.Context) ([]Voice, error) {
	var resp voicesResponse
	if err := c.getJSON(ctx, "list voices", "/voices", &resp); err != nil {
		return nil, err
	}

	voices := make([]Voice, 0, len(resp.Voices))
	for _, v := range resp.Voices {
		if v.VoiceID == "" || v.Name == "" {
			log.Debug("Skipping incomplete voice", "id", v.VoiceID, "name", v.Name)
			continue
		}
		voices = append(voices, v)
	}
	return voices, nil
}

// FetchHistory returns the generation history, newest first as the API
// orders it.
func (c *Client) FetchHistory(ctx context.Context) ([]HistoryItem, error) {
	var resp historyResponse
	if err := c.getJSON(ctx, "fetch history", "/history", &resp); err != nil {
		return nil, err
	}
	return resp.History, nil
}

// FetchQuota returns the character usage of the account subscription.
func (c *Client) FetchQuota(ctx context.Context) (Quota, error) {
	var resp userResponse
	if err := c.getJSON(ctx, "fetch quota", "/user", &resp); err != nil {
		return Quota{}, err
	}
	return resp.Subscription, nil
}

// Synthesize converts text to speech with the given voice and settings and
// returns the encoded audio (MP3).
func (c *Client) Synthesize(ctx context.Context, text, voiceID string, stability, similarityBoost float64) ([]byte, error) {
	const op = "synthesize"
	if text == "" {
		return nil, ErrEmptyText
	}
	if n := textutil.CharCount(text); n >= textutil.MaxCharacters {
		return nil, fmt.Errorf("%w: %d characters (limit %d)", ErrTextTooLong, n, textutil.MaxCharacters)
	}
	if voiceID == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrUnknownVoice)
	}

	body, err := json.Marshal(synthesizeRequest{
		Text: text,
		VoiceSettings: VoiceSettings{
			Stability:       clamp01(stability),
			SimilarityBoost: clamp01(similarityBoost),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: encode request: %w", op, err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/text-to-speech/"+url.PathEscape(voiceID), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")

	return c.doBytes(op, req)
}

// FetchHistoryAudio downloads the audio of a history item.
func (c *Client) FetchHistoryAudio(ctx context.Context, historyItemID string) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/history/"+url.PathEscape(historyItemID)+"/audio", nil)
	if err != nil {
		return nil, err
	}
	return c.doBytes("fetch history audio", req)
}

// DownloadPreview fetches a vendor-hosted preview clip. Preview URLs are
// public, so no key is sent.
func (c *Client) DownloadPreview(ctx context.Context, previewURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, previewURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download preview: %w", err)
	}
	return c.doBytes("download preview", req)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait cancelled: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	return req, nil
}

func (c *Client) getJSON(ctx context.Context, op, path string, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(op, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) doBytes(op string, req *http.Request) ([]byte, error) {
	resp, err := c.do(op, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioSize+1))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	if len(data) > maxAudioSize {
		return nil, fmt.Errorf("%s: response too large (max %d bytes)", op, maxAudioSize)
	}
	return data, nil
}

// do sends req and maps failures onto NetworkError / APIError. On success
// the caller owns resp.Body.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	log.Debug("API request", "op", op, "status", resp.StatusCode, "took", time.Since(start))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close() //nolint:errcheck
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(b))}
	}
	return resp, nil
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	default:
		return f
	}
}
