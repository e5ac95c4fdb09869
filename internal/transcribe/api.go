package transcribe

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// WhisperAPI transcribes through the OpenAI audio endpoint.
type WhisperAPI struct {
	client *openai.Client
}

// NewWhisperAPI creates an API backend. An empty baseURL uses the public
// endpoint.
func NewWhisperAPI(apiKey, baseURL string) *WhisperAPI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &WhisperAPI{client: openai.NewClientWithConfig(cfg)}
}

// Name implements Transcriber.
func (w *WhisperAPI) Name() string { return BackendAPI }

// Transcribe uploads path to whisper-1 and returns the raw text.
func (w *WhisperAPI) Transcribe(ctx context.Context, path string) (string, error) {
	resp, err := w.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: path,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", fmt.Errorf("whisper api: %w", err)
	}
	return resp.Text, nil
}
