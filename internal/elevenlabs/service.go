package elevenlabs

import (
	"context"

	"github.com/charmbracelet/log"
)

// API is the set of calls the UI needs. *Client implements it.
type API interface {
	ListVoices(ctx context.Context) ([]Voice, error)
	FetchHistory(ctx context.Context) ([]HistoryItem, error)
	FetchQuota(ctx context.Context) (Quota, error)
	Synthesize(ctx context.Context, text, voiceID string, stability, similarityBoost float64) ([]byte, error)
	FetchHistoryAudio(ctx context.Context, historyItemID string) ([]byte, error)
	DownloadPreview(ctx context.Context, previewURL string) ([]byte, error)
}

var _ API = (*Client)(nil)

// Service wraps an API with the degrade-to-empty policy used by the UI:
// every failure is logged and turned into an empty result, never returned.
type Service struct {
	api API
}

// NewService wraps api.
func NewService(api API) *Service {
	return &Service{api: api}
}

// Voices returns the voice list, or nil on failure.
func (s *Service) Voices(ctx context.Context) []Voice {
	voices, err := s.api.ListVoices(ctx)
	if err != nil {
		logFailure("Error fetching voices", err)
		return nil
	}
	return voices
}

// History returns the generation history, or nil on failure.
func (s *Service) History(ctx context.Context) []HistoryItem {
	items, err := s.api.FetchHistory(ctx)
	if err != nil {
		logFailure("Failed to fetch the history", err)
		return nil
	}
	return items
}

// Quota returns the account quota and whether it could be fetched.
func (s *Service) Quota(ctx context.Context) (Quota, bool) {
	q, err := s.api.FetchQuota(ctx)
	if err != nil {
		logFailure("Error updating quota", err)
		return Quota{}, false
	}
	return q, true
}

// Synthesize returns generated audio, or nil on failure.
func (s *Service) Synthesize(ctx context.Context, text, voiceID string, settings VoiceSettings) []byte {
	audio, err := s.api.Synthesize(ctx, text, voiceID, settings.Stability, settings.SimilarityBoost)
	if err != nil {
		logFailure("Error generating text-to-speech", err)
		return nil
	}
	log.Info("Text-to-speech generation successful", "voice", voiceID, "bytes", len(audio))
	return audio
}

// HistoryAudio returns the audio for a history item, or nil on failure.
func (s *Service) HistoryAudio(ctx context.Context, historyItemID string) []byte {
	audio, err := s.api.FetchHistoryAudio(ctx, historyItemID)
	if err != nil {
		logFailure("Error with history audio", err)
		return nil
	}
	return audio
}

// API exposes the wrapped client for callers that want typed errors.
func (s *Service) API() API {
	return s.api
}

func logFailure(msg string, err error) {
	switch {
	case IsNetworkError(err):
		log.Error(msg, "kind", "network", "err", err)
	case IsAPIError(err):
		log.Error(msg, "kind", "api", "err", err)
	default:
		log.Error(msg, "err", err)
	}
}
