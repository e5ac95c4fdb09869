package elevenlabs

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Voice is a selectable synthetic speaker.
type Voice struct {
	VoiceID    string `json:"voice_id"`
	Name       string `json:"name"`
	PreviewURL string `json:"preview_url"`
	Category   string `json:"category,omitempty"`
}

// VoiceSettings are the per-request synthesis parameters, both in [0, 1].
type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

// HistoryItem is a previously generated clip.
type HistoryItem struct {
	HistoryItemID  string        `json:"history_item_id"`
	VoiceID        string        `json:"voice_id"`
	VoiceName      string        `json:"voice_name"`
	DateUnix       int64         `json:"date_unix"`
	CharacterCount int           `json:"character_count_change_to"`
	Settings       VoiceSettings `json:"settings"`
	Text           string        `json:"text"`
}

// Quota is the account character usage.
type Quota struct {
	CharacterCount int64  `json:"character_count"`
	CharacterLimit int64  `json:"character_limit"`
	Tier           string `json:"tier"`
}

// Remaining returns the number of characters left, never negative.
func (q Quota) Remaining() int64 {
	if r := q.CharacterLimit - q.CharacterCount; r > 0 {
		return r
	}
	return 0
}

// String renders the quota the way the header shows it.
func (q Quota) String() string {
	return fmt.Sprintf("total quota used: %s / %s",
		humanize.Comma(q.CharacterCount), humanize.Comma(q.CharacterLimit))
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

type historyResponse struct {
	History []HistoryItem `json:"history"`
}

type userResponse struct {
	Subscription Quota `json:"subscription"`
}

type synthesizeRequest struct {
	Text          string        `json:"text"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

// FindVoice returns the voice with the given name.
func FindVoice(voices []Voice, name string) (Voice, bool) {
	for _, v := range voices {
		if v.Name == name {
			return v, true
		}
	}
	return Voice{}, false
}

// FilterHistory keeps items generated with voiceName. An empty name keeps
// everything.
func FilterHistory(items []HistoryItem, voiceName string) []HistoryItem {
	if voiceName == "" {
		return items
	}
	out := make([]HistoryItem, 0, len(items))
	for _, it := range items {
		if it.VoiceName == voiceName {
			out = append(out, it)
		}
	}
	return out
}
