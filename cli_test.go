package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
)

func TestHistoryMarkdown(t *testing.T) {
	tests := []struct {
		name  string
		items []elevenlabs.HistoryItem
		want  []string
	}{
		{
			name: "empty",
			want: []string{"_No history._"},
		},
		{
			name: "rows",
			items: []elevenlabs.HistoryItem{{
				VoiceName:      "Rachel",
				DateUnix:       1700000000,
				CharacterCount: 11,
				Settings:       elevenlabs.VoiceSettings{Stability: 0.75, SimilarityBoost: 0.5},
				Text:           "hello\nworld | pipes",
			}},
			want: []string{
				"| Date | Voice |",
				"| 11.14.23, 22:13 | Rachel | 11 | 0.75 / 0.50 | hello world \\| pipes |",
			},
		},
		{
			name: "long text truncated",
			items: []elevenlabs.HistoryItem{{
				VoiceName: "Adam",
				Text:      strings.Repeat("word ", 40),
			}},
			want: []string{ellipsis + " |"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := historyMarkdown(tt.items, time.UTC)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("historyMarkdown() missing %q in:\n%s", w, got)
				}
			}
		})
	}
}

func TestWriteVoices(t *testing.T) {
	var buf bytes.Buffer
	writeVoices(&buf, []elevenlabs.Voice{
		{VoiceID: "v1", Name: "Rachel"},
		{VoiceID: "v2", Name: strings.Repeat("x", 40)},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "Rachel ") || !strings.HasSuffix(lines[0], " v1") {
		t.Errorf("line 0 = %q", lines[0])
	}
	if !strings.Contains(lines[1], ellipsis) {
		t.Errorf("long name not truncated: %q", lines[1])
	}
}

func TestPlayAndWait(t *testing.T) {
	device := audio.NewMockDevice()
	player, err := audio.NewPlayer(device, audio.DefaultPlayerConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer player.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	go func() {
		for ctx.Err() == nil {
			device.Drain()
			time.Sleep(5 * time.Millisecond)
		}
	}()

	buf := audio.Silence(200*time.Millisecond, 2, audio.DeviceSampleRate)
	if err := playAndWait(ctx, player, buf, 10*time.Millisecond); err != nil {
		t.Fatalf("playAndWait() error = %v", err)
	}
	if ctx.Err() != nil {
		t.Fatal("playback never finished")
	}
	if got := player.Progress(); !got.Finished {
		t.Errorf("Progress() = %+v, want finished", got)
	}
}

func TestPlayAndWaitCancelled(t *testing.T) {
	player, err := audio.NewPlayer(audio.NewMockDevice(), audio.DefaultPlayerConfig())
	if err != nil {
		t.Fatal(err)
	}
	defer player.Close()

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	if err := playAndWait(ctx, player, audio.Silence(time.Second, 2, audio.DeviceSampleRate), 5*time.Millisecond); err != nil {
		t.Errorf("cancel should stop quietly, got %v", err)
	}
	if player.State() != audio.StateStopped {
		t.Errorf("state = %v", player.State())
	}
}
