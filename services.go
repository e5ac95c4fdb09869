package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/cache"
	"github.com/winedarkmoon/elevengui/internal/config"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/preview"
	"github.com/winedarkmoon/elevengui/internal/record"
	"github.com/winedarkmoon/elevengui/internal/transcribe"
	"github.com/winedarkmoon/elevengui/ui"
)

func newClient(s config.Settings) (*elevenlabs.Client, error) {
	client, err := elevenlabs.NewClient(elevenlabs.ClientConfig{
		APIKey:            s.ElevenLabsKey,
		BaseURL:           s.BaseURL,
		Timeout:           s.Timeout,
		RequestsPerMinute: s.RequestsPerMinute,
	})
	if errors.Is(err, elevenlabs.ErrNoAPIKey) {
		return nil, fmt.Errorf("%w: set ELEVENLABS_API_KEY or api.key", err)
	}
	return client, err //nolint:wrapcheck
}

func newPlayer() (*audio.Player, error) {
	device, err := audio.NewOtoDevice()
	if err != nil {
		return nil, fmt.Errorf("audio output unavailable: %w", err)
	}
	return audio.NewPlayer(device, audio.DefaultPlayerConfig()) //nolint:wrapcheck
}

func newRegistry(s config.Settings, dec *audio.Decoder) *transcribe.Registry {
	modelPath := s.ModelPath()
	if s.ModelsDir == "" && !filepath.IsAbs(modelPath) {
		if dir, err := gap.NewScope(gap.User, "elevengui").DataPath("models"); err == nil {
			modelPath = filepath.Join(dir, modelPath)
		}
	}
	return transcribe.Discover(transcribe.DiscoverConfig{
		OpenAIKey:  s.OpenAIKey,
		WhisperCLI: s.WhisperCLI,
		ModelPath:  modelPath,
		FFmpegPath: dec.FFmpegPath,
	})
}

// newServices wires every component the TUI needs. The returned func
// releases the audio device and flushes the preview cache.
func newServices(s config.Settings) (ui.Services, func(), error) {
	client, err := newClient(s)
	if err != nil {
		return ui.Services{}, nil, err
	}

	player, err := newPlayer()
	if err != nil {
		return ui.Services{}, nil, err
	}

	dec := audio.NewDecoder()
	if err := dec.CheckFFmpeg(); err != nil {
		log.Warn("ffmpeg not found, only WAV audio can be played", "err", err)
	}

	var disk *cache.DiskCache
	if s.PreviewDiskCache != "" {
		disk, err = cache.NewDiskCache(s.PreviewDiskCache, s.PreviewDiskCacheSize)
		if err != nil {
			log.Warn("Preview disk cache disabled", "dir", s.PreviewDiskCache, "err", err)
			disk = nil
		}
	}

	svc := ui.Services{
		API:     elevenlabs.NewService(client),
		Player:  player,
		Decoder: dec,
		Previews: preview.NewPlayer(client, dec, player, preview.Config{
			MemoryCapacity: s.PreviewCacheSize,
			Disk:           disk,
		}),
		Recorder:    record.NewRecorder(record.NewPortAudioCapture(), record.DefaultConfig()),
		Transcriber: transcribe.NewDispatcher(newRegistry(s, dec)),
	}

	closer := func() {
		if disk != nil {
			if err := disk.Close(); err != nil {
				log.Warn("Could not save preview cache index", "err", err)
			}
			log.Debug("Preview cache", "stats", svc.Previews.Stats().Memory.String())
		}
		if err := player.Close(); err != nil {
			log.Warn("Could not close player", "err", err)
		}
	}
	return svc, closer, nil
}
