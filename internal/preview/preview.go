// Package preview plays voice sample clips, downloading each at most once.
package preview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/cache"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
)

// ErrNoPreview is returned for voices without a preview URL.
var ErrNoPreview = errors.New("voice has no preview")

// Downloader fetches preview clips.
type Downloader interface {
	DownloadPreview(ctx context.Context, previewURL string) ([]byte, error)
}

// Decoder turns downloaded bytes into playable audio.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.Buffer, error)
}

// Output plays a decoded clip.
type Output interface {
	Load(buf *audio.Buffer) error
	Play() error
}

// Config configures a Player.
type Config struct {
	// MemoryCapacity bounds decoded clips held in memory, in bytes.
	MemoryCapacity int64
	// Disk, when set, keeps downloaded clips across restarts.
	Disk *cache.DiskCache
}

// DefaultMemoryCapacity is 64 MiB.
const DefaultMemoryCapacity = 64 << 20

// Stats reports cache usage for the status bar.
type Stats struct {
	Memory    cache.Stats
	Disk      *cache.Stats
	Downloads int64
}

// Player resolves voice names to preview clips and plays them.
type Player struct {
	dl  Downloader
	dec Decoder
	out Output

	mem  *cache.MemoryCache[*audio.Buffer]
	disk *cache.DiskCache

	group     singleflight.Group
	downloads atomic.Int64

	mu     sync.RWMutex
	voices []elevenlabs.Voice
}

// NewPlayer creates a preview player.
func NewPlayer(dl Downloader, dec Decoder, out Output, cfg Config) *Player {
	capacity := cfg.MemoryCapacity
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &Player{
		dl:   dl,
		dec:  dec,
		out:  out,
		mem:  cache.NewMemoryCache(capacity, (*audio.Buffer).Size),
		disk: cfg.Disk,
	}
}

// SetVoices replaces the voice list used to resolve names. Cached clips are
// kept.
func (p *Player) SetVoices(voices []elevenlabs.Voice) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.voices = voices
}

// Preview plays the sample of the named voice, fetching it first if needed.
func (p *Player) Preview(ctx context.Context, voiceName string) error {
	buf, err := p.Fetch(ctx, voiceName)
	if err != nil {
		return err
	}
	if err := p.out.Load(buf); err != nil {
		return fmt.Errorf("load preview: %w", err)
	}
	return p.out.Play()
}

// Fetch returns the decoded clip for voiceName from memory, disk, or the
// network, in that order. Concurrent fetches of one voice share a single
// download.
func (p *Player) Fetch(ctx context.Context, voiceName string) (*audio.Buffer, error) {
	if buf, ok := p.mem.Get(voiceName); ok {
		return buf, nil
	}

	voice, ok := p.lookup(voiceName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", elevenlabs.ErrUnknownVoice, voiceName)
	}
	if voice.PreviewURL == "" {
		return nil, fmt.Errorf("%w: %q", ErrNoPreview, voiceName)
	}

	v, err, shared := p.group.Do(voiceName, func() (interface{}, error) {
		if buf, ok := p.mem.Get(voiceName); ok {
			return buf, nil
		}
		data, err := p.raw(ctx, voice.PreviewURL)
		if err != nil {
			return nil, err
		}
		buf, err := p.dec.Decode(ctx, data)
		if err != nil {
			// Don't serve the same undecodable clip from disk again.
			if p.disk != nil {
				p.disk.Delete(voice.PreviewURL)
			}
			return nil, fmt.Errorf("decode preview: %w", err)
		}
		if err := p.mem.Put(voiceName, buf); err != nil {
			log.Warn("Preview not cached", "voice", voiceName, "err", err)
		}
		return buf, nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Preview fetched", "voice", voiceName, "shared", shared)
	return v.(*audio.Buffer), nil
}

// raw returns the encoded clip from the disk tier or the network.
func (p *Player) raw(ctx context.Context, url string) ([]byte, error) {
	if p.disk != nil {
		if data, ok := p.disk.Get(url); ok {
			return data, nil
		}
	}

	p.downloads.Add(1)
	data, err := p.dl.DownloadPreview(ctx, url)
	if err != nil {
		return nil, err
	}
	if p.disk != nil {
		if err := p.disk.Put(url, data); err != nil {
			log.Warn("Preview not written to disk cache", "err", err)
		}
	}
	return data, nil
}

func (p *Player) lookup(name string) (elevenlabs.Voice, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return elevenlabs.FindVoice(p.voices, name)
}

// Cached reports whether the voice's clip can play without a download.
func (p *Player) Cached(voiceName string) bool {
	if p.mem.Contains(voiceName) {
		return true
	}
	if p.disk == nil {
		return false
	}
	voice, ok := p.lookup(voiceName)
	return ok && voice.PreviewURL != "" && p.disk.Contains(voice.PreviewURL)
}

// Resize changes the memory tier's capacity, evicting clips as needed.
func (p *Player) Resize(capacity int64) {
	if capacity > 0 {
		p.mem.Resize(capacity)
	}
}

// Clear drops every cached clip from both tiers.
func (p *Player) Clear() error {
	p.mem.Clear()
	if p.disk == nil {
		return nil
	}
	if err := p.disk.Clear(); err != nil {
		return fmt.Errorf("clear preview cache: %w", err)
	}
	return nil
}

// Stats returns cache and download counters.
func (p *Player) Stats() Stats {
	s := Stats{Memory: p.mem.Stats(), Downloads: p.downloads.Load()}
	if p.disk != nil {
		ds := p.disk.Stats()
		s.Disk = &ds
	}
	return s
}
