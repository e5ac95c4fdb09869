// Package transcribe turns audio files into text through whichever speech
// recognition backends are available.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	// ErrNoBackendAvailable is returned when no backend is registered.
	ErrNoBackendAvailable = errors.New("no speech to text backend available")
	// ErrUnknownBackend is returned when a named backend is not registered.
	ErrUnknownBackend = errors.New("unknown speech to text backend")
)

// Backend names.
const (
	BackendAPI   = "api"
	BackendLocal = "local"
)

// Transcriber converts an audio file to text.
type Transcriber interface {
	Name() string
	Transcribe(ctx context.Context, path string) (string, error)
}

// Label returns the display name of a backend.
func Label(name string) string {
	switch name {
	case BackendAPI:
		return "Whisper API"
	case BackendLocal:
		return "Whisper Local"
	default:
		return name
	}
}

// Registry holds the backends found usable at startup.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]Transcriber
}

// NewRegistry creates a registry holding backends.
func NewRegistry(backends ...Transcriber) *Registry {
	r := &Registry{backends: make(map[string]Transcriber)}
	for _, b := range backends {
		r.Register(b)
	}
	return r
}

// Register adds or replaces a backend under its name.
func (r *Registry) Register(t Transcriber) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backends[t.Name()] = t
}

// Len returns the number of registered backends.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.backends)
}

// Names returns the registered backend names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.backends))
	for n := range r.backends {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Select picks a backend. With a single backend the choice is ignored;
// with several the named one is returned.
func (r *Registry) Select(name string) (Transcriber, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	switch len(r.backends) {
	case 0:
		return nil, ErrNoBackendAvailable
	case 1:
		for _, t := range r.backends {
			return t, nil
		}
	}

	if t, ok := r.backends[strings.ToLower(strings.TrimSpace(name))]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, name)
}

// Dispatcher routes transcription requests to a registered backend and
// cleans the result.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a dispatcher over registry.
func NewDispatcher(registry *Registry) *Dispatcher {
	return &Dispatcher{registry: registry}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Transcribe runs the chosen backend on path and returns the cleaned text.
func (d *Dispatcher) Transcribe(ctx context.Context, path, choice string) (string, error) {
	t, err := d.registry.Select(choice)
	if err != nil {
		return "", err
	}

	log.Debug("Transcribing", "backend", t.Name(), "path", path)
	text, err := t.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("%s transcription failed: %w", Label(t.Name()), err)
	}
	return CleanTranscript(text), nil
}

// DiscoverConfig describes what to probe for at startup.
type DiscoverConfig struct {
	OpenAIKey  string
	BaseURL    string
	WhisperCLI string
	ModelPath  string
	FFmpegPath string
}

// Discover builds a registry from the backends whose requirements are met.
func Discover(cfg DiscoverConfig) *Registry {
	r := NewRegistry()

	if cfg.OpenAIKey != "" {
		r.Register(NewWhisperAPI(cfg.OpenAIKey, cfg.BaseURL))
	}

	local := NewWhisperLocal(LocalConfig{
		CLIPath:    cfg.WhisperCLI,
		ModelPath:  cfg.ModelPath,
		FFmpegPath: cfg.FFmpegPath,
	})
	if err := local.Available(); err == nil {
		r.Register(local)
	} else {
		log.Debug("Local whisper unavailable", "err", err)
	}

	log.Debug("Speech to text backends", "names", r.Names())
	return r
}
