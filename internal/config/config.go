// Package config turns the viper configuration tree into typed settings for
// the API client, audio components and transcription back-ends.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Settings is the resolved application configuration.
type Settings struct {
	ElevenLabsKey string
	OpenAIKey     string

	BaseURL           string
	RequestsPerMinute int
	Timeout           time.Duration

	Timezone   string
	Appearance string
	LogLevel   string

	PreviewCacheSize     int64
	PreviewDiskCache     string
	PreviewDiskCacheSize int64

	TranscribeBackend string
	WhisperCLI        string
	WhisperModel      string
	ModelsDir         string

	RemovalDelay time.Duration
}

// Appearance modes.
const (
	AppearanceSystem = "system"
	AppearanceDark   = "dark"
	AppearanceLight  = "light"
)

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://api.elevenlabs.io/v1")
	v.SetDefault("api.requests_per_minute", 0)
	v.SetDefault("api.timeout", "30s")
	v.SetDefault("timezone", "Local")
	v.SetDefault("appearance", AppearanceSystem)
	v.SetDefault("log_level", "info")
	v.SetDefault("preview.cache_size", 64)
	v.SetDefault("preview.disk_cache", "")
	v.SetDefault("preview.disk_cache_size", 256)
	v.SetDefault("transcribe.backend", "")
	v.SetDefault("transcribe.whisper_cli", "whisper-cli")
	v.SetDefault("transcribe.model", "base.en")
	v.SetDefault("transcribe.models_dir", "")
	v.SetDefault("record.removal_delay", "1s")
}

// Load reads Settings from v. API keys come from the environment
// (ELEVENLABS_API_KEY, OPENAI_API_KEY) unless set in the config file.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		ElevenLabsKey:        firstNonEmpty(v.GetString("api.key"), os.Getenv("ELEVENLABS_API_KEY")),
		OpenAIKey:            firstNonEmpty(v.GetString("openai.key"), os.Getenv("OPENAI_API_KEY")),
		BaseURL:              strings.TrimRight(v.GetString("api.base_url"), "/"),
		RequestsPerMinute:    v.GetInt("api.requests_per_minute"),
		Timeout:              v.GetDuration("api.timeout"),
		Timezone:             v.GetString("timezone"),
		Appearance:           strings.ToLower(v.GetString("appearance")),
		LogLevel:             v.GetString("log_level"),
		PreviewCacheSize:     v.GetInt64("preview.cache_size") * 1024 * 1024,
		PreviewDiskCache:     ExpandPath(v.GetString("preview.disk_cache")),
		PreviewDiskCacheSize: v.GetInt64("preview.disk_cache_size") * 1024 * 1024,
		TranscribeBackend:    v.GetString("transcribe.backend"),
		WhisperCLI:           v.GetString("transcribe.whisper_cli"),
		WhisperModel:         v.GetString("transcribe.model"),
		ModelsDir:            ExpandPath(v.GetString("transcribe.models_dir")),
		RemovalDelay:         v.GetDuration("record.removal_delay"),
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate checks ranges and enumerations.
func (s Settings) Validate() error {
	if s.BaseURL == "" {
		return errors.New("api.base_url must not be empty")
	}
	if s.RequestsPerMinute < 0 {
		return fmt.Errorf("api.requests_per_minute must not be negative, got %d", s.RequestsPerMinute)
	}
	if s.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative, got %s", s.Timeout)
	}
	switch s.Appearance {
	case AppearanceSystem, AppearanceDark, AppearanceLight:
	default:
		return fmt.Errorf("appearance must be one of system, dark, light; got %q", s.Appearance)
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	if s.PreviewCacheSize <= 0 {
		return errors.New("preview.cache_size must be positive")
	}
	if s.PreviewDiskCache != "" && s.PreviewDiskCacheSize <= 0 {
		return errors.New("preview.disk_cache_size must be positive when preview.disk_cache is set")
	}
	if s.RemovalDelay < 0 {
		return fmt.Errorf("record.removal_delay must not be negative, got %s", s.RemovalDelay)
	}
	return nil
}

// Location resolves the configured timezone.
func (s Settings) Location() (*time.Location, error) {
	switch s.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", s.Timezone, err)
	}
	return loc, nil
}

// ModelPath returns the whisper.cpp model file for the configured model
// name. A name that already looks like a path is returned as is.
func (s Settings) ModelPath() string {
	m := s.WhisperModel
	if strings.ContainsRune(m, os.PathSeparator) || strings.HasSuffix(m, ".bin") {
		return ExpandPath(m)
	}
	return filepath.Join(s.ModelsDir, "ggml-"+m+".bin")
}

// ExpandPath expands a leading ~ and environment variables in path.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	p, err := homedir.Expand(path)
	if err != nil {
		p = path
	}
	return os.ExpandEnv(p)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
