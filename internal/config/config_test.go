package config

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

func newViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	return v
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "eleven")
	t.Setenv("OPENAI_API_KEY", "")

	s, err := Load(newViper())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ElevenLabsKey != "eleven" {
		t.Errorf("ElevenLabsKey = %q", s.ElevenLabsKey)
	}
	if s.OpenAIKey != "" {
		t.Errorf("OpenAIKey = %q, want empty", s.OpenAIKey)
	}
	if s.BaseURL != "https://api.elevenlabs.io/v1" {
		t.Errorf("BaseURL = %q", s.BaseURL)
	}
	if s.Timeout != 30*time.Second {
		t.Errorf("Timeout = %s", s.Timeout)
	}
	if s.RemovalDelay != time.Second {
		t.Errorf("RemovalDelay = %s", s.RemovalDelay)
	}
	if s.PreviewCacheSize != 64*1024*1024 {
		t.Errorf("PreviewCacheSize = %d", s.PreviewCacheSize)
	}
}

func TestLoadConfigKeyWins(t *testing.T) {
	t.Setenv("ELEVENLABS_API_KEY", "from-env")
	v := newViper()
	v.Set("api.key", "from-file")

	s, err := Load(v)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.ElevenLabsKey != "from-file" {
		t.Errorf("ElevenLabsKey = %q", s.ElevenLabsKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		value   interface{}
		wantErr string
	}{
		{"bad appearance", "appearance", "neon", "appearance"},
		{"bad timezone", "timezone", "Mars/Olympus", "timezone"},
		{"negative rate", "api.requests_per_minute", -1, "requests_per_minute"},
		{"zero cache", "preview.cache_size", 0, "cache_size"},
		{"empty base url", "api.base_url", "", "base_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set(tt.key, tt.value)
			_, err := Load(v)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDiskCacheSize(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		size    int
		wantErr bool
	}{
		{"disabled ignores size", "", 0, false},
		{"enabled with size", "/tmp/previews", 16, false},
		{"enabled zero size", "/tmp/previews", 0, true},
		{"enabled negative size", "/tmp/previews", -4, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := newViper()
			v.Set("preview.disk_cache", tt.dir)
			v.Set("preview.disk_cache_size", tt.size)
			_, err := Load(v)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !strings.Contains(err.Error(), "disk_cache_size") {
				t.Errorf("error %q does not mention disk_cache_size", err)
			}
		})
	}
}

func TestLocation(t *testing.T) {
	s := Settings{Timezone: "UTC"}
	loc, err := s.Location()
	if err != nil {
		t.Fatalf("Location: %v", err)
	}
	if loc != time.UTC && loc.String() != "UTC" {
		t.Errorf("Location = %v", loc)
	}

	s.Timezone = ""
	if loc, _ := s.Location(); loc != time.Local {
		t.Errorf("empty timezone should be Local, got %v", loc)
	}
}

func TestModelPath(t *testing.T) {
	s := Settings{WhisperModel: "base.en", ModelsDir: "/models"}
	if got := s.ModelPath(); got != filepath.Join("/models", "ggml-base.en.bin") {
		t.Errorf("ModelPath = %q", got)
	}

	s.WhisperModel = "/opt/whisper/custom.bin"
	if got := s.ModelPath(); got != "/opt/whisper/custom.bin" {
		t.Errorf("ModelPath = %q", got)
	}
}

func TestExpandPath(t *testing.T) {
	homedir.DisableCache = true
	t.Setenv("HOME", "/home/tester")
	if got := ExpandPath("~/cache"); got != filepath.Join("/home/tester", "cache") {
		t.Errorf("ExpandPath = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}
