package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
)

// whisper.cpp input format.
const (
	localSampleRate = 16000
	localChannels   = 1
	localBitDepth   = 16
)

// LocalConfig configures WhisperLocal.
type LocalConfig struct {
	CLIPath    string
	ModelPath  string
	FFmpegPath string
	TempDir    string
	Timeout    time.Duration
}

// WhisperLocal runs the whisper.cpp command line tool.
type WhisperLocal struct {
	cfg LocalConfig
}

// NewWhisperLocal creates a local backend.
func NewWhisperLocal(cfg LocalConfig) *WhisperLocal {
	if cfg.CLIPath == "" {
		cfg.CLIPath = "whisper-cli"
	}
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	return &WhisperLocal{cfg: cfg}
}

// Name implements Transcriber.
func (w *WhisperLocal) Name() string { return BackendLocal }

// Available reports whether the CLI is on PATH and the model file exists.
func (w *WhisperLocal) Available() error {
	if _, err := exec.LookPath(w.cfg.CLIPath); err != nil {
		return fmt.Errorf("%s not found in PATH: %w", w.cfg.CLIPath, err)
	}
	if w.cfg.ModelPath == "" {
		return errors.New("no whisper model configured")
	}
	if _, err := os.Stat(w.cfg.ModelPath); err != nil {
		return fmt.Errorf("whisper model missing: %w", err)
	}
	return nil
}

// Transcribe converts path to 16 kHz mono WAV when needed, runs the CLI and
// reads back its text output.
func (w *WhisperLocal) Transcribe(ctx context.Context, path string) (string, error) {
	work, err := os.MkdirTemp(w.cfg.TempDir, "elevengui-whisper-*")
	if err != nil {
		return "", fmt.Errorf("failed to create work dir: %w", err)
	}
	defer os.RemoveAll(work)

	ctx, cancel := context.WithTimeout(ctx, w.cfg.Timeout)
	defer cancel()

	input := path
	if !isWhisperWAV(path) {
		input = filepath.Join(work, "input.wav")
		if err := w.convert(ctx, path, input); err != nil {
			return "", err
		}
	}

	prefix := filepath.Join(work, "out")
	args := []string{
		"-m", w.cfg.ModelPath,
		"-f", input,
		"-otxt",
		"-of", prefix,
		"-nt",
	}
	if err := run(ctx, w.cfg.CLIPath, args); err != nil {
		return "", err
	}

	out, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("whisper produced no transcript: %w", err)
	}
	return string(out), nil
}

func (w *WhisperLocal) convert(ctx context.Context, in, out string) error {
	args := []string{
		"-y",
		"-i", in,
		"-ar", fmt.Sprint(localSampleRate),
		"-ac", fmt.Sprint(localChannels),
		"-c:a", "pcm_s16le",
		out,
	}
	log.Debug("Converting for whisper", "input", in)
	return run(ctx, w.cfg.FFmpegPath, args)
}

// isWhisperWAV reports whether path is already a 16 kHz mono 16-bit WAV.
func isWhisperWAV(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return false
	}
	return int(dec.SampleRate) == localSampleRate &&
		int(dec.NumChans) == localChannels &&
		int(dec.BitDepth) == localBitDepth
}

func run(ctx context.Context, name string, args []string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = strings.NewReader("")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("%s timeout: %w", filepath.Base(name), ctx.Err())
		}
		return fmt.Errorf("%s failed: %w, stderr: %s", filepath.Base(name), err, strings.TrimSpace(stderr.String()))
	}
	return nil
}
