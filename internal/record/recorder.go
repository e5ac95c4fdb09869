// Package record captures microphone audio into temporary WAV files.
package record

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

var (
	// ErrNotRecording is returned by Stop when no recording is running.
	ErrNotRecording = errors.New("not recording")
	// ErrAlreadyRecording is returned by Start while a recording is running.
	ErrAlreadyRecording = errors.New("already recording")
	// ErrFileIO wraps failures writing or removing recording files.
	ErrFileIO = errors.New("recording file i/o failed")
)

// Capture format.
const (
	SampleRate = 44100
	Channels   = 2
)

// FilePrefix names temporary recording files.
const FilePrefix = "RecordTemp_"

// Config configures a Recorder.
type Config struct {
	// Dir receives recording files. Defaults to the system temp dir.
	Dir        string
	SampleRate int
	Channels   int
}

// DefaultConfig returns the standard capture configuration.
func DefaultConfig() Config {
	return Config{
		Dir:        os.TempDir(),
		SampleRate: SampleRate,
		Channels:   Channels,
	}
}

// Recording describes a finished recording on disk.
type Recording struct {
	Path     string
	Frames   int
	Duration time.Duration
}

// Recorder accumulates pushed chunks while recording and writes them out as
// a 24-bit WAV on Stop.
type Recorder struct {
	capture Capture
	cfg     Config

	mu        sync.Mutex
	recording bool
	chunks    [][]int32
	samples   int
	started   time.Time
}

// NewRecorder creates a recorder reading from capture.
func NewRecorder(capture Capture, cfg Config) *Recorder {
	if cfg.Dir == "" {
		cfg.Dir = os.TempDir()
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = SampleRate
	}
	if cfg.Channels <= 0 {
		cfg.Channels = Channels
	}
	return &Recorder{capture: capture, cfg: cfg}
}

// Start opens the input stream and begins accumulating chunks.
func (r *Recorder) Start() error {
	r.mu.Lock()
	if r.recording {
		r.mu.Unlock()
		return ErrAlreadyRecording
	}
	r.recording = true
	r.chunks = nil
	r.samples = 0
	r.started = time.Now()
	r.mu.Unlock()

	if err := r.capture.Open(float64(r.cfg.SampleRate), r.cfg.Channels, r.push); err != nil {
		r.mu.Lock()
		r.recording = false
		r.mu.Unlock()
		return err
	}
	log.Debug("Recording started", "rate", r.cfg.SampleRate, "channels", r.cfg.Channels)
	return nil
}

// push is the capture callback. The device reuses its buffer, so each
// chunk is copied.
func (r *Recorder) push(in []int32) {
	chunk := make([]int32, len(in))
	copy(chunk, in)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.recording {
		return
	}
	r.chunks = append(r.chunks, chunk)
	r.samples += len(chunk)
}

// Recording reports whether a recording is running.
func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}

// Elapsed returns the captured duration so far.
func (r *Recorder) Elapsed() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.durationLocked()
}

func (r *Recorder) durationLocked() time.Duration {
	frames := r.samples / r.cfg.Channels
	return time.Duration(frames) * time.Second / time.Duration(r.cfg.SampleRate)
}

// Stop closes the input stream, concatenates the chunks and writes them to
// a new RecordTemp_<uuid>.wav file.
func (r *Recorder) Stop(ctx context.Context) (Recording, error) {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return Recording{}, ErrNotRecording
	}
	r.recording = false
	chunks := r.chunks
	total := r.samples
	dur := r.durationLocked()
	r.chunks = nil
	r.samples = 0
	r.mu.Unlock()

	if err := r.capture.Close(); err != nil {
		log.Warn("Error closing capture stream", "err", err)
	}
	if err := ctx.Err(); err != nil {
		return Recording{}, err
	}

	data := make([]int, 0, total-total%r.cfg.Channels)
	for _, c := range chunks {
		for _, v := range c {
			data = append(data, to24(v))
		}
	}
	// Drop a trailing partial frame.
	data = data[:len(data)-len(data)%r.cfg.Channels]

	path := filepath.Join(r.cfg.Dir, FilePrefix+uuid.NewString()+".wav")
	if err := WriteWAV(path, data, r.cfg.Channels, r.cfg.SampleRate, BitDepth); err != nil {
		_ = os.Remove(path)
		return Recording{}, err
	}

	rec := Recording{Path: path, Frames: len(data) / r.cfg.Channels, Duration: dur}
	log.Debug("Recording saved", "path", path, "duration", dur)
	return rec, nil
}

// Remove deletes a recording file. A missing file is not an error.
func Remove(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	return nil
}

// ScheduleRemoval deletes path after delay, giving readers of the file a
// grace period. Failures are logged. done, if non-nil, receives the result.
// The returned timer can be stopped to keep the file.
func ScheduleRemoval(path string, delay time.Duration, done func(error)) *time.Timer {
	return time.AfterFunc(delay, func() {
		err := Remove(path)
		if err != nil {
			log.Error("Failed to remove recording", "path", path, "err", err)
		}
		if done != nil {
			done(err)
		}
	})
}
