package record

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/winedarkmoon/elevengui/internal/audio"
)

// fakeCapture stands in for the input device; tests push chunks by hand.
type fakeCapture struct {
	mu       sync.Mutex
	onFrames func([]int32)
	openErr  error
	opened   int
	closed   int
}

func (f *fakeCapture) Open(sampleRate float64, channels int, onFrames func([]int32)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.onFrames = onFrames
	f.opened++
	return nil
}

func (f *fakeCapture) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onFrames = nil
	f.closed++
	return nil
}

func (f *fakeCapture) push(in []int32) {
	f.mu.Lock()
	cb := f.onFrames
	f.mu.Unlock()
	if cb != nil {
		cb(in)
	}
}

func newTestRecorder(t *testing.T) (*Recorder, *fakeCapture) {
	t.Helper()
	fc := &fakeCapture{}
	return NewRecorder(fc, Config{Dir: t.TempDir()}), fc
}

func TestRecorderLifecycle(t *testing.T) {
	r, fc := newTestRecorder(t)

	if _, err := r.Stop(context.Background()); !errors.Is(err, ErrNotRecording) {
		t.Errorf("Stop() before Start = %v, want ErrNotRecording", err)
	}

	if err := r.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !r.Recording() {
		t.Error("Recording() = false after Start")
	}
	if err := r.Start(); !errors.Is(err, ErrAlreadyRecording) {
		t.Errorf("second Start() = %v, want ErrAlreadyRecording", err)
	}

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if r.Recording() {
		t.Error("Recording() = true after Stop")
	}
	if fc.opened != 1 || fc.closed != 1 {
		t.Errorf("opened/closed = %d/%d, want 1/1", fc.opened, fc.closed)
	}
	if !strings.HasPrefix(filepath.Base(rec.Path), FilePrefix) || filepath.Ext(rec.Path) != ".wav" {
		t.Errorf("unexpected file name %q", rec.Path)
	}

	// An empty recording is still a valid WAV.
	raw, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !audio.IsWAV(raw) {
		t.Error("empty recording is not a WAV file")
	}
	if rec.Frames != 0 {
		t.Errorf("Frames = %d, want 0", rec.Frames)
	}
}

func TestRecorderStartFailure(t *testing.T) {
	fc := &fakeCapture{openErr: errors.New("no input device")}
	r := NewRecorder(fc, Config{Dir: t.TempDir()})

	if err := r.Start(); err == nil {
		t.Fatal("Start() should surface the capture error")
	}
	if r.Recording() {
		t.Error("recorder left in recording state after failed Start")
	}
}

func TestRecorderTwoSecondsOfSilence(t *testing.T) {
	r, fc := newTestRecorder(t)
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}

	chunk := make([]int32, 441*Channels)
	for i := 0; i < 200; i++ {
		fc.push(chunk)
	}
	if got := r.Elapsed(); got != 2*time.Second {
		t.Errorf("Elapsed() = %v, want 2s", got)
	}

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if rec.Duration != 2*time.Second || rec.Frames != 2*SampleRate {
		t.Errorf("Recording = %+v", rec)
	}

	raw, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := audio.DecodeWAV(raw)
	if err != nil {
		t.Fatalf("DecodeWAV() error = %v", err)
	}
	if buf.Channels != Channels || buf.SampleRate != SampleRate {
		t.Errorf("format = %d ch @ %d Hz", buf.Channels, buf.SampleRate)
	}
	if buf.Duration() != 2*time.Second {
		t.Errorf("decoded duration = %v, want 2s", buf.Duration())
	}
}

func TestRecorderCopiesChunksAndNarrows(t *testing.T) {
	r, fc := newTestRecorder(t)
	if err := r.Start(); err != nil {
		t.Fatal(err)
	}

	in := []int32{1 << 24, -(1 << 24), 0, 1 << 16}
	fc.push(in)
	// Device buffers are reused between callbacks.
	in[0] = 0

	rec, err := r.Stop(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(rec.Path)
	if err != nil {
		t.Fatal(err)
	}
	buf, err := audio.DecodeWAV(raw)
	if err != nil {
		t.Fatal(err)
	}

	want := []int16{256, -256, 0, 1}
	if len(buf.Samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(buf.Samples), len(want))
	}
	for i := range want {
		if buf.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, buf.Samples[i], want[i])
		}
	}

	// Pushes after Stop are dropped.
	fc.push(in)
	if r.Elapsed() != 0 {
		t.Error("chunks accepted after Stop")
	}
}

func TestScheduleRemoval(t *testing.T) {
	path := filepath.Join(t.TempDir(), FilePrefix+"x.wav")
	if err := os.WriteFile(path, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	ScheduleRemoval(path, 10*time.Millisecond, func(err error) { done <- err })

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file removed before delay: %v", err)
	}
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("removal error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("removal did not run")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("file still present: %v", err)
	}

	if err := Remove(path); err != nil {
		t.Errorf("Remove() of missing file = %v", err)
	}
}
