package audio

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

// MockDevice implements Device without producing sound. Tests drive the
// pull loop by hand with Pull.
type MockDevice struct {
	mu        sync.Mutex
	current   *MockStream
	readAhead int

	// Metrics for testing
	opened atomic.Int64
	closed atomic.Int64
}

// NewMockDevice creates a new mock device.
func NewMockDevice() *MockDevice {
	return &MockDevice{}
}

// SetReadAhead makes streams opened afterwards buffer n bytes beyond what
// each Pull plays, the way a real output device does.
func (d *MockDevice) SetReadAhead(n int) {
	d.mu.Lock()
	d.readAhead = n
	d.mu.Unlock()
}

// NewStream implements Device.
func (d *MockDevice) NewStream(r io.ReadSeeker) Stream {
	d.mu.Lock()
	s := &MockStream{r: r, dev: d, readAhead: d.readAhead}
	d.current = s
	d.mu.Unlock()
	d.opened.Add(1)
	return s
}

// Current returns the most recently opened stream.
func (d *MockDevice) Current() *MockStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

// Pull plays n bytes from the current stream if it is playing and returns
// how many were played.
func (d *MockDevice) Pull(n int) int {
	s := d.Current()
	if s == nil {
		return 0
	}
	got, _ := s.play(n)
	return got
}

// Drain plays the current stream until it stops on its own.
func (d *MockDevice) Drain() int {
	total := 0
	for {
		s := d.Current()
		if s == nil || !s.IsPlaying() {
			return total
		}
		n, err := s.play(8192)
		total += n
		if err != nil || n == 0 {
			return total
		}
	}
}

// Opened returns the number of streams opened.
func (d *MockDevice) Opened() int64 { return d.opened.Load() }

// Closed returns the number of streams closed.
func (d *MockDevice) Closed() int64 { return d.closed.Load() }

// MockStream is a Stream opened by MockDevice.
type MockStream struct {
	mu        sync.Mutex
	r         io.ReadSeeker
	dev       *MockDevice
	readAhead int
	queued    int
	eof       bool
	playing   bool
	closed    bool
}

func (s *MockStream) Play() {
	s.mu.Lock()
	s.playing = !s.closed
	s.mu.Unlock()
}

func (s *MockStream) Pause() {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
}

// IsPlaying reports whether the stream is playing. Like oto, a stream whose
// reader hit EOF stops once its buffer is empty.
func (s *MockStream) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// BufferedSize returns the bytes read from the source but not yet played.
func (s *MockStream) BufferedSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queued
}

// Seek drops the buffered bytes and moves the source.
func (s *MockStream) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queued = 0
	s.eof = false
	return s.r.Seek(offset, whence)
}

func (s *MockStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.playing = false
	s.dev.closed.Add(1)
	return nil
}

// Closed reports whether the stream was closed.
func (s *MockStream) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// play tops the buffer up to n plus the read-ahead and then plays n bytes
// out of it.
func (s *MockStream) play(n int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return 0, nil
	}

	var err error
	for !s.eof && s.queued < n+s.readAhead {
		chunk := make([]byte, n+s.readAhead-s.queued)
		got, rerr := s.r.Read(chunk)
		s.queued += got
		if rerr != nil {
			s.eof = true
			if !errors.Is(rerr, io.EOF) {
				err = rerr
			}
			break
		}
		if got == 0 {
			break
		}
	}

	played := min(n, s.queued)
	s.queued -= played
	if s.eof && s.queued == 0 {
		s.playing = false
	}
	return played, err
}
