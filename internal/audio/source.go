package audio

import (
	"encoding/binary"
	"errors"
	"io"
	"sync"
)

// DefaultBlockFrames is the number of frames handed to the device per pull.
const DefaultBlockFrames = 2048

// source feeds a stereo buffer to the device. Each Read copies whole blocks
// of frames and advances the cursor; the last partial block is padded with
// silence, after which Read reports io.EOF.
type source struct {
	mu          sync.Mutex
	samples     []int16
	channels    int
	frames      int
	blockFrames int
	cursor      int
	padded      bool
}

func newSource(buf *Buffer, blockFrames int) *source {
	if blockFrames <= 0 {
		blockFrames = DefaultBlockFrames
	}
	return &source{
		samples:     buf.Samples,
		channels:    buf.Channels,
		frames:      buf.Frames(),
		blockFrames: blockFrames,
	}
}

func (s *source) frameBytes() int {
	return s.channels * bytesPerSample
}

// Read implements io.Reader for the device pull loop.
func (s *source) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cursor >= s.frames && s.padded {
		return 0, io.EOF
	}

	fb := s.frameBytes()
	blockBytes := s.blockFrames * fb
	blocks := len(p) / blockBytes
	if blocks == 0 {
		// Device asked for less than a block; serve whole frames.
		return s.fill(p[:len(p)/fb*fb], fb), nil
	}
	return s.fill(p[:blocks*blockBytes], fb), nil
}

// fill copies frames into dst, zero-padding once the buffer runs out.
func (s *source) fill(dst []byte, fb int) int {
	want := len(dst) / fb
	avail := s.frames - s.cursor
	n := want
	if avail < n {
		n = avail
	}

	base := s.cursor * s.channels
	for i := 0; i < n*s.channels; i++ {
		binary.LittleEndian.PutUint16(dst[i*2:], uint16(s.samples[base+i]))
	}
	s.cursor += n

	if n < want {
		clear(dst[n*fb:])
		s.padded = true
	}
	return len(dst)
}

// Seek implements io.Seeker in bytes so the device can drop buffered data.
func (s *source) Seek(offset int64, whence int) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fb := int64(s.frameBytes())
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(s.cursor)*fb + offset
	case io.SeekEnd:
		pos = int64(s.frames)*fb + offset
	default:
		return 0, errors.New("invalid whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}

	frame := int(pos / fb)
	if frame > s.frames {
		frame = s.frames
	}
	s.cursor = frame
	s.padded = false
	return int64(frame) * fb, nil
}

// Cursor returns the number of frames already handed to the device.
func (s *source) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Exhausted reports whether every frame has been delivered.
func (s *source) Exhausted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor >= s.frames
}

func (s *source) setCursor(frame int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if frame < 0 {
		frame = 0
	}
	if frame > s.frames {
		frame = s.frames
	}
	s.cursor = frame
	s.padded = false
}
