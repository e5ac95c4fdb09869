package record

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Capture is an input device that pushes interleaved 32-bit frames to a
// callback until closed.
type Capture interface {
	Open(sampleRate float64, channels int, onFrames func(in []int32)) error
	Close() error
}

// PortAudioCapture records from the default input device.
type PortAudioCapture struct {
	mu     sync.Mutex
	stream *portaudio.Stream
}

// NewPortAudioCapture returns a capture bound to the default input device.
func NewPortAudioCapture() *PortAudioCapture {
	return &PortAudioCapture{}
}

// Open initializes portaudio and starts a callback stream.
func (c *PortAudioCapture) Open(sampleRate float64, channels int, onFrames func(in []int32)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream != nil {
		return errors.New("capture stream already open")
	}
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("portaudio init failed: %w", err)
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, sampleRate, 0, onFrames)
	if err != nil {
		_ = portaudio.Terminate()
		return fmt.Errorf("open input stream failed: %w", err)
	}
	if err := stream.Start(); err != nil {
		_ = stream.Close()
		_ = portaudio.Terminate()
		return fmt.Errorf("start input stream failed: %w", err)
	}
	c.stream = stream
	return nil
}

// Close stops the stream and releases portaudio.
func (c *PortAudioCapture) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.stream == nil {
		return nil
	}
	var errs []error
	if err := c.stream.Stop(); err != nil {
		errs = append(errs, fmt.Errorf("stop input stream: %w", err))
	}
	if err := c.stream.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close input stream: %w", err))
	}
	if err := portaudio.Terminate(); err != nil {
		errs = append(errs, fmt.Errorf("portaudio terminate: %w", err))
	}
	c.stream = nil
	return errors.Join(errs...)
}
