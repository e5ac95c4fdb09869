package audio

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"
)

// Stream is an open output stream pulling from a reader. Streams read ahead
// of what is audible; BufferedSize is the number of bytes pulled but not yet
// played, and IsPlaying turns false once the reader hit EOF and that backlog
// has drained.
type Stream interface {
	Play()
	Pause()
	IsPlaying() bool
	BufferedSize() int
	Seek(offset int64, whence int) (int64, error)
	Close() error
}

// Device opens output streams. The production Device wraps an oto context.
type Device interface {
	NewStream(r io.ReadSeeker) Stream
}

// OtoDevice is a Device backed by the process-wide oto context.
type OtoDevice struct {
	ctx *oto.Context
}

var (
	otoOnce sync.Once
	otoDev  *OtoDevice
	otoErr  error
)

// NewOtoDevice returns the shared oto device. oto allows one context per
// process, so every call returns the same device.
func NewOtoDevice() (*OtoDevice, error) {
	otoOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   DeviceSampleRate,
			ChannelCount: DeviceChannels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   time.Duration(DefaultBlockFrames) * time.Second / DeviceSampleRate,
		}
		ctx, ready, err := oto.NewContext(op)
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoDev = &OtoDevice{ctx: ctx}
	})
	return otoDev, otoErr
}

// NewStream implements Device.
func (d *OtoDevice) NewStream(r io.ReadSeeker) Stream {
	p := d.ctx.NewPlayer(r)
	// oto reads half a second ahead by default; keep the backlog to a block.
	p.SetBufferSize(DefaultBlockFrames * DeviceChannels * bytesPerSample)
	return &otoStream{player: p}
}

type otoStream struct {
	player *oto.Player
}

func (s *otoStream) Play()             { s.player.Play() }
func (s *otoStream) Pause()            { s.player.Pause() }
func (s *otoStream) IsPlaying() bool   { return s.player.IsPlaying() }
func (s *otoStream) BufferedSize() int { return s.player.BufferedSize() }

func (s *otoStream) Seek(offset int64, whence int) (int64, error) {
	return s.player.Seek(offset, whence)
}

func (s *otoStream) Close() error {
	s.player.Pause()
	return s.player.Close()
}
