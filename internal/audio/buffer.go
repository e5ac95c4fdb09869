package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// Output format of the playback device.
const (
	DeviceSampleRate = 44100
	DeviceChannels   = 2
	bytesPerSample   = 2
)

// Buffer holds decoded signed 16-bit PCM, interleaved by channel.
type Buffer struct {
	Samples    []int16
	Channels   int
	SampleRate int
}

// NewBuffer validates and wraps samples.
func NewBuffer(samples []int16, channels, sampleRate int) (*Buffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("channels must be positive, got %d", channels)
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("sample count %d is not aligned to %d channels", len(samples), channels)
	}
	return &Buffer{Samples: samples, Channels: channels, SampleRate: sampleRate}, nil
}

// Silence returns a buffer of zeros lasting d.
func Silence(d time.Duration, channels, sampleRate int) *Buffer {
	frames := int(d.Seconds() * float64(sampleRate))
	return &Buffer{
		Samples:    make([]int16, frames*channels),
		Channels:   channels,
		SampleRate: sampleRate,
	}
}

// Frames returns the number of sample frames (one sample per channel).
func (b *Buffer) Frames() int {
	if b == nil || b.Channels == 0 {
		return 0
	}
	return len(b.Samples) / b.Channels
}

// Duration returns the playing time of the buffer.
func (b *Buffer) Duration() time.Duration {
	if b == nil || b.SampleRate == 0 {
		return 0
	}
	return time.Duration(b.Frames()) * time.Second / time.Duration(b.SampleRate)
}

// Size returns the memory footprint of the samples in bytes.
func (b *Buffer) Size() int64 {
	if b == nil {
		return 0
	}
	return int64(len(b.Samples) * bytesPerSample)
}

// Stereo returns b as two-channel audio. Mono input is duplicated to both
// channels; inputs with more than two channels keep their first two.
func (b *Buffer) Stereo() *Buffer {
	switch b.Channels {
	case 2:
		return b
	case 1:
		out := make([]int16, len(b.Samples)*2)
		for i, s := range b.Samples {
			out[2*i] = s
			out[2*i+1] = s
		}
		return &Buffer{Samples: out, Channels: 2, SampleRate: b.SampleRate}
	default:
		frames := b.Frames()
		out := make([]int16, frames*2)
		for f := 0; f < frames; f++ {
			out[2*f] = b.Samples[f*b.Channels]
			out[2*f+1] = b.Samples[f*b.Channels+1]
		}
		return &Buffer{Samples: out, Channels: 2, SampleRate: b.SampleRate}
	}
}

// Resample converts b to rate with linear interpolation between frames.
func (b *Buffer) Resample(rate int) *Buffer {
	if b.SampleRate == rate || b.Frames() == 0 {
		return &Buffer{Samples: b.Samples, Channels: b.Channels, SampleRate: rate}
	}

	ratio := float64(rate) / float64(b.SampleRate)
	inFrames := b.Frames()
	outFrames := int(float64(inFrames) * ratio)
	out := make([]int16, outFrames*b.Channels)

	for i := 0; i < outFrames; i++ {
		pos := float64(i) / ratio
		idx := int(pos)
		frac := pos - float64(idx)
		for ch := 0; ch < b.Channels; ch++ {
			if idx >= inFrames-1 {
				out[i*b.Channels+ch] = b.Samples[(inFrames-1)*b.Channels+ch]
				continue
			}
			s1 := float64(b.Samples[idx*b.Channels+ch])
			s2 := float64(b.Samples[(idx+1)*b.Channels+ch])
			out[i*b.Channels+ch] = int16(s1*(1-frac) + s2*frac)
		}
	}
	return &Buffer{Samples: out, Channels: b.Channels, SampleRate: rate}
}

// ForDevice returns b converted to the device format.
func (b *Buffer) ForDevice() *Buffer {
	return b.Stereo().Resample(DeviceSampleRate)
}

// Append concatenates other onto b along the time axis. Formats must match.
func (b *Buffer) Append(other *Buffer) error {
	if other.Channels != b.Channels || other.SampleRate != b.SampleRate {
		return errors.New("cannot append buffers of different formats")
	}
	b.Samples = append(b.Samples, other.Samples...)
	return nil
}

// PCMBytes encodes the samples as little-endian s16.
func (b *Buffer) PCMBytes() []byte {
	out := make([]byte, len(b.Samples)*bytesPerSample)
	for i, s := range b.Samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

// FromPCMBytes decodes little-endian s16 data.
func FromPCMBytes(data []byte, channels, sampleRate int) (*Buffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("channels must be positive, got %d", channels)
	}
	if len(data)%(bytesPerSample*channels) != 0 {
		return nil, fmt.Errorf("PCM data length %d is not aligned to %d-byte frames", len(data), bytesPerSample*channels)
	}
	samples := make([]int16, len(data)/bytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return NewBuffer(samples, channels, sampleRate)
}
