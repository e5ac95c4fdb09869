package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-audio/wav"
)

// ErrDecode is wrapped by every decoding failure.
var ErrDecode = errors.New("audio decode failed")

// maxPCMSize bounds decoder output (about ten minutes at device rate).
const maxPCMSize = 100 * 1024 * 1024

// Decoder turns encoded audio bytes into a Buffer. WAV is decoded in
// process; anything else (the API's MP3) goes through ffmpeg.
type Decoder struct {
	FFmpegPath string
	TempDir    string
	Timeout    time.Duration
}

// NewDecoder returns a decoder using ffmpeg from PATH.
func NewDecoder() *Decoder {
	return &Decoder{
		FFmpegPath: "ffmpeg",
		TempDir:    os.TempDir(),
		Timeout:    15 * time.Second,
	}
}

// IsWAV reports whether data starts with a RIFF/WAVE header.
func IsWAV(data []byte) bool {
	return len(data) >= 12 && string(data[0:4]) == "RIFF" && string(data[8:12]) == "WAVE"
}

// Decode decodes data into PCM in the device format.
func (d *Decoder) Decode(ctx context.Context, data []byte) (*Buffer, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	if IsWAV(data) {
		buf, err := DecodeWAV(data)
		if err != nil {
			return nil, err
		}
		return buf.ForDevice(), nil
	}
	return d.decodeFFmpeg(ctx, data)
}

// DecodeFile reads and decodes the file at path.
func (d *Decoder) DecodeFile(ctx context.Context, path string) (*Buffer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return d.Decode(ctx, data)
}

// DecodeWAV decodes an uncompressed PCM WAV file of any bit depth into 16-bit
// samples, keeping its channel count and sample rate.
func DecodeWAV(data []byte) (*Buffer, error) {
	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrDecode)
	}
	ib, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if ib.Format == nil || ib.Format.NumChannels < 1 {
		return nil, fmt.Errorf("%w: missing format", ErrDecode)
	}

	shift := int(dec.BitDepth) - 16
	samples := make([]int16, len(ib.Data))
	for i, v := range ib.Data {
		switch {
		case shift > 0:
			v >>= shift
		case shift < 0:
			// 8-bit WAV is unsigned.
			if dec.BitDepth == 8 {
				v -= 128
			}
			v <<= -shift
		}
		samples[i] = int16(v)
	}

	n := len(samples) - len(samples)%ib.Format.NumChannels
	return NewBuffer(samples[:n], ib.Format.NumChannels, ib.Format.SampleRate)
}

// decodeFFmpeg writes data to a temp file and asks ffmpeg for raw s16le at
// the device rate and channel count.
func (d *Decoder) decodeFFmpeg(ctx context.Context, data []byte) (*Buffer, error) {
	in, err := os.CreateTemp(d.TempDir, "elevengui-*.mp3")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(in.Name())

	if _, err := in.Write(data); err != nil {
		in.Close()
		return nil, fmt.Errorf("failed to write temp file: %w", err)
	}
	in.Close()

	args := []string{
		"-i", in.Name(),
		"-f", "s16le",
		"-ar", strconv.Itoa(DeviceSampleRate),
		"-ac", strconv.Itoa(DeviceChannels),
		"-",
	}

	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, d.ffmpeg(), args...)
	cmd.Stdin = strings.NewReader("")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: ffmpeg timeout: %v", ErrDecode, ctx.Err())
		}
		return nil, fmt.Errorf("%w: ffmpeg failed: %v, stderr: %s", ErrDecode, err, stderr.String())
	}

	pcm := stdout.Bytes()
	if len(pcm) == 0 {
		return nil, fmt.Errorf("%w: ffmpeg produced no output, stderr: %s", ErrDecode, stderr.String())
	}
	if len(pcm) > maxPCMSize {
		return nil, fmt.Errorf("%w: output too large: %d bytes", ErrDecode, len(pcm))
	}
	frame := bytesPerSample * DeviceChannels
	pcm = pcm[:len(pcm)-len(pcm)%frame]

	log.Debug("Decoded with ffmpeg", "input", len(data), "pcm", len(pcm))
	return FromPCMBytes(pcm, DeviceChannels, DeviceSampleRate)
}

func (d *Decoder) ffmpeg() string {
	if d.FFmpegPath == "" {
		return "ffmpeg"
	}
	return d.FFmpegPath
}

// CheckFFmpeg verifies that ffmpeg can be executed.
func (d *Decoder) CheckFFmpeg() error {
	path, err := exec.LookPath(d.ffmpeg())
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	if err := exec.Command(path, "-version").Run(); err != nil {
		return fmt.Errorf("cannot execute ffmpeg: %w", err)
	}
	return nil
}
