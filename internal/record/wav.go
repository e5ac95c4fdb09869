package record

import (
	"fmt"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// BitDepth of recorded WAV files.
const BitDepth = 24

// WriteWAV writes interleaved integer samples as a PCM WAV file. Samples are
// expected at the given bit depth. An empty slice writes a valid file with
// no frames.
func WriteWAV(path string, samples []int, channels, sampleRate, bitDepth int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFileIO, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, bitDepth, channels, 1)
	buf := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: channels,
			SampleRate:  sampleRate,
		},
		Data:           samples,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		enc.Close()
		return fmt.Errorf("%w: write wav: %v", ErrFileIO, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("%w: finalize wav: %v", ErrFileIO, err)
	}
	return nil
}

// to24 narrows a full-scale 32-bit sample to 24 bits.
func to24(v int32) int {
	return int(v >> 8)
}
