package audio

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestNewBuffer(t *testing.T) {
	tests := []struct {
		name      string
		samples   []int16
		channels  int
		rate      int
		expectErr bool
	}{
		{"stereo", make([]int16, 8), 2, 44100, false},
		{"mono", make([]int16, 3), 1, 22050, false},
		{"misaligned", make([]int16, 3), 2, 44100, true},
		{"no channels", make([]int16, 4), 0, 44100, true},
		{"no rate", make([]int16, 4), 2, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBuffer(tt.samples, tt.channels, tt.rate)
			if (err != nil) != tt.expectErr {
				t.Errorf("NewBuffer() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestBufferDuration(t *testing.T) {
	b := Silence(2*time.Second, 2, 44100)
	if b.Frames() != 88200 {
		t.Errorf("Frames() = %d, want 88200", b.Frames())
	}
	if b.Duration() != 2*time.Second {
		t.Errorf("Duration() = %v, want 2s", b.Duration())
	}
	if b.Size() != 88200*2*2 {
		t.Errorf("Size() = %d", b.Size())
	}

	var nilBuf *Buffer
	if nilBuf.Frames() != 0 || nilBuf.Duration() != 0 {
		t.Error("nil buffer should be empty")
	}
}

func TestBufferStereo(t *testing.T) {
	mono := &Buffer{Samples: []int16{1, 2, 3}, Channels: 1, SampleRate: 8000}
	st := mono.Stereo()
	want := []int16{1, 1, 2, 2, 3, 3}
	if len(st.Samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(st.Samples), len(want))
	}
	for i := range want {
		if st.Samples[i] != want[i] {
			t.Errorf("sample %d = %d, want %d", i, st.Samples[i], want[i])
		}
	}

	quad := &Buffer{Samples: []int16{1, 2, 3, 4, 5, 6, 7, 8}, Channels: 4, SampleRate: 8000}
	st = quad.Stereo()
	if st.Channels != 2 || st.Samples[0] != 1 || st.Samples[1] != 2 || st.Samples[2] != 5 || st.Samples[3] != 6 {
		t.Errorf("quad.Stereo() = %v", st.Samples)
	}
}

func TestBufferResample(t *testing.T) {
	b := &Buffer{Samples: []int16{0, 100, 200, 300}, Channels: 1, SampleRate: 4}
	up := b.Resample(8)
	if up.Frames() != 8 {
		t.Fatalf("Frames() = %d, want 8", up.Frames())
	}
	if up.Samples[1] != 50 {
		t.Errorf("interpolated sample = %d, want 50", up.Samples[1])
	}
	if up.Duration() != b.Duration() {
		t.Errorf("duration changed: %v -> %v", b.Duration(), up.Duration())
	}

	same := b.Resample(4)
	if same.Frames() != 4 {
		t.Errorf("same-rate Resample() changed length")
	}
}

func TestPCMBytes(t *testing.T) {
	b := &Buffer{Samples: []int16{-1, 0, 32767, -32768}, Channels: 2, SampleRate: 44100}
	back, err := FromPCMBytes(b.PCMBytes(), 2, 44100)
	if err != nil {
		t.Fatal(err)
	}
	for i := range b.Samples {
		if back.Samples[i] != b.Samples[i] {
			t.Errorf("sample %d = %d, want %d", i, back.Samples[i], b.Samples[i])
		}
	}

	if _, err := FromPCMBytes([]byte{1, 2, 3}, 2, 44100); err == nil {
		t.Error("misaligned PCM should fail")
	}
	if _, err := FromPCMBytes([]byte{1, 2}, 0, 44100); err == nil {
		t.Error("zero channels should fail")
	}
}

func TestSourcePadsAndEnds(t *testing.T) {
	// 5 stereo frames, blocks of 4.
	buf := &Buffer{Samples: []int16{1, 1, 2, 2, 3, 3, 4, 4, 5, 5}, Channels: 2, SampleRate: 44100}
	src := newSource(buf, 4)
	block := make([]byte, 4*4)

	n, err := src.Read(block)
	if n != 16 || err != nil {
		t.Fatalf("first Read() = %d, %v", n, err)
	}
	if src.Cursor() != 4 {
		t.Errorf("Cursor() = %d, want 4", src.Cursor())
	}

	n, err = src.Read(block)
	if n != 16 || err != nil {
		t.Fatalf("second Read() = %d, %v", n, err)
	}
	if src.Cursor() != 5 {
		t.Errorf("Cursor() = %d, want 5", src.Cursor())
	}
	for i := 4; i < 16; i++ {
		if block[i] != 0 {
			t.Fatalf("tail not zero padded at byte %d", i)
		}
	}
	if !src.Exhausted() {
		t.Error("source should be exhausted")
	}

	if _, err := src.Read(block); !errors.Is(err, io.EOF) {
		t.Errorf("third Read() error = %v, want EOF", err)
	}

	pos, err := src.Seek(4, io.SeekStart)
	if err != nil || pos != 4 || src.Cursor() != 1 {
		t.Errorf("Seek() = %d, %v, cursor %d", pos, err, src.Cursor())
	}
	if _, err := src.Seek(0, io.SeekEnd); err != nil || src.Cursor() != 5 {
		t.Errorf("SeekEnd cursor = %d, err %v", src.Cursor(), err)
	}
	if _, err := src.Seek(-100, io.SeekStart); err == nil {
		t.Error("negative Seek() should fail")
	}
}

func TestSourceSmallRead(t *testing.T) {
	buf := Silence(10*time.Millisecond, 2, 44100)
	src := newSource(buf, 2048)

	// Smaller than a block, and not frame aligned.
	n, err := src.Read(make([]byte, 10))
	if err != nil {
		t.Fatal(err)
	}
	if n != 8 {
		t.Errorf("Read() = %d, want 8 (two whole frames)", n)
	}
}
