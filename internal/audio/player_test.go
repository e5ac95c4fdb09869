package audio

import (
	"errors"
	"math"
	"sync"
	"testing"
	"time"
)

const testBlock = 1024

// blockBytes is one test block of stereo s16 frames.
const blockBytes = testBlock * DeviceChannels * bytesPerSample

func getTestPlayer(t *testing.T) (*Player, *MockDevice) {
	t.Helper()
	dev := NewMockDevice()
	p, err := NewPlayer(dev, PlayerConfig{BlockFrames: testBlock})
	if err != nil {
		t.Fatalf("NewPlayer() error = %v", err)
	}
	return p, dev
}

func loadSecond(t *testing.T, p *Player) {
	t.Helper()
	if err := p.Load(Silence(time.Second, 2, DeviceSampleRate)); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestNewPlayer(t *testing.T) {
	tests := []struct {
		name      string
		device    Device
		config    PlayerConfig
		expectErr bool
	}{
		{"default config", NewMockDevice(), DefaultPlayerConfig(), false},
		{"custom block", NewMockDevice(), PlayerConfig{BlockFrames: 512}, false},
		{"nil device", nil, DefaultPlayerConfig(), true},
		{"zero block", NewMockDevice(), PlayerConfig{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlayer(tt.device, tt.config)
			if (err != nil) != tt.expectErr {
				t.Errorf("NewPlayer() error = %v, expectErr %v", err, tt.expectErr)
			}
		})
	}
}

func TestPlayerRequiresAudio(t *testing.T) {
	p, _ := getTestPlayer(t)

	ops := map[string]func() error{
		"play":   p.Play,
		"pause":  p.Pause,
		"resume": p.Resume,
		"stop":   p.Stop,
		"seek":   func() error { return p.Seek(time.Second) },
	}
	for name, op := range ops {
		if err := op(); !errors.Is(err, ErrNoAudioLoaded) {
			t.Errorf("%s without audio: got %v, want ErrNoAudioLoaded", name, err)
		}
	}

	if pr := p.Progress(); pr.State != StateStopped || pr.Percent != 0 {
		t.Errorf("Progress() without audio = %+v", pr)
	}
	if err := p.Load(nil); err == nil {
		t.Error("Load(nil) should fail")
	}
}

func TestPlayerPlayPauseResume(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatalf("Play() error = %v", err)
	}
	if p.State() != StatePlaying {
		t.Fatalf("state = %v, want playing", p.State())
	}

	if n := dev.Pull(blockBytes); n != blockBytes {
		t.Fatalf("Pull() = %d, want %d", n, blockBytes)
	}
	pr := p.Progress()
	wantElapsed := time.Duration(testBlock) * time.Second / DeviceSampleRate
	if pr.Elapsed != wantElapsed {
		t.Errorf("Elapsed = %v, want %v", pr.Elapsed, wantElapsed)
	}
	if pr.Total != time.Second {
		t.Errorf("Total = %v, want 1s", pr.Total)
	}

	if err := p.Pause(); err != nil {
		t.Fatalf("Pause() error = %v", err)
	}
	if n := dev.Pull(blockBytes); n != 0 {
		t.Errorf("paused stream delivered %d bytes", n)
	}
	if got := p.Progress().Elapsed; got != wantElapsed {
		t.Errorf("Elapsed moved while paused: %v", got)
	}

	if err := p.Resume(); err != nil {
		t.Fatalf("Resume() error = %v", err)
	}
	dev.Pull(blockBytes)
	if got := p.Progress().Elapsed; got != 2*wantElapsed {
		t.Errorf("Elapsed after resume = %v, want %v", got, 2*wantElapsed)
	}
	if dev.Opened() != 1 {
		t.Errorf("resume opened a new stream: opened = %d", dev.Opened())
	}
}

func TestPlayerInvalidTransitions(t *testing.T) {
	p, _ := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Pause(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Pause() while stopped = %v, want ErrInvalidTransition", err)
	}
	if err := p.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume() while stopped = %v, want ErrInvalidTransition", err)
	}

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Play() while playing = %v, want ErrInvalidTransition", err)
	}
	if err := p.Resume(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Resume() while playing = %v, want ErrInvalidTransition", err)
	}
}

func TestPlayerNaturalCompletion(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	dev.Drain()

	pr := p.Progress()
	if !pr.Finished {
		t.Error("expected Finished after drain")
	}
	if pr.Percent != 100 {
		t.Errorf("Percent = %v, want 100", pr.Percent)
	}
	if pr.State != StateStopped {
		t.Errorf("State = %v, want stopped", pr.State)
	}
	if pr.Elapsed != pr.Total {
		t.Errorf("Elapsed = %v, want %v", pr.Elapsed, pr.Total)
	}
	if !dev.Current().Closed() {
		t.Error("stream should be released after finish")
	}
	if !p.Loaded() {
		t.Error("buffer should stay loaded after finish")
	}

	// Play again restarts from the beginning.
	state, err := p.Toggle()
	if err != nil {
		t.Fatalf("Toggle() error = %v", err)
	}
	if state != StatePlaying {
		t.Errorf("Toggle() state = %v, want playing", state)
	}
	if pr := p.Progress(); pr.Elapsed != 0 || pr.Finished {
		t.Errorf("replay Progress() = %+v, want start", pr)
	}
}

func TestPlayerPlaysOutBufferedTail(t *testing.T) {
	p, dev := getTestPlayer(t)
	dev.SetReadAhead(4 * blockBytes)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	dev.Pull(blockBytes)
	wantElapsed := time.Duration(testBlock) * time.Second / DeviceSampleRate
	if got := p.Progress().Elapsed; got != wantElapsed {
		t.Errorf("Elapsed = %v, want %v (audible, not read position)", got, wantElapsed)
	}

	for !p.src.Exhausted() {
		if dev.Pull(blockBytes) == 0 {
			t.Fatal("stream stopped before the source was exhausted")
		}
	}
	if dev.Current().BufferedSize() == 0 {
		t.Fatal("expected frames still buffered in the device")
	}

	pr := p.Progress()
	if pr.State != StatePlaying {
		t.Errorf("State = %v, want playing while the tail is buffered", pr.State)
	}
	if dev.Current().Closed() {
		t.Error("stream closed before the buffered tail played")
	}

	dev.Drain()
	pr = p.Progress()
	if pr.State != StateStopped || !pr.Finished {
		t.Errorf("Progress() after drain = %+v, want stopped and finished", pr)
	}
	if !dev.Current().Closed() {
		t.Error("stream should be released after the tail played")
	}
}

func TestPlayerSeekWakesParkedStream(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	// Hand every frame to the device without checking state, so the
	// stream parks itself at EOF while the session is still playing.
	dev.Drain()
	if dev.Current().IsPlaying() {
		t.Fatal("stream should park at EOF")
	}

	if err := p.Seek(500 * time.Millisecond); err != nil {
		t.Fatalf("Seek() error = %v", err)
	}
	if !dev.Current().IsPlaying() {
		t.Error("Seek() should restart a parked stream")
	}
	if pr := p.Progress(); pr.State != StatePlaying || pr.Finished {
		t.Errorf("Progress() after seek = %+v", pr)
	}
}

func TestPlayerFinishThreshold(t *testing.T) {
	p, _ := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		at       time.Duration
		finished bool
	}{
		{"half", 500 * time.Millisecond, false},
		{"just under", 940 * time.Millisecond, false},
		{"over threshold", 960 * time.Millisecond, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Seek(tt.at); err != nil {
				t.Fatalf("Seek() error = %v", err)
			}
			pr := p.Progress()
			if pr.Finished != tt.finished {
				t.Errorf("Finished = %v, want %v (percent %.2f)", pr.Finished, tt.finished, pr.Percent)
			}
			if tt.finished && pr.Percent != 100 {
				t.Errorf("Percent = %v, want snapped to 100", pr.Percent)
			}
			if pr.State != StatePlaying {
				t.Errorf("State = %v, want playing", pr.State)
			}
		})
	}
}

func TestPlayerStop(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)

	if err := p.Play(); err != nil {
		t.Fatal(err)
	}
	dev.Pull(4 * blockBytes)
	if err := p.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}

	pr := p.Progress()
	if pr.State != StateStopped || pr.Elapsed != 0 {
		t.Errorf("Progress() after stop = %+v", pr)
	}
	if !dev.Current().Closed() {
		t.Error("Stop() should close the stream")
	}
	if err := p.Stop(); err != nil {
		t.Errorf("Stop() while stopped = %v", err)
	}
}

func TestPlayerSeekClamps(t *testing.T) {
	p, _ := getTestPlayer(t)
	loadSecond(t, p)

	tests := []struct {
		name string
		to   time.Duration
		want time.Duration
	}{
		{"negative", -time.Second, 0},
		{"middle", 500 * time.Millisecond, 500 * time.Millisecond},
		{"past end", 10 * time.Second, time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := p.Seek(tt.to); err != nil {
				t.Fatalf("Seek() error = %v", err)
			}
			if got := p.Progress().Elapsed; got != tt.want {
				t.Errorf("Elapsed = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPlayerLoadReplacesSession(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}

	mono, err := NewBuffer(make([]int16, 22050), 1, 22050)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Load(mono); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if dev.Closed() != 1 {
		t.Errorf("previous stream not closed: closed = %d", dev.Closed())
	}
	pr := p.Progress()
	if pr.State != StateStopped {
		t.Errorf("State = %v, want stopped", pr.State)
	}
	if pr.Total != time.Second {
		t.Errorf("Total = %v, want 1s after conversion", pr.Total)
	}

	p.Unload()
	if p.Loaded() {
		t.Error("Unload() left a buffer loaded")
	}
}

func TestPlayerCursorNeverExceedsLength(t *testing.T) {
	p, dev := getTestPlayer(t)
	// An odd length so the last block is partial.
	buf := Silence(time.Second+333*time.Microsecond, 2, DeviceSampleRate)
	if err := p.Load(buf); err != nil {
		t.Fatal(err)
	}
	if err := p.Play(); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 100; i++ {
		dev.Pull(3 * blockBytes)
		pr := p.Progress()
		if pr.Elapsed > pr.Total {
			t.Fatalf("Elapsed %v exceeds Total %v", pr.Elapsed, pr.Total)
		}
		if pr.Percent > 100 || math.IsNaN(pr.Percent) {
			t.Fatalf("Percent out of range: %v", pr.Percent)
		}
	}
}

func TestPlayerConcurrentAccess(t *testing.T) {
	p, dev := getTestPlayer(t)
	loadSecond(t, p)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = p.Toggle()
				dev.Pull(blockBytes)
				_ = p.Progress()
			}
		}()
	}
	wg.Wait()

	if err := p.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestTransition(t *testing.T) {
	tests := []struct {
		from    State
		ev      Event
		want    State
		wantErr bool
	}{
		{StateStopped, EventPlay, StatePlaying, false},
		{StateStopped, EventStop, StateStopped, false},
		{StateStopped, EventPause, StateStopped, true},
		{StateStopped, EventResume, StateStopped, true},
		{StateStopped, EventFinish, StateStopped, true},
		{StatePlaying, EventPause, StatePaused, false},
		{StatePlaying, EventStop, StateStopped, false},
		{StatePlaying, EventFinish, StateStopped, false},
		{StatePlaying, EventPlay, StatePlaying, true},
		{StatePaused, EventResume, StatePlaying, false},
		{StatePaused, EventStop, StateStopped, false},
		{StatePaused, EventPlay, StatePaused, true},
		{StatePaused, EventFinish, StatePaused, true},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.ev.String(), func(t *testing.T) {
			got, err := Transition(tt.from, tt.ev)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Transition() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Transition() = %v, want %v", got, tt.want)
			}
		})
	}
}
