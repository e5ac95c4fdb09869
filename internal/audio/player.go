package audio

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNoAudioLoaded is returned by playback controls before Load.
var ErrNoAudioLoaded = errors.New("no audio loaded")

// FinishThreshold is the completion percentage at which progress snaps to
// 100 and the session counts as finished.
const FinishThreshold = 95.0

// Progress is a snapshot of the playback position.
type Progress struct {
	State    State
	Elapsed  time.Duration
	Total    time.Duration
	Percent  float64
	Finished bool
}

// Player owns one playback session at a time. All methods are safe for
// concurrent use; the device pulls samples on its own goroutine.
type Player struct {
	device      Device
	blockFrames int

	mu       sync.Mutex
	buf      *Buffer
	src      *source
	stream   Stream
	state    State
	finished bool
}

// PlayerConfig configures a Player.
type PlayerConfig struct {
	// BlockFrames is the number of frames per device pull.
	BlockFrames int
}

// DefaultPlayerConfig returns the default player configuration.
func DefaultPlayerConfig() PlayerConfig {
	return PlayerConfig{BlockFrames: DefaultBlockFrames}
}

// NewPlayer creates a player that opens streams on device.
func NewPlayer(device Device, config PlayerConfig) (*Player, error) {
	if device == nil {
		return nil, errors.New("audio device is required")
	}
	if config.BlockFrames <= 0 {
		return nil, fmt.Errorf("block size must be positive, got %d", config.BlockFrames)
	}
	return &Player{
		device:      device,
		blockFrames: config.BlockFrames,
		state:       StateStopped,
	}, nil
}

// Load replaces the current session with buf. Any open stream is closed and
// the previous buffer released.
func (p *Player) Load(buf *Buffer) error {
	if buf == nil || buf.Frames() == 0 {
		return errors.New("audio buffer is empty")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.buf = buf.ForDevice()
	p.src = newSource(p.buf, p.blockFrames)
	p.state = StateStopped
	p.finished = false

	log.Debug("Audio loaded", "duration", p.buf.Duration(), "frames", p.buf.Frames())
	return nil
}

// Unload stops playback and releases the buffer.
func (p *Player) Unload() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.releaseLocked()
	p.buf = nil
	p.src = nil
	p.state = StateStopped
	p.finished = false
}

// Loaded reports whether a buffer is loaded.
func (p *Player) Loaded() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf != nil
}

// Play opens a fresh stream from the current cursor and starts it.
func (p *Player) Play() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playLocked()
}

func (p *Player) playLocked() error {
	if p.buf == nil {
		return ErrNoAudioLoaded
	}
	to, err := Transition(p.state, EventPlay)
	if err != nil {
		return err
	}
	if p.finished || p.src.Exhausted() {
		p.src.setCursor(0)
		p.finished = false
	}

	p.stream = p.device.NewStream(p.src)
	p.stream.Play()
	p.state = to
	return nil
}

// Pause halts the stream without releasing it.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pauseLocked()
}

func (p *Player) pauseLocked() error {
	if p.buf == nil {
		return ErrNoAudioLoaded
	}
	to, err := Transition(p.state, EventPause)
	if err != nil {
		return err
	}
	p.stream.Pause()
	p.state = to
	return nil
}

// Resume restarts a paused stream.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.resumeLocked()
}

func (p *Player) resumeLocked() error {
	if p.buf == nil {
		return ErrNoAudioLoaded
	}
	to, err := Transition(p.state, EventResume)
	if err != nil {
		return err
	}
	p.stream.Play()
	p.state = to
	return nil
}

// Stop releases the stream and rewinds to the start. The buffer stays
// loaded.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buf == nil {
		return ErrNoAudioLoaded
	}
	to, err := Transition(p.state, EventStop)
	if err != nil {
		return err
	}
	p.closeStreamLocked()
	p.src.setCursor(0)
	p.state = to
	p.finished = false
	return nil
}

// Toggle is the play button: play when stopped, pause when playing, resume
// when paused.
func (p *Player) Toggle() (State, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checkFinishedLocked()

	var err error
	switch p.state {
	case StateStopped:
		err = p.playLocked()
	case StatePlaying:
		err = p.pauseLocked()
	case StatePaused:
		err = p.resumeLocked()
	}
	return p.state, err
}

// Seek moves the cursor to d, clamped to the buffer length.
func (p *Player) Seek(d time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buf == nil {
		return ErrNoAudioLoaded
	}
	frame := int(d.Seconds() * float64(p.buf.SampleRate))
	if frame < 0 {
		frame = 0
	}
	if frame > p.buf.Frames() {
		frame = p.buf.Frames()
	}
	p.finished = false

	if p.stream != nil {
		off := int64(frame * p.buf.Channels * bytesPerSample)
		if _, err := p.stream.Seek(off, io.SeekStart); err != nil {
			return fmt.Errorf("seek failed: %w", err)
		}
		// The device parks a stream that reached EOF; wake it after a
		// seek back into the buffer.
		if p.state == StatePlaying && !p.stream.IsPlaying() {
			p.stream.Play()
		}
		return nil
	}
	p.src.setCursor(frame)
	return nil
}

// State returns the current playback state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.checkFinishedLocked()
	return p.state
}

// Progress recomputes the audible position. Once it passes
// FinishThreshold percent the result snaps to 100 and reports Finished;
// when every frame has been played the session moves to Stopped.
func (p *Player) Progress() Progress {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.buf == nil {
		return Progress{State: StateStopped}
	}
	p.checkFinishedLocked()

	total := p.buf.Duration()
	frames := p.buf.Frames()
	if p.finished {
		return Progress{State: p.state, Elapsed: total, Total: total, Percent: 100, Finished: true}
	}

	cursor := p.audibleLocked()
	elapsed := time.Duration(cursor) * time.Second / time.Duration(p.buf.SampleRate)
	pct := 0.0
	if frames > 0 {
		pct = float64(cursor) / float64(frames) * 100
	}

	pr := Progress{State: p.state, Elapsed: elapsed, Total: total, Percent: pct}
	if pct >= FinishThreshold && p.state == StatePlaying {
		pr.Percent = 100
		pr.Finished = true
	}
	return pr
}

// Close stops playback and releases everything.
func (p *Player) Close() error {
	p.Unload()
	return nil
}

// audibleLocked returns the frame the listener is hearing: the source
// cursor minus what the device has buffered but not yet played.
func (p *Player) audibleLocked() int {
	cursor := p.src.Cursor()
	if p.stream != nil {
		cursor -= p.stream.BufferedSize() / p.src.frameBytes()
	}
	return max(cursor, 0)
}

// checkFinishedLocked moves a playing session to Stopped once its source is
// exhausted and the device has played out its backlog.
func (p *Player) checkFinishedLocked() {
	if p.state != StatePlaying || p.src == nil || !p.src.Exhausted() {
		return
	}
	if p.stream != nil && p.stream.IsPlaying() {
		return
	}
	to, err := Transition(p.state, EventFinish)
	if err != nil {
		return
	}
	p.closeStreamLocked()
	p.state = to
	p.finished = true
	log.Debug("Playback finished")
}

func (p *Player) closeStreamLocked() {
	if p.stream == nil {
		return
	}
	if err := p.stream.Close(); err != nil {
		log.Warn("Error closing audio stream", "err", err)
	}
	p.stream = nil
}

func (p *Player) releaseLocked() {
	p.closeStreamLocked()
	p.state = StateStopped
}
