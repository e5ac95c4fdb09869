package ui

import (
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/textutil"
)

const seekStep = 5 * time.Second

// playerBar mirrors the player's position. It is refreshed on every tick.
type playerBar struct {
	common   *commonModel
	progress progress.Model
	last     audio.Progress
	loaded   bool
}

func newPlayerBar(common *commonModel) playerBar {
	return playerBar{
		common:   common,
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
}

func (b *playerBar) setSize(w int) {
	b.progress.Width = max(w-24, 10)
}

func (b *playerBar) refresh() {
	p := b.common.svc.Player
	b.loaded = p.Loaded()
	b.last = p.Progress()
}

func (b *playerBar) toggle() tea.Cmd {
	_, err := b.common.svc.Player.Toggle()
	b.refresh()
	return playerErr(err)
}

func (b *playerBar) stop() tea.Cmd {
	err := b.common.svc.Player.Stop()
	b.refresh()
	return playerErr(err)
}

func (b *playerBar) seek(delta time.Duration) tea.Cmd {
	if !b.loaded {
		return nil
	}
	err := b.common.svc.Player.Seek(b.last.Elapsed + delta)
	b.refresh()
	return playerErr(err)
}

// playerErr reports player failures through the status bar. A missing
// buffer is not worth a message.
func playerErr(err error) tea.Cmd {
	if err == nil || errors.Is(err, audio.ErrNoAudioLoaded) {
		return nil
	}
	return func() tea.Msg {
		return audioStatusMsg{err: err}
	}
}

type audioStatusMsg struct{ err error }

// glyph shows pause only while audio is audibly playing; a session past the
// finish threshold already reads as done.
func (b playerBar) glyph() string {
	if b.last.State == audio.StatePlaying && !b.last.Finished {
		return "⏸"
	}
	return "▶"
}

func (b playerBar) View() string {
	if !b.loaded {
		return subtleStyle.Render(" ▶ 0:00 ") + b.progress.ViewAs(0) + subtleStyle.Render(" 0:00")
	}
	return fmt.Sprintf(" %s %s %s %s",
		b.glyph(),
		textutil.FormatClock(b.last.Elapsed),
		b.progress.ViewAs(b.last.Percent/100),
		textutil.FormatClock(b.last.Total),
	)
}
