package ui

import (
	"errors"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/record"
)

// errSynthesisFailed is shown when the API returned no audio. The cause is
// already in the log.
var errSynthesisFailed = errors.New("generation failed, see the log for details")

var errNoHistoryAudio = errors.New("could not fetch audio for this item")

type keyMap struct {
	Quit        key.Binding
	NextTab     key.Binding
	TabSynth    key.Binding
	TabHistory  key.Binding
	TabSTT      key.Binding
	Appearance  key.Binding
	ClearCache  key.Binding
	PlayPause   key.Binding
	Stop        key.Binding
	SeekBack    key.Binding
	SeekForward key.Binding
	Record      key.Binding

	Generate   key.Binding
	Preview    key.Binding
	Paste      key.Binding
	FocusNext  key.Binding
	FocusPrev  key.Binding
	Reload     key.Binding
	Select     key.Binding
	NextEngine key.Binding
}

var keys = keyMap{
	Quit:        key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	NextTab:     key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "next tab")),
	TabSynth:    key.NewBinding(key.WithKeys("f1"), key.WithHelp("f1", "synthesize")),
	TabHistory:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("f2", "history")),
	TabSTT:      key.NewBinding(key.WithKeys("f3"), key.WithHelp("f3", "speech to text")),
	Appearance:  key.NewBinding(key.WithKeys("f5"), key.WithHelp("f5", "appearance")),
	ClearCache:  key.NewBinding(key.WithKeys("f4"), key.WithHelp("f4", "clear preview cache")),
	PlayPause:   key.NewBinding(key.WithKeys("ctrl+p"), key.WithHelp("ctrl+p", "play/pause")),
	Stop:        key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "stop")),
	SeekBack:    key.NewBinding(key.WithKeys("ctrl+left"), key.WithHelp("ctrl+←", "back 5s")),
	SeekForward: key.NewBinding(key.WithKeys("ctrl+right"), key.WithHelp("ctrl+→", "forward 5s")),
	Record:      key.NewBinding(key.WithKeys("ctrl+r"), key.WithHelp("ctrl+r", "record")),

	Generate:   key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("ctrl+g", "generate")),
	Preview:    key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("ctrl+o", "preview voice")),
	Paste:      key.NewBinding(key.WithKeys("ctrl+v"), key.WithHelp("ctrl+v", "paste")),
	FocusNext:  key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next field")),
	FocusPrev:  key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous field")),
	Reload:     key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "reload")),
	Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
	NextEngine: key.NewBinding(key.WithKeys("ctrl+e"), key.WithHelp("ctrl+e", "switch backend")),
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type audioOrigin int

const (
	originSynthesis audioOrigin = iota
	originHistory
)

type (
	voicesLoadedMsg  struct{ voices []elevenlabs.Voice }
	historyLoadedMsg struct{ items []elevenlabs.HistoryItem }
	quotaMsg         struct {
		quota elevenlabs.Quota
		ok    bool
	}
	voiceSelectedMsg struct{ name string }
	audioReadyMsg    struct {
		origin audioOrigin
		buf    *audio.Buffer
		err    error
	}
	previewDoneMsg      struct{ err error }
	recordingStartedMsg struct{ err error }
	recordingStoppedMsg struct {
		rec record.Recording
		err error
	}
	transcribedMsg struct {
		path string
		temp bool
		text string
		err  error
	}
	fileRemovedMsg struct {
		path string
		err  error
	}
	previewsClearedMsg struct{ err error }
	clipboardMsg       struct {
		text string
		err  error
	}
	playerTickMsg           time.Time
	statusMessageTimeoutMsg struct{}
)

func loadVoices(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		return voicesLoadedMsg{voices: c.svc.API.Voices(ctx)}
	}
}

func loadHistory(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		return historyLoadedMsg{items: c.svc.API.History(ctx)}
	}
}

func loadQuota(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		q, ok := c.svc.API.Quota(ctx)
		return quotaMsg{quota: q, ok: ok}
	}
}

func synthesize(c *commonModel, text, voiceID string, settings elevenlabs.VoiceSettings) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		data := c.svc.API.Synthesize(ctx, text, voiceID, settings)
		if len(data) == 0 {
			return audioReadyMsg{origin: originSynthesis, err: errSynthesisFailed}
		}
		buf, err := c.svc.Decoder.Decode(ctx, data)
		return audioReadyMsg{origin: originSynthesis, buf: buf, err: err}
	}
}

func fetchHistoryAudio(c *commonModel, itemID string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		data := c.svc.API.HistoryAudio(ctx, itemID)
		if len(data) == 0 {
			return audioReadyMsg{origin: originHistory, err: errNoHistoryAudio}
		}
		buf, err := c.svc.Decoder.Decode(ctx, data)
		return audioReadyMsg{origin: originHistory, buf: buf, err: err}
	}
}

func playPreview(c *commonModel, voiceName string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		return previewDoneMsg{err: c.svc.Previews.Preview(ctx, voiceName)}
	}
}

func startRecording(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		return recordingStartedMsg{err: c.svc.Recorder.Start()}
	}
}

func stopRecording(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		rec, err := c.svc.Recorder.Stop(ctx)
		return recordingStoppedMsg{rec: rec, err: err}
	}
}

// transcribeFile runs speech to text on path. temp marks files the UI
// created and must delete afterwards.
func transcribeFile(c *commonModel, path, backend string, temp bool) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := c.ctx()
		defer cancel()
		text, err := c.svc.Transcriber.Transcribe(ctx, path, backend)
		return transcribedMsg{path: path, temp: temp, text: text, err: err}
	}
}

// removeLater deletes a temporary recording once the grace period is over.
func removeLater(path string, delay time.Duration) tea.Cmd {
	return func() tea.Msg {
		done := make(chan error, 1)
		record.ScheduleRemoval(path, delay, func(err error) { done <- err })
		return fileRemovedMsg{path: path, err: <-done}
	}
}

func clearPreviews(c *commonModel) tea.Cmd {
	return func() tea.Msg {
		return previewsClearedMsg{err: c.svc.Previews.Clear()}
	}
}

func readClipboard() tea.Msg {
	text, err := clipboard.ReadAll()
	return clipboardMsg{text: text, err: err}
}

func tickPlayer(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return playerTickMsg(t)
	})
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}
