// Package ui provides the terminal interface for elevengui.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/winedarkmoon/elevengui/internal/audio"
	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/preview"
	"github.com/winedarkmoon/elevengui/internal/record"
	"github.com/winedarkmoon/elevengui/internal/transcribe"
)

const statusMessageTimeout = time.Second * 3 // how long to show status messages like "copied!"

// Decoder turns API audio into a playable buffer.
type Decoder interface {
	Decode(ctx context.Context, data []byte) (*audio.Buffer, error)
}

// Services are the components the interface drives. Every field is required.
type Services struct {
	API         *elevenlabs.Service
	Player      *audio.Player
	Decoder     Decoder
	Previews    *preview.Player
	Recorder    *record.Recorder
	Transcriber *transcribe.Dispatcher
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, svc Services) *tea.Program {
	log.Debug(
		"Starting elevengui",
		"appearance", cfg.Appearance,
		"backends", svc.Transcriber.Registry().Names(),
	)

	var opts []tea.ProgramOption
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, svc)
	return tea.NewProgram(m, opts...)
}

// SettingsMsg applies configuration that changed while the program is
// running. Zero fields are left alone.
type SettingsMsg struct {
	Location   *time.Location
	Appearance string
	// PreviewCacheSize is the memory budget for preview clips in bytes.
	PreviewCacheSize int64
}

type tab int

const (
	tabSynthesize tab = iota
	tabHistory
	tabSpeechToText
)

var tabNames = []string{"Synthesize", "History", "Speech to Text"}

func (t tab) String() string {
	return tabNames[t]
}

// Common stuff we'll need to access in all models.
type commonModel struct {
	cfg    Config
	svc    Services
	width  int
	height int
}

// ctx returns a request context bounded by the configured timeout.
func (c commonModel) ctx() (context.Context, context.CancelFunc) {
	if c.cfg.RequestTimeout > 0 {
		return context.WithTimeout(context.Background(), c.cfg.RequestTimeout)
	}
	return context.WithCancel(context.Background())
}

type model struct {
	common     *commonModel
	tab        tab
	appearance string

	voices  []elevenlabs.Voice
	quota   elevenlabs.Quota
	quotaOK bool

	synth   synthModel
	history historyModel
	stt     sttModel
	bar     playerBar
	spinner spinner.Model

	// busy counts in-flight background commands that show the spinner.
	busy int

	statusMessage string
	statusIsError bool
	statusTimer   *time.Timer

	// fatalErr is set when the program can't continue; any key exits.
	fatalErr error
}

func newModel(cfg Config, svc Services) tea.Model {
	if cfg.Appearance == "" {
		cfg.Appearance = appearanceSystem
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 100 * time.Millisecond
	}
	applyAppearance(cfg.Appearance)

	common := &commonModel{cfg: cfg, svc: svc}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = focusedStyle

	return model{
		common:     common,
		appearance: cfg.Appearance,
		synth:      newSynthModel(common),
		history:    newHistoryModel(common),
		stt:        newSTTModel(common),
		bar:        newPlayerBar(common),
		spinner:    sp,
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		loadVoices(m.common),
		loadHistory(m.common),
		loadQuota(m.common),
		tickPlayer(m.common.cfg.TickInterval),
		m.spinner.Tick,
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.common.width = msg.Width
		m.common.height = msg.Height
		m.synth.setSize(msg.Width, msg.Height)
		m.history.setSize(msg.Width, msg.Height)
		m.stt.setSize(msg.Width)
		m.bar.setSize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		if cmd, handled := m.handleGlobalKey(msg); handled {
			return m, cmd
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case playerTickMsg:
		m.bar.refresh()
		m.stt.refresh()
		return m, tickPlayer(m.common.cfg.TickInterval)

	case voicesLoadedMsg:
		m.voices = msg.voices
		m.common.svc.Previews.SetVoices(msg.voices)
		m.synth.setVoices(msg.voices)
		m.history.setVoice(m.synth.selectedName())
		return m, nil

	case historyLoadedMsg:
		m.history.setItems(msg.items)
		return m, nil

	case quotaMsg:
		m.quota, m.quotaOK = msg.quota, msg.ok
		return m, nil

	case voiceSelectedMsg:
		m.history.setVoice(msg.name)
		return m, nil

	case audioReadyMsg:
		m.busy = max(m.busy-1, 0)
		if msg.origin == originSynthesis {
			m.synth.generating = false
			cmds = append(cmds, loadQuota(m.common), loadHistory(m.common))
		}
		if msg.err != nil {
			cmds = append(cmds, m.newStatusMessage(msg.err.Error(), true))
			return m, tea.Batch(cmds...)
		}
		if err := m.common.svc.Player.Load(msg.buf); err != nil {
			cmds = append(cmds, m.newStatusMessage(err.Error(), true))
			return m, tea.Batch(cmds...)
		}
		if err := m.common.svc.Player.Play(); err != nil {
			cmds = append(cmds, m.newStatusMessage(err.Error(), true))
		}
		m.bar.refresh()
		return m, tea.Batch(cmds...)

	case previewDoneMsg:
		m.busy = max(m.busy-1, 0)
		if msg.err != nil {
			return m, m.newStatusMessage(msg.err.Error(), true)
		}
		m.bar.refresh()
		return m, nil

	case recordingStartedMsg:
		if msg.err != nil {
			return m, m.newStatusMessage(msg.err.Error(), true)
		}
		m.stt.recording = true
		return m, m.newStatusMessage("Recording", false)

	case recordingStoppedMsg:
		m.stt.recording = false
		if msg.err != nil {
			return m, m.newStatusMessage(msg.err.Error(), true)
		}
		m.busy++
		m.stt.transcribing = true
		return m, transcribeFile(m.common, msg.rec.Path, m.stt.backend(), true)

	case transcribedMsg:
		m.busy = max(m.busy-1, 0)
		m.stt.transcribing = false
		if msg.temp {
			cmds = append(cmds, removeLater(msg.path, m.common.cfg.RemovalDelay))
		}
		if msg.err != nil {
			cmds = append(cmds, m.newStatusMessage(msg.err.Error(), true))
			return m, tea.Batch(cmds...)
		}
		m.stt.transcript = msg.text
		if msg.text != "" {
			m.synth.prependText(msg.text)
			cmds = append(cmds, m.newStatusMessage("Transcript added to the text box", false))
		}
		return m, tea.Batch(cmds...)

	case fileRemovedMsg:
		if msg.err != nil {
			return m, m.newStatusMessage("Temporary recording could not be removed", true)
		}
		return m, nil

	case previewsClearedMsg:
		if msg.err != nil {
			return m, m.newStatusMessage(msg.err.Error(), true)
		}
		return m, m.newStatusMessage("Preview cache cleared", false)

	case clipboardMsg:
		if msg.err != nil {
			return m, m.newStatusMessage("Clipboard unavailable", true)
		}
		if pasted := m.synth.paste(msg.text); pasted < len([]rune(msg.text)) {
			return m, m.newStatusMessage("Paste truncated to the character limit", false)
		}
		return m, nil

	case audioStatusMsg:
		return m, m.newStatusMessage(msg.err.Error(), true)

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		m.statusIsError = false
		return m, nil

	case SettingsMsg:
		if msg.Location != nil {
			m.common.cfg.Location = msg.Location
			m.history.refreshRows()
		}
		if msg.Appearance != "" && msg.Appearance != m.appearance {
			m.appearance = msg.Appearance
			applyAppearance(m.appearance)
		}
		if msg.PreviewCacheSize > 0 {
			m.common.svc.Previews.Resize(msg.PreviewCacheSize)
		}
		return m, nil

	case errMsg:
		m.fatalErr = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.tab {
	case tabSynthesize:
		m, cmd = m.updateSynth(msg)
	case tabHistory:
		m, cmd = m.updateHistory(msg)
	case tabSpeechToText:
		m, cmd = m.updateSTT(msg)
	}
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m *model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit, true

	case key.Matches(msg, keys.NextTab):
		m.setTab((m.tab + 1) % tab(len(tabNames)))
		return nil, true
	case key.Matches(msg, keys.TabSynth):
		m.setTab(tabSynthesize)
		return nil, true
	case key.Matches(msg, keys.TabHistory):
		m.setTab(tabHistory)
		return nil, true
	case key.Matches(msg, keys.TabSTT):
		m.setTab(tabSpeechToText)
		return nil, true

	case key.Matches(msg, keys.Appearance):
		m.appearance = nextAppearance(m.appearance)
		applyAppearance(m.appearance)
		return m.newStatusMessage("Appearance: "+m.appearance, false), true

	case key.Matches(msg, keys.ClearCache):
		return clearPreviews(m.common), true

	case key.Matches(msg, keys.PlayPause):
		return m.bar.toggle(), true
	case key.Matches(msg, keys.Stop):
		return m.bar.stop(), true
	case key.Matches(msg, keys.SeekBack):
		return m.bar.seek(-seekStep), true
	case key.Matches(msg, keys.SeekForward):
		return m.bar.seek(seekStep), true

	case key.Matches(msg, keys.Record):
		if m.stt.transcribing {
			return m.newStatusMessage("Transcription in progress", false), true
		}
		if m.stt.recording {
			return stopRecording(m.common), true
		}
		return startRecording(m.common), true
	}
	return nil, false
}

func (m *model) setTab(t tab) {
	m.tab = t
	m.synth.blur()
	m.history.blur()
	m.stt.blur()
	switch t {
	case tabSynthesize:
		m.synth.focus()
	case tabHistory:
		m.history.focus()
	case tabSpeechToText:
		m.stt.focus()
	}
}

// newStatusMessage shows a transient message in the status bar.
func (m *model) newStatusMessage(s string, isError bool) tea.Cmd {
	m.statusMessage = s
	m.statusIsError = isError
	if m.statusTimer != nil {
		m.statusTimer.Stop()
	}
	m.statusTimer = time.NewTimer(statusMessageTimeout)
	return waitForStatusMessageTimeout(m.statusTimer)
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}
	if m.common.width == 0 {
		return ""
	}

	var body string
	switch m.tab {
	case tabSynthesize:
		body = m.synth.View()
	case tabHistory:
		body = m.history.View()
	case tabSpeechToText:
		body = m.stt.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		"",
		body,
		"",
		m.bar.View(),
		m.statusBarView(),
	)
}

func (m model) headerView() string {
	var tabs []string
	for i, name := range tabNames {
		if tab(i) == m.tab {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	quota := "quota unavailable"
	if m.quotaOK {
		quota = m.quota.String()
	}

	left := logoView() + " " + strings.Join(tabs, "")
	right := subtleStyle.Render(quota)
	gap := m.common.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (m model) statusBarView() string {
	help := statusBarHelpStyle(" ctrl+t tabs • ctrl+p play • f5 theme • ctrl+c quit ")

	var note string
	switch {
	case m.statusMessage != "" && m.statusIsError:
		note = errorTitleStyle.Render(m.statusMessage)
	case m.statusMessage != "":
		note = statusBarMessageStyle(" " + m.statusMessage + " ")
	case m.busy > 0:
		note = statusBarNoteStyle(" " + m.spinner.View() + " working")
	default:
		note = statusBarNoteStyle(fmt.Sprintf(" %d voices • %s", len(m.voices), previewCacheLabel(m.common.svc.Previews.Stats())))
	}

	pad := m.common.width - lipgloss.Width(note) - lipgloss.Width(help)
	if pad < 0 {
		pad = 0
	}
	return note + statusBarNoteStyle(strings.Repeat(" ", pad)) + help
}

// previewCacheLabel summarizes preview cache use, e.g. "2 previews, 1.2 MiB".
func previewCacheLabel(s preview.Stats) string {
	items, size := s.Memory.ItemCount, s.Memory.Size
	if s.Disk != nil {
		items = max(items, s.Disk.ItemCount)
		size += s.Disk.Size
	}
	return fmt.Sprintf("%d previews, %s", items, humanize.IBytes(uint64(size)))
}
