package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/winedarkmoon/elevengui/internal/config"
	"github.com/winedarkmoon/elevengui/internal/textutil"
	"github.com/winedarkmoon/elevengui/internal/transcribe"
)

type sttModel struct {
	common *commonModel
	path   textinput.Model

	backends []string
	chosen   int

	recording    bool
	elapsed      time.Duration
	transcribing bool
	transcript   string
}

func newSTTModel(common *commonModel) sttModel {
	ti := textinput.New()
	ti.Placeholder = "path to an audio file"
	ti.Prompt = "> "

	s := sttModel{
		common:   common,
		path:     ti,
		backends: common.svc.Transcriber.Registry().Names(),
	}
	for i, name := range s.backends {
		if name == common.cfg.Backend {
			s.chosen = i
		}
	}
	return s
}

// backend returns the chosen backend name, or "" when there is none.
func (s sttModel) backend() string {
	if len(s.backends) == 0 {
		return ""
	}
	return s.backends[s.chosen]
}

func (s *sttModel) setSize(w int) {
	s.path.Width = max(w-10, 10)
}

func (s *sttModel) refresh() {
	if s.recording {
		s.elapsed = s.common.svc.Recorder.Elapsed()
	}
}

func (s *sttModel) focus() { s.path.Focus() }
func (s *sttModel) blur()  { s.path.Blur() }

func (m model) updateSTT(msg tea.Msg) (model, tea.Cmd) {
	s := &m.stt
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.NextEngine):
			if len(s.backends) > 1 {
				s.chosen = (s.chosen + 1) % len(s.backends)
			}
			return m, nil
		case key.Matches(msg, keys.Select):
			path := config.ExpandPath(strings.TrimSpace(s.path.Value()))
			if path == "" || s.transcribing {
				return m, nil
			}
			s.transcribing = true
			m.busy++
			return m, transcribeFile(m.common, path, s.backend(), false)
		}
	}

	var cmd tea.Cmd
	s.path, cmd = s.path.Update(msg)
	return m, cmd
}

func (s sttModel) View() string {
	var b strings.Builder

	b.WriteString(labelStyle.Render("Backend") + " ")
	switch len(s.backends) {
	case 0:
		b.WriteString(warnStyle.Render(transcribe.ErrNoBackendAvailable.Error()))
	case 1:
		b.WriteString(transcribe.Label(s.backend()))
	default:
		for i, name := range s.backends {
			if i == s.chosen {
				b.WriteString(selectedStyle.Render("● "+transcribe.Label(name)) + "  ")
			} else {
				b.WriteString(subtleStyle.Render("○ "+transcribe.Label(name)) + "  ")
			}
		}
		b.WriteString(subtleStyle.Render("(ctrl+e)"))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("Microphone") + " ")
	switch {
	case s.recording:
		b.WriteString(warnStyle.Render(fmt.Sprintf("● recording %s", textutil.FormatClock(s.elapsed))))
		b.WriteString(subtleStyle.Render("  ctrl+r to stop"))
	case s.transcribing:
		b.WriteString(subtleStyle.Render("transcribing…"))
	default:
		b.WriteString(subtleStyle.Render("ctrl+r to record"))
	}
	b.WriteString("\n\n")

	b.WriteString(labelStyle.Render("File") + "\n")
	b.WriteString(s.path.View())
	b.WriteString("\n\n")

	if s.transcript != "" {
		b.WriteString(labelStyle.Render("Last transcript") + "\n")
		b.WriteString(textutil.WrapText(s.transcript, detailWidth))
		b.WriteString("\n")
	}
	return indent(b.String(), 1)
}
