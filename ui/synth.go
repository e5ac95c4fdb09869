package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sahilm/fuzzy"

	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/textutil"
)

const (
	defaultSliderValue = 75
	sliderStep         = 5
	sliderWidth        = 20
	visibleVoices      = 6
)

type synthFocus int

const (
	focusText synthFocus = iota
	focusFilter
	focusVoices
	focusStability
	focusClarity
	focusCount
)

type synthModel struct {
	common *commonModel
	text   textarea.Model
	filter textinput.Model

	voices   []elevenlabs.Voice
	matches  []int // indexes into voices, best match first
	cursor   int   // index into matches
	selected string

	// Slider positions in percent.
	stability int
	clarity   int

	focused    synthFocus
	generating bool
}

func newSynthModel(common *commonModel) synthModel {
	ta := textarea.New()
	ta.Placeholder = "Type or paste the text to speak…"
	ta.CharLimit = textutil.MaxCharacters
	ta.ShowLineNumbers = false
	ta.SetHeight(6)
	ta.Focus()

	fi := textinput.New()
	fi.Placeholder = "filter voices"
	fi.Prompt = "/ "

	return synthModel{
		common:    common,
		text:      ta,
		filter:    fi,
		stability: defaultSliderValue,
		clarity:   defaultSliderValue,
	}
}

func (s *synthModel) setSize(w, h int) {
	s.text.SetWidth(max(w-4, 20))
	s.text.SetHeight(max(h-24, 3))
	s.filter.Width = max(w/3, 10)
}

// setVoices replaces the voice list, keeping the selection when the voice
// still exists and otherwise selecting the first one.
func (s *synthModel) setVoices(voices []elevenlabs.Voice) {
	s.voices = voices
	if _, ok := elevenlabs.FindVoice(voices, s.selected); !ok {
		s.selected = ""
		if len(voices) > 0 {
			s.selected = voices[0].Name
		}
	}
	s.applyFilter()
}

func (s *synthModel) applyFilter() {
	s.cursor = 0
	s.matches = s.matches[:0]
	pattern := strings.TrimSpace(s.filter.Value())
	if pattern == "" {
		for i := range s.voices {
			s.matches = append(s.matches, i)
		}
		return
	}
	names := make([]string, len(s.voices))
	for i, v := range s.voices {
		names[i] = v.Name
	}
	for _, match := range fuzzy.Find(pattern, names) {
		s.matches = append(s.matches, match.Index)
	}
}

func (s synthModel) selectedName() string {
	return s.selected
}

// highlighted returns the voice under the list cursor.
func (s synthModel) highlighted() (elevenlabs.Voice, bool) {
	if s.cursor < 0 || s.cursor >= len(s.matches) {
		return elevenlabs.Voice{}, false
	}
	return s.voices[s.matches[s.cursor]], true
}

func (s synthModel) settings() elevenlabs.VoiceSettings {
	return elevenlabs.VoiceSettings{
		Stability:       float64(s.stability) / 100,
		SimilarityBoost: float64(s.clarity) / 100,
	}
}

// paste inserts clipboard text, cut to the characters still available, and
// returns how many characters were inserted.
func (s *synthModel) paste(text string) int {
	clip := textutil.ClampPaste(textutil.CharCount(s.text.Value()), text)
	s.text.InsertString(clip)
	return textutil.CharCount(clip)
}

// prependText puts a transcript at the start of the text box.
func (s *synthModel) prependText(text string) {
	cur := s.text.Value()
	if cur != "" {
		text += " "
	}
	clip := textutil.ClampPaste(textutil.CharCount(cur), text)
	s.text.SetValue(clip + cur)
}

func (s *synthModel) cycleFocus(delta int) {
	s.focused = (s.focused + synthFocus(delta) + focusCount) % focusCount
	s.text.Blur()
	s.filter.Blur()
	switch s.focused {
	case focusText:
		s.text.Focus()
	case focusFilter:
		s.filter.Focus()
	}
}

func (s *synthModel) focus() {
	s.cycleFocus(0)
}

func (s *synthModel) blur() {
	s.text.Blur()
	s.filter.Blur()
}

func adjust(v, delta int) int {
	return min(max(v+delta, 0), 100)
}

func (m model) updateSynth(msg tea.Msg) (model, tea.Cmd) {
	s := &m.synth

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Generate):
			return m, m.generate()
		case key.Matches(msg, keys.Preview):
			return m, m.preview()
		case key.Matches(msg, keys.Paste) && s.focused == focusText:
			return m, readClipboard
		case key.Matches(msg, keys.Reload):
			return m, loadVoices(m.common)
		case key.Matches(msg, keys.FocusNext):
			s.cycleFocus(1)
			return m, nil
		case key.Matches(msg, keys.FocusPrev):
			s.cycleFocus(-1)
			return m, nil
		}

		switch s.focused {
		case focusVoices:
			switch msg.String() {
			case "up", "k":
				s.cursor = max(s.cursor-1, 0)
			case "down", "j":
				s.cursor = min(s.cursor+1, max(len(s.matches)-1, 0))
			case "enter":
				if v, ok := s.highlighted(); ok {
					s.selected = v.Name
					return m, func() tea.Msg { return voiceSelectedMsg{name: v.Name} }
				}
			}
			return m, nil
		case focusStability, focusClarity:
			delta := 0
			switch msg.String() {
			case "left", "h":
				delta = -sliderStep
			case "right", "l":
				delta = sliderStep
			}
			if s.focused == focusStability {
				s.stability = adjust(s.stability, delta)
			} else {
				s.clarity = adjust(s.clarity, delta)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch s.focused {
	case focusText:
		s.text, cmd = s.text.Update(msg)
	case focusFilter:
		before := s.filter.Value()
		s.filter, cmd = s.filter.Update(msg)
		if s.filter.Value() != before {
			s.applyFilter()
		}
	}
	return m, cmd
}

func (m *model) generate() tea.Cmd {
	s := &m.synth
	if s.generating {
		return nil
	}
	voice, ok := elevenlabs.FindVoice(m.voices, s.selected)
	if !ok {
		return m.newStatusMessage("Select a voice first", true)
	}
	text := s.text.Value()
	if !textutil.CanGenerate(text) {
		return m.newStatusMessage(fmt.Sprintf("Text must be 1 to %d characters", textutil.MaxCharacters-1), true)
	}
	s.generating = true
	m.busy++
	return synthesize(m.common, text, voice.VoiceID, s.settings())
}

func (m *model) preview() tea.Cmd {
	name := m.synth.selected
	if m.synth.focused == focusVoices {
		if v, ok := m.synth.highlighted(); ok {
			name = v.Name
		}
	}
	if name == "" {
		return m.newStatusMessage("No voice to preview", true)
	}
	m.busy++
	return playPreview(m.common, name)
}

func (s synthModel) View() string {
	var b strings.Builder

	counter := textutil.CounterLabel(s.text.Value())
	if n := textutil.CharCount(s.text.Value()); n > 0 && !textutil.CanGenerate(s.text.Value()) {
		counter = warnStyle.Render(counter)
	} else {
		counter = subtleStyle.Render(counter)
	}
	fmt.Fprintf(&b, "%s %s\n", s.label("Text", focusText), counter)
	b.WriteString(s.text.View())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "%s %s\n", s.label("Voice", focusVoices), s.filter.View())
	b.WriteString(s.voiceListView())
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n", s.label("Stability", focusStability), sliderView(s.stability))
	fmt.Fprintf(&b, "%s %s\n", s.label("Clarity + Similarity", focusClarity), sliderView(s.clarity))
	b.WriteString("\n")

	if s.generating {
		b.WriteString(subtleStyle.Render("Generating…"))
	} else {
		b.WriteString(helpViewStyle("ctrl+g generate • ctrl+o preview • ctrl+v paste • tab next field"))
	}
	return indent(b.String(), 1)
}

func (s synthModel) label(name string, f synthFocus) string {
	if s.focused == f || (f == focusVoices && s.focused == focusFilter) {
		return focusedStyle.Render(name)
	}
	return labelStyle.Render(name)
}

func (s synthModel) voiceListView() string {
	if len(s.voices) == 0 {
		return subtleStyle.Render("  no voices loaded (ctrl+l to retry)") + "\n"
	}
	if len(s.matches) == 0 {
		return subtleStyle.Render("  no match") + "\n"
	}

	start := 0
	if s.cursor >= visibleVoices {
		start = s.cursor - visibleVoices + 1
	}
	end := min(start+visibleVoices, len(s.matches))

	var b strings.Builder
	for i := start; i < end; i++ {
		v := s.voices[s.matches[i]]
		prefix := "  "
		if i == s.cursor && s.focused == focusVoices {
			prefix = focusedStyle.Render("› ")
		}
		name := v.Name
		if v.Name == s.selected {
			name = selectedStyle.Render("● " + name)
		} else {
			name = "  " + name
		}
		if s.common.svc.Previews.Cached(v.Name) {
			name += subtleStyle.Render(" ♪")
		}
		b.WriteString(prefix + name + "\n")
	}
	return b.String()
}

func sliderView(percent int) string {
	pos := percent * (sliderWidth - 1) / 100
	track := strings.Repeat("━", pos) + "●" + strings.Repeat("─", sliderWidth-1-pos)
	return fmt.Sprintf("%s %3d%%", track, percent)
}
