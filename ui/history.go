package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/muesli/reflow/truncate"

	"github.com/winedarkmoon/elevengui/internal/elevenlabs"
	"github.com/winedarkmoon/elevengui/internal/textutil"
)

// detailWidth is the wrap width of the selected item's full text.
const detailWidth = 75

type historyModel struct {
	common *commonModel
	table  table.Model

	all   []elevenlabs.HistoryItem
	shown []elevenlabs.HistoryItem
	voice string
}

func newHistoryModel(common *commonModel) historyModel {
	t := table.New(
		table.WithColumns(historyColumns(80)),
		table.WithHeight(10),
	)
	return historyModel{common: common, table: t}
}

func historyColumns(width int) []table.Column {
	const date, chars, settings = 16, 6, 10
	text := max(width-date-chars-settings-10, 10)
	return []table.Column{
		{Title: "Date", Width: date},
		{Title: "Chars", Width: chars},
		{Title: "Settings", Width: settings},
		{Title: "Text", Width: text},
	}
}

func (h *historyModel) setSize(w, hgt int) {
	h.table.SetColumns(historyColumns(w))
	h.table.SetWidth(w - 2)
	h.table.SetHeight(max(hgt-20, 4))
	h.refreshRows()
}

func (h *historyModel) setItems(items []elevenlabs.HistoryItem) {
	h.all = items
	h.refreshRows()
}

// setVoice limits the table to items generated with name.
func (h *historyModel) setVoice(name string) {
	h.voice = name
	h.table.SetCursor(0)
	h.refreshRows()
}

func (h *historyModel) refreshRows() {
	h.shown = elevenlabs.FilterHistory(h.all, h.voice)
	textWidth := h.table.Columns()[3].Width

	rows := make([]table.Row, 0, len(h.shown))
	for _, it := range h.shown {
		rows = append(rows, table.Row{
			textutil.UnixToDate(it.DateUnix, h.common.cfg.Location),
			fmt.Sprint(it.CharacterCount),
			settingsLabel(it.Settings),
			truncate.StringWithTail(firstLine(it.Text), uint(textWidth), ellipsis),
		})
	}
	h.table.SetRows(rows)
	if c := h.table.Cursor(); c >= len(rows) {
		h.table.SetCursor(max(len(rows)-1, 0))
	}
}

func settingsLabel(s elevenlabs.VoiceSettings) string {
	return fmt.Sprintf("S%d C%d", int(s.Stability*100+0.5), int(s.SimilarityBoost*100+0.5))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func (h historyModel) current() (elevenlabs.HistoryItem, bool) {
	c := h.table.Cursor()
	if c < 0 || c >= len(h.shown) {
		return elevenlabs.HistoryItem{}, false
	}
	return h.shown[c], true
}

func (h *historyModel) focus() { h.table.Focus() }
func (h *historyModel) blur()  { h.table.Blur() }

func (m model) updateHistory(msg tea.Msg) (model, tea.Cmd) {
	h := &m.history
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.Select):
			it, ok := h.current()
			if !ok {
				return m, nil
			}
			m.busy++
			return m, fetchHistoryAudio(m.common, it.HistoryItemID)
		case key.Matches(msg, keys.Reload):
			return m, loadHistory(m.common)
		}
	}

	var cmd tea.Cmd
	h.table, cmd = h.table.Update(msg)
	return m, cmd
}

func (h historyModel) View() string {
	var b strings.Builder

	title := "All voices"
	if h.voice != "" {
		title = h.voice
	}
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("History"), subtleStyle.Render(title))

	if len(h.shown) == 0 {
		b.WriteString(subtleStyle.Render("No history for this voice (ctrl+l to reload)"))
		return indent(b.String(), 1)
	}

	b.WriteString(h.table.View())
	b.WriteString("\n\n")
	if it, ok := h.current(); ok {
		b.WriteString(textutil.WrapText(it.Text, detailWidth))
		b.WriteString("\n\n")
	}
	b.WriteString(helpViewStyle("enter play • ctrl+l reload • ↑/↓ move"))
	return indent(b.String(), 1)
}
