// Package textutil holds the small text helpers shared by the TUI and the
// headless subcommands: word wrapping, timestamp and clock formatting, and
// the synthesis character limit.
package textutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// MaxCharacters is the maximum number of characters accepted for a single
// synthesis request.
const MaxCharacters = 5000

// DateLayout is the layout used for history timestamps (month.day.year, 24h).
const DateLayout = "01.02.06, 15:04"

// WrapText breaks text into lines no wider than width display cells. Runs of
// whitespace are normalized to single spaces. A word wider than width gets a
// line of its own and is never split.
func WrapText(text string, width int) string {
	return strings.Join(WrapLines(text, width), "\n")
}

// WrapLines is WrapText returning the individual lines.
func WrapLines(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if width <= 0 {
		return []string{strings.Join(words, " ")}
	}

	var (
		lines []string
		line  strings.Builder
		cur   int
	)
	for _, w := range words {
		ww := runewidth.StringWidth(w)
		switch {
		case cur == 0:
			line.WriteString(w)
			cur = ww
		case cur+1+ww <= width:
			line.WriteByte(' ')
			line.WriteString(w)
			cur += 1 + ww
		default:
			lines = append(lines, line.String())
			line.Reset()
			line.WriteString(w)
			cur = ww
		}
	}
	if line.Len() > 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// UnixToDate formats a unix timestamp in loc. A nil loc means time.Local.
func UnixToDate(sec int64, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(sec, 0).In(loc).Format(DateLayout)
}

// FormatClock renders d as m:ss, truncating fractional seconds.
func FormatClock(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// CharCount reports the number of characters in s as the limit counts them.
func CharCount(s string) int {
	return len([]rune(s))
}

// CanGenerate reports whether text is acceptable for synthesis: non-empty and
// under the character limit.
func CanGenerate(text string) bool {
	n := CharCount(text)
	return n > 0 && n < MaxCharacters
}

// ClampPaste returns the prefix of pasted that still fits after current
// characters are already in the buffer.
func ClampPaste(current int, pasted string) string {
	remaining := MaxCharacters - current
	if remaining <= 0 {
		return ""
	}
	r := []rune(pasted)
	if len(r) <= remaining {
		return pasted
	}
	return string(r[:remaining])
}

// CounterLabel renders the "n/5000" counter shown beside the text box.
func CounterLabel(text string) string {
	return fmt.Sprintf("%d/%d", CharCount(text), MaxCharacters)
}
