package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

const ellipsis = "…"

var (
	normalFg = lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#dddddd"}
	dimFg    = lipgloss.AdaptiveColor{Light: "#A49FA5", Dark: "#777777"}

	cream     = lipgloss.AdaptiveColor{Light: "#FFFDF5", Dark: "#FFFDF5"}
	fuchsia   = lipgloss.Color("#EE6FF8")
	green     = lipgloss.Color("#04B575")
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(cream).
			Background(lipgloss.Color("#5A56E0")).
			Bold(true)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(fuchsia).
			Bold(true).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(dimFg).
				Padding(0, 1)

	subtleStyle     = lipgloss.NewStyle().Foreground(dimFg)
	errorTitleStyle = lipgloss.NewStyle().Foreground(cream).Background(red).Padding(0, 1)
	labelStyle      = lipgloss.NewStyle().Foreground(normalFg).Bold(true)
	focusedStyle    = lipgloss.NewStyle().Foreground(fuchsia)
	selectedStyle   = lipgloss.NewStyle().Foreground(green).Bold(true)
	warnStyle       = lipgloss.NewStyle().Foreground(red)

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarHelpStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(lipgloss.AdaptiveColor{Light: "#DCDCDC", Dark: "#323232"}).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	helpViewStyle = lipgloss.NewStyle().
			Foreground(statusBarNoteFg).
			Render
)

// Appearance modes.
const (
	appearanceSystem = "system"
	appearanceDark   = "dark"
	appearanceLight  = "light"
)

var appearanceModes = []string{appearanceSystem, appearanceDark, appearanceLight}

// applyAppearance points lipgloss' adaptive colors at the chosen mode.
func applyAppearance(mode string) {
	switch mode {
	case appearanceDark:
		lipgloss.SetHasDarkBackground(true)
	case appearanceLight:
		lipgloss.SetHasDarkBackground(false)
	default:
		lipgloss.SetHasDarkBackground(termenv.HasDarkBackground())
	}
}

func nextAppearance(mode string) string {
	for i, m := range appearanceModes {
		if m == mode {
			return appearanceModes[(i+1)%len(appearanceModes)]
		}
	}
	return appearanceSystem
}

func logoView() string {
	return logoStyle.Render(" ElevenGUI ")
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// Lightweight version of reflow's indent function.
func indent(s string, n int) string {
	if n <= 0 || s == "" {
		return s
	}
	l := strings.Split(s, "\n")
	b := strings.Builder{}
	i := strings.Repeat(" ", n)
	for _, v := range l {
		fmt.Fprintf(&b, "%s%s\n", i, v)
	}
	return b.String()
}
