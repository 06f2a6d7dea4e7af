package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

const maxWidth = 72

var (
	keywordStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#04B575"})

	subtleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"})

	paragraphStyle = lipgloss.NewStyle().
			Margin(0, 0, 0, 2)
)

func keyword(s string) string {
	return keywordStyle.Render(s)
}

func subtle(s string) string {
	return subtleStyle.Render(s)
}

func paragraph(s string) string {
	return paragraphStyle.Render(wordwrap.String(s, maxWidth))
}

func init() {
	// Styled output only makes sense on a terminal.
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
