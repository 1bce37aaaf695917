package cli

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/chatline/internal/transcript"
)

// Theme holds the color scheme for the chat view and notices.
type Theme struct {
	User    lipgloss.Color
	Bot     lipgloss.Color
	System  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	User:    lipgloss.Color("#5FAFD7"), // light blue
	Bot:     lipgloss.Color("#AF87FF"), // lavender
	System:  lipgloss.Color("#FFAF00"), // amber
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) senderStyle(s transcript.Sender) lipgloss.Style {
	switch s {
	case transcript.User:
		return lipgloss.NewStyle().Foreground(t.User).Bold(true)
	case transcript.System:
		return lipgloss.NewStyle().Foreground(t.System).Bold(true)
	default:
		return lipgloss.NewStyle().Foreground(t.Bot).Bold(true)
	}
}

func (t Theme) successStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

func (t Theme) headerStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Padding(0, 1).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(t.Hint)
}

// senderLabel is the name shown in front of an entry.
func senderLabel(s transcript.Sender) string {
	switch s {
	case transcript.User:
		return "Tú"
	case transcript.System:
		return "Sistema"
	default:
		return "Bot"
	}
}
