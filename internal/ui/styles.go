package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/deepgram/oppositegpt/internal/chat"
)

// Styles groups the lipgloss styles the chat view draws with
type Styles struct {
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Body      lipgloss.Style
	Typing    lipgloss.Style
	Composer  lipgloss.Style
	Footer    lipgloss.Style
	SendOn    lipgloss.Style
	SendOff   lipgloss.Style
	Error     lipgloss.Style
}

var (
	accent = lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"}
	muted  = lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"}
	green  = lipgloss.AdaptiveColor{Light: "#047857", Dark: "#34D399"}
	red    = lipgloss.AdaptiveColor{Light: "#B91C1C", Dark: "#F87171"}
)

// DefaultStyles returns the stock palette
func DefaultStyles() Styles {
	return Styles{
		Title:     lipgloss.NewStyle().Bold(true).Foreground(accent),
		Subtitle:  lipgloss.NewStyle().Italic(true).Foreground(muted),
		User:      lipgloss.NewStyle().Bold(true).Foreground(green),
		Assistant: lipgloss.NewStyle().Bold(true).Foreground(accent),
		Body:      lipgloss.NewStyle().PaddingLeft(2),
		Typing:    lipgloss.NewStyle().PaddingLeft(2).Foreground(muted),
		Composer: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent),
		Footer:  lipgloss.NewStyle().Foreground(muted),
		SendOn:  lipgloss.NewStyle().Bold(true).Foreground(green),
		SendOff: lipgloss.NewStyle().Faint(true),
		Error:   lipgloss.NewStyle().Foreground(red),
	}
}

func (s Styles) stateStyle(state chat.ConnectionState) lipgloss.Style {
	switch state {
	case chat.StateOpen:
		return s.Footer.Foreground(green)
	case chat.StateErrored:
		return s.Error
	default:
		return s.Footer
	}
}
