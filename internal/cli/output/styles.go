package output

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used in text mode.
type Styles struct {
	Header   lipgloss.Style
	Bold     lipgloss.Style
	Muted    lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style
	Info     lipgloss.Style
	Column   lipgloss.Style
	PassRate lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Bold:     r.NewStyle().Bold(true),
		Muted:    r.NewStyle().Foreground(lipgloss.Color("8")),
		Success:  r.NewStyle().Foreground(lipgloss.Color("10")),
		Warning:  r.NewStyle().Foreground(lipgloss.Color("11")),
		Error:    r.NewStyle().Foreground(lipgloss.Color("9")),
		Info:     r.NewStyle().Foreground(lipgloss.Color("14")),
		Column:   r.NewStyle().Foreground(lipgloss.Color("13")),
		PassRate: r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
	}
}

// SeverityStyle picks the style for a severity name.
func (s *Styles) SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "error":
		return s.Error
	case "warn":
		return s.Warning
	case "info":
		return s.Info
	default:
		return s.Muted
	}
}
