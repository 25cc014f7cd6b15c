package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/hudtoast/internal/model"
)

// palette is the border, accent and pulse colour of one presentation type.
type palette struct {
	Border lipgloss.Color
	Accent lipgloss.Color
	Pulse  lipgloss.Color
}

var palettes = map[model.Type]palette{
	model.TypeError:     {Border: "#b91c1c", Accent: "#f87171"},
	model.TypeSuccess:   {Border: "#047857", Accent: "#34d399"},
	model.TypeInfo:      {Border: "#1d4ed8", Accent: "#60a5fa"},
	model.TypeWarning:   {Border: "#b45309", Accent: "#fbbf24"},
	model.TypePolice:    {Border: "#2563eb", Accent: "#93c5fd", Pulse: "#3b82f6"},
	model.TypeEMS:       {Border: "#dc2626", Accent: "#fca5a5", Pulse: "#ef4444"},
	model.TypeNews:      {Border: "#7e22ce", Accent: "#c084fc"},
	model.TypeCityAlert: {Border: "#c2410c", Accent: "#fb923c"},
	model.TypeCustom:    {Border: "#334155", Accent: "#94a3b8"},
}

// paletteFor returns the palette for a notification. Custom toasts may
// override the accent and background.
func paletteFor(n *model.Notification) palette {
	p := palettes[n.Type.Presentation()]
	if n.Type == model.TypeCustom && n.Color != "" {
		p.Accent = lipgloss.Color(n.Color)
	}
	return p
}

// icon returns the glyph shown at the left of a toast.
func icon(n *model.Notification) string {
	if n.Type == model.TypeCustom && n.Icon != "" {
		return n.Icon
	}
	if s := n.Type.Symbol(); s != "" {
		return s
	}
	return "🔔"
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("8"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("10"))
)
