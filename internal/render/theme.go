package render

import "github.com/charmbracelet/lipgloss"

// Theme holds the colors used by every renderer.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color
	Header     lipgloss.Color
	Accent     lipgloss.Color
	Unread     lipgloss.Color
	Pending    lipgloss.Color
	Failed     lipgloss.Color
	Denied     lipgloss.Color
}

var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("243"),
	Header:     lipgloss.Color("75"),
	Accent:     lipgloss.Color("212"),
	Unread:     lipgloss.Color("220"),
	Pending:    lipgloss.Color("245"),
	Failed:     lipgloss.Color("196"),
	Denied:     lipgloss.Color("208"),
}

// icons maps the route icon names to a single glyph for the terminal.
var icons = map[string]string{
	"Car":           "🚗",
	"Calendar":      "📅",
	"ShoppingBag":   "🛍",
	"Search":        "🔍",
	"Briefcase":     "💼",
	"MessageSquare": "💬",
}

func iconFor(name string) string {
	if glyph, ok := icons[name]; ok {
		return glyph
	}
	return "•"
}
