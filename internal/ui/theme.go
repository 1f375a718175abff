package ui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines colors for the UI.
type Theme struct {
	Name string

	Background string // outermost background
	Surface    string // header and command bar
	FocusBg    string // focused pane

	SelectionBg   string
	SelectionText string

	Border      string
	BorderFocus string

	Text    string
	Muted   string
	Faint   string
	Accent  string
	Success string
	Warning string
	Danger  string
}

// Styles returns Lipgloss styles for this theme.
func (t Theme) Styles() Styles {
	fg := func(c string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}
	return Styles{
		Text:        fg(t.Text),
		MutedText:   fg(t.Muted),
		FaintText:   fg(t.Faint),
		AccentText:  fg(t.Accent),
		SuccessText: fg(t.Success).Bold(true),
		WarningText: fg(t.Warning),
		DangerText:  fg(t.Danger).Bold(true),

		Bar: lipgloss.NewStyle().
			Background(lipgloss.Color(t.Surface)).
			Foreground(lipgloss.Color(t.Text)).
			Padding(0, 1),
		Logo: fg(t.Warning).Bold(true),
		Selected: lipgloss.NewStyle().
			Background(lipgloss.Color(t.SelectionBg)).
			Foreground(lipgloss.Color(t.SelectionText)),
		Key: fg(t.Accent),
	}
}

// Styles contains pre-built Lipgloss styles for the theme.
type Styles struct {
	Text        lipgloss.Style
	MutedText   lipgloss.Style
	FaintText   lipgloss.Style
	AccentText  lipgloss.Style
	SuccessText lipgloss.Style
	WarningText lipgloss.Style
	DangerText  lipgloss.Style

	Bar      lipgloss.Style
	Logo     lipgloss.Style
	Selected lipgloss.Style
	Key      lipgloss.Style
}

// Box draws a bordered pane of the given outer size.
func (t Theme) Box(focused bool, width, height int) lipgloss.Style {
	border := t.Border
	if focused {
		border = t.BorderFocus
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(border)).
		Width(max(width-2, 0)).
		Height(max(height-2, 0))
}

var themes = map[string]Theme{
	"Slate":    slateTheme(),
	"Nightfox": nightfoxTheme(),
	"Paper":    paperTheme(),
}

var themeOrder = []string{"Slate", "Nightfox", "Paper"}

// DefaultThemeName is used when no preference is stored.
const DefaultThemeName = "Slate"

// GetTheme returns a theme by name.
func GetTheme(name string) Theme {
	if t, ok := themes[name]; ok {
		return t
	}
	return slateTheme()
}

// NextTheme returns the next theme name in the cycle.
func NextTheme(current string) string {
	for i, name := range themeOrder {
		if name == current {
			return themeOrder[(i+1)%len(themeOrder)]
		}
	}
	return themeOrder[0]
}

// ThemeNames returns available theme names.
func ThemeNames() []string {
	return themeOrder
}

func slateTheme() Theme {
	// Tailwind CSS slate/sky: https://tailwindcss.com/docs/colors
	return Theme{
		Name:          "Slate",
		Background:    "#020617", // slate-950
		Surface:       "#0f172a", // slate-900
		FocusBg:       "#1e293b", // slate-800
		SelectionBg:   "#0284c7", // sky-600
		SelectionText: "#f8fafc", // slate-50
		Border:        "#334155", // slate-700
		BorderFocus:   "#38bdf8", // sky-400
		Text:          "#f1f5f9", // slate-100
		Muted:         "#94a3b8", // slate-400
		Faint:         "#64748b", // slate-500
		Accent:        "#38bdf8", // sky-400
		Success:       "#4ade80", // green-400
		Warning:       "#f59e0b", // amber-500
		Danger:        "#ef4444", // red-500
	}
}

func nightfoxTheme() Theme {
	// https://github.com/EdenEast/nightfox.nvim
	return Theme{
		Name:          "Nightfox",
		Background:    "#131a24",
		Surface:       "#192330",
		FocusBg:       "#212e3f",
		SelectionBg:   "#2b3b51",
		SelectionText: "#cdcecf",
		Border:        "#39506d",
		BorderFocus:   "#719cd6",
		Text:          "#cdcecf",
		Muted:         "#738091",
		Faint:         "#71839b",
		Accent:        "#719cd6",
		Success:       "#81b29a",
		Warning:       "#dbc074",
		Danger:        "#c94f6d",
	}
}

func paperTheme() Theme {
	// For light terminals.
	return Theme{
		Name:          "Paper",
		Background:    "#ffffff",
		Surface:       "#f1f5f9",
		FocusBg:       "#e2e8f0",
		SelectionBg:   "#bae6fd",
		SelectionText: "#0f172a",
		Border:        "#cbd5e1",
		BorderFocus:   "#0284c7",
		Text:          "#0f172a",
		Muted:         "#475569",
		Faint:         "#94a3b8",
		Accent:        "#0369a1",
		Success:       "#15803d",
		Warning:       "#b45309",
		Danger:        "#b91c1c",
	}
}
