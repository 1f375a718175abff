package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

func (m Model) sidebarWidth() int {
	if m.width < LayoutCompactWidth {
		return SidebarCompactWidth
	}
	return SidebarWidth
}

func (m Model) bodyHeight() int {
	return max(m.height-chromeHeight, 3)
}

// listRows is the number of post rows that fit under the search box and
// above the pagination strip.
func (m Model) listRows() int {
	// border (2) + search + rule + rule + pager
	return max(m.bodyHeight()-6, 1)
}

// renderSidebar renders the search box, the post list and the pagination
// strip.
func (m Model) renderSidebar() string {
	styles := m.theme.Styles()
	width := m.sidebarWidth()
	inner := width - 2
	rule := styles.FaintText.Render(strings.Repeat("─", inner))

	search := m.search
	search.Width = max(inner-len(search.Prompt)-1, 1)

	lines := []string{search.View(), rule}
	lines = append(lines, m.renderPostRows(inner)...)
	lines = append(lines, rule, m.renderPager(inner))

	focused := m.focus == paneList || m.focus == paneSearch
	return m.theme.Box(focused, width, m.bodyHeight()).Render(strings.Join(lines, "\n"))
}

func (m Model) renderPostRows(width int) []string {
	styles := m.theme.Styles()
	rows := m.listRows()
	posts := m.snapshot.Posts

	out := make([]string, 0, rows)
	if len(posts) == 0 {
		msg := "検索語を入力してください"
		if m.ownerOnly || m.search.Value() != "" {
			msg = "メモがありません"
		}
		out = append(out, styles.MutedText.Render(truncate(msg, width)))
	}

	start := 0
	if m.selectedRow >= rows {
		start = m.selectedRow - rows + 1
	}
	for i := start; i < len(posts) && len(out) < rows; i++ {
		p := posts[i]
		title := p.Title
		if strings.TrimSpace(title) == "" {
			title = "(無題)"
		}
		line := padRight(truncate(title, width-2), width-2)
		switch {
		case i == m.selectedRow && m.focus == paneList:
			line = styles.Selected.Render("▸ " + line)
		case p.ID == m.snapshot.SelectedID:
			line = styles.AccentText.Render("• " + line)
		default:
			line = styles.Text.Render("  " + line)
		}
		out = append(out, line)
	}
	for len(out) < rows {
		out = append(out, "")
	}
	return out
}

// renderPager renders the visible page slots with the current one
// highlighted.
func (m Model) renderPager(width int) string {
	styles := m.theme.Styles()
	slots := m.snapshot.Slots()
	if len(slots) == 0 {
		return ""
	}
	current := lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.SelectionBg)).
		Foreground(lipgloss.Color(m.theme.SelectionText)).
		Bold(true)

	parts := make([]string, 0, len(slots)+2)
	parts = append(parts, pagerArrow(styles, "‹", m.snapshot.Page > 0))
	for _, slot := range slots {
		label := slot.Label()
		switch {
		case slot.Gap:
			parts = append(parts, styles.FaintText.Render(label))
		case slot.Index == m.snapshot.Page:
			parts = append(parts, current.Render(" "+label+" "))
		default:
			parts = append(parts, styles.MutedText.Render(label))
		}
	}
	parts = append(parts, pagerArrow(styles, "›", m.snapshot.Page < m.snapshot.TotalPages-1))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, strings.Join(parts, " "))
}

func pagerArrow(styles Styles, arrow string, enabled bool) string {
	if enabled {
		return styles.AccentText.Render(arrow)
	}
	return styles.FaintText.Render(arrow)
}
