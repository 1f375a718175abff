package ui

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// logState holds the client log view.
type logState struct {
	lines    []string
	follow   bool
	err      error
	viewport viewport.Model
}

var levelRe = regexp.MustCompile(`(?:level=|"level":")(DEBUG|INFO|WARN|ERROR)`)

func (m *Model) resizeLogs() {
	// header, command bar, title line and box border
	w := max(m.width-4, 10)
	h := max(m.height-chromeHeight-3, 1)
	if m.logs.viewport.Width == 0 {
		m.logs.viewport = viewport.New(w, h)
	}
	m.logs.viewport.Width = w
	m.logs.viewport.Height = h
	m.refreshLogs()
}

func (m *Model) handleLogLines(msg logLinesMsg) {
	m.logs.err = msg.err
	if msg.err != nil {
		m.logger.Warn("read client log failed", slog.String("path", m.logPath), slog.String("error", msg.err.Error()))
		return
	}
	m.logs.lines = msg.lines
	m.refreshLogs()
}

func (m *Model) refreshLogs() {
	if m.logs.viewport.Width == 0 {
		return
	}
	styles := m.theme.Styles()
	out := make([]string, len(m.logs.lines))
	for i, line := range m.logs.lines {
		out[i] = m.colorizeLogLine(truncate(line, m.logs.viewport.Width), styles)
	}
	m.logs.viewport.SetContent(strings.Join(out, "\n"))
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) colorizeLogLine(line string, styles Styles) string {
	match := levelRe.FindStringSubmatch(line)
	if match == nil {
		return styles.Text.Render(line)
	}
	switch match[1] {
	case "ERROR":
		return styles.DangerText.Render(line)
	case "WARN":
		return styles.WarningText.Render(line)
	case "DEBUG":
		return styles.FaintText.Render(line)
	default:
		return styles.Text.Render(line)
	}
}

func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	vp := &m.logs.viewport
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			vp.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.Top):
		vp.GotoTop()
		m.logs.follow = false
	case key.Matches(msg, m.keys.Bottom):
		vp.GotoBottom()
		m.logs.follow = true
	case key.Matches(msg, m.keys.Down):
		vp.ScrollDown(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.Up):
		vp.ScrollUp(1)
		m.logs.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		vp.HalfPageDown()
		m.logs.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		vp.HalfPageUp()
		m.logs.follow = false
	}
	return m, nil
}

func (m Model) renderLogs() string {
	styles := m.theme.Styles()
	h := max(m.height-chromeHeight, 3)

	var body string
	switch {
	case m.logPath == "":
		body = styles.MutedText.Render("ログファイルが設定されていません")
	case m.logs.err != nil:
		body = styles.DangerText.Render("ログを読み込めません: " + m.logs.err.Error())
	case len(m.logs.lines) == 0:
		body = styles.MutedText.Render("ログはまだありません")
	default:
		body = m.logs.viewport.View()
	}

	title := styles.AccentText.Bold(true).Render(truncate(m.logPath, m.width-6))
	box := m.theme.Box(true, m.width, h-1).Padding(0, 1)
	return lipgloss.JoinVertical(lipgloss.Left, title, box.Render(body))
}
