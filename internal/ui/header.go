package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/five82/livra/internal/livra"
)

const (
	labelMine     = "自分のメモ"
	labelEveryone = "みんなのメモ"
)

func (m Model) modeLabel() string {
	if m.ownerOnly {
		return labelMine
	}
	return labelEveryone
}

// renderHeader renders the top bar: logo, mode, user and backend health.
func (m Model) renderHeader() string {
	styles := m.theme.Styles()
	sep := "  "

	parts := []string{
		styles.Logo.Render("livra"),
		styles.AccentText.Bold(true).Render(m.modeLabel()),
	}

	if user, ok := m.currentUser(); ok {
		parts = append(parts, styles.Text.Render(truncate(user.Name, 24)))
	} else {
		parts = append(parts, styles.MutedText.Render("未ログイン"))
	}

	switch {
	case m.snapshot.IsOffline():
		parts = append(parts, styles.DangerText.Render(classifyConnectionError(m.snapshot.LastError)))
	case m.snapshot.LastError != nil:
		parts = append(parts, styles.WarningText.Render("検索に失敗しました"))
	}

	if m.snapshot.Loading {
		parts = append(parts, styles.WarningText.Render("読み込み中…"))
	}
	if m.flash != "" {
		parts = append(parts, styles.SuccessText.Render(m.flash))
	}

	return styles.Bar.Width(m.width).Render(strings.Join(parts, sep))
}

func classifyConnectionError(err error) string {
	if err == nil {
		return ""
	}
	var status *livra.StatusError
	if errors.As(err, &status) {
		return "BACKEND " + strconv.Itoa(status.StatusCode)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "OFFLINE"
	case strings.Contains(msg, "no such host"):
		return "HOST NOT FOUND"
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline exceeded"):
		return "TIMEOUT"
	default:
		return "ERROR"
	}
}

// renderCommandBar renders the key hints for the active view.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles()

	type cmd struct{ key, desc string }
	var commands []cmd

	switch {
	case m.currentView == ViewLogs:
		follow := "Pause"
		if !m.logs.follow {
			follow = "Follow"
		}
		commands = []cmd{
			{"Space", follow},
			{"j/k", "Scroll"},
			{"esc", "Posts"},
			{"?", "More"},
		}
	case m.focus == paneSearch:
		commands = []cmd{
			{"enter", "List"},
			{"esc", "Done"},
		}
	case m.focus == paneContent:
		commands = []cmd{
			{"j/k", "Scroll"},
			{"[/]", "Block"},
			{"y", "Copy"},
			{"tab", "List"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"enter", "Open"},
			{"h/→", "Page"},
			{"m", m.modeLabel()},
			{"n", "New"},
			{"tab", "Content"},
			{"?", "More"},
		}
	}
	if m.width < LayoutCompactWidth && len(commands) > 4 {
		commands = append(commands[:3], commands[len(commands)-1])
	}

	segments := make([]string, 0, len(commands)+1)
	for _, c := range commands {
		segments = append(segments, styles.Key.Render(c.key)+":"+styles.MutedText.Render(c.desc))
	}
	segments = append(segments, styles.Key.Render("T")+":"+styles.FaintText.Render(m.theme.Name))

	return styles.Bar.Width(m.width).Render(strings.Join(segments, "  "))
}
