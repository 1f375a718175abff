package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}

var helpSections = []helpSection{
	{
		title: "メモ一覧",
		items: []helpItem{
			{"/", "検索"},
			{"j/k", "上下に移動"},
			{"enter", "メモを開く"},
			{"←/h →", "前 / 次のページ"},
			{"m", "自分のメモ / みんなのメモ"},
			{"tab", "一覧 / 本文を切替"},
		},
	},
	{
		title: "本文",
		items: []helpItem{
			{"j/k", "スクロール"},
			{"ctrl+d/u", "半ページ移動"},
			{"[ / ]", "コードブロックを選択"},
			{"y", "コードブロックをコピー"},
		},
	},
	{
		title: "エディタ",
		items: []helpItem{
			{"n", "新しいメモ"},
			{"ctrl+s", "保存"},
			{"ctrl+space", "範囲選択を開始"},
			{"alt+1..8", "書式ツールバー"},
			{"ctrl+t", "タグ一覧"},
		},
	},
	{
		title: "その他",
		items: []helpItem{
			{"L / X", "ログイン / ログアウト"},
			{"l", "クライアントログ"},
			{"T", "テーマ切替"},
			{"?", "ヘルプ"},
			{"q", "終了"},
		},
	},
}

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()
	keyStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.theme.Warning)).
		Width(12)

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("キー操作"))
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range helpSections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")
		for _, item := range section.items {
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}
		if i < len(helpSections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(44).
		Render(b.String())

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}
