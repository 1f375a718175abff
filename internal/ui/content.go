package ui

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livra/internal/markdown"
)

func (m Model) contentWidth() int {
	return max(m.width-m.sidebarWidth(), 10)
}

// resize lays the viewports out for the current terminal size.
func (m *Model) resize() {
	// border (2) + horizontal padding (2)
	w := m.contentWidth() - 4
	h := m.bodyHeight() - 2
	if m.content.Width == 0 {
		m.content = viewport.New(w, h)
	}
	m.content.Width = w
	m.content.Height = h

	if m.renderer == nil || m.renderer.Width() != w-2 {
		r, err := markdown.NewRenderer(w - 2)
		if err != nil {
			m.logger.Error("create markdown renderer", slog.String("error", err.Error()))
		} else {
			m.renderer = r
		}
	}
	m.resizeLogs()
	if resizer, ok := m.modal.(interface{ Resize(w, h int) }); ok {
		resizer.Resize(m.width, m.height)
	}
	m.refreshContent()
}

// refreshContent rerenders the content viewport from the current snapshot.
func (m *Model) refreshContent() {
	if m.content.Width == 0 {
		return
	}
	m.content.SetContent(m.renderContentBody())
}

func (m Model) renderContent() string {
	box := m.theme.Box(m.focus == paneContent, m.contentWidth(), m.bodyHeight()).Padding(0, 1)
	return box.Render(m.content.View())
}

func (m Model) renderContentBody() string {
	switch {
	case m.snapshot.HasPost:
		return m.renderPost()
	case m.snapshot.Loading:
		return m.theme.Styles().MutedText.Render("読み込み中…")
	case m.ownerOnly && m.signedIn():
		return m.renderProfile()
	default:
		return m.renderWelcome()
	}
}

func (m Model) renderPost() string {
	styles := m.theme.Styles()
	post := m.snapshot.Post

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render(post.Title))
	b.WriteString("\n")
	if t := post.ParsedCreatedAt(); !t.IsZero() {
		b.WriteString(styles.FaintText.Render(t.Local().Format("2006-01-02 15:04")))
		b.WriteString("\n")
	}
	if n := len(m.doc.CodeBlocks); n > 0 {
		b.WriteString(styles.FaintText.Render("[ ] でコードブロックを選択、y でコピー"))
		b.WriteString("\n")
	}

	if m.doc.Empty() {
		b.WriteString("\n")
		b.WriteString(styles.MutedText.Render("本文がありません"))
		return b.String()
	}
	if m.renderer == nil {
		b.WriteString("\n")
		b.WriteString(post.Content)
		return b.String()
	}
	out, err := m.renderer.Render(m.doc, markdown.RenderState{
		Focused: m.focusedBlock,
		Copied:  m.copies.Copied,
	})
	if err != nil {
		m.logger.Warn("render post failed", slog.String("id", post.ID), slog.String("error", err.Error()))
		out = "\n" + post.Content
	}
	b.WriteString(out)
	return b.String()
}

func (m Model) renderWelcome() string {
	styles := m.theme.Styles()
	lines := []string{
		styles.Logo.Render("Livraへようこそ"),
		"",
		styles.Text.Render("みんなのメモを検索して読んだり、自分のメモを書いて共有できます。"),
		"",
		styles.Key.Render("/") + "  " + styles.MutedText.Render("メモを検索"),
		styles.Key.Render("m") + "  " + styles.MutedText.Render("自分のメモ / みんなのメモ"),
		styles.Key.Render("n") + "  " + styles.MutedText.Render("新しいメモを書く"),
	}
	if !m.signedIn() {
		lines = append(lines, styles.Key.Render("L")+"  "+styles.MutedText.Render("Googleでログイン"))
	}
	return lipgloss.NewStyle().Width(m.content.Width).Render(strings.Join(lines, "\n"))
}

func (m Model) renderProfile() string {
	styles := m.theme.Styles()
	user, _ := m.currentUser()

	field := func(label, value string) string {
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		return styles.MutedText.Render(padRight(label, 10)) + styles.Text.Render(value)
	}
	lines := []string{
		styles.Logo.Render(user.Name),
		"",
		field("メール", user.Email),
		field("アバター", user.AvatarURL),
		"",
		styles.AccentText.Render("自己紹介"),
	}
	bio := strings.TrimSpace(user.Bio)
	if bio == "" {
		bio = "自己紹介はまだありません"
	}
	lines = append(lines, styles.Text.Render(bio))
	return lipgloss.NewStyle().Width(m.content.Width).Render(strings.Join(lines, "\n"))
}
