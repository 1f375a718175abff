package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Modal is the interface for modal dialogs.
// The Update method returns the updated modal, a command, and a bool indicating if the modal should close.
type Modal interface {
	Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool)
	View(theme Theme, width, height int) string
}

// promptModal asks for one line of input. submit returns the command that
// acts on it; a nil command closes the prompt right away, otherwise the
// prompt waits until the owner calls Fail or closes it.
type promptModal struct {
	title  string
	note   string
	input  textinput.Model
	submit func(string) tea.Cmd
	busy   bool
	err    string
}

func newPromptModal(title, note, placeholder string, secret bool, submit func(string) tea.Cmd) *promptModal {
	in := textinput.New()
	in.Placeholder = placeholder
	in.Prompt = "› "
	if secret {
		in.EchoMode = textinput.EchoPassword
		in.EchoCharacter = '•'
	}
	return &promptModal{title: title, note: note, input: in, submit: submit}
}

func (p *promptModal) Init() tea.Cmd {
	return p.input.Focus()
}

// Fail shows msg and accepts input again.
func (p *promptModal) Fail(msg string) {
	p.busy = false
	p.err = msg
}

func (p *promptModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if k, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(k, keys.Escape):
			return p, nil, true
		case key.Matches(k, keys.Confirm):
			if p.busy {
				return p, nil, false
			}
			value := strings.TrimSpace(p.input.Value())
			if value == "" {
				p.err = "入力してください"
				return p, nil, false
			}
			cmd := p.submit(value)
			if cmd == nil {
				return p, nil, true
			}
			p.busy = true
			p.err = ""
			return p, cmd, false
		}
		if p.busy {
			return p, nil, false
		}
	}
	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	return p, cmd, false
}

func (p *promptModal) View(theme Theme, width, _ int) string {
	styles := theme.Styles()
	w := min(max(width-10, 30), 64)
	p.input.Width = w - 8

	lines := []string{styles.Text.Bold(true).Render(p.title)}
	if p.note != "" {
		lines = append(lines, styles.MutedText.Render(p.note))
	}
	lines = append(lines, "", p.input.View(), "")
	switch {
	case p.busy:
		lines = append(lines, styles.WarningText.Render("送信中…"))
	case p.err != "":
		lines = append(lines, styles.DangerText.Render(p.err))
	default:
		lines = append(lines, styles.FaintText.Render("enter: 決定  esc: キャンセル"))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Width(w).
		Render(strings.Join(lines, "\n"))
}
