package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/livra/internal/editor"
	"github.com/five82/livra/internal/livra"
)

type editorField int

const (
	fieldTitle editorField = iota
	fieldBody
	fieldTags
	fieldCount
)

// editorModal is the new-post form. The draft outlives the modal so a
// closed editor reopens with the same text.
type editorModal struct {
	draft *editor.Controller
	save  func(livra.NewPost) tea.Cmd

	title    textinput.Model
	body     textarea.Model
	tagInput textinput.Model
	field    editorField

	// mark is the rune offset where the body selection starts, or -1.
	mark int

	prompt *promptModal

	picking      bool
	pickerSearch textinput.Model
	pickerCursor int

	width  int
	height int
}

func newEditorModal(draft *editor.Controller, width, height int, save func(livra.NewPost) tea.Cmd) *editorModal {
	title := textinput.New()
	title.Placeholder = "タイトル"
	title.Prompt = ""
	title.SetValue(draft.Title())

	body := textarea.New()
	body.Placeholder = "本文 (Markdown)"
	body.ShowLineNumbers = false
	body.CharLimit = 0
	body.Prompt = ""
	body.SetValue(draft.Content())

	tagInput := textinput.New()
	tagInput.Placeholder = "タグを追加"
	tagInput.Prompt = "# "

	pickerSearch := textinput.New()
	pickerSearch.Placeholder = "タグを絞り込み"
	pickerSearch.Prompt = "/ "

	e := &editorModal{
		draft:        draft,
		save:         save,
		title:        title,
		body:         body,
		tagInput:     tagInput,
		pickerSearch: pickerSearch,
		mark:         -1,
	}
	e.Resize(width, height)
	return e
}

func (e *editorModal) Init() tea.Cmd {
	return e.focusField(fieldTitle)
}

// Resize fits the form into a width x height terminal.
func (e *editorModal) Resize(width, height int) {
	e.width = width
	e.height = height
	inner := e.innerWidth()
	e.title.Width = inner - 1
	e.tagInput.Width = inner - 3
	e.pickerSearch.Width = inner - 3
	e.body.SetWidth(inner)
	// title, toolbar, tags, status and frame
	e.body.SetHeight(max(height-16, 3))
}

func (e *editorModal) innerWidth() int {
	return max(min(e.width-8, 100), 20)
}

func (e *editorModal) focusField(f editorField) tea.Cmd {
	e.field = f
	e.title.Blur()
	e.body.Blur()
	e.tagInput.Blur()
	switch f {
	case fieldTitle:
		return e.title.Focus()
	case fieldBody:
		return e.body.Focus()
	default:
		return e.tagInput.Focus()
	}
}

// selection is the body range between the mark and the cursor.
func (e *editorModal) selection() editor.Selection {
	cur := cursorOffset(e.body)
	if e.mark < 0 {
		return editor.Selection{Start: cur, End: cur}
	}
	return editor.Selection{Start: min(e.mark, cur), End: max(e.mark, cur)}
}

func (e *editorModal) Update(msg tea.Msg, keys keyMap) (Modal, tea.Cmd, bool) {
	if e.prompt != nil {
		_, cmd, closed := e.prompt.Update(msg, keys)
		if closed {
			e.prompt = nil
		}
		return e, cmd, false
	}

	k, ok := msg.(tea.KeyMsg)
	if !ok {
		return e, e.updateField(msg), false
	}
	if e.draft.State() == editor.Saving {
		return e, nil, false
	}
	if e.picking {
		return e, e.updatePicker(k, keys), false
	}

	switch {
	case key.Matches(k, keys.Escape):
		if e.mark >= 0 {
			e.mark = -1
			return e, nil, false
		}
		return e, nil, true

	case key.Matches(k, keys.Save):
		draft, err := e.draft.PrepareSave()
		if err != nil {
			return e, nil, false
		}
		return e, e.save(draft), false

	case key.Matches(k, keys.NextField):
		e.mark = -1
		return e, e.focusField((e.field + 1) % fieldCount), false

	case key.Matches(k, keys.PrevField):
		e.mark = -1
		return e, e.focusField((e.field + fieldCount - 1) % fieldCount), false

	case key.Matches(k, keys.TagPicker):
		e.picking = true
		e.pickerCursor = 0
		e.pickerSearch.SetValue("")
		return e, e.pickerSearch.Focus(), false
	}

	if e.field == fieldBody {
		if key.Matches(k, keys.SetMark) {
			e.mark = cursorOffset(e.body)
			return e, nil, false
		}
		for i, b := range keys.Toolbar {
			if i < len(editor.Kinds) && key.Matches(k, b) {
				return e, e.format(editor.Kinds[i]), false
			}
		}
		if e.replaceSelection(k) {
			return e, nil, false
		}
	}

	if e.field == fieldTags {
		switch {
		case key.Matches(k, keys.Confirm):
			if e.draft.Tags.CreateOrSelect(e.tagInput.Value()) {
				e.tagInput.SetValue("")
			}
			return e, nil, false
		case k.Type == tea.KeyBackspace && e.tagInput.Value() == "":
			e.draft.Tags.RemoveLast()
			return e, nil, false
		}
	}

	return e, e.updateField(msg), false
}

// updateField forwards msg to the focused input and copies the result into
// the draft.
func (e *editorModal) updateField(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch e.field {
	case fieldTitle:
		e.title, cmd = e.title.Update(msg)
		if e.title.Value() != e.draft.Title() {
			e.draft.SetTitle(e.title.Value())
		}
	case fieldBody:
		e.body, cmd = e.body.Update(msg)
		if e.body.Value() != e.draft.Content() {
			e.draft.SetContent(e.body.Value())
		}
	case fieldTags:
		e.tagInput, cmd = e.tagInput.Update(msg)
	}
	return cmd
}

// replaceSelection handles typing over an active selection. It reports
// whether k was consumed.
func (e *editorModal) replaceSelection(k tea.KeyMsg) bool {
	sel := e.selection()
	if e.mark < 0 || sel.Empty() {
		return false
	}
	var text string
	switch k.Type {
	case tea.KeyRunes:
		text = string(k.Runes)
	case tea.KeySpace:
		text = " "
	case tea.KeyBackspace, tea.KeyDelete:
	case tea.KeyEnter:
		text = "\n"
	default:
		return false
	}
	e.mark = -1
	e.draft.SetContent(replaceRange(&e.body, sel.Start, sel.End, text))
	return true
}

// format runs a toolbar action on the body. Links ask for a URL first.
func (e *editorModal) format(kind editor.Kind) tea.Cmd {
	sel := e.selection()
	if kind != editor.Link {
		edit, _ := editor.Apply(kind, e.body.Value(), sel, "")
		e.applyEdit(edit)
		return nil
	}
	e.prompt = newPromptModal("リンクを挿入", "", "https://", false, func(url string) tea.Cmd {
		if edit, ok := editor.Apply(editor.Link, e.body.Value(), sel, url); ok {
			e.applyEdit(edit)
		}
		return nil
	})
	return e.prompt.Init()
}

func (e *editorModal) applyEdit(edit editor.Edit) {
	e.body.SetValue(edit.Text)
	setCursorOffset(&e.body, edit.Selection.End)
	e.mark = -1
	if !edit.Selection.Empty() {
		e.mark = edit.Selection.Start
	}
	e.draft.SetContent(edit.Text)
}

func (e *editorModal) updatePicker(k tea.KeyMsg, keys keyMap) tea.Cmd {
	options := e.draft.Tags.Picker(e.pickerSearch.Value())
	switch {
	case key.Matches(k, keys.Escape), key.Matches(k, keys.TagPicker):
		e.picking = false
		e.pickerSearch.Blur()
		return nil
	case k.Type == tea.KeyUp:
		e.pickerCursor = max(e.pickerCursor-1, 0)
		return nil
	case k.Type == tea.KeyDown:
		e.pickerCursor = min(e.pickerCursor+1, max(len(options)-1, 0))
		return nil
	case key.Matches(k, keys.Confirm):
		if e.pickerCursor < len(options) {
			e.draft.Tags.Toggle(options[e.pickerCursor])
		}
		return nil
	}
	before := e.pickerSearch.Value()
	var cmd tea.Cmd
	e.pickerSearch, cmd = e.pickerSearch.Update(k)
	if e.pickerSearch.Value() != before {
		e.pickerCursor = 0
	}
	return cmd
}

func (e *editorModal) View(theme Theme, width, height int) string {
	if e.prompt != nil {
		return e.prompt.View(theme, width, height)
	}
	if e.picking {
		return e.renderPicker(theme)
	}
	styles := theme.Styles()
	inner := e.innerWidth()

	label := func(f editorField, text string) string {
		if e.field == f {
			return styles.AccentText.Bold(true).Render(text)
		}
		return styles.MutedText.Render(text)
	}

	header := styles.Text.Bold(true).Render("新規メモ")
	count := styles.FaintText.Render(formatCount(e.draft.CharCount()) + " 文字")
	gap := max(inner-lipgloss.Width(header)-lipgloss.Width(count), 1)

	lines := []string{
		header + strings.Repeat(" ", gap) + count,
		"",
		label(fieldTitle, "タイトル"),
		e.title.View(),
		"",
		label(fieldBody, "本文") + "  " + e.renderToolbar(styles),
		e.body.View(),
		"",
		label(fieldTags, "タグ") + "  " + e.renderChips(styles, inner),
		e.tagInput.View(),
		"",
		e.renderStatus(styles),
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.BorderFocus)).
		Padding(0, 1).
		Width(inner + 2).
		Render(strings.Join(lines, "\n"))
}

func (e *editorModal) renderToolbar(styles Styles) string {
	parts := make([]string, len(editor.Kinds))
	for i, kind := range editor.Kinds {
		parts[i] = styles.FaintText.Render(formatCount(i+1)) + styles.MutedText.Render(kind.Label())
	}
	hint := styles.FaintText.Render("(alt+数字)")
	if e.mark >= 0 {
		hint = styles.WarningText.Render("選択中")
	}
	return strings.Join(parts, " ") + " " + hint
}

func (e *editorModal) renderChips(styles Styles, width int) string {
	selected := e.draft.Tags.Selected()
	if len(selected) == 0 {
		return styles.FaintText.Render("ctrl+t で一覧から選択")
	}
	chips := make([]string, len(selected))
	for i, t := range selected {
		chip := "#" + t.Name
		if !t.Persisted() {
			chip += "*"
		}
		chips[i] = styles.AccentText.Render(chip)
	}
	return truncate(strings.Join(chips, " "), width-8)
}

func (e *editorModal) renderStatus(styles Styles) string {
	switch {
	case e.draft.State() == editor.Saving:
		return styles.WarningText.Render("保存中…")
	case e.draft.Err() != nil:
		return styles.DangerText.Render(e.draft.Err().Error())
	default:
		return styles.FaintText.Render("ctrl+s: 保存  tab: 次へ  ctrl+space: 範囲選択  esc: 閉じる")
	}
}

func (e *editorModal) renderPicker(theme Theme) string {
	styles := theme.Styles()
	inner := e.innerWidth()
	options := e.draft.Tags.Picker(e.pickerSearch.Value())

	lines := []string{
		styles.Text.Bold(true).Render("タグを選択"),
		e.pickerSearch.View(),
		"",
	}
	if len(options) == 0 {
		lines = append(lines, styles.MutedText.Render("タグがありません"))
	}
	rows := max(e.height-12, 3)
	start := 0
	if e.pickerCursor >= rows {
		start = e.pickerCursor - rows + 1
	}
	for i := start; i < len(options) && i < start+rows; i++ {
		t := options[i]
		check := "[ ] "
		if e.draft.Tags.IsSelected(t.Name) {
			check = "[x] "
		}
		line := padRight(truncate(check+t.Name, inner-8), inner-8) + " " + formatCount(t.UsageCount)
		if i == e.pickerCursor {
			line = styles.Selected.Render(line)
		} else {
			line = styles.Text.Render(line)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", styles.FaintText.Render("enter: 切替  esc: 戻る"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(0, 1).
		Width(inner + 2).
		Render(strings.Join(lines, "\n"))
}
