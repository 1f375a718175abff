package editor

import (
	"strconv"
	"strings"
)

// Kind names a toolbar formatting action.
type Kind string

const (
	Bold         Kind = "bold"
	Italic       Kind = "italic"
	Heading      Kind = "heading"
	List         Kind = "list"
	NumberedList Kind = "numberedList"
	Link         Kind = "link"
	Code         Kind = "code"
	Blockquote   Kind = "blockquote"
)

// Kinds lists the toolbar actions in display order.
var Kinds = []Kind{Bold, Italic, Heading, List, NumberedList, Link, Code, Blockquote}

// Label is the toolbar caption for k.
func (k Kind) Label() string {
	switch k {
	case Bold:
		return "太字"
	case Italic:
		return "斜体"
	case Heading:
		return "見出し"
	case List:
		return "リスト"
	case NumberedList:
		return "番号リスト"
	case Link:
		return "リンク"
	case Code:
		return "コード"
	case Blockquote:
		return "引用"
	}
	return string(k)
}

// Selection is a half-open range of rune offsets into the body.
type Selection struct {
	Start int
	End   int
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return s.Start == s.End
}

func (s Selection) clamp(n int) Selection {
	if s.Start > s.End {
		s.Start, s.End = s.End, s.Start
	}
	s.Start = min(max(s.Start, 0), n)
	s.End = min(max(s.End, 0), n)
	return s
}

// Edit is the outcome of Apply: the new body and the range to select next,
// which covers the inserted text without its delimiters.
type Edit struct {
	Text      string
	Selection Selection
}

const codeFenceOpen = "```ここに言語名\n"

// Apply formats the selected part of text. Link needs url; a blank url
// aborts the edit and Apply reports false.
func Apply(kind Kind, text string, sel Selection, url string) (Edit, bool) {
	runes := []rune(text)
	sel = sel.clamp(len(runes))
	selected := string(runes[sel.Start:sel.End])

	var before, after, replacement string
	switch kind {
	case Bold:
		before, after = "**", "**"
		replacement = orPlaceholder(selected, "太字")
	case Italic:
		before, after = "*", "*"
		replacement = orPlaceholder(selected, "斜体")
	case Link:
		url = strings.TrimSpace(url)
		if url == "" {
			return Edit{}, false
		}
		replacement = "[" + orPlaceholder(selected, "リンクテキスト") + "](" + url + ")"
	case Heading:
		replacement = prefixLines(orPlaceholder(selected, "見出し"), func(int) string { return "# " })
	case List:
		replacement = prefixLines(orPlaceholder(selected, "項目"), func(int) string { return "- " })
	case NumberedList:
		replacement = prefixLines(orPlaceholder(selected, "項目"), func(i int) string { return strconv.Itoa(i+1) + ". " })
	case Blockquote:
		replacement = prefixLines(orPlaceholder(selected, "引用文"), func(int) string { return "> " })
	case Code:
		before, after = codeFenceOpen, "\n```"
		replacement = orPlaceholder(selected, "コード")
	default:
		return Edit{}, false
	}

	var b strings.Builder
	b.WriteString(string(runes[:sel.Start]))
	b.WriteString(before)
	b.WriteString(replacement)
	b.WriteString(after)
	b.WriteString(string(runes[sel.End:]))

	start := sel.Start + runeLen(before)
	return Edit{
		Text:      b.String(),
		Selection: Selection{Start: start, End: start + runeLen(replacement)},
	}, true
}

func orPlaceholder(selected, placeholder string) string {
	if selected == "" {
		return placeholder
	}
	return selected
}

func prefixLines(s string, prefix func(i int) string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix(i) + line
	}
	return strings.Join(lines, "\n")
}

func runeLen(s string) int {
	return len([]rune(s))
}
