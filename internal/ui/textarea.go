package ui

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
)

// cursorOffset is the cursor position in ta as a rune offset into Value.
func cursorOffset(ta textarea.Model) int {
	lines := strings.Split(ta.Value(), "\n")
	row := min(max(ta.Line(), 0), len(lines)-1)

	off := 0
	for _, line := range lines[:row] {
		off += utf8.RuneCountInString(line) + 1
	}
	li := ta.LineInfo()
	col := li.StartColumn + li.ColumnOffset
	return off + min(col, utf8.RuneCountInString(lines[row]))
}

// setCursorOffset moves the cursor of ta to rune offset off.
func setCursorOffset(ta *textarea.Model, off int) {
	value := ta.Value()
	lines := strings.Split(value, "\n")
	row, col := 0, max(off, 0)
	for row < len(lines)-1 && col > utf8.RuneCountInString(lines[row]) {
		col -= utf8.RuneCountInString(lines[row]) + 1
		row++
	}

	// Soft-wrapped rows take several steps; bound the walk anyway.
	guard := utf8.RuneCountInString(value) + len(lines) + 1
	for ; ta.Line() > row && guard > 0; guard-- {
		ta.CursorUp()
	}
	for ; ta.Line() < row && guard > 0; guard-- {
		ta.CursorDown()
	}
	ta.SetCursor(col)
}

// replaceRange swaps runes [start, end) of ta's value for text and leaves
// the cursor after the inserted text.
func replaceRange(ta *textarea.Model, start, end int, text string) string {
	runes := []rune(ta.Value())
	start = min(max(start, 0), len(runes))
	end = min(max(end, start), len(runes))
	value := string(runes[:start]) + text + string(runes[end:])
	ta.SetValue(value)
	setCursorOffset(ta, start+utf8.RuneCountInString(text))
	return value
}
