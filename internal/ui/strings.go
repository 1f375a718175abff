package ui

import (
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
)

// truncate shortens value to at most limit terminal cells. Wide (CJK)
// characters count as two.
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 0 {
		return value
	}
	return runewidth.Truncate(value, limit, "…")
}

// padRight pads s with spaces to width terminal cells.
func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func formatCount(n int) string {
	return strconv.Itoa(n)
}
