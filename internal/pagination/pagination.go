// Package pagination decides which page buttons a list footer shows.
package pagination

import (
	"slices"
	"strconv"
)

// Slot is one entry of the page strip: either a page index or a gap marker.
type Slot struct {
	Index int
	Gap   bool
}

// Label returns the 1-based page number, or an ellipsis for gaps.
func (s Slot) Label() string {
	if s.Gap {
		return "…"
	}
	return strconv.Itoa(s.Index + 1)
}

// Visible returns the page strip for the given 0-based current page: the
// first page, the last page and the pages adjacent to current, in ascending
// order, with a single gap marker wherever kept indices are not contiguous.
func Visible(current, total int) []Slot {
	if total <= 0 {
		return nil
	}

	kept := []int{0, current - 1, current, current + 1, total - 1}
	slices.Sort(kept)

	slots := make([]Slot, 0, len(kept)+2)
	prev := -1
	for _, i := range kept {
		if i < 0 || i >= total || i == prev {
			continue
		}
		if prev >= 0 && i-prev > 1 {
			slots = append(slots, Slot{Gap: true})
		}
		slots = append(slots, Slot{Index: i})
		prev = i
	}
	return slots
}

// Clamp bounds page to [0, total-1], returning 0 when there are no pages.
func Clamp(page, total int) int {
	if total <= 0 || page < 0 {
		return 0
	}
	if page >= total {
		return total - 1
	}
	return page
}
