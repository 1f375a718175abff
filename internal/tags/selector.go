// Package tags manages the set of tags chosen for a draft post.
package tags

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/five82/livra/internal/livra"
)

// PickerLimit is how many of the most used tags the picker offers.
const PickerLimit = 50

// Selector holds the chosen tags and the catalog of known ones. Tag names
// are the identity inside a selection; ids only tell persisted tags apart
// from ones created here.
type Selector struct {
	selected []livra.Tag
	catalog  []livra.Tag
}

// NewSelector returns an empty selector over catalog.
func NewSelector(catalog []livra.Tag) *Selector {
	s := &Selector{}
	s.SetCatalog(catalog)
	return s
}

// SetCatalog replaces the known tags.
func (s *Selector) SetCatalog(catalog []livra.Tag) {
	s.catalog = slices.Clone(catalog)
}

// Catalog returns a copy of the known tags.
func (s *Selector) Catalog() []livra.Tag {
	return slices.Clone(s.catalog)
}

// Selected returns the chosen tags in selection order.
func (s *Selector) Selected() []livra.Tag {
	return slices.Clone(s.selected)
}

// Names returns the chosen tag names.
func (s *Selector) Names() []string {
	names := make([]string, len(s.selected))
	for i, t := range s.selected {
		names[i] = t.Name
	}
	return names
}

// IsSelected reports whether a tag with this name is chosen.
func (s *Selector) IsSelected(name string) bool {
	return s.indexOf(normalize(name)) >= 0
}

// AddExisting selects tag unless a tag with the same name is chosen.
func (s *Selector) AddExisting(tag livra.Tag) {
	tag.Name = normalize(tag.Name)
	if tag.Name == "" || s.indexOf(tag.Name) >= 0 {
		return
	}
	s.selected = append(s.selected, tag)
}

// CreateOrSelect selects the tag called raw. A known tag keeps its id; an
// unknown name becomes a new tag with an empty id. Blank input and names
// already chosen are ignored. It reports whether the selection changed.
func (s *Selector) CreateOrSelect(raw string) bool {
	name := normalize(raw)
	if name == "" || s.indexOf(name) >= 0 {
		return false
	}
	for _, known := range s.catalog {
		if normalize(known.Name) == name {
			known.Name = name
			s.selected = append(s.selected, known)
			return true
		}
	}
	s.selected = append(s.selected, livra.Tag{Name: name})
	return true
}

// Remove unselects the tag called name, persisted or not.
func (s *Selector) Remove(name string) {
	name = normalize(name)
	s.selected = slices.DeleteFunc(s.selected, func(t livra.Tag) bool {
		return t.Name == name
	})
}

// RemoveLast unselects the most recently chosen tag.
func (s *Selector) RemoveLast() {
	if n := len(s.selected); n > 0 {
		s.selected = s.selected[:n-1]
	}
}

// Toggle selects tag, or unselects it when already chosen.
func (s *Selector) Toggle(tag livra.Tag) {
	if s.IsSelected(tag.Name) {
		s.Remove(tag.Name)
		return
	}
	s.AddExisting(tag)
}

// Reset clears the selection and keeps the catalog.
func (s *Selector) Reset() {
	s.selected = nil
}

// Picker returns the PickerLimit most used catalog tags whose name contains
// search, ignoring case.
func (s *Selector) Picker(search string) []livra.Tag {
	ranked := slices.Clone(s.catalog)
	slices.SortStableFunc(ranked, func(a, b livra.Tag) int {
		return b.UsageCount - a.UsageCount
	})
	if len(ranked) > PickerLimit {
		ranked = ranked[:PickerLimit]
	}

	fold := cases.Fold()
	needle := fold.String(normalize(search))
	if needle == "" {
		return ranked
	}
	out := ranked[:0]
	for _, t := range ranked {
		if strings.Contains(fold.String(normalize(t.Name)), needle) {
			out = append(out, t)
		}
	}
	return out
}

func (s *Selector) indexOf(name string) int {
	return slices.IndexFunc(s.selected, func(t livra.Tag) bool {
		return t.Name == name
	})
}

func normalize(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}
