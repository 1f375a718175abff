package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Tab        key.Binding
	ShiftTab   key.Binding
	Escape     key.Binding
	Logs       key.Binding

	// Logs
	ToggleFollow key.Binding

	// Posts
	Search     key.Binding
	ToggleMode key.Binding
	NewPost    key.Binding
	Login      key.Binding
	Logout     key.Binding
	PrevPage   key.Binding
	NextPage   key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding
	Confirm      key.Binding

	// Content
	PrevBlock key.Binding
	NextBlock key.Binding
	CopyBlock key.Binding

	// Editor
	Save      key.Binding
	SetMark   key.Binding
	TagPicker key.Binding
	NextField key.Binding
	PrevField key.Binding
	Toolbar   []key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "q"),
			key.WithHelp("q", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next pane"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous pane"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back"),
		),
		Logs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Client log"),
		),
		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle follow"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search posts"),
		),
		ToggleMode: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "My notes / everyone"),
		),
		NewPost: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "New post"),
		),
		Login: key.NewBinding(
			key.WithKeys("L"),
			key.WithHelp("L", "Sign in"),
		),
		Logout: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Sign out"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("h/left", "Previous page"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("right", "Next page"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "Half page down"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Open"),
		),

		PrevBlock: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "Previous code block"),
		),
		NextBlock: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "Next code block"),
		),
		CopyBlock: key.NewBinding(
			key.WithKeys("y", "c"),
			key.WithHelp("y", "Copy code block"),
		),

		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "Save"),
		),
		SetMark: key.NewBinding(
			key.WithKeys("ctrl+@"),
			key.WithHelp("ctrl+space", "Start selection"),
		),
		TagPicker: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "Tag picker"),
		),
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "Previous field"),
		),
		Toolbar: toolbarBindings(),
	}
}

// toolbarBindings maps alt+1..alt+8 onto editor.Kinds in order.
func toolbarBindings() []key.Binding {
	keys := []string{"alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8"}
	out := make([]key.Binding, len(keys))
	for i, k := range keys {
		out[i] = key.NewBinding(key.WithKeys(k), key.WithHelp(k, ""))
	}
	return out
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Search, k.ToggleMode, k.PrevPage, k.NextPage, k.Confirm},
		{k.Tab, k.Up, k.Down, k.Top, k.Bottom},
		{k.HalfPageDown, k.HalfPageUp, k.PrevBlock, k.NextBlock, k.CopyBlock},
		{k.NewPost, k.Save, k.SetMark, k.TagPicker},
		{k.Login, k.Logout, k.Logs, k.ToggleFollow, k.CycleTheme, k.Help, k.Quit},
	}
}
