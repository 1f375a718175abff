package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the sidebar narrows
	// and the command bar drops hints.
	LayoutCompactWidth = 100

	// SidebarWidth is the outer width of the post list pane.
	SidebarWidth        = 36
	SidebarCompactWidth = 26

	// chromeHeight covers the header and the command bar.
	chromeHeight = 2
)

// Log view limits.
const (
	// LogTailLines is how many lines of the client log the log view reads.
	LogTailLines = 500
)

// Timing constants.
const (
	// FetchTimeout bounds single post loads, saves and logins.
	FetchTimeout = 10 * time.Second

	// LogRefreshInterval is how often the log view rereads the file.
	LogRefreshInterval = 2 * time.Second
)
